package srt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/devhsu/srt-macro/internal/model"
)

// SearchParams describe one schedule query. Date is yyyyMMdd and Time
// HHmmss, as the wire expects.
type SearchParams struct {
	DepStationCode string
	ArrStationCode string
	Date           string
	Time           string
	PassengerCount int
	NetfunnelKey   string
}

// envelope is the outer result document every list endpoint returns.
// Only the output datasets matter to us; the command echo is ignored.
type envelope struct {
	ResultMap   []resultEntry   `json:"resultMap"`
	ErrorCode   string          `json:"ErrorCode"`
	ErrorMsg    string          `json:"ErrorMsg"`
	OutDataSets *outDataSets    `json:"outDataSets"`
	TrainList   []rawRsvTrain   `json:"trainListMap"`
	PayList     []rawRsvPay     `json:"payListMap"`
	TicketList  []rawTicket     `json:"ticketList"`
	CommandMap  json.RawMessage `json:"commandMap"`
}

type resultEntry struct {
	StrResult string `json:"strResult"`
	MsgTxt    string `json:"msgTxt"`
}

type outDataSets struct {
	Output1 []rawTrain `json:"dsOutput1"`
}

// rawTrain mirrors one schedule row as transmitted.
type rawTrain struct {
	TrainCode        string `json:"stlbTrnClsfCd"`
	TrainNumber      string `json:"trnNo"`
	DepDate          string `json:"dptDt"`
	DepTime          string `json:"dptTm"`
	DepStationCode   string `json:"dptRsStnCd"`
	ArrDate          string `json:"arvDt"`
	ArrTime          string `json:"arvTm"`
	ArrStationCode   string `json:"arvRsStnCd"`
	GeneralSeatState string `json:"gnrmRsvPsbStr"`
	SpecialSeatState string `json:"sprmRsvPsbStr"`
	WaitlistCode     string `json:"rsvWaitPsbCd"`
	WaitlistName     string `json:"rsvWaitPsbCdNm"`
}

// Search runs an authenticated schedule query and returns the
// operator's trains in upstream order. An empty slice means the service
// answered with zero matching trains; a non-nil error means the service
// was unreachable or the response could not be decoded. Callers that
// poll should retry on error and inspect the slice on success.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]model.Train, error) {
	if !c.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}

	form := url.Values{
		"chtnDvCd":      {"1"},
		"dptDt":         {p.Date},
		"dptTm":         {p.Time},
		"dptDt1":        {p.Date},
		"dptTm1":        {hourFloor(p.Time)},
		"dptRsStnCd":    {p.DepStationCode},
		"arvRsStnCd":    {p.ArrStationCode},
		"stlbTrnClsfCd": {"05"}, // 전체 열차
		"trnGpCd":       {"109"},
		"trnNo":         {""},
		"psgNum":        {strconv.Itoa(p.PassengerCount)},
		"seatAttCd":     {"015"},
		"arriveTime":    {"N"},
		"tkDptDt":       {""},
		"tkDptTm":       {""},
		"tkTrnNo":       {""},
		"tkTripChgFlg":  {""},
		"dlayTnumAplFlg": {"Y"},
		"netfunnelKey":  {p.NetfunnelKey},
	}

	body, err := c.postForm(ctx, epSearch, form)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.OutDataSets == nil {
		return nil, fmt.Errorf("%w: outDataSets missing", ErrDecode)
	}

	trains := make([]model.Train, 0, len(env.OutDataSets.Output1))
	for _, raw := range env.OutDataSets.Output1 {
		if raw.TrainCode != c.operatorCode {
			continue
		}
		trains = append(trains, c.toTrain(raw))
	}
	return trains, nil
}

func (c *Client) toTrain(raw rawTrain) model.Train {
	return model.Train{
		TrainCode:        raw.TrainCode,
		TrainName:        c.tables.LookupTrainName(raw.TrainCode),
		TrainNumber:      raw.TrainNumber,
		DepDate:          raw.DepDate,
		DepTime:          raw.DepTime,
		DepStationCode:   raw.DepStationCode,
		DepStationName:   c.tables.LookupStationName(raw.DepStationCode),
		ArrDate:          raw.ArrDate,
		ArrTime:          raw.ArrTime,
		ArrStationCode:   raw.ArrStationCode,
		ArrStationName:   c.tables.LookupStationName(raw.ArrStationCode),
		GeneralSeatState: raw.GeneralSeatState,
		SpecialSeatState: raw.SpecialSeatState,
		WaitlistCode:     raw.WaitlistCode,
		WaitlistName:     raw.WaitlistName,
	}
}

// hourFloor truncates HHmmss to the top of the hour (HH0000), the
// second time variant the search form carries.
func hourFloor(t string) string {
	if len(t) < 2 {
		return "000000"
	}
	return t[:2] + "0000"
}
