package srt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/devhsu/srt-macro/internal/model"
)

// wireInt decodes the amounts the API sends sometimes as numbers and
// sometimes as quoted strings.
type wireInt int

func (n *wireInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*n = wireInt(v)
	return nil
}

// rawRsvTrain is one trainListMap row of the reservation listing.
// TkSpecNum is a pointer on purpose: its absence flags a departed,
// currently running train.
type rawRsvTrain struct {
	ReservationNumber string  `json:"pnrNo"`
	TotalCost         wireInt `json:"rcvdAmt"`
	TkSpecNum         *string `json:"tkSpecNum"`
}

// rawRsvPay is the matching payListMap row.
type rawRsvPay struct {
	TrainCode      string `json:"stlbTrnClsfCd"`
	TrainNumber    string `json:"trnNo"`
	DepDate        string `json:"dptDt"`
	DepTime        string `json:"dptTm"`
	DepStationCode string `json:"dptRsStnCd"`
	ArrTime        string `json:"arvTm"`
	ArrStationCode string `json:"arvRsStnCd"`
	PaymentDate    string `json:"iseLmtDt"`
	PaymentTime    string `json:"iseLmtTm"`
	PaidFlag       string `json:"stlFlg"`
	SeatNum        string `json:"seatNum"`
}

// rawTicket is one ticketList row of the per-reservation detail call.
type rawTicket struct {
	Car               string  `json:"scarNo"`
	Seat              string  `json:"seatNo"`
	SeatTypeCode      string  `json:"psrmClCd"`
	PassengerTypeCode string  `json:"dcntKndCd"`
	Price             wireInt `json:"rcvdAmt"`
	OriginalPrice     wireInt `json:"stdrPrc"`
	Discount          wireInt `json:"dcntPrc"`
}

// Reserve books the given train for the combined passenger list and
// returns the resulting reservation with its tickets. specialSeat picks
// the seat class the booking requests; a train with no open seats is
// booked as a standby (waitlist) claim. The admission key must be fresh;
// the caller owns its lifecycle.
func (c *Client) Reserve(ctx context.Context, train model.Train, passengers []model.Passenger, specialSeat bool, netfunnelKey string) (*model.Reservation, error) {
	if !c.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}

	standby := "N"
	if !train.SeatAvailable() && train.WaitlistOpen() {
		standby = "Y"
	}
	form := url.Values{
		"jobId":          {"1101"},
		"jrnyCnt":        {"1"},
		"jrnyTpCd":       {"11"},
		"jrnySqno1":      {"001"},
		"stndFlg":        {standby},
		"trnGpCd1":       {"300"},
		"stlbTrnClsfCd1": {train.TrainCode},
		"dptDt1":         {train.DepDate},
		"dptTm1":         {train.DepTime},
		"runDt1":         {train.DepDate},
		"trnNo1":         {train.TrainNumber},
		"dptRsStnCd1":    {train.DepStationCode},
		"arvRsStnCd1":    {train.ArrStationCode},
		"netfunnelKey":   {netfunnelKey},
	}
	for k, vs := range model.ReserveParams(passengers, specialSeat) {
		form[k] = vs
	}

	body, err := c.postForm(ctx, epReserve, form)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(env.ResultMap) == 0 {
		return nil, fmt.Errorf("%w: resultMap missing", ErrDecode)
	}
	if env.ResultMap[0].StrResult != "SUCC" {
		return nil, fmt.Errorf("%w: %s", ErrReserveRefused, env.ResultMap[0].MsgTxt)
	}

	// The reserve response itself carries no booking record; fetch the
	// reservation list and pick the entry for this train.
	reservations, err := c.Reservations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reservations {
		r := &reservations[i]
		if r.TrainNumber == train.TrainNumber &&
			r.DepDate == train.DepDate &&
			r.DepTime == train.DepTime &&
			r.DepStationCode == train.DepStationCode {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: reservation accepted but not listed", ErrDecode)
}

// Reservations lists the member's current reservations, tickets
// included. The listing pairs a train row with a payment row per
// reservation; ticket rows come from a separate detail call.
func (c *Client) Reservations(ctx context.Context) ([]model.Reservation, error) {
	if !c.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}
	body, err := c.postForm(ctx, epTickets, url.Values{"pageNo": {"0"}})
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(env.TrainList) != len(env.PayList) {
		return nil, fmt.Errorf("%w: %d train rows vs %d pay rows", ErrDecode, len(env.TrainList), len(env.PayList))
	}

	out := make([]model.Reservation, 0, len(env.TrainList))
	for i := range env.TrainList {
		tickets, err := c.ticketInfo(ctx, env.TrainList[i].ReservationNumber)
		if err != nil {
			return nil, err
		}
		out = append(out, c.toReservation(env.TrainList[i], env.PayList[i], tickets))
	}
	return out, nil
}

func (c *Client) ticketInfo(ctx context.Context, pnrNo string) ([]model.Ticket, error) {
	body, err := c.postForm(ctx, epTicketInfo, url.Values{
		"pnrNo":    {pnrNo},
		"jrnySqno": {"1"},
	})
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	tickets := make([]model.Ticket, 0, len(env.TicketList))
	for _, raw := range env.TicketList {
		tickets = append(tickets, model.Ticket{
			Car:               raw.Car,
			Seat:              raw.Seat,
			SeatTypeCode:      raw.SeatTypeCode,
			SeatType:          c.tables.LookupSeatType(raw.SeatTypeCode),
			PassengerTypeCode: raw.PassengerTypeCode,
			PassengerType:     c.tables.LookupPassengerType(raw.PassengerTypeCode),
			Price:             int(raw.Price),
			OriginalPrice:     int(raw.OriginalPrice),
			Discount:          int(raw.Discount),
		})
	}
	return tickets, nil
}

func (c *Client) toReservation(train rawRsvTrain, pay rawRsvPay, tickets []model.Ticket) model.Reservation {
	seatCount := 0
	if train.TkSpecNum != nil {
		seatCount, _ = strconv.Atoi(*train.TkSpecNum)
	} else if pay.SeatNum != "" {
		seatCount, _ = strconv.Atoi(pay.SeatNum)
	}

	paid := pay.PaidFlag == "Y"
	running := train.TkSpecNum == nil
	waiting := !(paid || pay.PaymentDate != "" || pay.PaymentTime != "")

	return model.Reservation{
		ReservationNumber: train.ReservationNumber,
		TotalCost:         int(train.TotalCost),
		SeatCount:         seatCount,
		TrainCode:         pay.TrainCode,
		TrainName:         c.tables.LookupTrainName(pay.TrainCode),
		TrainNumber:       pay.TrainNumber,
		DepDate:           pay.DepDate,
		DepTime:           pay.DepTime,
		DepStationCode:    pay.DepStationCode,
		DepStationName:    c.tables.LookupStationName(pay.DepStationCode),
		ArrTime:           pay.ArrTime,
		ArrStationCode:    pay.ArrStationCode,
		ArrStationName:    c.tables.LookupStationName(pay.ArrStationCode),
		PaymentDate:       pay.PaymentDate,
		PaymentTime:       pay.PaymentTime,
		Paid:              paid,
		Running:           running,
		Waiting:           waiting,
		Tickets:           tickets,
	}
}
