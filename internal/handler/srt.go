package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devhsu/srt-macro/internal/constant"
	"github.com/devhsu/srt-macro/internal/model"
	"github.com/devhsu/srt-macro/internal/netfunnel"
	"github.com/devhsu/srt-macro/internal/srt"
	"github.com/devhsu/srt-macro/internal/store"
)

// SRTHandler exposes the upstream session operations: logging in,
// one-off searches and listing live reservations. The reservation loop
// itself lives in MacroHandler.
type SRTHandler struct {
	Client *srt.Client
	Gate   *netfunnel.Helper
	Store  store.CredentialStore
	Tables constant.Tables
}

func NewSRTHandler(client *srt.Client, gate *netfunnel.Helper, st store.CredentialStore, tables constant.Tables) *SRTHandler {
	return &SRTHandler{Client: client, Gate: gate, Store: st, Tables: tables}
}

// ----- DTOs -----

type srtLoginReq struct {
	Identifier string `json:"identifier"` // 회원번호, 이메일, 전화번호
	Password   string `json:"password"`
	Remember   bool   `json:"remember"` // persist in the credential store
}

type searchReq struct {
	Departure      string `json:"departure"` // station name, e.g. "수서"
	Arrival        string `json:"arrival"`
	Date           string `json:"date"` // yyyyMMdd
	Time           string `json:"time"` // HHmmss
	PassengerCount int    `json:"passenger_count"`
}

type trainResp struct {
	TrainCode        string `json:"train_code"`
	TrainName        string `json:"train_name"`
	TrainNumber      string `json:"train_number"`
	DepDate          string `json:"dep_date"`
	DepTime          string `json:"dep_time"`
	DepStationCode   string `json:"dep_station_code"`
	DepStationName   string `json:"dep_station_name"`
	ArrDate          string `json:"arr_date"`
	ArrTime          string `json:"arr_time"`
	ArrStationCode   string `json:"arr_station_code"`
	ArrStationName   string `json:"arr_station_name"`
	GeneralSeatState string `json:"general_seat_state"`
	SpecialSeatState string `json:"special_seat_state"`
	WaitlistCode     string `json:"waitlist_code"`
	Summary          string `json:"summary"`
}

func toTrainResp(t model.Train) trainResp {
	return trainResp{
		TrainCode:        t.TrainCode,
		TrainName:        t.TrainName,
		TrainNumber:      t.TrainNumber,
		DepDate:          t.DepDate,
		DepTime:          t.DepTime,
		DepStationCode:   t.DepStationCode,
		DepStationName:   t.DepStationName,
		ArrDate:          t.ArrDate,
		ArrTime:          t.ArrTime,
		ArrStationCode:   t.ArrStationCode,
		ArrStationName:   t.ArrStationName,
		GeneralSeatState: t.GeneralSeatState,
		SpecialSeatState: t.SpecialSeatState,
		WaitlistCode:     t.WaitlistCode,
		Summary:          t.String(),
	}
}

// Login authenticates the SRT session. When the body carries no
// identifier the stored credentials are used; with remember=true the
// supplied pair is persisted after a successful login.
func (h *SRTHandler) Login(c echo.Context) error {
	var req srtLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" {
		id, err := h.Store.Get(ctx, store.KeyIdentifier)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no stored credentials"})
		}
		pw, err := h.Store.Get(ctx, store.KeySecret)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no stored credentials"})
		}
		req.Identifier, req.Password = id, pw
		req.Remember = false // already stored
	}

	creds := model.Credentials{Identifier: req.Identifier, Secret: req.Password}
	if err := h.Client.Login(ctx, creds); err != nil {
		if errors.Is(err, srt.ErrAuthFailed) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인 실패. 아이디 또는 비밀번호를 확인해주세요."})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "login request failed"})
	}

	if req.Remember {
		h.rememberCredentials(ctx, req.Identifier, req.Password)
	}
	return c.JSON(http.StatusOK, echo.Map{"logged_in": true, "login_type": creds.LoginType()})
}

// rememberCredentials persists the pair or nothing: a half-stored pair
// would make the later passwordless login path fail while looking
// configured, so the identifier is rolled back when the secret cannot
// be stored.
func (h *SRTHandler) rememberCredentials(ctx context.Context, identifier, password string) {
	if err := h.Store.Set(ctx, store.KeyIdentifier, identifier); err != nil {
		log.Printf("srt: store identifier failed: %v", err)
		return
	}
	if err := h.Store.Set(ctx, store.KeySecret, password); err != nil {
		log.Printf("srt: store secret failed: %v", err)
		if err := h.Store.Delete(ctx, store.KeyIdentifier); err != nil {
			log.Printf("srt: identifier rollback failed: %v", err)
		}
	}
}

// DeleteCredentials removes the persisted SRT credentials.
func (h *SRTHandler) DeleteCredentials(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.Delete(ctx, store.KeyIdentifier); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := h.Store.Delete(ctx, store.KeySecret); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Search runs one schedule query. Station names are resolved against
// the code tables; an unknown name is a client error, not a retryable
// condition.
func (h *SRTHandler) Search(c echo.Context) error {
	var req searchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	depCode, ok := h.Tables.LookupStationCode(req.Departure)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown departure station: " + req.Departure})
	}
	arrCode, ok := h.Tables.LookupStationCode(req.Arrival)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown arrival station: " + req.Arrival})
	}
	if req.PassengerCount <= 0 {
		req.PassengerCount = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 90*time.Second)
	defer cancel()

	key, err := h.Gate.Run(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "admission queue failed"})
	}

	trains, err := h.Client.Search(ctx, srt.SearchParams{
		DepStationCode: depCode,
		ArrStationCode: arrCode,
		Date:           req.Date,
		Time:           req.Time,
		PassengerCount: req.PassengerCount,
		NetfunnelKey:   key,
	})
	if err != nil {
		if errors.Is(err, srt.ErrNotLoggedIn) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "not logged in"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "search failed"})
	}

	out := make([]trainResp, 0, len(trains))
	for _, t := range trains {
		out = append(out, toTrainResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"trains": out})
}

// Reservations lists the member's live reservations from the upstream,
// tickets included.
func (h *SRTHandler) Reservations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	reservations, err := h.Client.Reservations(ctx)
	if err != nil {
		if errors.Is(err, srt.ErrNotLoggedIn) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "not logged in"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "listing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": reservations})
}
