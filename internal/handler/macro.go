package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devhsu/srt-macro/internal/constant"
	"github.com/devhsu/srt-macro/internal/engine"
	"github.com/devhsu/srt-macro/internal/model"
	"github.com/devhsu/srt-macro/internal/queue"
	"github.com/devhsu/srt-macro/internal/repository"
	queue_publisher "github.com/devhsu/srt-macro/internal/service"
	"github.com/devhsu/srt-macro/internal/srt"
)

// MacroHandler starts, stops and reports the reservation loop. One loop
// runs at a time; the loop itself executes on a background goroutine so
// status polling never blocks behind an upstream round trip.
type MacroHandler struct {
	Engine  *engine.Engine
	History *repository.HistoryRepo // nil when persistence is disabled
	Tables  constant.Tables

	mu       sync.Mutex
	cancel   context.CancelFunc
	lastDone string // human summary of the previous run's outcome
}

func NewMacroHandler(eng *engine.Engine, history *repository.HistoryRepo, tables constant.Tables) *MacroHandler {
	return &MacroHandler{Engine: eng, History: history, Tables: tables}
}

// ----- DTOs -----

type candidateReq struct {
	TrainCode      string `json:"train_code"`
	TrainNumber    string `json:"train_number"`
	DepDate        string `json:"dep_date"`
	DepTime        string `json:"dep_time"`
	DepStationCode string `json:"dep_station_code"`
}

type passengerReq struct {
	Kind  string `json:"kind"` // psgTpCd: 1 어른, 2/3 장애, 4 경로, 5 어린이
	Count int    `json:"count"`
}

type startReq struct {
	Departure  string         `json:"departure"` // station name
	Arrival    string         `json:"arrival"`
	Date       string         `json:"date"` // yyyyMMdd
	Time       string         `json:"time"` // HHmmss
	Candidates []candidateReq `json:"candidates"`
	Passengers []passengerReq `json:"passengers"`
	Preference string         `json:"preference"` // general_first, general_only, special_first, special_only
}

// Start validates the request and launches the reservation loop in the
// background. 409 when a loop is already in flight.
func (h *MacroHandler) Start(c echo.Context) error {
	var req startReq
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

	passengers := make([]model.Passenger, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		passengers = append(passengers, model.Passenger{Kind: model.PassengerKind(p.Kind), Count: p.Count})
	}
	passengers = model.CombinePassengers(passengers)

	candidates := make([]model.Train, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		candidates = append(candidates, model.Train{
			TrainCode:      cand.TrainCode,
			TrainNumber:    cand.TrainNumber,
			DepDate:        cand.DepDate,
			DepTime:        cand.DepTime,
			DepStationCode: cand.DepStationCode,
		})
	}

	job := engine.Request{
		Params: srt.SearchParams{
			DepStationCode: depCode,
			ArrStationCode: arrCode,
			Date:           req.Date,
			Time:           req.Time,
			PassengerCount: model.TotalCount(passengers),
		},
		Candidates: candidates,
		Passengers: passengers,
		Preference: model.SeatPreference(req.Preference),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Engine.Running() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation loop already running"})
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.lastDone = ""

	go h.run(ctx, job)

	return c.JSON(http.StatusAccepted, echo.Map{"started": true})
}

// run executes the loop and records the outcome. Succeeded bookings are
// persisted and published; a cancel is an expected outcome and is
// logged without an error tag.
func (h *MacroHandler) run(ctx context.Context, job engine.Request) {
	done := func(summary string) {
		h.mu.Lock()
		h.lastDone = summary
		h.cancel = nil
		h.mu.Unlock()
	}

	rsv, err := h.Engine.Run(ctx, job)
	switch {
	case err == nil:
		log.Printf("macro: reserved %s", rsv)
		h.record(*rsv, h.Engine.LastAttempts())
		done(rsv.String())
	case errors.Is(err, engine.ErrCancelled):
		log.Printf("macro: stopped by operator")
		done("cancelled")
	default:
		log.Printf("macro: loop failed: %v", err)
		done("failed: " + err.Error())
	}
}

func (h *MacroHandler) record(rsv model.Reservation, attempts int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if h.History != nil {
		if err := h.History.Save(ctx, rsv); err != nil {
			log.Printf("macro: history save failed: %v", err)
		}
	}
	_ = queue_publisher.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
		ReservationNumber: rsv.ReservationNumber,
		TrainName:         rsv.TrainName,
		TrainNumber:       rsv.TrainNumber,
		DepDate:           rsv.DepDate,
		DepTime:           rsv.DepTime,
		DepStation:        rsv.DepStationName,
		ArrStation:        rsv.ArrStationName,
		TotalCost:         rsv.TotalCost,
		SeatCount:         rsv.SeatCount,
		Waiting:           rsv.Waiting,
		Attempts:          attempts,
		ConfirmedAt:       time.Now().UTC().Format(time.RFC3339),
	})
}

// Stop requests cooperative cancellation. The loop honors it within one
// polling interval.
func (h *MacroHandler) Stop(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no reservation loop running"})
	}
	h.cancel()
	return c.JSON(http.StatusAccepted, echo.Map{"stopping": true})
}

// Status reports the engine state and counters plus the outcome of the
// last finished run.
func (h *MacroHandler) Status(c echo.Context) error {
	p := h.Engine.Progress()
	h.mu.Lock()
	last := h.lastDone
	h.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{
		"state":           p.State,
		"attempts":        p.Attempts,
		"elapsed_seconds": int(p.Elapsed.Seconds()),
		"queue_waiting":   p.Waiting,
		"last_outcome":    last,
	})
}
