package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devhsu/srt-macro/internal/repository"
)

// ReservationHandler serves the booking history recorded by the loop.
type ReservationHandler struct {
	History *repository.HistoryRepo // nil when persistence is disabled
}

func NewReservationHandler(history *repository.HistoryRepo) *ReservationHandler {
	return &ReservationHandler{History: history}
}

// List returns recorded bookings, newest first. 503 when the daemon
// runs without a database.
func (h *ReservationHandler) List(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reservation history is disabled"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.History.List(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing failed"})
	}
	if entries == nil {
		entries = []repository.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": entries})
}
