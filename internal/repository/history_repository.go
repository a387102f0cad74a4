// Package repository persists confirmed reservations so the operator
// can review what the daemon booked, including after a restart.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/devhsu/srt-macro/internal/model"
)

// HistoryRepo stores one row per confirmed reservation.
type HistoryRepo struct{ DB *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{DB: db} }

// HistoryEntry is one recorded booking.
type HistoryEntry struct {
	ID                uint64    `json:"id"`
	ReservationNumber string    `json:"reservation_number"`
	TrainName         string    `json:"train_name"`
	TrainNumber       string    `json:"train_number"`
	DepDate           string    `json:"dep_date"`
	DepTime           string    `json:"dep_time"`
	DepStation        string    `json:"dep_station"`
	ArrStation        string    `json:"arr_station"`
	TotalCost         int       `json:"total_cost"`
	SeatCount         int       `json:"seat_count"`
	Waiting           bool      `json:"waiting"`
	CreatedAt         time.Time `json:"created_at"`
}

// Save inserts a confirmed reservation.
func (r *HistoryRepo) Save(ctx context.Context, rsv model.Reservation) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO reservation_history
		 (pnr_no, train_name, train_no, dep_date, dep_time, dep_station, arr_station, total_cost, seat_count, waiting)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rsv.ReservationNumber, rsv.TrainName, rsv.TrainNumber,
		rsv.DepDate, rsv.DepTime, rsv.DepStationName, rsv.ArrStationName,
		rsv.TotalCost, rsv.SeatCount, rsv.Waiting)
	return err
}

// List returns recorded bookings, newest first.
func (r *HistoryRepo) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, pnr_no, train_name, train_no, dep_date, dep_time, dep_station, arr_station, total_cost, seat_count, waiting, created_at
		 FROM reservation_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.ReservationNumber, &e.TrainName, &e.TrainNumber,
			&e.DepDate, &e.DepTime, &e.DepStation, &e.ArrStation,
			&e.TotalCost, &e.SeatCount, &e.Waiting, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
