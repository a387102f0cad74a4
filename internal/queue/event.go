package queue

// ReservationConfirmedEvent is the message published when the engine
// secures a booking. Consumers use it for notification and audit; the
// daemon itself never reads it back.
type ReservationConfirmedEvent struct {
	ReservationNumber string `json:"reservation_number"`
	TrainName         string `json:"train_name"`
	TrainNumber       string `json:"train_number"`
	DepDate           string `json:"dep_date"`
	DepTime           string `json:"dep_time"`
	DepStation        string `json:"dep_station"`
	ArrStation        string `json:"arr_station"`
	TotalCost         int    `json:"total_cost"`
	SeatCount         int    `json:"seat_count"`
	Waiting           bool   `json:"waiting"`
	Attempts          int    `json:"attempts"`
	ConfirmedAt       string `json:"confirmed_at"`
}
