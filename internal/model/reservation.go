package model

import "fmt"

// Ticket is one seat (or waitlist claim) inside a reservation.
//
// Fields:
//  Car               – car number (scarNo).
//  Seat              – seat label; empty for an unseated waitlist ticket.
//  SeatTypeCode      – seat class code (psrmClCd).
//  SeatType          – derived seat class name.
//  PassengerTypeCode – discount kind code (dcntKndCd).
//  PassengerType     – derived passenger type name.
//  Price             – amount charged (rcvdAmt).
//  OriginalPrice     – list price (stdrPrc).
//  Discount          – discount amount (dcntPrc).
type Ticket struct {
	Car               string
	Seat              string
	SeatTypeCode      string
	SeatType          string
	PassengerTypeCode string
	PassengerType     string
	Price             int
	OriginalPrice     int
	Discount          int
}

// IsWaiting reports whether the ticket is an unseated waitlist claim.
func (t Ticket) IsWaiting() bool { return t.Seat == "" }

// Reservation is an immutable snapshot of one booking, assembled from
// the reservation row and its payment row plus the ticket rows.
type Reservation struct {
	ReservationNumber string
	TotalCost         int
	SeatCount         int

	TrainCode   string
	TrainName   string
	TrainNumber string

	DepDate        string
	DepTime        string
	DepStationCode string
	DepStationName string

	ArrTime        string
	ArrStationCode string
	ArrStationName string

	PaymentDate string // 구입기한 날짜, empty when absent
	PaymentTime string // 구입기한 시각, empty when absent
	Paid        bool
	Running     bool
	Waiting     bool

	Tickets []Ticket
}

// String renders the reservation the way the app lists it, including the
// payment deadline or waitlist / running markers where they apply.
func (r Reservation) String() string {
	depH, depM := hourMin(r.DepTime)
	arrH, arrM := hourMin(r.ArrTime)
	month, day := monthDay(r.DepDate)

	s := fmt.Sprintf("[%s] %s월 %s일, %s~%s(%s:%s~%s:%s) %d원(%d석)",
		r.TrainName, month, day, r.DepStationName, r.ArrStationName,
		depH, depM, arrH, arrM, r.TotalCost, r.SeatCount)

	if !r.Paid {
		if !r.Waiting {
			if r.PaymentDate != "" && r.PaymentTime != "" {
				payMonth, payDay := monthDay(r.PaymentDate)
				payH, payM := hourMin(r.PaymentTime)
				s += fmt.Sprintf(", 구입기한 %s월 %s일 %s:%s", payMonth, payDay, payH, payM)
			}
		} else if !r.Running {
			s += ", 예약대기"
		}
	}
	if r.Running {
		s += " (운행중)"
	}
	return s
}
