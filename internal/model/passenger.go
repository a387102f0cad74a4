package model

import (
	"net/url"
	"strconv"
)

// PassengerKind is a closed set of passenger categories. Each kind maps
// to the psgTpCd discount code the reserve endpoint expects.
type PassengerKind string

const (
	Adult          PassengerKind = "1"
	Disability1To3 PassengerKind = "2"
	Disability4To6 PassengerKind = "3"
	Senior         PassengerKind = "4"
	Child          PassengerKind = "5"
)

// Name returns the Korean display name for the kind.
func (k PassengerKind) Name() string {
	switch k {
	case Adult:
		return "어른/청소년"
	case Disability1To3:
		return "장애 1~3급"
	case Disability4To6:
		return "장애 4~6급"
	case Senior:
		return "경로"
	case Child:
		return "어린이"
	}
	return ""
}

// Passenger is a passenger kind together with a head count.
type Passenger struct {
	Kind  PassengerKind `json:"kind"`
	Count int           `json:"count"`
}

func (p Passenger) String() string {
	return p.Kind.Name() + " " + strconv.Itoa(p.Count) + "명"
}

// CombinePassengers merges entries of the same kind by summing counts and
// drops entries whose combined count is zero or negative. Order is stable
// by first appearance of each kind, so combining an already combined list
// returns it unchanged.
func CombinePassengers(passengers []Passenger) []Passenger {
	counts := make(map[PassengerKind]int)
	order := make([]PassengerKind, 0, len(passengers))
	for _, p := range passengers {
		if _, seen := counts[p.Kind]; !seen {
			order = append(order, p.Kind)
		}
		counts[p.Kind] += p.Count
	}
	out := make([]Passenger, 0, len(order))
	for _, k := range order {
		if counts[k] > 0 {
			out = append(out, Passenger{Kind: k, Count: counts[k]})
		}
	}
	return out
}

// TotalCount sums the head counts of all entries.
func TotalCount(passengers []Passenger) int {
	total := 0
	for _, p := range passengers {
		total += p.Count
	}
	return total
}

// ReserveParams emits the numbered per-passenger form values the reserve
// endpoint expects, together with the fixed seat attribute defaults and
// the seat class flag. The input is combined first, so duplicate kinds
// are legal.
func ReserveParams(passengers []Passenger, specialSeat bool) url.Values {
	combined := CombinePassengers(passengers)

	class := "1" // 일반실
	if specialSeat {
		class = "2" // 특실
	}
	v := url.Values{
		"totPrnb":       {strconv.Itoa(TotalCount(combined))},
		"psgGridcnt":    {strconv.Itoa(len(combined))},
		"locSeatAttCd1": {"000"}, // 창가/복도 미지정
		"rqSeatAttCd1":  {"015"},
		"dirSeatAttCd1": {"009"},
		"smkSeatAttCd1": {"000"},
		"etcSeatAttCd1": {"000"},
		"psrmClCd1":     {class},
	}
	for i, p := range combined {
		n := strconv.Itoa(i + 1)
		v.Set("psgTpCd"+n, string(p.Kind))
		v.Set("psgInfoPerPrnb"+n, strconv.Itoa(p.Count))
	}
	return v
}
