package model

import (
	"fmt"
	"strconv"
)

// Waitlist admission codes carried in rsvWaitPsbCd. The upstream sends
// them as strings, sign included.
const (
	WaitlistNone        = "-1" // 예약대기 없음
	WaitlistAvailable   = "9"  // 예약대기 가능
	WaitlistSoldOut     = "0"  // 매진
	WaitlistUnavailable = "-2" // 예약대기 불가능
)

// SeatAvailableMarker is the substring the seat state strings carry when
// a class still has bookable seats ("예약가능").
const SeatAvailableMarker = "예약가능"

// Train is an immutable snapshot of one schedule row. Snapshots are
// rebuilt from scratch on every search; two snapshots refer to the same
// physical train when their Key() values are equal, regardless of where
// the raw payloads came from.
//
// Dates are yyyyMMdd strings and times HHmmss strings, exactly as the
// wire carries them.
type Train struct {
	TrainCode   string
	TrainName   string
	TrainNumber string

	DepDate        string
	DepTime        string
	DepStationCode string
	DepStationName string

	ArrDate        string
	ArrTime        string
	ArrStationCode string
	ArrStationName string

	GeneralSeatState string // 일반실 좌석 상태 (예: "예약가능", "매진")
	SpecialSeatState string // 특실 좌석 상태
	WaitlistCode     string // rsvWaitPsbCd
	WaitlistName     string // rsvWaitPsbCdNm
}

// TrainKey is the identity of a train for matching across snapshots.
type TrainKey struct {
	TrainNumber    string
	TrainCode      string
	DepDate        string
	DepTime        string
	DepStationCode string
}

// Key returns the identity fields used to match candidates against
// fresh snapshots.
func (t Train) Key() TrainKey {
	return TrainKey{
		TrainNumber:    t.TrainNumber,
		TrainCode:      t.TrainCode,
		DepDate:        t.DepDate,
		DepTime:        t.DepTime,
		DepStationCode: t.DepStationCode,
	}
}

// GeneralSeatAvailable reports whether the general class is bookable.
func (t Train) GeneralSeatAvailable() bool {
	return containsMarker(t.GeneralSeatState)
}

// SpecialSeatAvailable reports whether the special class is bookable.
func (t Train) SpecialSeatAvailable() bool {
	return containsMarker(t.SpecialSeatState)
}

// SeatAvailable reports whether any class is bookable.
func (t Train) SeatAvailable() bool {
	return t.GeneralSeatAvailable() || t.SpecialSeatAvailable()
}

// WaitlistOpen reports whether the waitlist admits new claims.
func (t Train) WaitlistOpen() bool { return t.WaitlistCode == WaitlistAvailable }

// String renders the train the way the app shows it:
// [SRT 301] 08/15 05:30~07:45 수서~부산 특실 매진, 일반실 예약가능 (135분)
func (t Train) String() string {
	depH, depM := hourMin(t.DepTime)
	arrH, arrM := hourMin(t.ArrTime)
	dur := minutesBetween(t.DepTime, t.ArrTime)
	month, day := monthDay(t.DepDate)
	return fmt.Sprintf("[%s %s] %s/%s %s:%s~%s:%s %s~%s 특실 %s, 일반실 %s (%d분)",
		t.TrainName, t.TrainNumber, month, day, depH, depM, arrH, arrM,
		t.DepStationName, t.ArrStationName, t.SpecialSeatState, t.GeneralSeatState, dur)
}

func containsMarker(state string) bool {
	// The states are short fixed phrases; an exact match is what the
	// upstream emits but a prefix check survives trailing annotations.
	return len(state) >= len(SeatAvailableMarker) && state[:len(SeatAvailableMarker)] == SeatAvailableMarker
}

func hourMin(hhmmss string) (string, string) {
	if len(hhmmss) < 4 {
		return "00", "00"
	}
	return hhmmss[:2], hhmmss[2:4]
}

func monthDay(yyyymmdd string) (string, string) {
	if len(yyyymmdd) < 8 {
		return "00", "00"
	}
	return yyyymmdd[4:6], yyyymmdd[6:8]
}

func minutesBetween(dep, arr string) int {
	depH, depM := hourMin(dep)
	arrH, arrM := hourMin(arr)
	dh, _ := strconv.Atoi(depH)
	dm, _ := strconv.Atoi(depM)
	ah, _ := strconv.Atoi(arrH)
	am, _ := strconv.Atoi(arrM)
	d := (ah*60 + am) - (dh*60 + dm)
	if d < 0 {
		d += 24 * 60 // 자정을 넘어가는 열차
	}
	return d
}
