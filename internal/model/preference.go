package model

// SeatPreference selects which seat classes count as a match while the
// reservation loop retries. It is a pure policy input with no state.
type SeatPreference string

const (
	GeneralFirst SeatPreference = "general_first" // 일반실 우선
	GeneralOnly  SeatPreference = "general_only"  // 일반실만
	SpecialFirst SeatPreference = "special_first" // 특실 우선
	SpecialOnly  SeatPreference = "special_only"  // 특실만
)

// Valid reports whether p is one of the four known preferences.
func (p SeatPreference) Valid() bool {
	switch p {
	case GeneralFirst, GeneralOnly, SpecialFirst, SpecialOnly:
		return true
	}
	return false
}

// Matches decides whether the train is an acceptable candidate under
// this preference. When no class has seats the train only matches if the
// waitlist admits new claims. The *-first preferences accept either
// class; "first" only influences which class the booking call requests,
// via UseSpecialSeat.
func (p SeatPreference) Matches(t Train) bool {
	if !t.SeatAvailable() {
		return t.WaitlistOpen()
	}
	switch p {
	case GeneralFirst, SpecialFirst:
		return true
	case GeneralOnly:
		return t.GeneralSeatAvailable()
	default: // SpecialOnly
		return t.SpecialSeatAvailable()
	}
}

// UseSpecialSeat decides which seat class the booking call should
// request for a train that already passed Matches. Waitlist entries are
// always requested against the general class.
func (p SeatPreference) UseSpecialSeat(t Train) bool {
	switch p {
	case SpecialOnly:
		return true
	case SpecialFirst:
		return t.SpecialSeatAvailable()
	case GeneralFirst:
		return !t.GeneralSeatAvailable() && t.SpecialSeatAvailable()
	default: // GeneralOnly
		return false
	}
}
