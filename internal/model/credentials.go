package model

import (
	"regexp"
	"strings"
)

// LoginType is the srchDvCd value the SRT login form expects. The
// upstream service distinguishes how the identifier should be looked up.
type LoginType string

const (
	LoginTypeMemberNumber LoginType = "1"
	LoginTypeEmail        LoginType = "2"
	LoginTypePhone        LoginType = "3"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,64}$`)
	phonePattern = regexp.MustCompile(`^01(?:0|1|[6-9])-?(?:\d{3}|\d{4})-?\d{4}$`)
)

// Credentials identifies an SRT member. Identifier may be a member
// number, an email address or a Korean mobile number with or without
// hyphen grouping.
type Credentials struct {
	Identifier string
	Secret     string
}

// LoginType classifies the identifier by shape. Anything that is neither
// an email nor a phone number is treated as a member number.
func (c Credentials) LoginType() LoginType {
	switch {
	case emailPattern.MatchString(c.Identifier):
		return LoginTypeEmail
	case phonePattern.MatchString(c.Identifier):
		return LoginTypePhone
	default:
		return LoginTypeMemberNumber
	}
}

// WireIdentifier returns the identifier as it must be transmitted: phone
// numbers are sent without separators, everything else verbatim.
func (c Credentials) WireIdentifier() string {
	if c.LoginType() == LoginTypePhone {
		return strings.ReplaceAll(c.Identifier, "-", "")
	}
	return c.Identifier
}
