package model

import "testing"

func TestCredentialsLoginType(t *testing.T) {
	cases := []struct {
		id   string
		want LoginType
	}{
		{"user@example.com", LoginTypeEmail},
		{"srt.user+macro@mail.co.kr", LoginTypeEmail},
		{"010-1234-5678", LoginTypePhone},
		{"01012345678", LoginTypePhone},
		{"011-123-4567", LoginTypePhone},
		{"016-1234-5678", LoginTypePhone},
		{"1234567890", LoginTypeMemberNumber},
		{"02-1234-5678", LoginTypeMemberNumber}, // landline is not a mobile
		{"", LoginTypeMemberNumber},
	}
	for _, tc := range cases {
		c := Credentials{Identifier: tc.id}
		if got := c.LoginType(); got != tc.want {
			t.Errorf("LoginType(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestCredentialsWireIdentifier(t *testing.T) {
	cases := []struct {
		id, want string
	}{
		{"010-1234-5678", "01012345678"},
		{"01012345678", "01012345678"},
		{"user@example.com", "user@example.com"},
		{"1234567890", "1234567890"},
	}
	for _, tc := range cases {
		c := Credentials{Identifier: tc.id}
		if got := c.WireIdentifier(); got != tc.want {
			t.Errorf("WireIdentifier(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
