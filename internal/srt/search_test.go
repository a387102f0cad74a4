package srt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const searchBody = `{
	"resultMap": [{"strResult": "SUCC"}],
	"outDataSets": {"dsOutput1": [
		{
			"stlbTrnClsfCd": "17", "trnNo": "0301",
			"dptDt": "20260815", "dptTm": "053000", "dptRsStnCd": "0551",
			"arvDt": "20260815", "arvTm": "074500", "arvRsStnCd": "0020",
			"gnrmRsvPsbStr": "예약가능", "sprmRsvPsbStr": "매진",
			"rsvWaitPsbCd": "-1", "rsvWaitPsbCdNm": "-"
		},
		{
			"stlbTrnClsfCd": "00", "trnNo": "0101",
			"dptDt": "20260815", "dptTm": "054500", "dptRsStnCd": "0551",
			"arvDt": "20260815", "arvTm": "081500", "arvRsStnCd": "0020",
			"gnrmRsvPsbStr": "예약가능", "sprmRsvPsbStr": "예약가능",
			"rsvWaitPsbCd": "-1", "rsvWaitPsbCdNm": "-"
		},
		{
			"stlbTrnClsfCd": "17", "trnNo": "0303",
			"dptDt": "20260815", "dptTm": "063000", "dptRsStnCd": "0551",
			"arvDt": "20260815", "arvTm": "084500", "arvRsStnCd": "9999",
			"gnrmRsvPsbStr": "매진", "sprmRsvPsbStr": "매진",
			"rsvWaitPsbCd": "9", "rsvWaitPsbCdNm": "예약대기 가능"
		}
	]}
}`

func TestSearch(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != epSearch {
			t.Errorf("path = %q, want %q", r.URL.Path, epSearch)
		}
		_ = r.ParseForm()
		form = r.PostForm
		fmt.Fprint(w, searchBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.loggedIn.Store(true)

	trains, err := c.Search(context.Background(), SearchParams{
		DepStationCode: "0551",
		ArrStationCode: "0020",
		Date:           "20260815",
		Time:           "053000",
		PassengerCount: 2,
		NetfunnelKey:   "NFKEY",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// The "00" operator row is filtered out.
	if len(trains) != 2 {
		t.Fatalf("got %d trains, want 2", len(trains))
	}
	first := trains[0]
	if first.TrainNumber != "0301" || first.TrainName != "SRT" {
		t.Errorf("first train = %s %s", first.TrainName, first.TrainNumber)
	}
	if first.DepStationName != "수서" || first.ArrStationName != "부산" {
		t.Errorf("station names = %q ~ %q", first.DepStationName, first.ArrStationName)
	}
	if !first.GeneralSeatAvailable() || first.SpecialSeatAvailable() {
		t.Error("first train availability decoded wrong")
	}
	// Unknown station codes fall back to the placeholder name.
	if trains[1].ArrStationName != "알 수 없음" {
		t.Errorf("unknown station name = %q", trains[1].ArrStationName)
	}
	if !trains[1].WaitlistOpen() {
		t.Error("waitlist code 9 should read as open")
	}

	checks := map[string]string{
		"dptRsStnCd":   "0551",
		"arvRsStnCd":   "0020",
		"dptDt":        "20260815",
		"dptTm":        "053000",
		"dptTm1":       "050000", // floored to the hour
		"psgNum":       "2",
		"netfunnelKey": "NFKEY",
		"chtnDvCd":     "1",
		"trnGpCd":      "109",
	}
	for k, want := range checks {
		if got := form.Get(k); got != want {
			t.Errorf("form %s = %q, want %q", k, got, want)
		}
	}
}

func TestSearchRequiresLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected before login")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.Search(context.Background(), SearchParams{}); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("err = %v, want ErrNotLoggedIn", err)
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"outDataSets": {"dsOutput1": []}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.loggedIn.Store(true)
	trains, err := c.Search(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(trains) != 0 {
		t.Fatalf("got %d trains, want 0", len(trains))
	}
}

func TestSearchDecodeFailure(t *testing.T) {
	cases := []string{
		`<html>점검중</html>`,
		`{"resultMap": [{"strResult": "FAIL"}]}`, // no datasets at all
	}
	for _, body := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))
		c := newTestClient(t, srv)
		c.loggedIn.Store(true)
		if _, err := c.Search(context.Background(), SearchParams{}); !errors.Is(err, ErrDecode) {
			t.Errorf("Search(%q) err = %v, want ErrDecode", body, err)
		}
		srv.Close()
	}
}

func TestHourFloor(t *testing.T) {
	cases := map[string]string{
		"053000": "050000",
		"235959": "230000",
		"":       "000000",
	}
	for in, want := range cases {
		if got := hourFloor(in); got != want {
			t.Errorf("hourFloor(%q) = %q, want %q", in, got, want)
		}
	}
}
