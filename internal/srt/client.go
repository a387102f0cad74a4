package srt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/devhsu/srt-macro/internal/constant"
)

// MobileBase is the SRT mobile app origin all endpoints hang off.
const MobileBase = "https://app.srail.or.kr:443"

// UserAgent identifies the client as the SRT Android app. The upstream
// rejects unknown agents, so this string is part of the protocol.
const UserAgent = "Mozilla/5.0 (Linux; Android 14; SM-S912N Build/UP1A.231005.007; wv) AppleWebKit/537.36(KHTML, like Gecko) Version/4.0 Chrome/131.0.6778.260 Mobile Safari/537.36SRT-APP-Android V.2.0.33"

// Endpoint paths on MobileBase.
const (
	epMain       = "/main/main.do"
	epLogin      = "/apb/selectListApb01080_n.do"
	epSearch     = "/ara/selectListAra10007_n.do"
	epReserve    = "/arc/selectListArc05013_n.do"
	epTickets    = "/atc/selectListAtc14016_n.do"
	epTicketInfo = "/ard/selectListArd02019_n.do"
)

// Client talks to the SRT mobile API. The session cookie obtained at
// login lives in the cookie jar; the logged-in flag gates every other
// operation so callers fail fast without a network call.
type Client struct {
	http         *http.Client
	base         string
	tables       constant.Tables
	operatorCode string
	loggedIn     atomic.Bool
}

// NewClient builds a Client around the given code tables. operatorCode
// filters search results to the operator's own trains ("17" for SRT);
// other operators would pass a different code.
func NewClient(tables constant.Tables, operatorCode string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
		base:         MobileBase,
		tables:       tables,
		operatorCode: operatorCode,
	}
}

// IsLoggedIn reports whether a login succeeded on this client.
func (c *Client) IsLoggedIn() bool { return c.loggedIn.Load() }

// postForm submits a form-encoded POST with the fixed header set and
// returns the raw body. Non-200 statuses are errors.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("srt: request %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("srt: %s returned status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("srt: read %s body: %w", path, err)
	}
	return body, nil
}
