package srt

import (
	"context"
	"net/url"
	"strings"

	"github.com/devhsu/srt-macro/internal/model"
)

// loginSuccessMarker is the substring the login response carries when
// the session was established. Fragile by nature; preserved verbatim
// from the upstream app.
const loginSuccessMarker = "userMap"

// Login authenticates the session. The identifier is classified into
// member number, email or phone; phones are transmitted without
// separators. ErrAuthFailed is returned when the response lacks the
// success marker; transport failures come back wrapped.
func (c *Client) Login(ctx context.Context, creds model.Credentials) error {
	form := url.Values{
		"auto":          {"Y"},
		"check":         {"Y"},
		"page":          {"menu"},
		"deviceKey":     {"-"},
		"customerYn":    {""},
		"login_referer": {c.base + epMain},
		"srchDvCd":      {string(creds.LoginType())},
		"srchDvNm":      {creds.WireIdentifier()},
		"hmpgPwdCphd":   {creds.Secret},
	}

	body, err := c.postForm(ctx, epLogin, form)
	if err != nil {
		c.loggedIn.Store(false)
		return err
	}
	if !strings.Contains(string(body), loginSuccessMarker) {
		c.loggedIn.Store(false)
		return ErrAuthFailed
	}
	c.loggedIn.Store(true)
	return nil
}
