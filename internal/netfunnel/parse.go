package netfunnel

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse marks a NetFunnel body that does not follow the expected
// script-assignment grammar. It is not retryable; the protocol has
// changed if this fires.
var ErrParse = errors.New("netfunnel: malformed response")

// The admission result is embedded in a javascript assignment of the
// form NetFunnel.gControl.result='code:status:k=v&k=v'.
var resultPattern = regexp.MustCompile(`NetFunnel\.gControl\.result='([^']+)'`)

// result is one decoded gate response.
type result struct {
	code   string
	status string
	params map[string]string
}

func (r result) key() string   { return r.params["key"] }
func (r result) ip() string    { return r.params["ip"] }
func (r result) nwait() string { return r.params["nwait"] }

// parseResult extracts the quoted payload and splits it on the first two
// colons only: exactly three segments (code, status, parameter string).
// The parameter string is split on '&' into key=value pairs; entries
// without '=' are discarded and empty values are legal.
func parseResult(body string) (result, error) {
	m := resultPattern.FindStringSubmatch(body)
	if m == nil {
		return result{}, fmt.Errorf("%w: result assignment not found", ErrParse)
	}
	parts := strings.SplitN(m[1], ":", 3)
	if len(parts) != 3 {
		return result{}, fmt.Errorf("%w: want 3 segments, got %d", ErrParse, len(parts))
	}
	params := make(map[string]string)
	for _, pair := range strings.Split(parts[2], "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		params[kv[0]] = kv[1]
	}
	return result{code: parts[0], status: parts[1], params: params}, nil
}
