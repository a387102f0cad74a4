// Package netfunnel implements the NetFunnel admission-queue protocol
// used by the SRT booking service as an anti-bot waiting room. A client
// must hold a short-lived admission key before booking-related requests
// are accepted. The helper runs the three-phase handshake (enter, poll,
// complete) against a single endpoint and caches the key for its TTL so
// repeated searches inside one window cost no network round trips.
package netfunnel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultHost serves the enter phase; later phases move to the
	// alternate host the gate hands back in the ip parameter.
	DefaultHost = "nf.letskorail.com"

	// cacheTTL is how long an admission key stays valid upstream.
	cacheTTL = 48 * time.Second

	// pollInterval paces the wait-queue polling.
	pollInterval = time.Second
)

// Opcodes selecting gate behavior on the shared endpoint.
const (
	opEnter    = "5101" // getTidchkEnter: request an admission slot
	opCheck    = "5002" // chkEnter: re-check queue position
	opComplete = "5004" // setComplete: confirm admission
)

// Gate statuses carried in the second response segment.
const (
	statusPass      = "200"
	statusFail      = "201"
	statusCompleted = "502" // complete called twice
)

// Helper acquires and caches NetFunnel admission keys. All methods are
// safe for concurrent use; one handshake runs at a time.
type Helper struct {
	client    *http.Client
	userAgent string
	scheme    string
	host      string
	now       func() time.Time

	mu        sync.Mutex
	cachedKey string
	fetchedAt time.Time
}

// New returns a Helper using the given HTTP client. A nil client falls
// back to a dedicated client with a conservative timeout.
func New(client *http.Client, userAgent string) *Helper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Helper{
		client:    client,
		userAgent: userAgent,
		scheme:    "https",
		host:      DefaultHost,
		now:       time.Now,
	}
}

// Run returns a valid admission key. A cached key younger than the TTL
// is returned without any network call. Otherwise the full handshake
// runs: enter, then poll once per second while the gate reports fail,
// then complete. progress, when non-nil, receives the current wait count
// on every poll. Cancellation via ctx takes effect within one poll
// interval. On any failure the cache is cleared before returning so a
// half-valid key can never be reused.
func (h *Helper) Run(ctx context.Context, progress func(waiting int)) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cachedKey != "" && h.now().Sub(h.fetchedAt) < cacheTTL {
		return h.cachedKey, nil
	}

	key, err := h.handshake(ctx, progress)
	if err != nil {
		h.clearLocked()
		return "", err
	}
	h.cachedKey = key
	h.fetchedAt = h.now()
	return key, nil
}

// Clear drops the cached key, forcing the next Run to redo the handshake.
func (h *Helper) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearLocked()
}

func (h *Helper) clearLocked() {
	h.cachedKey = ""
	h.fetchedAt = time.Time{}
}

func (h *Helper) handshake(ctx context.Context, progress func(int)) (string, error) {
	res, err := h.request(ctx, "", opEnter, "")
	if err != nil {
		return "", err
	}
	key := res.key()
	host := res.ip()

	for res.status == statusFail {
		if progress != nil {
			if n, err := strconv.Atoi(res.nwait()); err == nil {
				progress(n)
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
		res, err = h.request(ctx, host, opCheck, key)
		if err != nil {
			return "", err
		}
		if k := res.key(); k != "" {
			key = k
		}
		if ip := res.ip(); ip != "" {
			host = ip
		}
	}
	if res.status != statusPass {
		return "", fmt.Errorf("netfunnel: admission refused with status %s", res.status)
	}

	done, err := h.request(ctx, host, opComplete, key)
	if err != nil {
		return "", err
	}
	if done.status != statusPass && done.status != statusCompleted {
		return "", fmt.Errorf("netfunnel: completion refused with status %s", done.status)
	}
	if key == "" {
		return "", fmt.Errorf("netfunnel: gate passed without issuing a key")
	}
	return key, nil
}

// request performs one gate call. The body is parsed with parseResult;
// transport errors and non-200 statuses surface as plain errors so the
// caller clears the cache.
func (h *Helper) request(ctx context.Context, host, opcode, key string) (result, error) {
	if host == "" {
		host = h.host
	}
	q := url.Values{
		"opcode": {opcode},
		"nfid":   {"0"},
		"prefix": {"NetFunnel.gRtype=" + opcode + ";"},
		"js":     {"true"},
		// Millisecond timestamp as a bare parameter name: cache buster.
		strconv.FormatInt(h.now().UnixMilli(), 10): {""},
	}
	if opcode == opEnter || opcode == opCheck {
		q.Set("sid", "service_1")
		q.Set("aid", "act_10")
	}
	if opcode == opCheck {
		q.Set("key", key)
		q.Set("ttl", "1")
	}
	if opcode == opComplete {
		q.Set("key", key)
	}

	u := h.scheme + "://" + host + "/ts.wseq?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return result{}, err
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return result{}, fmt.Errorf("netfunnel: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return result{}, fmt.Errorf("netfunnel: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{}, fmt.Errorf("netfunnel: read body: %w", err)
	}
	return parseResult(string(body))
}
