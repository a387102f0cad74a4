package netfunnel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestHelper points a Helper at the given test server.
func newTestHelper(t *testing.T, srv *httptest.Server) *Helper {
	t.Helper()
	h := New(srv.Client(), "test-agent")
	h.scheme = "http"
	h.host = strings.TrimPrefix(srv.URL, "http://")
	return h
}

func TestRunImmediatePass(t *testing.T) {
	var opcodes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := r.URL.Query().Get("opcode")
		opcodes = append(opcodes, op)
		switch op {
		case opEnter:
			if r.URL.Query().Get("sid") != "service_1" || r.URL.Query().Get("aid") != "act_10" {
				t.Errorf("enter missing sid/aid: %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, "NetFunnel.gControl.result='200:200:key=KEY1'")
		case opComplete:
			if r.URL.Query().Get("key") != "KEY1" {
				t.Errorf("complete carries key %q, want KEY1", r.URL.Query().Get("key"))
			}
			fmt.Fprint(w, "NetFunnel.gControl.result='200:200:'")
		default:
			t.Errorf("unexpected opcode %q", op)
		}
	}))
	defer srv.Close()

	h := newTestHelper(t, srv)
	key, err := h.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if key != "KEY1" {
		t.Fatalf("key = %q, want KEY1", key)
	}
	want := []string{opEnter, opComplete}
	if len(opcodes) != len(want) || opcodes[0] != want[0] || opcodes[1] != want[1] {
		t.Fatalf("opcode sequence = %v, want %v", opcodes, want)
	}
}

func TestRunPollsWhileQueued(t *testing.T) {
	var checks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("opcode") {
		case opEnter:
			fmt.Fprint(w, "NetFunnel.gControl.result='000:201:nwait=2&key=K1'")
		case opCheck:
			checks.Add(1)
			if r.URL.Query().Get("key") != "K1" || r.URL.Query().Get("ttl") != "1" {
				t.Errorf("check query = %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, "NetFunnel.gControl.result='200:200:key=K2'")
		case opComplete:
			fmt.Fprint(w, "NetFunnel.gControl.result='200:200:'")
		}
	}))
	defer srv.Close()

	h := newTestHelper(t, srv)
	var waits []int
	key, err := h.Run(context.Background(), func(n int) { waits = append(waits, n) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if key != "K2" {
		t.Fatalf("key = %q, want the re-issued K2", key)
	}
	if checks.Load() != 1 {
		t.Fatalf("check calls = %d, want 1", checks.Load())
	}
	if len(waits) != 1 || waits[0] != 2 {
		t.Fatalf("progress calls = %v, want [2]", waits)
	}
}

func TestRunCachesKeyInsideTTL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "NetFunnel.gControl.result='200:200:key=CACHED'")
	}))
	defer srv.Close()

	now := time.Now()
	h := newTestHelper(t, srv)
	h.now = func() time.Time { return now }

	first, err := h.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	after := calls.Load()

	second, err := h.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second != first {
		t.Fatalf("cached key %q differs from first %q", second, first)
	}
	if calls.Load() != after {
		t.Fatal("cached acquire must not touch the network")
	}

	// Past the TTL the handshake runs again.
	now = now.Add(cacheTTL)
	if _, err := h.Run(context.Background(), nil); err != nil {
		t.Fatalf("post-TTL Run: %v", err)
	}
	if calls.Load() == after {
		t.Fatal("expired key was served from cache")
	}
}

func TestRunFailureClearsCache(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			fmt.Fprint(w, "<html>maintenance</html>")
			return
		}
		fmt.Fprint(w, "NetFunnel.gControl.result='200:200:key=FRESH'")
	}))
	defer srv.Close()

	h := newTestHelper(t, srv)
	if _, err := h.Run(context.Background(), nil); !errors.Is(err, ErrParse) {
		t.Fatalf("Run err = %v, want ErrParse", err)
	}
	if h.cachedKey != "" {
		t.Fatal("failed handshake left a cached key")
	}

	broken.Store(false)
	key, err := h.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run after recovery: %v", err)
	}
	if key != "FRESH" {
		t.Fatalf("key = %q, want FRESH", key)
	}
}

func TestRunAdmissionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "NetFunnel.gControl.result='200:503:key=K'")
	}))
	defer srv.Close()

	h := newTestHelper(t, srv)
	if _, err := h.Run(context.Background(), nil); err == nil {
		t.Fatal("expected refusal error")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Permanently queued.
		fmt.Fprint(w, "NetFunnel.gControl.result='000:201:nwait=9&key=K'")
	}))
	defer srv.Close()

	h := newTestHelper(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := h.Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancellation took %s, want within one poll interval", elapsed)
	}
}
