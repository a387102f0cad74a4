package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devhsu/srt-macro/internal/model"
	"github.com/devhsu/srt-macro/internal/srt"
)

type fakeGate struct {
	key   string
	err   error
	block chan struct{} // when non-nil, Run waits for ctx or close
}

func (g *fakeGate) Run(ctx context.Context, progress func(int)) (string, error) {
	if g.block != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-g.block:
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.key, nil
}

type fakeSearcher struct {
	fn func(call int) ([]model.Train, error)
	n  int
}

func (s *fakeSearcher) Search(ctx context.Context, p srt.SearchParams) ([]model.Train, error) {
	s.n++
	return s.fn(s.n)
}

type fakeReserver struct {
	rsv   *model.Reservation
	err   error
	calls int
	last  model.Train
}

func (r *fakeReserver) Reserve(ctx context.Context, train model.Train, passengers []model.Passenger, specialSeat bool, key string) (*model.Reservation, error) {
	r.calls++
	r.last = train
	return r.rsv, r.err
}

func candidate() model.Train {
	return model.Train{
		TrainCode:      "17",
		TrainNumber:    "0301",
		DepDate:        "20260815",
		DepTime:        "053000",
		DepStationCode: "0551",
	}
}

func open(t model.Train) model.Train {
	t.GeneralSeatState = "예약가능"
	return t
}

func request() Request {
	return Request{
		Params: srt.SearchParams{
			DepStationCode: "0551",
			ArrStationCode: "0020",
			Date:           "20260815",
			Time:           "053000",
			PassengerCount: 1,
		},
		Candidates: []model.Train{candidate()},
		Passengers: []model.Passenger{{Kind: model.Adult, Count: 1}},
		Preference: model.GeneralFirst,
	}
}

func TestRunFirstRoundSuccess(t *testing.T) {
	want := &model.Reservation{ReservationNumber: "320000001"}
	searcher := &fakeSearcher{fn: func(int) ([]model.Train, error) {
		return []model.Train{open(candidate())}, nil
	}}
	reserver := &fakeReserver{rsv: want}
	e := New(&fakeGate{key: "K"}, searcher, reserver)

	got, err := e.Run(context.Background(), request())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v", got)
	}
	if reserver.calls != 1 {
		t.Fatalf("reserve calls = %d, want 1", reserver.calls)
	}
	if st := e.Progress().State; st != StateSucceeded {
		t.Fatalf("state = %q, want succeeded", st)
	}
	if e.LastAttempts() != 1 {
		t.Fatalf("LastAttempts = %d, want 1", e.LastAttempts())
	}
	if p := e.Progress(); p.Attempts != 0 || p.Elapsed != 0 {
		t.Fatalf("terminal progress not reset: %+v", p)
	}
}

func TestRunRetriesUntilSeatOpens(t *testing.T) {
	searcher := &fakeSearcher{fn: func(call int) ([]model.Train, error) {
		if call == 1 {
			return nil, errors.New("upstream hiccup")
		}
		return []model.Train{open(candidate())}, nil
	}}
	reserver := &fakeReserver{rsv: &model.Reservation{ReservationNumber: "X"}}
	e := New(&fakeGate{key: "K"}, searcher, reserver)

	if _, err := e.Run(context.Background(), request()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if searcher.n != 2 {
		t.Fatalf("search calls = %d, want 2", searcher.n)
	}
	if e.LastAttempts() != 2 {
		t.Fatalf("LastAttempts = %d, want 2", e.LastAttempts())
	}
}

func TestRunSkipsNonMatchingSnapshot(t *testing.T) {
	soldOut := candidate()
	soldOut.GeneralSeatState = "매진"
	soldOut.WaitlistCode = model.WaitlistNone

	searcher := &fakeSearcher{fn: func(call int) ([]model.Train, error) {
		if call == 1 {
			return []model.Train{soldOut}, nil
		}
		return []model.Train{open(candidate())}, nil
	}}
	reserver := &fakeReserver{rsv: &model.Reservation{}}
	e := New(&fakeGate{key: "K"}, searcher, reserver)

	if _, err := e.Run(context.Background(), request()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reserver.calls != 1 {
		t.Fatalf("reserve calls = %d, want 1 (sold-out round must not reserve)", reserver.calls)
	}
}

func TestRunCancellation(t *testing.T) {
	searcher := &fakeSearcher{fn: func(int) ([]model.Train, error) {
		return nil, nil // never a match; the loop keeps polling
	}}
	e := New(&fakeGate{key: "K"}, searcher, &fakeReserver{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := e.Run(ctx, request())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancellation took %s", elapsed)
	}
	if st := e.Progress().State; st != StateCancelled {
		t.Fatalf("state = %q, want cancelled", st)
	}
	if e.Running() {
		t.Fatal("engine still marked running after cancel")
	}
}

func TestRunRejectsOverlap(t *testing.T) {
	gate := &fakeGate{key: "K", block: make(chan struct{})}
	searcher := &fakeSearcher{fn: func(int) ([]model.Train, error) { return nil, nil }}
	e := New(gate, searcher, &fakeReserver{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Run(ctx, request())
	}()

	deadline := time.Now().Add(time.Second)
	for !e.Running() {
		if time.Now().After(deadline) {
			t.Fatal("first run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := e.Run(context.Background(), request()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("err = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	<-done
}

func TestRunInvalidRequestLeavesRunningLoopAlone(t *testing.T) {
	gate := &fakeGate{key: "K", block: make(chan struct{})}
	searcher := &fakeSearcher{fn: func(int) ([]model.Train, error) { return nil, nil }}
	e := New(gate, searcher, &fakeReserver{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Run(ctx, request())
	}()

	deadline := time.Now().Add(time.Second)
	for !e.Running() {
		if time.Now().After(deadline) {
			t.Fatal("first run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bad := request()
	bad.Candidates = nil
	if _, err := e.Run(context.Background(), bad); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("err = %v, want ErrAlreadyRunning while a loop is in flight", err)
	}
	if !e.Running() {
		t.Fatal("invalid call stopped the live loop")
	}
	if st := e.Progress().State; st == StateFailed {
		t.Fatalf("invalid call clobbered the live loop's state: %q", st)
	}

	// The guard must still reject a third, valid call.
	if _, err := e.Run(context.Background(), request()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("err = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	<-done
}

func TestRunValidatesRequest(t *testing.T) {
	e := New(&fakeGate{key: "K"}, &fakeSearcher{fn: func(int) ([]model.Train, error) {
		t.Error("search must not run for an invalid request")
		return nil, nil
	}}, &fakeReserver{})

	cases := []func(*Request){
		func(r *Request) { r.Candidates = nil },
		func(r *Request) { r.Preference = "window_first" },
		func(r *Request) { r.Passengers = nil },
		func(r *Request) { r.Params.DepStationCode = "" },
	}
	for i, mutate := range cases {
		req := request()
		mutate(&req)
		if _, err := e.Run(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("case %d: err = %v, want ErrInvalidRequest", i, err)
		}
	}
}
