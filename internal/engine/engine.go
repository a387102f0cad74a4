// Package engine drives the retry-until-success reservation loop. The
// loop is logically sequential: one search, one match pass and at most
// one reserve call per round, a fixed one second pause between rounds.
// The pause is deliberate backpressure against the upstream anti-bot
// system and is not configurable.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/devhsu/srt-macro/internal/model"
	"github.com/devhsu/srt-macro/internal/srt"
)

// roundDelay is the floor between reservation rounds.
const roundDelay = time.Second

// State names the engine's position in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateMatching  State = "matching"
	StateReserving State = "reserving"
	StateSucceeded State = "succeeded"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// ErrCancelled reports a user-initiated stop. It is a normal outcome,
// not a failure, and is never logged as an error.
var ErrCancelled = errors.New("engine: cancelled")

// ErrAlreadyRunning is returned when a second loop is started while one
// is in flight for this engine.
var ErrAlreadyRunning = errors.New("engine: reservation loop already running")

// ErrInvalidRequest marks precondition failures that make the loop
// pointless; the loop never starts in that case.
var ErrInvalidRequest = errors.New("engine: invalid request")

// Admitter yields a valid admission key, reusing a cached one when the
// TTL allows. Implemented by netfunnel.Helper.
type Admitter interface {
	Run(ctx context.Context, progress func(waiting int)) (string, error)
}

// Searcher refreshes the live schedule snapshot. Implemented by
// srt.Client.
type Searcher interface {
	Search(ctx context.Context, p srt.SearchParams) ([]model.Train, error)
}

// Reserver books one train. Implemented by srt.Client.
type Reserver interface {
	Reserve(ctx context.Context, train model.Train, passengers []model.Passenger, specialSeat bool, netfunnelKey string) (*model.Reservation, error)
}

// Request is one reservation job: the original search parameters, the
// candidate trains in the order the user picked them, the passenger
// list and the seat preference.
type Request struct {
	Params     srt.SearchParams
	Candidates []model.Train
	Passengers []model.Passenger
	Preference model.SeatPreference
}

// Progress is a snapshot for an external display: which state the loop
// is in, how many rounds it has run and for how long, plus the latest
// admission-queue wait count when the gate is queueing.
type Progress struct {
	State    State         `json:"state"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
	Waiting  int           `json:"waiting"`
}

// Engine owns one reservation loop at a time. All exported methods are
// safe for concurrent use; Run itself rejects overlapping calls.
type Engine struct {
	gate     Admitter
	searcher Searcher
	reserver Reserver

	mu        sync.Mutex
	running   bool
	state     State
	attempts  int
	waiting   int
	startedAt time.Time

	lastAttempts int
}

// New wires an engine from its three collaborators.
func New(gate Admitter, searcher Searcher, reserver Reserver) *Engine {
	return &Engine{gate: gate, searcher: searcher, reserver: reserver, state: StateIdle}
}

// Progress returns the current counters. After the loop reaches a
// terminal state the counters read zero again; only the state remains.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := Progress{State: e.state, Attempts: e.attempts, Waiting: e.waiting}
	if e.running {
		p.Elapsed = time.Since(e.startedAt)
	}
	return p
}

// Running reports whether a loop is in flight.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// LastAttempts returns the round count of the most recently finished
// run. Zero until a run has reached a terminal state.
func (e *Engine) LastAttempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAttempts
}

// Run executes the reservation loop until a booking succeeds, the
// context is cancelled, or a precondition fails. Transient search and
// reserve failures are logged and retried on the next round.
// Cancellation is honored at the top of every round, during the
// inter-round pause and inside the admission-queue polling, so it takes
// effect within one second.
//
// The overlap guard is taken before anything else: a second Run call,
// valid or not, gets ErrAlreadyRunning and leaves the live loop's state
// untouched.
func (e *Engine) Run(ctx context.Context, req Request) (*model.Reservation, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		e.setTerminal(StateFailed)
		return nil, err
	}

	wanted := make(map[model.TrainKey]int, len(req.Candidates))
	for i, c := range req.Candidates {
		wanted[c.Key()] = i
	}

	for {
		select {
		case <-ctx.Done():
			e.setTerminal(StateCancelled)
			return nil, ErrCancelled
		default:
		}
		e.nextRound()

		rsv, err := e.round(ctx, req, wanted)
		if rsv != nil {
			e.setTerminal(StateSucceeded)
			return rsv, nil
		}
		if errors.Is(err, context.Canceled) {
			e.setTerminal(StateCancelled)
			return nil, ErrCancelled
		}
		if err != nil {
			log.Printf("engine: round failed, retrying: %v", err)
		}

		select {
		case <-ctx.Done():
			e.setTerminal(StateCancelled)
			return nil, ErrCancelled
		case <-time.After(roundDelay):
		}
	}
}

// round runs one search → match → reserve pass. A nil, nil return means
// no candidate matched this round.
func (e *Engine) round(ctx context.Context, req Request, wanted map[model.TrainKey]int) (*model.Reservation, error) {
	e.setState(StateSearching)

	key, err := e.gate.Run(ctx, e.setWaiting)
	if err != nil {
		return nil, fmt.Errorf("admission: %w", err)
	}
	e.setWaiting(0)

	params := req.Params
	params.NetfunnelKey = key
	fresh, err := e.searcher.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	e.setState(StateMatching)
	byKey := make(map[model.TrainKey]model.Train, len(fresh))
	for _, t := range fresh {
		byKey[t.Key()] = t
	}

	for _, cand := range req.Candidates {
		t, ok := byKey[cand.Key()]
		if !ok || !req.Preference.Matches(t) {
			continue
		}
		e.setState(StateReserving)
		rsv, err := e.reserver.Reserve(ctx, t, req.Passengers, req.Preference.UseSpecialSeat(t), key)
		if err != nil {
			// The seat may have been snatched between search and
			// reserve; the next round works from a fresh snapshot.
			return nil, fmt.Errorf("reserve %s: %w", t.TrainNumber, err)
		}
		return rsv, nil
	}
	return nil, nil
}

func validate(req Request) error {
	switch {
	case len(req.Candidates) == 0:
		return fmt.Errorf("%w: no candidate trains", ErrInvalidRequest)
	case !req.Preference.Valid():
		return fmt.Errorf("%w: unknown seat preference %q", ErrInvalidRequest, req.Preference)
	case model.TotalCount(model.CombinePassengers(req.Passengers)) <= 0:
		return fmt.Errorf("%w: no passengers", ErrInvalidRequest)
	case req.Params.DepStationCode == "" || req.Params.ArrStationCode == "":
		return fmt.Errorf("%w: unresolved station code", ErrInvalidRequest)
	}
	return nil
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrAlreadyRunning
	}
	e.running = true
	e.state = StateIdle
	e.attempts = 0
	e.waiting = 0
	e.startedAt = time.Now()
	return nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) setWaiting(n int) {
	e.mu.Lock()
	e.waiting = n
	e.mu.Unlock()
}

func (e *Engine) nextRound() {
	e.mu.Lock()
	e.attempts++
	e.mu.Unlock()
}

// setTerminal records the final state and resets every counter so the
// progress display starts clean on the next run.
func (e *Engine) setTerminal(s State) {
	e.mu.Lock()
	e.state = s
	e.running = false
	e.lastAttempts = e.attempts
	e.attempts = 0
	e.waiting = 0
	e.startedAt = time.Time{}
	e.mu.Unlock()
}
