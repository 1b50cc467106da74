// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

// DefaultMaxPages bounds a single cycle when no other limit is configured.
const DefaultMaxPages = 100

// Observer is called with a copy of the state after every change.
type Observer func(domain.EventState)

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithMaxPages caps the number of fetches per cycle. Values below 1 are ignored.
func WithMaxPages(n int) Option {
	return func(a *Accumulator) {
		if n > 0 {
			a.maxPages = n
		}
	}
}

// WithObserver registers fn to be notified of state changes.
func WithObserver(fn Observer) Option {
	return func(a *Accumulator) { a.observers = append(a.observers, fn) }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *log.Logger) Option {
	return func(a *Accumulator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Accumulator runs sequential paginated fetches and keeps the resulting
// events, loading flag and error. Only one cycle is live at a time: starting
// a new one cancels the previous cycle and discards anything it still reports.
type Accumulator struct {
	name      string
	logger    *log.Logger
	maxPages  int
	observers []Observer

	// notifyMu serialises state changes with their notifications so observers
	// never see a superseded cycle after a newer one.
	notifyMu   sync.Mutex
	mu         sync.Mutex
	state      domain.EventState
	generation uint64
	key        any
	started    bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewAccumulator creates an idle Accumulator. name only appears in log lines.
func NewAccumulator(name string, opts ...Option) *Accumulator {
	a := &Accumulator{
		name:     name,
		logger:   log.New(io.Discard, "", 0),
		maxPages: DefaultMaxPages,
		state:    domain.EventState{Events: []domain.Event{}},
	}
	for _, opt := range opts {
		opt(a)
	}
	closed := make(chan struct{})
	close(closed)
	a.done = closed
	return a
}

// Start resets the state and begins a new cycle for p, unless a cycle for an
// equal key has already been started. It returns immediately.
//
// Observers must not call Start on the same Accumulator.
func (a *Accumulator) Start(ctx context.Context, p Pagination) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
	a.mu.Lock()
	if a.started && a.key == p.Key {
		a.mu.Unlock()
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.generation++
	gen := a.generation
	cycleCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.key = p.Key
	a.started = true
	a.cancel = cancel
	a.done = done
	a.state = domain.EventState{Events: []domain.Event{}}
	snapshot := a.state.Clone()
	a.mu.Unlock()

	a.notify(snapshot)
	go func() {
		defer close(done)
		defer cancel()
		a.run(cycleCtx, gen, p)
	}()
}

// Run starts a cycle for p, waits for it and returns the final state.
func (a *Accumulator) Run(ctx context.Context, p Pagination) (domain.EventState, error) {
	a.Start(ctx, p)
	if err := a.Wait(ctx); err != nil {
		return a.State(), err
	}
	return a.State(), nil
}

// Wait blocks until the current cycle finishes or ctx is done.
func (a *Accumulator) Wait(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the current cycle. The state keeps whatever was accumulated.
func (a *Accumulator) Stop() {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.generation++
	a.started = false
	a.state.Loading = false
	snapshot := a.state.Clone()
	a.mu.Unlock()
	a.notify(snapshot)
}

// State returns a copy of the current state.
func (a *Accumulator) State() domain.EventState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Clone()
}

func (a *Accumulator) run(ctx context.Context, gen uint64, p Pagination) {
	if p.Validate != nil {
		if err := p.Validate(); err != nil {
			a.logger.Printf("%s: not fetching: %v\n", a.name, err)
			a.update(gen, func(s *domain.EventState) { s.Error = err.Error() })
			return
		}
	}

	var base []domain.Event
	for index, fetched := p.First, 0; p.Pending(index); index, fetched = index+1, fetched+1 {
		if !p.Bounded && fetched >= a.maxPages {
			a.logger.Printf("%s: stopping after %d fetches\n", a.name, fetched)
			return
		}
		if ctx.Err() != nil {
			return
		}

		if !a.update(gen, func(s *domain.EventState) { s.Loading = true }) {
			return
		}
		a.logger.Printf("%s: fetching index %d...\n", a.name, index)
		page, err := p.Fetch(ctx, index)
		if err != nil {
			a.update(gen, func(s *domain.EventState) {
				s.Loading = false
				s.Error = err.Error()
			})
			return
		}

		merged, added := p.Merge(base, page)
		base = merged
		if !a.update(gen, func(s *domain.EventState) {
			s.Loading = false
			s.Events = merged
		}) {
			return
		}

		if !p.Continue(page) {
			break
		}
		if len(page) > 0 && added == 0 {
			a.logger.Printf("%s: index %d added no new events, stopping\n", a.name, index)
			break
		}
	}
	a.logger.Printf("%s: completed with %d events.\n", a.name, len(base))
}

// update applies fn to the state if gen is still the live cycle.
func (a *Accumulator) update(gen uint64, fn func(*domain.EventState)) bool {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		return false
	}
	fn(&a.state)
	snapshot := a.state.Clone()
	a.mu.Unlock()
	a.notify(snapshot)
	return true
}

func (a *Accumulator) notify(s domain.EventState) {
	for _, fn := range a.observers {
		fn(s)
	}
}
