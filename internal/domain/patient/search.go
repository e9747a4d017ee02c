package patient

import (
	"context"
	"sync"
	"time"
)

// sequenceGuard hands out a monotonically increasing sequence number per
// key (one key per POS session) and remembers the latest issued. A
// response whose sequence is no longer the latest must be discarded, so
// a slow superseded lookup can never clobber a newer one.
type sequenceGuard struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func newSequenceGuard() *sequenceGuard {
	return &sequenceGuard{latest: make(map[string]uint64)}
}

func (g *sequenceGuard) next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[key]++
	return g.latest[key]
}

func (g *sequenceGuard) isLatest(key string, seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[key] == seq
}

func (g *sequenceGuard) forget(key string) {
	g.mu.Lock()
	delete(g.latest, key)
	g.mu.Unlock()
}

// Service proxies patient search upstream with per-session response
// ordering. Results from a lookup that was superseded before it resolved
// are dropped, not applied. An optional debouncer coalesces keystroke
// bursts into one upstream call per quiet period.
type Service struct {
	repo     SearchRepository
	guard    *sequenceGuard
	debounce *Debouncer
}

func NewService(repo SearchRepository) *Service {
	return &Service{repo: repo, guard: newSequenceGuard()}
}

// SetDebounce enables keystroke coalescing with the given quiet period.
func (s *Service) SetDebounce(delay time.Duration) {
	s.debounce = NewDebouncer(delay)
}

// Search runs a lookup for the given session key. The stale flag reports
// that a newer search superseded this one and its outcome (results or
// error) was discarded. With debouncing enabled the lookup is held for
// the quiet period first; a superseded wait never reaches upstream.
func (s *Service) Search(ctx context.Context, key, term string) (results []Summary, stale bool, err error) {
	seq := s.guard.next(key)
	if s.debounce != nil {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case won := <-s.debounce.Wait(key):
			if !won {
				return nil, true, nil
			}
		}
	}
	found, err := s.repo.Search(ctx, term)
	if !s.guard.isLatest(key, seq) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return found, false, nil
}

// Forget drops the ordering state for a closed session.
func (s *Service) Forget(key string) {
	s.guard.forget(key)
}

// Debouncer coalesces rapid calls per key into one winner per quiet
// period using a cancel-and-reschedule timer. This bounds upstream
// request rate; response ordering is still the Service's sequence guard.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingWait
}

type pendingWait struct {
	timer *time.Timer
	ch    chan bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debouncer{delay: delay, pending: make(map[string]*pendingWait)}
}

// Wait returns a channel that delivers true once the quiet period passes
// with no newer call for the same key, or false as soon as a newer call
// supersedes this one.
func (d *Debouncer) Wait(key string) <-chan bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		// Stop reports false when the timer already fired and sent true
		if p.timer.Stop() {
			p.ch <- false
		}
	}
	p := &pendingWait{ch: make(chan bool, 1)}
	p.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending[key] == p {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		p.ch <- true
	})
	d.pending[key] = p
	return p.ch
}

// Stop cancels every pending wait.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, p := range d.pending {
		if p.timer.Stop() {
			p.ch <- false
		}
		delete(d.pending, key)
	}
}
