package patient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// blockingRepo lets the test hold a search in flight until released.
type blockingRepo struct {
	mu      sync.Mutex
	pending map[string]chan struct{}
	results map[string][]Summary
	calls   map[string]int
	err     error
}

func newBlockingRepo() *blockingRepo {
	return &blockingRepo{
		pending: make(map[string]chan struct{}),
		results: make(map[string][]Summary),
		calls:   make(map[string]int),
	}
}

func (r *blockingRepo) count(term string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[term]
}

func (r *blockingRepo) hold(term string) chan struct{} {
	ch := make(chan struct{})
	r.mu.Lock()
	r.pending[term] = ch
	r.mu.Unlock()
	return ch
}

func (r *blockingRepo) Search(ctx context.Context, term string) ([]Summary, error) {
	r.mu.Lock()
	r.calls[term]++
	gate := r.pending[term]
	res := r.results[term]
	err := r.err
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func TestSearchReturnsResults(t *testing.T) {
	repo := newBlockingRepo()
	repo.results["asha"] = []Summary{{RegistrationID: "REG-1", Name: "Asha Verma"}}
	svc := NewService(repo)

	results, stale, err := svc.Search(context.Background(), "sess-1", "asha")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if stale {
		t.Fatal("fresh search flagged stale")
	}
	if len(results) != 1 || results[0].RegistrationID != "REG-1" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchDiscardsOvertakenResponse(t *testing.T) {
	repo := newBlockingRepo()
	repo.results["as"] = []Summary{{RegistrationID: "REG-OLD", Name: "Stale"}}
	repo.results["asha"] = []Summary{{RegistrationID: "REG-1", Name: "Asha Verma"}}
	gate := repo.hold("as")
	svc := NewService(repo)

	type outcome struct {
		results []Summary
		stale   bool
		err     error
	}
	slow := make(chan outcome, 1)
	go func() {
		res, stale, err := svc.Search(context.Background(), "sess-1", "as")
		slow <- outcome{res, stale, err}
	}()

	// Give the slow search time to claim its sequence number before the
	// fast one overtakes it
	time.Sleep(20 * time.Millisecond)

	fast, stale, err := svc.Search(context.Background(), "sess-1", "asha")
	if err != nil || stale {
		t.Fatalf("fast search: stale=%v err=%v", stale, err)
	}
	if len(fast) != 1 || fast[0].RegistrationID != "REG-1" {
		t.Errorf("fast results = %+v", fast)
	}

	close(gate)
	got := <-slow
	if !got.stale {
		t.Error("overtaken search should be reported stale")
	}
	if got.results != nil {
		t.Errorf("overtaken search leaked results: %+v", got.results)
	}
	if got.err != nil {
		t.Errorf("overtaken search leaked error: %v", got.err)
	}
}

func TestSearchDiscardsOvertakenError(t *testing.T) {
	repo := newBlockingRepo()
	repo.err = errors.New("upstream down")
	gate := repo.hold("as")
	svc := NewService(repo)

	done := make(chan error, 1)
	go func() {
		_, stale, err := svc.Search(context.Background(), "sess-1", "as")
		if !stale {
			done <- errors.New("not stale")
			return
		}
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	svc.guard.next("sess-1") // a newer search claims the slot
	close(gate)

	if err := <-done; err != nil {
		t.Errorf("overtaken error should be swallowed, got %v", err)
	}
}

func TestSearchErrorSurfacesWhenLatest(t *testing.T) {
	repo := newBlockingRepo()
	repo.err = errors.New("upstream down")
	svc := NewService(repo)

	_, stale, err := svc.Search(context.Background(), "sess-1", "asha")
	if stale {
		t.Error("latest search flagged stale")
	}
	if err == nil {
		t.Error("expected error from latest search")
	}
}

func TestSearchKeysAreIndependent(t *testing.T) {
	repo := newBlockingRepo()
	repo.results["asha"] = []Summary{{RegistrationID: "REG-1"}}
	svc := NewService(repo)

	// Activity on another session must not invalidate this one
	svc.guard.next("sess-other")
	_, stale, err := svc.Search(context.Background(), "sess-1", "asha")
	if stale || err != nil {
		t.Errorf("stale=%v err=%v, want fresh result", stale, err)
	}
}

func TestForgetResetsSequence(t *testing.T) {
	svc := NewService(newBlockingRepo())
	svc.guard.next("sess-1")
	svc.guard.next("sess-1")
	svc.Forget("sess-1")
	if got := svc.guard.next("sess-1"); got != 1 {
		t.Errorf("sequence after forget = %d, want 1", got)
	}
}

func TestDebouncerLastWaitWins(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	first := d.Wait("sess-1")
	second := d.Wait("sess-1")
	third := d.Wait("sess-1")

	if won := <-first; won {
		t.Error("superseded wait reported a win")
	}
	if won := <-second; won {
		t.Error("superseded wait reported a win")
	}
	if won := <-third; !won {
		t.Error("last wait should win after the quiet period")
	}
}

func TestDebouncerIndependentKeys(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	a := d.Wait("sess-1")
	b := d.Wait("sess-2")

	if !<-a || !<-b {
		t.Error("waits on distinct keys must not supersede each other")
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	ch := d.Wait("sess-1")
	d.Stop()

	if won := <-ch; won {
		t.Error("stopped debouncer reported a win")
	}
}

func TestSearchDebouncedSupersededSkipsUpstream(t *testing.T) {
	repo := newBlockingRepo()
	repo.results["asha"] = []Summary{{RegistrationID: "REG-1", Name: "Asha Verma"}}
	svc := NewService(repo)
	svc.SetDebounce(40 * time.Millisecond)

	type outcome struct {
		stale bool
		err   error
	}
	slow := make(chan outcome, 1)
	go func() {
		_, stale, err := svc.Search(context.Background(), "sess-1", "as")
		slow <- outcome{stale, err}
	}()

	// Let the first search enter its quiet period before the second
	// keystroke arrives
	time.Sleep(10 * time.Millisecond)

	results, stale, err := svc.Search(context.Background(), "sess-1", "asha")
	if err != nil || stale {
		t.Fatalf("latest search: stale=%v err=%v", stale, err)
	}
	if len(results) != 1 || results[0].RegistrationID != "REG-1" {
		t.Errorf("results = %+v", results)
	}

	got := <-slow
	if !got.stale || got.err != nil {
		t.Errorf("superseded search: stale=%v err=%v, want stale", got.stale, got.err)
	}
	if repo.count("as") != 0 {
		t.Error("superseded search reached upstream")
	}
}

func TestDebouncerDefaultDelay(t *testing.T) {
	d := NewDebouncer(0)
	if d.delay != 300*time.Millisecond {
		t.Errorf("default delay = %v, want 300ms", d.delay)
	}
}
