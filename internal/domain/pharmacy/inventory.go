package pharmacy

import (
	"strings"
	"time"
)

// Snapshot is one load of the medicine catalog plus the per-id count of
// units not yet reserved by the session's cart. The conservation rule for
// every id is:
//
//	available[id] + Σ cart quantity(id) == stock[id] as of this load
//
// A snapshot is never shared between sessions and is only touched under
// the owning session's lock.
type Snapshot struct {
	version   int64
	loadedAt  time.Time
	order     []string
	items     map[string]Medicine
	available map[string]int
}

func newSnapshot(version int64, meds []Medicine) *Snapshot {
	s := &Snapshot{
		version:   version,
		loadedAt:  time.Now().UTC(),
		order:     make([]string, 0, len(meds)),
		items:     make(map[string]Medicine, len(meds)),
		available: make(map[string]int, len(meds)),
	}
	for _, m := range meds {
		if _, dup := s.items[m.ID]; dup {
			continue
		}
		s.order = append(s.order, m.ID)
		s.items[m.ID] = m
		s.available[m.ID] = m.Stock
	}
	return s
}

// emptySnapshot backs a session whose initial load failed: no medicines,
// nothing reservable, version zero.
func emptySnapshot() *Snapshot {
	return newSnapshot(0, nil)
}

// Version identifies this load; cart reservations are tagged with it.
func (s *Snapshot) Version() int64 { return s.version }

// LoadedAt is when the catalog was fetched.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Len returns the number of distinct medicines in the snapshot.
func (s *Snapshot) Len() int { return len(s.order) }

// Medicine looks up a catalog entry by id.
func (s *Snapshot) Medicine(id string) (Medicine, bool) {
	m, ok := s.items[id]
	return m, ok
}

// AvailableFor returns the units of id still open to reservation. A
// known id with no tracking entry falls back to its nominal stock; an
// unknown id has nothing to reserve.
func (s *Snapshot) AvailableFor(id string) int {
	if n, ok := s.available[id]; ok {
		return n
	}
	if m, ok := s.items[id]; ok {
		return m.Stock
	}
	return 0
}

// AvailableMap copies the per-id availability for rendering.
func (s *Snapshot) AvailableMap() map[string]int {
	out := make(map[string]int, len(s.available))
	for id, n := range s.available {
		out[id] = n
	}
	return out
}

// Listings returns catalog rows with availability, optionally filtered by
// a case-insensitive substring of the name or category, in load order.
func (s *Snapshot) Listings(query string) []MedicineListing {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]MedicineListing, 0, len(s.order))
	for _, id := range s.order {
		m := s.items[id]
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Name), query) &&
			!strings.Contains(strings.ToLower(m.Category), query) {
			continue
		}
		out = append(out, MedicineListing{Medicine: m, Available: s.AvailableFor(id)})
	}
	return out
}

// reserve takes n units of id out of the available pool. Callers must
// have already checked AvailableFor; going negative is a bug upstream of
// this call, so it is clamped rather than propagated.
func (s *Snapshot) reserve(id string, n int) {
	s.available[id] = s.AvailableFor(id) - n
	if s.available[id] < 0 {
		s.available[id] = 0
	}
}

// release credits n units of id back into the available pool, capped at
// the nominal stock.
func (s *Snapshot) release(id string, n int) {
	v := s.AvailableFor(id) + n
	if m, ok := s.items[id]; ok && v > m.Stock {
		v = m.Stock
	}
	s.available[id] = v
}
