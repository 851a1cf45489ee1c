package stats

import (
	"sync"
	"time"

	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
	"github.com/Iki-leo/emoji-mood-tracker/internal/store"
)

// Memo caches the last Summary per journal version and calendar day
type Memo struct {
	mu      sync.Mutex
	valid   bool
	version uint64
	day     string
	summary *Summary
	ok      bool
	hits    int
}

// Get returns the summary for snap on today, computing it only when the
// snapshot version or the day changed since the last call
func (m *Memo) Get(snap store.Snapshot, today time.Time) (*Summary, bool) {
	day := domain.FormatDate(today)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.version == snap.Version && m.day == day {
		m.hits++
		return m.summary, m.ok
	}

	m.summary, m.ok = Compute(snap.Records, today)
	m.version, m.day, m.valid = snap.Version, day, true
	return m.summary, m.ok
}

// Hits is the number of Get calls served from the cache
func (m *Memo) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

// Watch recomputes the summary after every mutation of st, so the next
// Get for the same day is served from the cache
func (m *Memo) Watch(st *store.Store, now func() time.Time) (cancel func()) {
	return st.Subscribe(func(snap store.Snapshot) {
		m.Get(snap, now())
	})
}
