package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
)

// DefaultSlotName is the slot the journal is kept under
const DefaultSlotName = "moodTracker"

// DemoDays is the length of the demo window
const DemoDays = 30

// Snapshot is a read-only copy of the journal.
// Version increases with every mutation of the store it came from.
type Snapshot struct {
	Version uint64
	Records []domain.Record
}

// Get looks up the record for date
func (s Snapshot) Get(date string) (domain.Record, bool) {
	for _, r := range s.Records {
		if r.Date == date {
			return r, true
		}
	}
	return domain.Record{}, false
}

// PersistError reports that a mutation was applied in memory but could not
// be written to the slot
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s not persisted: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Store owns the journal: one record per date, in insertion order
type Store struct {
	mu      sync.Mutex
	slot    Slot
	log     *zap.Logger
	records []domain.Record
	index   map[string]int
	version uint64
	subs    map[int]func(Snapshot)
	nextSub int
}

// Open loads the journal from slot. Unreadable or corrupt slot data is
// logged and the store starts empty.
func Open(ctx context.Context, slot Slot, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		slot:  slot,
		log:   log.With(zap.String("slot", slot.Name())),
		index: map[string]int{},
		subs:  map[int]func(Snapshot){},
	}

	data, err := slot.Load(ctx)
	if err != nil {
		s.log.Error("Failed to read journal, starting empty", zap.Error(err))
		return s
	}
	records, err := Decode(data)
	if err != nil {
		s.log.Error("Failed to decode journal, starting empty", zap.Error(err))
		return s
	}

	s.records = records
	s.reindex()
	s.log.Debug("Journal loaded", zap.Int("records", len(records)))
	return s
}

// Close releases the slot
func (s *Store) Close() error {
	return s.slot.Close()
}

// All returns a copy of the journal
func (s *Store) All() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the record for date
func (s *Store) Get(date string) (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[date]
	if !ok {
		return domain.Record{}, false
	}
	return s.records[i].Clone(), true
}

// Version returns the current journal version
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn to be called with the new snapshot after every
// mutation. Calls happen synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Upsert inserts a record for p.Date or merges p onto the existing one.
// Invalid input returns a *domain.ValidationError and changes nothing.
// A failed write returns a *PersistError; the change is kept in memory.
func (s *Store) Upsert(ctx context.Context, p domain.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if m, ok := domain.LookupMood(p.Emoji); ok {
		p.Emoji = m.Emoji
	}

	s.mu.Lock()
	if i, ok := s.index[p.Date]; ok {
		s.records[i] = p.Apply(s.records[i])
	} else {
		if p.Emoji == "" {
			s.mu.Unlock()
			verr := &domain.ValidationError{}
			verr.Add("emoji", domain.ErrMissingEmoji.Error())
			return verr
		}
		s.index[p.Date] = len(s.records)
		s.records = append(s.records, p.Apply(domain.Record{}))
	}
	return s.commit(ctx, "upsert", zap.String("date", p.Date))
}

// Delete removes the record for date. A missing date is not an error.
func (s *Store) Delete(ctx context.Context, date string) error {
	s.mu.Lock()
	i, ok := s.index[date]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.records = slices.Delete(s.records, i, i+1)
	s.reindex()
	return s.commit(ctx, "delete", zap.String("date", date))
}

// LoadDemo replaces the whole journal with generated records for today and
// the 29 days before it. A nil rnd draws from a time-seeded source.
func (s *Store) LoadDemo(ctx context.Context, today time.Time, rnd *rand.Rand) error {
	if rnd == nil {
		rnd = NewDemoRand(uint64(time.Now().UnixNano()))
	}
	dates := domain.Window(today, DemoDays)

	s.mu.Lock()
	s.records = make([]domain.Record, 0, DemoDays)
	clear(s.index)
	// newest first, as a user scrolling back would have entered them
	for n := 1; n <= DemoDays; n++ {
		r := domain.Record{
			Date:  dates[DemoDays-n],
			Emoji: domain.DemoEmojis[rnd.IntN(len(domain.DemoEmojis))],
			Note:  fmt.Sprintf("Sample day %d", n),
		}
		s.index[r.Date] = len(s.records)
		s.records = append(s.records, r)
	}
	return s.commit(ctx, "demo", zap.String("until", dates[DemoDays-1]))
}

// Flush writes the current journal to the slot again, e.g. after a
// PersistError
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, "flush")
}

// commit bumps the version, persists and notifies subscribers.
// It must be called with s.mu held and releases it.
func (s *Store) commit(ctx context.Context, op string, fields ...zap.Field) error {
	s.version++
	err := s.persistLocked(ctx, op)
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.log.Debug("Journal changed",
		append(fields, zap.String("op", op), zap.Uint64("version", snap.Version))...)
	for _, fn := range subs {
		fn(snap)
	}
	return err
}

func (s *Store) persistLocked(ctx context.Context, op string) error {
	data, err := Encode(s.records)
	if err == nil {
		err = s.slot.Save(ctx, data)
	}
	if err != nil {
		s.log.Warn("Failed to persist journal", zap.String("op", op), zap.Error(err))
		return &PersistError{Op: op, Err: err}
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	records := make([]domain.Record, len(s.records))
	for i, r := range s.records {
		records[i] = r.Clone()
	}
	return Snapshot{Version: s.version, Records: records}
}

func (s *Store) reindex() {
	clear(s.index)
	for i, r := range s.records {
		s.index[r.Date] = i
	}
}

// NewDemoRand returns a deterministic random source for LoadDemo
func NewDemoRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
