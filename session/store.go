// Package session keeps parsed uploads in memory between requests.
//
// Uploads are cached by identity: the same file name and bytes map to the
// same entry, and concurrent identical uploads are parsed once.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spektr-org/csvplot/dataset"
)

// Defaults used when the corresponding option is not given.
const (
	DefaultMaxEntries = 32
	DefaultTTL        = time.Hour
)

// ParseFunc turns an upload into a dataset.
type ParseFunc func(name string, data []byte) (*dataset.Dataset, error)

// Entry is one parsed upload.
type Entry struct {
	ID       string
	Name     string
	Size     int
	Dataset  *dataset.Dataset
	Summary  *dataset.Summary
	Created  time.Time
	lastSeen time.Time
	key      string
}

// Store is a bounded in-memory cache of entries. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry // by ID
	byKey   map[string]string // content key → ID
	order   []string          // IDs, oldest first

	group singleflight.Group

	maxEntries int
	ttl        time.Duration
	parse      ParseFunc
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries bounds the number of cached uploads; the oldest is evicted.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithTTL expires entries not accessed for d. d <= 0 disables expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		s.ttl = d
	}
}

// WithParser replaces dataset.Parse.
func WithParser(fn ParseFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.parse = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*Entry),
		byKey:      make(map[string]string),
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
		parse:      dataset.Parse,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// OPERATIONS
// ============================================================================

// Put parses an upload, or returns the cached entry for identical content.
// Parse failures are returned as-is and never cached.
func (s *Store) Put(name string, data []byte) (*Entry, error) {
	key := contentKey(name, data)

	if e, ok := s.lookupKey(key); ok {
		s.logger.Debug("upload cache hit", zap.String("id", e.ID), zap.String("file", name))
		return e, nil
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		if e, ok := s.lookupKey(key); ok {
			return e, nil
		}
		ds, err := s.parse(name, data)
		if err != nil {
			return nil, err
		}
		e := &Entry{
			ID:      uuid.NewString(),
			Name:    name,
			Size:    len(data),
			Dataset: ds,
			Summary: dataset.Describe(ds),
			key:     key,
		}
		s.insert(e)
		s.logger.Info("upload parsed",
			zap.String("id", e.ID),
			zap.String("file", name),
			zap.Int("bytes", len(data)),
			zap.Int("rows", ds.Len()),
			zap.Int("columns", ds.NumColumns()))
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("upload parse shared", zap.String("file", name))
	}
	return v.(*Entry), nil
}

// Get returns the live entry for id and refreshes its expiry.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(e, now) {
		s.removeLocked(id)
		return nil, false
	}
	e.lastSeen = now
	return e, true
}

// Delete drops an entry. It reports whether the entry existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	s.removeLocked(id)
	return true
}

// Len returns the number of cached entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, id := range append([]string(nil), s.order...) {
		if s.expired(s.entries[id], now) {
			s.removeLocked(id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired uploads removed", zap.Int("count", n))
			}
		}
	}
}

// ============================================================================
// INTERNALS
// ============================================================================

func (s *Store) lookupKey(key string) (*Entry, bool) {
	s.mu.Lock()
	id, ok := s.byKey[key]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return s.Get(id)
}

func (s *Store) insert(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e.Created, e.lastSeen = now, now
	s.entries[e.ID] = e
	s.byKey[e.key] = e.ID
	s.order = append(s.order, e.ID)

	for len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.logger.Debug("upload evicted", zap.String("id", oldest))
		s.removeLocked(oldest)
	}
}

func (s *Store) removeLocked(id string) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	delete(s.entries, id)
	if s.byKey[e.key] == id {
		delete(s.byKey, e.key)
	}
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) expired(e *Entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

// contentKey identifies an upload by name and bytes.
func contentKey(name string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
