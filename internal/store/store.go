// Package store keeps per-session state: uploaded filenames, accumulated
// chunks, and the current vector index. Sessions live in process memory
// with an idle TTL so abandoned sessions do not grow without bound.
package store

import (
	"sync"
	"time"

	"docchat/internal/index"
	"docchat/internal/models"

	"github.com/patrickmn/go-cache"
)

// Session is the unit of isolation. Filenames and Chunks are append-only;
// Index is nil until the first successful upload and is always built from
// the full current chunk set.
type Session struct {
	ID        string
	Filenames []string
	Chunks    []models.Chunk
	Index     *index.Index
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

type Store struct {
	cache *cache.Cache

	mu sync.Mutex // guards create-if-absent
}

// New builds a store whose sessions expire after ttl of inactivity and
// are purged every purgeEvery.
func New(ttl, purgeEvery time.Duration) *Store {
	return &Store{cache: cache.New(ttl, purgeEvery)}
}

func (s *Store) getOrCreate(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x, found := s.cache.Get(id); found {
		return x.(*entry)
	}
	e := &entry{sess: &Session{ID: id}}
	s.cache.Set(id, e, cache.DefaultExpiration)
	return e
}

// WithSession runs fn with exclusive access to the session, creating it
// on first use and refreshing its TTL. The lock is held for the whole of
// fn, so an upload's rebuild completes before a concurrent ask on the
// same session observes its chunks.
func (s *Store) WithSession(id string, fn func(*Session) error) error {
	e := s.lockCurrent(id)
	defer e.mu.Unlock()
	s.cache.Set(id, e, cache.DefaultExpiration)
	return fn(e.sess)
}

// lockCurrent returns the live entry for id with its lock held. A
// concurrent Clear can detach the entry between lookup and lock, so the
// mapping is re-checked after locking and the lookup starts over when
// it lost that race.
func (s *Store) lockCurrent(id string) *entry {
	for {
		e := s.getOrCreate(id)
		e.mu.Lock()
		s.mu.Lock()
		x, found := s.cache.Get(id)
		s.mu.Unlock()
		if found && x.(*entry) == e {
			return e
		}
		e.mu.Unlock()
	}
}

// Clear drops all state for the session. Clearing an unknown session is
// a no-op.
func (s *Store) Clear(id string) {
	s.cache.Delete(id)
}

func (s *Store) SessionCount() int {
	return s.cache.ItemCount()
}
