// Package session holds the ephemeral correlation between a shown set of
// quality options and the URL they were derived from.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clipfetch/clipfetch/internal/sync_"
)

const DefaultTTL = 30 * time.Minute

type contextKey struct {
	ChatID    int64
	ContentID string
}

type entry struct {
	url       string
	expiresAt time.Time
}

type entriesByKey = map[contextKey]entry

// Store is an in-memory, process-lifetime mapping from (conversation, content)
// to the originally normalized source URL. Entries expire after a TTL and a
// background sweep keeps the map bounded.
type Store struct {
	ttl     time.Duration
	entries *sync_.RWMutexed[entriesByKey]
	log     *zap.SugaredLogger

	stop     chan struct{}
	stopOnce sync.Once
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:     ttl,
		entries: sync_.NewRWMutexed(make(entriesByKey)),
		log:     zap.S().Named("session"),
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Put records the source URL shown to a conversation for a content item,
// replacing any previous entry for the same pair.
func (s *Store) Put(chatID int64, contentID, url string) {
	key := contextKey{ChatID: chatID, ContentID: contentID}
	_ = s.entries.Locked(func(entries entriesByKey) error {
		entries[key] = entry{url: url, expiresAt: time.Now().Add(s.ttl)}
		return nil
	})
}

// Take returns the URL stored for the pair and consumes the entry. The second
// return value is false when the entry is absent or expired, which callers
// must surface as a session-expired outcome.
func (s *Store) Take(chatID int64, contentID string) (string, bool) {
	key := contextKey{ChatID: chatID, ContentID: contentID}
	var (
		url string
		ok  bool
	)
	_ = s.entries.Locked(func(entries entriesByKey) error {
		e, found := entries[key]
		if !found {
			return nil
		}
		delete(entries, key)
		if time.Now().After(e.expiresAt) {
			return nil
		}
		url, ok = e.url, true
		return nil
	})
	return url, ok
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	var n int
	_ = s.entries.RLocked(func(entries entriesByKey) error {
		n = len(entries)
		return nil
	})
	return n
}

// Close stops the background sweep.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Store) janitor() {
	interval := s.ttl
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	var removed int
	_ = s.entries.Locked(func(entries entriesByKey) error {
		for key, e := range entries {
			if now.After(e.expiresAt) {
				delete(entries, key)
				removed++
			}
		}
		return nil
	})
	if removed > 0 {
		s.log.Debugw("swept expired session contexts", "removed", removed)
	}
}
