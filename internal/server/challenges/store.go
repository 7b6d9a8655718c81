// Package challenges keeps issued sign-in challenges until they are
// answered or expire. A challenge can be taken at most once.
package challenges

import (
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/jellydator/ttlcache/v3"
)

// Challenge is a sign-in message waiting for its signature.
type Challenge struct {
	ID        string
	Account   caip.AccountID
	Message   string
	ExpiresAt time.Time
}

type Store struct {
	cache *ttlcache.Cache[string, Challenge]
}

// NewStore creates a store whose entries live for ttl. Call Start to run
// the background eviction loop and Stop to end it.
func NewStore(ttl time.Duration) *Store {
	cache := ttlcache.New[string, Challenge](
		ttlcache.WithTTL[string, Challenge](ttl),
		ttlcache.WithDisableTouchOnHit[string, Challenge](),
	)
	return &Store{cache: cache}
}

func (s *Store) Start() {
	go s.cache.Start()
}

func (s *Store) Stop() {
	s.cache.Stop()
}

func (s *Store) Put(ch Challenge) {
	s.cache.Set(ch.ID, ch, ttlcache.DefaultTTL)
}

// Take removes and returns the challenge. Unknown, expired and already
// taken challenges all yield common.ErrChallengeNotFound.
func (s *Store) Take(id string) (Challenge, error) {
	item, ok := s.cache.GetAndDelete(id)
	if !ok || item == nil || item.IsExpired() {
		return Challenge{}, common.ErrChallengeNotFound
	}
	return item.Value(), nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}
