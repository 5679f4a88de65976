package fetcher

import (
	"math/rand/v2"
	"sync"
)

// UserAgentSelector picks the client identity sent with each request.
type UserAgentSelector interface {
	Next() string
}

// RandomSelector picks uniformly at random from a fixed pool.
type RandomSelector struct {
	mu   sync.Mutex
	pool []string
	rng  *rand.Rand
}

// NewRandomSelector returns a selector over pool. A nil rng uses a randomly
// seeded source; tests pass a seeded one.
func NewRandomSelector(pool []string, rng *rand.Rand) *RandomSelector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomSelector{pool: append([]string(nil), pool...), rng: rng}
}

func (s *RandomSelector) Next() string {
	if len(s.pool) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool[s.rng.IntN(len(s.pool))]
}

// FixedSelector always returns the same identity.
type FixedSelector string

func (s FixedSelector) Next() string {
	return string(s)
}
