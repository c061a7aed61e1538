package school

import (
	"math/rand/v2"
	"sync"
)

// RecommendationLimit caps how many tasks a recommendation returns.
const RecommendationLimit = 3

// TaskSelector picks up to n tasks for a student from the active candidates.
// Implementations must not return duplicates or tasks outside candidates.
type TaskSelector interface {
	Select(student Student, candidates []Task, n int) []Task
}

// RandomSelector samples uniformly without replacement and ignores the
// student profile.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

// NewRandomSelector returns an unseeded selector.
func NewRandomSelector() *RandomSelector {
	return &RandomSelector{}
}

// NewSeededSelector returns a selector whose picks are reproducible.
func NewSeededSelector(seed uint64) *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (s *RandomSelector) Select(_ Student, candidates []Task, n int) []Task {
	if n > len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		return []Task{}
	}

	pool := make([]Task, len(candidates))
	copy(pool, candidates)

	// partial Fisher-Yates: the first n slots end up a uniform sample
	for i := 0; i < n; i++ {
		j := i + s.intN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func (s *RandomSelector) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
