package style

import (
	"math/rand"
	"strings"
	"sync"
)

// Selector draws thematic styles for a batch run. All randomness comes
// from one generator scoped to the selector; seeding it is the only way
// to get identical style assignments across runs. The mutex makes the
// selector safe to share across document workers in concurrent mode.
type Selector struct {
	catalog      *Catalog
	affinityProb float64

	mu  sync.Mutex
	rng *rand.Rand
}

const defaultAffinityProb = 0.7

// NewSelector builds a selector over catalog seeded with seed.
func NewSelector(catalog *Catalog, seed int64) *Selector {
	return &Selector{
		catalog:      catalog,
		affinityProb: defaultAffinityProb,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// SelectOne draws one style key for a genre, skipping keys in exclude.
// With probability affinityProb the draw is uniform over the genre's
// affinity list; otherwise it is uniform over the full catalog. Returns
// false when every candidate is excluded.
func (s *Selector) SelectOne(genre string, exclude map[string]bool) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(genre, exclude)
}

func (s *Selector) selectLocked(genre string, exclude map[string]bool) (string, bool) {
	pool := s.catalog.Affinity(strings.ToLower(genre))
	if len(pool) == 0 || s.rng.Float64() >= s.affinityProb {
		pool = s.catalog.Keys()
	}

	candidates := make([]string, 0, len(pool))
	for _, key := range pool {
		if !exclude[key] {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		// Affinity pool exhausted; fall back to whatever remains in the
		// full catalog before giving up.
		for _, key := range s.catalog.Keys() {
			if !exclude[key] {
				candidates = append(candidates, key)
			}
		}
		if len(candidates) == 0 {
			return "", false
		}
	}

	return candidates[s.rng.Intn(len(candidates))], true
}

// Chance draws a biased coin from the selector's generator. Used for
// the configured fraction of styled extraction attempts so every source
// of randomness in a run flows through the one seeded generator.
func (s *Selector) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}

// SelectUnique draws up to count distinct style keys for a genre. When
// the catalog is exhausted first, fewer keys are returned rather than
// looping forever.
func (s *Selector) SelectUnique(genre string, count int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	exclude := make(map[string]bool, count)
	var keys []string
	for len(keys) < count {
		key, ok := s.selectLocked(genre, exclude)
		if !ok {
			break
		}
		exclude[key] = true
		keys = append(keys, key)
	}
	return keys
}
