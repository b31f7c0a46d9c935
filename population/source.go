package population

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Source is the randomness the operators draw from. Implementations must be safe for
// concurrent use.
type Source interface {
	// Uint64 returns a uniform 64-bit value.
	Uint64() uint64
	// Bit returns a uniform random bit.
	Bit() bool
	// Intn returns a uniform value in [0, n). n must be positive.
	Intn(n int) int
	// Read fills p with uniform random bytes.
	Read(p []byte)
}

// Batcher is implemented by sources that can hold their lock across several draws, keeping the
// draws of one operation contiguous in the random stream.
type Batcher interface {
	Batch(fn func(Source))
}

// LockedSource guards a math/rand generator with a mutex.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a LockedSource seeded from the clock.
func NewSource() *LockedSource {
	return NewSeededSource(time.Now().UnixNano())
}

// NewSeededSource returns a LockedSource with a fixed seed, for repeatable runs.
func NewSeededSource(seed int64) *LockedSource {
	return &LockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *LockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64()
}

func (s *LockedSource) Bit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()&1 == 1
}

func (s *LockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *LockedSource) Read(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.rng.Read(p)
}

// Batch runs fn with the lock held. fn must only draw from the Source it is given.
func (s *LockedSource) Batch(fn func(Source)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(unlockedSource{s.rng})
}

type unlockedSource struct {
	rng *rand.Rand
}

func (u unlockedSource) Uint64() uint64 { return u.rng.Uint64() }
func (u unlockedSource) Bit() bool      { return u.rng.Int63()&1 == 1 }
func (u unlockedSource) Intn(n int) int { return u.rng.Intn(n) }
func (u unlockedSource) Read(p []byte)  { _, _ = u.rng.Read(p) }

// batch runs fn under src's lock when src supports it.
func batch(src Source, fn func(Source)) {
	if b, ok := src.(Batcher); ok {
		b.Batch(fn)
		return
	}
	fn(src)
}

// Hasher digests a member's bytes for duplicate detection.
type Hasher func([]byte) uint64

// DefaultHasher is xxhash64.
var DefaultHasher Hasher = xxhash.Sum64
