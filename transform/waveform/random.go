package waveform

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields uniform floats in [0, 1)
type Source interface {
	Float64() float64
}

// lockedSource serializes access to a *rand.Rand, which is not safe for
// concurrent use on its own
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// NewSource returns a time-seeded source for live use. It is safe to share
// between goroutines.
func NewSource() Source {
	return NewSeededSource(time.Now().UnixNano())
}

// NewSeededSource returns a reproducible source that is safe to share
// between goroutines
func NewSeededSource(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

// Rand returns a uniform value in [lo, hi]
func Rand(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Noise returns a uniform value in [-1, 1]
func Noise(src Source) float64 {
	return Rand(src, -1, 1)
}

// ChooseIndex picks an index in [0, n) uniformly
func ChooseIndex(src Source, n int) int {
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Choose returns one of options uniformly
func Choose(src Source, options []float64) float64 {
	return options[ChooseIndex(src, len(options))]
}
