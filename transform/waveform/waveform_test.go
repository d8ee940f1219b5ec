package waveform

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedSource always returns the same value
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestPeriodicWaveforms(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(float64) float64
		phase    float64
		expected float64
	}{
		{"cos peak", Cos, 0, 1},
		{"cos trough", Cos, 0.5, -1},
		{"cos wraps", Cos, 3.0, 1},
		{"tri peak", Tri, 0, 1},
		{"tri trough", Tri, 0.5, -1},
		{"tri quarter", Tri, 0.25, 0},
		{"tri three quarters", Tri, 0.75, 0},
		{"saw start", Saw, 0, 1},
		{"saw middle", Saw, 0.5, 0},
		{"saw wraps", Saw, 1.25, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.fn(tt.phase), 1e-9)
		})
	}
}

func TestSquare(t *testing.T) {
	assert.Equal(t, 1.0, Square(0, 0.5))
	assert.Equal(t, 1.0, Square(0.49, 0.5))
	assert.Equal(t, -1.0, Square(0.5, 0.5))
	assert.Equal(t, -1.0, Square(0.3, 0.25))
	assert.Equal(t, 1.0, Square(1.1, 0.25))
}

func TestRampAndCurve(t *testing.T) {
	assert.InDelta(t, 0.0, Ramp(0, 0, 100, 1), 1e-9)
	assert.InDelta(t, 50.0, Ramp(0.5, 0, 100, 1), 1e-9)
	// speed 2 repeats twice per cycle
	assert.InDelta(t, 50.0, Ramp(0.75, 0, 100, 2), 1e-9)
	// reversed range
	assert.InDelta(t, 75.0, Ramp(0.25, 100, 0, 1), 1e-9)

	assert.InDelta(t, 25.0, Curve(0.5, 0, 100, 2), 1e-9)
	assert.InDelta(t, 50.0, Curve(0.5, 0, 100, 1), 1e-9)
}

func TestRandomPrimitives(t *testing.T) {
	assert.Equal(t, 5.0, Rand(fixedSource(0.5), 0, 10))
	assert.Equal(t, -1.0, Noise(fixedSource(0)))
	assert.Equal(t, 30.0, Choose(fixedSource(0.99), []float64{10, 20, 30}))
	assert.Equal(t, 10.0, Choose(fixedSource(0), []float64{10, 20, 30}))

	src := NewSeededSource(42)
	for i := 0; i < 100; i++ {
		v := Noise(src)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSeededSource_SharedAcrossGoroutines(t *testing.T) {
	src := NewSeededSource(7)
	values := make([][]float64, 8)

	var wg sync.WaitGroup
	for i := range values {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				values[i] = append(values[i], src.Float64())
			}
		}(i)
	}
	wg.Wait()

	for _, vs := range values {
		assert.Len(t, vs, 200)
		for _, v := range vs {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}

	// same seed, same sequence when used from one goroutine
	a, b := NewSeededSource(3), NewSeededSource(3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}
