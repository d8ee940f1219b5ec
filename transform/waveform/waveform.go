// Package waveform holds the stateless signal functions used by transform programs.
// Every periodic function takes a phase whose integer part is discarded; phase 0 is the peak.
package waveform

import "math"

// Wrap discards the integer part of phase, always landing in [0, 1)
func Wrap(phase float64) float64 {
	return phase - math.Floor(phase)
}

// Cos is a cosine starting at its peak
func Cos(phase float64) float64 {
	return math.Cos(2 * math.Pi * Wrap(phase))
}

// Tri descends from 1 at phase 0 to -1 at phase 0.5 and back
func Tri(phase float64) float64 {
	p := Wrap(phase)
	if p <= 0.5 {
		return 1.0 - 4.0*p
	}
	return -3.0 + 4.0*p
}

// Saw descends linearly from 1 to -1 over one cycle
func Saw(phase float64) float64 {
	return 1.0 - 2.0*Wrap(phase)
}

// Square is 1 for the first pulseWidth of the cycle and -1 after
func Square(phase, pulseWidth float64) float64 {
	if Wrap(phase) < pulseWidth {
		return 1.0
	}
	return -1.0
}

// Ramp interpolates linearly from start to end, repeating speed times per phase cycle
func Ramp(phase, start, end, speed float64) float64 {
	t := Wrap(phase * speed)
	return start + (end-start)*t
}

// Curve interpolates from start to end along t^exponent
func Curve(phase, start, end, exponent float64) float64 {
	t := math.Pow(Wrap(phase), exponent)
	return start + (end-start)*t
}
