package music

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Scale intervals in semitones from the root
var scaleIntervals = map[string][]int{
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"minor":            {0, 2, 3, 5, 7, 8, 10},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"phrygian":         {0, 1, 3, 5, 7, 8, 10},
	"lydian":           {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"locrian":          {0, 1, 3, 5, 6, 8, 10},
	"harmonic minor":   {0, 2, 3, 5, 7, 8, 11},
	"melodic minor":    {0, 2, 3, 5, 7, 9, 11},
	"major pentatonic": {0, 2, 4, 7, 9},
	"minor pentatonic": {0, 3, 5, 7, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
	"chromatic":        {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

// ScaleMask builds a 12-bit pitch-class mask: bit i set means pitch class i (C = 0) is in the scale
func ScaleMask(root int, intervals []int) int {
	mask := 0
	for _, interval := range intervals {
		mask |= 1 << PitchClass(root+interval)
	}
	return mask
}

// ParseScale turns "D minor" or "F# major pentatonic" into a pitch-class mask
func ParseScale(name string) (int, error) {
	rootName, scaleName, ok := strings.Cut(strings.TrimSpace(name), " ")
	if !ok {
		return 0, fmt.Errorf("scale %q needs a root and a name", name)
	}
	root, err := parseRootNote(rootName)
	if err != nil || root != rootName {
		return 0, fmt.Errorf("invalid scale root %q", rootName)
	}
	intervals, ok := scaleIntervals[strings.ToLower(strings.TrimSpace(scaleName))]
	if !ok {
		return 0, fmt.Errorf("unknown scale %q", scaleName)
	}
	return ScaleMask(noteOffsets[root], intervals), nil
}

// InScale reports whether the pitch's class is set in mask
func InScale(pitch, mask int) bool {
	return mask&(1<<PitchClass(pitch)) != 0
}

// Quantize snaps pitch to the nearest in-scale pitch. Pitch classes are
// scanned from C upward and a tie keeps the first one found, so B between
// Bb and C resolves to C. An empty mask leaves the pitch unchanged.
func Quantize(pitch float64, mask int) float64 {
	mask &= 0xFFF
	if mask == 0 {
		return pitch
	}

	p := int(math.Round(pitch))
	pc := PitchClass(p)
	best, bestDistance := 0, 13
	for candidate := 0; candidate < 12; candidate++ {
		if mask&(1<<candidate) == 0 {
			continue
		}
		// signed circular distance in (-6, 6]
		d := ((candidate - pc) + 12) % 12
		if d > 6 {
			d -= 12
		}
		if abs(d) < bestDistance {
			best, bestDistance = d, abs(d)
		}
	}
	return float64(p + best)
}

// Step moves basePitch by offset scale degrees. The base is quantized first.
// Whole octaves are added directly so the walk never exceeds one octave.
func Step(basePitch, offset float64, mask int) float64 {
	mask &= 0xFFF
	if mask == 0 {
		return basePitch + offset
	}

	p := int(Quantize(basePitch, mask))
	degrees := float64(bits.OnesCount(uint(mask)))
	steps := math.Round(offset)
	rest := math.Mod(steps, degrees)
	octaves := (steps - rest) / degrees
	remainder := int(rest)

	direction := 1
	if remainder < 0 {
		direction = -1
		remainder = -remainder
	}
	for ; remainder > 0; remainder-- {
		p += direction
		for !InScale(p, mask) {
			p += direction
		}
	}
	return float64(p) + 12*octaves
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
