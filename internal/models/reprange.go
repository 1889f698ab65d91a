package models

import (
	"fmt"
	"regexp"
	"strconv"
)

// RepRange is a parsed "min-max" target rep string.
type RepRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// String renders the range back to the canonical "min-max" form.
func (r RepRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

var repRangePattern = regexp.MustCompile(`(\d{1,2})\s*-\s*(\d{1,2})`)

// ParseRepRange parses a target-reps string. Unparseable input falls back to
// the 8-12 default; bounds are clamped to [1,30] and swapped if min > max.
func ParseRepRange(s string) RepRange {
	m := repRangePattern.FindStringSubmatch(s)
	if m == nil {
		return RepRange{Min: 8, Max: 12}
	}
	min, _ := strconv.Atoi(m[1])
	max, _ := strconv.Atoi(m[2])
	min = clampReps(min)
	max = clampReps(max)
	if min > max {
		min, max = max, min
	}
	return RepRange{Min: min, Max: max}
}

func clampReps(n int) int {
	if n < 1 {
		return 1
	}
	if n > 30 {
		return 30
	}
	return n
}

// ClassifySetType derives the training intent from a rep range: hypertrophy
// when the floor is 8+, strength when the ceiling is 7 or less, normal
// otherwise. Callers must skip sticky types (dropset, amrap).
func ClassifySetType(r RepRange) SetType {
	if r.Min >= 8 {
		return SetTypeHypertrophy
	}
	if r.Max <= 7 {
		return SetTypeStrength
	}
	return SetTypeNormal
}
