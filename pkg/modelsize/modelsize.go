// Package modelsize classifies a model identifier by the parameter
// count embedded in its name and maps that class to a default tool
// tier cap.
package modelsize

import (
	"regexp"
	"strconv"
)

// Class is a coarse size bucket derived from a model identifier.
type Class string

const (
	Small   Class = "small"
	Medium  Class = "medium"
	Large   Class = "large"
	Unknown Class = "unknown"
)

// Thresholds controls the boundaries (in billions of parameters) used
// to classify a model. The zero value is not usable; use DefaultThresholds.
type Thresholds struct {
	Small  int // k <= Small -> Class Small
	Medium int // Small < k <= Medium -> Class Medium; k > Medium -> Large
}

// DefaultThresholds matches spec.md's stated defaults (8b / 32b).
var DefaultThresholds = Thresholds{Small: 8, Medium: 32}

var sizeRe = regexp.MustCompile(`(\d+)[bB]`)

// Classify extracts a parameter count from modelID (matching \d+[bB])
// and buckets it against thresholds. A model identifier with no
// extractable digit run classifies as Unknown.
func Classify(modelID string, thresholds Thresholds) Class {
	m := sizeRe.FindStringSubmatch(modelID)
	if m == nil {
		return Unknown
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Unknown
	}
	switch {
	case n <= thresholds.Small:
		return Small
	case n <= thresholds.Medium:
		return Medium
	default:
		return Large
	}
}

// DefaultTierCap returns the maximum capability-server tier an agent
// configured with this size class will use, absent an explicit override.
func (c Class) DefaultTierCap() int {
	switch c {
	case Small:
		return 1
	case Medium:
		return 2
	case Large:
		return 3
	default: // Unknown
		return 1
	}
}
