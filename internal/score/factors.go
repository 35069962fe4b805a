package score

import (
	"strings"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/util"
)

// Neutral defaults for factors that cannot be computed
const (
	NeutralPrice   = 0.5
	MissingRating  = 0.3
	NeutralUnknown = 0.5
)

// ScorePrice scores actual against preferred by ratio tiers.
// A missing side (nil or non-positive preferred) is neutral.
func ScorePrice(actual *float64, preferred float64) float64 {
	if actual == nil || preferred <= 0 {
		return NeutralPrice
	}
	ratio := *actual / preferred
	switch {
	case ratio <= 1.0:
		return 1.0
	case ratio <= 1.2:
		return 0.8
	case ratio <= 1.5:
		return 0.5
	default:
		return 0.2
	}
}

// ScoreRating loses 0.3 per rating point below preferred
func ScoreRating(actual *float64, preferred float64) float64 {
	if actual == nil {
		return MissingRating
	}
	if *actual >= preferred {
		return 1.0
	}
	s := 1 - 0.3*(preferred-*actual)
	if s < 0 {
		return 0
	}
	return s
}

// ScoreCategory checks candidate labels against a preferred/avoid pair.
// An avoid match wins over a preferred match; no match returns neutral.
func ScoreCategory(values []string, pref model.Preference, neutral float64) float64 {
	for _, v := range values {
		if matchesAny(v, pref.Avoid) {
			return 0
		}
	}
	for _, v := range values {
		if matchesAny(v, pref.Preferred) {
			return 1
		}
	}
	return neutral
}

// ScoreOverlap is the share of preferred labels the candidate carries
func ScoreOverlap(values, preferred []string) float64 {
	matches := 0
	for _, p := range preferred {
		for _, v := range values {
			if labelMatch(v, p) {
				matches++
				break
			}
		}
	}
	denom := len(preferred)
	if denom < 1 {
		denom = 1
	}
	return float64(matches) / float64(denom)
}

func matchesAny(value string, list []string) bool {
	for _, item := range list {
		if labelMatch(value, item) {
			return true
		}
	}
	return false
}

// labelMatch is exact or substring membership after normalisation,
// so "boutique hotel" matches "hotel"
func labelMatch(value, want string) bool {
	v, w := util.NormalizeName(value), util.NormalizeName(want)
	if v == "" || w == "" {
		return false
	}
	return v == w || strings.Contains(v, w) || strings.Contains(w, v)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
