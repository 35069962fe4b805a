// Package rank re-orders scored results for variety.
package rank

import (
	"sort"
	"strings"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/util"
)

// Brand is a normalised brand token such as "holiday inn"
type Brand string

// BrandClassifier infers a brand from a display name
type BrandClassifier interface {
	ClassifyBrand(name string) (Brand, bool)
}

// TokenBrandClassifier finds brand tokens anywhere in a normalised name,
// so "Hiltonia Suites" reads as hilton. Longer tokens are tried first so a
// brand that contains a shorter one wins.
type TokenBrandClassifier struct {
	tokens []string
}

// NewTokenBrandClassifier creates a classifier for brands, falling back to
// the built-in list when brands is empty
func NewTokenBrandClassifier(brands []string) *TokenBrandClassifier {
	if len(brands) == 0 {
		brands = model.DefaultBrands
	}

	seen := make(map[string]bool, len(brands))
	tokens := make([]string, 0, len(brands))
	for _, b := range brands {
		n := util.NormalizeName(b)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		tokens = append(tokens, n)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return len(tokens[i]) > len(tokens[j])
	})

	return &TokenBrandClassifier{tokens: tokens}
}

// ClassifyBrand returns the first known brand found in name
func (c *TokenBrandClassifier) ClassifyBrand(name string) (Brand, bool) {
	normalized := util.NormalizeName(name)
	for _, tok := range c.tokens {
		if strings.Contains(normalized, tok) {
			return Brand(tok), true
		}
	}
	return "", false
}
