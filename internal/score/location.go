package score

import (
	"strings"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/util"
)

// LocationMatcher scores how well a candidate fits a free-text location
// preference, in [0,1]
type LocationMatcher interface {
	MatchesLocationPreference(c model.Candidate, pref string) float64
}

// locationRule maps one preference label to keywords and a miss score
type locationRule struct {
	flag     func(c model.Candidate) bool
	keywords []string
	miss     float64
}

// KeywordLocationMatcher matches preferences by explicit candidate flags or
// keywords found in the candidate's location text
type KeywordLocationMatcher struct {
	rules map[string]locationRule
}

// NewKeywordLocationMatcher creates the default keyword matcher
func NewKeywordLocationMatcher() *KeywordLocationMatcher {
	return &KeywordLocationMatcher{
		rules: map[string]locationRule{
			"city center": {
				flag:     func(c model.Candidate) bool { return c.CityCenter },
				keywords: []string{"city center", "city centre", "downtown", "central", "old town"},
				miss:     0.4,
			},
			"near transport": {
				flag:     func(c model.Candidate) bool { return c.NearTransport },
				keywords: []string{"metro", "subway", "station", "tram", "near transport", "transit"},
				miss:     0.5,
			},
			"quiet": {
				flag:     func(c model.Candidate) bool { return c.Quiet },
				keywords: []string{"quiet", "peaceful", "residential", "calm"},
				miss:     0.3,
			},
		},
	}
}

// MatchesLocationPreference returns 1 on a match, the rule's miss score
// otherwise, and NeutralUnknown for a preference it has no rule for
func (m *KeywordLocationMatcher) MatchesLocationPreference(c model.Candidate, pref string) float64 {
	rule, ok := m.rules[canonicalLocation(pref)]
	if !ok {
		return NeutralUnknown
	}
	if rule.flag(c) {
		return 1.0
	}

	text := util.NormalizeName(strings.Join([]string{c.Neighborhood, c.Address, c.Description, c.Name}, " "))
	for _, kw := range rule.keywords {
		if strings.Contains(text, kw) {
			return 1.0
		}
	}
	return rule.miss
}

func canonicalLocation(pref string) string {
	p := util.NormalizeName(pref)
	switch p {
	case "city centre", "center", "centre", "central", "downtown":
		return "city center"
	case "near metro", "near public transport", "transit", "transport":
		return "near transport"
	}
	return p
}
