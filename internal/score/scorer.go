// Package score turns soft constraints into weighted, explainable scores.
package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/query"
	"go.uber.org/zap"
)

// DefaultWeight applies to factors without a configured weight
const DefaultWeight = 0.1

// Result is the soft-constraint evaluation of one candidate
type Result struct {
	Score        float64            // 0-100
	Breakdown    map[string]float64 // factor -> 0..1
	Satisfaction map[string]bool    // factor -> score > 0.5
	Reasoning    string
	Warnings     []string
}

// softEval computes one factor. ok is false on a payload it cannot read.
type softEval struct {
	factor string
	fn     func(v model.Value, c model.Candidate) (float64, bool)
}

// Engine scores candidates that already passed the hard filter.
// It is stateless per call and safe for concurrent use.
type Engine struct {
	tables   map[model.Domain]map[model.Key]softEval
	location LocationMatcher
	logger   *zap.Logger
}

// NewEngine creates an engine. A nil matcher selects the keyword matcher.
func NewEngine(logger *zap.Logger, location LocationMatcher) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = NewKeywordLocationMatcher()
	}
	e := &Engine{location: location, logger: logger}
	e.tables = e.buildTables()
	return e
}

// Score evaluates every soft constraint of q against c
func (e *Engine) Score(q *model.ProviderQuery, c model.Candidate) Result {
	res := Result{
		Breakdown:    make(map[string]float64, len(q.Constraints.Soft)),
		Satisfaction: make(map[string]bool, len(q.Constraints.Soft)),
	}
	table := e.tables[q.Domain]

	// factors in constraint order; reasoning ties fall back to this order
	var order []string
	total := 0.0

	for _, con := range q.Constraints.Soft {
		factor, value := e.evaluate(table, q.Domain, con, c, &res)
		if _, seen := res.Breakdown[factor]; seen {
			continue
		}
		order = append(order, factor)
		res.Breakdown[factor] = value
		res.Satisfaction[factor] = value > 0.5
		total += value * q.Scoring.Weight(factor, DefaultWeight)
	}

	res.Score = clamp(total*100, 0, 100)
	res.Reasoning = reasoning(order, res.Breakdown)
	return res
}

func (e *Engine) evaluate(table map[model.Key]softEval, domain model.Domain, con model.Constraint, c model.Candidate, res *Result) (string, float64) {
	ev, ok := table[con.Key]
	if !ok {
		e.logger.Warn("unrecognised soft constraint scored neutral",
			zap.String("domain", string(domain)),
			zap.String("key", string(con.Key)))
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unrecognised preference, scored neutral", con.Key))
		return string(con.Key), NeutralUnknown
	}

	v, ok := ev.fn(con.Value, c)
	if !ok {
		e.logger.Warn("soft constraint payload not understood",
			zap.String("domain", string(domain)),
			zap.String("key", string(con.Key)),
			zap.String("candidate", c.ID))
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: preference not understood, scored neutral", con.Key))
		return ev.factor, NeutralUnknown
	}
	return ev.factor, clamp(v, 0, 1)
}

func (e *Engine) buildTables() map[model.Domain]map[model.Key]softEval {
	price := softEval{query.FactorPrice, numberEval(func(n float64, c model.Candidate) float64 { return ScorePrice(c.Price, n) })}
	rating := softEval{query.FactorRating, numberEval(func(n float64, c model.Candidate) float64 { return ScoreRating(c.Rating, n) })}

	location := softEval{query.FactorLocation, textEval(func(pref string, c model.Candidate) float64 {
		return e.location.MatchesLocationPreference(c, pref)
	})}

	return map[model.Domain]map[model.Key]softEval{
		model.DomainAccommodation: {
			model.KeyPreferredPricePerNight: price,
			model.KeyPreferredRating:        rating,
			model.KeyPropertyTypes:          categoryEval(query.FactorPropertyType, 0.5, func(c model.Candidate) []string { return nonEmpty(c.PropertyType) }),
			model.KeyAmenities:              overlapEval(query.FactorAmenities, func(c model.Candidate) []string { return c.Amenities }),
			model.KeyLocationPreference:     location,
		},
		model.DomainActivities: {
			model.KeyPreferredPrice: price,
			model.KeyThemes:         overlapEval(query.FactorTheme, func(c model.Candidate) []string { return c.Themes }),
			model.KeyIntensity:      categoryEval(query.FactorIntensity, 0.5, func(c model.Candidate) []string { return nonEmpty(c.Intensity) }),
			model.KeyGroupType:      categoryEval(query.FactorGroup, 0.5, func(c model.Candidate) []string { return c.GroupTypes }),
		},
		model.DomainDining: {
			model.KeyCuisines:   categoryEval(query.FactorCuisine, 0.4, func(c model.Candidate) []string { return c.Cuisines }),
			model.KeyAtmosphere: categoryEval(query.FactorAtmosphere, 0.5, func(c model.Candidate) []string { return nonEmpty(c.Atmosphere) }),
		},
		model.DomainFlights: {
			model.KeyPreferredPrice:    price,
			model.KeyAirports:          {query.FactorAirports, setEval(scoreAirports)},
			model.KeyPreferredAirlines: categoryEval(query.FactorAirline, 0.5, func(c model.Candidate) []string { return nonEmpty(c.Airline) }),
			model.KeyCabinClass:        categoryEval(query.FactorCabin, 0.3, func(c model.Candidate) []string { return nonEmpty(c.CabinClass) }),
		},
		model.DomainTransport: {
			model.KeyPreferredModes: categoryEval(query.FactorMode, 0.4, func(c model.Candidate) []string { return nonEmpty(c.Mode) }),
			model.KeyComfort:        categoryEval(query.FactorComfort, 0.5, func(c model.Candidate) []string { return nonEmpty(c.Comfort) }),
		},
	}
}

// scoreAirports is the share of the candidate's airports in the preferred set
func scoreAirports(preferred []string, c model.Candidate) float64 {
	airports := nonEmpty(c.DepartureAirport, c.ArrivalAirport)
	if len(airports) == 0 {
		return NeutralUnknown
	}
	hits := 0
	for _, a := range airports {
		if matchesAny(a, preferred) {
			hits++
		}
	}
	return float64(hits) / float64(len(airports))
}

// Payload adapters

func numberEval(fn func(n float64, c model.Candidate) float64) func(model.Value, model.Candidate) (float64, bool) {
	return func(v model.Value, c model.Candidate) (float64, bool) {
		n, ok := v.(model.Number)
		if !ok {
			return 0, false
		}
		return fn(float64(n), c), true
	}
}

func textEval(fn func(s string, c model.Candidate) float64) func(model.Value, model.Candidate) (float64, bool) {
	return func(v model.Value, c model.Candidate) (float64, bool) {
		t, ok := v.(model.Text)
		if !ok {
			return 0, false
		}
		return fn(string(t), c), true
	}
}

func setEval(fn func(set []string, c model.Candidate) float64) func(model.Value, model.Candidate) (float64, bool) {
	return func(v model.Value, c model.Candidate) (float64, bool) {
		s, ok := v.(model.Set)
		if !ok {
			return 0, false
		}
		return fn([]string(s), c), true
	}
}

func overlapEval(factor string, field func(c model.Candidate) []string) softEval {
	return softEval{factor, setEval(func(set []string, c model.Candidate) float64 {
		return ScoreOverlap(field(c), set)
	})}
}

// categoryEval accepts a Preference, a Set (preferred only) or a Text
func categoryEval(factor string, neutral float64, field func(c model.Candidate) []string) softEval {
	return softEval{factor, func(v model.Value, c model.Candidate) (float64, bool) {
		var pref model.Preference
		switch p := v.(type) {
		case model.Preference:
			pref = p
		case model.Set:
			pref.Preferred = p
		case model.Text:
			pref.Preferred = []string{string(p)}
		default:
			return 0, false
		}
		return ScoreCategory(field(c), pref, neutral), true
	}}
}

// reasoning lists the three highest-scoring factors
func reasoning(order []string, breakdown map[string]float64) string {
	if len(order) == 0 {
		return "No preferences to score; ranked on hard constraints only"
	}
	top := append([]string(nil), order...)
	sort.SliceStable(top, func(i, j int) bool {
		return breakdown[top[i]] > breakdown[top[j]]
	})
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, len(top))
	for i, f := range top {
		parts[i] = fmt.Sprintf("%s %.0f%%", strings.ReplaceAll(f, "_", " "), breakdown[f]*100)
	}
	return "Top factors: " + strings.Join(parts, ", ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
