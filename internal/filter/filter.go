// Package filter enforces hard constraints on provider candidates.
package filter

import (
	"fmt"

	"github.com/ppiankov/wayfare/internal/model"
	"go.uber.org/zap"
)

// Evaluation is the outcome of checking every hard constraint of a query
// against one candidate
type Evaluation struct {
	Violations []string
	Satisfied  map[string]bool
	// Warnings name constraints that could not be checked and were let through
	Warnings []string
	// Unverified lists attributes the candidate did not report
	Unverified []string
}

// Passed reports whether the candidate has no violations
func (e Evaluation) Passed() bool {
	return len(e.Violations) == 0
}

// Filter evaluates hard constraints through per-domain predicate tables.
// It holds no per-request state and is safe for concurrent use.
type Filter struct {
	tables map[model.Domain]map[model.Key]predicate
	logger *zap.Logger
}

// NewFilter creates a filter with the built-in predicate tables
func NewFilter(logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{
		tables: map[model.Domain]map[model.Key]predicate{
			model.DomainAccommodation: {
				model.KeyDestination:      locationEquals(candidateCity),
				model.KeyStayDates:        stayContained,
				model.KeyGuests:           capacity,
				model.KeyMaxPricePerNight: priceCeiling,
				model.KeyMinRating:        ratingFloor,
			},
			model.DomainActivities: {
				model.KeyDestination:      locationEquals(candidateCity),
				model.KeyAvailableDates:   availableDuring,
				model.KeyMaxPriceActivity: priceCeiling,
			},
			model.DomainDining: {
				model.KeyLocation:   locationEquals(candidateCity),
				model.KeyMealBudget: mealCap,
				model.KeyDietary:    dietaryCompatible,
			},
			model.DomainFlights: {
				model.KeyOrigin:        locationEquals(candidateOrigin),
				model.KeyDestination:   locationEquals(candidateDestination),
				model.KeyTravelDates:   flightDates,
				model.KeyPassengers:    seats,
				model.KeyMaxPrice:      priceCeiling,
				model.KeyAvoidAirlines: excluded("airline", func(c model.Candidate) string { return c.Airline }),
				model.KeyMaxStops:      stopCeiling,
			},
			model.DomainTransport: {
				model.KeyCity:              locationEquals(candidateCity),
				model.KeyAvoidModes:        excluded("mode", func(c model.Candidate) string { return c.Mode }),
				model.KeyMaxWalkingMinutes: walkingCeiling,
			},
		},
		logger: logger,
	}
}

// Evaluate checks every hard constraint of q against c. Constraints the
// filter cannot check (unknown key, Other payload, wrong payload type) are
// treated as satisfied and reported in Warnings.
func (f *Filter) Evaluate(q *model.ProviderQuery, c model.Candidate) Evaluation {
	ev := Evaluation{Satisfied: make(map[string]bool, len(q.Constraints.Hard))}
	table := f.tables[q.Domain]

	for _, con := range q.Constraints.Hard {
		key := string(con.Key)

		pred, ok := table[con.Key]
		if !ok {
			f.failOpen(&ev, q.Domain, c, key, "unrecognised hard constraint")
			continue
		}
		if _, isOther := con.Value.(model.Other); isOther {
			f.failOpen(&ev, q.Domain, c, key, "untyped hard constraint")
			continue
		}

		v := pred(con.Value, c)
		switch v.outcome {
		case outcomePass:
			ev.Satisfied[key] = true
		case outcomeFail:
			ev.Satisfied[key] = false
			ev.Violations = append(ev.Violations, fmt.Sprintf("%s: %s", key, v.detail))
		case outcomeUnverified:
			ev.Satisfied[key] = true
			ev.Unverified = append(ev.Unverified, fmt.Sprintf("%s: %s", key, v.detail))
		case outcomeMismatch:
			f.failOpen(&ev, q.Domain, c, key, v.detail)
		}
	}

	return ev
}

// failOpen lets the candidate through on a constraint that cannot be checked.
// An unknown required condition passes; this keeps partial provider data
// usable but can admit a candidate that would have failed.
func (f *Filter) failOpen(ev *Evaluation, domain model.Domain, c model.Candidate, key, reason string) {
	ev.Satisfied[key] = true
	ev.Warnings = append(ev.Warnings, fmt.Sprintf("%s: %s, treated as satisfied", key, reason))
	f.logger.Warn("hard constraint treated as satisfied",
		zap.String("domain", string(domain)),
		zap.String("key", key),
		zap.String("candidate", c.ID),
		zap.String("reason", reason))
}

// Apply splits candidates into those passing every hard constraint and the
// number excluded. Evaluations are returned for survivors in input order.
func (f *Filter) Apply(q *model.ProviderQuery, candidates []model.Candidate) (kept []model.Candidate, evals []Evaluation, excluded int) {
	for _, c := range candidates {
		ev := f.Evaluate(q, c)
		if !ev.Passed() {
			excluded++
			f.logger.Debug("candidate excluded",
				zap.String("domain", string(q.Domain)),
				zap.String("candidate", c.ID),
				zap.Strings("violations", ev.Violations))
			continue
		}
		kept = append(kept, c)
		evals = append(evals, ev)
	}
	return kept, evals, excluded
}
