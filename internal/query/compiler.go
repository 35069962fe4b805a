// Package query compiles a trip brief into per-domain provider queries.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/wayfare/internal/model"
	"go.uber.org/zap"
)

// ErrUnknownDomain is returned for a domain name the compiler has no rules for.
// It is a caller bug, not a data problem, and aborts the request.
var ErrUnknownDomain = errors.New("unknown domain")

// domainCompiler reads the brief fields relevant to one domain
type domainCompiler func(b model.TripBrief) (params map[string]any, c model.Constraints)

// Compiler builds ProviderQuery values. It holds no per-request state and is
// safe for concurrent use.
type Compiler struct {
	compilers map[model.Domain]domainCompiler
	logger    *zap.Logger
}

// NewCompiler creates a compiler with the built-in domain rules
func NewCompiler(logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		compilers: map[model.Domain]domainCompiler{
			model.DomainAccommodation: compileAccommodation,
			model.DomainActivities:    compileActivities,
			model.DomainDining:        compileDining,
			model.DomainFlights:       compileFlights,
			model.DomainTransport:     compileTransport,
		},
		logger: logger,
	}
}

// Compile produces a fresh ProviderQuery for domain from the brief snapshot
func (c *Compiler) Compile(brief model.TripBrief, domain model.Domain) (*model.ProviderQuery, error) {
	compile, ok := c.compilers[domain]
	if !ok {
		return nil, fmt.Errorf("compile %q: %w", domain, ErrUnknownDomain)
	}

	params, constraints := compile(brief)
	params["currency"] = brief.BudgetCurrency()

	q := &model.ProviderQuery{
		Domain:      domain,
		Parameters:  params,
		Constraints: constraints,
		Filters:     append([]string(nil), filterLabels[domain]...),
		Scoring:     scoringRules(domain),
		Currency:    brief.BudgetCurrency(),
	}

	c.logger.Debug("compiled provider query",
		zap.String("domain", string(domain)),
		zap.Int("hard", len(constraints.Hard)),
		zap.Int("soft", len(constraints.Soft)))

	return q, nil
}

// constraintBuilder appends only the constraints whose source fields are set
type constraintBuilder struct {
	set model.ConstraintSet
}

func (b *constraintBuilder) text(key model.Key, v string) {
	if v = strings.TrimSpace(v); v != "" {
		b.set = append(b.set, model.Constraint{Key: key, Value: model.Text(v)})
	}
}

func (b *constraintBuilder) number(key model.Key, v float64) {
	if v > 0 {
		b.set = append(b.set, model.Constraint{Key: key, Value: model.Number(v)})
	}
}

func (b *constraintBuilder) count(key model.Key, v int) {
	if v > 0 {
		b.set = append(b.set, model.Constraint{Key: key, Value: model.Count(v)})
	}
}

func (b *constraintBuilder) list(key model.Key, v []string) {
	clean := cleanList(v)
	if len(clean) > 0 {
		b.set = append(b.set, model.Constraint{Key: key, Value: model.Set(clean)})
	}
}

func (b *constraintBuilder) window(key model.Key, w model.Window) {
	if !w.From.IsZero() && !w.To.IsZero() {
		b.set = append(b.set, model.Constraint{Key: key, Value: w})
	}
}

func (b *constraintBuilder) add(key model.Key, v model.Value) {
	b.set = append(b.set, model.Constraint{Key: key, Value: v})
}

func compileAccommodation(b model.TripBrief) (map[string]any, model.Constraints) {
	prefs := b.Preferences.Accommodation
	maxNight := b.Budget.Domains.MaxPricePerNight

	var hard, soft constraintBuilder
	hard.text(model.KeyDestination, b.Destination.Name)
	hard.window(model.KeyStayDates, b.Dates)
	hard.count(model.KeyGuests, b.Travelers.Total())
	hard.number(model.KeyMaxPricePerNight, maxNight)
	hard.number(model.KeyMinRating, prefs.MinRating)

	soft.number(model.KeyPreferredPricePerNight, firstPositive(prefs.PreferredPricePerNight, maxNight))
	soft.list(model.KeyPropertyTypes, prefs.PropertyTypes)
	soft.list(model.KeyAmenities, prefs.Amenities)
	soft.text(model.KeyLocationPreference, prefs.Location)
	soft.number(model.KeyPreferredRating, firstPositive(prefs.PreferredRating, prefs.MinRating))

	params := map[string]any{
		"destination": b.Destination.Name,
		"check_in":    b.Dates.From.String(),
		"check_out":   b.Dates.To.String(),
		"nights":      b.Dates.Nights(),
		"guests":      b.Travelers.Total(),
		"adults":      b.Travelers.Adults,
		"children":    b.Travelers.Children,
	}
	if maxNight > 0 {
		params["max_price_per_night"] = maxNight
	}
	if c := b.Destination.Coordinates; c != nil {
		params["lat"] = c.Lat
		params["lon"] = c.Lon
	}
	if len(prefs.PropertyTypes) > 0 {
		params["property_types"] = cleanList(prefs.PropertyTypes)
	}

	return params, model.Constraints{Hard: hard.set, Soft: soft.set}
}

func compileActivities(b model.TripBrief) (map[string]any, model.Constraints) {
	prefs := b.Preferences.Activities
	maxPrice := b.Budget.Domains.MaxPricePerActivity

	var hard, soft constraintBuilder
	hard.text(model.KeyDestination, b.Destination.Name)
	hard.window(model.KeyAvailableDates, b.Dates)
	hard.number(model.KeyMaxPriceActivity, maxPrice)

	soft.number(model.KeyPreferredPrice, firstPositive(prefs.PreferredPrice, maxPrice))
	soft.list(model.KeyThemes, prefs.Themes)
	soft.text(model.KeyIntensity, prefs.Intensity)
	soft.text(model.KeyGroupType, prefs.GroupType)

	params := map[string]any{
		"destination":  b.Destination.Name,
		"start_date":   b.Dates.From.String(),
		"end_date":     b.Dates.To.String(),
		"participants": b.Travelers.Total(),
	}
	if len(prefs.Themes) > 0 {
		params["categories"] = cleanList(prefs.Themes)
	}

	return params, model.Constraints{Hard: hard.set, Soft: soft.set}
}

func compileDining(b model.TripBrief) (map[string]any, model.Constraints) {
	prefs := b.Preferences.Dining

	var hard, soft constraintBuilder
	hard.text(model.KeyLocation, b.Destination.Name)
	if caps := positiveCaps(b.Budget.MealCaps); len(caps) > 0 {
		hard.add(model.KeyMealBudget, caps)
	}
	hard.list(model.KeyDietary, prefs.DietaryRestrictions)

	preferred, avoid := cleanList(prefs.Cuisines), cleanList(prefs.AvoidCuisines)
	if len(preferred) > 0 || len(avoid) > 0 {
		soft.add(model.KeyCuisines, model.Preference{Preferred: preferred, Avoid: avoid})
	}
	soft.list(model.KeyAtmosphere, prefs.Atmosphere)

	params := map[string]any{
		"location":   b.Destination.Name,
		"party_size": b.Travelers.Total(),
	}
	if len(prefs.DietaryRestrictions) > 0 {
		params["dietary"] = cleanList(prefs.DietaryRestrictions)
	}

	return params, model.Constraints{Hard: hard.set, Soft: soft.set}
}

func compileFlights(b model.TripBrief) (map[string]any, model.Constraints) {
	prefs := b.Preferences.Flights
	maxPrice := b.Budget.Domains.MaxFlightPrice

	dates := model.Window{From: prefs.DepartureDate, To: prefs.ReturnDate}
	if dates.From.IsZero() {
		dates.From = b.Dates.From
	}
	if dates.To.IsZero() {
		dates.To = b.Dates.To
	}

	var hard, soft constraintBuilder
	hard.text(model.KeyOrigin, b.Origin.Name)
	hard.text(model.KeyDestination, b.Destination.Name)
	if !dates.From.IsZero() {
		// one-way trips leave the return side open
		hard.add(model.KeyTravelDates, dates)
	}
	hard.count(model.KeyPassengers, b.Travelers.Total())
	hard.number(model.KeyMaxPrice, maxPrice)
	hard.list(model.KeyAvoidAirlines, prefs.AvoidAirlines)
	if stops, ok := MaxStops(prefs.StopTolerance); ok {
		// direct-only compiles to zero, which count() would drop
		hard.add(model.KeyMaxStops, model.Count(stops))
	}

	soft.number(model.KeyPreferredPrice, firstPositive(prefs.PreferredPrice, maxPrice))
	soft.list(model.KeyAirports, append(append([]string(nil), b.Origin.Airports...), b.Destination.Airports...))
	soft.list(model.KeyPreferredAirlines, prefs.PreferredAirlines)
	soft.text(model.KeyCabinClass, prefs.CabinClass)

	params := map[string]any{
		"origin":         b.Origin.Name,
		"destination":    b.Destination.Name,
		"departure_date": dates.From.String(),
		"return_date":    dates.To.String(),
		"passengers":     b.Travelers.Total(),
		"adults":         b.Travelers.Adults,
		"children":       b.Travelers.Children,
	}
	if prefs.CabinClass != "" {
		params["cabin_class"] = prefs.CabinClass
	}
	if len(prefs.AvoidAirlines) > 0 {
		params["exclude_airlines"] = cleanList(prefs.AvoidAirlines)
	}

	return params, model.Constraints{Hard: hard.set, Soft: soft.set}
}

func compileTransport(b model.TripBrief) (map[string]any, model.Constraints) {
	prefs := b.Preferences.Transport

	var hard, soft constraintBuilder
	hard.text(model.KeyCity, b.Destination.Name)
	hard.list(model.KeyAvoidModes, prefs.AvoidModes)
	hard.count(model.KeyMaxWalkingMinutes, prefs.MaxWalkingMinutes)

	soft.list(model.KeyPreferredModes, prefs.PreferredModes)
	soft.text(model.KeyComfort, prefs.Comfort)

	params := map[string]any{
		"city":       b.Destination.Name,
		"passengers": b.Travelers.Total(),
	}
	if len(prefs.PreferredModes) > 0 {
		params["modes"] = cleanList(prefs.PreferredModes)
	}

	return params, model.Constraints{Hard: hard.set, Soft: soft.set}
}

// MaxStops maps a stop-tolerance label to a stop ceiling.
// Unknown or permissive labels yield ok=false (no constraint).
func MaxStops(tolerance string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(tolerance)) {
	case model.StopsDirectOnly:
		return 0, true
	case model.StopsOneStopOK:
		return 1, true
	default:
		return 0, false
	}
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func cleanList(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func positiveCaps(in map[string]float64) model.Caps {
	out := make(model.Caps, len(in))
	for meal, amount := range in {
		if amount > 0 {
			out[strings.ToLower(strings.TrimSpace(meal))] = amount
		}
	}
	return out
}
