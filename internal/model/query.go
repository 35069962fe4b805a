package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Domain is a provider vertical
type Domain string

const (
	DomainAccommodation Domain = "accommodation"
	DomainActivities    Domain = "activities"
	DomainDining        Domain = "dining"
	DomainFlights       Domain = "flights"
	DomainTransport     Domain = "transport"
)

// Domains lists every supported domain in display order
var Domains = []Domain{
	DomainAccommodation,
	DomainActivities,
	DomainDining,
	DomainFlights,
	DomainTransport,
}

// ParseDomain normalises a domain name. ok is false for unknown names.
func ParseDomain(s string) (Domain, bool) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Domains {
		if d == known {
			return d, true
		}
	}
	return d, false
}

// Key names a constraint. Each domain uses a fixed subset.
type Key string

// Hard and soft constraint vocabulary
const (
	KeyDestination       Key = "destination"
	KeyOrigin            Key = "origin"
	KeyLocation          Key = "location"
	KeyCity              Key = "city"
	KeyStayDates         Key = "stay_dates"
	KeyAvailableDates    Key = "available_dates"
	KeyTravelDates       Key = "travel_dates"
	KeyGuests            Key = "guests"
	KeyPassengers        Key = "passengers"
	KeyMaxPricePerNight  Key = "max_price_per_night"
	KeyMaxPriceActivity  Key = "max_price_per_activity"
	KeyMaxPrice          Key = "max_price"
	KeyMinRating         Key = "min_rating"
	KeyMealBudget        Key = "meal_budget"
	KeyDietary           Key = "dietary_restrictions"
	KeyAvoidAirlines     Key = "avoid_airlines"
	KeyMaxStops          Key = "max_stops"
	KeyAvoidModes        Key = "avoid_modes"
	KeyMaxWalkingMinutes Key = "max_walking_minutes"

	KeyPreferredPricePerNight Key = "preferred_price_per_night"
	KeyPreferredPrice         Key = "preferred_price"
	KeyPropertyTypes          Key = "property_types"
	KeyAmenities              Key = "amenities"
	KeyLocationPreference     Key = "location_preference"
	KeyPreferredRating        Key = "preferred_rating"
	KeyThemes                 Key = "themes"
	KeyIntensity              Key = "intensity"
	KeyGroupType              Key = "group_type"
	KeyCuisines               Key = "cuisines"
	KeyAtmosphere             Key = "atmosphere"
	KeyAirports               Key = "airports"
	KeyPreferredAirlines      Key = "preferred_airlines"
	KeyCabinClass             Key = "cabin_class"
	KeyPreferredModes         Key = "preferred_modes"
	KeyComfort                Key = "comfort"
)

// Value is the typed payload of a constraint. The set of implementations
// is closed; Other carries keys the evaluators do not know.
type Value interface {
	// Kind names the payload type for diagnostics and JSON
	Kind() string
	isValue()
}

// Text is a single string payload
type Text string

// Number is a monetary amount or rating
type Number float64

// Count is an integer quantity (guests, stops, minutes)
type Count int

// Set is an unordered list of labels
type Set []string

// Preference is a categorical preferred/avoid pair
type Preference struct {
	Preferred []string `json:"preferred,omitempty"`
	Avoid     []string `json:"avoid,omitempty"`
}

// Caps maps a label (meal type) to a ceiling amount
type Caps map[string]float64

// Other holds an unrecognised constraint value verbatim
type Other struct {
	Raw any `json:"raw"`
}

func (Text) Kind() string       { return "text" }
func (Number) Kind() string     { return "number" }
func (Count) Kind() string      { return "count" }
func (Set) Kind() string        { return "set" }
func (Preference) Kind() string { return "preference" }
func (Caps) Kind() string       { return "caps" }
func (Window) Kind() string     { return "window" }
func (Other) Kind() string      { return "other" }

func (Text) isValue()       {}
func (Number) isValue()     {}
func (Count) isValue()      {}
func (Set) isValue()        {}
func (Preference) isValue() {}
func (Caps) isValue()       {}
func (Window) isValue()     {}
func (Other) isValue()      {}

// Constraint is one keyed condition
type Constraint struct {
	Key   Key
	Value Value
}

// MarshalJSON renders {"key":..,"kind":..,"value":..}
func (c Constraint) MarshalJSON() ([]byte, error) {
	kind := ""
	if c.Value != nil {
		kind = c.Value.Kind()
	}
	return json.Marshal(struct {
		Key   Key    `json:"key"`
		Kind  string `json:"kind"`
		Value Value  `json:"value"`
	}{c.Key, kind, c.Value})
}

// UnmarshalJSON restores the typed value named by "kind". An unknown kind
// decodes as Other so evaluators can report it.
func (c *Constraint) UnmarshalJSON(b []byte) error {
	var raw struct {
		Key   Key             `json:"key"`
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var v Value
	var err error
	switch raw.Kind {
	case "text":
		v, err = decodeValue[Text](raw.Value)
	case "number":
		v, err = decodeValue[Number](raw.Value)
	case "count":
		v, err = decodeValue[Count](raw.Value)
	case "set":
		v, err = decodeValue[Set](raw.Value)
	case "preference":
		v, err = decodeValue[Preference](raw.Value)
	case "caps":
		v, err = decodeValue[Caps](raw.Value)
	case "window":
		v, err = decodeValue[Window](raw.Value)
	case "other":
		v, err = decodeValue[Other](raw.Value)
	default:
		var payload any
		if len(raw.Value) > 0 {
			err = json.Unmarshal(raw.Value, &payload)
		}
		v = Other{Raw: payload}
	}
	if err != nil {
		return fmt.Errorf("constraint %s: %w", raw.Key, err)
	}

	c.Key, c.Value = raw.Key, v
	return nil
}

func decodeValue[T Value](data json.RawMessage) (Value, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// String is used in logs and violation messages
func (c Constraint) String() string {
	return fmt.Sprintf("%s=%v", c.Key, c.Value)
}

// ConstraintSet is an ordered list of constraints with unique keys
type ConstraintSet []Constraint

// Get returns the value for key
func (s ConstraintSet) Get(key Key) (Value, bool) {
	for _, c := range s {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present
func (s ConstraintSet) Has(key Key) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns keys in insertion order
func (s ConstraintSet) Keys() []Key {
	keys := make([]Key, len(s))
	for i, c := range s {
		keys[i] = c.Key
	}
	return keys
}

// With returns a copy with key set to v, replacing an existing entry
func (s ConstraintSet) With(key Key, v Value) ConstraintSet {
	out := make(ConstraintSet, 0, len(s)+1)
	replaced := false
	for _, c := range s {
		if c.Key == key {
			out = append(out, Constraint{Key: key, Value: v})
			replaced = true
			continue
		}
		out = append(out, c)
	}
	if !replaced {
		out = append(out, Constraint{Key: key, Value: v})
	}
	return out
}

// Constraints splits hard (must-match) from soft (scored) conditions
type Constraints struct {
	Hard ConstraintSet `json:"hard"`
	Soft ConstraintSet `json:"soft"`
}

// ScoringRules are static per-domain factor tables. Weights need not sum to 1.
type ScoringRules struct {
	Weights   map[string]float64 `json:"weights"`
	Penalties map[string]float64 `json:"penalties"`
	Bonuses   map[string]float64 `json:"bonuses"`
}

// Weight returns the configured weight for factor, or def
func (r ScoringRules) Weight(factor string, def float64) float64 {
	if w, ok := r.Weights[factor]; ok {
		return w
	}
	return def
}

// ProviderQuery is the compiled request/evaluation spec for one domain.
// Treat it as immutable once built.
type ProviderQuery struct {
	Domain      Domain         `json:"domain"`
	Parameters  map[string]any `json:"parameters"`
	Constraints Constraints    `json:"constraints"`
	Filters     []string       `json:"filters"`
	Scoring     ScoringRules   `json:"scoring"`
	Currency    string         `json:"currency"`
}
