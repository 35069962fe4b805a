package model

// TripBrief is the structured description of a trip produced by the
// conversation layer. The ranking core only reads it.
type TripBrief struct {
	Destination Place       `json:"destination" yaml:"destination"`
	Origin      Place       `json:"origin,omitempty" yaml:"origin,omitempty"`
	Dates       Window      `json:"dates" yaml:"dates"`
	Travelers   Travelers   `json:"travelers" yaml:"travelers"`
	Budget      Budget      `json:"budget" yaml:"budget"`
	Preferences Preferences `json:"preferences" yaml:"preferences"`

	// Provenance records where a field came from ("confirmed", "inferred").
	// Keys are dotted field paths. Carried through, never interpreted.
	Provenance map[string]string `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// Place is a named location with optional coordinates
type Place struct {
	Name        string       `json:"name" yaml:"name"`
	Airports    []string     `json:"airports,omitempty" yaml:"airports,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
}

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Travelers counts the party
type Travelers struct {
	Adults   int `json:"adults" yaml:"adults"`
	Children int `json:"children,omitempty" yaml:"children,omitempty"`
}

// Total returns adults plus children
func (t Travelers) Total() int {
	return t.Adults + t.Children
}

// Budget holds money limits. Amounts are in Currency.
type Budget struct {
	Total    float64            `json:"total,omitempty" yaml:"total,omitempty"`
	Currency string             `json:"currency,omitempty" yaml:"currency,omitempty"`
	Domains  DomainBudget       `json:"domains,omitempty" yaml:"domains,omitempty"`
	MealCaps map[string]float64 `json:"meal_caps,omitempty" yaml:"meal_caps,omitempty"` // breakfast, lunch, dinner
}

// DomainBudget splits the budget per domain
type DomainBudget struct {
	MaxPricePerNight    float64 `json:"max_price_per_night,omitempty" yaml:"max_price_per_night,omitempty"`
	MaxPricePerActivity float64 `json:"max_price_per_activity,omitempty" yaml:"max_price_per_activity,omitempty"`
	MaxFlightPrice      float64 `json:"max_flight_price,omitempty" yaml:"max_flight_price,omitempty"`
}

// Preferences groups the per-domain preference blocks
type Preferences struct {
	Accommodation AccommodationPrefs `json:"accommodation,omitempty" yaml:"accommodation,omitempty"`
	Activities    ActivityPrefs      `json:"activities,omitempty" yaml:"activities,omitempty"`
	Dining        DiningPrefs        `json:"dining,omitempty" yaml:"dining,omitempty"`
	Flights       FlightPrefs        `json:"flights,omitempty" yaml:"flights,omitempty"`
	Transport     TransportPrefs     `json:"transport,omitempty" yaml:"transport,omitempty"`
}

// AccommodationPrefs is the lodging preference block
type AccommodationPrefs struct {
	PreferredPricePerNight float64  `json:"preferred_price_per_night,omitempty" yaml:"preferred_price_per_night,omitempty"`
	MinRating              float64  `json:"min_rating,omitempty" yaml:"min_rating,omitempty"`
	PreferredRating        float64  `json:"preferred_rating,omitempty" yaml:"preferred_rating,omitempty"`
	PropertyTypes          []string `json:"property_types,omitempty" yaml:"property_types,omitempty"`
	Amenities              []string `json:"amenities,omitempty" yaml:"amenities,omitempty"`
	Location               string   `json:"location,omitempty" yaml:"location,omitempty"` // city-center, near-transport, quiet
}

// ActivityPrefs is the activities preference block
type ActivityPrefs struct {
	PreferredPrice float64  `json:"preferred_price,omitempty" yaml:"preferred_price,omitempty"`
	Themes         []string `json:"themes,omitempty" yaml:"themes,omitempty"`
	Intensity      string   `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	GroupType      string   `json:"group_type,omitempty" yaml:"group_type,omitempty"`
}

// DiningPrefs is the dining preference block
type DiningPrefs struct {
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty" yaml:"dietary_restrictions,omitempty"`
	Cuisines            []string `json:"cuisines,omitempty" yaml:"cuisines,omitempty"`
	AvoidCuisines       []string `json:"avoid_cuisines,omitempty" yaml:"avoid_cuisines,omitempty"`
	Atmosphere          []string `json:"atmosphere,omitempty" yaml:"atmosphere,omitempty"`
}

// Stop tolerance values for flights
const (
	StopsDirectOnly = "direct-only"
	StopsOneStopOK  = "one-stop-ok"
	StopsAny        = "any"
)

// FlightPrefs is the flights preference block
type FlightPrefs struct {
	DepartureDate     Date     `json:"departure_date,omitempty" yaml:"departure_date,omitempty"`
	ReturnDate        Date     `json:"return_date,omitempty" yaml:"return_date,omitempty"`
	PreferredPrice    float64  `json:"preferred_price,omitempty" yaml:"preferred_price,omitempty"`
	AvoidAirlines     []string `json:"avoid_airlines,omitempty" yaml:"avoid_airlines,omitempty"`
	PreferredAirlines []string `json:"preferred_airlines,omitempty" yaml:"preferred_airlines,omitempty"`
	StopTolerance     string   `json:"stop_tolerance,omitempty" yaml:"stop_tolerance,omitempty"`
	CabinClass        string   `json:"cabin_class,omitempty" yaml:"cabin_class,omitempty"`
}

// TransportPrefs is the local transport preference block
type TransportPrefs struct {
	PreferredModes    []string `json:"preferred_modes,omitempty" yaml:"preferred_modes,omitempty"`
	AvoidModes        []string `json:"avoid_modes,omitempty" yaml:"avoid_modes,omitempty"`
	MaxWalkingMinutes int      `json:"max_walking_minutes,omitempty" yaml:"max_walking_minutes,omitempty"`
	Comfort           string   `json:"comfort,omitempty" yaml:"comfort,omitempty"`
}

// BudgetCurrency returns the brief currency, defaulting to USD
func (b TripBrief) BudgetCurrency() string {
	if b.Budget.Currency == "" {
		return "USD"
	}
	return b.Budget.Currency
}
