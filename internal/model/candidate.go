package model

// Candidate is a single provider offer (room, flight, activity, table, ride).
// Fields not relevant to a domain stay empty. Optional numerics are pointers
// so "missing" differs from zero. The ranking core never mutates a Candidate.
type Candidate struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Provider string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Price    *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Currency string   `json:"currency,omitempty" yaml:"currency,omitempty"`
	Rating   *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	DeepLink string   `json:"deep_link,omitempty" yaml:"deep_link,omitempty"`

	// Location
	City          string `json:"city,omitempty" yaml:"city,omitempty"`
	Neighborhood  string `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
	Address       string `json:"address,omitempty" yaml:"address,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	CityCenter    bool   `json:"city_center,omitempty" yaml:"city_center,omitempty"`
	NearTransport bool   `json:"near_transport,omitempty" yaml:"near_transport,omitempty"`
	Quiet         bool   `json:"quiet,omitempty" yaml:"quiet,omitempty"`

	// Accommodation
	PropertyType string   `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	Amenities    []string `json:"amenities,omitempty" yaml:"amenities,omitempty"`
	MaxGuests    *int     `json:"max_guests,omitempty" yaml:"max_guests,omitempty"`
	Availability Window   `json:"availability,omitempty" yaml:"availability,omitempty"`

	// Flights
	Airline          string `json:"airline,omitempty" yaml:"airline,omitempty"`
	Stops            *int   `json:"stops,omitempty" yaml:"stops,omitempty"`
	Origin           string `json:"origin,omitempty" yaml:"origin,omitempty"`
	Destination      string `json:"destination,omitempty" yaml:"destination,omitempty"`
	DepartureAirport string `json:"departure_airport,omitempty" yaml:"departure_airport,omitempty"`
	ArrivalAirport   string `json:"arrival_airport,omitempty" yaml:"arrival_airport,omitempty"`
	DepartureDate    Date   `json:"departure_date,omitempty" yaml:"departure_date,omitempty"`
	ReturnDate       Date   `json:"return_date,omitempty" yaml:"return_date,omitempty"`
	CabinClass       string `json:"cabin_class,omitempty" yaml:"cabin_class,omitempty"`
	Seats            *int   `json:"seats,omitempty" yaml:"seats,omitempty"`

	// Dining
	Cuisines       []string `json:"cuisines,omitempty" yaml:"cuisines,omitempty"`
	DietaryOptions []string `json:"dietary_options,omitempty" yaml:"dietary_options,omitempty"`
	Atmosphere     string   `json:"atmosphere,omitempty" yaml:"atmosphere,omitempty"`
	MealType       string   `json:"meal_type,omitempty" yaml:"meal_type,omitempty"`

	// Activities
	Themes     []string `json:"themes,omitempty" yaml:"themes,omitempty"`
	Intensity  string   `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	GroupTypes []string `json:"group_types,omitempty" yaml:"group_types,omitempty"`

	// Local transport
	Mode           string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Comfort        string `json:"comfort,omitempty" yaml:"comfort,omitempty"`
	WalkingMinutes *int   `json:"walking_minutes,omitempty" yaml:"walking_minutes,omitempty"`

	// Extra keeps provider fields the model has no slot for
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Float returns a pointer to v; convenient for building candidates
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}
