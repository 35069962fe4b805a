package query

import "github.com/ppiankov/wayfare/internal/model"

// Factor names shared by the compiler (weights) and the scoring engine
const (
	FactorPrice        = "price"
	FactorRating       = "rating"
	FactorLocation     = "location"
	FactorAmenities    = "amenities"
	FactorPolicies     = "policies"
	FactorPropertyType = "property_type"
	FactorTheme        = "theme_match"
	FactorIntensity    = "intensity"
	FactorGroup        = "group_fit"
	FactorCuisine      = "cuisine"
	FactorAtmosphere   = "atmosphere"
	FactorAirports     = "airports"
	FactorAirline      = "airline"
	FactorCabin        = "cabin_class"
	FactorMode         = "mode"
	FactorComfort      = "comfort"
)

// scoringRules returns a fresh copy of the static table for domain so
// callers can never alter the shared definition
func scoringRules(domain model.Domain) model.ScoringRules {
	src, ok := staticRules[domain]
	if !ok {
		return model.ScoringRules{}
	}
	return model.ScoringRules{
		Weights:   copyMap(src.Weights),
		Penalties: copyMap(src.Penalties),
		Bonuses:   copyMap(src.Bonuses),
	}
}

var staticRules = map[model.Domain]model.ScoringRules{
	model.DomainAccommodation: {
		Weights: map[string]float64{
			FactorPrice:     0.30,
			FactorRating:    0.25,
			FactorLocation:  0.25,
			FactorAmenities: 0.15,
			FactorPolicies:  0.05,
		},
		Penalties: map[string]float64{
			"hidden_fees":       0.20,
			"poor_reviews":      0.30,
			"strict_cancel":     0.10,
			"far_from_interest": 0.15,
		},
		Bonuses: map[string]float64{
			"free_cancellation":  0.10,
			"breakfast_included": 0.05,
			"loyalty_program":    0.05,
		},
	},
	model.DomainActivities: {
		Weights: map[string]float64{
			FactorTheme:     0.35,
			FactorPrice:     0.25,
			FactorRating:    0.20,
			FactorIntensity: 0.10,
			FactorGroup:     0.10,
		},
		Penalties: map[string]float64{
			"weather_dependent": 0.10,
			"long_transfer":     0.15,
		},
		Bonuses: map[string]float64{
			"skip_the_line": 0.10,
			"small_group":   0.05,
		},
	},
	model.DomainDining: {
		Weights: map[string]float64{
			FactorCuisine:    0.35,
			FactorPrice:      0.25,
			FactorRating:     0.20,
			FactorAtmosphere: 0.10,
			FactorLocation:   0.10,
		},
		Penalties: map[string]float64{
			"long_wait":     0.10,
			"no_dietary_ui": 0.20,
		},
		Bonuses: map[string]float64{
			"local_favorite": 0.10,
			"reservable":     0.05,
		},
	},
	model.DomainFlights: {
		Weights: map[string]float64{
			FactorPrice:    0.40,
			"duration":     0.20,
			"stops":        0.20,
			FactorAirline:  0.10,
			"departure":    0.10,
			FactorCabin:    0.10,
			FactorAirports: 0.05,
		},
		Penalties: map[string]float64{
			"red_eye":        0.15,
			"short_layover":  0.20,
			"airport_change": 0.25,
			"basic_economy":  0.10,
		},
		Bonuses: map[string]float64{
			"checked_bag_included": 0.05,
			"flexible_ticket":      0.10,
		},
	},
	model.DomainTransport: {
		Weights: map[string]float64{
			FactorPrice:   0.30,
			FactorComfort: 0.20,
			"duration":    0.30,
			"reliability": 0.20,
			FactorMode:    0.15,
		},
		Penalties: map[string]float64{
			"many_transfers": 0.15,
			"night_service":  0.05,
		},
		Bonuses: map[string]float64{
			"accessible": 0.05,
			"pass_valid": 0.10,
		},
	},
}

// filterLabels are shown to the user next to results; they drive no logic
var filterLabels = map[model.Domain][]string{
	model.DomainAccommodation: {"price_range", "star_rating", "property_type", "amenities", "neighborhood", "free_cancellation"},
	model.DomainActivities:    {"category", "price_range", "duration", "time_of_day", "group_size"},
	model.DomainDining:        {"cuisine", "price_range", "dietary", "atmosphere", "open_now"},
	model.DomainFlights:       {"stops", "airlines", "departure_time", "duration", "cabin_class"},
	model.DomainTransport:     {"mode", "duration", "price", "accessibility"},
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
