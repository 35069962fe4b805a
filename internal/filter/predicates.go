package filter

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/util"
)

// outcome of a single hard predicate
type outcome int

const (
	outcomePass outcome = iota
	outcomeFail
	// outcomeUnverified means the candidate lacks the attribute; it passes
	// and the gap is reported as uncertainty
	outcomeUnverified
	// outcomeMismatch means the payload type is not what the predicate
	// expects; handled like an unknown key
	outcomeMismatch
)

// verdict is a predicate result plus a human-readable detail
type verdict struct {
	outcome outcome
	detail  string
}

func pass() verdict {
	return verdict{outcome: outcomePass}
}

func fail(format string, a ...any) verdict {
	return verdict{outcome: outcomeFail, detail: fmt.Sprintf(format, a...)}
}

func unverified(detail string) verdict {
	return verdict{outcome: outcomeUnverified, detail: detail}
}

func mismatch(v model.Value) verdict {
	kind := "nil"
	if v != nil {
		kind = v.Kind()
	}
	return verdict{outcome: outcomeMismatch, detail: "unexpected payload " + kind}
}

// predicate evaluates one hard constraint against a candidate
type predicate func(v model.Value, c model.Candidate) verdict

// Typed adapters: each unwraps one payload type and rejects the rest

func onText(fn func(want string, c model.Candidate) verdict) predicate {
	return func(v model.Value, c model.Candidate) verdict {
		t, ok := v.(model.Text)
		if !ok {
			return mismatch(v)
		}
		return fn(string(t), c)
	}
}

func onNumber(fn func(limit float64, c model.Candidate) verdict) predicate {
	return func(v model.Value, c model.Candidate) verdict {
		n, ok := v.(model.Number)
		if !ok {
			return mismatch(v)
		}
		return fn(float64(n), c)
	}
}

func onCount(fn func(limit int, c model.Candidate) verdict) predicate {
	return func(v model.Value, c model.Candidate) verdict {
		n, ok := v.(model.Count)
		if !ok {
			return mismatch(v)
		}
		return fn(int(n), c)
	}
}

func onSet(fn func(set []string, c model.Candidate) verdict) predicate {
	return func(v model.Value, c model.Candidate) verdict {
		s, ok := v.(model.Set)
		if !ok {
			return mismatch(v)
		}
		return fn([]string(s), c)
	}
}

func onWindow(fn func(w model.Window, c model.Candidate) verdict) predicate {
	return func(v model.Value, c model.Candidate) verdict {
		w, ok := v.(model.Window)
		if !ok {
			return mismatch(v)
		}
		return fn(w, c)
	}
}

func onCaps(fn func(caps model.Caps, c model.Candidate) verdict) predicate {
	return func(v model.Value, c model.Candidate) verdict {
		caps, ok := v.(model.Caps)
		if !ok {
			return mismatch(v)
		}
		return fn(caps, c)
	}
}

// Predicates

// locationEquals compares the wanted place with a candidate field
func locationEquals(field func(c model.Candidate) string) predicate {
	return onText(func(want string, c model.Candidate) verdict {
		got := field(c)
		if strings.TrimSpace(got) == "" {
			return unverified("location not reported")
		}
		if !util.SameName(want, got) {
			return fail("location %q does not match %q", got, want)
		}
		return pass()
	})
}

func candidateCity(c model.Candidate) string { return c.City }

func candidateOrigin(c model.Candidate) string { return c.Origin }

func candidateDestination(c model.Candidate) string {
	if c.Destination != "" {
		return c.Destination
	}
	return c.City
}

// stayContained requires the availability window to cover the stay
var stayContained = onWindow(func(stay model.Window, c model.Candidate) verdict {
	if c.Availability.IsZero() {
		return unverified("availability not reported")
	}
	if !c.Availability.Contains(stay) {
		return fail("available %s to %s, stay is %s to %s",
			c.Availability.From, c.Availability.To, stay.From, stay.To)
	}
	return pass()
})

// availableDuring requires the availability window to overlap the trip
var availableDuring = onWindow(func(trip model.Window, c model.Candidate) verdict {
	a := c.Availability
	if a.IsZero() {
		return unverified("availability not reported")
	}
	if !a.To.IsZero() && !trip.From.IsZero() && a.To.Before(trip.From.Time) {
		return fail("availability ends %s before the trip starts", a.To)
	}
	if !a.From.IsZero() && !trip.To.IsZero() && a.From.After(trip.To.Time) {
		return fail("availability starts %s after the trip ends", a.From)
	}
	return pass()
})

// flightDates requires departure (and return, when requested) to match
var flightDates = onWindow(func(want model.Window, c model.Candidate) verdict {
	if c.DepartureDate.IsZero() {
		return unverified("departure date not reported")
	}
	if !want.From.IsZero() && !c.DepartureDate.Equal(want.From.Time) {
		return fail("departs %s, requested %s", c.DepartureDate, want.From)
	}
	if !want.To.IsZero() && !c.ReturnDate.IsZero() && !c.ReturnDate.Equal(want.To.Time) {
		return fail("returns %s, requested %s", c.ReturnDate, want.To)
	}
	return pass()
})

var capacity = onCount(func(guests int, c model.Candidate) verdict {
	if c.MaxGuests == nil {
		return unverified("max guests not reported")
	}
	if *c.MaxGuests < guests {
		return fail("sleeps %d, party of %d", *c.MaxGuests, guests)
	}
	return pass()
})

var seats = onCount(func(passengers int, c model.Candidate) verdict {
	if c.Seats == nil {
		return unverified("seat availability not reported")
	}
	if *c.Seats < passengers {
		return fail("%d seats left, %d passengers", *c.Seats, passengers)
	}
	return pass()
})

// priceCeiling treats a missing price as a violation
var priceCeiling = onNumber(func(limit float64, c model.Candidate) verdict {
	if c.Price == nil {
		return fail("price not reported, ceiling %.2f", limit)
	}
	if *c.Price > limit {
		return fail("price %.2f exceeds %.2f", *c.Price, limit)
	}
	return pass()
})

// ratingFloor treats a missing rating as 0
var ratingFloor = onNumber(func(floor float64, c model.Candidate) verdict {
	rating := 0.0
	if c.Rating != nil {
		rating = *c.Rating
	}
	if rating < floor {
		return fail("rating %.1f below %.1f", rating, floor)
	}
	return pass()
})

// stopCeiling and walkingCeiling read a missing value as over the limit
var stopCeiling = onCount(func(limit int, c model.Candidate) verdict {
	if c.Stops == nil {
		return fail("stop count not reported, at most %d allowed", limit)
	}
	if *c.Stops > limit {
		return fail("%d stops, at most %d allowed", *c.Stops, limit)
	}
	return pass()
})

var walkingCeiling = onCount(func(limit int, c model.Candidate) verdict {
	if c.WalkingMinutes == nil {
		return fail("walking time not reported, at most %d minutes", limit)
	}
	if *c.WalkingMinutes > limit {
		return fail("%d walking minutes, at most %d", *c.WalkingMinutes, limit)
	}
	return pass()
})

// excluded rejects candidates whose field is in the exclusion set
func excluded(label string, field func(c model.Candidate) string) predicate {
	return onSet(func(set []string, c model.Candidate) verdict {
		got := field(c)
		if strings.TrimSpace(got) == "" {
			return unverified(label + " not reported")
		}
		if util.ContainsName(set, got) {
			return fail("%s %s is excluded", label, got)
		}
		return pass()
	})
}

// dietaryCompatible requires every restriction in the candidate options
var dietaryCompatible = onSet(func(required []string, c model.Candidate) verdict {
	var missing []string
	for _, r := range required {
		if !util.ContainsName(c.DietaryOptions, r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return fail("no %s option", strings.Join(missing, ", "))
	}
	return pass()
})

// mealCap compares price with the cap for the candidate's meal type, or the
// most generous cap when the meal type is unknown
var mealCap = onCaps(func(caps model.Caps, c model.Candidate) verdict {
	if len(caps) == 0 {
		return pass()
	}
	limit, ok := caps[strings.ToLower(strings.TrimSpace(c.MealType))]
	if !ok {
		for _, v := range caps {
			if v > limit {
				limit = v
			}
		}
	}
	if c.Price == nil {
		return fail("price not reported, meal cap %.2f", limit)
	}
	if *c.Price > limit {
		return fail("meal price %.2f exceeds cap %.2f", *c.Price, limit)
	}
	return pass()
})
