// Package validate checks briefs and API requests with struct tags.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/wayfare/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s by its `validate` tags and returns one readable error
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		msgs := Messages(err)
		if len(msgs) == 0 {
			return err
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}

// Messages turns validator errors into readable messages
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, formatFieldError(e))
	}
	return out
}

func formatFieldError(e validator.FieldError) string {
	field := fieldName(e)

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is not set", field, strings.ToLower(e.Param()))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gtefield", "gtfield":
		return fmt.Sprintf("%s must not be before %s", field, strings.ToLower(e.Param()))
	case "iso4217":
		return fmt.Sprintf("%s must be an ISO 4217 currency code", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldName turns "DepartureDate" into "departure date"
func fieldName(e validator.FieldError) string {
	name := e.Field()
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// briefView is the slice of a brief every domain needs
type briefView struct {
	Destination string    `validate:"required"`
	Start       time.Time `validate:"required"`
	End         time.Time `validate:"required,gtefield=Start"`
	Travelers   int       `validate:"gte=1"`
	Currency    string    `validate:"omitempty,iso4217"`
}

type accommodationView struct {
	Budget float64 `validate:"gt=0"`
}

type flightsView struct {
	Origin        string    `validate:"required"`
	DepartureDate time.Time `validate:"required"`
}

// Completeness lists what the brief is missing for domain, as messages the
// conversation layer can show. It never fails; an empty list means complete.
func Completeness(brief model.TripBrief, domain model.Domain) []string {
	var out []string

	out = append(out, check(briefView{
		Destination: strings.TrimSpace(brief.Destination.Name),
		Start:       brief.Dates.From.Time,
		End:         brief.Dates.To.Time,
		Travelers:   brief.Travelers.Total(),
		Currency:    brief.Budget.Currency,
	})...)

	switch domain {
	case model.DomainAccommodation:
		budget := brief.Budget.Domains.MaxPricePerNight
		if budget <= 0 {
			budget = brief.Budget.Total
		}
		out = append(out, check(accommodationView{Budget: budget})...)
	case model.DomainFlights:
		departure := brief.Preferences.Flights.DepartureDate.Time
		if departure.IsZero() {
			departure = brief.Dates.From.Time
		}
		out = append(out, check(flightsView{
			Origin:        strings.TrimSpace(brief.Origin.Name),
			DepartureDate: departure,
		})...)
	}

	return out
}

func check(v any) []string {
	if err := validate.Struct(v); err != nil {
		return Messages(err)
	}
	return nil
}
