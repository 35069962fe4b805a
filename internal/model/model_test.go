package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-15"`), &d))
	assert.Equal(t, "2026-03-15", d.String())

	require.NoError(t, json.Unmarshal([]byte(`"2026-03-15T22:30:00Z"`), &d))
	assert.Equal(t, "2026-03-15", d.String(), "timestamps truncate to the day")

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"15/03/2026"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20260315`), &d))

	out, err := json.Marshal(NewDate(2026, 3, 15))
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-03-15"`, string(out))
}

func TestWindow_Contains(t *testing.T) {
	trip := Window{From: MustDate("2026-03-15"), To: MustDate("2026-03-20")}

	assert.True(t, trip.Contains(Window{From: MustDate("2026-03-15"), To: MustDate("2026-03-20")}))
	assert.True(t, trip.Contains(Window{From: MustDate("2026-03-16"), To: MustDate("2026-03-18")}))
	assert.False(t, trip.Contains(Window{From: MustDate("2026-03-14"), To: MustDate("2026-03-18")}))
	assert.False(t, trip.Contains(Window{From: MustDate("2026-03-16"), To: MustDate("2026-03-21")}))
	assert.True(t, Window{From: MustDate("2026-03-15")}.Contains(Window{To: MustDate("2027-01-01")}), "open end is unbounded")

	assert.Equal(t, 5, trip.Nights())
	assert.Zero(t, Window{From: MustDate("2026-03-15")}.Nights())
}

func TestParseDomain(t *testing.T) {
	d, ok := ParseDomain(" Flights ")
	assert.True(t, ok)
	assert.Equal(t, DomainFlights, d)

	_, ok = ParseDomain("cruises")
	assert.False(t, ok)
}

func TestConstraintSet_With(t *testing.T) {
	s := ConstraintSet{
		{Key: KeyDestination, Value: Text("Paris")},
		{Key: KeyGuests, Value: Count(2)},
	}

	replaced := s.With(KeyGuests, Count(3))
	v, ok := replaced.Get(KeyGuests)
	require.True(t, ok)
	assert.Equal(t, Count(3), v)
	assert.Equal(t, []Key{KeyDestination, KeyGuests}, replaced.Keys())

	orig, _ := s.Get(KeyGuests)
	assert.Equal(t, Count(2), orig, "With must not mutate the receiver")

	added := s.With(KeyMinRating, Number(4))
	assert.Equal(t, []Key{KeyDestination, KeyGuests, KeyMinRating}, added.Keys())
	assert.False(t, s.Has(KeyMinRating))
}

func TestConstraint_JSONRoundTrip(t *testing.T) {
	in := Constraints{
		Hard: ConstraintSet{
			{Key: KeyDestination, Value: Text("Paris")},
			{Key: KeyMaxPricePerNight, Value: Number(200)},
			{Key: KeyGuests, Value: Count(2)},
			{Key: KeyAvoidAirlines, Value: Set{"RyanAir"}},
			{Key: KeyMealBudget, Value: Caps{"dinner": 60}},
			{Key: KeyStayDates, Value: Window{From: MustDate("2026-03-15"), To: MustDate("2026-03-20")}},
		},
		Soft: ConstraintSet{
			{Key: KeyCuisines, Value: Preference{Preferred: []string{"french"}, Avoid: []string{"fast food"}}},
		},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"key":"guests","kind":"count","value":2}`)

	var out Constraints
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestConstraint_UnknownKind(t *testing.T) {
	var c Constraint
	require.NoError(t, json.Unmarshal([]byte(`{"key":"pet_friendly","kind":"flag","value":true}`), &c))
	assert.Equal(t, Key("pet_friendly"), c.Key)
	assert.Equal(t, Other{Raw: true}, c.Value)

	err := json.Unmarshal([]byte(`{"key":"guests","kind":"count","value":"two"}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint guests")
}

func TestReadCandidates(t *testing.T) {
	dir := t.TempDir()

	list := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(list, []byte(`[{"id":"a","name":"Hotel A","price":120}]`), 0o644))
	got, err := ReadCandidates(list)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hotel A", got[0].Name)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 120.0, *got[0].Price)

	wrapped := filepath.Join(dir, "wrapped.yaml")
	require.NoError(t, os.WriteFile(wrapped, []byte("candidates:\n  - id: b\n    name: Hotel B\n  - id: c\n    name: Hotel C\n"), 0o644))
	got, err = ReadCandidates(wrapped)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ReadCandidates(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestReadBrief_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.yaml")
	body := `destination:
  name: Paris
dates:
  from: 2026-03-15
  to: 2026-03-20
travelers:
  adults: 2
  children: 1
budget:
  currency: EUR
  domains:
    max_price_per_night: 200
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	b, err := ReadBrief(path)
	require.NoError(t, err)
	assert.Equal(t, "Paris", b.Destination.Name)
	assert.Equal(t, "2026-03-15", b.Dates.From.String())
	assert.Equal(t, 3, b.Travelers.Total())
	assert.Equal(t, 200.0, b.Budget.Domains.MaxPricePerNight)
	assert.Equal(t, "EUR", b.BudgetCurrency())
}
