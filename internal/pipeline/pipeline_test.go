package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parisBrief() model.TripBrief {
	return model.TripBrief{
		Destination: model.Place{Name: "Paris", Airports: []string{"CDG", "ORY"}},
		Origin:      model.Place{Name: "London", Airports: []string{"LHR"}},
		Dates:       model.Window{From: model.MustDate("2026-06-01"), To: model.MustDate("2026-06-05")},
		Travelers:   model.Travelers{Adults: 2},
		Budget: model.Budget{
			Currency: "EUR",
			Domains:  model.DomainBudget{MaxPricePerNight: 200},
		},
		Preferences: model.Preferences{
			Accommodation: model.AccommodationPrefs{PreferredRating: 4.5, Location: "city-center"},
			Flights:       model.FlightPrefs{AvoidAirlines: []string{"Ryanair"}},
		},
	}
}

func parisHotels() []model.Candidate {
	return []model.Candidate{
		{ID: "A", Name: "Hotel Lumière", City: "Paris", Price: model.Float(180), Currency: "EUR", Rating: model.Float(4.5), CityCenter: true, DeepLink: "https://example.com/a"},
		{ID: "B", Name: "Grand Palais Suites", City: "Paris", Price: model.Float(250), Currency: "EUR", Rating: model.Float(4.9)},
		{ID: "C", Name: "Canal Rooms", City: "Paris", Price: model.Float(150), Currency: "EUR", Rating: model.Float(3.0)},
	}
}

func freshNormalizer(t *testing.T, ts time.Time) *currency.Normalizer {
	t.Helper()
	snap, err := currency.NewSnapshot(ts, "test", model.DefaultRates)
	require.NoError(t, err)
	return currency.NewNormalizer(snap, time.Hour, nil)
}

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	return NewFromConfig(model.DefaultConfig(), freshNormalizer(t, time.Now()), opts)
}

func TestRank_ParisAccommodation(t *testing.T) {
	p := newPipeline(t, Options{})

	ranking, err := p.Rank(context.Background(), parisBrief(), model.DomainAccommodation, parisHotels())
	require.NoError(t, err)

	require.Len(t, ranking.Results, 2)
	assert.Equal(t, 1, ranking.Excluded)
	assert.Equal(t, "A", ranking.Results[0].ID)
	assert.Equal(t, "C", ranking.Results[1].ID)
	assert.InDelta(t, 80.0, ranking.Results[0].Score, 1e-9)
	assert.Empty(t, ranking.Missing)

	a := ranking.Results[0]
	assert.NotNil(t, a.ConstraintViolations)
	assert.Empty(t, a.ConstraintViolations)
	assert.True(t, a.ConstraintSatisfaction[string(model.KeyMaxPricePerNight)])
	assert.True(t, a.ConstraintSatisfaction[query.FactorLocation])
	assert.Equal(t, "https://example.com/a", a.DeepLink)
	assert.Equal(t, "EUR", a.Currency)
	assert.Equal(t, a.Score, a.RawScore)

	c := ranking.Results[1]
	assert.False(t, c.ConstraintSatisfaction[query.FactorLocation])
	assert.Less(t, c.Score, a.Score)
}

func TestRank_ConvertsPricesIntoBriefCurrency(t *testing.T) {
	p := newPipeline(t, Options{})
	candidates := []model.Candidate{
		{ID: "usd", City: "Paris", Price: model.Float(210), Currency: "USD"}, // 193.2 EUR
		{ID: "gbp", City: "Paris", Price: model.Float(200), Currency: "GBP"}, // 232 EUR
		{ID: "thb", City: "Paris", Price: model.Float(150), Currency: "THB"},
	}

	ranking, err := p.Rank(context.Background(), parisBrief(), model.DomainAccommodation, candidates)
	require.NoError(t, err)

	byID := make(map[string]model.ScoredResult)
	for _, r := range ranking.Results {
		byID[r.ID] = r
	}
	require.Len(t, byID, 2)
	assert.Equal(t, 1, ranking.Excluded, "GBP price exceeds the nightly cap once converted")

	usd := byID["usd"]
	require.NotNil(t, usd.Price)
	assert.InDelta(t, 193.2, *usd.Price, 1e-9)
	assert.Equal(t, "EUR", usd.Currency)

	thb := byID["thb"]
	assert.Equal(t, "THB", thb.Currency)
	assert.Contains(t, thb.Uncertainty, "price: no THB to EUR rate, amount left in THB")
	assert.Empty(t, ranking.Warnings)

	// the input slice is untouched
	assert.Equal(t, 210.0, *candidates[0].Price)
	assert.Equal(t, "USD", candidates[0].Currency)
}

func TestRank_StaleRatesWarn(t *testing.T) {
	p := NewFromConfig(model.DefaultConfig(), freshNormalizer(t, time.Now().Add(-2*time.Hour)), Options{})

	ranking, err := p.Rank(context.Background(), parisBrief(), model.DomainAccommodation, []model.Candidate{
		{ID: "usd", City: "Paris", Price: model.Float(100), Currency: "USD"},
	})
	require.NoError(t, err)
	require.Len(t, ranking.Warnings, 1)
	assert.Contains(t, ranking.Warnings[0], "exchange rates are stale")
}

func TestRank_FlightsAvoidAirline(t *testing.T) {
	p := newPipeline(t, Options{})
	flights := []model.Candidate{
		{ID: "f1", Airline: "RyanAir", Price: model.Float(19), Currency: "EUR", Origin: "London", Destination: "Paris", DepartureDate: model.MustDate("2026-06-01"), ReturnDate: model.MustDate("2026-06-05")},
		{ID: "f2", Airline: "Air France", Origin: "London", Destination: "Paris", DepartureDate: model.MustDate("2026-06-01"), ReturnDate: model.MustDate("2026-06-05"), DepartureAirport: "LHR", ArrivalAirport: "CDG", Price: model.Float(180), Currency: "EUR"},
	}

	ranking, err := p.Rank(context.Background(), parisBrief(), model.DomainFlights, flights)
	require.NoError(t, err)
	require.Len(t, ranking.Results, 1)
	assert.Equal(t, "f2", ranking.Results[0].ID, "the cheapest fare is on an avoided airline")
	assert.Equal(t, 1, ranking.Excluded)
	assert.Equal(t, 1.0, ranking.Results[0].ScoringBreakdown[query.FactorAirports])
}

func TestRank_EmptyCandidates(t *testing.T) {
	ranking, err := newPipeline(t, Options{}).Rank(context.Background(), parisBrief(), model.DomainDining, nil)
	require.NoError(t, err)
	assert.NotNil(t, ranking.Results)
	assert.Empty(t, ranking.Results)
	assert.Zero(t, ranking.Excluded)
}

func TestRank_UnknownDomain(t *testing.T) {
	_, err := newPipeline(t, Options{}).Rank(context.Background(), parisBrief(), model.Domain("cruises"), parisHotels())
	require.Error(t, err)
	assert.True(t, errors.Is(err, query.ErrUnknownDomain))
}

func TestRank_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPipeline(t, Options{}).Rank(ctx, parisBrief(), model.DomainAccommodation, parisHotels())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRank_LimitAndGeneratedIDs(t *testing.T) {
	p := newPipeline(t, Options{Limit: 1})
	candidates := parisHotels()
	for i := range candidates {
		candidates[i].ID = ""
	}

	ranking, err := p.Rank(context.Background(), parisBrief(), model.DomainAccommodation, candidates)
	require.NoError(t, err)
	require.Len(t, ranking.Results, 1)
	assert.Len(t, ranking.Results[0].ID, 36)
	assert.Equal(t, "Hotel Lumière", ranking.Results[0].Name)
}

func TestRank_MissingFieldsReported(t *testing.T) {
	brief := parisBrief()
	brief.Origin = model.Place{}

	ranking, err := newPipeline(t, Options{}).Rank(context.Background(), brief, model.DomainFlights, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"origin is required"}, ranking.Missing)
}

type stubNarrator struct {
	err   error
	calls int
}

func (s *stubNarrator) Narrate(ctx context.Context, ranking *model.Ranking) (*model.Narration, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.Narration{Provider: "stub", Text: "Hotel Lumière leads on price and location."}, nil
}

type recordingObserver struct {
	domain   model.Domain
	seen     int
	excluded int
	returned int
}

func (r *recordingObserver) ObserveRank(domain model.Domain, seen, excluded, returned int, elapsed time.Duration) {
	r.domain, r.seen, r.excluded, r.returned = domain, seen, excluded, returned
}

func TestRank_NarratorAndObserver(t *testing.T) {
	narrator := &stubNarrator{}
	observer := &recordingObserver{}
	p := newPipeline(t, Options{Narrator: narrator, Observer: observer})

	ranking, err := p.Rank(context.Background(), parisBrief(), model.DomainAccommodation, parisHotels())
	require.NoError(t, err)
	require.NotNil(t, ranking.Summary)
	assert.Equal(t, "stub", ranking.Summary.Provider)
	assert.Equal(t, 1, narrator.calls)

	assert.Equal(t, model.DomainAccommodation, observer.domain)
	assert.Equal(t, 3, observer.seen)
	assert.Equal(t, 1, observer.excluded)
	assert.Equal(t, 2, observer.returned)
}

func TestRank_NarratorFailureIsAWarning(t *testing.T) {
	p := newPipeline(t, Options{Narrator: &stubNarrator{err: errors.New("provider down")}})

	ranking, err := p.Rank(context.Background(), parisBrief(), model.DomainAccommodation, parisHotels())
	require.NoError(t, err)
	assert.Nil(t, ranking.Summary)
	assert.Equal(t, []string{"narration unavailable: provider down"}, ranking.Warnings)
	assert.Len(t, ranking.Results, 2)
}

func TestRankAll(t *testing.T) {
	p := newPipeline(t, Options{})

	rankings, err := p.RankAll(context.Background(), parisBrief(), map[model.Domain][]model.Candidate{
		model.DomainAccommodation: parisHotels(),
		model.DomainDining:        {{ID: "d1", City: "Paris"}},
		model.Domain("cruises"):   {{ID: "x"}},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, query.ErrUnknownDomain))
	require.Len(t, rankings, 2)
	assert.Len(t, rankings[model.DomainAccommodation].Results, 2)
	assert.Len(t, rankings[model.DomainDining].Results, 1)
}

func TestOrderedDomains(t *testing.T) {
	got := orderedDomains(map[model.Domain][]model.Candidate{
		"zeppelins":               nil,
		model.DomainTransport:     nil,
		model.DomainAccommodation: nil,
		"cruises":                 nil,
	})
	assert.Equal(t, []model.Domain{model.DomainAccommodation, model.DomainTransport, "cruises", "zeppelins"}, got)
}
