package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/metrics"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Collector) {
	t.Helper()
	snap, err := currency.NewSnapshot(time.Now(), "test", model.DefaultRates)
	require.NoError(t, err)
	n := currency.NewNormalizer(snap, time.Hour, nil)
	m := metrics.NewCollector()
	p := pipeline.NewFromConfig(model.DefaultConfig(), n, pipeline.Options{Observer: m})

	srv := httptest.NewServer(NewServer(p, n, m, nil).Routes())
	t.Cleanup(srv.Close)
	return srv, m
}

func post(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func brief() model.TripBrief {
	return model.TripBrief{
		Destination: model.Place{Name: "Paris"},
		Dates:       model.Window{From: model.MustDate("2026-06-01"), To: model.MustDate("2026-06-05")},
		Travelers:   model.Travelers{Adults: 2},
		Budget:      model.Budget{Currency: "EUR", Domains: model.DomainBudget{MaxPricePerNight: 200}},
		Preferences: model.Preferences{Accommodation: model.AccommodationPrefs{PreferredRating: 4.5, Location: "city-center"}},
	}
}

func hotels() []model.Candidate {
	return []model.Candidate{
		{ID: "A", Name: "Hotel Lumière", City: "Paris", Price: model.Float(180), Currency: "EUR", Rating: model.Float(4.5), CityCenter: true},
		{ID: "B", Name: "Grand Palais Suites", City: "Paris", Price: model.Float(250), Currency: "EUR"},
		{ID: "C", Name: "Canal Rooms", City: "Paris", Price: model.Float(150), Currency: "EUR", Rating: model.Float(3.0)},
	}
}

// rankingBody is the part of a ranking the tests read; the compiled query
// carries interface-typed values that do not decode generically
type rankingBody struct {
	Results  []model.ScoredResult `json:"results"`
	Excluded int                  `json:"excluded"`
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["rates_stale"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "trip-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "trip-123", resp.Header.Get(RequestIDHeader))
}

func TestRank(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/v1/rank", RankRequest{Brief: brief(), Domain: "Accommodation", Candidates: hotels()})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ranking rankingBody
	decodeBody(t, resp, &ranking)
	require.Len(t, ranking.Results, 2)
	assert.Equal(t, "A", ranking.Results[0].ID)
	assert.Equal(t, 1, ranking.Excluded)
}

func TestRank_UnknownDomain(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/v1/rank", RankRequest{Brief: brief(), Domain: "cruises"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Error, "unknown domain")
	assert.NotEmpty(t, body.RequestID)
}

func TestRank_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/v1/rank", RankRequest{Brief: brief()})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "domain is required", body.Error)
}

func TestRank_MalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/rank", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRankAll_PartialFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/v1/rank/all", RankAllRequest{
		Brief: brief(),
		Candidates: map[string][]model.Candidate{
			"accommodation": hotels(),
			"cruises":       {{ID: "x"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rankings map[model.Domain]rankingBody `json:"rankings"`
		Error    string                       `json:"error"`
	}
	decodeBody(t, resp, &body)
	require.Contains(t, body.Rankings, model.DomainAccommodation)
	assert.Len(t, body.Rankings[model.DomainAccommodation].Results, 2)
	assert.Contains(t, body.Error, "cruises")
}

func TestQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/v1/query", QueryRequest{Brief: brief(), Domain: "accommodation"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var q struct {
		Domain      string `json:"domain"`
		Currency    string `json:"currency"`
		Constraints struct {
			Hard []map[string]any `json:"hard"`
		} `json:"constraints"`
	}
	decodeBody(t, resp, &q)
	assert.Equal(t, "accommodation", q.Domain)
	assert.Equal(t, "EUR", q.Currency)
	assert.NotEmpty(t, q.Constraints.Hard)
}

func TestQuery_DomainNameIsNormalised(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/v1/query", QueryRequest{Brief: brief(), Domain: " Flights "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var q struct {
		Domain string `json:"domain"`
	}
	decodeBody(t, resp, &q)
	assert.Equal(t, "flights", q.Domain)

	resp = post(t, srv, "/v1/query", QueryRequest{Brief: brief(), Domain: "Cruises"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConvertAndDisplay(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/v1/convert", ConvertRequest{Amount: 100, From: "EUR", To: "USD"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conv currency.Conversion
	decodeBody(t, resp, &conv)
	assert.InDelta(t, 108.0, conv.Amount, 1e-9)
	assert.Equal(t, currency.MethodDirect, conv.Method)

	resp = post(t, srv, "/v1/display", DisplayRequest{Amount: 1500, Currency: "JPY", TaxesIncluded: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d currency.Display
	decodeBody(t, resp, &d)
	assert.Equal(t, "¥1,500", d.Native)
	assert.True(t, d.TaxesIncluded)

	resp = post(t, srv, "/v1/convert", ConvertRequest{Amount: 1, From: "EURO", To: "USD"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRates(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/rates")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body RatesResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "test", body.Source)
	assert.False(t, body.Stale)
	assert.Len(t, body.Rates, len(model.DefaultRates))
	assert.Equal(t, "EUR", body.Rates[0].From)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	post(t, srv, "/v1/rank", RankRequest{Brief: brief(), Domain: "accommodation", Candidates: hotels()})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(data), `wayfare_candidates_total{domain="accommodation"} 3`)
	assert.Contains(t, string(data), `wayfare_candidates_excluded_total{domain="accommodation"} 1`)
}

func TestNoNormalizer(t *testing.T) {
	p := pipeline.NewFromConfig(model.DefaultConfig(), nil, pipeline.Options{})
	srv := httptest.NewServer(NewServer(p, nil, nil, nil).Routes())
	defer srv.Close()

	resp := post(t, srv, "/v1/convert", ConvertRequest{Amount: 1, From: "EUR", To: "USD"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
