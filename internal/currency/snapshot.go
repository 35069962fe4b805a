// Package currency converts and formats amounts from an exchange-rate
// snapshot that is replaced wholesale on refresh.
package currency

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	xcurrency "golang.org/x/text/currency"
)

// Pair is an ordered currency pair; a Rate on EUR/USD converts EUR to USD
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (p Pair) String() string {
	return p.From + "/" + p.To
}

// ParsePair reads "EUR/USD" (also "eur_usd" and "EUR-USD")
func ParsePair(s string) (Pair, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '_' || r == '-' || r == ':'
	})
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("invalid currency pair %q", s)
	}
	from, err := NormalizeCode(parts[0])
	if err != nil {
		return Pair{}, err
	}
	to, err := NormalizeCode(parts[1])
	if err != nil {
		return Pair{}, err
	}
	return Pair{From: from, To: to}, nil
}

// NormalizeCode upper-cases and checks an ISO 4217 code
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if _, err := xcurrency.ParseISO(c); err != nil {
		return "", fmt.Errorf("unknown currency %q", code)
	}
	return c, nil
}

// Rate is one stored conversion factor
type Rate struct {
	Pair
	Value     float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is an immutable table of rates. Build a new one to change rates.
type Snapshot struct {
	rates     map[Pair]Rate
	Timestamp time.Time
	Source    string
}

// NewSnapshot builds a snapshot from "FROM/TO" -> rate entries. Pairs that do
// not parse or carry a non-positive rate are rejected.
func NewSnapshot(ts time.Time, source string, rates map[string]float64) (*Snapshot, error) {
	s := &Snapshot{
		rates:     make(map[Pair]Rate, len(rates)),
		Timestamp: ts,
		Source:    source,
	}
	for key, value := range rates {
		pair, err := ParsePair(key)
		if err != nil {
			return nil, err
		}
		if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("invalid rate %v for %s", value, pair)
		}
		if prev, ok := s.rates[pair]; ok && prev.Value != value {
			return nil, fmt.Errorf("conflicting rates for %s: %v and %v", pair, prev.Value, value)
		}
		s.rates[pair] = Rate{Pair: pair, Value: value, Timestamp: ts}
	}
	if len(s.rates) == 0 {
		return nil, fmt.Errorf("snapshot from %s has no rates", source)
	}
	return s, nil
}

// Lookup returns the stored rate for from -> to
func (s *Snapshot) Lookup(from, to string) (Rate, bool) {
	r, ok := s.rates[Pair{From: from, To: to}]
	return r, ok
}

// Rates lists every stored rate sorted by pair
func (s *Snapshot) Rates() []Rate {
	out := make([]Rate, 0, len(s.rates))
	for _, r := range s.rates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Pair.String() < out[j].Pair.String()
	})
	return out
}

// Len returns the number of stored pairs
func (s *Snapshot) Len() int {
	return len(s.rates)
}

// Age returns how old the snapshot is at now
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}
