package currency

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Base is the pivot currency for triangulation
const Base = "USD"

// DefaultMaxAge is how old a snapshot may get before IsStale reports true
const DefaultMaxAge = time.Hour

// ErrOlderSnapshot is returned by Replace for a snapshot older than the
// current one
var ErrOlderSnapshot = errors.New("snapshot is older than the current one")

// Conversion methods, reported in Conversion.Method
const (
	MethodIdentity     = "identity"
	MethodDirect       = "direct"
	MethodInverse      = "inverse"
	MethodTriangulated = "triangulated"
	MethodUnavailable  = "unavailable"
)

// Conversion is the result of Convert. Approximate is set whenever the
// amount did not come from a single stored rate.
type Conversion struct {
	Amount      float64 `json:"amount"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Approximate bool    `json:"approximate"`
	Method      string  `json:"method"`
}

// Normalizer converts amounts using the current snapshot. Readers load the
// snapshot pointer once per call and never see a partial update.
type Normalizer struct {
	snapshot atomic.Pointer[Snapshot]
	maxAge   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewNormalizer creates a normalizer seeded with initial (may be nil)
func NewNormalizer(initial *Snapshot, maxAge time.Duration, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	n := &Normalizer{maxAge: maxAge, now: time.Now, logger: logger}
	if initial != nil {
		n.snapshot.Store(initial)
	}
	return n
}

// Snapshot returns the current snapshot, or nil
func (n *Normalizer) Snapshot() *Snapshot {
	return n.snapshot.Load()
}

// Replace swaps in s atomically. A snapshot older than the current one is
// refused so a slow refresh cannot clobber a fresher one.
func (n *Normalizer) Replace(s *Snapshot) error {
	if s == nil {
		return errors.New("replace: nil snapshot")
	}
	for {
		cur := n.snapshot.Load()
		if cur != nil && s.Timestamp.Before(cur.Timestamp) {
			return fmt.Errorf("replace: %w (%s < %s)", ErrOlderSnapshot,
				s.Timestamp.Format(time.RFC3339), cur.Timestamp.Format(time.RFC3339))
		}
		if n.snapshot.CompareAndSwap(cur, s) {
			return nil
		}
	}
}

// IsStale reports whether there is no snapshot or it is older than maxAge
func (n *Normalizer) IsStale() bool {
	s := n.snapshot.Load()
	return s == nil || s.Age(n.now()) > n.maxAge
}

// Convert converts amount between two currency codes. It never fails: when
// no path exists the amount is returned unchanged and flagged approximate.
func (n *Normalizer) Convert(amount float64, from, to string) Conversion {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	c := Conversion{Amount: amount, From: from, To: to}

	if from == to {
		c.Method = MethodIdentity
		return c
	}

	s := n.snapshot.Load()
	if s != nil {
		if factor, method, ok := rateBetween(s, from, to); ok {
			c.Amount = amount * factor
			c.Method = method
			c.Approximate = method != MethodDirect
			return c
		}

		// via USD; each leg may itself be direct or inverse
		if from != Base && to != Base {
			leg1, _, ok1 := rateBetween(s, from, Base)
			leg2, _, ok2 := rateBetween(s, Base, to)
			if ok1 && ok2 {
				c.Amount = amount * leg1 * leg2
				c.Method = MethodTriangulated
				c.Approximate = true
				return c
			}
		}
	}

	n.logger.Warn("no exchange rate, amount left unconverted",
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("amount", amount))
	c.Method = MethodUnavailable
	c.Approximate = true
	return c
}

// rateBetween finds a single-step factor: stored rate or reciprocal of the
// reverse rate
func rateBetween(s *Snapshot, from, to string) (float64, string, bool) {
	if r, ok := s.Lookup(from, to); ok {
		return r.Value, MethodDirect, true
	}
	if r, ok := s.Lookup(to, from); ok {
		return 1 / r.Value, MethodInverse, true
	}
	return 0, "", false
}
