// Test program to exercise a live exchange-rate feed end to end:
// robots.txt, per-host pacing, retries and the circuit breaker, then a few
// conversions against the fetched snapshot.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/worker"
	"go.uber.org/zap"
)

func main() {
	fmt.Println("=== Rate Feed Test ===")
	fmt.Println()

	feeds := os.Args[1:]
	if len(feeds) == 0 {
		feeds = []string{"https://open.er-api.com/v6/latest/USD"}
	}

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	limiter := worker.NewLimiter(1, 1)
	amounts := []struct {
		amount   float64
		from, to string
	}{
		{100, "EUR", "USD"},
		{250, "GBP", "EUR"},
		{15000, "JPY", "GBP"},
		{80, "THB", "EUR"},
	}

	for _, url := range feeds {
		fmt.Printf("Feed: %s\n", url)
		fmt.Println(strings.Repeat("-", 60))

		cfg := model.DefaultConfig().Currency
		cfg.SourceURL = url
		source := currency.NewHTTPSource(cfg, limiter, nil, logger)

		start := time.Now()
		snap, err := source.Fetch(ctx)
		if err != nil {
			fmt.Printf("  ✗ fetch failed: %v\n\n", err)
			continue
		}
		fmt.Printf("  ✓ %d pairs in %v (as of %s)\n", snap.Len(), time.Since(start).Round(time.Millisecond),
			snap.Timestamp.Format(time.RFC3339))

		n := currency.NewNormalizer(snap, cfg.MaxAge, logger)
		for _, a := range amounts {
			c := n.Convert(a.amount, a.from, a.to)
			note := c.Method
			if c.Approximate {
				note += ", approximate"
			}
			fmt.Printf("    %-12s -> %-14s (%s)\n", currency.Format(a.amount, a.from), currency.Format(c.Amount, c.To), note)
		}
		fmt.Println()
	}

	fmt.Println("=== Test Complete ===")
	fmt.Println("\nNote: feeds quoting plain codes are read against their base currency.")
	fmt.Println("Non-ISO codes in the feed are skipped.")
}
