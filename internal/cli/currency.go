package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/spf13/cobra"
)

var (
	showDisplay   bool
	taxesIncluded bool
	ratesJSON     bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <amount> <from> <to>",
	Short: "Convert an amount between currencies",
	Long: `Convert uses the current rate snapshot: a direct rate, the inverse of
the reverse rate, or a path through USD. Anything but a direct rate is
marked approximate. With no path the amount is returned unchanged.

Example:
  wayfare convert 150 EUR USD
  wayfare convert 1500 JPY GBP --display`,
	Args: cobra.ExactArgs(3),
	RunE: runConvert,
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "List the current exchange rates",
	Long: `Rates refreshes from the configured source (HTTP feed, rate file or the
static table in the config) and lists every stored pair.`,
	RunE: runRates,
}

func init() {
	rootCmd.AddCommand(convertCmd, ratesCmd)

	convertCmd.Flags().BoolVar(&showDisplay, "display", false, "show native, USD and GBP display strings")
	convertCmd.Flags().BoolVar(&taxesIncluded, "taxes-included", false, "mark the displayed amount as tax inclusive")
	ratesCmd.Flags().BoolVar(&ratesJSON, "json", false, "print JSON")
}

func runConvert(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	from, err := currency.NormalizeCode(args[1])
	if err != nil {
		return err
	}
	to, err := currency.NormalizeCode(args[2])
	if err != nil {
		return err
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Currency.Timeout+5*time.Second)
	defer cancel()
	a.refreshOnce(ctx)

	out := cmd.OutOrStdout()
	if showDisplay {
		d := a.normalizer.CreateDisplay(amount, from, taxesIncluded)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	c := a.normalizer.Convert(amount, from, to)
	fmt.Fprintf(out, "%s = %s", currency.Format(amount, from), currency.Format(c.Amount, c.To))
	if c.Approximate {
		fmt.Fprintf(out, " (%s, approximate)", c.Method)
	}
	fmt.Fprintln(out)
	if a.normalizer.IsStale() {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠ exchange rates are stale")
	}
	return nil
}

func runRates(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Currency.Timeout+5*time.Second)
	defer cancel()
	a.refreshOnce(ctx)

	snap := a.normalizer.Snapshot()
	if snap == nil {
		return fmt.Errorf("no exchange rates available")
	}

	out := cmd.OutOrStdout()
	if ratesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"source":    snap.Source,
			"timestamp": snap.Timestamp,
			"stale":     a.normalizer.IsStale(),
			"rates":     snap.Rates(),
		})
	}

	fmt.Fprintf(out, "Source:    %s\n", snap.Source)
	fmt.Fprintf(out, "As of:     %s\n", snap.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "Stale:     %v\n\n", a.normalizer.IsStale())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PAIR\tRATE")
	for _, r := range snap.Rates() {
		fmt.Fprintf(tw, "%s\t%.4f\n", r.Pair, r.Value)
	}
	return tw.Flush()
}
