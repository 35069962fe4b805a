package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/pipeline"
	"github.com/ppiankov/wayfare/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchMD      bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Run many ranking jobs from a manifest in parallel",
	Long: `Batch reads a YAML manifest of ranking jobs and runs them concurrently:

  output_dir: ./rankings
  jobs:
    - name: paris-hotels
      domain: accommodation
      brief: paris.yaml
      candidates: hotels.json
    - name: paris-flights
      domain: flights
      brief: paris.yaml
      candidates: flights.json

Relative paths resolve against the manifest's directory. Each job writes
<name>.json (and <name>.md with --md) into the output directory.

Example:
  wayfare batch jobs.yaml
  wayfare batch jobs.yaml --concurrency 8 --output-dir ./out --md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: manifest output_dir or ./wayfare-rankings)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchMD, "md", false, "also write a Markdown report per job")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&narrate, "narrate", false, "add an LLM summary to every ranking")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest, err := worker.ReadManifest(args[0])
	if err != nil {
		return err
	}
	jobs, err := manifest.LoadJobs()
	if err != nil {
		return err
	}

	dir := outputDir
	if dir == "" {
		dir = manifest.OutputDir
	}
	if dir == "" {
		dir = "./wayfare-rankings"
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Wayfare Batch Ranking\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Manifest:     %s\n", args[0])
	fmt.Fprintf(os.Stderr, "  Jobs:         %d\n", len(jobs))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()
	a.refreshOnce(ctx)

	p, err := a.pipeline(narrate, 0)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	results := worker.NewBatchProcessor(p, concurrency).Process(ctx, jobs)

	renderer := pipeline.NewRenderer(!noFooter)
	successCount, failureCount := 0, 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Name, result.Error)
			continue
		}

		slug := sanitizeFilename(result.Name)
		if err := renderer.RenderJSON(result.Ranking, filepath.Join(dir, slug+".json")); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Name, err)
			continue
		}
		if batchMD {
			if err := renderer.RenderMarkdown([]*model.Ranking{result.Ranking}, filepath.Join(dir, slug+".md")); err != nil {
				failureCount++
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Name, err)
				continue
			}
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%s: %d passed, %d excluded)\n",
			result.Name, result.Domain, len(result.Ranking.Results), result.Ranking.Excluded)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d jobs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", dir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d jobs failed", failureCount, len(results))
	}
	return nil
}

// sanitizeFilename turns a job name into a safe file stem
func sanitizeFilename(s string) string {
	s = strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	).Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")

	if s == "" {
		s = "job"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
