package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/pipeline"
	"github.com/ppiankov/wayfare/internal/validate"
	"github.com/spf13/cobra"
)

var (
	briefPath      string
	candidatesPath string
	domainName     string
	outFormat      string
	outPath        string
	limit          int
	narrate        bool
	noFooter       bool
	rankTimeout    time.Duration
	planCandidates map[string]string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank provider offers for one domain",
	Long: `Rank compiles the brief for a domain, drops offers that break a hard
constraint, scores the rest on soft preferences and prints the ranking.

Prices are converted into the brief currency before filtering.

Example:
  wayfare rank --brief trip.yaml --domain accommodation --candidates hotels.json
  wayfare rank -b trip.yaml -d flights -c flights.json --format markdown
  wayfare rank -b trip.yaml -d dining -c restaurants.yaml --limit 5 --narrate`,
	RunE: runRank,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Rank offers for several domains in parallel",
	Long: `Plan ranks every domain given with --candidates in parallel and prints
one section per domain. A domain that fails does not stop the others.

Example:
  wayfare plan -b trip.yaml -c accommodation=hotels.json -c flights=flights.json`,
	RunE: runPlan,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Compile a brief into a provider query",
	Long: `Query prints the provider query compiled from the brief for one domain:
request parameters, hard and soft constraints and the scoring rules.
Fields the brief is still missing are listed on stderr.

Example:
  wayfare query --brief trip.yaml --domain flights`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(rankCmd, planCmd, queryCmd)

	for _, cmd := range []*cobra.Command{rankCmd, planCmd, queryCmd} {
		cmd.Flags().StringVarP(&briefPath, "brief", "b", "", "trip brief (.json or .yaml)")
		_ = cmd.MarkFlagRequired("brief")
	}

	rankCmd.Flags().StringVarP(&domainName, "domain", "d", "", "domain (accommodation, activities, dining, flights, transport)")
	rankCmd.Flags().StringVarP(&candidatesPath, "candidates", "c", "", "provider offers (.json or .yaml)")
	_ = rankCmd.MarkFlagRequired("domain")
	_ = rankCmd.MarkFlagRequired("candidates")

	queryCmd.Flags().StringVarP(&domainName, "domain", "d", "", "domain to compile for")
	_ = queryCmd.MarkFlagRequired("domain")

	planCmd.Flags().StringToStringVarP(&planCandidates, "candidates", "c", nil, "domain=path, repeatable")
	_ = planCmd.MarkFlagRequired("candidates")

	for _, cmd := range []*cobra.Command{rankCmd, planCmd} {
		cmd.Flags().StringVarP(&outFormat, "format", "f", "json", "output format (json, markdown)")
		cmd.Flags().StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
		cmd.Flags().IntVar(&limit, "limit", 0, "keep at most N results per domain (0 = config value)")
		cmd.Flags().BoolVar(&narrate, "narrate", false, "add an LLM summary of the top results")
		cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown output")
		cmd.Flags().DurationVar(&rankTimeout, "timeout", 2*time.Minute, "overall timeout")
	}
}

func runRank(cmd *cobra.Command, args []string) error {
	domain, err := parseDomain(domainName)
	if err != nil {
		return err
	}
	brief, err := model.ReadBrief(briefPath)
	if err != nil {
		return err
	}
	candidates, err := model.ReadCandidates(candidatesPath)
	if err != nil {
		return err
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), rankTimeout)
	defer cancel()
	a.refreshOnce(ctx)

	p, err := a.pipeline(narrate, limit)
	if err != nil {
		return err
	}
	ranking, err := p.Rank(ctx, brief, domain, candidates)
	if err != nil {
		return fmt.Errorf("rank %s: %w", domain, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %s: %d passed, %d excluded\n", domain, len(ranking.Results), ranking.Excluded)
	}
	return emit(cmd.OutOrStdout(), ranking, []*model.Ranking{ranking})
}

func runPlan(cmd *cobra.Command, args []string) error {
	brief, err := model.ReadBrief(briefPath)
	if err != nil {
		return err
	}

	byDomain := make(map[model.Domain][]model.Candidate, len(planCandidates))
	for name, path := range planCandidates {
		domain, err := parseDomain(name)
		if err != nil {
			return err
		}
		list, err := model.ReadCandidates(path)
		if err != nil {
			return fmt.Errorf("%s: %w", domain, err)
		}
		byDomain[domain] = list
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), rankTimeout)
	defer cancel()
	a.refreshOnce(ctx)

	p, err := a.pipeline(narrate, limit)
	if err != nil {
		return err
	}
	rankings, rankErr := p.RankAll(ctx, brief, byDomain)
	if rankErr != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", rankErr)
	}

	ordered := make([]*model.Ranking, 0, len(rankings))
	for _, d := range model.Domains {
		if r, ok := rankings[d]; ok {
			ordered = append(ordered, r)
		}
	}
	if err := emit(cmd.OutOrStdout(), rankings, ordered); err != nil {
		return err
	}
	if len(rankings) == 0 && rankErr != nil {
		return rankErr
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	domain, err := parseDomain(domainName)
	if err != nil {
		return err
	}
	brief, err := model.ReadBrief(briefPath)
	if err != nil {
		return err
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline(false, 0)
	if err != nil {
		return err
	}
	q, err := p.Compile(brief, domain)
	if err != nil {
		return err
	}

	for _, msg := range validate.Completeness(brief, domain) {
		fmt.Fprintf(os.Stderr, "⚠ %s\n", msg)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}

// emit writes the JSON document v or the Markdown rendering of rankings
func emit(stdout io.Writer, v any, rankings []*model.Ranking) error {
	renderer := pipeline.NewRenderer(!noFooter)

	switch strings.ToLower(outFormat) {
	case "json":
		if outPath != "" {
			return renderer.RenderJSON(v, outPath)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "markdown", "md":
		if outPath != "" {
			return renderer.RenderMarkdown(rankings, outPath)
		}
		renderer.WriteMarkdown(stdout, rankings)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (supported: json, markdown)", outFormat)
	}
}

func parseDomain(name string) (model.Domain, error) {
	d, ok := model.ParseDomain(name)
	if !ok {
		known := make([]string, len(model.Domains))
		for i, k := range model.Domains {
			known[i] = string(k)
		}
		sort.Strings(known)
		return "", fmt.Errorf("unknown domain %q (supported: %s)", name, strings.Join(known, ", "))
	}
	return d, nil
}
