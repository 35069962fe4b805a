// Package pipeline wires compile, filter, score and diversify into one
// ranking pass per domain.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/filter"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/query"
	"github.com/ppiankov/wayfare/internal/rank"
	"github.com/ppiankov/wayfare/internal/score"
	"github.com/ppiankov/wayfare/internal/validate"
	"github.com/ppiankov/wayfare/internal/worker"
	"go.uber.org/zap"
)

// Narrator writes a summary of a finished ranking. It never changes scores.
type Narrator interface {
	Narrate(ctx context.Context, ranking *model.Ranking) (*model.Narration, error)
}

// Observer receives one call per completed ranking
type Observer interface {
	ObserveRank(domain model.Domain, seen, excluded, returned int, elapsed time.Duration)
}

// Options tune a Pipeline. Zero values are usable.
type Options struct {
	Limit    int // 0 = no limit
	Workers  int // RankAll concurrency
	Narrator Narrator
	Observer Observer
	Logger   *zap.Logger
}

// Pipeline ranks candidates for a brief. It holds no per-request state.
type Pipeline struct {
	compiler   *query.Compiler
	filter     *filter.Filter
	engine     *score.Engine
	reranker   *rank.DiversityReranker // nil disables diversity
	normalizer *currency.Normalizer    // nil disables price conversion
	opts       Options
	logger     *zap.Logger
}

// New creates a pipeline from its stages
func New(compiler *query.Compiler, f *filter.Filter, engine *score.Engine, reranker *rank.DiversityReranker, normalizer *currency.Normalizer, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = len(model.Domains)
	}
	return &Pipeline{
		compiler:   compiler,
		filter:     f,
		engine:     engine,
		reranker:   reranker,
		normalizer: normalizer,
		opts:       opts,
		logger:     logger,
	}
}

// NewFromConfig builds every stage from cfg
func NewFromConfig(cfg *model.Config, normalizer *currency.Normalizer, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var reranker *rank.DiversityReranker
	if cfg.Diversity.Enabled {
		reranker = rank.NewDiversityReranker(cfg.Diversity, nil)
	}
	if opts.Limit == 0 {
		opts.Limit = cfg.Ranking.Limit
	}
	if opts.Workers == 0 {
		opts.Workers = cfg.Ranking.Workers
	}
	return New(
		query.NewCompiler(logger),
		filter.NewFilter(logger),
		score.NewEngine(logger, nil),
		reranker,
		normalizer,
		opts,
	)
}

// Compile exposes the query compiler
func (p *Pipeline) Compile(brief model.TripBrief, domain model.Domain) (*model.ProviderQuery, error) {
	return p.compiler.Compile(brief, domain)
}

// Rank filters, scores and orders candidates for one domain. Missing or
// partial candidate data yields fewer results, never an error; only an
// unknown domain or a cancelled context fails.
func (p *Pipeline) Rank(ctx context.Context, brief model.TripBrief, domain model.Domain, candidates []model.Candidate) (*model.Ranking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	// 1. Compile
	q, err := p.compiler.Compile(brief, domain)
	if err != nil {
		return nil, err
	}

	ranking := &model.Ranking{
		Domain:  domain,
		Query:   q,
		Results: []model.ScoredResult{},
		Missing: validate.Completeness(brief, domain),
	}

	// 2. Normalise prices into the query currency
	prepared, notes, stale := p.prepare(q.Currency, candidates)
	if stale {
		ranking.Warnings = append(ranking.Warnings, p.staleWarning())
	}

	// 3. Hard filter
	kept, evals, excluded := p.filter.Apply(q, prepared)
	ranking.Excluded = excluded

	// 4. Score survivors
	for i, c := range kept {
		s := p.engine.Score(q, c)
		ranking.Results = append(ranking.Results, buildResult(domain, q.Currency, c, evals[i], s, notes[c.ID]))
	}

	// 5. Order, diversify, limit
	if p.reranker != nil {
		ranking.Results = p.reranker.Rerank(ranking.Results)
	} else {
		sort.SliceStable(ranking.Results, func(i, j int) bool {
			return ranking.Results[i].Score > ranking.Results[j].Score
		})
	}
	if p.opts.Limit > 0 && len(ranking.Results) > p.opts.Limit {
		ranking.Results = ranking.Results[:p.opts.Limit]
	}

	// 6. Optional narration, after scoring
	if p.opts.Narrator != nil && len(ranking.Results) > 0 {
		narration, err := p.opts.Narrator.Narrate(ctx, ranking)
		if err != nil {
			p.logger.Warn("narration failed", zap.String("domain", string(domain)), zap.Error(err))
			ranking.Warnings = append(ranking.Warnings, fmt.Sprintf("narration unavailable: %v", err))
		} else {
			ranking.Summary = narration
		}
	}

	elapsed := time.Since(start)
	if p.opts.Observer != nil {
		p.opts.Observer.ObserveRank(domain, len(candidates), excluded, len(ranking.Results), elapsed)
	}
	p.logger.Info("ranked candidates",
		zap.String("domain", string(domain)),
		zap.Int("candidates", len(candidates)),
		zap.Int("excluded", excluded),
		zap.Int("results", len(ranking.Results)),
		zap.Duration("elapsed", elapsed))

	return ranking, nil
}

// prepare copies candidates, fills missing ids and converts prices into
// target. notes are keyed by candidate id.
func (p *Pipeline) prepare(target string, candidates []model.Candidate) ([]model.Candidate, map[string][]string, bool) {
	out := make([]model.Candidate, len(candidates))
	notes := make(map[string][]string)
	converted := false

	for i, c := range candidates {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Price != nil && c.Currency != "" && p.normalizer != nil {
			conv := p.normalizer.Convert(*c.Price, c.Currency, target)
			switch conv.Method {
			case currency.MethodIdentity:
				c.Currency = conv.To
			case currency.MethodUnavailable:
				notes[c.ID] = append(notes[c.ID], fmt.Sprintf("price: no %s to %s rate, amount left in %s", conv.From, conv.To, conv.From))
			default:
				converted = true
				c.Price = model.Float(conv.Amount)
				c.Currency = conv.To
				if conv.Approximate {
					notes[c.ID] = append(notes[c.ID], fmt.Sprintf("price: converted from %s (%s, approximate)", conv.From, conv.Method))
				}
			}
		}
		out[i] = c
	}

	return out, notes, converted && p.normalizer.IsStale()
}

func (p *Pipeline) staleWarning() string {
	snap := p.normalizer.Snapshot()
	if snap == nil {
		return "exchange rates unavailable"
	}
	return fmt.Sprintf("exchange rates are stale (as of %s)", snap.Timestamp.UTC().Format(time.RFC3339))
}

func buildResult(domain model.Domain, cur string, c model.Candidate, ev filter.Evaluation, s score.Result, notes []string) model.ScoredResult {
	satisfaction := make(map[string]bool, len(ev.Satisfied)+len(s.Satisfaction))
	for k, v := range ev.Satisfied {
		satisfaction[k] = v
	}
	for k, v := range s.Satisfaction {
		satisfaction[k] = v
	}

	var uncertainty []string
	uncertainty = append(uncertainty, ev.Unverified...)
	uncertainty = append(uncertainty, ev.Warnings...)
	uncertainty = append(uncertainty, s.Warnings...)
	uncertainty = append(uncertainty, notes...)

	res := model.ScoredResult{
		ID:                     c.ID,
		Name:                   c.Name,
		Domain:                 domain,
		Score:                  s.Score,
		RawScore:               s.Score,
		ScoringBreakdown:       s.Breakdown,
		ConstraintViolations:   []string{},
		ConstraintSatisfaction: satisfaction,
		Reasoning:              s.Reasoning,
		DeepLink:               c.DeepLink,
		Uncertainty:            uncertainty,
		Neighborhood:           c.Neighborhood,
		Price:                  c.Price,
	}
	if c.Price != nil {
		res.Currency = c.Currency
		if res.Currency == "" {
			res.Currency = cur
		}
	}
	return res
}

// RankAll ranks several domains in parallel. Rankings are keyed by domain;
// per-domain failures are joined into the returned error.
func (p *Pipeline) RankAll(ctx context.Context, brief model.TripBrief, candidates map[model.Domain][]model.Candidate) (map[model.Domain]*model.Ranking, error) {
	jobs := make([]worker.RankJob, 0, len(candidates))
	for _, d := range orderedDomains(candidates) {
		jobs = append(jobs, worker.RankJob{Name: string(d), Domain: d, Brief: brief, Candidates: candidates[d]})
	}

	results := worker.NewBatchProcessor(p, p.opts.Workers).Process(ctx, jobs)

	out := make(map[model.Domain]*model.Ranking, len(results))
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("rank %s: %w", r.Domain, r.Error))
			continue
		}
		out[r.Domain] = r.Ranking
	}
	return out, errors.Join(errs...)
}

// orderedDomains returns known domains in display order, then the rest sorted
func orderedDomains(candidates map[model.Domain][]model.Candidate) []model.Domain {
	known := make(map[model.Domain]bool, len(model.Domains))
	out := make([]model.Domain, 0, len(candidates))
	for _, d := range model.Domains {
		known[d] = true
		if _, ok := candidates[d]; ok {
			out = append(out, d)
		}
	}
	var extra []model.Domain
	for d := range candidates {
		if !known[d] {
			extra = append(extra, d)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
