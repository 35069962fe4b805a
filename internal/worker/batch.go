package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/wayfare/internal/model"
	"gopkg.in/yaml.v3"
)

// Ranker ranks one domain's candidates for a brief
type Ranker interface {
	Rank(ctx context.Context, brief model.TripBrief, domain model.Domain, candidates []model.Candidate) (*model.Ranking, error)
}

// RankJob ranks one candidate list
type RankJob struct {
	Index      int
	Name       string
	Domain     model.Domain
	Brief      model.TripBrief
	Candidates []model.Candidate
	Ranker     Ranker
}

// Execute runs the ranking
func (j *RankJob) Execute(ctx context.Context) Result {
	ranking, err := j.Ranker.Rank(ctx, j.Brief, j.Domain, j.Candidates)
	return &RankResult{Index: j.Index, Name: j.Name, Domain: j.Domain, Ranking: ranking, Error: err}
}

// RankResult is the outcome of a RankJob
type RankResult struct {
	Index   int
	Name    string
	Domain  model.Domain
	Ranking *model.Ranking
	Error   error
}

// GetError returns the job error
func (r *RankResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many rank jobs on a pool
type BatchProcessor struct {
	ranker      Ranker
	concurrency int
}

// NewBatchProcessor creates a processor running at most concurrency jobs
func NewBatchProcessor(ranker Ranker, concurrency int) *BatchProcessor {
	return &BatchProcessor{ranker: ranker, concurrency: concurrency}
}

// Process runs jobs and returns results in job order
func (b *BatchProcessor) Process(ctx context.Context, jobs []RankJob) []*RankResult {
	out := make([]*RankResult, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for i := range jobs {
		job := jobs[i]
		job.Index = i
		if job.Ranker == nil {
			job.Ranker = b.ranker
		}
		if !pool.Submit(&job) {
			out[i] = &RankResult{Index: i, Name: job.Name, Domain: job.Domain, Error: ctx.Err()}
		}
	}

	for _, r := range pool.Wait() {
		rr := r.(*RankResult)
		out[rr.Index] = rr
	}
	for i, r := range out {
		if r == nil {
			out[i] = &RankResult{Index: i, Name: jobs[i].Name, Domain: jobs[i].Domain, Error: context.Canceled}
		}
	}
	return out
}

// Manifest describes a batch of rank jobs:
//
//	output_dir: results
//	jobs:
//	  - name: paris-hotels
//	    domain: accommodation
//	    brief: briefs/paris.yaml
//	    candidates: candidates/hotels.json
//
// Relative paths are resolved against the manifest's directory.
type Manifest struct {
	OutputDir string          `yaml:"output_dir"`
	Jobs      []ManifestEntry `yaml:"jobs"`
}

// ManifestEntry is one job in a manifest
type ManifestEntry struct {
	Name       string `yaml:"name"`
	Domain     string `yaml:"domain"`
	Brief      string `yaml:"brief"`
	Candidates string `yaml:"candidates"`
}

// ReadManifest parses a manifest file and resolves its paths
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s has no jobs", path)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	seen := make(map[string]bool, len(m.Jobs))
	for i := range m.Jobs {
		e := &m.Jobs[i]
		if e.Name == "" {
			e.Name = fmt.Sprintf("job-%d", i+1)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("manifest job %q: duplicate name", e.Name)
		}
		seen[e.Name] = true
		if e.Brief == "" || e.Candidates == "" {
			return nil, fmt.Errorf("manifest job %q: brief and candidates are required", e.Name)
		}
		e.Brief = resolve(e.Brief)
		e.Candidates = resolve(e.Candidates)
	}
	m.OutputDir = resolve(m.OutputDir)

	return &m, nil
}

// LoadJobs loads every brief and candidate file named by the manifest
func (m *Manifest) LoadJobs() ([]RankJob, error) {
	jobs := make([]RankJob, 0, len(m.Jobs))
	for _, e := range m.Jobs {
		domain, ok := model.ParseDomain(e.Domain)
		if !ok {
			return nil, fmt.Errorf("manifest job %q: unknown domain %q", e.Name, strings.TrimSpace(e.Domain))
		}
		brief, err := model.ReadBrief(e.Brief)
		if err != nil {
			return nil, fmt.Errorf("manifest job %q: %w", e.Name, err)
		}
		candidates, err := model.ReadCandidates(e.Candidates)
		if err != nil {
			return nil, fmt.Errorf("manifest job %q: %w", e.Name, err)
		}
		jobs = append(jobs, RankJob{Name: e.Name, Domain: domain, Brief: brief, Candidates: candidates})
	}
	return jobs, nil
}
