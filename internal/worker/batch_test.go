package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/wayfare/internal/model"
)

// mockRanker implements Ranker
type mockRanker struct {
	failDomain model.Domain
}

func (m *mockRanker) Rank(ctx context.Context, brief model.TripBrief, domain model.Domain, candidates []model.Candidate) (*model.Ranking, error) {
	time.Sleep(5 * time.Millisecond)
	if domain == m.failDomain {
		return nil, errors.New("rank error")
	}
	results := make([]model.ScoredResult, len(candidates))
	for i, c := range candidates {
		results[i] = model.ScoredResult{ID: c.ID, Domain: domain}
	}
	return &model.Ranking{Domain: domain, Results: results}, nil
}

func TestBatchProcessor_Process(t *testing.T) {
	processor := NewBatchProcessor(&mockRanker{}, 2)

	jobs := []RankJob{
		{Name: "hotels", Domain: model.DomainAccommodation, Candidates: []model.Candidate{{ID: "h1"}}},
		{Name: "flights", Domain: model.DomainFlights, Candidates: []model.Candidate{{ID: "f1"}, {ID: "f2"}}},
		{Name: "dining", Domain: model.DomainDining},
	}

	results := processor.Process(context.Background(), jobs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Name, res.Error)
		}
		if res.Name != jobs[i].Name {
			t.Errorf("result %d: expected %s, got %s", i, jobs[i].Name, res.Name)
		}
	}
	if got := len(results[1].Ranking.Results); got != 2 {
		t.Errorf("expected 2 flight results, got %d", got)
	}
}

func TestBatchProcessor_JobError(t *testing.T) {
	processor := NewBatchProcessor(&mockRanker{failDomain: model.DomainFlights}, 2)

	results := processor.Process(context.Background(), []RankJob{
		{Name: "hotels", Domain: model.DomainAccommodation},
		{Name: "flights", Domain: model.DomainFlights},
	})

	if results[0].Error != nil {
		t.Errorf("expected hotels to succeed, got %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected flights to fail")
	}
}

func TestBatchProcessor_JobRankerOverride(t *testing.T) {
	processor := NewBatchProcessor(&mockRanker{failDomain: model.DomainDining}, 1)

	results := processor.Process(context.Background(), []RankJob{
		{Name: "dining", Domain: model.DomainDining, Ranker: &mockRanker{}},
	})

	if results[0].Error != nil {
		t.Errorf("expected the job's own ranker to be used, got %v", results[0].Error)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockRanker{}, 2)
	if results := processor.Process(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	processor := NewBatchProcessor(&mockRanker{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.Process(ctx, []RankJob{
		{Name: "a", Domain: model.DomainAccommodation},
		{Name: "b", Domain: model.DomainAccommodation},
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Error == nil {
			t.Errorf("expected %s to report cancellation", res.Name)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "briefs", "paris.yaml"), `
destination:
  name: Paris
dates:
  from: 2026-06-01
  to: 2026-06-05
travelers:
  adults: 2
budget:
  currency: EUR
`)
	writeFile(t, filepath.Join(dir, "hotels.json"), `{"candidates": [{"id": "h1", "name": "Hotel A", "price": 120}]}`)
	writeFile(t, filepath.Join(dir, "batch.yaml"), `
output_dir: out
jobs:
  - name: paris-hotels
    domain: accommodation
    brief: briefs/paris.yaml
    candidates: hotels.json
`)

	m, err := ReadManifest(filepath.Join(dir, "batch.yaml"))
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.OutputDir != filepath.Join(dir, "out") {
		t.Errorf("output dir not resolved: %s", m.OutputDir)
	}

	jobs, err := m.LoadJobs()
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.Domain != model.DomainAccommodation {
		t.Errorf("expected accommodation, got %s", job.Domain)
	}
	if job.Brief.Destination.Name != "Paris" || job.Brief.Travelers.Adults != 2 {
		t.Errorf("brief not loaded: %+v", job.Brief)
	}
	if len(job.Candidates) != 1 || job.Candidates[0].ID != "h1" {
		t.Errorf("candidates not loaded: %+v", job.Candidates)
	}
}

func TestReadManifest_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"no jobs", "jobs: []\n"},
		{"missing paths", "jobs:\n  - name: a\n    domain: dining\n"},
		{"duplicate names", "jobs:\n  - {name: a, domain: dining, brief: b.yaml, candidates: c.json}\n  - {name: a, domain: dining, brief: b.yaml, candidates: c.json}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "m.yaml")
			writeFile(t, path, tt.content)
			if _, err := ReadManifest(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestManifest_UnknownDomain(t *testing.T) {
	m := &Manifest{Jobs: []ManifestEntry{{Name: "x", Domain: "cruises", Brief: "b", Candidates: "c"}}}
	if _, err := m.LoadJobs(); err == nil {
		t.Error("expected unknown domain error")
	}
}
