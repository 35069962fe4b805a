package rank

import (
	"sort"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/util"
)

// DiversityReranker lowers the score of results that repeat a brand or
// crowd a neighborhood already seen higher in the list
type DiversityReranker struct {
	classifier BrandClassifier
	cfg        model.DiversityConfig
}

// NewDiversityReranker creates a reranker. A nil classifier uses the
// configured brand list.
func NewDiversityReranker(cfg model.DiversityConfig, classifier BrandClassifier) *DiversityReranker {
	if classifier == nil {
		classifier = NewTokenBrandClassifier(cfg.Brands)
	}
	if cfg.NeighborhoodThreshold <= 0 {
		cfg.NeighborhoodThreshold = 2
	}
	return &DiversityReranker{classifier: classifier, cfg: cfg}
}

// Rerank walks results in score order once, subtracting
// BrandPenalty per earlier result of the same brand and a flat
// NeighborhoodPenalty once a neighborhood has appeared NeighborhoodThreshold
// times. Penalties are fractions of 100. The returned slice is a re-sorted copy.
func (r *DiversityReranker) Rerank(results []model.ScoredResult) []model.ScoredResult {
	out := make([]model.ScoredResult, len(results))
	copy(out, results)
	sortByScore(out)

	brands := make(map[Brand]int)
	hoods := make(map[string]int)

	for i := range out {
		res := &out[i]
		penalty := 0.0

		if brand, ok := r.classifier.ClassifyBrand(res.Name); ok {
			res.Brand = string(brand)
			penalty += r.cfg.BrandPenalty * 100 * float64(brands[brand])
			brands[brand]++
		}

		if hood := util.NormalizeName(res.Neighborhood); hood != "" {
			if hoods[hood] >= r.cfg.NeighborhoodThreshold {
				penalty += r.cfg.NeighborhoodPenalty * 100
			}
			hoods[hood]++
		}

		res.Score -= penalty
		if res.Score < 0 {
			res.Score = 0
		}
	}

	sortByScore(out)
	return out
}

// sortByScore orders descending, keeping input order among equal scores
func sortByScore(results []model.ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
