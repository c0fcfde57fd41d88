package fusion

import (
	"math"
	"sort"

	"ai-docsearch-be/internal/entity"

	"github.com/google/uuid"
)

// Weights returns recency multipliers for n per-turn evidence lists
// ordered oldest to newest. The ramp is log-spaced between 10^0 and 10^1
// and normalized by its maximum, so the newest turn always weighs 1.0 and
// the oldest decays non-linearly down to 0.1 for n >= 2.
func Weights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1.0}
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Pow(10, float64(i)/float64(n-1))
	}
	max := weights[n-1]
	for i := range weights {
		weights[i] /= max
	}
	return weights
}

// Rerank fuses per-turn evidence lists (oldest to newest) into one ranked,
// deduplicated list. Each item's score is multiplied by its turn weight;
// when a chunk appears in several turns only its best weighted appearance
// survives. The result is sorted by weighted score descending and cut to
// limit.
func Rerank(perTurn [][]entity.RetrievedEvidence, limit int) []entity.RetrievedEvidence {
	weights := Weights(len(perTurn))

	best := make(map[uuid.UUID]entity.RetrievedEvidence)
	for i, turn := range perTurn {
		for _, item := range turn {
			weighted := item.Score * weights[i]
			if existing, ok := best[item.Id]; ok && existing.Score >= weighted {
				continue
			}
			item.Score = weighted
			best[item.Id] = item
		}
	}

	ranked := make([]entity.RetrievedEvidence, 0, len(best))
	for _, item := range best {
		ranked = append(ranked, item)
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
