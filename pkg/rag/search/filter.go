package search

import (
	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/contract"
)

// Filter applies the adaptive threshold to one search result set. A hit
// survives only when its score strictly exceeds both the dynamic cutoff
// and the static floor; ties at either boundary are dropped. The engine's
// native rank order is preserved.
func Filter(hits []*contract.ScoredChunk, staticThreshold float64, dynamic DynamicThreshold) []entity.RetrievedEvidence {
	evidence := []entity.RetrievedEvidence{}
	if len(hits) == 0 {
		return evidence
	}

	cutoff := dynamic.Cutoff(hits[0].Score)

	for _, hit := range hits {
		if hit.Score > cutoff && hit.Score > staticThreshold {
			evidence = append(evidence, entity.RetrievedEvidence{
				Id:         hit.Chunk.Id,
				DocumentId: hit.Chunk.DocumentId,
				PageNumber: hit.Chunk.PageNumber,
				Content:    hit.Chunk.Content,
				Score:      hit.Score,
			})
		}
	}

	return evidence
}
