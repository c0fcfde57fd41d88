package history

import (
	"ai-docsearch-be/internal/entity"
)

// Rescore scores frozen citation chunks against the current query
// embedding by inner product over their stored vectors. Historical chunk
// sets are never re-searched; the scores simply tell how relevant each old
// citation still is to the present question.
func Rescore(queryVector []float32, chunks []*entity.DocumentChunk) []entity.RetrievedEvidence {
	evidence := make([]entity.RetrievedEvidence, 0, len(chunks))
	for _, chunk := range chunks {
		evidence = append(evidence, entity.RetrievedEvidence{
			Id:         chunk.Id,
			DocumentId: chunk.DocumentId,
			PageNumber: chunk.PageNumber,
			Content:    chunk.Content,
			Score:      Dot(queryVector, chunk.Embedding),
		})
	}
	return evidence
}

// Dot is the inner product of two vectors. Mismatched lengths score over
// the common prefix; in practice all vectors share the configured
// dimension.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
