package embedding

import "context"

// Task types passed through to providers that distinguish between indexing
// and querying embeddings.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// Provider generates embeddings for a batch of texts. Implementations must
// preserve input order and return one vector per input text.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}
