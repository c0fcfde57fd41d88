package contract

import (
	"context"

	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk pairs a chunk with its inner-product score for one query.
type ScoredChunk struct {
	Chunk *entity.DocumentChunk
	Score float64
}

// DocumentChunkRepository is the vector index. Entries are immutable once
// inserted; search ranks by inner product against the stored vectors.
type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error

	// SearchByInnerProduct returns the topK chunks owned by userId ranked
	// by inner product with the query vector, highest first.
	SearchByInnerProduct(ctx context.Context, vector []float32, topK int, userId uuid.UUID) ([]*ScoredChunk, error)
}
