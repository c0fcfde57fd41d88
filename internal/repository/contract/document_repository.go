package contract

import (
	"context"

	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/specification"

	"github.com/google/uuid"
)

// DocumentRepository persists document metadata rows and acts as the
// progress store for the ingestion pipeline.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// IncrementProgress adds delta to the document's progress column,
	// capped at 100. Concurrent increments for the same document are
	// serialized by the pipeline's sequential stage/batch execution, not
	// by the store.
	IncrementProgress(ctx context.Context, id uuid.UUID, delta int) error

	// ResetProgress zeroes the progress column before a (re)ingest run.
	ResetProgress(ctx context.Context, id uuid.UUID) error
}
