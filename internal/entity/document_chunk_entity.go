package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one indexed fragment of a document. Rows are immutable
// once inserted; ids are generated by the ingestion pipeline at insert time.
type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	PageNumber int
	StageTag   string
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
