package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type DocumentChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	PageNumber int             `gorm:"not null;default:0"`
	StageTag   string          `gorm:"size:30;not null"`
	Content    string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // dimension must match EMBEDDING_DIMENSION
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
