package dto

import "github.com/google/uuid"

// ProcessDocumentMessage is the ingest queue payload.
type ProcessDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
