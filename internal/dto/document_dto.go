package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentRequest struct {
	Title    string `json:"title" validate:"required"`
	ProcType string `json:"proc_type"` // empty means rule-based only
}

type UploadDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ListDocumentsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Extension string     `json:"extension"`
	Progress  int        `json:"progress"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type DocumentProgressResponse struct {
	Id       uuid.UUID `json:"id"`
	Progress int       `json:"progress"`
}
