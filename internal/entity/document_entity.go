package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is the metadata row for one uploaded file. Progress is owned by
// the ingestion pipeline: 0 at upload, 100 once every chunk stage has closed.
type Document struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Title       string
	Extension   string
	ProcType    string
	StoragePath string
	Progress    int
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
