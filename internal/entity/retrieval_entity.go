package entity

import "github.com/google/uuid"

// ChatTurn is one user/assistant exchange as supplied by the chat backend.
// ChunkIds is the frozen citation set recorded when the turn was originally
// answered; a nil slice means the turn never had citations and must not
// trigger an index lookup.
type ChatTurn struct {
	User      string
	Assistant *string
	DocIds    []uuid.UUID
	ChunkIds  []uuid.UUID
}

// RetrievedEvidence is a transient, per-query scored chunk. Scores are
// relative to the current query and not comparable across queries.
type RetrievedEvidence struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	PageNumber int
	Content    string
	Score      float64
}
