package dto

import "github.com/google/uuid"

// ChatTurnRequest is one turn of the conversation, oldest first.
// ChunkIds being null means the turn has never been retrieved against;
// an empty array means retrieval ran and matched nothing.
type ChatTurnRequest struct {
	User      string      `json:"user" validate:"required"`
	Assistant *string     `json:"assistant"`
	DocIds    []uuid.UUID `json:"doc_ids"`
	ChunkIds  []uuid.UUID `json:"chunk_ids"`
}

type RetrievalRequest struct {
	ChatId   uuid.UUID         `json:"chat_id" validate:"required"`
	Messages []ChatTurnRequest `json:"messages" validate:"required,min=1,dive"`
}

type EvidenceResponse struct {
	Id           uuid.UUID `json:"id"`
	DocId        uuid.UUID `json:"doc_id"`
	PageNumber   int       `json:"page_number"`
	ChunkContent string    `json:"chunk_content"`
	Score        float64   `json:"score"`
}

type RetrievalResponse struct {
	SearchedDocs  []EvidenceResponse `json:"searched_docs"`
	RetrievedDocs []EvidenceResponse `json:"retrieved_docs"`
}
