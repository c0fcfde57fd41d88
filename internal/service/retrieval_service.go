package service

import (
	"context"
	"log"

	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/unitofwork"
	"ai-docsearch-be/pkg/embedding"
	"ai-docsearch-be/pkg/rag/fusion"
	"ai-docsearch-be/pkg/rag/history"
	"ai-docsearch-be/pkg/rag/search"

	"github.com/google/uuid"
)

type IRetrievalService interface {
	// Retrieve runs the multi-turn pipeline: fresh search on the newest
	// turn, re-scoring of historical citations, recency-weighted fusion.
	// It degrades instead of failing: any collaborator error costs only
	// the affected turn's evidence.
	Retrieve(ctx context.Context, userId uuid.UUID, turns []entity.ChatTurn) (searched, fused []entity.RetrievedEvidence)
}

type retrievalService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider

	staticThreshold float64
	dynamic         search.DynamicThreshold
	topK            int
	numRetrieveDocs int
	historyWindow   int
}

func NewRetrievalService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	staticThreshold float64,
	dynamic search.DynamicThreshold,
	topK int,
	numRetrieveDocs int,
	historyWindow int,
) IRetrievalService {
	return &retrievalService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		staticThreshold:   staticThreshold,
		dynamic:           dynamic,
		topK:              topK,
		numRetrieveDocs:   numRetrieveDocs,
		historyWindow:     historyWindow,
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, userId uuid.UUID, turns []entity.ChatTurn) ([]entity.RetrievedEvidence, []entity.RetrievedEvidence) {
	empty := []entity.RetrievedEvidence{}
	if len(turns) == 0 {
		return empty, empty
	}
	if s.historyWindow > 0 && len(turns) > s.historyWindow {
		turns = turns[len(turns)-s.historyWindow:]
	}

	// One embedding per request: the newest question scores everything,
	// fresh hits and frozen citations alike
	newest := turns[len(turns)-1]
	vectors, err := s.embeddingProvider.EmbedBatch(ctx, []string{newest.User}, embedding.TaskQuery)
	if err != nil || len(vectors) == 0 {
		log.Printf("[ERROR] Failed to embed query: %v", err)
		return empty, empty
	}
	queryVector := vectors[0]

	uow := s.uowFactory.NewUnitOfWork(ctx)

	searched := empty
	hits, err := uow.DocumentChunkRepository().SearchByInnerProduct(ctx, queryVector, s.topK, userId)
	if err != nil {
		log.Printf("[ERROR] Vector search failed: %v", err)
	} else {
		searched = search.Filter(hits, s.staticThreshold, s.dynamic)
	}

	// Every turn keeps its slot, even an empty one: fusion weights are
	// positional and a turn without evidence must not shift its neighbors
	perTurn := make([][]entity.RetrievedEvidence, len(turns))
	perTurn[len(turns)-1] = searched
	for i := len(turns) - 2; i >= 0; i-- {
		perTurn[i] = s.rescoreTurn(ctx, uow, queryVector, turns[i])
	}

	return searched, fusion.Rerank(perTurn, s.numRetrieveDocs)
}

func (s *retrievalService) rescoreTurn(ctx context.Context, uow unitofwork.UnitOfWork, queryVector []float32, turn entity.ChatTurn) []entity.RetrievedEvidence {
	if len(turn.ChunkIds) == 0 {
		// nil: the turn never cited anything; empty: retrieval ran and
		// matched nothing. Neither warrants an index lookup.
		return []entity.RetrievedEvidence{}
	}

	chunks, err := uow.DocumentChunkRepository().FindByIds(ctx, turn.ChunkIds)
	if err != nil {
		log.Printf("[ERROR] Failed to load cited chunks: %v", err)
		return []entity.RetrievedEvidence{}
	}
	return history.Rescore(queryVector, chunks)
}
