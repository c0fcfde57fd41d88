package service

import (
	"context"
	"errors"
	"testing"

	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/contract"
	"ai-docsearch-be/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueryEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeQueryEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return [][]float32{e.vector}, nil
}

func scoredChunk(score float64) *contract.ScoredChunk {
	return &contract.ScoredChunk{
		Chunk: &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: uuid.New(),
			Content:    "chunk",
			Embedding:  []float32{1, 0},
		},
		Score: score,
	}
}

func newRetrievalTestService(uow *fakeUow, embedder *fakeQueryEmbedder) *retrievalService {
	return &retrievalService{
		uowFactory:        &fakeFactory{uow: uow},
		embeddingProvider: embedder,
		staticThreshold:   0.5,
		dynamic:           search.DynamicThreshold{Kind: search.StrategyPercentage, Value: 0.15},
		topK:              5,
		numRetrieveDocs:   5,
		historyWindow:     10,
	}
}

func turn(user string, chunkIds []uuid.UUID) entity.ChatTurn {
	return entity.ChatTurn{User: user, ChunkIds: chunkIds}
}

func TestRetrieveNoTurns(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newRetrievalTestService(uow, &fakeQueryEmbedder{vector: []float32{1, 0}})

	searched, fused := s.Retrieve(context.Background(), uuid.New(), nil)
	assert.Empty(t, searched)
	assert.Empty(t, fused)
}

func TestRetrieveEmbedderFailureDegrades(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newRetrievalTestService(uow, &fakeQueryEmbedder{err: errors.New("embedder down")})

	searched, fused := s.Retrieve(context.Background(), uuid.New(), []entity.ChatTurn{turn("q", nil)})
	assert.NotNil(t, searched)
	assert.Empty(t, searched)
	assert.Empty(t, fused)
}

func TestRetrieveSingleTurnFilters(t *testing.T) {
	// top1=0.9, pct 0.15 -> cutoff 0.765; static floor 0.5
	hits := []*contract.ScoredChunk{scoredChunk(0.9), scoredChunk(0.8), scoredChunk(0.6)}
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{searchHits: hits}}
	s := newRetrievalTestService(uow, &fakeQueryEmbedder{vector: []float32{1, 0}})

	searched, fused := s.Retrieve(context.Background(), uuid.New(), []entity.ChatTurn{turn("q", nil)})

	require.Len(t, searched, 2)
	assert.Equal(t, 0.9, searched[0].Score)
	assert.Equal(t, 0.8, searched[1].Score)

	// Single turn: fusion weight is 1.0, so fused mirrors searched
	require.Len(t, fused, 2)
	assert.Equal(t, searched[0].Id, fused[0].Id)
	assert.Equal(t, 0.9, fused[0].Score)
}

func TestRetrieveNilChunkIdsSkipsLookup(t *testing.T) {
	chunks := &fakeChunkRepo{searchHits: []*contract.ScoredChunk{scoredChunk(0.9)}}
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: chunks}
	s := newRetrievalTestService(uow, &fakeQueryEmbedder{vector: []float32{1, 0}})

	turns := []entity.ChatTurn{
		turn("old question, never cited", nil),
		turn("old question, cited nothing", []uuid.UUID{}),
		turn("current question", nil),
	}
	_, fused := s.Retrieve(context.Background(), uuid.New(), turns)

	assert.Equal(t, 0, chunks.findCalls)
	assert.Len(t, fused, 1)
}

func TestRetrieveFusesHistoricalCitations(t *testing.T) {
	// Historical citation aligned with the query vector scores 1.0 raw,
	// then decays by the two-turn recency ramp to 0.1
	cited := &entity.DocumentChunk{
		Id:         uuid.New(),
		DocumentId: uuid.New(),
		Content:    "old evidence",
		Embedding:  []float32{1, 0},
	}
	chunks := &fakeChunkRepo{
		searchHits: []*contract.ScoredChunk{scoredChunk(0.9)},
		byId:       map[uuid.UUID]*entity.DocumentChunk{cited.Id: cited},
	}
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: chunks}
	s := newRetrievalTestService(uow, &fakeQueryEmbedder{vector: []float32{1, 0}})

	turns := []entity.ChatTurn{
		turn("earlier question", []uuid.UUID{cited.Id}),
		turn("current question", nil),
	}
	searched, fused := s.Retrieve(context.Background(), uuid.New(), turns)

	// Fresh search is unaffected by history
	require.Len(t, searched, 1)

	require.Len(t, fused, 2)
	assert.Equal(t, 0.9, fused[0].Score) // fresh hit, weight 1.0
	assert.Equal(t, cited.Id, fused[1].Id)
	assert.InDelta(t, 0.1, fused[1].Score, 1e-9) // 1.0 * 0.1
	assert.Equal(t, 1, chunks.findCalls)
}

func TestRetrieveHistoryWindow(t *testing.T) {
	chunks := &fakeChunkRepo{searchHits: []*contract.ScoredChunk{scoredChunk(0.9)}}
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: chunks}
	s := newRetrievalTestService(uow, &fakeQueryEmbedder{vector: []float32{1, 0}})
	s.historyWindow = 2

	// The out-of-window turn carries citations that must never be loaded
	outOfWindow := turn("ancient question", []uuid.UUID{uuid.New()})
	turns := []entity.ChatTurn{outOfWindow, turn("recent", nil), turn("current", nil)}

	_, fused := s.Retrieve(context.Background(), uuid.New(), turns)

	assert.Equal(t, 0, chunks.findCalls)
	assert.Len(t, fused, 1)
}

func TestRetrieveFusedIsCutToLimit(t *testing.T) {
	hits := []*contract.ScoredChunk{
		scoredChunk(0.99), scoredChunk(0.98), scoredChunk(0.97), scoredChunk(0.96),
	}
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{searchHits: hits}}
	s := newRetrievalTestService(uow, &fakeQueryEmbedder{vector: []float32{1, 0}})
	s.numRetrieveDocs = 2

	searched, fused := s.Retrieve(context.Background(), uuid.New(), []entity.ChatTurn{turn("q", nil)})

	// The searched list is not cut, only the fused one
	assert.Len(t, searched, 4)
	assert.Len(t, fused, 2)
}
