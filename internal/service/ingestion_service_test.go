package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/contract"
	"ai-docsearch-be/internal/repository/memory"
	"ai-docsearch-be/internal/repository/specification"
	"ai-docsearch-be/internal/repository/unitofwork"
	"ai-docsearch-be/internal/websocket"
	"ai-docsearch-be/pkg/chunker"
	"ai-docsearch-be/pkg/parser"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeDocumentRepo struct {
	doc        *entity.Document
	increments []int
	progress   int
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entity.Document) error { return nil }
func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return r.doc, nil
}
func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return nil, nil
}
func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (r *fakeDocumentRepo) IncrementProgress(ctx context.Context, id uuid.UUID, delta int) error {
	r.increments = append(r.increments, delta)
	r.progress += delta
	if r.progress > 100 {
		r.progress = 100
	}
	return nil
}
func (r *fakeDocumentRepo) ResetProgress(ctx context.Context, id uuid.UUID) error {
	r.progress = 0
	return nil
}

type fakeChunkRepo struct {
	batchSizes []int
	inserted   []*entity.DocumentChunk
	deleted    []uuid.UUID
	byId       map[uuid.UUID]*entity.DocumentChunk
	searchHits []*contract.ScoredChunk
	searchErr  error
	findCalls  int
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	r.batchSizes = append(r.batchSizes, len(chunks))
	r.inserted = append(r.inserted, chunks...)
	return nil
}
func (r *fakeChunkRepo) FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.DocumentChunk, error) {
	r.findCalls++
	var out []*entity.DocumentChunk
	for _, id := range ids {
		if c, ok := r.byId[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
func (r *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.inserted)), nil
}
func (r *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.deleted = append(r.deleted, documentId)
	return nil
}
func (r *fakeChunkRepo) SearchByInnerProduct(ctx context.Context, vector []float32, topK int, userId uuid.UUID) ([]*contract.ScoredChunk, error) {
	return r.searchHits, r.searchErr
}

type fakeUow struct {
	docs   *fakeDocumentRepo
	chunks *fakeChunkRepo
}

func (u *fakeUow) Begin(ctx context.Context) error                          { return nil }
func (u *fakeUow) Commit() error                                            { return nil }
func (u *fakeUow) Rollback() error                                          { return nil }
func (u *fakeUow) DocumentRepository() contract.DocumentRepository          { return u.docs }
func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository { return u.chunks }

type fakeFactory struct{ uow *fakeUow }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeEmbedder struct {
	calls  int
	failOn map[int]bool // 1-based call numbers that fail
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	e.calls++
	if e.failOn[e.calls] {
		return nil, errors.New("embedder down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeStage struct {
	tag      string
	declared int
	records  []chunker.Record
	err      error
}

func (s *fakeStage) Tag() string { return s.tag }
func (s *fakeStage) Chunk(ctx context.Context, doc *parser.Document) (int, <-chan chunker.Record, error) {
	if s.err != nil {
		return 0, nil, s.err
	}
	ch := make(chan chunker.Record)
	go func() {
		defer close(ch)
		for _, rec := range s.records {
			ch <- rec
		}
	}()
	return s.declared, ch, nil
}

type fakeNotifier struct {
	events []websocket.ProgressEvent
}

func (n *fakeNotifier) SendProgress(userID uuid.UUID, event websocket.ProgressEvent) {
	n.events = append(n.events, event)
}

func records(n int) []chunker.Record {
	out := make([]chunker.Record, n)
	for i := range out {
		out[i] = chunker.Record{Content: fmt.Sprintf("chunk %d", i), PageNumber: 1}
	}
	return out
}

func newTestService(uow *fakeUow, embedder *fakeEmbedder, notifier *fakeNotifier, batchSize int) *ingestionService {
	return &ingestionService{
		uowFactory:        &fakeFactory{uow: uow},
		embeddingProvider: embedder,
		batchSize:         batchSize,
		notifier:          notifier,
		progressCache:     memory.NewProgressCache(time.Second),
	}
}

func testDoc() *entity.Document {
	return &entity.Document{Id: uuid.New(), UserId: uuid.New(), Title: "doc"}
}

// --- tests ---

func TestRunStagesSingleStage(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	notifier := &fakeNotifier{}
	s := newTestService(uow, &fakeEmbedder{}, notifier, 4)
	doc := testDoc()

	stages := []chunker.Stage{&fakeStage{tag: "rule_based", declared: 10, records: records(10)}}
	s.runStages(context.Background(), uow, doc, &parser.Document{}, stages)

	// 10 chunks, batch 4: two full batches plus a trailing pair
	assert.Equal(t, []int{4, 4, 2}, uow.chunks.batchSizes)
	// Two proportional steps of 40, then the band close settles 20
	assert.Equal(t, []int{40, 40, 20}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)

	require.Len(t, notifier.events, 3)
	assert.Equal(t, 40, notifier.events[0].Progress)
	assert.Equal(t, 80, notifier.events[1].Progress)
	assert.Equal(t, 100, notifier.events[2].Progress)
	for _, evt := range notifier.events {
		assert.Equal(t, doc.Id, evt.DocumentId)
	}
}

func TestRunStagesMultiStageBands(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{}, &fakeNotifier{}, 4)

	stages := []chunker.Stage{
		&fakeStage{tag: "rule_based", declared: 4, records: records(4)},
		&fakeStage{tag: "llm_based", declared: 3, records: records(3)},
	}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	// Stage 1 fills its whole band with one full batch; stage 2 has no
	// full batch and relies entirely on its band close to reach 100
	assert.Equal(t, []int{4, 3}, uow.chunks.batchSizes)
	assert.Equal(t, []int{50, 50}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)
}

func TestRunStagesThreeStagesEndAt100(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{}, &fakeNotifier{}, 4)

	// 100/3 truncates to 33; the last band must still close at 100
	stages := []chunker.Stage{
		&fakeStage{tag: "a", declared: 1, records: records(1)},
		&fakeStage{tag: "b", declared: 1, records: records(1)},
		&fakeStage{tag: "c", declared: 1, records: records(1)},
	}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	assert.Equal(t, []int{33, 33, 34}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)
}

func TestRunStagesZeroChunkStageStillCloses(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{}, &fakeNotifier{}, 4)

	stages := []chunker.Stage{
		&fakeStage{tag: "a", declared: 0},
		&fakeStage{tag: "b", declared: 0},
	}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	assert.Empty(t, uow.chunks.batchSizes)
	assert.Equal(t, []int{50, 50}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)
}

func TestRunStagesFailedStageSkipsButCloses(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{}, &fakeNotifier{}, 4)

	stages := []chunker.Stage{
		&fakeStage{tag: "a", err: errors.New("stage broke")},
		&fakeStage{tag: "b", declared: 2, records: records(2)},
	}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	// Only stage b's trailing batch lands, but progress still hits 100
	assert.Equal(t, []int{2}, uow.chunks.batchSizes)
	assert.Equal(t, []int{50, 50}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)
}

func TestRunStagesUnderDeclaredCountIsClamped(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{}, &fakeNotifier{}, 4)

	// Stage declares 4 but streams 8: the second full batch would
	// overshoot the band and must be clamped to zero
	stages := []chunker.Stage{&fakeStage{tag: "liar", declared: 4, records: records(8)}}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	assert.Equal(t, []int{4, 4}, uow.chunks.batchSizes)
	assert.Equal(t, []int{100}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)
}

func TestRunStagesTransientBatchFailureSkipsOnlyThatBatch(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{failOn: map[int]bool{2: true}}, &fakeNotifier{}, 4)

	stages := []chunker.Stage{&fakeStage{tag: "rule_based", declared: 12, records: records(12)}}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	// The middle batch is the only loss: batches one and three land,
	// each with its proportional step, and the band close settles the rest
	assert.Equal(t, []int{4, 4}, uow.chunks.batchSizes)
	assert.Len(t, uow.chunks.inserted, 8)
	assert.Equal(t, []int{33, 33, 34}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)
}

func TestRunStagesPersistentEmbedFailureStillCloses(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{failOn: map[int]bool{2: true, 3: true}}, &fakeNotifier{}, 4)

	stages := []chunker.Stage{&fakeStage{tag: "rule_based", declared: 10, records: records(10)}}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	// Only the first batch lands; later batches and the trailing pair
	// keep failing, and the band close still drives progress to 100
	assert.Equal(t, []int{4}, uow.chunks.batchSizes)
	assert.Equal(t, []int{40, 60}, uow.docs.increments)
	assert.Equal(t, 100, uow.docs.progress)
}

func TestRunStagesProgressIsMonotonic(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}
	notifier := &fakeNotifier{}
	s := newTestService(uow, &fakeEmbedder{}, notifier, 3)

	stages := []chunker.Stage{
		&fakeStage{tag: "a", declared: 7, records: records(7)},
		&fakeStage{tag: "b", declared: 5, records: records(5)},
	}
	s.runStages(context.Background(), uow, testDoc(), &parser.Document{}, stages)

	last := 0
	for _, evt := range notifier.events {
		assert.GreaterOrEqual(t, evt.Progress, last)
		last = evt.Progress
	}
	assert.Equal(t, 100, last)
	for _, delta := range uow.docs.increments {
		assert.Greater(t, delta, 0)
	}
}

func TestProcessDocumentEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	content := "The quick brown fox jumps over the lazy dog. It keeps running across the meadow until sundown."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc := testDoc()
	doc.Extension = "txt"
	doc.ProcType = "text/plain"
	doc.StoragePath = path

	uow := &fakeUow{docs: &fakeDocumentRepo{doc: doc}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{}, &fakeNotifier{}, 4)
	s.chunkCfg = chunker.Config{ChunkSize: 40, ChunkOverlap: 10, MinChunkSize: 5}

	require.NoError(t, s.ProcessDocument(context.Background(), doc.Id))

	// Stale state cleared before the run
	assert.Equal(t, []uuid.UUID{doc.Id}, uow.chunks.deleted)

	require.NotEmpty(t, uow.chunks.inserted)
	for _, chunk := range uow.chunks.inserted {
		assert.Equal(t, doc.Id, chunk.DocumentId)
		assert.Equal(t, "rule_based", chunk.StageTag)
		assert.NotEmpty(t, chunk.Content)
		assert.Len(t, chunk.Embedding, 3)
	}
	assert.Equal(t, 100, uow.docs.progress)
}

func TestProcessDocumentMissingDocumentIsSkipped(t *testing.T) {
	uow := &fakeUow{docs: &fakeDocumentRepo{doc: nil}, chunks: &fakeChunkRepo{}}
	s := newTestService(uow, &fakeEmbedder{}, &fakeNotifier{}, 4)

	assert.NoError(t, s.ProcessDocument(context.Background(), uuid.New()))
	assert.Empty(t, uow.chunks.deleted)
	assert.Empty(t, uow.docs.increments)
}
