package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"ai-docsearch-be/internal/dto"
	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/memory"
	"ai-docsearch-be/internal/repository/specification"
	"ai-docsearch-be/internal/repository/unitofwork"
	"ai-docsearch-be/internal/websocket"
	"ai-docsearch-be/pkg/chunker"
	"ai-docsearch-be/pkg/embedding"
	"ai-docsearch-be/pkg/events"
	"ai-docsearch-be/pkg/llm"
	pktNats "ai-docsearch-be/pkg/nats"
	"ai-docsearch-be/pkg/parser"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IIngestionService interface {
	Consume(ctx context.Context) error
	ProcessDocument(ctx context.Context, documentId uuid.UUID) error
}

// ProgressNotifier pushes live progress to connected clients.
type ProgressNotifier interface {
	SendProgress(userID uuid.UUID, event websocket.ProgressEvent)
}

type ingestionService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	llmProvider       llm.LLMProvider
	chunkCfg          chunker.Config
	batchSize         int
	notifier          ProgressNotifier
	eventPublisher    *pktNats.Publisher
	progressCache     *memory.ProgressCache
}

func NewIngestionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	llmProvider llm.LLMProvider,
	chunkCfg chunker.Config,
	batchSize int,
	notifier ProgressNotifier,
	eventPublisher *pktNats.Publisher,
	progressCache *memory.ProgressCache,
) IIngestionService {
	return &ingestionService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		chunkCfg:          chunkCfg,
		batchSize:         batchSize,
		notifier:          notifier,
		eventPublisher:    eventPublisher,
		progressCache:     progressCache,
	}
}

func (s *ingestionService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			// Documents are independent, so each one gets its own goroutine
			go s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProcessDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if err := s.ProcessDocument(ctx, payload.DocumentId); err != nil {
		log.Printf("[ERROR] Failed to process document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}
	msg.Ack()
}

func (s *ingestionService) ProcessDocument(ctx context.Context, documentId uuid.UUID) error {
	log.Printf("[INFO] Processing document %s", documentId)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return err
	}
	if doc == nil {
		log.Printf("[WARN] Document not found, skipping: %s", documentId)
		return nil
	}

	// Re-ingest starts clean: stale chunks, stale progress, stale cache
	s.progressCache.Invalidate(doc.Id)
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().ResetProgress(ctx, doc.Id); err != nil {
		return err
	}

	parsed, err := s.parseFile(doc)
	if err != nil {
		// Unparseable uploads will not get better on retry
		log.Printf("[ERROR] Failed to parse document %s: %v", doc.Id, err)
		return nil
	}

	stages, err := chunker.StagesFor(doc.ProcType, s.chunkCfg, s.llmProvider)
	if err != nil {
		log.Printf("[ERROR] No chunk stages for document %s: %v", doc.Id, err)
		return nil
	}

	s.runStages(ctx, uow, doc, parsed, stages)

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "DOCUMENT_PROCESSED",
			Data: map[string]interface{}{
				"title":       doc.Title,
				"document_id": doc.Id,
				"user_id":     doc.UserId,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish DOCUMENT_PROCESSED event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Document processed: %s", doc.Id)
	return nil
}

func (s *ingestionService) parseFile(doc *entity.Document) (*parser.Document, error) {
	p, err := parser.ForDocument(doc.Extension, doc.ProcType)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(doc.StoragePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.Parse(f)
}

// runStages drives the whole pipeline for one document. Progress is split
// evenly across stages: stage idx owns the band up to stageBudget*(idx+1),
// and the last stage's band always ends at exactly 100 regardless of
// integer truncation. Within a band, every full embed batch advances
// progress proportionally to the count the stage declared upfront; the
// band is then closed to its exact end even when the stage produced
// nothing, failed mid-way, or lied about its count. Progress therefore
// never moves backwards and always lands on 100.
func (s *ingestionService) runStages(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document, parsed *parser.Document, stages []chunker.Stage) {
	stageBudget := 100.0 / float64(len(stages))
	sent := 0

	for idx, stage := range stages {
		target := int(stageBudget * float64(idx+1))
		if idx == len(stages)-1 {
			target = 100
		}

		sent = s.runStage(ctx, uow, doc, parsed, stage, stageBudget, sent)

		// Band close: re-synchronize to the exact band end
		if sent < target {
			s.advance(ctx, uow, doc, target-sent)
			sent = target
		}
	}
}

func (s *ingestionService) runStage(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document, parsed *parser.Document, stage chunker.Stage, stageBudget float64, sent int) int {
	declared, records, err := stage.Chunk(ctx, parsed)
	if err != nil {
		log.Printf("[ERROR] Stage %s failed for document %s: %v", stage.Tag(), doc.Id, err)
		return sent
	}
	if declared <= 0 {
		drain(records)
		return sent
	}

	sentInStage := 0
	batch := make([]chunker.Record, 0, s.batchSize)

	for rec := range records {
		batch = append(batch, rec)
		if len(batch) < s.batchSize {
			continue
		}

		if err := s.insertBatch(ctx, uow, doc, stage.Tag(), batch); err != nil {
			// Only this batch is lost: no increment, and the band close
			// settles its share of the progress
			log.Printf("[ERROR] Stage %s batch failed for document %s: %v", stage.Tag(), doc.Id, err)
			batch = batch[:0]
			continue
		}

		// Full batch: advance proportionally, never past the band
		delta := int(float64(len(batch)) / float64(declared) * stageBudget)
		if sentInStage+delta > int(stageBudget) {
			delta = int(stageBudget) - sentInStage
		}
		if delta > 0 {
			s.advance(ctx, uow, doc, delta)
			sentInStage += delta
			sent += delta
		}
		batch = batch[:0]
	}

	// Trailing partial batch is persisted without a proportional step;
	// the band close settles the remainder.
	if len(batch) > 0 {
		if err := s.insertBatch(ctx, uow, doc, stage.Tag(), batch); err != nil {
			log.Printf("[ERROR] Stage %s trailing batch failed for document %s: %v", stage.Tag(), doc.Id, err)
		}
	}
	return sent
}

func (s *ingestionService) insertBatch(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document, stageTag string, batch []chunker.Record) error {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Content
	}

	vectors, err := s.embeddingProvider.EmbedBatch(ctx, texts, embedding.TaskDocument)
	if err != nil {
		return err
	}

	chunks := make([]*entity.DocumentChunk, len(batch))
	for i, rec := range batch {
		chunks[i] = &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			PageNumber: rec.PageNumber,
			StageTag:   stageTag,
			Content:    rec.Content,
			Embedding:  vectors[i],
			CreatedAt:  time.Now(),
		}
	}

	// Each batch commits on its own so partial progress survives a crash
	return uow.DocumentChunkRepository().CreateBulk(ctx, chunks)
}

func (s *ingestionService) advance(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document, delta int) {
	if err := uow.DocumentRepository().IncrementProgress(ctx, doc.Id, delta); err != nil {
		log.Printf("[ERROR] Failed to increment progress for document %s: %v", doc.Id, err)
		return
	}
	doc.Progress += delta
	if doc.Progress > 100 {
		doc.Progress = 100
	}

	if s.notifier != nil {
		s.notifier.SendProgress(doc.UserId, websocket.ProgressEvent{
			DocumentId: doc.Id,
			Progress:   doc.Progress,
		})
	}
}

func drain(records <-chan chunker.Record) {
	for range records {
	}
}
