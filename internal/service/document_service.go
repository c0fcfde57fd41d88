package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-docsearch-be/internal/dto"
	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/memory"
	"ai-docsearch-be/internal/repository/specification"
	"ai-docsearch-be/internal/repository/unitofwork"
	"ai-docsearch-be/pkg/events"
	pktNats "ai-docsearch-be/pkg/nats"
	"ai-docsearch-be/pkg/parser"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest, file *multipart.FileHeader) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ListDocumentsResponse, error)
	Progress(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentProgressResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	progressCache    *memory.ProgressCache
	uploadDir        string
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	progressCache *memory.ProgressCache,
	uploadDir string,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		progressCache:    progressCache,
		uploadDir:        uploadDir,
	}
}

func (c *documentService) Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest, file *multipart.FileHeader) (*dto.UploadDocumentResponse, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")

	// Reject unsupported extension/proc_type pairs before anything is
	// persisted; ingestion would otherwise fail silently later
	if _, err := parser.ForDocument(ext, req.ProcType); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	doc := entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     req.Title,
		Extension: ext,
		ProcType:  req.ProcType,
		Progress:  0,
		CreatedAt: time.Now(),
	}
	doc.StoragePath = filepath.Join(c.uploadDir, fmt.Sprintf("%s.%s", doc.Id, ext))

	if err := c.saveFile(file, doc.StoragePath); err != nil {
		return nil, err
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		os.Remove(doc.StoragePath)
		return nil, err
	}

	msgJson, err := json.Marshal(dto.ProcessDocumentMessage{DocumentId: doc.Id})
	if err != nil {
		return nil, err
	}
	if err := c.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	if c.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "DOCUMENT_UPLOADED",
			Data: map[string]interface{}{
				"title":       doc.Title,
				"document_id": doc.Id,
				"user_id":     userId,
			},
			OccurredAt: time.Now(),
		}
		// Auxiliary: log and move on, never fail the upload
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish DOCUMENT_UPLOADED event: %v\n", err)
		}
	}

	return &dto.UploadDocumentResponse{Id: doc.Id}, nil
}

func (c *documentService) saveFile(file *multipart.FileHeader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (c *documentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ListDocumentsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ListDocumentsResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, &dto.ListDocumentsResponse{
			Id:        doc.Id,
			Title:     doc.Title,
			Extension: doc.Extension,
			Progress:  doc.Progress,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return res, nil
}

// Progress serves the polling endpoint. Finished documents are cached so
// repeated polls stop hitting the database once ingestion is done.
func (c *documentService) Progress(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentProgressResponse, error) {
	if progress, ok := c.progressCache.Get(id); ok {
		return &dto.DocumentProgressResponse{Id: id, Progress: progress}, nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil // Not found
	}

	if doc.Progress >= 100 {
		c.progressCache.Set(id, doc.Progress)
	}
	return &dto.DocumentProgressResponse{Id: doc.Id, Progress: doc.Progress}, nil
}
