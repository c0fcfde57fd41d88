package controller

import (
	"context"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-docsearch-be/internal/dto"
	"ai-docsearch-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocumentService struct {
	listCalls int
	listUser  uuid.UUID
}

func (s *stubDocumentService) Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest, file *multipart.FileHeader) (*dto.UploadDocumentResponse, error) {
	return &dto.UploadDocumentResponse{}, nil
}

func (s *stubDocumentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ListDocumentsResponse, error) {
	s.listCalls++
	s.listUser = userId
	return nil, nil
}

func (s *stubDocumentService) Progress(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentProgressResponse, error) {
	return &dto.DocumentProgressResponse{}, nil
}

type stubRetrievalService struct {
	calls int
}

func (s *stubRetrievalService) Retrieve(ctx context.Context, userId uuid.UUID, turns []entity.ChatTurn) ([]entity.RetrievedEvidence, []entity.RetrievedEvidence) {
	s.calls++
	return nil, nil
}

// newTestApp mounts the handlers behind a middleware that injects the
// given user_id local, standing in for the JWT middleware.
func newTestApp(userId interface{}, docs *stubDocumentService, retrieval *stubRetrievalService) *fiber.App {
	app := fiber.New()
	app.Use(func(ctx *fiber.Ctx) error {
		if userId != nil {
			ctx.Locals("user_id", userId)
		}
		return ctx.Next()
	})

	dc := &documentController{documentService: docs}
	app.Post("/document/v1", dc.Upload)
	app.Get("/document/v1", dc.List)
	app.Get("/document/v1/:id/progress", dc.Progress)

	rc := &retrievalController{retrievalService: retrieval}
	app.Post("/retrieval/v1", rc.Retrieve)
	return app
}

func TestHandlersRejectMalformedUserId(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"upload", "POST", "/document/v1"},
		{"list", "GET", "/document/v1"},
		{"progress", "GET", "/document/v1/" + uuid.New().String() + "/progress"},
		{"retrieve", "POST", "/retrieval/v1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			docs := &stubDocumentService{}
			retrieval := &stubRetrievalService{}
			app := newTestApp("not-a-uuid", docs, retrieval)

			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)

			// A token whose user_id does not parse must be rejected,
			// never scoped down to the zero UUID
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Zero(t, docs.listCalls)
			assert.Zero(t, retrieval.calls)
		})
	}
}

func TestListPassesParsedUserIdToService(t *testing.T) {
	userId := uuid.New()
	docs := &stubDocumentService{}
	app := newTestApp(userId.String(), docs, &stubRetrievalService{})

	req := httptest.NewRequest("GET", "/document/v1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, docs.listCalls)
	assert.Equal(t, userId, docs.listUser)
}
