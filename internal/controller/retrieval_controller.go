package controller

import (
	"ai-docsearch-be/internal/dto"
	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/pkg/serverutils"
	"ai-docsearch-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRetrievalController interface {
	RegisterRoutes(r fiber.Router)
	Retrieve(ctx *fiber.Ctx) error
}

type retrievalController struct {
	retrievalService service.IRetrievalService
}

func NewRetrievalController(retrievalService service.IRetrievalService) IRetrievalController {
	return &retrievalController{
		retrievalService: retrievalService,
	}
}

func (c *retrievalController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/retrieval/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Retrieve)
}

func (c *retrievalController) Retrieve(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromLocals(ctx)
	if err != nil {
		return err
	}

	var req dto.RetrievalRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	turns := make([]entity.ChatTurn, 0, len(req.Messages))
	for _, msg := range req.Messages {
		turns = append(turns, entity.ChatTurn{
			User:      msg.User,
			Assistant: msg.Assistant,
			DocIds:    msg.DocIds,
			ChunkIds:  msg.ChunkIds,
		})
	}

	searched, fused := c.retrievalService.Retrieve(ctx.Context(), userId, turns)

	return ctx.JSON(serverutils.SuccessResponse("Success retrieve documents", dto.RetrievalResponse{
		SearchedDocs:  toEvidenceResponses(searched),
		RetrievedDocs: toEvidenceResponses(fused),
	}))
}

func toEvidenceResponses(items []entity.RetrievedEvidence) []dto.EvidenceResponse {
	res := make([]dto.EvidenceResponse, 0, len(items))
	for _, item := range items {
		res = append(res, dto.EvidenceResponse{
			Id:           item.Id,
			DocId:        item.DocumentId,
			PageNumber:   item.PageNumber,
			ChunkContent: item.Content,
			Score:        item.Score,
		})
	}
	return res
}
