package implementation

import (
	"context"

	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/mapper"
	"ai-docsearch-be/internal/model"
	"ai-docsearch-be/internal/repository/contract"
	"ai-docsearch-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.DocumentChunk, error) {
	if len(ids) == 0 {
		return []*entity.DocumentChunk{}, nil
	}
	var models []*model.DocumentChunk
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	// Fewer rows than ids is fine: entries may have been removed since the
	// ids were recorded. Callers treat the result as partial evidence.
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) SearchByInnerProduct(ctx context.Context, vector []float32, topK int, userId uuid.UUID) ([]*contract.ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	// pgvector's <#> operator is the negative inner product, so the score
	// is flipped back and ordering by it descending yields the best match
	// first.
	type result struct {
		model.DocumentChunk
		Score float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, (document_chunks.embedding <#> ?) * -1 AS score", queryVector).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.user_id = ?", userId).
		Order("score DESC").
		Limit(topK).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk: r.mapper.ToEntity(&res.DocumentChunk),
			Score: res.Score,
		}
	}
	return scored, nil
}
