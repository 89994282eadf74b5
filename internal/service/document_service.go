package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

type documentStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.DocumentType, error)
}

// DocumentService serves the document type catalogue.
type DocumentService struct {
	repo   documentStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns document types. The boolean reports whether the result came from cache.
func (s *DocumentService) List(ctx context.Context, activeOnly bool) ([]models.DocumentType, bool, error) {
	key := "documents:all"
	if activeOnly {
		key = "documents:active"
	}
	var cached []models.DocumentType
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	docs, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document types")
	}
	if docs == nil {
		docs = []models.DocumentType{}
	}
	if err := s.cache.Set(ctx, key, docs, s.ttl); err != nil {
		s.logger.Debug("document catalogue not cached", zap.Error(err))
	}
	return docs, false, nil
}
