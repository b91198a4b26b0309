package service

import (
	"context"

	"coursehunter/internal/catalog"
	"coursehunter/internal/model"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService over an in-memory catalog.
type catalogService struct {
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(c *catalog.Catalog, logger zerolog.Logger) CatalogService {
	return &catalogService{
		catalog: c,
		logger:  logger.With().Str("service", "catalog").Logger(),
	}
}

// Search returns courses ranked against query.
func (s *catalogService) Search(ctx context.Context, query string) []catalog.Course {
	results := s.catalog.Search(query)

	s.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("catalog searched")

	return results
}

// GetByID retrieves a single course by ID.
func (s *catalogService) GetByID(ctx context.Context, id int) (*catalog.Course, error) {
	course, ok := s.catalog.Get(id)
	if !ok {
		s.logger.Debug().Int("course_id", id).Msg("course not found")
		return nil, model.ErrCourseNotFound
	}
	return &course, nil
}
