package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"projecttracker/internal/model"
)

type definitionStore interface {
	InsertDefinition(ctx context.Context, d *model.MilestoneDefinition) (int, error)
	DeleteDefinition(ctx context.Context, id int) error
	ListDefinitions(ctx context.Context) ([]model.MilestoneDefinition, error)
}

// CatalogService is the administrator surface over milestone definitions.
type CatalogService struct {
	definitions definitionStore
	logger      *zap.Logger
}

func NewCatalogService(definitions definitionStore, log *zap.Logger) *CatalogService {
	return &CatalogService{
		definitions: definitions,
		logger:      log,
	}
}

// Create adds a milestone definition to the catalog. The category must be
// one of the closed set; definitions created here are never protected.
func (s *CatalogService) Create(ctx context.Context, d *model.MilestoneDefinition) error {
	if !d.Category.Valid() {
		return fmt.Errorf("invalid milestone category %q: %w", d.Category, model.ErrInvalidTransition)
	}
	d.Protected = false

	id, err := s.definitions.InsertDefinition(ctx, d)
	if err != nil {
		return err
	}
	d.ID = id

	s.logger.Info("Milestone definition created",
		zap.Int("id", id),
		zap.String("label", d.Label),
	)
	return nil
}

// Delete removes an unprotected definition from the catalog.
func (s *CatalogService) Delete(ctx context.Context, id int) error {
	return s.definitions.DeleteDefinition(ctx, id)
}

func (s *CatalogService) List(ctx context.Context) ([]model.MilestoneDefinition, error) {
	return s.definitions.ListDefinitions(ctx)
}
