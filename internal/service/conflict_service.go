package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
)

type conflictRepo interface {
	FindByID(ctx context.Context, id string) (*models.AllocationConflict, error)
	ListOpen(ctx context.Context) ([]models.AllocationConflict, error)
	Resolve(ctx context.Context, id, notes string) error
}

// ConflictService backs the external conflict resolution workflow. The
// engine only writes conflicts; resolution metadata arrives through here.
type ConflictService struct {
	repo   conflictRepo
	logger *zap.Logger
}

// NewConflictService constructs a ConflictService.
func NewConflictService(repo conflictRepo, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{repo: repo, logger: logger}
}

// ListOpen returns unresolved conflicts.
func (s *ConflictService) ListOpen(ctx context.Context) ([]models.AllocationConflict, error) {
	return s.repo.ListOpen(ctx)
}

// Resolve stamps a conflict with resolution notes. Resolving twice is
// rejected so the audit trail stays single-writer.
func (s *ConflictService) Resolve(ctx context.Context, id, notes string) (*models.AllocationConflict, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resolution notes are required")
	}

	conflict, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "conflict not found")
		}
		return nil, fmt.Errorf("load conflict: %w", err)
	}
	if conflict.ResolvedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "conflict already resolved")
	}

	if err := s.repo.Resolve(ctx, id, strings.TrimSpace(notes)); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload conflict: %w", err)
	}
	s.logger.Info("conflict resolved", zap.String("conflict_id", id))
	return updated, nil
}
