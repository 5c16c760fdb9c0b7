package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-room-api/internal/models"
)

const conflictColumns = "id, request_id, conflict_reason, suggestions_json, detected_at, resolved_at, resolution_notes"

// AllocationConflictRepository manages persistence for conflict diagnostics.
type AllocationConflictRepository struct {
	db *sqlx.DB
}

// NewAllocationConflictRepository constructs an AllocationConflictRepository.
func NewAllocationConflictRepository(db *sqlx.DB) *AllocationConflictRepository {
	return &AllocationConflictRepository{db: db}
}

// Create inserts a conflict record with its suggestions document.
func (r *AllocationConflictRepository) Create(ctx context.Context, exec sqlx.ExtContext, conflict *models.AllocationConflict) error {
	if conflict.ID == "" {
		conflict.ID = uuid.NewString()
	}
	if conflict.DetectedAt.IsZero() {
		conflict.DetectedAt = time.Now().UTC()
	}

	const query = `INSERT INTO allocation_conflicts (id, request_id, conflict_reason, suggestions_json, detected_at, resolved_at, resolution_notes)
		VALUES (:id, :request_id, :conflict_reason, :suggestions_json, :detected_at, :resolved_at, :resolution_notes)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, conflict); err != nil {
		return fmt.Errorf("create allocation conflict: %w", err)
	}
	return nil
}

// FindByID fetches a conflict by ID.
func (r *AllocationConflictRepository) FindByID(ctx context.Context, id string) (*models.AllocationConflict, error) {
	query := fmt.Sprintf("SELECT %s FROM allocation_conflicts WHERE id = $1", conflictColumns)
	var conflict models.AllocationConflict
	if err := r.db.GetContext(ctx, &conflict, query, id); err != nil {
		return nil, err
	}
	return &conflict, nil
}

// ListOpen returns unresolved conflicts, newest first.
func (r *AllocationConflictRepository) ListOpen(ctx context.Context) ([]models.AllocationConflict, error) {
	query := fmt.Sprintf("SELECT %s FROM allocation_conflicts WHERE resolved_at IS NULL ORDER BY detected_at DESC", conflictColumns)
	var conflicts []models.AllocationConflict
	if err := r.db.SelectContext(ctx, &conflicts, query); err != nil {
		return nil, fmt.Errorf("list open conflicts: %w", err)
	}
	return conflicts, nil
}

// Resolve stamps a conflict with resolution metadata. Only the external
// resolution workflow calls this; the engine never resolves conflicts.
func (r *AllocationConflictRepository) Resolve(ctx context.Context, id, notes string) error {
	const query = `UPDATE allocation_conflicts SET resolved_at = $2, resolution_notes = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), notes); err != nil {
		return fmt.Errorf("resolve allocation conflict: %w", err)
	}
	return nil
}
