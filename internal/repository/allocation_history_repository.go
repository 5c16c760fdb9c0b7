package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-room-api/internal/models"
)

// AllocationHistoryRepository manages the append-only allocation audit trail.
type AllocationHistoryRepository struct {
	db *sqlx.DB
}

// NewAllocationHistoryRepository constructs an AllocationHistoryRepository.
func NewAllocationHistoryRepository(db *sqlx.DB) *AllocationHistoryRepository {
	return &AllocationHistoryRepository{db: db}
}

// Append writes one audit entry. Entries are never updated or deleted.
func (r *AllocationHistoryRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.AllocationHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO allocation_history (id, allocation_id, action, actor, notes, created_at)
		VALUES (:id, :allocation_id, :action, :actor, :notes, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("append allocation history: %w", err)
	}
	return nil
}

// ListByAllocation returns the audit trail for one allocation in insertion order.
func (r *AllocationHistoryRepository) ListByAllocation(ctx context.Context, allocationID string) ([]models.AllocationHistory, error) {
	const query = `SELECT id, allocation_id, action, actor, notes, created_at FROM allocation_history WHERE allocation_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.AllocationHistory
	if err := r.db.SelectContext(ctx, &entries, query, allocationID); err != nil {
		return nil, fmt.Errorf("list allocation history: %w", err)
	}
	return entries, nil
}
