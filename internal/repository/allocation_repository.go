package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-room-api/internal/models"
)

const allocationColumns = "id, request_id, classroom_id, start_at, end_at, allocated_by, status, created_at, replaced_at"

// AllocationRepository manages persistence for room allocations.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// ListActive returns every ACTIVE allocation. The agent snapshots these at
// the start of a pass for conflict detection.
func (r *AllocationRepository) ListActive(ctx context.Context) ([]models.RoomAllocation, error) {
	query := fmt.Sprintf("SELECT %s FROM room_allocations WHERE status = $1 ORDER BY start_at ASC, id ASC", allocationColumns)
	var allocations []models.RoomAllocation
	if err := r.db.SelectContext(ctx, &allocations, query, models.AllocationStatusActive); err != nil {
		return nil, fmt.Errorf("list active allocations: %w", err)
	}
	return allocations, nil
}

// ListAll returns allocations of every status, newest first.
func (r *AllocationRepository) ListAll(ctx context.Context) ([]models.RoomAllocation, error) {
	query := fmt.Sprintf("SELECT %s FROM room_allocations ORDER BY created_at DESC, id ASC", allocationColumns)
	var allocations []models.RoomAllocation
	if err := r.db.SelectContext(ctx, &allocations, query); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}

// FindByID fetches an allocation by ID.
func (r *AllocationRepository) FindByID(ctx context.Context, id string) (*models.RoomAllocation, error) {
	query := fmt.Sprintf("SELECT %s FROM room_allocations WHERE id = $1", allocationColumns)
	var allocation models.RoomAllocation
	if err := r.db.GetContext(ctx, &allocation, query, id); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// FindActiveByRequest fetches the ACTIVE allocation for a request, if any.
// Returns sql.ErrNoRows when the request holds no active allocation.
func (r *AllocationRepository) FindActiveByRequest(ctx context.Context, requestID string) (*models.RoomAllocation, error) {
	query := fmt.Sprintf("SELECT %s FROM room_allocations WHERE request_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1", allocationColumns)
	var allocation models.RoomAllocation
	if err := r.db.GetContext(ctx, &allocation, query, requestID, models.AllocationStatusActive); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// ListActiveForClassroom returns the ACTIVE allocations bound to one room.
func (r *AllocationRepository) ListActiveForClassroom(ctx context.Context, classroomID string) ([]models.RoomAllocation, error) {
	query := fmt.Sprintf("SELECT %s FROM room_allocations WHERE classroom_id = $1 AND status = $2 ORDER BY start_at ASC", allocationColumns)
	var allocations []models.RoomAllocation
	if err := r.db.SelectContext(ctx, &allocations, query, classroomID, models.AllocationStatusActive); err != nil {
		return nil, fmt.Errorf("list active allocations for classroom: %w", err)
	}
	return allocations, nil
}

// ExistsActiveForClassroom reports whether any ACTIVE allocation references
// the room. Used as the inventory delete guard.
func (r *AllocationRepository) ExistsActiveForClassroom(ctx context.Context, classroomID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM room_allocations WHERE classroom_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classroomID, models.AllocationStatusActive); err != nil {
		return false, fmt.Errorf("count active allocations for classroom: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new allocation record.
func (r *AllocationRepository) Create(ctx context.Context, exec sqlx.ExtContext, allocation *models.RoomAllocation) error {
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO room_allocations (id, request_id, classroom_id, start_at, end_at, allocated_by, status, created_at, replaced_at)
		VALUES (:id, :request_id, :classroom_id, :start_at, :end_at, :allocated_by, :status, :created_at, :replaced_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, allocation); err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

// MarkReplaced retires an allocation superseded by a manual override.
func (r *AllocationRepository) MarkReplaced(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE room_allocations SET status = $2, replaced_at = $3 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, id, models.AllocationStatusReplaced, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark allocation replaced: %w", err)
	}
	return nil
}
