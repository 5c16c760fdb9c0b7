package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-room-api/internal/models"
)

const roomRequestColumns = "id, requester_type, requester_ref, purpose, start_at, end_at, capacity_required, room_type, needs_projector, needs_ac, preferred_building, status, allocation_id, classroom_id, decision_reason, conflict_id, created_at, updated_at"

// RoomRequestRepository manages persistence for room requests.
type RoomRequestRepository struct {
	db *sqlx.DB
}

// NewRoomRequestRepository constructs a RoomRequestRepository.
func NewRoomRequestRepository(db *sqlx.DB) *RoomRequestRepository {
	return &RoomRequestRepository{db: db}
}

// List returns requests matching filters along with total count.
func (r *RoomRequestRepository) List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, int, error) {
	base := "FROM room_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.RequesterType != "" {
		conditions = append(conditions, fmt.Sprintf("requester_type = $%d", len(args)+1))
		args = append(args, filter.RequesterType)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_at ASC, id ASC LIMIT %d OFFSET %d", roomRequestColumns, base, size, offset)
	var requests []models.RoomRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list room requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count room requests: %w", err)
	}

	return requests, total, nil
}

// ListAll returns every request ordered by start time. Order matters: the
// agent processes earlier windows first so later requests see accumulated
// allocations.
func (r *RoomRequestRepository) ListAll(ctx context.Context) ([]models.RoomRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM room_requests ORDER BY start_at ASC, id ASC", roomRequestColumns)
	var requests []models.RoomRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list all room requests: %w", err)
	}
	return requests, nil
}

// FindByID fetches a request by ID.
func (r *RoomRequestRepository) FindByID(ctx context.Context, id string) (*models.RoomRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM room_requests WHERE id = $1", roomRequestColumns)
	var request models.RoomRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a new room request.
func (r *RoomRequestRepository) Create(ctx context.Context, request *models.RoomRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO room_requests (id, requester_type, requester_ref, purpose, start_at, end_at, capacity_required, room_type, needs_projector, needs_ac, preferred_building, status, allocation_id, classroom_id, decision_reason, conflict_id, created_at, updated_at)
		VALUES (:id, :requester_type, :requester_ref, :purpose, :start_at, :end_at, :capacity_required, :room_type, :needs_projector, :needs_ac, :preferred_building, :status, :allocation_id, :classroom_id, :decision_reason, :conflict_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create room request: %w", err)
	}
	return nil
}

// MarkAllocated transitions a request to ALLOCATED with its winning room and
// decision reason. Any previous conflict link is cleared.
func (r *RoomRequestRepository) MarkAllocated(ctx context.Context, exec sqlx.ExtContext, id, allocationID, classroomID, reason string) error {
	const query = `UPDATE room_requests SET status = $2, allocation_id = $3, classroom_id = $4, decision_reason = $5, conflict_id = NULL, updated_at = $6 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, id, models.RequestStatusAllocated, allocationID, classroomID, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark request allocated: %w", err)
	}
	return nil
}

// MarkFailed transitions a request to FAILED and links the conflict record.
func (r *RoomRequestRepository) MarkFailed(ctx context.Context, exec sqlx.ExtContext, id, conflictID, reason string) error {
	const query = `UPDATE room_requests SET status = $2, allocation_id = NULL, classroom_id = NULL, decision_reason = $3, conflict_id = $4, updated_at = $5 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, id, models.RequestStatusFailed, reason, conflictID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark request failed: %w", err)
	}
	return nil
}
