package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
)

type agentClassroomReader interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type agentRequestStore interface {
	ListAll(ctx context.Context) ([]models.RoomRequest, error)
	FindByID(ctx context.Context, id string) (*models.RoomRequest, error)
	MarkAllocated(ctx context.Context, exec sqlx.ExtContext, id, allocationID, classroomID, reason string) error
	MarkFailed(ctx context.Context, exec sqlx.ExtContext, id, conflictID, reason string) error
}

type agentAllocationStore interface {
	ListActive(ctx context.Context) ([]models.RoomAllocation, error)
	FindActiveByRequest(ctx context.Context, requestID string) (*models.RoomAllocation, error)
	ListActiveForClassroom(ctx context.Context, classroomID string) ([]models.RoomAllocation, error)
	Create(ctx context.Context, exec sqlx.ExtContext, allocation *models.RoomAllocation) error
	MarkReplaced(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type agentHistoryStore interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *models.AllocationHistory) error
}

type agentConflictStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, conflict *models.AllocationConflict) error
}

type agentRunStore interface {
	Create(ctx context.Context, run *models.AgentRun) error
	List(ctx context.Context, limit int) ([]models.AgentRun, error)
}

type agentTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// AgentNotifier receives allocation outcomes for fan-out. Implemented by
// NotificationService; nil disables notifications.
type AgentNotifier interface {
	NotifyAllocated(req models.RoomRequest, room models.Classroom)
	NotifyConflict(req models.RoomRequest, reason string)
}

type agentMetrics interface {
	ObserveAgentRun(status models.AgentRunStatus, stats models.AgentRunStats, duration time.Duration)
	ObserveOverride()
}

// AgentService runs the allocation agent: batch passes over pending requests
// and manual overrides. A mutex serializes both so active agent allocations
// for one room never overlap in time.
type AgentService struct {
	mu sync.Mutex

	rooms       agentClassroomReader
	requests    agentRequestStore
	allocations agentAllocationStore
	history     agentHistoryStore
	conflicts   agentConflictStore
	runs        agentRunStore
	tx          agentTxProvider
	notifier    AgentNotifier
	metrics     agentMetrics
	logger      *zap.Logger
	agentName   string
}

// NewAgentService constructs an AgentService. notifier and metrics may be nil.
func NewAgentService(
	rooms agentClassroomReader,
	requests agentRequestStore,
	allocations agentAllocationStore,
	history agentHistoryStore,
	conflicts agentConflictStore,
	runs agentRunStore,
	tx agentTxProvider,
	notifier AgentNotifier,
	metrics agentMetrics,
	logger *zap.Logger,
	agentName string,
) *AgentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if agentName == "" {
		agentName = "CLASSROOM_ALLOCATION_AGENT"
	}
	return &AgentService{
		rooms:       rooms,
		requests:    requests,
		allocations: allocations,
		history:     history,
		conflicts:   conflicts,
		runs:        runs,
		tx:          tx,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		agentName:   agentName,
	}
}

// Run executes one batch allocation pass. Requests are processed in start
// time order so earlier windows claim rooms first; each request's outcome
// commits in its own transaction, so work done before a mid-pass error is
// kept. A run summary row is written regardless of outcome, and Run only
// returns an error when even that summary cannot be recorded.
func (s *AgentService) Run(ctx context.Context, onlyPending bool) (*models.AgentRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now().UTC()
	stats := models.AgentRunStats{OnlyPending: onlyPending}
	runErr := s.pass(ctx, onlyPending, &stats)

	finished := time.Now().UTC()
	stats.ElapsedMS = finished.Sub(started).Milliseconds()

	status := models.AgentRunStatusDone
	var errText *string
	if runErr != nil {
		status = models.AgentRunStatusFailed
		msg := runErr.Error()
		errText = &msg
		s.logger.Error("agent pass aborted", zap.Error(runErr),
			zap.Int("touched", stats.Touched), zap.Int("allocated", stats.Allocated), zap.Int("failed", stats.Failed))
	}

	summary, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshal run summary: %w", err)
	}

	run := &models.AgentRun{
		AgentName:  s.agentName,
		StartedAt:  started,
		FinishedAt: finished,
		Status:     status,
		Summary:    summary,
		ErrorText:  errText,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record agent run: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveAgentRun(status, stats, finished.Sub(started))
	}

	s.logger.Info("agent run finished",
		zap.String("run_id", run.ID),
		zap.String("status", string(status)),
		zap.Bool("only_pending", onlyPending),
		zap.Int("touched", stats.Touched),
		zap.Int("allocated", stats.Allocated),
		zap.Int("failed", stats.Failed),
		zap.Int64("elapsed_ms", stats.ElapsedMS))

	return run, nil
}

func (s *AgentService) pass(ctx context.Context, onlyPending bool, stats *models.AgentRunStats) error {
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load room inventory: %w", err)
	}
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load requests: %w", err)
	}
	allocations, err := s.allocations.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load active allocations: %w", err)
	}

	// Live state for this pass. The targets slice fixes processing order;
	// the map carries status changes made earlier in the same pass.
	live := make(map[string]*models.RoomRequest, len(requests))
	for i := range requests {
		live[requests[i].ID] = &requests[i]
	}

	targets := make([]models.RoomRequest, 0, len(requests))
	for _, req := range requests {
		if onlyPending && req.Status != models.RequestStatusPending {
			continue
		}
		targets = append(targets, req)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		if !targets[i].StartAt.Equal(targets[j].StartAt) {
			return targets[i].StartAt.Before(targets[j].StartAt)
		}
		return targets[i].ID < targets[j].ID
	})

	for _, target := range targets {
		cur, ok := live[target.ID]
		if !ok {
			continue
		}
		stats.Touched++

		// Terminal and externally-managed states are never retried here;
		// FAILED requests wait for an external re-queue to PENDING.
		if cur.Status != models.RequestStatusPending {
			continue
		}

		pick := pickBestRoom(*cur, rooms, allocations)
		if pick.Room == nil {
			conflictID, err := s.recordFailure(ctx, cur, rooms, allocations, pick.Reason)
			if err != nil {
				return err
			}
			cur.Status = models.RequestStatusFailed
			cur.DecisionReason = pick.Reason
			cur.ConflictID = &conflictID
			cur.AllocationID = nil
			cur.ClassroomID = nil
			stats.Failed++
			if s.notifier != nil {
				s.notifier.NotifyConflict(*cur, pick.Reason)
			}
			continue
		}

		allocation, err := s.recordAllocation(ctx, cur, *pick.Room, pick.Reason)
		if err != nil {
			return err
		}
		// Later requests in this pass must see the new booking.
		allocations = append(allocations, *allocation)
		cur.Status = models.RequestStatusAllocated
		cur.AllocationID = &allocation.ID
		cur.ClassroomID = &pick.Room.ID
		cur.DecisionReason = pick.Reason
		cur.ConflictID = nil
		stats.Allocated++
		if s.notifier != nil {
			s.notifier.NotifyAllocated(*cur, *pick.Room)
		}
	}

	return nil
}

// recordAllocation commits one successful match: allocation row, CREATED
// history entry and the request transition, atomically.
func (s *AgentService) recordAllocation(ctx context.Context, req *models.RoomRequest, room models.Classroom, reason string) (*models.RoomAllocation, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin allocation tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	allocation := &models.RoomAllocation{
		RequestID:   req.ID,
		ClassroomID: room.ID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		AllocatedBy: models.AllocatedByAgent,
		Status:      models.AllocationStatusActive,
	}
	if err := s.allocations.Create(ctx, tx, allocation); err != nil {
		return nil, err
	}
	if err := s.history.Append(ctx, tx, &models.AllocationHistory{
		AllocationID: allocation.ID,
		Action:       models.HistoryActionCreated,
		Actor:        models.HistoryActorAgent,
		Notes:        reason,
	}); err != nil {
		return nil, err
	}
	if err := s.requests.MarkAllocated(ctx, tx, req.ID, allocation.ID, room.ID, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit allocation tx: %w", err)
	}
	return allocation, nil
}

// recordFailure commits one failed match: conflict row with suggestions and
// the request transition, atomically. Returns the conflict id.
func (s *AgentService) recordFailure(ctx context.Context, req *models.RoomRequest, rooms []models.Classroom, allocations []models.RoomAllocation, reason string) (string, error) {
	payload := generateSuggestions(*req, rooms, allocations)
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal suggestions: %w", err)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin conflict tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	conflict := &models.AllocationConflict{
		RequestID:      req.ID,
		ConflictReason: reason,
		Suggestions:    raw,
	}
	if err := s.conflicts.Create(ctx, tx, conflict); err != nil {
		return "", err
	}
	if err := s.requests.MarkFailed(ctx, tx, req.ID, conflict.ID, reason); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit conflict tx: %w", err)
	}
	return conflict.ID, nil
}

// Override forces a request into a specific room, bypassing eligibility and
// overlap checks. Any prior active allocation is retired with a REASSIGNED
// entry; a time conflict downgrades to a warning recorded in history.
func (s *AgentService) Override(ctx context.Context, requestID, classroomID string) (*models.RoomRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room request not found")
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	room, err := s.rooms.FindByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, fmt.Errorf("load classroom: %w", err)
	}

	prior, err := s.allocations.FindActiveByRequest(ctx, requestID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load active allocation: %w", err)
	}

	roomAllocations, err := s.allocations.ListActiveForClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	conflictExists := false
	for _, al := range roomAllocations {
		if al.RequestID == requestID {
			continue
		}
		if overlaps(al.StartAt, al.EndAt, req.StartAt, req.EndAt) {
			conflictExists = true
			break
		}
	}

	note := fmt.Sprintf("Override forced successfully to room %s (%s).", room.Code, room.Building)
	if conflictExists {
		note = fmt.Sprintf("Override forced. WARNING: Time conflict exists for room %s in this window.", room.Code)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin override tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if prior != nil {
		if err := s.allocations.MarkReplaced(ctx, tx, prior.ID); err != nil {
			return nil, err
		}
		if err := s.history.Append(ctx, tx, &models.AllocationHistory{
			AllocationID: prior.ID,
			Action:       models.HistoryActionReassigned,
			Actor:        models.HistoryActorAdminUI,
			Notes:        fmt.Sprintf("Reassigned by admin to room=%s (%s)", room.Code, room.Building),
		}); err != nil {
			return nil, err
		}
	}

	allocation := &models.RoomAllocation{
		RequestID:   req.ID,
		ClassroomID: room.ID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		AllocatedBy: models.AllocatedByManual,
		Status:      models.AllocationStatusActive,
	}
	if err := s.allocations.Create(ctx, tx, allocation); err != nil {
		return nil, err
	}
	if err := s.history.Append(ctx, tx, &models.AllocationHistory{
		AllocationID: allocation.ID,
		Action:       models.HistoryActionOverridden,
		Actor:        models.HistoryActorAdminUI,
		Notes:        note,
	}); err != nil {
		return nil, err
	}
	if err := s.requests.MarkAllocated(ctx, tx, req.ID, allocation.ID, room.ID, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit override tx: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveOverride()
	}
	s.logger.Info("manual override applied",
		zap.String("request_id", req.ID),
		zap.String("classroom_id", room.ID),
		zap.Bool("time_conflict", conflictExists))

	updated, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("reload request: %w", err)
	}
	return updated, nil
}

// Runs returns recent batch run summaries for audit display.
func (s *AgentService) Runs(ctx context.Context, limit int) ([]models.AgentRun, error) {
	return s.runs.List(ctx, limit)
}
