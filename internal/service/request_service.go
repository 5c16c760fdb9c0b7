package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-room-api/internal/dto"
	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
)

type requestRepo interface {
	List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.RoomRequest, error)
	Create(ctx context.Context, request *models.RoomRequest) error
}

type requestAllocationReader interface {
	FindByID(ctx context.Context, id string) (*models.RoomAllocation, error)
}

type requestConflictReader interface {
	FindByID(ctx context.Context, id string) (*models.AllocationConflict, error)
}

type requestHistoryReader interface {
	ListByAllocation(ctx context.Context, allocationID string) ([]models.AllocationHistory, error)
}

// RequestService validates and stores room requests and assembles the
// request detail view.
type RequestService struct {
	repo        requestRepo
	allocations requestAllocationReader
	conflicts   requestConflictReader
	history     requestHistoryReader
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewRequestService constructs a RequestService.
func NewRequestService(repo requestRepo, allocations requestAllocationReader, conflicts requestConflictReader, history requestHistoryReader, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{repo: repo, allocations: allocations, conflicts: conflicts, history: history, validate: validate, logger: logger}
}

// Create validates and persists a new PENDING request. No allocation is
// attempted here; the agent picks the request up on its next pass.
func (s *RequestService) Create(ctx context.Context, payload dto.CreateRoomRequest) (*models.RoomRequest, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room request payload")
	}
	if strings.TrimSpace(payload.Purpose) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Purpose is required.")
	}
	if !payload.EndAt.After(payload.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "End time must be after start time.")
	}
	if payload.RequesterType == models.RequesterFaculty {
		if payload.RequesterRef == nil || strings.TrimSpace(*payload.RequesterRef) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Faculty requests require a requester reference.")
		}
	}

	request := &models.RoomRequest{
		RequesterType:     payload.RequesterType,
		RequesterRef:      payload.RequesterRef,
		Purpose:           strings.TrimSpace(payload.Purpose),
		StartAt:           payload.StartAt.UTC(),
		EndAt:             payload.EndAt.UTC(),
		CapacityRequired:  payload.CapacityRequired,
		RoomType:          payload.RoomType,
		NeedsProjector:    payload.NeedsProjector,
		NeedsAC:           payload.NeedsAC,
		PreferredBuilding: strings.TrimSpace(payload.PreferredBuilding),
		Status:            models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("persist room request: %w", err)
	}

	s.logger.Info("room request created",
		zap.String("request_id", request.ID),
		zap.String("requester_type", string(request.RequesterType)),
		zap.Int("capacity", request.CapacityRequired))
	return request, nil
}

// List returns requests matching the filter with pagination metadata.
func (s *RequestService) List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return requests, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Detail assembles a request with its allocation, conflict and audit trail.
func (s *RequestService) Detail(ctx context.Context, id string) (*dto.RequestDetail, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room request not found")
		}
		return nil, fmt.Errorf("load room request: %w", err)
	}

	detail := &dto.RequestDetail{Request: *request}

	if request.AllocationID != nil {
		allocation, err := s.allocations.FindByID(ctx, *request.AllocationID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load allocation: %w", err)
		}
		if allocation != nil {
			detail.Allocation = allocation
			history, err := s.history.ListByAllocation(ctx, allocation.ID)
			if err != nil {
				return nil, err
			}
			detail.History = history
		}
	}

	if request.ConflictID != nil {
		conflict, err := s.conflicts.FindByID(ctx, *request.ConflictID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load conflict: %w", err)
		}
		detail.Conflict = conflict
	}

	return detail, nil
}
