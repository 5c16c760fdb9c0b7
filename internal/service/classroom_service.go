package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-room-api/internal/dto"
	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
)

type classroomRepo interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, room *models.Classroom) error
	Update(ctx context.Context, room *models.Classroom) error
	Delete(ctx context.Context, id string) error
}

type classroomAllocationGuard interface {
	ExistsActiveForClassroom(ctx context.Context, classroomID string) (bool, error)
}

// ClassroomCache is the read-path cache consumed by ClassroomService.
type ClassroomCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type classroomListPage struct {
	Rooms []models.Classroom `json:"rooms"`
	Total int                `json:"total"`
}

// ClassroomService manages the room inventory. List results are cached; any
// write invalidates the whole rooms keyspace.
type ClassroomService struct {
	repo        classroomRepo
	allocations classroomAllocationGuard
	cache       ClassroomCache
	cacheTTL    time.Duration
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewClassroomService constructs a ClassroomService. cache may be nil.
func NewClassroomService(repo classroomRepo, allocations classroomAllocationGuard, cache ClassroomCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ClassroomService{repo: repo, allocations: allocations, cache: cache, cacheTTL: cacheTTL, validate: validate, logger: logger}
}

// List returns classrooms matching the filter with pagination metadata.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	key := fmt.Sprintf("rooms:list:%s:%s:%s:%d:%s:%d:%d:%s:%s",
		filter.Building, filter.Type, filter.Status, filter.MinCap, filter.Search,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	if s.cache != nil {
		var cached classroomListPage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Rooms, models.NewPagination(filter.Page, filter.PageSize, cached.Total), nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("classroom cache read failed", zap.Error(err))
		}
	}

	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, classroomListPage{Rooms: rooms, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("classroom cache write failed", zap.Error(err))
		}
	}

	return rooms, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get fetches one classroom.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, fmt.Errorf("load classroom: %w", err)
	}
	return room, nil
}

// Create validates and inserts a classroom.
func (s *ClassroomService) Create(ctx context.Context, payload dto.UpsertClassroom) (*models.Classroom, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, payload.Code, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "classroom code already in use")
	}

	room := &models.Classroom{
		Code:         payload.Code,
		Name:         payload.Name,
		Building:     payload.Building,
		Floor:        payload.Floor,
		Capacity:     payload.Capacity,
		Type:         payload.Type,
		Status:       payload.Status,
		HasProjector: payload.HasProjector,
		HasAC:        payload.HasAC,
		Notes:        payload.Notes,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("persist classroom: %w", err)
	}
	s.invalidate(ctx)
	return room, nil
}

// Update validates and modifies a classroom.
func (s *ClassroomService) Update(ctx context.Context, id string, payload dto.UpsertClassroom) (*models.Classroom, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCode(ctx, payload.Code, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "classroom code already in use")
	}

	room.Code = payload.Code
	room.Name = payload.Name
	room.Building = payload.Building
	room.Floor = payload.Floor
	room.Capacity = payload.Capacity
	room.Type = payload.Type
	room.Status = payload.Status
	room.HasProjector = payload.HasProjector
	room.HasAC = payload.HasAC
	room.Notes = payload.Notes

	if err := s.repo.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("update classroom: %w", err)
	}
	s.invalidate(ctx)
	return room, nil
}

// Delete removes a classroom unless an ACTIVE allocation still references it.
func (s *ClassroomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	inUse, err := s.allocations.ExistsActiveForClassroom(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return appErrors.ErrRoomInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ClassroomService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "rooms:*"); err != nil {
		s.logger.Warn("classroom cache invalidation failed", zap.Error(err))
	}
}
