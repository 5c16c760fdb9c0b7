package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-room-api/internal/dto"
	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
)

type requestRepoStub struct {
	stored  []models.RoomRequest
	byID    map[string]models.RoomRequest
	listErr error
}

func (s *requestRepoStub) List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return s.stored, len(s.stored), nil
}

func (s *requestRepoStub) FindByID(ctx context.Context, id string) (*models.RoomRequest, error) {
	req, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &req, nil
}

func (s *requestRepoStub) Create(ctx context.Context, request *models.RoomRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	s.stored = append(s.stored, *request)
	return nil
}

type allocationReaderStub struct {
	byID map[string]models.RoomAllocation
}

func (s *allocationReaderStub) FindByID(ctx context.Context, id string) (*models.RoomAllocation, error) {
	al, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &al, nil
}

type conflictReaderStub struct {
	byID map[string]models.AllocationConflict
}

func (s *conflictReaderStub) FindByID(ctx context.Context, id string) (*models.AllocationConflict, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type historyReaderStub struct {
	entries []models.AllocationHistory
}

func (s *historyReaderStub) ListByAllocation(ctx context.Context, allocationID string) ([]models.AllocationHistory, error) {
	return s.entries, nil
}

func newRequestService(repo *requestRepoStub, allocations *allocationReaderStub, conflicts *conflictReaderStub, history *historyReaderStub) *RequestService {
	if allocations == nil {
		allocations = &allocationReaderStub{}
	}
	if conflicts == nil {
		conflicts = &conflictReaderStub{}
	}
	if history == nil {
		history = &historyReaderStub{}
	}
	return NewRequestService(repo, allocations, conflicts, history, nil, nil)
}

func validCreatePayload() dto.CreateRoomRequest {
	return dto.CreateRoomRequest{
		RequesterType:    models.RequesterAdmin,
		Purpose:          "  Midterm exam  ",
		StartAt:          engineBase,
		EndAt:            engineBase.Add(2 * time.Hour),
		CapacityRequired: 80,
		RoomType:         models.RoomTypeLecture,
	}
}

func TestCreateRequestStoresPending(t *testing.T) {
	repo := &requestRepoStub{}
	svc := newRequestService(repo, nil, nil, nil)

	created, err := svc.Create(context.Background(), validCreatePayload())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RequestStatusPending, created.Status)
	assert.Equal(t, "Midterm exam", created.Purpose)
	assert.Empty(t, created.DecisionReason)
	require.Len(t, repo.stored, 1)
}

func TestCreateRequestValidation(t *testing.T) {
	svc := newRequestService(&requestRepoStub{}, nil, nil, nil)

	cases := []struct {
		name   string
		mutate func(*dto.CreateRoomRequest)
	}{
		{"missing purpose", func(p *dto.CreateRoomRequest) { p.Purpose = "   " }},
		{"end before start", func(p *dto.CreateRoomRequest) { p.EndAt = p.StartAt.Add(-time.Hour) }},
		{"end equals start", func(p *dto.CreateRoomRequest) { p.EndAt = p.StartAt }},
		{"zero capacity", func(p *dto.CreateRoomRequest) { p.CapacityRequired = 0 }},
		{"negative capacity", func(p *dto.CreateRoomRequest) { p.CapacityRequired = -5 }},
		{"unknown room type", func(p *dto.CreateRoomRequest) { p.RoomType = "GYMNASIUM" }},
		{"faculty without reference", func(p *dto.CreateRoomRequest) {
			p.RequesterType = models.RequesterFaculty
			p.RequesterRef = nil
		}},
		{"faculty with blank reference", func(p *dto.CreateRoomRequest) {
			p.RequesterType = models.RequesterFaculty
			ref := "   "
			p.RequesterRef = &ref
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validCreatePayload()
			tc.mutate(&payload)
			_, err := svc.Create(context.Background(), payload)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestCreateRequestFacultyWithReference(t *testing.T) {
	svc := newRequestService(&requestRepoStub{}, nil, nil, nil)
	payload := validCreatePayload()
	payload.RequesterType = models.RequesterFaculty
	ref := "faculty-42"
	payload.RequesterRef = &ref

	created, err := svc.Create(context.Background(), payload)
	require.NoError(t, err)
	require.NotNil(t, created.RequesterRef)
	assert.Equal(t, "faculty-42", *created.RequesterRef)
}

func TestRequestDetailComposition(t *testing.T) {
	allocationID := "al-1"
	conflictID := "cf-1"
	request := models.RoomRequest{
		ID:           "req-1",
		Status:       models.RequestStatusAllocated,
		AllocationID: &allocationID,
		ConflictID:   &conflictID,
	}
	repo := &requestRepoStub{byID: map[string]models.RoomRequest{"req-1": request}}
	allocations := &allocationReaderStub{byID: map[string]models.RoomAllocation{
		"al-1": {ID: "al-1", RequestID: "req-1", ClassroomID: "r1", Status: models.AllocationStatusActive},
	}}
	conflicts := &conflictReaderStub{byID: map[string]models.AllocationConflict{
		"cf-1": {ID: "cf-1", RequestID: "req-1", ConflictReason: "earlier failure"},
	}}
	history := &historyReaderStub{entries: []models.AllocationHistory{
		{ID: "h1", AllocationID: "al-1", Action: models.HistoryActionCreated, Actor: models.HistoryActorAgent},
	}}

	svc := newRequestService(repo, allocations, conflicts, history)
	detail, err := svc.Detail(context.Background(), "req-1")
	require.NoError(t, err)
	require.NotNil(t, detail.Allocation)
	assert.Equal(t, "al-1", detail.Allocation.ID)
	require.NotNil(t, detail.Conflict)
	assert.Equal(t, "cf-1", detail.Conflict.ID)
	require.Len(t, detail.History, 1)
}

func TestRequestDetailNotFound(t *testing.T) {
	svc := newRequestService(&requestRepoStub{}, nil, nil, nil)
	_, err := svc.Detail(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
