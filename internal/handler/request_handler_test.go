package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-room-api/internal/dto"
	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
)

type requestServiceMock struct {
	createResp *models.RoomRequest
	createErr  error
	detailResp *dto.RequestDetail
	detailErr  error
	listResp   []models.RoomRequest
	listFilter models.RoomRequestFilter
}

func (m *requestServiceMock) Create(ctx context.Context, payload dto.CreateRoomRequest) (*models.RoomRequest, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *requestServiceMock) List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, *models.Pagination, error) {
	m.listFilter = filter
	return m.listResp, models.NewPagination(filter.Page, filter.PageSize, len(m.listResp)), nil
}

func (m *requestServiceMock) Detail(ctx context.Context, id string) (*dto.RequestDetail, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detailResp, nil
}

type overrideServiceMock struct {
	resp        *models.RoomRequest
	err         error
	requestID   string
	classroomID string
}

func (m *overrideServiceMock) Override(ctx context.Context, requestID, classroomID string) (*models.RoomRequest, error) {
	m.requestID = requestID
	m.classroomID = classroomID
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, body interface{}, params gin.Params) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	handler(c)
	return w
}

func TestRequestHandlerCreate(t *testing.T) {
	created := &models.RoomRequest{ID: "req-1", Status: models.RequestStatusPending}
	svc := &requestServiceMock{createResp: created}
	handler := NewRequestHandler(svc, &overrideServiceMock{})

	payload := dto.CreateRoomRequest{
		RequesterType:    models.RequesterAdmin,
		Purpose:          "Guest lecture",
		StartAt:          time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndAt:            time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		CapacityRequired: 40,
		RoomType:         models.RoomTypeAny,
	}
	w := postJSON(t, handler.Create, "/requests", payload, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.RoomRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "req-1", envelope.Data.ID)
}

func TestRequestHandlerCreateInvalidBody(t *testing.T) {
	handler := NewRequestHandler(&requestServiceMock{}, &overrideServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerCreateValidationError(t *testing.T) {
	svc := &requestServiceMock{createErr: appErrors.Clone(appErrors.ErrValidation, "End time must be after start time.")}
	handler := NewRequestHandler(svc, &overrideServiceMock{})

	w := postJSON(t, handler.Create, "/requests", dto.CreateRoomRequest{}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "End time must be after start time.", envelope.Error.Message)
}

func TestRequestHandlerListParsesQuery(t *testing.T) {
	svc := &requestServiceMock{listResp: []models.RoomRequest{{ID: "req-1"}}}
	handler := NewRequestHandler(svc, &overrideServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/requests?status=PENDING&page=2&pageSize=10", nil)
	c.Request = req
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RequestStatusPending, svc.listFilter.Status)
	assert.Equal(t, 2, svc.listFilter.Page)
	assert.Equal(t, 10, svc.listFilter.PageSize)
}

func TestRequestHandlerDetailNotFound(t *testing.T) {
	svc := &requestServiceMock{detailErr: appErrors.Clone(appErrors.ErrNotFound, "room request not found")}
	handler := NewRequestHandler(svc, &overrideServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/requests/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Detail(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestHandlerOverride(t *testing.T) {
	classroomID := "r2"
	updated := &models.RoomRequest{ID: "req-1", Status: models.RequestStatusAllocated, ClassroomID: &classroomID}
	agent := &overrideServiceMock{resp: updated}
	handler := NewRequestHandler(&requestServiceMock{}, agent)

	w := postJSON(t, handler.Override, "/requests/req-1/override",
		dto.OverrideRequest{ClassroomID: "r2"}, gin.Params{{Key: "id", Value: "req-1"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", agent.requestID)
	assert.Equal(t, "r2", agent.classroomID)
}

func TestRequestHandlerOverrideMissingClassroom(t *testing.T) {
	handler := NewRequestHandler(&requestServiceMock{}, &overrideServiceMock{})

	w := postJSON(t, handler.Override, "/requests/req-1/override",
		dto.OverrideRequest{}, gin.Params{{Key: "id", Value: "req-1"}})

	require.Equal(t, http.StatusBadRequest, w.Code)
}
