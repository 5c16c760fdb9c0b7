package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-room-api/internal/dto"
	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
	"github.com/noah-isme/campus-room-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, payload dto.CreateRoomRequest) (*models.RoomRequest, error)
	List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, *models.Pagination, error)
	Detail(ctx context.Context, id string) (*dto.RequestDetail, error)
}

type overrideService interface {
	Override(ctx context.Context, requestID, classroomID string) (*models.RoomRequest, error)
}

// RequestHandler exposes room request endpoints.
type RequestHandler struct {
	requests requestService
	agent    overrideService
}

// NewRequestHandler constructs a RequestHandler.
func NewRequestHandler(requests requestService, agent overrideService) *RequestHandler {
	return &RequestHandler{requests: requests, agent: agent}
}

// Create godoc
// @Summary Submit a room request
// @Description Validates and stores a PENDING request. Allocation happens on the next agent pass.
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	created, err := h.requests.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List room requests
// @Tags Requests
// @Produce json
// @Param status query string false "Request status filter"
// @Param requesterType query string false "Requester type filter"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	filter := models.RoomRequestFilter{
		Status:        models.RequestStatus(c.Query("status")),
		RequesterType: models.RequesterType(c.Query("requesterType")),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "pageSize", 20),
	}
	requests, pagination, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Detail godoc
// @Summary Get one room request with allocation, conflict and audit trail
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Detail(c *gin.Context) {
	detail, err := h.requests.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Override godoc
// @Summary Force a request onto a specific classroom
// @Description Bypasses eligibility and overlap checks. Conflicting overrides are permitted with a warning recorded in history.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.OverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/override [post]
func (h *RequestHandler) Override(c *gin.Context) {
	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	if req.ClassroomID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classroomId is required"))
		return
	}
	updated, err := h.agent.Override(c.Request.Context(), c.Param("id"), req.ClassroomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
