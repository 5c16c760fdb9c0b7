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

type conflictService interface {
	ListOpen(ctx context.Context) ([]models.AllocationConflict, error)
	Resolve(ctx context.Context, id, notes string) (*models.AllocationConflict, error)
}

// ConflictHandler exposes the external conflict resolution workflow. The
// allocation engine records conflicts but never resolves them.
type ConflictHandler struct {
	service conflictService
}

// NewConflictHandler constructs a ConflictHandler.
func NewConflictHandler(svc conflictService) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// ListOpen godoc
// @Summary List unresolved conflicts
// @Tags Conflicts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) ListOpen(c *gin.Context) {
	conflicts, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// Resolve godoc
// @Summary Mark a conflict resolved
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param id path string true "Conflict ID"
// @Param payload body dto.ResolveConflictRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Router /conflicts/{id}/resolve [post]
func (h *ConflictHandler) Resolve(c *gin.Context) {
	var req dto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	conflict, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req.ResolutionNotes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflict, nil)
}
