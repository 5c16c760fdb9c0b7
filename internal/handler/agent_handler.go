package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-room-api/internal/dto"
	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
	"github.com/noah-isme/campus-room-api/pkg/jobs"
	"github.com/noah-isme/campus-room-api/pkg/response"
)

type agentRunner interface {
	Run(ctx context.Context, onlyPending bool) (*models.AgentRun, error)
	Runs(ctx context.Context, limit int) ([]models.AgentRun, error)
}

// AgentHandler exposes the batch allocation runner.
type AgentHandler struct {
	agent  agentRunner
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAgentHandler constructs an AgentHandler. queue may be nil, in which
// case async runs are rejected.
func NewAgentHandler(agent agentRunner, queue *jobs.Queue, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{agent: agent, queue: queue, logger: logger}
}

// Run godoc
// @Summary Execute one batch allocation pass
// @Description Processes requests in start-time order. onlyPending defaults to true; async=true enqueues the pass and returns 202.
// @Tags Agent
// @Accept json
// @Produce json
// @Param payload body dto.RunAgentRequest false "Run options"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /agent/run [post]
func (h *AgentHandler) Run(c *gin.Context) {
	var req dto.RunAgentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
			return
		}
	}
	onlyPending := true
	if req.OnlyPending != nil {
		onlyPending = *req.OnlyPending
	}

	if req.Async {
		if h.queue == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "async runs are not enabled"))
			return
		}
		job := jobs.Job{ID: uuid.NewString(), Type: "agent_run", Payload: onlyPending}
		if err := h.queue.Enqueue(job); err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, gin.H{"jobId": job.ID, "onlyPending": onlyPending}, nil)
		return
	}

	run, err := h.agent.Run(c.Request.Context(), onlyPending)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Runs godoc
// @Summary List recent batch run summaries
// @Tags Agent
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /agent/runs [get]
func (h *AgentHandler) Runs(c *gin.Context) {
	runs, err := h.agent.Runs(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}
