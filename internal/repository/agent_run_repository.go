package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-room-api/internal/models"
)

// AgentRunRepository manages persistence for batch runner summaries.
type AgentRunRepository struct {
	db *sqlx.DB
}

// NewAgentRunRepository constructs an AgentRunRepository.
func NewAgentRunRepository(db *sqlx.DB) *AgentRunRepository {
	return &AgentRunRepository{db: db}
}

// Create inserts one run summary. One row is written per invocation,
// including failed passes.
func (r *AgentRunRepository) Create(ctx context.Context, run *models.AgentRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	const query = `INSERT INTO agent_runs (id, agent_name, started_at, finished_at, status, summary_json, error_text)
		VALUES (:id, :agent_name, :started_at, :finished_at, :status, :summary_json, :error_text)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create agent run: %w", err)
	}
	return nil
}

// List returns the most recent run summaries.
func (r *AgentRunRepository) List(ctx context.Context, limit int) ([]models.AgentRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `SELECT id, agent_name, started_at, finished_at, status, summary_json, error_text FROM agent_runs ORDER BY started_at DESC LIMIT $1`
	var runs []models.AgentRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list agent runs: %w", err)
	}
	return runs, nil
}
