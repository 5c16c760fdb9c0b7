package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AgentRunStatus reflects the outcome of one batch runner invocation.
type AgentRunStatus string

const (
	AgentRunStatusDone   AgentRunStatus = "DONE"
	AgentRunStatusFailed AgentRunStatus = "FAILED"
)

// AgentRunStats summarises one pass; serialised into summary_json.
type AgentRunStats struct {
	OnlyPending bool  `json:"onlyPending"`
	Touched     int   `json:"touched"`
	Allocated   int   `json:"allocatedCount"`
	Failed      int   `json:"failedCount"`
	ElapsedMS   int64 `json:"time_ms"`
}

// AgentRun is one append-only record per batch runner invocation.
type AgentRun struct {
	ID         string         `db:"id" json:"id"`
	AgentName  string         `db:"agent_name" json:"agent_name"`
	StartedAt  time.Time      `db:"started_at" json:"started_at"`
	FinishedAt time.Time      `db:"finished_at" json:"finished_at"`
	Status     AgentRunStatus `db:"status" json:"status"`
	Summary    types.JSONText `db:"summary_json" json:"summary"`
	ErrorText  *string        `db:"error_text" json:"error_text,omitempty"`
}
