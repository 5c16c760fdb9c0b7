package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Suggestion types emitted by the suggestion generator.
const (
	SuggestionTimeShift   = "TIME_SHIFT"
	SuggestionAltBuilding = "ALT_BUILDING"
	SuggestionSplit       = "SPLIT"
)

// Suggestion is one actionable alternative for a failed request.
type Suggestion struct {
	Type              string     `json:"type"`
	Label             string     `json:"label"`
	StartAt           *time.Time `json:"startAt,omitempty"`
	EndAt             *time.Time `json:"endAt,omitempty"`
	PreferredBuilding string     `json:"preferredBuilding,omitempty"`
	Advice            string     `json:"suggestion,omitempty"`
	Reason            string     `json:"reason"`
}

// ConflictSignals reports the request constraints and inventory pressure
// observed at diagnosis time. Display only; not used for ranking.
type ConflictSignals struct {
	DemandCapacity      int      `json:"demand_capacity"`
	DemandType          RoomType `json:"demand_type"`
	DemandProjector     bool     `json:"demand_projector"`
	DemandAC            bool     `json:"demand_ac"`
	PreferredBuilding   *string  `json:"preferred_building"`
	ActiveRooms         int      `json:"active_rooms"`
	TotalRooms          int      `json:"total_rooms"`
	AllocationsInWindow int      `json:"existing_allocations_in_window"`
}

// NarrativeAdvice is the deterministic rule-based narration block.
type NarrativeAdvice struct {
	ConflictSummary    string          `json:"conflict_summary"`
	RecommendedActions []string        `json:"recommended_actions"`
	Confidence         float64         `json:"confidence"`
	Signals            ConflictSignals `json:"signals"`
}

// SuggestionPayload is the structured suggestions document persisted with a
// conflict record.
type SuggestionPayload struct {
	Base      []Suggestion    `json:"base"`
	Narrative NarrativeAdvice `json:"narrative"`
}

// AllocationConflict is the diagnostic record produced when a request cannot
// be satisfied. Resolution fields are set by an external workflow only.
type AllocationConflict struct {
	ID              string         `db:"id" json:"id"`
	RequestID       string         `db:"request_id" json:"request_id"`
	ConflictReason  string         `db:"conflict_reason" json:"conflict_reason"`
	Suggestions     types.JSONText `db:"suggestions_json" json:"suggestions"`
	DetectedAt      time.Time      `db:"detected_at" json:"detected_at"`
	ResolvedAt      *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionNotes *string        `db:"resolution_notes" json:"resolution_notes,omitempty"`
}
