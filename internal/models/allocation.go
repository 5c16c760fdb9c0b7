package models

import "time"

// AllocationStatus tracks the lifecycle of a room allocation.
type AllocationStatus string

const (
	AllocationStatusActive    AllocationStatus = "ACTIVE"
	AllocationStatusReplaced  AllocationStatus = "REPLACED"
	AllocationStatusCancelled AllocationStatus = "CANCELLED"
)

// AllocatedBy records which actor created an allocation.
type AllocatedBy string

const (
	AllocatedByAgent  AllocatedBy = "AGENT"
	AllocatedByManual AllocatedBy = "MANUAL"
)

// RoomAllocation binds one request to one room for one time window.
// Agent-created ACTIVE allocations for the same classroom never overlap in
// time; manual overrides may, and carry a warning in history instead.
type RoomAllocation struct {
	ID          string           `db:"id" json:"id"`
	RequestID   string           `db:"request_id" json:"request_id"`
	ClassroomID string           `db:"classroom_id" json:"classroom_id"`
	StartAt     time.Time        `db:"start_at" json:"start_at"`
	EndAt       time.Time        `db:"end_at" json:"end_at"`
	AllocatedBy AllocatedBy      `db:"allocated_by" json:"allocated_by"`
	Status      AllocationStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	ReplacedAt  *time.Time       `db:"replaced_at" json:"replaced_at,omitempty"`
}

// HistoryAction enumerates audit trail actions.
type HistoryAction string

const (
	HistoryActionCreated    HistoryAction = "CREATED"
	HistoryActionCancelled  HistoryAction = "CANCELLED"
	HistoryActionReassigned HistoryAction = "REASSIGNED"
	HistoryActionOverridden HistoryAction = "OVERRIDDEN"
)

// HistoryActor identifies who performed an audited action.
type HistoryActor string

const (
	HistoryActorAgent   HistoryActor = "AGENT"
	HistoryActorAdminUI HistoryActor = "ADMIN_UI"
)

// AllocationHistory is an append-only audit log entry. Notes carry the
// human-readable rationale verbatim from the component that acted.
type AllocationHistory struct {
	ID           string        `db:"id" json:"id"`
	AllocationID string        `db:"allocation_id" json:"allocation_id"`
	Action       HistoryAction `db:"action" json:"action"`
	Actor        HistoryActor  `db:"actor" json:"actor"`
	Notes        string        `db:"notes" json:"notes"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}
