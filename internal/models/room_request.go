package models

import "time"

// RequesterType identifies the origin of a room request.
type RequesterType string

const (
	RequesterFaculty   RequesterType = "FACULTY"
	RequesterExam      RequesterType = "EXAM"
	RequesterPlacement RequesterType = "PLACEMENT"
	RequesterAdmin     RequesterType = "ADMIN"
	RequesterSystem    RequesterType = "SYSTEM"
)

// RequestStatus tracks the request state machine.
// PENDING -> {ALLOCATED, FAILED}; CANCELLED/REJECTED are set externally.
// FAILED requests are only retried after an external re-queue to PENDING.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAllocated RequestStatus = "ALLOCATED"
	RequestStatusFailed    RequestStatus = "FAILED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
	RequestStatusRejected  RequestStatus = "REJECTED"
)

// RoomRequest is a demand for a room during a time window.
// Requests are never deleted; terminal states are retained for audit.
type RoomRequest struct {
	ID                string        `db:"id" json:"id"`
	RequesterType     RequesterType `db:"requester_type" json:"requester_type"`
	RequesterRef      *string       `db:"requester_ref" json:"requester_ref,omitempty"`
	Purpose           string        `db:"purpose" json:"purpose"`
	StartAt           time.Time     `db:"start_at" json:"start_at"`
	EndAt             time.Time     `db:"end_at" json:"end_at"`
	CapacityRequired  int           `db:"capacity_required" json:"capacity_required"`
	RoomType          RoomType      `db:"room_type" json:"room_type"`
	NeedsProjector    bool          `db:"needs_projector" json:"needs_projector"`
	NeedsAC           bool          `db:"needs_ac" json:"needs_ac"`
	PreferredBuilding string        `db:"preferred_building" json:"preferred_building"`
	Status            RequestStatus `db:"status" json:"status"`
	AllocationID      *string       `db:"allocation_id" json:"allocation_id,omitempty"`
	ClassroomID       *string       `db:"classroom_id" json:"classroom_id,omitempty"`
	DecisionReason    string        `db:"decision_reason" json:"decision_reason"`
	ConflictID        *string       `db:"conflict_id" json:"conflict_id,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// RoomRequestFilter describes query params for listing requests.
type RoomRequestFilter struct {
	Status        RequestStatus
	RequesterType RequesterType
	Page          int
	PageSize      int
}
