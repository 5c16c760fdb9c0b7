package dto

import (
	"time"

	"github.com/noah-isme/campus-room-api/internal/models"
)

// CreateRoomRequest is the payload for submitting a new room request.
type CreateRoomRequest struct {
	RequesterType     models.RequesterType `json:"requesterType" validate:"required,oneof=FACULTY EXAM PLACEMENT ADMIN SYSTEM"`
	RequesterRef      *string              `json:"requesterRef,omitempty"`
	Purpose           string               `json:"purpose" validate:"required"`
	StartAt           time.Time            `json:"startAt" validate:"required"`
	EndAt             time.Time            `json:"endAt" validate:"required"`
	CapacityRequired  int                  `json:"capacityRequired" validate:"required,gt=0"`
	RoomType          models.RoomType      `json:"roomType" validate:"required,oneof=LECTURE LAB SEMINAR AUDITORIUM ANY"`
	NeedsProjector    bool                 `json:"needsProjector"`
	NeedsAC           bool                 `json:"needsAC"`
	PreferredBuilding string               `json:"preferredBuilding,omitempty"`
}

// OverrideRequest forces a request onto a chosen classroom.
type OverrideRequest struct {
	ClassroomID string `json:"classroomId" validate:"required"`
}

// RequestDetail composes a request with its allocation and latest conflict
// for audit and explanation display.
type RequestDetail struct {
	Request    models.RoomRequest         `json:"request"`
	Allocation *models.RoomAllocation     `json:"allocation,omitempty"`
	Conflict   *models.AllocationConflict `json:"conflict,omitempty"`
	History    []models.AllocationHistory `json:"history,omitempty"`
}

// ResolveConflictRequest closes a conflict record from the admin workflow.
type ResolveConflictRequest struct {
	ResolutionNotes string `json:"resolutionNotes" validate:"required"`
}
