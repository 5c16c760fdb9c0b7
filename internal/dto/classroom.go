package dto

import "github.com/noah-isme/campus-room-api/internal/models"

// UpsertClassroom is the payload for creating or updating a classroom.
type UpsertClassroom struct {
	Code         string            `json:"code" validate:"required"`
	Name         string            `json:"name" validate:"required"`
	Building     string            `json:"building" validate:"required"`
	Floor        int               `json:"floor" validate:"gte=0"`
	Capacity     int               `json:"capacity" validate:"required,gt=0"`
	Type         models.RoomType   `json:"roomType" validate:"required,oneof=LECTURE LAB SEMINAR AUDITORIUM"`
	Status       models.RoomStatus `json:"status" validate:"required,oneof=ACTIVE MAINTENANCE INACTIVE"`
	HasProjector bool              `json:"hasProjector"`
	HasAC        bool              `json:"hasAC"`
	Notes        string            `json:"notes,omitempty"`
}
