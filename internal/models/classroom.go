package models

import "time"

// RoomType categorises a physical classroom.
type RoomType string

const (
	RoomTypeLecture    RoomType = "LECTURE"
	RoomTypeLab        RoomType = "LAB"
	RoomTypeSeminar    RoomType = "SEMINAR"
	RoomTypeAuditorium RoomType = "AUDITORIUM"

	// RoomTypeAny is valid only on requests and matches every room type.
	RoomTypeAny RoomType = "ANY"
)

// RoomStatus describes operational availability of a classroom.
type RoomStatus string

const (
	RoomStatusActive      RoomStatus = "ACTIVE"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
	RoomStatusInactive    RoomStatus = "INACTIVE"
)

// Classroom represents a physical room in the inventory.
// Capacity must be positive; the schema enforces it with a CHECK.
type Classroom struct {
	ID           string     `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	Name         string     `db:"name" json:"name"`
	Building     string     `db:"building" json:"building"`
	Floor        int        `db:"floor" json:"floor"`
	Capacity     int        `db:"capacity" json:"capacity"`
	Type         RoomType   `db:"room_type" json:"room_type"`
	Status       RoomStatus `db:"status" json:"status"`
	HasProjector bool       `db:"has_projector" json:"has_projector"`
	HasAC        bool       `db:"has_ac" json:"has_ac"`
	Notes        string     `db:"notes" json:"notes"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter describes query params for listing classrooms.
type ClassroomFilter struct {
	Building  string
	Type      RoomType
	Status    RoomStatus
	MinCap    int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
