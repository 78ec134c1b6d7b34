package model

import (
	"time"
)

// Booking is a confirmed room reservation. Immutable once created; there is
// no update operation, only creation and cancellation.
type Booking struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	ReservedBy string    `json:"reserved_by"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingRequest is the transient input for creating a booking. It is
// consumed by validation and never stored.
type BookingRequest struct {
	RoomID     string    `json:"room_id" validate:"required"`
	ReservedBy string    `json:"reserved_by" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
}

// FreeSlot is a maximal gap between busy intervals within a search range.
// Timestamps keep the offset the search range was supplied with.
type FreeSlot struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
}

// FreeSlotQuery is the input for the free-slot computation.
type FreeSlotQuery struct {
	RoomID     string    `json:"room_id" validate:"required"`
	RangeStart time.Time `json:"range_start" validate:"required"`
	RangeEnd   time.Time `json:"range_end" validate:"required"`
	MinHours   float64   `json:"min_hours"`
}
