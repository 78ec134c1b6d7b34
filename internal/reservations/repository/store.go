package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	reserrors "roomly/internal/reservations/errors"
	"roomly/pkg/model"
)

// BookingStore holds bookings keyed by ID. Implementations must be safe for
// concurrent readers and writers.
type BookingStore interface {
	Add(booking *model.Booking) error
	Remove(id string) *model.Booking
	GetByRoom(roomID string) []*model.Booking
}

type memoryBookingStore struct {
	mu   sync.RWMutex
	byID map[string]*model.Booking
}

func NewMemoryBookingStore() BookingStore {
	return &memoryBookingStore{
		byID: make(map[string]*model.Booking),
	}
}

// Add inserts a booking. A duplicate ID is an invariant violation (IDs are
// randomly generated), surfaced as ErrDuplicateID rather than ignored.
func (s *memoryBookingStore) Add(booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[booking.ID]; exists {
		return fmt.Errorf("%w: %s", reserrors.ErrDuplicateID, booking.ID)
	}
	s.byID[booking.ID] = booking
	return nil
}

// Remove deletes the booking with the given ID and returns it. Removing an
// absent ID yields nil and is not an error.
func (s *memoryBookingStore) Remove(id string) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, exists := s.byID[id]
	if !exists {
		return nil
	}
	delete(s.byID, id)
	return booking
}

// GetByRoom returns the room's bookings ordered ascending by start time.
// Room IDs compare case-insensitively. Unknown rooms yield an empty slice.
func (s *memoryBookingStore) GetByRoom(roomID string) []*model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]*model.Booking, 0)
	for _, b := range s.byID {
		if strings.EqualFold(b.RoomID, roomID) {
			bookings = append(bookings, b)
		}
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})
	return bookings
}
