package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roomly/internal/reservations/repository"
	"roomly/internal/reservations/validator"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/events"
	"roomly/pkg/model"

	"github.com/google/uuid"
)

type ReservationService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, id string) bool
	ListByRoom(ctx context.Context, roomID string) ([]*model.Booking, error)
	FreeSlots(ctx context.Context, query *model.FreeSlotQuery) ([]model.FreeSlot, error)
}

type reservationService struct {
	store     repository.BookingStore
	locks     repository.RoomLockManager
	validator *validator.ReservationValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

// NewReservationService wires the orchestrator. publisher may be nil when
// event publishing is not configured.
func NewReservationService(
	store repository.BookingStore,
	locks repository.RoomLockManager,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		store:     store,
		locks:     locks,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *reservationService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	if verrs := s.validator.ValidateCreate(req, s.now()); len(verrs) > 0 {
		s.cfg.Log.Warn("Booking validation failed", "room_id", req.RoomID, "error", verrs)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"errors": verrs.Messages(),
		})
	}

	// Room lock makes check-then-insert atomic against concurrent creates
	// for the same room; unrelated rooms proceed in parallel.
	release := s.locks.AcquireForRoom(req.RoomID)
	defer release()

	existing := s.store.GetByRoom(req.RoomID)
	if conflicting, ok := hasOverlap(req.StartTime, req.EndTime, existing); ok {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Booking time overlaps with existing booking (%s - %s)",
			conflicting.StartTime.Format(time.RFC3339),
			conflicting.EndTime.Format(time.RFC3339),
		))
	}

	booking := &model.Booking{
		ID:         uuid.NewString(),
		RoomID:     req.RoomID,
		ReservedBy: req.ReservedBy,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.store.Add(booking); err != nil {
		s.cfg.Log.Error("Failed to store booking", "id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"start_time", booking.StartTime,
	)
	s.publishEvent(ctx, events.TypeReservationCreated, booking.RoomID, booking)

	return booking, nil
}

// Cancel removes the booking and reports whether it existed. An absent ID
// is a normal outcome, not a failure.
func (s *reservationService) Cancel(ctx context.Context, id string) bool {
	booking := s.store.Remove(id)
	if booking == nil {
		return false
	}

	s.cfg.Log.Info("Booking cancelled successfully", "id", id, "room_id", booking.RoomID)
	// Keyed by room so both lifecycle events of a booking share a partition.
	s.publishEvent(ctx, events.TypeReservationCancelled, booking.RoomID, booking)
	return true
}

func (s *reservationService) ListByRoom(ctx context.Context, roomID string) ([]*model.Booking, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, apperrors.Validation("Booking listing validation failed", map[string]any{
			"errors": []string{"RoomID is required"},
		})
	}

	return s.store.GetByRoom(roomID), nil
}

func (s *reservationService) FreeSlots(ctx context.Context, query *model.FreeSlotQuery) ([]model.FreeSlot, error) {
	if verrs := s.validator.ValidateFreeSlots(query); len(verrs) > 0 {
		s.cfg.Log.Warn("Free-slot query validation failed", "room_id", query.RoomID, "error", verrs)
		return nil, apperrors.Validation("Free-slot query validation failed", map[string]any{
			"errors": verrs.Messages(),
		})
	}

	bookings := s.store.GetByRoom(query.RoomID)
	slots := computeFreeSlots(bookings, query.RangeStart, query.RangeEnd, query.MinHours)

	s.cfg.Log.Debug("Free-slot computation completed",
		"room_id", query.RoomID,
		"bookings", len(bookings),
		"slots", len(slots),
	)
	return slots, nil
}

// hasOverlap reports whether the candidate interval overlaps any existing
// booking and returns the first conflicting one.
func hasOverlap(start, end time.Time, existing []*model.Booking) (*model.Booking, bool) {
	for _, b := range existing {
		if overlaps(b.StartTime, b.EndTime, start, end) {
			return b, true
		}
	}
	return nil, false
}

// overlaps is the half-open interval test: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 and e1 > s2. A booking ending exactly when another starts is not
// a conflict.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}

func (s *reservationService) publishEvent(ctx context.Context, eventType, key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event", "event_type", eventType, "key", key, "error", err)
	}
}
