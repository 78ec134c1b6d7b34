package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"roomly/internal/reservations/repository"
	"roomly/internal/reservations/validator"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/events"
	"roomly/pkg/logger"
	"roomly/pkg/model"
)

// Mock publisher for testing
type publishedEvent struct {
	eventType string
	key       string
}

type mockPublisher struct {
	mu         sync.Mutex
	published  []publishedEvent
	publishErr error
}

func (m *mockPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, publishedEvent{eventType: eventType, key: key})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func newTestService(now time.Time, publisher *mockPublisher) *reservationService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log}

	svc := &reservationService{
		store:     repository.NewMemoryBookingStore(),
		locks:     repository.NewRoomLockManager(),
		validator: validator.NewReservationValidator(log),
		cfg:       cfg,
		now:       func() time.Time { return now },
	}
	if publisher != nil {
		svc.publisher = publisher
	}
	return svc
}

func validRequest(now time.Time) *model.BookingRequest {
	return &model.BookingRequest{
		RoomID:     "aurora",
		ReservedBy: "alex",
		StartTime:  now.Add(time.Hour),
		EndTime:    now.Add(2 * time.Hour),
	}
}

func TestCreate_EchoesInputWithFreshID(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, loc)
	publisher := &mockPublisher{}
	svc := newTestService(now, publisher)

	req := &model.BookingRequest{
		RoomID:     "aurora",
		ReservedBy: "alex",
		StartTime:  time.Date(2027, 5, 6, 10, 0, 0, 0, loc),
		EndTime:    time.Date(2027, 5, 6, 11, 0, 0, 0, loc),
	}

	booking, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected a generated booking ID")
	}
	if booking.RoomID != "aurora" || booking.ReservedBy != "alex" {
		t.Errorf("expected input fields echoed, got %+v", booking)
	}
	if !booking.StartTime.Equal(req.StartTime) || !booking.EndTime.Equal(req.EndTime) {
		t.Errorf("expected timestamps echoed, got %+v", booking)
	}
	// The supplied offset must survive the round trip.
	if _, offset := booking.StartTime.Zone(); offset != 3*60*60 {
		t.Errorf("expected start_time to keep its UTC+3 offset, got offset %d", offset)
	}

	second, err := svc.Create(context.Background(), &model.BookingRequest{
		RoomID:     "aurora",
		ReservedBy: "dana",
		StartTime:  time.Date(2027, 5, 6, 12, 0, 0, 0, loc),
		EndTime:    time.Date(2027, 5, 6, 13, 0, 0, 0, loc),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID == booking.ID {
		t.Error("expected unique IDs for distinct bookings")
	}

	if len(publisher.published) != 2 {
		t.Errorf("expected 2 created events, got %d", len(publisher.published))
	}
}

func TestCreate_ValidationFailedCarriesAllErrors(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)

	_, err := svc.Create(context.Background(), &model.BookingRequest{
		RoomID:     "",
		ReservedBy: "alex",
		StartTime:  now.Add(-2 * time.Hour),
		EndTime:    now.Add(-2 * time.Hour),
	})
	if err == nil {
		t.Fatal("expected a validation error")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}

	messages, ok := appErr.Details["errors"].([]string)
	if !ok {
		t.Fatalf("expected errors list in details, got %v", appErr.Details)
	}
	if len(messages) != 3 {
		t.Errorf("expected 3 collected messages, got %d: %v", len(messages), messages)
	}
}

func TestCreate_HalfOpenBoundary(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)
	ctx := context.Background()

	at := func(h, m int) time.Time {
		return time.Date(2027, 5, 6, h, m, 0, 0, time.UTC)
	}

	if _, err := svc.Create(ctx, &model.BookingRequest{
		RoomID: "aurora", ReservedBy: "alex", StartTime: at(10, 0), EndTime: at(11, 0),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Back-to-back is not a conflict.
	if _, err := svc.Create(ctx, &model.BookingRequest{
		RoomID: "aurora", ReservedBy: "dana", StartTime: at(11, 0), EndTime: at(12, 0),
	}); err != nil {
		t.Errorf("expected back-to-back booking to succeed, got %v", err)
	}

	// One overlapping minute is.
	_, err := svc.Create(ctx, &model.BookingRequest{
		RoomID: "aurora", ReservedBy: "kim", StartTime: at(10, 59), EndTime: at(11, 30),
	})
	if err == nil {
		t.Fatal("expected a conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestCreate_ConflictIsRoomScopedAndCaseInsensitive(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)
	ctx := context.Background()

	req := validRequest(now)
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same window, different case of the same room: conflict.
	sameRoom := validRequest(now)
	sameRoom.RoomID = "AURORA"
	if _, err := svc.Create(ctx, sameRoom); err == nil {
		t.Error("expected conflict for case variant of the same room")
	}

	// Same window, different room: fine.
	otherRoom := validRequest(now)
	otherRoom.RoomID = "borealis"
	if _, err := svc.Create(ctx, otherRoom); err != nil {
		t.Errorf("expected unrelated room to succeed, got %v", err)
	}
}

func TestOverlaps_Symmetry(t *testing.T) {
	base := time.Date(2027, 5, 6, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"disjoint", at(1), at(2), at(3), at(4), false},
		{"touching", at(1), at(2), at(2), at(3), false},
		{"partial overlap", at(1), at(3), at(2), at(4), true},
		{"containment", at(1), at(6), at(2), at(3), true},
		{"identical", at(1), at(2), at(1), at(2), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlaps(tt.s1, tt.e1, tt.s2, tt.e2)
			mirrored := overlaps(tt.s2, tt.e2, tt.s1, tt.e1)
			if got != tt.want {
				t.Errorf("overlaps = %v, want %v", got, tt.want)
			}
			if got != mirrored {
				t.Errorf("overlap test must be symmetric: %v vs %v", got, mirrored)
			}
		})
	}
}

func TestCancel_Idempotent(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	publisher := &mockPublisher{}
	svc := newTestService(now, publisher)
	ctx := context.Background()

	if found := svc.Cancel(ctx, "missing"); found {
		t.Error("expected cancelling an absent id to report false")
	}

	booking, err := svc.Create(ctx, validRequest(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if found := svc.Cancel(ctx, booking.ID); !found {
		t.Error("expected first cancellation to report true")
	}
	if found := svc.Cancel(ctx, booking.ID); found {
		t.Error("expected second cancellation to report false")
	}

	// created + one cancelled; the misses publish nothing.
	if len(publisher.published) != 2 {
		t.Errorf("expected 2 events, got %d: %v", len(publisher.published), publisher.published)
	}
}

func TestLifecycleEvents_ShareRoomKey(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	publisher := &mockPublisher{}
	svc := newTestService(now, publisher)
	ctx := context.Background()

	booking, err := svc.Create(ctx, validRequest(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found := svc.Cancel(ctx, booking.ID); !found {
		t.Fatal("expected cancellation to succeed")
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 events, got %d: %v", len(publisher.published), publisher.published)
	}

	created, cancelled := publisher.published[0], publisher.published[1]
	if created.eventType != events.TypeReservationCreated {
		t.Errorf("expected first event %s, got %s", events.TypeReservationCreated, created.eventType)
	}
	if cancelled.eventType != events.TypeReservationCancelled {
		t.Errorf("expected second event %s, got %s", events.TypeReservationCancelled, cancelled.eventType)
	}
	// Both lifecycle events of a booking must land on the room's partition.
	if created.key != "aurora" || cancelled.key != "aurora" {
		t.Errorf("expected both events keyed by room %q, got %q and %q",
			"aurora", created.key, cancelled.key)
	}
}

func TestCancel_FreesTheSlot(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)
	ctx := context.Background()

	booking, err := svc.Create(ctx, validRequest(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, validRequest(now)); err == nil {
		t.Fatal("expected conflict before cancellation")
	}

	svc.Cancel(ctx, booking.ID)

	if _, err := svc.Create(ctx, validRequest(now)); err != nil {
		t.Errorf("expected slot to be free after cancellation, got %v", err)
	}
}

func TestListByRoom(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)
	ctx := context.Background()

	if _, err := svc.ListByRoom(ctx, "  "); err == nil {
		t.Error("expected validation failure for blank room id")
	}

	later := validRequest(now)
	later.StartTime = now.Add(5 * time.Hour)
	later.EndTime = now.Add(6 * time.Hour)
	if _, err := svc.Create(ctx, later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, validRequest(now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bookings, err := svc.ListByRoom(ctx, "aurora")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(bookings))
	}
	if !bookings[0].StartTime.Before(bookings[1].StartTime) {
		t.Error("expected bookings ordered ascending by start time")
	}

	// Padded input resolves to the same room.
	padded, err := svc.ListByRoom(ctx, "  aurora  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(padded) != 2 {
		t.Errorf("expected padded room id to match the same room, got %d bookings", len(padded))
	}
}

func TestFreeSlots_ValidatesQuery(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)

	_, err := svc.FreeSlots(context.Background(), &model.FreeSlotQuery{
		RoomID:     "",
		RangeStart: now,
		RangeEnd:   now.Add(-time.Hour),
		MinHours:   0,
	})
	if err == nil {
		t.Fatal("expected a validation error")
	}

	appErr := apperrors.AsAppError(err)
	messages, ok := appErr.Details["errors"].([]string)
	if !ok || len(messages) != 3 {
		t.Errorf("expected 3 collected messages, got %v", appErr.Details)
	}
}

func TestFreeSlots_UsesRoomBookings(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)
	ctx := context.Background()

	day := time.Date(2027, 5, 6, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Create(ctx, &model.BookingRequest{
		RoomID:     "aurora",
		ReservedBy: "alex",
		StartTime:  day.Add(9 * time.Hour),
		EndTime:    day.Add(11 * time.Hour),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slots, err := svc.FreeSlots(ctx, &model.FreeSlotQuery{
		RoomID:     "aurora",
		RangeStart: day,
		RangeEnd:   day.Add(48 * time.Hour),
		MinHours:   2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %+v", len(slots), slots)
	}
	if slots[0].DurationHours != 9.0 || slots[1].DurationHours != 37.0 {
		t.Errorf("expected durations 9.0 and 37.0, got %v and %v",
			slots[0].DurationHours, slots[1].DurationHours)
	}
}

func TestCreate_ConcurrentSameSlot(t *testing.T) {
	now := time.Date(2027, 5, 6, 8, 0, 0, 0, time.UTC)
	svc := newTestService(now, nil)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)

	var mu sync.Mutex
	successes, conflicts := 0, 0

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), validRequest(now))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.AsAppError(err).Code == apperrors.CodeConflict:
				conflicts++
			default:
				t.Errorf("unexpected error kind: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != workers-1 {
		t.Errorf("expected %d conflicts, got %d", workers-1, conflicts)
	}
}
