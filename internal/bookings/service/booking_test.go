package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/validator"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDMemberFunc  func(ctx context.Context, id, memberID string) (*model.Booking, error)
	findByMemberFunc    func(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Booking, error)
	countByMemberFunc   func(ctx context.Context, memberID string) (int64, error)
	findOverlappingFunc func(ctx context.Context, roomID string, start, end time.Time, limit int) ([]*model.Booking, error)
	deleteFunc          func(ctx context.Context, id, memberID string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "64f000000000000000000099"
	return nil
}

func (m *mockBookingRepository) FindByIDAndMember(ctx context.Context, id, memberID string) (*model.Booking, error) {
	if m.findByIDMemberFunc != nil {
		return m.findByIDMemberFunc(ctx, id, memberID)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByMemberFunc != nil {
		return m.findByMemberFunc(ctx, memberID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByMember(ctx context.Context, memberID string) (int64, error) {
	if m.countByMemberFunc != nil {
		return m.countByMemberFunc(ctx, memberID)
	}
	return 0, nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time, limit int) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, roomID, start, end, limit)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) DistinctRoomIDsOverlapping(ctx context.Context, start, end *time.Time) ([]string, error) {
	return nil, nil
}

func (m *mockBookingRepository) DeleteByIDAndMember(ctx context.Context, id, memberID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, memberID)
	}
	return nil
}

func (m *mockBookingRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleted    []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

func (m *mockLockRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

type mockRoomResolver struct {
	rooms map[string]*model.Room
}

func (m *mockRoomResolver) GetActiveByID(ctx context.Context, id string) (*model.Room, error) {
	if room, ok := m.rooms[id]; ok {
		return room, nil
	}
	return nil, apperrors.NotFoundWithID("Room", id)
}

type mockNotifier struct {
	confirmed []*model.Booking
	cancelled []*model.Booking
}

func (m *mockNotifier) BookingConfirmed(booking *model.Booking) {
	m.confirmed = append(m.confirmed, booking)
}

func (m *mockNotifier) BookingCancelled(booking *model.Booking) {
	m.cancelled = append(m.cancelled, booking)
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

const (
	testRoomID   = "64f000000000000000000001"
	testMemberID = "64f000000000000000000002"
)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		BookingLockTTL: 10 * time.Second,
	}
}

func newTestService(repo *mockBookingRepository, locks *mockLockRepository, rooms *mockRoomResolver, notifier *mockNotifier) BookingService {
	if locks == nil {
		locks = &mockLockRepository{}
	}
	if rooms == nil {
		rooms = &mockRoomResolver{rooms: map[string]*model.Room{
			testRoomID: {ID: testRoomID, RoomName: "Boardroom", Capacity: 8, IsActive: true},
		}}
	}
	if notifier == nil {
		notifier = &mockNotifier{}
	}
	return NewBookingService(repo, locks, rooms, notifier, validator.NewBookingValidator(), testConfig())
}

func validBooking() *model.Booking {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	return &model.Booking{
		RoomID:      testRoomID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		NoOfPersons: 4,
		MemberID:    testMemberID,
		MemberEmail: "member@example.com",
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.StatusCode() != want {
		t.Errorf("expected status %d, got %d (%v)", want, appErr.StatusCode(), err)
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	repo := &mockBookingRepository{}
	notifier := &mockNotifier{}
	svc := newTestService(repo, nil, nil, notifier)

	booking := validBooking()
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.RoomName != "Boardroom" {
		t.Errorf("expected denormalized room name, got %q", booking.RoomName)
	}
	if booking.ID == "" {
		t.Error("expected booking ID to be set")
	}
	if len(notifier.confirmed) != 1 {
		t.Fatalf("expected 1 confirmation event, got %d", len(notifier.confirmed))
	}
	if notifier.confirmed[0].ID != booking.ID {
		t.Errorf("confirmation event carries wrong booking: %q", notifier.confirmed[0].ID)
	}
}

func TestCreate_ReleasesRoomLock(t *testing.T) {
	locks := &mockLockRepository{}
	svc := newTestService(&mockBookingRepository{}, locks, nil, nil)

	if err := svc.Create(context.Background(), validBooking()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locks.deleted) != 1 {
		t.Fatalf("expected lock release, got %d deletes", len(locks.deleted))
	}
}

func TestCreate_RoomNotFound(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, nil, &mockRoomResolver{rooms: map[string]*model.Room{}}, nil)

	booking := validBooking()
	err := svc.Create(context.Background(), booking)
	assertStatus(t, err, http.StatusNotFound)
}

func TestCreate_OverlapRejected(t *testing.T) {
	booking := validBooking()
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time, limit int) ([]*model.Booking, error) {
			return []*model.Booking{{
				ID:        "64f000000000000000000042",
				RoomID:    roomID,
				StartTime: booking.StartTime.Add(30 * time.Minute),
				EndTime:   booking.EndTime.Add(30 * time.Minute),
			}}, nil
		},
	}
	notifier := &mockNotifier{}
	svc := newTestService(repo, nil, nil, notifier)

	err := svc.Create(context.Background(), booking)
	assertStatus(t, err, http.StatusBadRequest)
	if len(notifier.confirmed) != 0 {
		t.Error("no confirmation should be published for a rejected booking")
	}
}

func TestCreate_BackToBackAllowed(t *testing.T) {
	booking := validBooking()
	repo := &mockBookingRepository{
		// Adjacent booking: ends exactly when the new one starts.
		findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time, limit int) ([]*model.Booking, error) {
			return []*model.Booking{{
				ID:        "64f000000000000000000042",
				RoomID:    roomID,
				StartTime: booking.StartTime.Add(-time.Hour),
				EndTime:   booking.StartTime,
			}}, nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("back-to-back booking should be allowed, got: %v", err)
	}
}

func TestCreate_CapacityExceeded(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, nil, nil, nil)

	booking := validBooking()
	booking.NoOfPersons = 9 // room capacity is 8

	err := svc.Create(context.Background(), booking)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCreate_InvalidTimeRange(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, nil, nil, nil)

	booking := validBooking()
	booking.EndTime = booking.StartTime

	err := svc.Create(context.Background(), booking)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCreate_RoomLockContention(t *testing.T) {
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			return nil, mongo.WriteException{
				WriteErrors: mongo.WriteErrors{{Code: 11000}},
			}
		},
	}
	svc := newTestService(&mockBookingRepository{}, locks, nil, nil)

	err := svc.Create(context.Background(), validBooking())
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCreate_OverlappingWindowsContendOnRoomLock(t *testing.T) {
	// Two in-flight creates for the same room with different start times
	// (10:00-12:00 and 11:00-13:00 in effect). The overlap query models a
	// snapshot taken before either insert commits, so only lock contention
	// can stop the second create from committing an overlapping booking. A
	// lock keyed by start time instead of by room would hand each request
	// its own lock and let both commit.
	held := map[string]bool{}
	var acquired []string
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			if held[lock.ID] {
				return nil, mongo.WriteException{
					WriteErrors: mongo.WriteErrors{{Code: 11000}},
				}
			}
			held[lock.ID] = true
			acquired = append(acquired, lock.ID)
			return lock, nil
		},
	}
	committed := 0
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			committed++
			booking.ID = "64f000000000000000000099"
			return nil
		},
		findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time, limit int) ([]*model.Booking, error) {
			return nil, nil // uncommitted concurrent inserts are invisible
		},
	}
	svc := newTestService(repo, locks, nil, nil)

	first := validBooking()
	first.EndTime = first.StartTime.Add(2 * time.Hour)
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The mock never clears held, so the first request's lock is still
	// outstanding when the second, overlapping create arrives.
	second := validBooking()
	second.StartTime = first.StartTime.Add(time.Hour)
	second.EndTime = second.StartTime.Add(2 * time.Hour)

	err := svc.Create(context.Background(), second)
	assertStatus(t, err, http.StatusBadRequest)
	if committed != 1 {
		t.Errorf("expected 1 committed booking, got %d", committed)
	}
	if len(acquired) != 1 {
		t.Errorf("overlapping windows must contend on one lock, acquired: %v", acquired)
	}
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel_Success(t *testing.T) {
	booking := validBooking()
	booking.ID = "64f000000000000000000099"
	repo := &mockBookingRepository{
		findByIDMemberFunc: func(ctx context.Context, id, memberID string) (*model.Booking, error) {
			return booking, nil
		},
	}
	notifier := &mockNotifier{}
	svc := newTestService(repo, nil, nil, notifier)

	if err := svc.Cancel(context.Background(), booking.ID, testMemberID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.cancelled) != 1 {
		t.Fatalf("expected 1 cancellation event, got %d", len(notifier.cancelled))
	}
}

func TestCancel_AlreadyStarted(t *testing.T) {
	booking := validBooking()
	booking.ID = "64f000000000000000000099"
	booking.StartTime = time.Now().Add(-time.Hour)
	booking.EndTime = time.Now().Add(time.Hour)

	repo := &mockBookingRepository{
		findByIDMemberFunc: func(ctx context.Context, id, memberID string) (*model.Booking, error) {
			return booking, nil
		},
	}
	notifier := &mockNotifier{}
	svc := newTestService(repo, nil, nil, notifier)

	err := svc.Cancel(context.Background(), booking.ID, testMemberID)
	assertStatus(t, err, http.StatusBadRequest)
	if len(notifier.cancelled) != 0 {
		t.Error("no cancellation should be published for a rejected cancel")
	}
}

func TestCancel_NotOwnedReadsAsNotFound(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDMemberFunc: func(ctx context.Context, id, memberID string) (*model.Booking, error) {
			// Owner-scoped lookup misses bookings owned by other members.
			return nil, bookingserrors.ErrNotFound
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	err := svc.Cancel(context.Background(), "64f000000000000000000099", testMemberID)
	assertStatus(t, err, http.StatusNotFound)
}

func TestCancel_EmptyID(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, nil, nil, nil)

	err := svc.Cancel(context.Background(), "", testMemberID)
	assertStatus(t, err, http.StatusBadRequest)
}

// ────────────────────────────────────────────────
// ListByMember
// ────────────────────────────────────────────────

func TestListByMember(t *testing.T) {
	repo := &mockBookingRepository{
		countByMemberFunc: func(ctx context.Context, memberID string) (int64, error) {
			return 2, nil
		},
		findByMemberFunc: func(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Booking, error) {
			return []*model.Booking{
				{ID: "64f000000000000000000011", MemberID: memberID},
				{ID: "64f000000000000000000012", MemberID: memberID},
			}, nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	bookings, total, err := svc.ListByMember(context.Background(), testMemberID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(bookings) != 2 {
		t.Errorf("expected 2 bookings, got %d", len(bookings))
	}
}
