package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
)

// RoomResolver resolves an active room. Implemented by the rooms service.
type RoomResolver interface {
	GetActiveByID(ctx context.Context, id string) (*model.Room, error)
}

// Notifier emits booking events. Implementations must not block the
// caller; delivery is best-effort.
type Notifier interface {
	BookingConfirmed(booking *model.Booking)
	BookingCancelled(booking *model.Booking)
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	Cancel(ctx context.Context, bookingID, memberID string) error
	ListByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	rooms     RoomResolver
	notifier  Notifier
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	rooms RoomResolver,
	notifier Notifier,
	v *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		rooms:     rooms,
		notifier:  notifier,
		validator: v,
		cfg:       cfg,
	}
}

// Create books a room for the requesting member. The per-room advisory lock
// serializes concurrent creates for a room, so the overlap check inside the
// transaction always sees every committed booking it could conflict with.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	room, err := s.rooms.GetActiveByID(ctx, booking.RoomID)
	if err != nil {
		return err
	}
	booking.RoomName = room.RoomName

	if err := s.validate(booking); err != nil {
		return err
	}
	if booking.NoOfPersons > room.Capacity {
		return apperrors.InvalidInput(fmt.Sprintf(
			"Number of persons (%d) exceeds room capacity (%d)",
			booking.NoOfPersons, room.Capacity,
		))
	}

	lockID, err := s.acquireRoomLock(ctx, booking.RoomID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(context.WithoutCancel(ctx), lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "room_id", booking.RoomID, "error", err)
		return err
	}

	s.notifier.BookingConfirmed(booking)

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"member_id", booking.MemberID,
		"start_time", booking.StartTime,
	)
	return nil
}

// Cancel deletes a booking owned by memberID. Bookings that already
// started cannot be cancelled; other members' bookings read as not found.
func (s *bookingService) Cancel(ctx context.Context, bookingID, memberID string) error {
	if bookingID == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByIDAndMember(ctx, bookingID, memberID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		return apperrors.Internal("Failed to retrieve booking", err)
	}

	if !time.Now().Before(booking.StartTime) {
		return apperrors.InvalidInput("Bookings that have already started cannot be cancelled")
	}

	if err := s.repo.DeleteByIDAndMember(ctx, bookingID, memberID); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			// Deleted by a concurrent cancel between the read and the delete.
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		s.cfg.Log.Error("Failed to cancel booking", "id", bookingID, "error", err)
		return apperrors.Internal("Failed to cancel booking", err)
	}

	s.notifier.BookingCancelled(booking)

	s.cfg.Log.Info("Booking cancelled", "id", bookingID, "member_id", memberID)
	return nil
}

func (s *bookingService) ListByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByMember(ctx, memberID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "member_id", memberID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByMember(ctx, memberID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "member_id", memberID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// --- Helpers ---

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) verifyNoOverlap(ctx context.Context, booking *model.Booking) error {
	// Checking a bounded number of overlap candidates is sufficient; a room
	// cannot hold more concurrent bookings than this in one window.
	const maxOverlapCheck = 30
	existing, err := s.repo.FindOverlapping(ctx, booking.RoomID, booking.StartTime, booking.EndTime, maxOverlapCheck)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.ID == booking.ID {
			continue
		}
		if model.Overlaps(b.StartTime, b.EndTime, booking.StartTime, booking.EndTime) {
			return apperrors.Conflict(fmt.Sprintf(
				"Booking time overlaps with existing booking (%s - %s)",
				b.StartTime.Format(model.TimeLayout),
				b.EndTime.Format(model.TimeLayout),
			))
		}
	}
	return nil
}

// acquireRoomLock takes the advisory lock for a room. The lock is held only
// for the duration of one create, so all creates for a room serialize; a
// duplicate key means another request is booking this room right now. Keying
// by room rather than by slot is what closes the write-skew window: two
// overlapping windows with different start times must still contend on the
// same lock, because the transactional overlap check alone cannot see the
// other transaction's uncommitted insert.
func (s *bookingService) acquireRoomLock(ctx context.Context, roomID string) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s", roomID)

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseRoomLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
