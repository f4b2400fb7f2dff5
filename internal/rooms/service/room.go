package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
)

// OverlapFinder reports which rooms already hold a booking that overlaps a
// window. Either bound may be nil for an open-ended window. Implemented by
// the bookings repository.
type OverlapFinder interface {
	DistinctRoomIDsOverlapping(ctx context.Context, start, end *time.Time) ([]string, error)
}

type RoomService interface {
	FindAvailable(ctx context.Context, start, end *time.Time, limit int, offset int64) ([]*model.Room, error)
	GetActiveByID(ctx context.Context, id string) (*model.Room, error)
	Create(ctx context.Context, room *model.Room) error
	Update(ctx context.Context, id string, updates *model.RoomUpdate) error
}

type roomService struct {
	repo      repository.RoomRepository
	overlaps  OverlapFinder
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(repo repository.RoomRepository, overlaps OverlapFinder, v *validator.RoomValidator, cfg *config.Config) RoomService {
	return &roomService{
		repo:      repo,
		overlaps:  overlaps,
		validator: v,
		cfg:       cfg,
	}
}

// FindAvailable lists active rooms free for the whole window. With no
// window it lists every active room. Supplying only one bound is treated
// as an open-ended window on that side.
func (s *roomService) FindAvailable(ctx context.Context, start, end *time.Time, limit int, offset int64) ([]*model.Room, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if start == nil && end == nil {
		rooms, err := s.repo.FindActive(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list active rooms", "error", err)
			return nil, apperrors.Internal("Failed to retrieve rooms", err)
		}
		return rooms, nil
	}

	if start != nil && end != nil && !end.After(*start) {
		return nil, apperrors.InvalidInput("end_time must be after start_time")
	}

	bookedIDs, err := s.overlaps.DistinctRoomIDsOverlapping(ctx, start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve booked rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}

	rooms, err := s.repo.FindActiveExcluding(ctx, bookedIDs, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list available rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}

	s.cfg.Log.Debug("Availability search completed",
		"booked_rooms", len(bookedIDs),
		"available_rooms", len(rooms),
	)
	return rooms, nil
}

func (s *roomService) GetActiveByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}

	return room, nil
}

func (s *roomService) Create(ctx context.Context, room *model.Room) error {
	room.RoomName = sanitizer.NormalizeRoomName(room.RoomName)
	room.IsActive = true

	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateName) {
			return apperrors.Conflict("A room with this name already exists")
		}
		s.cfg.Log.Error("Failed to create room", "error", err)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created", "id", room.ID, "room_name", room.RoomName)
	return nil
}

func (s *roomService) Update(ctx context.Context, id string, updates *model.RoomUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	set := bson.M{}
	if updates.RoomName != nil {
		set["room_name"] = sanitizer.NormalizeRoomName(*updates.RoomName)
	}
	if updates.Capacity != nil {
		set["capacity"] = *updates.Capacity
	}
	if updates.IsActive != nil {
		set["is_active"] = *updates.IsActive
	}

	if err := s.repo.Update(ctx, id, set); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, roomserrors.ErrDuplicateName) {
			return apperrors.Conflict("A room with this name already exists")
		}
		s.cfg.Log.Error("Failed to update room", "id", id, "error", err)
		return apperrors.Internal("Failed to update room", err)
	}

	s.cfg.Log.Info("Room updated", "id", id)
	return nil
}
