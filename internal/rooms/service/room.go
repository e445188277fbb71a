package service

import (
	"context"
	"errors"
	"strings"

	"roombook/internal/rooms/cache"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/metrics"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"
)

type RoomService interface {
	GetAvailable(ctx context.Context, day model.Day) ([]*model.Room, error)
	GetByType(ctx context.Context, roomType string) ([]*model.Room, error)
	Create(ctx context.Context, room *model.RoomCreate) (*model.Room, error)
	Edit(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error)
}

type roomService struct {
	repo      repository.RoomRepository
	cache     cache.AvailabilityCache
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	cache cache.AvailabilityCache,
	validator *validator.RoomValidator,
	cfg *config.Config,
) RoomService {
	return &roomService{
		repo:      repo,
		cache:     cache,
		validator: validator,
		cfg:       cfg,
	}
}

// GetAvailable serves the day's snapshot from cache when present. A cache backend
// failure falls back to the store unless CacheStrict is set.
func (s *roomService) GetAvailable(ctx context.Context, day model.Day) ([]*model.Room, error) {
	if day.IsZero() {
		return nil, apperrors.InvalidInput("Please provide a date.")
	}

	rooms, hit, err := s.cache.Get(ctx, day)
	var gen cache.Generation
	storable := false
	switch {
	case err != nil:
		metrics.IncCacheLookup(metrics.CacheError)
		if s.cfg.CacheStrict {
			s.cfg.Log.Error("Availability cache lookup failed", "date", day.String(), "error", err)
			return nil, apperrors.Unavailable("Availability cache", err)
		}
		s.cfg.Log.Warn("Availability cache lookup failed, querying store", "date", day.String(), "error", err)
	case hit:
		metrics.IncCacheLookup(metrics.CacheHit)
		return rooms, nil
	default:
		metrics.IncCacheLookup(metrics.CacheMiss)
		if gen, err = s.cache.Generation(ctx, day); err != nil {
			s.cfg.Log.Warn("Failed to read availability generation", "date", day.String(), "error", err)
		} else {
			storable = true
		}
	}

	rooms, err = s.repo.FindAvailable(ctx, day)
	if err != nil {
		s.cfg.Log.Error("Failed to query available rooms", "date", day.String(), "error", err)
		return nil, apperrors.Internal("Failed to fetch available rooms", err)
	}
	if rooms == nil {
		rooms = []*model.Room{}
	}

	if !storable {
		return rooms, nil
	}
	if err := s.cache.Set(ctx, day, rooms, gen); err != nil {
		if errors.Is(err, cache.ErrStale) {
			s.cfg.Log.Debug("Availability changed while querying, snapshot not cached", "date", day.String())
		} else {
			s.cfg.Log.Warn("Failed to cache available rooms", "date", day.String(), "error", err)
		}
	}
	return rooms, nil
}

func (s *roomService) GetByType(ctx context.Context, roomType string) ([]*model.Room, error) {
	if strings.TrimSpace(roomType) == "" {
		return nil, apperrors.InvalidInput("Please specify a room type.")
	}

	parsed, ok := model.ParseRoomType(roomType)
	if !ok {
		return nil, apperrors.Validation("Invalid room type", map[string]any{
			"type":    roomType,
			"allowed": model.RoomTypes,
		})
	}

	rooms, err := s.repo.FindByType(ctx, parsed)
	if err != nil {
		s.cfg.Log.Error("Failed to query rooms by type", "type", parsed, "error", err)
		return nil, apperrors.Internal("Failed to fetch rooms", err)
	}
	if rooms == nil {
		rooms = []*model.Room{}
	}
	return rooms, nil
}

func (s *roomService) Create(ctx context.Context, create *model.RoomCreate) (*model.Room, error) {
	create.Name = sanitizer.NormalizeRoomName(create.Name)
	if parsed, ok := model.ParseRoomType(string(create.Type)); ok {
		create.Type = parsed
	}

	if err := s.validator.ValidateCreate(create); err != nil {
		s.cfg.Log.Warn("Room validation failed", "name", create.Name, "error", err)
		return nil, validationError("Room validation failed", err)
	}

	room := &model.Room{
		Name:         create.Name,
		Type:         create.Type,
		Price:        create.Price,
		Availability: true,
		BookedDates:  []model.Day{},
	}
	if create.Availability != nil {
		room.Availability = *create.Availability
	}

	if err := s.repo.Create(ctx, room); err != nil {
		s.cfg.Log.Error("Failed to create room", "name", room.Name, "error", err)
		return nil, apperrors.Internal("Failed to create room", err)
	}

	s.invalidateAll(ctx, "room_created", room.ID)
	s.cfg.Log.Info("Room created", "room_id", room.ID, "type", room.Type)
	return room, nil
}

func (s *roomService) Edit(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error) {
	if strings.TrimSpace(id) == "" || updates == nil {
		return nil, apperrors.InvalidInput("Room ID and updates are required.")
	}

	if updates.Name != nil {
		name := sanitizer.NormalizeRoomName(*updates.Name)
		updates.Name = &name
	}
	if updates.Type != nil {
		if parsed, ok := model.ParseRoomType(string(*updates.Type)); ok {
			updates.Type = &parsed
		}
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "room_id", id, "error", err)
		return nil, validationError("Room validation failed", err)
	}

	room, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to update room")
	}

	s.invalidateAll(ctx, "room_updated", id)
	s.cfg.Log.Info("Room updated", "room_id", id)
	return room, nil
}

// invalidateAll drops every cached availability snapshot; availability flags and
// room fields are embedded in all of them.
func (s *roomService) invalidateAll(ctx context.Context, reason, roomID string) {
	if !s.cfg.CacheInvalidateOnWrite {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.cfg.Log.Warn("Failed to invalidate availability cache",
			"reason", reason,
			"room_id", roomID,
			"error", err,
		)
	}
}

func (s *roomService) mapRepositoryError(err error, id, message string) error {
	switch {
	case errors.Is(err, roomserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Room", id)
	case errors.Is(err, roomserrors.ErrInvalidID):
		return apperrors.Validation("Invalid room ID", map[string]any{"id": id})
	default:
		s.cfg.Log.Error(message, "room_id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}

func validationError(message string, err error) *apperrors.AppError {
	var errs validation.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
