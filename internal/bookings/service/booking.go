package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"roombook/internal/auth"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/metrics"
	"roombook/pkg/model"
	"roombook/pkg/validation"
)

const (
	operationCreate = "create"
	operationCancel = "cancel"
)

type BookingService interface {
	Create(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Booking, *model.Room, error)
	Cancel(ctx context.Context, caller auth.Identity, bookingID string) error
	ListForUser(ctx context.Context, customerID string) ([]*model.BookingDetails, error)
	ListAll(ctx context.Context) ([]*model.BookingDetails, error)
	MonthlyReport(ctx context.Context, year, month string) (*MonthlyReport, error)
}

// RoomStore is the part of the room repository bookings write through.
type RoomStore interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	ReserveDay(ctx context.Context, id string, day model.Day) error
	ReleaseDay(ctx context.Context, id string, day model.Day) error
}

type AvailabilityInvalidator interface {
	Invalidate(ctx context.Context, day model.Day) error
}

type MonthlyReport struct {
	Year    int
	Month   time.Month
	Entries []*model.MonthlyReportEntry
}

type bookingService struct {
	repo      repository.BookingRepository
	rooms     RoomStore
	cache     AvailabilityInvalidator
	events    events.Publisher
	txManager mongotx.TransactionManager
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms RoomStore,
	cache AvailabilityInvalidator,
	publisher events.Publisher,
	txManager mongotx.TransactionManager,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		rooms:     rooms,
		cache:     cache,
		events:    publisher,
		txManager: txManager,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Booking, *model.Room, error) {
	roomID, rawDate := strings.TrimSpace(req.RoomID), strings.TrimSpace(req.Date)
	if roomID == "" || rawDate == "" {
		return nil, nil, apperrors.InvalidInput("Room ID and date are required.")
	}

	day, err := model.ParseDay(rawDate)
	if err != nil {
		return nil, nil, apperrors.Validation("Invalid date format", map[string]any{"date": rawDate})
	}

	booking := &model.Booking{
		CustomerID: customerID,
		RoomID:     roomID,
		Date:       day,
	}
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "room_id", roomID, "error", err)
		return nil, nil, validationError("Booking validation failed", err)
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		switch {
		case errors.Is(err, roomserrors.ErrNotFound):
			metrics.IncBooking(operationCreate, metrics.OutcomeNotFound)
			return nil, nil, apperrors.NotFoundWithID("Room", roomID)
		case errors.Is(err, roomserrors.ErrInvalidID):
			return nil, nil, apperrors.Validation("Invalid room ID", map[string]any{"roomId": roomID})
		}
		s.cfg.Log.Error("Failed to load room for booking", "room_id", roomID, "error", err)
		metrics.IncBooking(operationCreate, metrics.OutcomeError)
		return nil, nil, apperrors.Internal("Failed to create booking", err)
	}

	if model.ContainsDay(room.BookedDates, day) {
		metrics.IncBooking(operationCreate, metrics.OutcomeConflict)
		return nil, nil, bookingConflict(roomID, day)
	}

	var created model.Booking
	err = s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		// fn may be retried, so each attempt inserts a fresh document.
		created = *booking
		if err := s.repo.Create(txCtx, &created); err != nil {
			return err
		}
		return s.rooms.ReserveDay(txCtx, roomID, day)
	})
	if err != nil {
		s.discardOrphan(ctx, &created)
		if errors.Is(err, bookingserrors.ErrAlreadyBooked) || errors.Is(err, roomserrors.ErrDayTaken) {
			s.cfg.Log.Info("Booking rejected", "room_id", roomID, "date", day.String(), "reason", err)
			metrics.IncBooking(operationCreate, metrics.OutcomeConflict)
			return nil, nil, bookingConflict(roomID, day)
		}
		s.cfg.Log.Error("Failed to create booking", "room_id", roomID, "date", day.String(), "error", err)
		metrics.IncBooking(operationCreate, metrics.OutcomeError)
		return nil, nil, apperrors.Internal("Failed to create booking", err)
	}

	room.BookedDates = append(room.BookedDates, day)

	s.afterCommit(ctx, &created)
	if err := s.events.BookingCreated(ctx, &created); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "booking_id", created.ID, "error", err)
	}

	metrics.IncBooking(operationCreate, metrics.OutcomeSuccess)
	s.cfg.Log.Info("Booking created",
		"booking_id", created.ID,
		"room_id", roomID,
		"customer_id", customerID,
		"date", day.String(),
	)
	return &created, room, nil
}

func (s *bookingService) Cancel(ctx context.Context, caller auth.Identity, bookingID string) error {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return apperrors.InvalidInput("Booking ID is required.")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return s.mapCancelError(err, bookingID)
	}

	if booking.CustomerID != caller.ID && !caller.IsAdmin() {
		s.cfg.Log.Warn("Booking cancel forbidden", "booking_id", bookingID, "caller_id", caller.ID)
		metrics.IncBooking(operationCancel, metrics.OutcomeForbidden)
		return apperrors.Forbidden("You are not allowed to cancel this booking.")
	}

	err = s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, bookingID); err != nil {
			return err
		}
		return s.rooms.ReleaseDay(txCtx, booking.RoomID, booking.Date)
	})
	if err != nil {
		return s.mapCancelError(err, bookingID)
	}

	s.afterCommit(ctx, booking)
	if err := s.events.BookingCanceled(ctx, booking, caller.ID); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "booking_id", bookingID, "error", err)
	}

	metrics.IncBooking(operationCancel, metrics.OutcomeSuccess)
	s.cfg.Log.Info("Booking canceled",
		"booking_id", bookingID,
		"room_id", booking.RoomID,
		"date", booking.Date.String(),
		"caller_id", caller.ID,
	)
	return nil
}

func (s *bookingService) ListForUser(ctx context.Context, customerID string) ([]*model.BookingDetails, error) {
	bookings, err := s.repo.ListForCustomer(ctx, customerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to fetch bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) ListAll(ctx context.Context) ([]*model.BookingDetails, error) {
	bookings, err := s.repo.ListAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list all bookings", "error", err)
		return nil, apperrors.Internal("Failed to fetch bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) MonthlyReport(ctx context.Context, year, month string) (*MonthlyReport, error) {
	if strings.TrimSpace(year) == "" || strings.TrimSpace(month) == "" {
		return nil, apperrors.InvalidInput("Year and month are required.")
	}

	y, m, err := validator.ParseReportPeriod(year, month)
	if err != nil {
		return nil, validationError("Invalid report period", err)
	}

	start, end := model.MonthRange(y, m)
	entries, err := s.repo.MonthlyReport(ctx, start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to build monthly report", "year", y, "month", int(m), "error", err)
		return nil, apperrors.Internal("Failed to build monthly report", err)
	}

	return &MonthlyReport{Year: y, Month: m, Entries: entries}, nil
}

// afterCommit drops the cached availability for the booking's day.
func (s *bookingService) afterCommit(ctx context.Context, booking *model.Booking) {
	if !s.cfg.CacheInvalidateOnWrite {
		return
	}
	if err := s.cache.Invalidate(ctx, booking.Date); err != nil {
		s.cfg.Log.Warn("Failed to invalidate availability cache",
			"date", booking.Date.String(),
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

// discardOrphan deletes a booking whose room update failed. Inside a transaction the
// insert is already rolled back and the delete finds nothing.
func (s *bookingService) discardOrphan(ctx context.Context, booking *model.Booking) {
	if booking.ID == "" {
		return
	}

	err := s.repo.Delete(context.WithoutCancel(ctx), booking.ID)
	switch {
	case err == nil:
		s.cfg.Log.Warn("Removed booking left behind by failed room update",
			"booking_id", booking.ID,
			"room_id", booking.RoomID,
			"date", booking.Date.String(),
		)
	case errors.Is(err, bookingserrors.ErrNotFound):
	default:
		s.cfg.Log.Error("Failed to remove orphan booking",
			"booking_id", booking.ID,
			"room_id", booking.RoomID,
			"date", booking.Date.String(),
			"error", err,
		)
	}
}

func (s *bookingService) mapCancelError(err error, bookingID string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound), errors.Is(err, bookingserrors.ErrInvalidID):
		metrics.IncBooking(operationCancel, metrics.OutcomeNotFound)
		return apperrors.NotFoundWithID("Booking", bookingID)
	default:
		s.cfg.Log.Error("Failed to cancel booking", "booking_id", bookingID, "error", err)
		metrics.IncBooking(operationCancel, metrics.OutcomeError)
		return apperrors.Internal("Failed to cancel booking", err)
	}
}

// bookingConflict keeps the conflict kind but answers 400 as the booking API always has.
func bookingConflict(roomID string, day model.Day) *apperrors.AppError {
	return apperrors.Conflict("Room is already booked for this date.").
		WithStatus(http.StatusBadRequest).
		WithDetails(map[string]any{"roomId": roomID, "date": day.ISO()})
}

func validationError(message string, err error) *apperrors.AppError {
	var errs validation.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
