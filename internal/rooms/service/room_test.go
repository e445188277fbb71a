package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/cache"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────

type memoryRoomRepository struct {
	mu       sync.Mutex
	rooms    map[string]*model.Room
	order    []string
	queries  int
	queryErr error
}

func newMemoryRoomRepository(rooms ...*model.Room) *memoryRoomRepository {
	repo := &memoryRoomRepository{rooms: make(map[string]*model.Room)}
	for _, room := range rooms {
		repo.rooms[room.ID] = room
		repo.order = append(repo.order, room.ID)
	}
	return repo
}

func (m *memoryRoomRepository) Create(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room.ID = fmt.Sprintf("%024x", len(m.order)+1)
	stored := *room
	m.rooms[room.ID] = &stored
	m.order = append(m.order, room.ID)
	return nil
}

func (m *memoryRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}
	room, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
	}
	copied := *room
	return &copied, nil
}

func (m *memoryRoomRepository) FindAvailable(ctx context.Context, day model.Day) ([]*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []*model.Room
	for _, id := range m.order {
		if room := m.rooms[id]; room.Availability && !model.ContainsDay(room.BookedDates, day) {
			copied := *room
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryRoomRepository) FindByType(ctx context.Context, roomType model.RoomType) ([]*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Room
	for _, id := range m.order {
		if room := m.rooms[id]; room.Type == roomType {
			copied := *room
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryRoomRepository) Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}
	room, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
	}
	if updates.Name != nil {
		room.Name = *updates.Name
	}
	if updates.Type != nil {
		room.Type = *updates.Type
	}
	if updates.Price != nil {
		room.Price = *updates.Price
	}
	if updates.Availability != nil {
		room.Availability = *updates.Availability
	}
	copied := *room
	return &copied, nil
}

func (m *memoryRoomRepository) ReserveDay(ctx context.Context, id string, day model.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
	}
	if model.ContainsDay(room.BookedDates, day) {
		return fmt.Errorf("%w: %s", roomserrors.ErrDayTaken, day)
	}
	room.BookedDates = append(room.BookedDates, day)
	return nil
}

func (m *memoryRoomRepository) ReleaseDay(ctx context.Context, id string, day model.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[id]; ok {
		room.BookedDates = withoutDay(room.BookedDates, day)
	}
	return nil
}

func withoutDay(days []model.Day, d model.Day) []model.Day {
	out := make([]model.Day, 0, len(days))
	for _, candidate := range days {
		if candidate != d {
			out = append(out, candidate)
		}
	}
	return out
}

type mockAvailabilityCache struct {
	mock.Mock
}

func (m *mockAvailabilityCache) Get(ctx context.Context, day model.Day) ([]*model.Room, bool, error) {
	args := m.Called(ctx, day)
	rooms, _ := args.Get(0).([]*model.Room)
	return rooms, args.Bool(1), args.Error(2)
}

func (m *mockAvailabilityCache) Generation(ctx context.Context, day model.Day) (cache.Generation, error) {
	args := m.Called(ctx, day)
	gen, _ := args.Get(0).(cache.Generation)
	return gen, args.Error(1)
}

func (m *mockAvailabilityCache) Set(ctx context.Context, day model.Day, rooms []*model.Room, gen cache.Generation) error {
	return m.Called(ctx, day, rooms, gen).Error(0)
}

func (m *mockAvailabilityCache) Invalidate(ctx context.Context, day model.Day) error {
	return m.Called(ctx, day).Error(0)
}

func (m *mockAvailabilityCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                    logger.Discard(),
		CacheInvalidateOnWrite: true,
	}
}

func fixtureRooms(day model.Day) []*model.Room {
	return []*model.Room{
		{ID: "000000000000000000000001", Name: "Oda 1", Type: model.RoomTypeBasic, Price: 50, Availability: true, BookedDates: []model.Day{}},
		{ID: "000000000000000000000002", Name: "Oda 2", Type: model.RoomTypeSuite, Price: 200, Availability: true, BookedDates: []model.Day{day}},
		{ID: "000000000000000000000003", Name: "Oda 3", Type: model.RoomTypeSuite, Price: 180, Availability: false, BookedDates: []model.Day{}},
	}
}

var ctx = context.Background()

// ────────────────────────────────────────────────
// GetAvailable
// ────────────────────────────────────────────────

func TestGetAvailable_MissQueriesStoreAndCaches(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository(fixtureRooms(day)...)
	c := &mockAvailabilityCache{}
	gen := cache.Generation{All: 1, Day: 4}
	c.On("Get", mock.Anything, day).Return(nil, false, nil).Once()
	c.On("Generation", mock.Anything, day).Return(gen, nil).Once()
	c.On("Set", mock.Anything, day, mock.MatchedBy(func(rooms []*model.Room) bool {
		return len(rooms) == 1 && rooms[0].ID == "000000000000000000000001"
	}), gen).Return(nil).Once()

	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())
	rooms, err := svc.GetAvailable(ctx, day)

	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Oda 1", rooms[0].Name)
	for _, room := range rooms {
		assert.False(t, model.ContainsDay(room.BookedDates, day))
	}
	c.AssertExpectations(t)
}

func TestGetAvailable_HitSkipsStore(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository(fixtureRooms(day)...)
	stale := []*model.Room{{ID: "000000000000000000000002", Name: "Oda 2"}}
	c := &mockAvailabilityCache{}
	c.On("Get", mock.Anything, day).Return(stale, true, nil).Once()

	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())
	rooms, err := svc.GetAvailable(ctx, day)

	require.NoError(t, err)
	assert.Equal(t, stale, rooms)
	assert.Zero(t, repo.queries)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAvailable_EmptyResultIsCachedAsEmptyArray(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository()
	c := &mockAvailabilityCache{}
	c.On("Get", mock.Anything, day).Return(nil, false, nil)
	c.On("Generation", mock.Anything, day).Return(cache.Generation{}, nil)
	c.On("Set", mock.Anything, day, []*model.Room{}, cache.Generation{}).Return(nil).Once()

	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())
	rooms, err := svc.GetAvailable(ctx, day)

	require.NoError(t, err)
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)
	c.AssertExpectations(t)
}

func TestGetAvailable_CacheErrorFallsBack(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository(fixtureRooms(day)...)
	c := &mockAvailabilityCache{}
	c.On("Get", mock.Anything, day).Return(nil, false, errors.New("connection refused"))

	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())
	rooms, err := svc.GetAvailable(ctx, day)

	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, 1, repo.queries)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAvailable_StaleSnapshotIsServedButNotFatal(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository(fixtureRooms(day)...)
	c := &mockAvailabilityCache{}
	c.On("Get", mock.Anything, day).Return(nil, false, nil)
	c.On("Generation", mock.Anything, day).Return(cache.Generation{Day: 1}, nil)
	c.On("Set", mock.Anything, day, mock.Anything, cache.Generation{Day: 1}).Return(cache.ErrStale).Once()

	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())
	rooms, err := svc.GetAvailable(ctx, day)

	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	c.AssertExpectations(t)
}

func TestGetAvailable_GenerationErrorSkipsStore(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository(fixtureRooms(day)...)
	c := &mockAvailabilityCache{}
	c.On("Get", mock.Anything, day).Return(nil, false, nil)
	c.On("Generation", mock.Anything, day).Return(cache.Generation{}, errors.New("connection reset"))

	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())
	rooms, err := svc.GetAvailable(ctx, day)

	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAvailable_StrictCacheErrorIsUnavailable(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository(fixtureRooms(day)...)
	c := &mockAvailabilityCache{}
	c.On("Get", mock.Anything, day).Return(nil, false, errors.New("connection refused"))

	cfg := testConfig()
	cfg.CacheStrict = true
	svc := NewRoomService(repo, c, validator.NewRoomValidator(), cfg)
	_, err := svc.GetAvailable(ctx, day)

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.AsAppError(err).StatusCode())
	assert.Zero(t, repo.queries)
}

func TestGetAvailable_StoreErrorIsGeneric(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository()
	repo.queryErr = errors.New("server selection timeout")
	c := &mockAvailabilityCache{}
	c.On("Get", mock.Anything, day).Return(nil, false, nil)
	c.On("Generation", mock.Anything, day).Return(cache.Generation{}, nil)

	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())
	_, err := svc.GetAvailable(ctx, day)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
	assert.NotContains(t, appErr.Message, "server selection")
}

func TestGetAvailable_ZeroDay(t *testing.T) {
	svc := NewRoomService(newMemoryRoomRepository(), &mockAvailabilityCache{}, validator.NewRoomValidator(), testConfig())

	_, err := svc.GetAvailable(ctx, model.Day{})
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
}

// ────────────────────────────────────────────────
// GetByType
// ────────────────────────────────────────────────

func TestGetByType(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	repo := newMemoryRoomRepository(fixtureRooms(day)...)
	svc := NewRoomService(repo, &mockAvailabilityCache{}, validator.NewRoomValidator(), testConfig())

	t.Run("CaseInsensitive", func(t *testing.T) {
		rooms, err := svc.GetByType(ctx, " suite ")
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
	})

	t.Run("NoMatchesIsEmptyArray", func(t *testing.T) {
		rooms, err := svc.GetByType(ctx, "Premium")
		require.NoError(t, err)
		assert.NotNil(t, rooms)
		assert.Empty(t, rooms)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := svc.GetByType(ctx, "  ")
		assert.Equal(t, "Please specify a room type.", apperrors.AsAppError(err).Message)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := svc.GetByType(ctx, "Penthouse")
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}

// ────────────────────────────────────────────────
// Create / Edit
// ────────────────────────────────────────────────

func TestCreate_DefaultsAndInvalidates(t *testing.T) {
	repo := newMemoryRoomRepository()
	c := &mockAvailabilityCache{}
	c.On("InvalidateAll", mock.Anything).Return(nil).Once()
	svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())

	room, err := svc.Create(ctx, &model.RoomCreate{Name: "  Deniz   Manzaralı ", Type: "premium", Price: 120})

	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Deniz Manzaralı", room.Name)
	assert.Equal(t, model.RoomTypePremium, room.Type)
	assert.True(t, room.Availability)
	assert.NotNil(t, room.BookedDates)
	c.AssertExpectations(t)
}

func TestCreate_ValidationFailure(t *testing.T) {
	c := &mockAvailabilityCache{}
	svc := NewRoomService(newMemoryRoomRepository(), c, validator.NewRoomValidator(), testConfig())

	_, err := svc.Create(ctx, &model.RoomCreate{Name: "Oda", Type: model.RoomTypeBasic, Price: 0})

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "price")
	c.AssertNotCalled(t, "InvalidateAll", mock.Anything)
}

func TestEdit(t *testing.T) {
	day := model.NewDay(2024, time.March, 1)
	availability := false

	t.Run("UpdatesAndInvalidatesAll", func(t *testing.T) {
		repo := newMemoryRoomRepository(fixtureRooms(day)...)
		c := &mockAvailabilityCache{}
		c.On("InvalidateAll", mock.Anything).Return(nil).Once()
		svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())

		room, err := svc.Edit(ctx, "000000000000000000000002", &model.RoomUpdate{Availability: &availability})

		require.NoError(t, err)
		assert.False(t, room.Availability)
		assert.Equal(t, []model.Day{day}, room.BookedDates)
		c.AssertExpectations(t)
	})

	t.Run("InvalidationDisabled", func(t *testing.T) {
		repo := newMemoryRoomRepository(fixtureRooms(day)...)
		c := &mockAvailabilityCache{}
		cfg := testConfig()
		cfg.CacheInvalidateOnWrite = false
		svc := NewRoomService(repo, c, validator.NewRoomValidator(), cfg)

		_, err := svc.Edit(ctx, "000000000000000000000001", &model.RoomUpdate{Availability: &availability})

		require.NoError(t, err)
		c.AssertNotCalled(t, "InvalidateAll", mock.Anything)
	})

	t.Run("InvalidationFailureDoesNotFailEdit", func(t *testing.T) {
		repo := newMemoryRoomRepository(fixtureRooms(day)...)
		c := &mockAvailabilityCache{}
		c.On("InvalidateAll", mock.Anything).Return(errors.New("redis down"))
		svc := NewRoomService(repo, c, validator.NewRoomValidator(), testConfig())

		_, err := svc.Edit(ctx, "000000000000000000000001", &model.RoomUpdate{Availability: &availability})
		assert.NoError(t, err)
	})

	t.Run("Errors", func(t *testing.T) {
		svc := NewRoomService(newMemoryRoomRepository(fixtureRooms(day)...), &mockAvailabilityCache{},
			validator.NewRoomValidator(), testConfig())
		negative := -10.0

		_, err := svc.Edit(ctx, "", &model.RoomUpdate{Availability: &availability})
		assert.Equal(t, "Room ID and updates are required.", apperrors.AsAppError(err).Message)

		_, err = svc.Edit(ctx, "000000000000000000000001", nil)
		assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())

		_, err = svc.Edit(ctx, "000000000000000000000001", &model.RoomUpdate{})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

		_, err = svc.Edit(ctx, "000000000000000000000001", &model.RoomUpdate{Price: &negative})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

		_, err = svc.Edit(ctx, "00000000000000000000000f", &model.RoomUpdate{Availability: &availability})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

		_, err = svc.Edit(ctx, "nope", &model.RoomUpdate{Availability: &availability})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}
