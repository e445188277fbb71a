package mongo

import (
	"testing"
	"time"

	"roombook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverEveryStore(t *testing.T) {
	var names []string
	for _, def := range collections {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Indexes, def.Name)
		assert.Contains(t, def.Validator, "$jsonSchema", def.Name)
	}
	assert.ElementsMatch(t, []string{"Users", "Rooms", "Bookings"}, names)
}

func TestBookingsIndexes_RoomDateIsUnique(t *testing.T) {
	unique := BookingsIndexes[0]
	require.NotNil(t, unique.Options)
	require.NotNil(t, unique.Options.Unique)
	assert.True(t, *unique.Options.Unique)
	assert.Equal(t, bson.D{{Key: "room_id", Value: 1}, {Key: "date", Value: 1}}, unique.Keys)
}

func TestUsersIndexes_UsernameIsUnique(t *testing.T) {
	require.NotNil(t, UsersIndexes[0].Options.Unique)
	assert.True(t, *UsersIndexes[0].Options.Unique)
}

// The stored field names must match what the schema validators require.
func TestModelFieldsMatchSchemas(t *testing.T) {
	booking, err := bson.Marshal(model.Booking{
		CustomerID: "65f1a2b3c4d5e6f708192a3b",
		RoomID:     "65f1a2b3c4d5e6f708192a3c",
		Date:       model.NewDay(2024, time.March, 1),
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	for _, field := range []string{"customer_id", "room_id", "date", "created_at"} {
		_, lookupErr := bson.Raw(booking).LookupErr(field)
		assert.NoError(t, lookupErr, field)
	}

	room, err := bson.Marshal(model.Room{Name: "Oda 1", Type: model.RoomTypeBasic, Price: 50, BookedDates: []model.Day{}})
	require.NoError(t, err)
	for _, field := range []string{"name", "type", "price", "availability", "booked_dates"} {
		_, lookupErr := bson.Raw(room).LookupErr(field)
		assert.NoError(t, lookupErr, field)
	}
}
