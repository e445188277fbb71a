package mongo

import (
	"context"
	"fmt"

	bookingsrepository "roombook/internal/bookings/repository"
	"roombook/internal/migrations/mongo/validators"
	roomsrepository "roombook/internal/rooms/repository"
	usersrepository "roombook/internal/users/repository"
	"roombook/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UsersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
	}

	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{
			{Key: "availability", Value: 1},
			{Key: "booked_dates", Value: 1},
		}},
	}

	// The unique (room_id, date) index is what makes double booking impossible.
	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetName("room_date_unique").SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "customer_id", Value: 1},
			{Key: "date", Value: 1},
		}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}
)

type collectionDefinition struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var collections = []collectionDefinition{
	{Name: usersrepository.CollectionName, Indexes: UsersIndexes, Validator: validators.UserValidator},
	{Name: roomsrepository.CollectionName, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
	{Name: bookingsrepository.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
}

// RunMigration creates the collections with their JSON schema validators and indexes.
// It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
