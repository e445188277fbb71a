package repository

import (
	"context"
	"errors"
	"fmt"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Rooms"
)

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindAvailable(ctx context.Context, day model.Day) ([]*model.Room, error)
	FindByType(ctx context.Context, roomType model.RoomType) ([]*model.Room, error)
	Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error)

	// ReserveDay adds day to the room's booked dates unless it is already there.
	ReserveDay(ctx context.Context, id string, day model.Day) error
	// ReleaseDay removes every occurrence of day from the room's booked dates.
	ReleaseDay(ctx context.Context, id string, day model.Day) error
}

type mongoRoomRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	return &mongoRoomRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func objectIDFromHex(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

func (r *mongoRoomRepository) Create(ctx context.Context, room *model.Room) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if room.BookedDates == nil {
		room.BookedDates = []model.Day{}
	}

	result, err := r.collection.InsertOne(ctx, room)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		room.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var room model.Room
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

func (r *mongoRoomRepository) FindAvailable(ctx context.Context, day model.Day) ([]*model.Room, error) {
	filter := bson.M{
		"availability": true,
		"booked_dates": bson.M{"$ne": day},
	}
	return r.find(ctx, filter)
}

func (r *mongoRoomRepository) FindByType(ctx context.Context, roomType model.RoomType) ([]*model.Room, error) {
	return r.find(ctx, bson.M{"type": roomType})
}

func (r *mongoRoomRepository) find(ctx context.Context, filter bson.M) ([]*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := make([]*model.Room, 0)
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

func (r *mongoRoomRepository) Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if updates.Name != nil {
		set["name"] = *updates.Name
	}
	if updates.Type != nil {
		set["type"] = *updates.Type
	}
	if updates.Price != nil {
		set["price"] = *updates.Price
	}
	if updates.Availability != nil {
		set["availability"] = *updates.Availability
	}

	var room model.Room
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	return &room, nil
}

func (r *mongoRoomRepository) ReserveDay(ctx context.Context, id string, day model.Day) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "booked_dates": bson.M{"$ne": day}},
		bson.M{"$push": bson.M{"booked_dates": day}},
	)
	if err != nil {
		return fmt.Errorf("failed to reserve day: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: room %s on %s", roomserrors.ErrDayTaken, id, day)
	}
	return nil
}

func (r *mongoRoomRepository) ReleaseDay(ctx context.Context, id string, day model.Day) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$pull": bson.M{"booked_dates": day}},
	); err != nil {
		return fmt.Errorf("failed to release day: %w", err)
	}
	return nil
}
