package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	roomsrepository "roombook/internal/rooms/repository"
	usersrepository "roombook/internal/users/repository"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	ListForCustomer(ctx context.Context, customerID string) ([]*model.BookingDetails, error)
	ListAll(ctx context.Context) ([]*model.BookingDetails, error)
	// MonthlyReport groups bookings dated in [start, end) by room.
	MonthlyReport(ctx context.Context, start, end model.Day) ([]*model.MonthlyReportEntry, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func objectIDFromHex(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: room %s on %s", bookingserrors.ErrAlreadyBooked, booking.RoomID, booking.Date)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoBookingRepository) ListForCustomer(ctx context.Context, customerID string) ([]*model.BookingDetails, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"customer_id": customerID}}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	pipeline = append(pipeline, lookupByHexID(roomsrepository.CollectionName, "room_id", "room", nil)...)

	return r.aggregateDetails(ctx, pipeline)
}

func (r *mongoBookingRepository) ListAll(ctx context.Context) ([]*model.BookingDetails, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	pipeline = append(pipeline, lookupByHexID(roomsrepository.CollectionName, "room_id", "room", nil)...)
	pipeline = append(pipeline, lookupByHexID(usersrepository.CollectionName, "customer_id", "customer",
		bson.M{"password_hash": 0})...)

	return r.aggregateDetails(ctx, pipeline)
}

func (r *mongoBookingRepository) MonthlyReport(ctx context.Context, start, end model.Day) ([]*model.MonthlyReportEntry, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"date": bson.M{"$gte": start, "$lt": end}}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$room_id",
			"total_bookings": bson.M{"$sum": 1},
		}}},
		joinByHexID(roomsrepository.CollectionName, "_id", "room_details", nil),
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly report: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*model.MonthlyReportEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode monthly report: %w", err)
	}
	return entries, nil
}

func (r *mongoBookingRepository) aggregateDetails(ctx context.Context, pipeline mongo.Pipeline) ([]*model.BookingDetails, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.BookingDetails{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// joinByHexID looks up documents of from whose _id is the ObjectID form of the
// hex string in localField. Malformed references join nothing.
func joinByHexID(from, localField, as string, projection bson.M) bson.D {
	inner := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ref"}}}}},
	}
	if projection != nil {
		inner = append(inner, bson.D{{Key: "$project", Value: projection}})
	}

	return bson.D{{Key: "$lookup", Value: bson.M{
		"from": from,
		"let": bson.M{"ref": bson.M{"$convert": bson.M{
			"input":   "$" + localField,
			"to":      "objectId",
			"onError": nil,
			"onNull":  nil,
		}}},
		"pipeline": inner,
		"as":       as,
	}}}
}

// lookupByHexID joins a single referenced document and unwinds it into as. The field
// is left absent when the referenced document no longer exists.
func lookupByHexID(from, localField, as string, projection bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		joinByHexID(from, localField, as, projection),
		{{Key: "$unwind", Value: bson.M{"path": "$" + as, "preserveNullAndEmptyArrays": true}}},
	}
}
