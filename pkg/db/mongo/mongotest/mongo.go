// Package mongotest connects tests to a live MongoDB named by MONGO_TEST_URI.
package mongotest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"roombook/pkg/client"
	"roombook/pkg/config"
	"roombook/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EnvMongoTestURI   = "MONGO_TEST_URI"
	ConnectionTimeout = 10 * time.Second
)

type Helper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

// New connects to MONGO_TEST_URI and creates a throwaway database that is dropped
// when the test ends. The test is skipped when the variable is unset.
func New(t *testing.T) *Helper {
	t.Helper()

	uri := os.Getenv(EnvMongoTestURI)
	if uri == "" {
		t.Skipf("%s not set", EnvMongoTestURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := fmt.Sprintf("roombook_test_%s", uuid.NewString()[:8])
	h := &Helper{Client: mc, Database: mc.Database(dbName), DBName: dbName}
	t.Cleanup(func() { h.close(t) })
	return h
}

// Config returns a configuration whose repositories target the helper's database.
func (h *Helper) Config() *config.Config {
	return &config.Config{
		MongoDatabaseName: h.DBName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: h.Client},
	}
}

func (h *Helper) CountDocuments(t *testing.T, collectionName string) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := h.Database.Collection(collectionName).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collectionName, err)
	}
	return count
}

func (h *Helper) close(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.Database.Drop(ctx); err != nil {
		t.Logf("warning: failed to drop %s: %v", h.DBName, err)
	}
	if err := h.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}
