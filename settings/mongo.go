package settings

import (
	"context"

	"sherpa/db"
	"sherpa/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists the settings singleton in the settings collection.
// The singleton is identified by find-one-of-anything, not a fixed id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore() *MongoStore {
	return &MongoStore{coll: db.SettingsCollection}
}

func (m *MongoStore) Get(ctx context.Context) (models.Settings, error) {
	var doc models.Settings
	err := m.coll.FindOne(ctx, bson.M{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return models.Settings{}, models.ErrNotFound
	}
	if err != nil {
		return models.Settings{}, models.Storagef("settings find", err)
	}
	return doc, nil
}

func (m *MongoStore) Upsert(ctx context.Context, s models.Settings) (models.Settings, error) {
	opts := options.Update().SetUpsert(true)
	_, err := m.coll.UpdateOne(ctx, bson.M{"settingsid": s.ID}, bson.M{"$set": s}, opts)
	if err != nil {
		return models.Settings{}, models.Storagef("settings upsert", err)
	}
	return s, nil
}
