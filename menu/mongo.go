package menu

import (
	"context"
	"time"

	"sherpa/db"
	"sherpa/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore() *MongoStore {
	return &MongoStore{coll: db.MenuImagesCollection}
}

func (m *MongoStore) Insert(ctx context.Context, img models.MenuImage) error {
	if _, err := m.coll.InsertOne(ctx, img); err != nil {
		return models.Storagef("menu insert", err)
	}
	return nil
}

func (m *MongoStore) FindByID(ctx context.Context, id string) (models.MenuImage, error) {
	var img models.MenuImage
	err := m.coll.FindOne(ctx, bson.M{"imageid": id}).Decode(&img)
	if err == mongo.ErrNoDocuments {
		return models.MenuImage{}, models.ErrNotFound
	}
	if err != nil {
		return models.MenuImage{}, models.Storagef("menu find", err)
	}
	return img, nil
}

func (m *MongoStore) Update(ctx context.Context, id string, p Patch) (models.MenuImage, error) {
	set := bson.M{"updatedAt": time.Now()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var img models.MenuImage
	err := m.coll.FindOneAndUpdate(ctx, bson.M{"imageid": id}, bson.M{"$set": set}, opts).Decode(&img)
	if err == mongo.ErrNoDocuments {
		return models.MenuImage{}, models.ErrNotFound
	}
	if err != nil {
		return models.MenuImage{}, models.Storagef("menu update", err)
	}
	return img, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"imageid": id})
	if err != nil {
		return models.Storagef("menu delete", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (m *MongoStore) ListActive(ctx context.Context) ([]models.MenuImage, error) {
	opts := options.Find().SetSort(bson.M{"uploadDate": -1})
	cursor, err := m.coll.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, models.Storagef("menu list active", err)
	}
	defer cursor.Close(ctx)

	images := []models.MenuImage{}
	if err := cursor.All(ctx, &images); err != nil {
		return nil, models.Storagef("menu decode active", err)
	}
	return images, nil
}

func (m *MongoStore) ListAll(ctx context.Context, page, limit int) ([]models.MenuImage, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := m.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, models.Storagef("menu count", err)
	}

	opts := options.Find().
		SetSort(bson.M{"uploadDate": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, models.Storagef("menu list", err)
	}
	defer cursor.Close(ctx)

	images := []models.MenuImage{}
	if err := cursor.All(ctx, &images); err != nil {
		return nil, 0, models.Storagef("menu decode", err)
	}
	return images, total, nil
}
