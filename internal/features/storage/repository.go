package storage

import (
	"context"
	"errors"
	"fmt"

	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ObjectRepository interface {
	Save(ctx context.Context, object *Object) error
	Get(ctx context.Context, bucket, path string) (*Object, error)
	Delete(ctx context.Context, bucket, path string) error
}

type ObjectRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewObjectRepository(mongodb *database.MongodbDB) ObjectRepository {
	return &ObjectRepositoryImpl{
		Collection: mongodb.DB.Collection("objects"),
	}
}

func (r *ObjectRepositoryImpl) Save(ctx context.Context, object *Object) error {
	object.Key = objectKey(object.Bucket, object.Path)
	_, err := r.Collection.InsertOne(ctx, object)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: object %s already exists", common_models.ErrUpload, object.Key)
	}
	return err
}

func (r *ObjectRepositoryImpl) Get(ctx context.Context, bucket, path string) (*Object, error) {
	var object Object
	err := r.Collection.FindOne(ctx, bson.M{"_id": objectKey(bucket, path)}).Decode(&object)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("object %s: %w", objectKey(bucket, path), common_models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &object, nil
}

func (r *ObjectRepositoryImpl) Delete(ctx context.Context, bucket, path string) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": objectKey(bucket, path)})
	return err
}
