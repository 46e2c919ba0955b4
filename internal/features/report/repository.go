package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/config"
	"litterbugs/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepository is the row store. Owner-matching methods take the expected
// owner (nil matches a guest report) and return ErrNotFound when no row
// matched both id and owner.
type ReportRepository interface {
	ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error)
	ListExpired(ctx context.Context, now time.Time) ([]common_models.Report, error)
	Get(ctx context.Context, id string) (*common_models.Report, error)
	Insert(ctx context.Context, report *common_models.Report) error
	Update(ctx context.Context, id string, expectedOwner *string, payload common_models.UpdatePayload) (*common_models.Report, error)
	// AttachFirstPhotos sets photo paths on a guest report that has none yet.
	AttachFirstPhotos(ctx context.Context, id string, paths []string) (*common_models.Report, error)
	Delete(ctx context.Context, id string, expectedOwner *string) error
	DeleteExpired(ctx context.Context, ids []string, now time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// NewReportRepository picks the row store configured by REPORT_STORE.
func NewReportRepository(cfg *config.Config, mongodb *database.MongodbDB, pg *database.PostgresDB) ReportRepository {
	if cfg.ReportStore == config.ReportStorePostgres && pg.DB != nil {
		return &PostgresReportRepository{DB: pg.DB}
	}
	return &ReportRepositoryImpl{
		Collection: mongodb.DB.Collection("reports"),
	}
}

type ReportRepositoryImpl struct {
	Collection *mongo.Collection
}

func (r *ReportRepositoryImpl) ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	return r.find(ctx, bson.M{"expires_at": bson.M{"$gt": now}})
}

func (r *ReportRepositoryImpl) ListExpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	return r.find(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
}

func (r *ReportRepositoryImpl) find(ctx context.Context, filter bson.M) ([]common_models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []common_models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ReportRepositoryImpl) Get(ctx context.Context, id string) (*common_models.Report, error) {
	var report common_models.Report
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepositoryImpl) Insert(ctx context.Context, report *common_models.Report) error {
	if report.ID == "" {
		report.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.Collection.InsertOne(ctx, report)
	return err
}

func (r *ReportRepositoryImpl) Update(ctx context.Context, id string, expectedOwner *string, payload common_models.UpdatePayload) (*common_models.Report, error) {
	set := bson.M{}
	if f := payload.Fields; f != nil {
		set["title"] = f.Title
		set["litter_types"] = f.LitterTypes
		set["types"] = f.Types
		set["notes_presets"] = f.NotesPresets
		set["notes_other"] = f.NotesOther
		set["severity"] = f.Severity
	}
	if len(payload.PhotoPaths) > 0 {
		set["photo_paths"] = payload.PhotoPaths
	}

	return r.findOneAndSet(ctx, id, ownedFilter(id, expectedOwner), set)
}

func (r *ReportRepositoryImpl) AttachFirstPhotos(ctx context.Context, id string, paths []string) (*common_models.Report, error) {
	return r.findOneAndSet(ctx, id, firstPhotosFilter(id), bson.M{"photo_paths": paths})
}

// firstPhotosFilter matches a guest report whose photo_paths is missing, null
// or empty.
func firstPhotosFilter(id string) bson.M {
	filter := ownedFilter(id, nil)
	filter["photo_paths"] = bson.M{"$in": bson.A{nil, bson.A{}}}
	return filter
}

func (r *ReportRepositoryImpl) findOneAndSet(ctx context.Context, id string, filter bson.M, set bson.M) (*common_models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated common_models.Report
	err := r.Collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ReportRepositoryImpl) Delete(ctx context.Context, id string, expectedOwner *string) error {
	res, err := r.Collection.DeleteOne(ctx, ownedFilter(id, expectedOwner))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	return nil
}

func (r *ReportRepositoryImpl) DeleteExpired(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.Collection.DeleteMany(ctx, bson.M{
		"_id":        bson.M{"$in": ids},
		"expires_at": bson.M{"$lte": now},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ReportRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	return err
}

// ownedFilter matches id and owner; a nil owner matches null user_id.
func ownedFilter(id string, owner *string) bson.M {
	if owner == nil {
		return bson.M{"_id": id, "user_id": nil}
	}
	return bson.M{"_id": id, "user_id": *owner}
}
