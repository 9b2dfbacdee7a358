package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/revision"
)

// FormRevisionRepo implements revision.FormRevisionStore. The unique index
// on (revisionOf, version) is the conditional-update boundary: a concurrent
// writer that loses the race gets a duplicate-key error, surfaced as
// revision.ErrVersionConflict.
type FormRevisionRepo struct {
	col *mongo.Collection
}

func NewFormRevisionRepo(db *mongo.Database) *FormRevisionRepo {
	return &FormRevisionRepo{col: db.Collection(FormRevisionsCollection)}
}

func (r *FormRevisionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "revisionOf", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *FormRevisionRepo) Latest(ctx context.Context, formID string) (*models.FormRevision, error) {
	var rev models.FormRevision
	err := r.col.FindOne(ctx,
		live(bson.M{"revisionOf": formID, "version": bson.M{"$gt": models.DraftVersion}}),
		options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}}),
	).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *FormRevisionRepo) Draft(ctx context.Context, formID string) (*models.FormRevision, error) {
	var rev models.FormRevision
	err := r.col.FindOne(ctx,
		live(bson.M{"revisionOf": formID, "version": models.DraftVersion}),
	).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *FormRevisionRepo) FindByID(ctx context.Context, id string) (*models.FormRevision, error) {
	var rev models.FormRevision
	err := r.col.FindOne(ctx, live(bson.M{"_id": id})).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *FormRevisionRepo) FindByVersion(ctx context.Context, formID string, version int) (*models.FormRevision, error) {
	var rev models.FormRevision
	err := r.col.FindOne(ctx,
		live(bson.M{"revisionOf": formID, "version": version}),
	).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *FormRevisionRepo) List(ctx context.Context, formID string) ([]models.FormRevision, error) {
	cur, err := r.col.Find(ctx,
		live(bson.M{"revisionOf": formID, "version": bson.M{"$gt": models.DraftVersion}}),
		options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, err
	}
	revs := []models.FormRevision{}
	if err := cur.All(ctx, &revs); err != nil {
		return nil, err
	}
	return revs, nil
}

func (r *FormRevisionRepo) Insert(ctx context.Context, rev *models.FormRevision) (string, error) {
	rev.ID = uuid.NewString()
	if _, err := r.col.InsertOne(ctx, rev); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", revision.ErrVersionConflict
		}
		return "", err
	}
	return rev.ID, nil
}

func (r *FormRevisionRepo) ReplaceDraft(ctx context.Context, rev *models.FormRevision) error {
	doc, err := toDoc(rev)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"revisionOf": rev.RevisionOf, "version": models.DraftVersion},
		bson.M{"$set": doc, "$setOnInsert": bson.M{"_id": uuid.NewString()}},
		options.Update().SetUpsert(true))
	return err
}

func (r *FormRevisionRepo) DeleteDraft(ctx context.Context, formID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"revisionOf": formID, "version": models.DraftVersion})
	return err
}

func (r *FormRevisionRepo) SoftDeleteByForm(ctx context.Context, formID string) error {
	_, err := r.col.UpdateMany(ctx, live(bson.M{"revisionOf": formID}),
		bson.M{"$set": bson.M{"deleted": nowRFC3339()}})
	return err
}
