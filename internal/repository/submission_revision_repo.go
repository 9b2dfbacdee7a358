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

// SubmissionRevisionRepo implements revision.SubmissionRevisionStore.
type SubmissionRevisionRepo struct {
	col *mongo.Collection
}

func NewSubmissionRevisionRepo(db *mongo.Database) *SubmissionRevisionRepo {
	return &SubmissionRevisionRepo{col: db.Collection(SubmissionRevisionsCollection)}
}

func (r *SubmissionRevisionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "revisionOf", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *SubmissionRevisionRepo) Latest(ctx context.Context, submissionID string) (*models.SubmissionRevision, error) {
	var rev models.SubmissionRevision
	err := r.col.FindOne(ctx, live(bson.M{"revisionOf": submissionID}),
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

func (r *SubmissionRevisionRepo) List(ctx context.Context, submissionID string) ([]models.SubmissionRevision, error) {
	cur, err := r.col.Find(ctx, live(bson.M{"revisionOf": submissionID}),
		options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, err
	}
	revs := []models.SubmissionRevision{}
	if err := cur.All(ctx, &revs); err != nil {
		return nil, err
	}
	return revs, nil
}

func (r *SubmissionRevisionRepo) FindByID(ctx context.Context, id string) (*models.SubmissionRevision, error) {
	var rev models.SubmissionRevision
	err := r.col.FindOne(ctx, live(bson.M{"_id": id})).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *SubmissionRevisionRepo) Insert(ctx context.Context, rev *models.SubmissionRevision) (string, error) {
	rev.ID = uuid.NewString()
	if _, err := r.col.InsertOne(ctx, rev); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", revision.ErrVersionConflict
		}
		return "", err
	}
	return rev.ID, nil
}

func (r *SubmissionRevisionRepo) UpdateSignatures(ctx context.Context, id string, signatureIDs []string) error {
	_, err := r.col.UpdateOne(ctx, live(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"signatures": signatureIDs}})
	return err
}

func (r *SubmissionRevisionRepo) SoftDeleteBySubmission(ctx context.Context, submissionID string) error {
	_, err := r.col.UpdateMany(ctx, live(bson.M{"revisionOf": submissionID}),
		bson.M{"$set": bson.M{"deleted": nowRFC3339()}})
	return err
}
