package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/attestra/formtrail/internal/models"
)

type SubmissionRepo struct {
	col *mongo.Collection
}

func NewSubmissionRepo(db *mongo.Database) *SubmissionRepo {
	return &SubmissionRepo{col: db.Collection(SubmissionsCollection)}
}

func (r *SubmissionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "formId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (r *SubmissionRepo) Create(ctx context.Context, sub *models.Submission) (string, error) {
	sub.ID = uuid.NewString()
	if _, err := r.col.InsertOne(ctx, sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	err := r.col.FindOne(ctx, live(bson.M{"_id": id})).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepo) FindByForm(ctx context.Context, formID string, skip, limit int64) ([]models.Submission, int64, error) {
	query := live(bson.M{"formId": formID})
	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	subs := []models.Submission{}
	if err := cur.All(ctx, &subs); err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// Update rewrites a submission conditioned on the record still being the one
// the caller read: a concurrent soft delete makes the write a no-op surfaced
// as ErrNoDocuments for the caller to retry.
func (r *SubmissionRepo) Update(ctx context.Context, id string, sub *models.Submission) error {
	doc, err := toDoc(sub)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx, live(bson.M{"_id": id}), bson.M{"$set": doc})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkHasRevisions flips the hasRevisions flag. Idempotent: the filter keeps
// repeat calls from rewriting the record.
func (r *SubmissionRepo) MarkHasRevisions(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx,
		live(bson.M{"_id": id, "hasRevisions": bson.M{"$ne": true}}),
		bson.M{"$set": bson.M{"hasRevisions": true}})
	return err
}

func (r *SubmissionRepo) UpdateSignatures(ctx context.Context, id string, signatureIDs []string) error {
	_, err := r.col.UpdateOne(ctx, live(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"signatures": signatureIDs}})
	return err
}

func (r *SubmissionRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx, live(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"deleted": nowRFC3339()}})
	return err
}
