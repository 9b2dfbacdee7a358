package repository

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/attestra/formtrail/internal/models"
)

// SignatureRepo implements signature.Store. Signature records are append
// only: the single mutation ever applied is the soft-delete tombstone.
type SignatureRepo struct {
	col *mongo.Collection
}

func NewSignatureRepo(db *mongo.Database) *SignatureRepo {
	return &SignatureRepo{col: db.Collection(SignaturesCollection)}
}

func (r *SignatureRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "submissionId", Value: 1}},
	})
	return err
}

func (r *SignatureRepo) Insert(ctx context.Context, sig *models.Signature) (string, error) {
	sig.ID = uuid.NewString()
	if _, err := r.col.InsertOne(ctx, sig); err != nil {
		return "", err
	}
	return sig.ID, nil
}

func (r *SignatureRepo) FindBySubmission(ctx context.Context, submissionID string) ([]models.Signature, error) {
	cur, err := r.col.Find(ctx, live(bson.M{"submissionId": submissionID}))
	if err != nil {
		return nil, err
	}
	sigs := []models.Signature{}
	if err := cur.All(ctx, &sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}

func (r *SignatureRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx, live(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"deleted": nowRFC3339()}})
	return err
}
