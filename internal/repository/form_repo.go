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

type FormRepo struct {
	col *mongo.Collection
}

func NewFormRepo(db *mongo.Database) *FormRepo {
	return &FormRepo{col: db.Collection(FormsCollection)}
}

func (r *FormRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "name", Value: 1}},
	})
	return err
}

func (r *FormRepo) Create(ctx context.Context, form *models.Form) (string, error) {
	form.ID = uuid.NewString()
	if _, err := r.col.InsertOne(ctx, form); err != nil {
		return "", err
	}
	return form.ID, nil
}

func (r *FormRepo) FindByID(ctx context.Context, id string) (*models.Form, error) {
	var form models.Form
	err := r.col.FindOne(ctx, live(bson.M{"_id": id})).Decode(&form)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *FormRepo) FindByProject(ctx context.Context, projectID string) ([]models.Form, error) {
	cur, err := r.col.Find(ctx, live(bson.M{"projectId": projectID}),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	forms := []models.Form{}
	if err := cur.All(ctx, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *FormRepo) Update(ctx context.Context, id string, form *models.Form) error {
	doc, err := toDoc(form)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx, live(bson.M{"_id": id}), bson.M{"$set": doc})
	return err
}

func (r *FormRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx, live(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"deleted": nowRFC3339()}})
	return err
}
