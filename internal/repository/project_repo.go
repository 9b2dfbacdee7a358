package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/attestra/formtrail/internal/models"
)

type ProjectRepo struct {
	col *mongo.Collection
}

func NewProjectRepo(db *mongo.Database) *ProjectRepo {
	return &ProjectRepo{col: db.Collection(ProjectsCollection)}
}

func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) (string, error) {
	project.ID = uuid.NewString()
	if _, err := r.col.InsertOne(ctx, project); err != nil {
		return "", err
	}
	return project.ID, nil
}

func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.col.FindOne(ctx, live(bson.M{"_id": id})).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepo) FindAll(ctx context.Context) ([]models.Project, error) {
	cur, err := r.col.Find(ctx, live(bson.M{}))
	if err != nil {
		return nil, err
	}
	projects := []models.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepo) Update(ctx context.Context, id string, project *models.Project) error {
	doc, err := toDoc(project)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx, live(bson.M{"_id": id}), bson.M{"$set": doc})
	return err
}

func (r *ProjectRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx, live(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"deleted": nowRFC3339()}})
	return err
}
