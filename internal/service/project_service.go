package service

import (
	"context"
	"errors"
	"time"

	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/repository"
)

type ProjectService struct {
	projects *repository.ProjectRepo
}

func NewProjectService(projects *repository.ProjectRepo) *ProjectService {
	return &ProjectService{projects: projects}
}

func (s *ProjectService) Create(ctx context.Context, name string, settings models.ProjectSettings, createdBy string) (*models.Project, error) {
	if name == "" {
		return nil, errors.New("project name is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	project := &models.Project{
		Name:      name,
		Settings:  settings,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.projects.Create(ctx, project)
	if err != nil {
		return nil, err
	}
	project.ID = id
	return project, nil
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	return s.projects.FindAll(ctx)
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New("project not found")
	}
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, id, name string, settings *models.ProjectSettings) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		project.Name = name
	}
	if settings != nil {
		// A settings write without key material keeps the stored key:
		// clients never see it, so they cannot echo it back.
		if settings.SigningKey == "" {
			settings.SigningKey = project.Settings.SigningKey
		}
		project.Settings = *settings
	}
	project.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.projects.Update(ctx, id, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.projects.SoftDelete(ctx, id)
}
