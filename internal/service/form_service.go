package service

import (
	"context"
	"errors"
	"time"

	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/repository"
	"github.com/attestra/formtrail/internal/revision"
)

type FormService struct {
	forms     *repository.FormRepo
	formRevs  *repository.FormRevisionRepo
	projects  *repository.ProjectRepo
	versioner *revision.FormVersioner
}

func NewFormService(forms *repository.FormRepo, formRevs *repository.FormRevisionRepo, projects *repository.ProjectRepo, versioner *revision.FormVersioner) *FormService {
	return &FormService{forms: forms, formRevs: formRevs, projects: projects, versioner: versioner}
}

// FormUpdate carries the mutable form fields; nil pointers leave the stored
// value untouched.
type FormUpdate struct {
	Name             *string             `json:"name,omitempty"`
	Title            *string             `json:"title,omitempty"`
	Components       []models.Component  `json:"components,omitempty"`
	Settings         map[string]any      `json:"settings,omitempty"`
	Controller       *string             `json:"controller,omitempty"`
	ESign            *models.ESignConfig `json:"esign,omitempty"`
	RevisionsEnabled *bool               `json:"revisionsEnabled,omitempty"`
}

func (s *FormService) Create(ctx context.Context, projectID, name, title string, components []models.Component, settings map[string]any, controller string, esign *models.ESignConfig, revisionsEnabled bool, createdBy string) (*models.Form, error) {
	if name == "" {
		return nil, errors.New("form name is required")
	}
	if len(components) == 0 {
		return nil, errors.New("at least one component is required")
	}
	project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	form := &models.Form{
		ProjectID:        projectID,
		Name:             name,
		Title:            title,
		Components:       components,
		Settings:         settings,
		Controller:       controller,
		ESign:            esign,
		RevisionsEnabled: revisionsEnabled,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	id, err := s.forms.Create(ctx, form)
	if err != nil {
		return nil, err
	}
	form.ID = id

	// The creating write is the enabling write: it becomes version 1.
	if s.versioner.Enabled(project, form) {
		if _, err := s.versioner.Snapshot(ctx, form, createdBy, "initial version"); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func (s *FormService) List(ctx context.Context, projectID string) ([]models.Form, error) {
	return s.forms.FindByProject(ctx, projectID)
}

func (s *FormService) Get(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, errors.New("form not found")
	}
	return form, nil
}

// Update applies upd and snapshots the result when the revision policy
// says the tracked fields changed (or tracking was just enabled).
func (s *FormService) Update(ctx context.Context, id string, upd FormUpdate, author, note string) (*models.Form, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := s.project(ctx, form.ProjectID)
	if err != nil {
		return nil, err
	}

	prior := *form
	applyFormUpdate(form, upd)
	form.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	snapshot, err := s.versioner.ShouldSnapshot(ctx, project, &prior, form)
	if err != nil {
		return nil, err
	}
	if err := s.forms.Update(ctx, id, form); err != nil {
		return nil, err
	}
	if snapshot {
		if _, err := s.versioner.Snapshot(ctx, form, author, note); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// SaveDraft stages upd in the form's draft slot without touching the live
// definition or the numbered chain.
func (s *FormService) SaveDraft(ctx context.Context, id string, upd FormUpdate, author, note string) (*models.FormRevision, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := s.project(ctx, form.ProjectID)
	if err != nil {
		return nil, err
	}
	if !s.versioner.Enabled(project, form) {
		return nil, errors.New("revisions are not enabled for this form")
	}
	applyFormUpdate(form, upd)
	return s.versioner.SaveDraft(ctx, form, author, note)
}

// PublishDraft promotes the draft slot to the next numbered version and
// applies it to the live definition.
func (s *FormService) PublishDraft(ctx context.Context, id, author, note string) (*models.FormRevision, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rev, err := s.versioner.PublishDraft(ctx, id, author, note)
	if err != nil {
		return nil, err
	}
	form.Components = rev.Components
	form.Settings = rev.Settings
	form.Controller = rev.Controller
	form.ESign = rev.ESign
	form.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.forms.Update(ctx, id, form); err != nil {
		return nil, err
	}
	return rev, nil
}

func (s *FormService) ListRevisions(ctx context.Context, formID string) ([]models.FormRevision, error) {
	if _, err := s.Get(ctx, formID); err != nil {
		return nil, err
	}
	return s.formRevs.List(ctx, formID)
}

// GetRevision looks up one snapshot by the draft label, a version number,
// or a revision id.
func (s *FormService) GetRevision(ctx context.Context, formID, versionOrID string) (*models.FormRevision, error) {
	if _, err := s.Get(ctx, formID); err != nil {
		return nil, err
	}
	rev, err := s.versioner.GetRevision(ctx, formID, versionOrID)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, errors.New("revision not found")
	}
	return rev, nil
}

// Delete soft-deletes the form together with its revision chain.
func (s *FormService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.forms.SoftDelete(ctx, id); err != nil {
		return err
	}
	return s.formRevs.SoftDeleteByForm(ctx, id)
}

func (s *FormService) project(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New("project not found")
	}
	return project, nil
}

func applyFormUpdate(form *models.Form, upd FormUpdate) {
	if upd.Name != nil {
		form.Name = *upd.Name
	}
	if upd.Title != nil {
		form.Title = *upd.Title
	}
	if upd.Components != nil {
		form.Components = upd.Components
	}
	if upd.Settings != nil {
		form.Settings = upd.Settings
	}
	if upd.Controller != nil {
		form.Controller = *upd.Controller
	}
	if upd.ESign != nil {
		form.ESign = upd.ESign
	}
	if upd.RevisionsEnabled != nil {
		form.RevisionsEnabled = *upd.RevisionsEnabled
	}
}
