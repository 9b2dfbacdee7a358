package revision

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/attestra/formtrail/internal/models"
)

// DraftName is the version label addressing the draft slot.
const DraftName = "draft"

// formTracked is the subset of form fields whose equality decides whether a
// new revision is warranted.
type formTracked struct {
	Components []models.Component  `json:"components"`
	Settings   map[string]any      `json:"settings,omitempty"`
	Controller string              `json:"controller,omitempty"`
	ESign      *models.ESignConfig `json:"esign,omitempty"`
}

func trackedOfForm(f *models.Form) formTracked {
	return formTracked{
		Components: f.Components,
		Settings:   f.Settings,
		Controller: f.Controller,
		ESign:      f.ESign,
	}
}

func trackedOfFormRevision(r *models.FormRevision) formTracked {
	return formTracked{
		Components: r.Components,
		Settings:   r.Settings,
		Controller: r.Controller,
		ESign:      r.ESign,
	}
}

// FormVersioner applies the revision policy to form definitions.
type FormVersioner struct {
	revs FormRevisionStore
}

func NewFormVersioner(revs FormRevisionStore) *FormVersioner {
	return &FormVersioner{revs: revs}
}

// Enabled reports whether revision tracking applies to a form. Disabled
// tracking is a silent no-op everywhere, never an error.
func (v *FormVersioner) Enabled(project *models.Project, form *models.Form) bool {
	return project != nil && project.Settings.RevisionsEnabled && form != nil && form.RevisionsEnabled
}

// ShouldSnapshot decides whether writing incoming warrants a numbered
// revision. prior is the stored form before this write, nil on create. An
// edit that turns the form's revision flag on always versions, even when the
// tracked content matches the latest revision.
func (v *FormVersioner) ShouldSnapshot(ctx context.Context, project *models.Project, prior, incoming *models.Form) (bool, error) {
	if !v.Enabled(project, incoming) {
		return false, nil
	}
	if prior == nil || !prior.RevisionsEnabled {
		return true, nil
	}
	latest, err := v.revs.Latest(ctx, incoming.ID)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return true, nil
	}
	return !trackedEqual(trackedOfFormRevision(latest), trackedOfForm(incoming)), nil
}

// Snapshot persists the next numbered revision of form. A lost race for the
// version number surfaces as ErrVersionConflict for the caller to retry.
func (v *FormVersioner) Snapshot(ctx context.Context, form *models.Form, author, note string) (*models.FormRevision, error) {
	latest, err := v.revs.Latest(ctx, form.ID)
	if err != nil {
		return nil, err
	}
	next := 1
	if latest != nil {
		next = latest.Version + 1
	}
	rev := v.buildRevision(form, next, author, note)
	id, err := v.revs.Insert(ctx, rev)
	if err != nil {
		return nil, err
	}
	rev.ID = id
	return rev, nil
}

// SaveDraft overwrites the form's draft slot. Concurrent draft saves are
// last-write-wins.
func (v *FormVersioner) SaveDraft(ctx context.Context, form *models.Form, author, note string) (*models.FormRevision, error) {
	rev := v.buildRevision(form, models.DraftVersion, author, note)
	if err := v.revs.ReplaceDraft(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// PublishDraft collapses the draft into the next numbered version and
// removes the draft slot.
func (v *FormVersioner) PublishDraft(ctx context.Context, formID, author, note string) (*models.FormRevision, error) {
	draft, err := v.revs.Draft(ctx, formID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, errors.New("no draft to publish")
	}
	latest, err := v.revs.Latest(ctx, formID)
	if err != nil {
		return nil, err
	}
	next := 1
	if latest != nil {
		next = latest.Version + 1
	}
	rev := *draft
	rev.ID = ""
	rev.Version = next
	rev.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if author != "" {
		rev.CreatedBy = author
	}
	if note != "" {
		rev.Note = note
	}
	id, err := v.revs.Insert(ctx, &rev)
	if err != nil {
		return nil, err
	}
	rev.ID = id
	if err := v.revs.DeleteDraft(ctx, formID); err != nil {
		return nil, err
	}
	return &rev, nil
}

// Latest returns the newest numbered revision of a form, or (nil, nil) when
// none exists.
func (v *FormVersioner) Latest(ctx context.Context, formID string) (*models.FormRevision, error) {
	return v.revs.Latest(ctx, formID)
}

// GetRevision returns a specific snapshot of a form, addressed by the draft
// label, a version number, or a revision id. Returns (nil, nil) when no such
// snapshot exists.
func (v *FormVersioner) GetRevision(ctx context.Context, formID, versionOrID string) (*models.FormRevision, error) {
	if versionOrID == DraftName {
		return v.revs.Draft(ctx, formID)
	}
	if n, err := strconv.Atoi(versionOrID); err == nil {
		return v.revs.FindByVersion(ctx, formID, n)
	}
	rev, err := v.revs.FindByID(ctx, versionOrID)
	if err != nil {
		return nil, err
	}
	if rev != nil && rev.RevisionOf != formID {
		return nil, nil
	}
	return rev, nil
}

func (v *FormVersioner) buildRevision(form *models.Form, version int, author, note string) *models.FormRevision {
	return &models.FormRevision{
		RevisionOf: form.ID,
		ProjectID:  form.ProjectID,
		Version:    version,
		Components: form.Components,
		Settings:   form.Settings,
		Controller: form.Controller,
		ESign:      form.ESign,
		CreatedBy:  author,
		Note:       note,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}
