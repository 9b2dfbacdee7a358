package service

import (
	"context"
	"errors"
	"time"

	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/pathref"
	"github.com/attestra/formtrail/internal/repository"
	"github.com/attestra/formtrail/internal/revision"
	"github.com/attestra/formtrail/internal/signature"
)

type SubmissionService struct {
	subs          *repository.SubmissionRepo
	subRevs       *repository.SubmissionRevisionRepo
	forms         *repository.FormRepo
	projects      *repository.ProjectRepo
	sigs          *repository.SignatureRepo
	versioner     *revision.SubmissionVersioner
	formVersioner *revision.FormVersioner
	engine        *signature.Engine
}

func NewSubmissionService(subs *repository.SubmissionRepo, subRevs *repository.SubmissionRevisionRepo, forms *repository.FormRepo, projects *repository.ProjectRepo, sigs *repository.SignatureRepo, versioner *revision.SubmissionVersioner, formVersioner *revision.FormVersioner, engine *signature.Engine) *SubmissionService {
	return &SubmissionService{
		subs:          subs,
		subRevs:       subRevs,
		forms:         forms,
		projects:      projects,
		sigs:          sigs,
		versioner:     versioner,
		formVersioner: formVersioner,
		engine:        engine,
	}
}

// SignatureStatus pairs a stored signature with its live validation
// outcome.
type SignatureStatus struct {
	Signature models.Signature `json:"signature"`
	Result    signature.Result `json:"result"`
}

func (s *SubmissionService) Create(ctx context.Context, formID string, data map[string]any, state, createdBy string) (*models.Submission, error) {
	form, project, err := s.formAndProject(ctx, formID)
	if err != nil {
		return nil, err
	}
	if state == "" {
		state = models.StateSubmitted
	}
	if state != models.StateDraft && state != models.StateSubmitted {
		return nil, errors.New("invalid submission state")
	}
	if state != models.StateDraft {
		if label := requiredMissing(form.Components, data); label != "" {
			return nil, errors.New("required field missing: " + label)
		}
	}

	formVersion := 0
	if s.formVersioner.Enabled(project, form) {
		latest, err := s.formVersioner.Latest(ctx, formID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			formVersion = latest.Version
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	sub := &models.Submission{
		FormID:      formID,
		ProjectID:   form.ProjectID,
		FormVersion: formVersion,
		Data:        data,
		State:       state,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.subs.Create(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id

	if err := s.track(ctx, project, form, sub, createdBy, ""); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) Update(ctx context.Context, id string, data map[string]any, state, author, note string) (*models.Submission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	form, project, err := s.formAndProject(ctx, sub.FormID)
	if err != nil {
		return nil, err
	}
	if state != "" {
		if state != models.StateDraft && state != models.StateSubmitted {
			return nil, errors.New("invalid submission state")
		}
		if sub.State == models.StateSubmitted && state == models.StateDraft {
			return nil, errors.New("a submitted submission cannot revert to draft")
		}
		sub.State = state
	}
	if data != nil {
		sub.Data = data
	}
	if sub.State != models.StateDraft {
		if label := requiredMissing(form.Components, sub.Data); label != "" {
			return nil, errors.New("required field missing: " + label)
		}
	}
	sub.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.subs.Update(ctx, id, sub); err != nil {
		return nil, err
	}
	if err := s.track(ctx, project, form, sub, author, note); err != nil {
		return nil, err
	}
	return sub, nil
}

// track snapshots the submission when policy requires and reconciles its
// signature set against the snapshot (or the submission itself when no
// revision was produced).
func (s *SubmissionService) track(ctx context.Context, project *models.Project, form *models.Form, sub *models.Submission, author, note string) error {
	var rev *models.SubmissionRevision
	ok, err := s.versioner.ShouldSnapshot(ctx, project, form, sub)
	if err != nil {
		return err
	}
	if ok {
		rev, err = s.versioner.Snapshot(ctx, sub, author, note)
		if err != nil {
			return err
		}
		if rev != nil {
			sub.HasRevisions = true
		}
	}
	if sub.State == models.StateDraft {
		return nil
	}
	if rev == nil && s.versioner.Enabled(project, form) {
		// No new snapshot this write; new signatures still bind to the
		// latest one.
		rev, err = s.versioner.Latest(ctx, sub.ID)
		if err != nil {
			return err
		}
	}
	shape, err := s.shape(ctx, project, form)
	if err != nil {
		return err
	}
	ids, err := s.engine.Reconcile(ctx, project, shape, sub, rev, author)
	if err != nil {
		return err
	}
	sub.Signatures = ids
	return nil
}

func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errors.New("submission not found")
	}
	return sub, nil
}

func (s *SubmissionService) List(ctx context.Context, formID string, skip, limit int64) ([]models.Submission, int64, error) {
	return s.subs.FindByForm(ctx, formID, skip, limit)
}

// Delete soft-deletes the submission together with its revision chain and
// signatures.
func (s *SubmissionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.subs.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.subRevs.SoftDeleteBySubmission(ctx, id); err != nil {
		return err
	}
	sigs, err := s.sigs.FindBySubmission(ctx, id)
	if err != nil {
		return err
	}
	for _, sig := range sigs {
		if err := s.sigs.SoftDelete(ctx, sig.ID); err != nil {
			return err
		}
	}
	return nil
}

// Revisions returns the submission's full revision chain in version order.
func (s *SubmissionService) Revisions(ctx context.Context, id string) ([]models.SubmissionRevision, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.versioner.GetRevisions(ctx, id)
}

// GetRevision looks up one snapshot of the submission by version number or
// revision id.
func (s *SubmissionService) GetRevision(ctx context.Context, id, versionOrID string) (*models.SubmissionRevision, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rev, err := s.versioner.GetRevision(ctx, id, versionOrID)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, errors.New("revision not found")
	}
	return rev, nil
}

// Sign forces a signature reconciliation pass for the submission on behalf
// of signer and returns the resulting signature ids.
func (s *SubmissionService) Sign(ctx context.Context, id, signer string) ([]string, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.State == models.StateDraft {
		return nil, errors.New("draft submissions cannot be signed")
	}
	form, project, err := s.formAndProject(ctx, sub.FormID)
	if err != nil {
		return nil, err
	}
	shape, err := s.shape(ctx, project, form)
	if err != nil {
		return nil, err
	}
	rev, err := s.versioner.Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Reconcile(ctx, project, shape, sub, rev, signer)
}

// Signatures returns the submission's stored signatures, each re-validated
// against the current data and form shape.
func (s *SubmissionService) Signatures(ctx context.Context, id string) ([]SignatureStatus, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	form, project, err := s.formAndProject(ctx, sub.FormID)
	if err != nil {
		return nil, err
	}
	shape, err := s.shape(ctx, project, form)
	if err != nil {
		return nil, err
	}
	sigs, err := s.sigs.FindBySubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	statuses := make([]SignatureStatus, 0, len(sigs))
	for i := range sigs {
		res, err := s.engine.ValidateSignature(ctx, project, &sigs[i], sub, shape)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, SignatureStatus{Signature: sigs[i], Result: res})
	}
	return statuses, nil
}

// shape is the form definition signatures bind to: the latest numbered
// revision when the form is versioned, otherwise the live definition.
func (s *SubmissionService) shape(ctx context.Context, project *models.Project, form *models.Form) (*models.FormRevision, error) {
	if s.formVersioner.Enabled(project, form) {
		latest, err := s.formVersioner.Latest(ctx, form.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			return latest, nil
		}
	}
	return &models.FormRevision{
		RevisionOf: form.ID,
		ProjectID:  form.ProjectID,
		Components: form.Components,
		Settings:   form.Settings,
		Controller: form.Controller,
		ESign:      form.ESign,
	}, nil
}

func (s *SubmissionService) formAndProject(ctx context.Context, formID string) (*models.Form, *models.Project, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	if form == nil {
		return nil, nil, errors.New("form not found")
	}
	project, err := s.projects.FindByID(ctx, form.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, errors.New("project not found")
	}
	return form, project, nil
}

// requiredMissing returns the label of the first required leaf component
// without a value at the top level of data. Rows inside repeating
// containers are validated by the frontend, not here.
func requiredMissing(components []models.Component, data map[string]any) string {
	for _, c := range components {
		if len(c.Components) > 0 && !pathref.IsRepeating(c.Type) {
			if label := requiredMissing(c.Components, data); label != "" {
				return label
			}
			continue
		}
		if !c.Required {
			continue
		}
		val, ok := data[c.Key]
		if !ok || val == nil || val == "" {
			label := c.Label
			if label == "" {
				label = c.Key
			}
			return label
		}
	}
	return ""
}

// NestedLoader resolves linked sub-submission data for signature
// fingerprinting.
type NestedLoader struct {
	subs *repository.SubmissionRepo
}

func NewNestedLoader(subs *repository.SubmissionRepo) *NestedLoader {
	return &NestedLoader{subs: subs}
}

func (l *NestedLoader) LoadData(ctx context.Context, submissionID string) (map[string]any, error) {
	sub, err := l.subs.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errors.New("linked submission not found")
	}
	return sub.Data, nil
}
