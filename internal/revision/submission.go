package revision

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wI2L/jsondiff"

	"github.com/attestra/formtrail/internal/models"
)

// submissionTracked is the subset of submission fields whose equality
// decides whether a new revision is warranted.
type submissionTracked struct {
	Data  map[string]any `json:"data"`
	State string         `json:"state"`
}

// SubmissionVersioner applies the revision policy to submissions.
type SubmissionVersioner struct {
	revs SubmissionRevisionStore
	subs SubmissionFlagStore
}

func NewSubmissionVersioner(revs SubmissionRevisionStore, subs SubmissionFlagStore) *SubmissionVersioner {
	return &SubmissionVersioner{revs: revs, subs: subs}
}

// Enabled reports whether revision tracking applies to submissions of a
// form.
func (v *SubmissionVersioner) Enabled(project *models.Project, form *models.Form) bool {
	return project != nil && project.Settings.RevisionsEnabled && form != nil && form.RevisionsEnabled
}

// ShouldSnapshot decides whether writing incoming warrants a revision.
// Draft submissions are mutable scratch state and never version.
func (v *SubmissionVersioner) ShouldSnapshot(ctx context.Context, project *models.Project, form *models.Form, incoming *models.Submission) (bool, error) {
	if !v.Enabled(project, form) {
		return false, nil
	}
	if incoming.State == models.StateDraft {
		return false, nil
	}
	latest, err := v.revs.Latest(ctx, incoming.ID)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return true, nil
	}
	return !trackedEqual(
		submissionTracked{Data: latest.Data, State: latest.State},
		submissionTracked{Data: incoming.Data, State: incoming.State},
	), nil
}

// Snapshot appends the next revision of sub, recording the forward patch
// from the previous snapshot (or from an empty object for the first).
// Returns (nil, nil) without persisting anything when the data patch is
// empty: non-data churn alone never creates a revision.
func (v *SubmissionVersioner) Snapshot(ctx context.Context, sub *models.Submission, author, note string) (*models.SubmissionRevision, error) {
	latest, err := v.revs.Latest(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	prev := map[string]any{}
	var prevData map[string]any
	next := 1
	if latest != nil {
		prev = latest.Data
		prevData = latest.Data
		next = latest.Version + 1
	}
	patch, err := diffData(prev, sub.Data)
	if err != nil {
		return nil, fmt.Errorf("compute data patch for submission %s: %w", sub.ID, err)
	}
	if len(patch) == 0 {
		return nil, nil
	}
	rev := &models.SubmissionRevision{
		RevisionOf: sub.ID,
		ProjectID:  sub.ProjectID,
		Version:    next,
		Data:       sub.Data,
		State:      sub.State,
		CreatedBy:  author,
		Note:       note,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Metadata: models.RevisionMetadata{
			JSONPatch:    patch,
			PreviousData: prevData,
		},
	}
	id, err := v.revs.Insert(ctx, rev)
	if err != nil {
		return nil, err
	}
	rev.ID = id
	if latest == nil {
		if err := v.subs.MarkHasRevisions(ctx, sub.ID); err != nil {
			return nil, err
		}
	}
	return rev, nil
}

// GetRevisions returns the full chain for a submission in version order.
func (v *SubmissionVersioner) GetRevisions(ctx context.Context, submissionID string) ([]models.SubmissionRevision, error) {
	return v.revs.List(ctx, submissionID)
}

// Latest returns the newest revision of a submission, or (nil, nil).
func (v *SubmissionVersioner) Latest(ctx context.Context, submissionID string) (*models.SubmissionRevision, error) {
	return v.revs.Latest(ctx, submissionID)
}

// GetRevision returns one snapshot of a submission, addressed by a version
// number or a revision id. Returns (nil, nil) when no such snapshot exists.
func (v *SubmissionVersioner) GetRevision(ctx context.Context, submissionID, versionOrID string) (*models.SubmissionRevision, error) {
	if n, err := strconv.Atoi(versionOrID); err == nil {
		revs, err := v.revs.List(ctx, submissionID)
		if err != nil {
			return nil, err
		}
		for i := range revs {
			if revs[i].Version == n {
				return &revs[i], nil
			}
		}
		return nil, nil
	}
	rev, err := v.revs.FindByID(ctx, versionOrID)
	if err != nil {
		return nil, err
	}
	if rev != nil && rev.RevisionOf != submissionID {
		return nil, nil
	}
	return rev, nil
}

// diffData computes the RFC 6902 delta between two data trees, each
// operation path rooted under /data. A failed comparison is fatal for the
// snapshot; it is never coerced into an empty patch.
func diffData(prev, next map[string]any) ([]models.PatchOperation, error) {
	if prev == nil {
		prev = map[string]any{}
	}
	if next == nil {
		next = map[string]any{}
	}
	patch, err := jsondiff.Compare(prev, next)
	if err != nil {
		return nil, err
	}
	ops := make([]models.PatchOperation, 0, len(patch))
	for _, op := range patch {
		ops = append(ops, models.PatchOperation{
			Op:    op.Type,
			Path:  "/data" + op.Path,
			Value: op.Value,
		})
	}
	return ops, nil
}
