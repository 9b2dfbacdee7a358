package revision_test

import (
	"context"
	"fmt"

	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/revision"
)

// In-memory stores mirroring the Mongo repositories' contract, including the
// uniqueness guarantee on (revisionOf, version).

type fakeFormRevs struct {
	seq  int
	revs map[string]*models.FormRevision
}

func newFakeFormRevs() *fakeFormRevs {
	return &fakeFormRevs{revs: map[string]*models.FormRevision{}}
}

func (f *fakeFormRevs) Latest(_ context.Context, formID string) (*models.FormRevision, error) {
	var best *models.FormRevision
	for _, r := range f.revs {
		if r.RevisionOf != formID || r.Version == models.DraftVersion || r.Deleted != nil {
			continue
		}
		if best == nil || r.Version > best.Version {
			best = r
		}
	}
	return clone(best), nil
}

func (f *fakeFormRevs) Draft(_ context.Context, formID string) (*models.FormRevision, error) {
	for _, r := range f.revs {
		if r.RevisionOf == formID && r.Version == models.DraftVersion && r.Deleted == nil {
			return clone(r), nil
		}
	}
	return nil, nil
}

func (f *fakeFormRevs) FindByID(_ context.Context, id string) (*models.FormRevision, error) {
	r, ok := f.revs[id]
	if !ok || r.Deleted != nil {
		return nil, nil
	}
	return clone(r), nil
}

func (f *fakeFormRevs) FindByVersion(_ context.Context, formID string, version int) (*models.FormRevision, error) {
	for _, r := range f.revs {
		if r.RevisionOf == formID && r.Version == version && r.Deleted == nil {
			return clone(r), nil
		}
	}
	return nil, nil
}

func (f *fakeFormRevs) Insert(_ context.Context, rev *models.FormRevision) (string, error) {
	for _, r := range f.revs {
		if r.RevisionOf == rev.RevisionOf && r.Version == rev.Version && r.Deleted == nil {
			return "", revision.ErrVersionConflict
		}
	}
	f.seq++
	id := fmt.Sprintf("frev-%d", f.seq)
	cp := *rev
	cp.ID = id
	f.revs[id] = &cp
	return id, nil
}

func (f *fakeFormRevs) ReplaceDraft(ctx context.Context, rev *models.FormRevision) error {
	for id, r := range f.revs {
		if r.RevisionOf == rev.RevisionOf && r.Version == models.DraftVersion {
			cp := *rev
			cp.ID = id
			f.revs[id] = &cp
			return nil
		}
	}
	_, err := f.Insert(ctx, rev)
	return err
}

func (f *fakeFormRevs) DeleteDraft(_ context.Context, formID string) error {
	for id, r := range f.revs {
		if r.RevisionOf == formID && r.Version == models.DraftVersion {
			delete(f.revs, id)
		}
	}
	return nil
}

func (f *fakeFormRevs) SoftDeleteByForm(_ context.Context, formID string) error {
	ts := "2026-01-01T00:00:00Z"
	for _, r := range f.revs {
		if r.RevisionOf == formID {
			r.Deleted = &ts
		}
	}
	return nil
}

func (f *fakeFormRevs) countDrafts(formID string) int {
	n := 0
	for _, r := range f.revs {
		if r.RevisionOf == formID && r.Version == models.DraftVersion && r.Deleted == nil {
			n++
		}
	}
	return n
}

func clone(r *models.FormRevision) *models.FormRevision {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

type fakeSubRevs struct {
	seq  int
	revs []*models.SubmissionRevision
}

func (f *fakeSubRevs) Latest(_ context.Context, submissionID string) (*models.SubmissionRevision, error) {
	var best *models.SubmissionRevision
	for _, r := range f.revs {
		if r.RevisionOf != submissionID || r.Deleted != nil {
			continue
		}
		if best == nil || r.Version > best.Version {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeSubRevs) List(_ context.Context, submissionID string) ([]models.SubmissionRevision, error) {
	var out []models.SubmissionRevision
	for v := 1; ; v++ {
		found := false
		for _, r := range f.revs {
			if r.RevisionOf == submissionID && r.Version == v && r.Deleted == nil {
				out = append(out, *r)
				found = true
			}
		}
		if !found {
			return out, nil
		}
	}
}

func (f *fakeSubRevs) FindByID(_ context.Context, id string) (*models.SubmissionRevision, error) {
	for _, r := range f.revs {
		if r.ID == id && r.Deleted == nil {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSubRevs) Insert(_ context.Context, rev *models.SubmissionRevision) (string, error) {
	for _, r := range f.revs {
		if r.RevisionOf == rev.RevisionOf && r.Version == rev.Version && r.Deleted == nil {
			return "", revision.ErrVersionConflict
		}
	}
	f.seq++
	id := fmt.Sprintf("srev-%d", f.seq)
	cp := *rev
	cp.ID = id
	f.revs = append(f.revs, &cp)
	return id, nil
}

func (f *fakeSubRevs) UpdateSignatures(_ context.Context, id string, signatureIDs []string) error {
	for _, r := range f.revs {
		if r.ID == id {
			r.Signatures = signatureIDs
			return nil
		}
	}
	return fmt.Errorf("revision %s not found", id)
}

type fakeSubFlags struct {
	marked map[string]int
}

func (f *fakeSubFlags) MarkHasRevisions(_ context.Context, id string) error {
	if f.marked == nil {
		f.marked = map[string]int{}
	}
	f.marked[id]++
	return nil
}
