// Package revision decides when a mutation to a form or submission warrants
// a new immutable snapshot, and maintains the snapshot chains. Version
// numbers are never held in process: the next version is always derived from
// the latest persisted revision, and the store's uniqueness guarantee on
// (revisionOf, version) is the boundary that keeps concurrent writers from
// both becoming "the next version".
package revision

import (
	"context"
	"errors"

	"github.com/attestra/formtrail/internal/fingerprint"
	"github.com/attestra/formtrail/internal/models"
)

// ErrVersionConflict is returned by stores when an insert loses the
// conditional-update race for a version number. Callers retry; this package
// never does.
var ErrVersionConflict = errors.New("revision: version conflict")

// FormRevisionStore persists form snapshot chains. Lookups return (nil, nil)
// when nothing matches.
type FormRevisionStore interface {
	// Latest returns the highest numbered revision of a form.
	Latest(ctx context.Context, formID string) (*models.FormRevision, error)
	// Draft returns the form's draft-slot revision.
	Draft(ctx context.Context, formID string) (*models.FormRevision, error)
	FindByID(ctx context.Context, id string) (*models.FormRevision, error)
	FindByVersion(ctx context.Context, formID string, version int) (*models.FormRevision, error)
	// Insert persists a numbered revision, failing with ErrVersionConflict
	// when that version already exists.
	Insert(ctx context.Context, rev *models.FormRevision) (string, error)
	// ReplaceDraft overwrites the draft slot, creating it if absent.
	ReplaceDraft(ctx context.Context, rev *models.FormRevision) error
	DeleteDraft(ctx context.Context, formID string) error
	SoftDeleteByForm(ctx context.Context, formID string) error
}

// SubmissionRevisionStore persists submission snapshot chains.
type SubmissionRevisionStore interface {
	Latest(ctx context.Context, submissionID string) (*models.SubmissionRevision, error)
	List(ctx context.Context, submissionID string) ([]models.SubmissionRevision, error)
	FindByID(ctx context.Context, id string) (*models.SubmissionRevision, error)
	Insert(ctx context.Context, rev *models.SubmissionRevision) (string, error)
	UpdateSignatures(ctx context.Context, id string, signatureIDs []string) error
}

// SubmissionFlagStore marks a submission as having at least one revision.
type SubmissionFlagStore interface {
	MarkHasRevisions(ctx context.Context, id string) error
}

// trackedEqual compares tracked-field views structurally, ignoring
// everything outside them.
func trackedEqual(a, b any) bool {
	return fingerprint.Equal(a, b)
}
