package repository

import "context"

// Attachments implements signature.AttachmentStore: one logical write of a
// reconciled signature-id list onto a submission and its revision.
type Attachments struct {
	subs *SubmissionRepo
	revs *SubmissionRevisionRepo
}

func NewAttachments(subs *SubmissionRepo, revs *SubmissionRevisionRepo) *Attachments {
	return &Attachments{subs: subs, revs: revs}
}

func (a *Attachments) AttachSignatures(ctx context.Context, submissionID, revisionID string, signatureIDs []string) error {
	if err := a.subs.UpdateSignatures(ctx, submissionID, signatureIDs); err != nil {
		return err
	}
	if revisionID == "" {
		return nil
	}
	return a.revs.UpdateSignatures(ctx, revisionID, signatureIDs)
}
