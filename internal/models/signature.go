package models

// Signature is an immutable attestation record. SignedPayload is the opaque
// token produced by the key service from a fingerprint; re-validation always
// recomputes against it, never caches. Signatures are only ever soft-deleted.
type Signature struct {
	ID            string  `bson:"_id,omitempty" json:"_id,omitempty"`
	SubjectID     string  `bson:"subjectId" json:"subjectId"`
	ProjectID     string  `bson:"projectId" json:"projectId"`
	FormID        string  `bson:"formId" json:"formId"`
	SubmissionID  string  `bson:"submissionId" json:"submissionId"`
	FieldRef      string  `bson:"fieldRef,omitempty" json:"fieldRef,omitempty"`
	DataPath      string  `bson:"dataPath,omitempty" json:"dataPath,omitempty"`
	SignedPayload string  `bson:"signedPayload" json:"signedPayload"`
	CreatedBy     string  `bson:"createdBy" json:"createdBy"`
	CreatedAt     string  `bson:"createdAt" json:"createdAt"`
	Deleted       *string `bson:"deleted,omitempty" json:"deleted,omitempty"`
}
