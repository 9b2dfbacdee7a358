package models

// Submission states. Drafts are mutable scratch records and never produce
// revisions.
const (
	StateDraft     = "draft"
	StateSubmitted = "submitted"
)

// Submission is the current data record for a form. Data and State are the
// tracked fields for versioning.
type Submission struct {
	ID        string         `bson:"_id,omitempty" json:"_id,omitempty"`
	FormID    string         `bson:"formId" json:"formId"`
	ProjectID string         `bson:"projectId" json:"projectId"`
	// FormVersion is the numbered form revision the submission was made
	// against, 0 when the form is not versioned.
	FormVersion  int            `bson:"formVersion,omitempty" json:"formVersion,omitempty"`
	Data         map[string]any `bson:"data" json:"data"`
	State        string         `bson:"state" json:"state"`
	Signatures   []string       `bson:"signatures,omitempty" json:"signatures,omitempty"`
	HasRevisions bool           `bson:"hasRevisions,omitempty" json:"hasRevisions,omitempty"`
	CreatedBy    string         `bson:"createdBy" json:"createdBy"`
	CreatedAt    string         `bson:"createdAt" json:"createdAt"`
	UpdatedAt    string         `bson:"updatedAt" json:"updatedAt"`
	Deleted      *string        `bson:"deleted,omitempty" json:"deleted,omitempty"`
}
