package models

// DraftVersion marks the single mutable draft slot of a form's revision
// chain. Numbered revisions start at 1 and only ever increase.
const DraftVersion = 0

// FormRevision is an immutable snapshot of a form's tracked fields. The
// draft revision (Version == DraftVersion) is the one exception: it is
// overwritten in place until promoted to the next number.
type FormRevision struct {
	ID         string         `bson:"_id,omitempty" json:"_id,omitempty"`
	RevisionOf string         `bson:"revisionOf" json:"revisionOf"`
	ProjectID  string         `bson:"projectId" json:"projectId"`
	Version    int            `bson:"version" json:"version"`
	Components []Component    `bson:"components" json:"components"`
	Settings   map[string]any `bson:"settings,omitempty" json:"settings,omitempty"`
	Controller string         `bson:"controller,omitempty" json:"controller,omitempty"`
	ESign      *ESignConfig   `bson:"esign,omitempty" json:"esign,omitempty"`
	CreatedBy  string         `bson:"createdBy" json:"createdBy"`
	Note       string         `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt  string         `bson:"createdAt" json:"createdAt"`
	Deleted    *string        `bson:"deleted,omitempty" json:"deleted,omitempty"`
}

// IsDraft reports whether the revision occupies the draft slot.
func (r *FormRevision) IsDraft() bool { return r.Version == DraftVersion }

// PatchOperation is one RFC 6902 operation of a revision's forward delta.
type PatchOperation struct {
	Op    string `bson:"op" json:"op"`
	Path  string `bson:"path" json:"path"`
	Value any    `bson:"value,omitempty" json:"value,omitempty"`
}

// RevisionMetadata records how a submission revision differs from the one
// before it.
type RevisionMetadata struct {
	JSONPatch    []PatchOperation `bson:"jsonPatch" json:"jsonPatch"`
	PreviousData map[string]any   `bson:"previousData,omitempty" json:"previousData,omitempty"`
}

// SubmissionRevision is an immutable snapshot of a submission's tracked
// fields. Revisions of one submission form a strictly ordered, append-only
// chain; the first revision's patch is a full add of the initial data.
type SubmissionRevision struct {
	ID         string           `bson:"_id,omitempty" json:"_id,omitempty"`
	RevisionOf string           `bson:"revisionOf" json:"revisionOf"`
	ProjectID  string           `bson:"projectId" json:"projectId"`
	Version    int              `bson:"version" json:"version"`
	Data       map[string]any   `bson:"data" json:"data"`
	State      string           `bson:"state" json:"state"`
	Signatures []string         `bson:"signatures,omitempty" json:"signatures,omitempty"`
	CreatedBy  string           `bson:"createdBy" json:"createdBy"`
	Note       string           `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt  string           `bson:"createdAt" json:"createdAt"`
	Metadata   RevisionMetadata `bson:"metadata" json:"metadata"`
	Deleted    *string          `bson:"deleted,omitempty" json:"deleted,omitempty"`
}
