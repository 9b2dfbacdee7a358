package models

// Component is one node of a form's schema tree. Keys are stable within a
// form and dot-joined keys form field references (e.g. "panel.items.name").
// Unknown frontend properties are preserved in Properties.
type Component struct {
	Key        string         `bson:"key" json:"key"`
	Type       string         `bson:"type" json:"type"`
	Label      string         `bson:"label,omitempty" json:"label,omitempty"`
	Required   bool           `bson:"required,omitempty" json:"required,omitempty"`
	Properties map[string]any `bson:"properties,omitempty" json:"properties,omitempty"`
	Components []Component    `bson:"components,omitempty" json:"components,omitempty"`
}

// ESignConfig holds a form's attestation rules.
type ESignConfig struct {
	Enabled bool `bson:"enabled" json:"enabled"`
	// SignEverything binds signatures to the whole data tree instead of
	// individual field references.
	SignEverything bool `bson:"signEverything,omitempty" json:"signEverything,omitempty"`
	// Components lists the field references that require attestation.
	Components []string `bson:"components,omitempty" json:"components,omitempty"`
	// TrackedProperties are submission properties outside data whose values
	// a signature additionally binds to.
	TrackedProperties []string `bson:"trackedProperties,omitempty" json:"trackedProperties,omitempty"`
}

// Form is the mutable form definition owned by a project. Components,
// Settings, Controller and ESign are the tracked fields for versioning.
type Form struct {
	ID               string         `bson:"_id,omitempty" json:"_id,omitempty"`
	ProjectID        string         `bson:"projectId" json:"projectId"`
	Name             string         `bson:"name" json:"name"`
	Title            string         `bson:"title,omitempty" json:"title,omitempty"`
	Components       []Component    `bson:"components" json:"components"`
	Settings         map[string]any `bson:"settings,omitempty" json:"settings,omitempty"`
	Controller       string         `bson:"controller,omitempty" json:"controller,omitempty"`
	ESign            *ESignConfig   `bson:"esign,omitempty" json:"esign,omitempty"`
	RevisionsEnabled bool           `bson:"revisionsEnabled" json:"revisionsEnabled"`
	CreatedBy        string         `bson:"createdBy" json:"createdBy"`
	CreatedAt        string         `bson:"createdAt" json:"createdAt"`
	UpdatedAt        string         `bson:"updatedAt" json:"updatedAt"`
	Deleted          *string        `bson:"deleted,omitempty" json:"deleted,omitempty"`
}

// ESignEnabled reports whether the form has active attestation rules.
func (f *Form) ESignEnabled() bool {
	return f.ESign != nil && f.ESign.Enabled
}
