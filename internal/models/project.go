package models

// ProjectSettings carries a project's entitlements and key material.
type ProjectSettings struct {
	RevisionsEnabled bool `bson:"revisionsEnabled" json:"revisionsEnabled"`
	ESignEnabled     bool `bson:"esignEnabled" json:"esignEnabled"`
	// SigningKey is project-supplied key material for attestation tokens.
	// Empty selects the service-wide default key.
	SigningKey string `bson:"signingKey,omitempty" json:"-"`
}

// Project is the tenant unit owning forms and submissions.
type Project struct {
	ID        string          `bson:"_id,omitempty" json:"_id,omitempty"`
	Name      string          `bson:"name" json:"name"`
	Settings  ProjectSettings `bson:"settings" json:"settings"`
	CreatedBy string          `bson:"createdBy" json:"createdBy"`
	CreatedAt string          `bson:"createdAt" json:"createdAt"`
	UpdatedAt string          `bson:"updatedAt" json:"updatedAt"`
	Deleted   *string         `bson:"deleted,omitempty" json:"deleted,omitempty"`
}
