package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names.
const (
	ProjectsCollection            = "projects"
	FormsCollection               = "forms"
	FormRevisionsCollection       = "form_revisions"
	SubmissionsCollection         = "submissions"
	SubmissionRevisionsCollection = "submission_revisions"
	SignaturesCollection          = "signatures"
	UsersCollection               = "users"
)

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// live narrows a filter to documents that have not been soft-deleted.
func live(filter bson.M) bson.M {
	filter["deleted"] = nil
	return filter
}

// toDoc flattens a model into an update document without its _id, so $set
// never touches the immutable id field.
func toDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}
