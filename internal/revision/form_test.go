package revision_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/revision"
)

func project(revisions bool) *models.Project {
	return &models.Project{
		ID:       "p1",
		Settings: models.ProjectSettings{RevisionsEnabled: revisions, ESignEnabled: true},
	}
}

func testForm() *models.Form {
	return &models.Form{
		ID:               "f1",
		ProjectID:        "p1",
		Name:             "intake",
		Components:       []models.Component{{Key: "fname", Type: "textfield"}},
		Controller:       "",
		RevisionsEnabled: true,
	}
}

func TestFormShouldSnapshotDisabledTracking(t *testing.T) {
	v := revision.NewFormVersioner(newFakeFormRevs())

	form := testForm()
	ok, err := v.ShouldSnapshot(context.Background(), project(false), form, form)
	require.NoError(t, err)
	assert.False(t, ok, "project entitlement off must be a silent no-op")

	form.RevisionsEnabled = false
	ok, err = v.ShouldSnapshot(context.Background(), project(true), form, form)
	require.NoError(t, err)
	assert.False(t, ok, "form flag off must be a silent no-op")
}

func TestFormFirstEnablingEditSnapshots(t *testing.T) {
	v := revision.NewFormVersioner(newFakeFormRevs())

	ok, err := v.ShouldSnapshot(context.Background(), project(true), nil, testForm())
	require.NoError(t, err)
	assert.True(t, ok, "enabling edit must produce version 1 even without content change")
}

func TestFormReenablingEditSnapshots(t *testing.T) {
	store := newFakeFormRevs()
	v := revision.NewFormVersioner(store)
	ctx := context.Background()
	form := testForm()

	rev, err := v.Snapshot(ctx, form, "alice", "v1")
	require.NoError(t, err)
	require.Equal(t, 1, rev.Version)

	disabled := *form
	disabled.RevisionsEnabled = false

	// Turning the flag back on must version even though the tracked
	// content still equals the latest revision.
	ok, err := v.ShouldSnapshot(ctx, project(true), &disabled, form)
	require.NoError(t, err)
	assert.True(t, ok, "an enabling edit must force a revision even with identical content")

	ok, err = v.ShouldSnapshot(ctx, project(true), form, form)
	require.NoError(t, err)
	assert.False(t, ok, "a flag already on with identical content must not version again")
}

func TestFormIdenticalContentSnapshotsOnce(t *testing.T) {
	store := newFakeFormRevs()
	v := revision.NewFormVersioner(store)
	ctx := context.Background()
	form := testForm()

	rev, err := v.Snapshot(ctx, form, "alice", "initial")
	require.NoError(t, err)
	assert.Equal(t, 1, rev.Version)

	ok, err := v.ShouldSnapshot(ctx, project(true), form, form)
	require.NoError(t, err)
	assert.False(t, ok, "unchanged tracked fields must not version again")

	form.Components = append(form.Components, models.Component{Key: "lname", Type: "textfield"})
	ok, err = v.ShouldSnapshot(ctx, project(true), form, form)
	require.NoError(t, err)
	assert.True(t, ok)

	rev, err = v.Snapshot(ctx, form, "alice", "added lname")
	require.NoError(t, err)
	assert.Equal(t, 2, rev.Version)
}

func TestFormUntrackedFieldsIgnored(t *testing.T) {
	v := revision.NewFormVersioner(newFakeFormRevs())
	ctx := context.Background()
	form := testForm()

	_, err := v.Snapshot(ctx, form, "alice", "")
	require.NoError(t, err)

	form.Name = "renamed"
	form.Title = "Renamed"
	ok, err := v.ShouldSnapshot(ctx, project(true), form, form)
	require.NoError(t, err)
	assert.False(t, ok, "name/title are not tracked fields")
}

func TestFormDraftOverwriteAndPublish(t *testing.T) {
	store := newFakeFormRevs()
	v := revision.NewFormVersioner(store)
	ctx := context.Background()
	form := testForm()

	_, err := v.Snapshot(ctx, form, "alice", "v1")
	require.NoError(t, err)

	form.Controller = "console.log('draft 1')"
	_, err = v.SaveDraft(ctx, form, "bob", "wip")
	require.NoError(t, err)
	form.Controller = "console.log('draft 2')"
	_, err = v.SaveDraft(ctx, form, "bob", "wip 2")
	require.NoError(t, err)
	assert.Equal(t, 1, store.countDrafts("f1"), "draft slot must be overwritten, not duplicated")

	draft, err := v.GetRevision(ctx, "f1", "draft")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "console.log('draft 2')", draft.Controller)

	published, err := v.PublishDraft(ctx, "f1", "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, published.Version)
	assert.Equal(t, "bob", published.CreatedBy, "promotion keeps the draft's author when none given")

	draft, err = v.GetRevision(ctx, "f1", "draft")
	require.NoError(t, err)
	assert.Nil(t, draft, "publishing must delete the draft slot")
}

func TestFormPublishWithoutDraft(t *testing.T) {
	v := revision.NewFormVersioner(newFakeFormRevs())
	_, err := v.PublishDraft(context.Background(), "f1", "alice", "")
	assert.Error(t, err)
}

func TestFormGetRevisionByVersionAndID(t *testing.T) {
	v := revision.NewFormVersioner(newFakeFormRevs())
	ctx := context.Background()
	form := testForm()

	r1, err := v.Snapshot(ctx, form, "alice", "")
	require.NoError(t, err)
	form.Controller = "x()"
	_, err = v.Snapshot(ctx, form, "alice", "")
	require.NoError(t, err)

	byVersion, err := v.GetRevision(ctx, "f1", "1")
	require.NoError(t, err)
	require.NotNil(t, byVersion)
	assert.Equal(t, "", byVersion.Controller)

	byID, err := v.GetRevision(ctx, "f1", r1.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, 1, byID.Version)

	other, err := v.GetRevision(ctx, "other-form", r1.ID)
	require.NoError(t, err)
	assert.Nil(t, other, "revision ids are scoped to their form")

	missing, err := v.GetRevision(ctx, "f1", "99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFormVersionConflictPropagates(t *testing.T) {
	store := newFakeFormRevs()
	v := revision.NewFormVersioner(store)
	ctx := context.Background()

	_, err := v.Snapshot(ctx, testForm(), "alice", "")
	require.NoError(t, err)

	// Simulate a concurrent writer that claimed version 2 between the read
	// and the insert.
	_, err = store.Insert(ctx, &models.FormRevision{RevisionOf: "f1", Version: 2})
	require.NoError(t, err)
	_, err = store.Insert(ctx, &models.FormRevision{RevisionOf: "f1", Version: 2})
	assert.ErrorIs(t, err, revision.ErrVersionConflict)
}
