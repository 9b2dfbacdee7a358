package revision_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/revision"
)

func testSubmission(data map[string]any) *models.Submission {
	return &models.Submission{
		ID:        "s1",
		FormID:    "f1",
		ProjectID: "p1",
		Data:      data,
		State:     models.StateSubmitted,
	}
}

func newSubVersioner() (*revision.SubmissionVersioner, *fakeSubRevs, *fakeSubFlags) {
	revs := &fakeSubRevs{}
	flags := &fakeSubFlags{}
	return revision.NewSubmissionVersioner(revs, flags), revs, flags
}

func TestSubmissionFirstRevisionIsFullAdd(t *testing.T) {
	v, _, flags := newSubVersioner()
	ctx := context.Background()

	rev, err := v.Snapshot(ctx, testSubmission(map[string]any{"fname": "joe"}), "alice", "")
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, 1, rev.Version)
	require.Len(t, rev.Metadata.JSONPatch, 1)
	assert.Equal(t, models.PatchOperation{Op: "add", Path: "/data/fname", Value: "joe"}, rev.Metadata.JSONPatch[0])
	assert.Nil(t, rev.Metadata.PreviousData)
	assert.Equal(t, 1, flags.marked["s1"], "hasRevisions marked exactly once")
}

func TestSubmissionAddFieldPatch(t *testing.T) {
	v, _, flags := newSubVersioner()
	ctx := context.Background()

	_, err := v.Snapshot(ctx, testSubmission(map[string]any{"fname": "joe"}), "alice", "")
	require.NoError(t, err)

	rev, err := v.Snapshot(ctx, testSubmission(map[string]any{"fname": "joe", "lname": "test"}), "alice", "")
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, 2, rev.Version)
	require.Len(t, rev.Metadata.JSONPatch, 1)
	assert.Equal(t, models.PatchOperation{Op: "add", Path: "/data/lname", Value: "test"}, rev.Metadata.JSONPatch[0])
	assert.Equal(t, map[string]any{"fname": "joe"}, rev.Metadata.PreviousData)
	assert.Equal(t, 1, flags.marked["s1"], "later revisions must not re-mark")
}

func TestSubmissionReplacePatch(t *testing.T) {
	v, _, _ := newSubVersioner()
	ctx := context.Background()

	_, err := v.Snapshot(ctx, testSubmission(map[string]any{"a": 1}), "alice", "")
	require.NoError(t, err)

	rev, err := v.Snapshot(ctx, testSubmission(map[string]any{"a": 2}), "alice", "")
	require.NoError(t, err)
	require.NotNil(t, rev)
	require.Len(t, rev.Metadata.JSONPatch, 1)
	op := rev.Metadata.JSONPatch[0]
	assert.Equal(t, "replace", op.Op)
	assert.Equal(t, "/data/a", op.Path)
	assert.Equal(t, map[string]any{"a": 1}, rev.Metadata.PreviousData)
}

func TestSubmissionIdenticalDataNoSecondRevision(t *testing.T) {
	v, revs, _ := newSubVersioner()
	ctx := context.Background()
	sub := testSubmission(map[string]any{"fname": "joe"})

	_, err := v.Snapshot(ctx, sub, "alice", "")
	require.NoError(t, err)

	ok, err := v.ShouldSnapshot(ctx, project(true), &models.Form{ID: "f1", RevisionsEnabled: true}, sub)
	require.NoError(t, err)
	assert.False(t, ok)

	// Even when forced, an empty data patch creates nothing.
	rev, err := v.Snapshot(ctx, sub, "alice", "")
	require.NoError(t, err)
	assert.Nil(t, rev)
	assert.Len(t, revs.revs, 1)
}

func TestSubmissionDraftNeverVersions(t *testing.T) {
	v, _, _ := newSubVersioner()
	sub := testSubmission(map[string]any{"fname": "joe"})
	sub.State = models.StateDraft

	ok, err := v.ShouldSnapshot(context.Background(), project(true), &models.Form{ID: "f1", RevisionsEnabled: true}, sub)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmissionStateOnlyChangeNoRevision(t *testing.T) {
	v, revs, _ := newSubVersioner()
	ctx := context.Background()

	_, err := v.Snapshot(ctx, testSubmission(map[string]any{"a": 1}), "alice", "")
	require.NoError(t, err)

	changed := testSubmission(map[string]any{"a": 1})
	changed.State = "archived"

	// The generic tracked-field check flags the state change...
	ok, err := v.ShouldSnapshot(ctx, project(true), &models.Form{ID: "f1", RevisionsEnabled: true}, changed)
	require.NoError(t, err)
	assert.True(t, ok)

	// ...but the empty data patch keeps it out of the chain.
	rev, err := v.Snapshot(ctx, changed, "alice", "")
	require.NoError(t, err)
	assert.Nil(t, rev)
	assert.Len(t, revs.revs, 1)
}

func TestSubmissionRevisionsOrdered(t *testing.T) {
	v, _, _ := newSubVersioner()
	ctx := context.Background()

	for i, data := range []map[string]any{
		{"a": 1},
		{"a": 2},
		{"a": 2, "b": "x"},
	} {
		rev, err := v.Snapshot(ctx, testSubmission(data), "alice", "")
		require.NoError(t, err)
		require.NotNil(t, rev, "step %d", i)
		assert.Equal(t, i+1, rev.Version)
	}

	chain, err := v.GetRevisions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	for i, rev := range chain {
		assert.Equal(t, i+1, rev.Version)
	}
}

func TestSubmissionGetRevision(t *testing.T) {
	v, _, _ := newSubVersioner()
	ctx := context.Background()

	first, err := v.Snapshot(ctx, testSubmission(map[string]any{"a": 1}), "alice", "")
	require.NoError(t, err)
	second, err := v.Snapshot(ctx, testSubmission(map[string]any{"a": 2}), "alice", "")
	require.NoError(t, err)

	byVersion, err := v.GetRevision(ctx, "s1", "1")
	require.NoError(t, err)
	require.NotNil(t, byVersion)
	assert.Equal(t, first.ID, byVersion.ID)

	byID, err := v.GetRevision(ctx, "s1", second.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, 2, byID.Version)

	missing, err := v.GetRevision(ctx, "s1", "9")
	require.NoError(t, err)
	assert.Nil(t, missing)

	foreign, err := v.GetRevision(ctx, "other", second.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign, "a revision id must only resolve under its own submission")
}

func TestSubmissionTrackingDisabled(t *testing.T) {
	v, _, _ := newSubVersioner()
	sub := testSubmission(map[string]any{"a": 1})

	ok, err := v.ShouldSnapshot(context.Background(), project(false), &models.Form{ID: "f1", RevisionsEnabled: true}, sub)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.ShouldSnapshot(context.Background(), project(true), &models.Form{ID: "f1"}, sub)
	require.NoError(t, err)
	assert.False(t, ok)
}
