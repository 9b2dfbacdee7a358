// Package signature creates and re-validates attestations over submitted
// data. A signature binds the signed payload to a submission snapshot, the
// form shape at signing time, and the concrete data paths it covers; any of
// those drifting later turns validation into a named reason string.
package signature

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/attestra/formtrail/internal/fingerprint"
	"github.com/attestra/formtrail/internal/keyring"
	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/pathref"
)

// Validation failure reasons. These are user-facing strings returned as
// data, never as errors.
const (
	ReasonNoData       = "No eSignature data found"
	ReasonBadFormat    = "Invalid format"
	ReasonNoSettings   = "No eSignature settings found"
	ReasonFormChanged  = "Form changed"
	ReasonInvalidIDs   = "Invalid project/form/submission ID"
	ReasonDataChanged  = "Submission data changed"
	ReasonPropsChanged = "Value of custom properties changed"
)

// Result is the outcome of validating one signature.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func invalid(reason string) Result { return Result{Reason: reason} }

// Fingerprint is the composite object a signature cryptographically binds
// to. It rides opaquely inside the signed payload.
type Fingerprint struct {
	ProjectID    string         `json:"projectId"`
	FormID       string         `json:"formId"`
	SubmissionID string         `json:"submissionId"`
	FormHash     string         `json:"formHash"`
	Submission   map[string]any `json:"submission"`
	Signer       string         `json:"signer"`
	FieldRef     string         `json:"fieldRef,omitempty"`
	DataPath     string         `json:"dataPath,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
	SignedAt     string         `json:"signedAt"`
}

// KeyProvider resolves the key service for a project. *keyring.Ring
// satisfies it.
type KeyProvider interface {
	For(project *models.Project) keyring.KeyService
}

// Store persists signature records. FindBySubmission excludes soft-deleted
// records.
type Store interface {
	FindBySubmission(ctx context.Context, submissionID string) ([]models.Signature, error)
	Insert(ctx context.Context, sig *models.Signature) (string, error)
	SoftDelete(ctx context.Context, id string) error
}

// AttachmentStore writes a reconciled signature-id list onto a submission
// and its revision as one logical unit.
type AttachmentStore interface {
	AttachSignatures(ctx context.Context, submissionID, revisionID string, signatureIDs []string) error
}

// SubresourceLoader fetches the data of a linked sub-submission for
// inlining into fingerprints. Callers are responsible for cycle avoidance.
type SubresourceLoader interface {
	LoadData(ctx context.Context, submissionID string) (map[string]any, error)
}

// nestedTypes are the component kinds whose values reference another
// submission.
var nestedTypes = map[string]bool{
	"form":     true,
	"resource": true,
}

type Engine struct {
	keys   KeyProvider
	sigs   Store
	attach AttachmentStore
	nested SubresourceLoader
}

// NewEngine builds an engine. nested may be nil, in which case linked
// sub-submission values are fingerprinted as stored.
func NewEngine(keys KeyProvider, sigs Store, attach AttachmentStore, nested SubresourceLoader) *Engine {
	return &Engine{keys: keys, sigs: sigs, attach: attach, nested: nested}
}

// RequiresSignature reports whether any concrete path the reference resolves
// to currently holds a non-empty value.
func (e *Engine) RequiresSignature(fieldRef string, components []models.Component, data map[string]any) bool {
	for _, p := range pathref.Resolve(fieldRef, components, data) {
		if !isEmpty(pathref.ValueAt(data, p)) {
			return true
		}
	}
	return false
}

// CreateSignature signs a fingerprint of the submission bound to fieldRef
// and dataPath and persists the resulting record. rev may be nil when the
// submission is not versioned; the signature then binds to the submission
// itself.
func (e *Engine) CreateSignature(ctx context.Context, project *models.Project, form *models.FormRevision, sub *models.Submission, rev *models.SubmissionRevision, fieldRef, dataPath, signer string) (*models.Signature, error) {
	fp, err := e.buildFingerprint(ctx, project, form, sub, signer)
	if err != nil {
		return nil, err
	}
	fp.FieldRef = fieldRef
	fp.DataPath = dataPath

	payload, err := toMap(fp)
	if err != nil {
		return nil, err
	}
	token, err := e.keys.For(project).Sign(ctx, payload)
	if err != nil {
		return nil, err
	}

	subjectID := sub.ID
	if rev != nil {
		subjectID = rev.ID
	}
	sig := &models.Signature{
		SubjectID:     subjectID,
		ProjectID:     project.ID,
		FormID:        sub.FormID,
		SubmissionID:  sub.ID,
		FieldRef:      fieldRef,
		DataPath:      dataPath,
		SignedPayload: token,
		CreatedBy:     signer,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	id, err := e.sigs.Insert(ctx, sig)
	if err != nil {
		return nil, err
	}
	sig.ID = id
	return sig, nil
}

// ValidateSignature re-checks a stored signature against the current
// submission and form shape. Business-rule failures come back as a Result
// with a reason; only infrastructure faults return an error.
func (e *Engine) ValidateSignature(ctx context.Context, project *models.Project, sig *models.Signature, sub *models.Submission, form *models.FormRevision) (Result, error) {
	if sig == nil || sig.SignedPayload == "" {
		return invalid(ReasonNoData), nil
	}
	payload, err := e.keys.For(project).Verify(ctx, sig.SignedPayload)
	if errors.Is(err, keyring.ErrInvalidToken) {
		return invalid(ReasonBadFormat), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("verify signature %s: %w", sig.ID, err)
	}
	if len(payload) == 0 {
		return invalid(ReasonNoData), nil
	}
	var fp Fingerprint
	if err := fromMap(payload, &fp); err != nil {
		return invalid(ReasonBadFormat), nil
	}

	esign := form.ESign
	if esign == nil || !esign.Enabled {
		return invalid(ReasonNoSettings), nil
	}
	if !esign.SignEverything && !containsRef(esign.Components, fp.FieldRef) {
		return invalid(ReasonNoSettings), nil
	}

	currentHash, err := formHash(form)
	if err != nil {
		return Result{}, err
	}
	if currentHash != fp.FormHash {
		return invalid(ReasonFormChanged), nil
	}

	if fp.ProjectID != project.ID || fp.FormID != sub.FormID || fp.SubmissionID != sub.ID {
		return invalid(ReasonInvalidIDs), nil
	}

	currentData, err := e.resolveNested(ctx, form.Components, sub.Data)
	if err != nil {
		return Result{}, err
	}
	payloadData, _ := fp.Submission["data"].(map[string]any)
	if esign.SignEverything {
		if !fingerprint.Equal(currentData, payloadData) {
			return invalid(ReasonDataChanged), nil
		}
	} else {
		for _, ref := range esign.Components {
			if !fieldEqual(ref, form.Components, currentData, payloadData) {
				return invalid(ReasonDataChanged), nil
			}
		}
	}

	for _, prop := range esign.TrackedProperties {
		cur, err := propertyValue(sub, prop)
		if err != nil {
			return Result{}, err
		}
		if !fingerprint.Equal(cur, fp.Properties[prop]) {
			return invalid(ReasonPropsChanged), nil
		}
	}

	return Result{Valid: true}, nil
}

// Reconcile makes the stored signature set match what the form's rules and
// the current data require: every covered path gets exactly one valid
// signature, invalid ones are soft-deleted and replaced, and the resulting
// id list is written onto the submission and its revision.
func (e *Engine) Reconcile(ctx context.Context, project *models.Project, form *models.FormRevision, sub *models.Submission, rev *models.SubmissionRevision, signer string) ([]string, error) {
	if project == nil || !project.Settings.ESignEnabled || form.ESign == nil || !form.ESign.Enabled {
		return sub.Signatures, nil
	}

	existing, err := e.sigs.FindBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]models.Signature, len(existing))
	for _, s := range existing {
		byPath[s.DataPath] = s
	}

	type target struct{ ref, path string }
	var targets []target
	if form.ESign.SignEverything {
		if len(sub.Data) > 0 {
			targets = append(targets, target{})
		}
	} else {
		for _, ref := range form.ESign.Components {
			for _, p := range pathref.Resolve(ref, form.Components, sub.Data) {
				if !isEmpty(pathref.ValueAt(sub.Data, p)) {
					targets = append(targets, target{ref: ref, path: p})
				}
			}
		}
	}

	var ids []string
	for _, tgt := range targets {
		if old, ok := byPath[tgt.path]; ok {
			res, err := e.ValidateSignature(ctx, project, &old, sub, form)
			if err != nil {
				return nil, err
			}
			if res.Valid {
				ids = append(ids, old.ID)
				continue
			}
			if err := e.sigs.SoftDelete(ctx, old.ID); err != nil {
				return nil, err
			}
		}
		sig, err := e.CreateSignature(ctx, project, form, sub, rev, tgt.ref, tgt.path, signer)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sig.ID)
	}

	revID := ""
	if rev != nil {
		revID = rev.ID
	}
	if err := e.attach.AttachSignatures(ctx, sub.ID, revID, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (e *Engine) buildFingerprint(ctx context.Context, project *models.Project, form *models.FormRevision, sub *models.Submission, signer string) (*Fingerprint, error) {
	data, err := e.resolveNested(ctx, form.Components, sub.Data)
	if err != nil {
		return nil, err
	}
	hash, err := formHash(form)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if form.ESign != nil && len(form.ESign.TrackedProperties) > 0 {
		props = make(map[string]any, len(form.ESign.TrackedProperties))
		for _, prop := range form.ESign.TrackedProperties {
			v, err := propertyValue(sub, prop)
			if err != nil {
				return nil, err
			}
			props[prop] = v
		}
	}
	return &Fingerprint{
		ProjectID:    project.ID,
		FormID:       sub.FormID,
		SubmissionID: sub.ID,
		FormHash:     hash,
		Submission: map[string]any{
			"_id":    sub.ID,
			"formId": sub.FormID,
			"data":   data,
			"state":  sub.State,
		},
		Signer:     signer,
		Properties: props,
		SignedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// resolveNested returns a copy of data with linked sub-submission values
// inlined, so fingerprints cover the referenced data and not just its id.
func (e *Engine) resolveNested(ctx context.Context, components []models.Component, data map[string]any) (map[string]any, error) {
	if e.nested == nil {
		return data, nil
	}
	out := data
	copied := false
	for i := range components {
		c := &components[i]
		if !nestedTypes[c.Type] {
			continue
		}
		ref, ok := out[c.Key].(map[string]any)
		if !ok {
			continue
		}
		id, ok := ref["_id"].(string)
		if !ok || id == "" {
			continue
		}
		loaded, err := e.nested.LoadData(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve nested submission %s: %w", id, err)
		}
		if !copied {
			out = cloneMap(out)
			copied = true
		}
		inlined := cloneMap(ref)
		inlined["data"] = loaded
		out[c.Key] = inlined
	}
	return out, nil
}

// formHash fingerprints the form shape a signature is bound to.
func formHash(form *models.FormRevision) (string, error) {
	return fingerprint.SHA256Hex(map[string]any{
		"components": form.Components,
		"controller": form.Controller,
	})
}

// fieldEqual compares one field reference's concrete values between two data
// trees. Differing fork counts (a row added or removed) count as a change.
func fieldEqual(ref string, components []models.Component, current, previous map[string]any) bool {
	curPaths := pathref.Resolve(ref, components, current)
	prevPaths := pathref.Resolve(ref, components, previous)
	if len(curPaths) != len(prevPaths) {
		return false
	}
	for i := range curPaths {
		if !fingerprint.Equal(pathref.ValueAt(current, curPaths[i]), pathref.ValueAt(previous, prevPaths[i])) {
			return false
		}
	}
	return true
}

// propertyValue reads a custom tracked property from the submission record
// itself (outside data), e.g. "state" or "formVersion".
func propertyValue(sub *models.Submission, prop string) (any, error) {
	doc, err := toMap(sub)
	if err != nil {
		return nil, err
	}
	return pathref.ValueAt(doc, prop), nil
}

// isEmpty implements the non-empty rule of requiresSignature: nil, empty
// string, false, empty object and empty array are empty; numeric zero is a
// real value.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func containsRef(refs []string, ref string) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]any, dst any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
