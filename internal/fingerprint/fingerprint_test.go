package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestra/formtrail/internal/fingerprint"
	"github.com/attestra/formtrail/internal/models"
)

func TestCanonicalSortsKeys(t *testing.T) {
	a, err := fingerprint.Canonical(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(a))
}

func TestCanonicalNormalizesStructsAndMaps(t *testing.T) {
	comp := models.Component{Key: "fname", Type: "textfield"}
	asMap := map[string]any{"key": "fname", "type": "textfield"}
	assert.True(t, fingerprint.Equal(comp, asMap))
}

func TestSHA256HexStable(t *testing.T) {
	v := map[string]any{
		"components": []any{map[string]any{"key": "a"}},
		"controller": "console.log(1)",
	}
	h1, err := fingerprint.SHA256Hex(v)
	require.NoError(t, err)
	h2, err := fingerprint.SHA256Hex(map[string]any{
		"controller": "console.log(1)",
		"components": []any{map[string]any{"key": "a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestSHA256HexDetectsChange(t *testing.T) {
	h1, err := fingerprint.SHA256Hex(map[string]any{"components": []any{"a"}})
	require.NoError(t, err)
	h2, err := fingerprint.SHA256Hex(map[string]any{"components": []any{"a", "b"}})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestEqual(t *testing.T) {
	assert.True(t, fingerprint.Equal(
		map[string]any{"a": []any{1, 2}},
		map[string]any{"a": []any{1.0, 2.0}},
	))
	assert.False(t, fingerprint.Equal(
		map[string]any{"a": []any{1, 2}},
		map[string]any{"a": []any{2, 1}},
	))
	assert.True(t, fingerprint.Equal(nil, nil))
}
