// Package pathref expands schema-level field references into concrete data
// paths. A field reference is a dot-separated chain of component keys
// ("panel.items.name"); a concrete path carries an array index for every
// repeating ancestor ("items[0].name"). Resolution is a pure function of the
// schema and the current data tree.
package pathref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/attestra/formtrail/internal/models"
)

// repeatingTypes is the closed set of container kinds whose children live in
// an array of rows.
var repeatingTypes = map[string]bool{
	"datagrid":  true,
	"editgrid":  true,
	"datatable": true,
}

// IsRepeating reports whether a component type holds repeated rows.
func IsRepeating(typ string) bool { return repeatingTypes[typ] }

// Find returns the first component with the given key, searching the tree
// depth-first in document order. Returns nil when no component matches.
func Find(components []models.Component, key string) *models.Component {
	for i := range components {
		if components[i].Key == key {
			return &components[i]
		}
		if c := Find(components[i].Components, key); c != nil {
			return c
		}
	}
	return nil
}

// Resolve expands ref into the concrete data paths it denotes.
//
// Each reference segment extends every live path prefix. Crossing a
// repeating ancestor forks one prefix per data row at that point, or a
// single index-0 prefix when the rows are absent or empty, so at least one
// candidate path always comes back. The final segment never forks.
//
// A reference with fewer than two segments, or whose first segment is not in
// the schema, is treated as already concrete and returned unchanged.
func Resolve(ref string, components []models.Component, data map[string]any) []string {
	segs := strings.Split(ref, ".")
	if len(segs) < 2 {
		return []string{ref}
	}
	if Find(components, segs[0]) == nil {
		return []string{ref}
	}

	scope := components
	prefixes := []string{""}
	for i, seg := range segs {
		for j := range prefixes {
			if prefixes[j] == "" {
				prefixes[j] = seg
			} else {
				prefixes[j] += "." + seg
			}
		}
		if i == len(segs)-1 {
			break
		}
		comp := Find(scope, seg)
		if comp == nil {
			continue
		}
		scope = comp.Components
		if !IsRepeating(comp.Type) {
			continue
		}
		next := make([]string, 0, len(prefixes))
		for _, p := range prefixes {
			rows, ok := ValueAt(data, p).([]any)
			if !ok || len(rows) == 0 {
				next = append(next, p+"[0]")
				continue
			}
			for idx := range rows {
				next = append(next, fmt.Sprintf("%s[%d]", p, idx))
			}
		}
		prefixes = next
	}
	return prefixes
}

// ValueAt walks a concrete path into a data tree. Returns nil when any hop
// is missing or of the wrong shape.
func ValueAt(data map[string]any, path string) any {
	var cur any = data
	for _, tok := range strings.Split(path, ".") {
		key, idxs, ok := splitToken(tok)
		if !ok {
			return nil
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
		for _, idx := range idxs {
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			cur = arr[idx]
		}
	}
	return cur
}

// splitToken parses a path token like "items[0]" into its key and indices.
func splitToken(tok string) (string, []int, bool) {
	open := strings.IndexByte(tok, '[')
	if open < 0 {
		return tok, nil, true
	}
	key := tok[:open]
	var idxs []int
	rest := tok[open:]
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		close := strings.IndexByte(rest, ']')
		if close < 0 {
			return "", nil, false
		}
		n, err := strconv.Atoi(rest[1:close])
		if err != nil {
			return "", nil, false
		}
		idxs = append(idxs, n)
		rest = rest[close+1:]
	}
	return key, idxs, true
}
