package catalog

import (
	"sort"
	"strconv"
)

// WalkStrings visits every string leaf of a tree-shaped value built from
// decoded JSON or query parameters: strings, []any, []string,
// map[string]any and map[string][]string (url.Values). Numbers, booleans and
// nils carry no injectable text and are skipped. The visitor receives a
// dotted path ("body.user.name") and returns false to stop the walk early.
func WalkStrings(v any, path string, visit func(path, value string) bool) bool {
	switch t := v.(type) {
	case string:
		return visit(path, t)
	case []string:
		for i, s := range t {
			if !visit(path+"."+strconv.Itoa(i), s) {
				return false
			}
		}
	case []any:
		for i, item := range t {
			if !WalkStrings(item, path+"."+strconv.Itoa(i), visit) {
				return false
			}
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			if !WalkStrings(t[k], path+"."+k, visit) {
				return false
			}
		}
	case map[string][]string:
		for _, k := range sortedKeysSlice(t) {
			for i, s := range t[k] {
				if !visit(path+"."+k+"."+strconv.Itoa(i), s) {
					return false
				}
			}
		}
	}
	return true
}

// Map iteration order is randomized; sorting keeps matches deterministic when
// several leaves would hit.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysSlice(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
