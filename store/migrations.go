// ABOUTME: Migrations for persisted store blobs
// ABOUTME: Version 0 list blobs were bare arrays or single-collection objects
package store

import (
	"encoding/json"
	"fmt"
)

// wrapLegacyList turns a version 0 list blob into {"items": [...]}.
// Accepted inputs: a bare array, an object that already has "items", or an
// object with exactly one array member (e.g. {"leads": [...], "selectedLead": "l1"}).
func wrapLegacyList(raw json.RawMessage) (json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return json.Marshal(map[string]any{"items": list})
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("legacy list blob is neither array nor object: %w", err)
	}
	if _, ok := fields["items"]; ok {
		return raw, nil
	}

	var items json.RawMessage
	found := 0
	for _, v := range fields {
		var probe []json.RawMessage
		if string(v) != "null" && json.Unmarshal(v, &probe) == nil {
			items = v
			found++
		}
	}
	switch found {
	case 0:
		return json.Marshal(map[string]any{"items": []any{}})
	case 1:
		return json.Marshal(map[string]json.RawMessage{"items": items})
	}
	return nil, fmt.Errorf("legacy list blob has %d array members, cannot pick one", found)
}
