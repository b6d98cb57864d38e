// Package decode converts loosely typed JSON objects into typed values.
package decode

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// FromMap re-encodes data and decodes it into T.
func FromMap[T any](data map[string]any) (T, error) {
	var result T
	b, err := json.Marshal(data)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(b, &result)
	return result, err
}

// Forbid returns an error naming every key of data that appears in keys.
func Forbid(data map[string]any, keys ...string) error {
	var found []string
	for k := range data {
		if slices.Contains(keys, k) {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Strings(found)
	return fmt.Errorf("fields not allowed: %v", found)
}
