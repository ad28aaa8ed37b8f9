// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

type incrementOp struct {
	delta int64
}

type deleteFieldOp struct{}

// Increment returns an update value that atomically adjusts a numeric field
// by delta. Counters in this system are non-negative, so results below zero
// clamp to zero.
func Increment(delta int64) any {
	return incrementOp{delta: delta}
}

// DeleteField returns an update value that removes the field at its path.
func DeleteField() any {
	return deleteFieldOp{}
}

// applyUpdates mutates data in place. Keys are dotted paths; intermediate
// objects are created as needed.
func applyUpdates(data map[string]any, updates map[string]any) error {
	for path, value := range updates {
		if path == "" {
			return fmt.Errorf("empty update path")
		}
		if err := applyOne(data, strings.Split(path, "."), value); err != nil {
			return fmt.Errorf("apply %q: %w", path, err)
		}
	}
	return nil
}

func applyOne(m map[string]any, segments []string, value any) error {
	key := segments[0]

	if len(segments) == 1 {
		switch v := value.(type) {
		case incrementOp:
			current, err := asInt(m[key])
			if err != nil {
				return err
			}
			next := current + v.delta
			if next < 0 {
				next = 0
			}
			m[key] = next
		case deleteFieldOp:
			delete(m, key)
		default:
			m[key] = value
		}
		return nil
	}

	child, ok := m[key]
	if !ok || child == nil {
		next := map[string]any{}
		m[key] = next
		return applyOne(next, segments[1:], value)
	}

	next, ok := child.(map[string]any)
	if !ok {
		return fmt.Errorf("segment %q is not an object", key)
	}
	return applyOne(next, segments[1:], value)
}

// asInt coerces the numeric shapes a JSON round trip can produce.
// A missing field counts as zero.
func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("value %T is not numeric", v)
	}
}
