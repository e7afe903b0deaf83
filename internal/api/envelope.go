package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeCollection normalizes a collection body to a slice of objects.
// The backend answers either with a bare array or with {"data": [...]}.
func DecodeCollection(body []byte) ([]map[string]any, error) {
	raw, err := decodeAny(body)
	if err != nil {
		return nil, err
	}

	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		data, ok := v["data"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: object without data array", ErrUnexpectedShape)
		}
		list = data
	case nil:
		return []map[string]any{}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedShape, raw)
	}

	items := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T", ErrUnexpectedShape, i, entry)
		}
		items = append(items, obj)
	}
	return items, nil
}

// DecodeObject decodes a single object, unwrapping a lone {"data": {...}}.
func DecodeObject(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	raw, err := decodeAny(body)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedShape, raw)
	}
	if inner, ok := obj["data"].(map[string]any); ok && len(obj) == 1 {
		return inner, nil
	}
	return obj, nil
}

func decodeAny(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return raw, nil
}
