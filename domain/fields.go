package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/heavy-duty/docstate/docstore"
)

var ErrInvalidField = errors.New("invalid document field")

// fieldReader reads typed values out of document data and keeps the first type mismatch.
type fieldReader struct {
	data docstore.Fields
	err  error
}

func read(data docstore.Fields) *fieldReader {
	return &fieldReader{data: data}
}

func (r *fieldReader) fail(key string, value any, expected string) {
	if r.err == nil {
		r.err = errors.Join(ErrInvalidField, fmt.Errorf("%s: expected %s, got %T", key, expected, value))
	}
}

func (r *fieldReader) str(key string) string {
	value, _ := r.optStr(key)
	if value == nil {
		return ""
	}

	return *value
}

func (r *fieldReader) optStr(key string) (*string, bool) {
	raw, ok := r.data[key]
	if !ok || raw == nil {
		return nil, ok
	}

	value, isString := raw.(string)
	if !isString {
		r.fail(key, raw, "string")
		return nil, true
	}

	return &value, true
}

func (r *fieldReader) boolean(key string) bool {
	value := r.optBool(key)
	if value == nil {
		return false
	}

	return *value
}

func (r *fieldReader) optBool(key string) *bool {
	raw, ok := r.data[key]
	if !ok || raw == nil {
		return nil
	}

	value, isBool := raw.(bool)
	if !isBool {
		r.fail(key, raw, "bool")
		return nil
	}

	return &value
}

// timestamp accepts time.Time and RFC 3339 strings. A missing or null field yields nil.
func (r *fieldReader) timestamp(key string) *time.Time {
	raw, ok := r.data[key]
	if !ok || raw == nil {
		return nil
	}

	switch value := raw.(type) {
	case time.Time:
		return &value
	case *time.Time:
		return value
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			r.fail(key, raw, "RFC 3339 timestamp")
			return nil
		}

		return &parsed
	default:
		r.fail(key, raw, "timestamp")
		return nil
	}
}

func (r *fieldReader) timeValue(key string) time.Time {
	value := r.timestamp(key)
	if value == nil {
		return time.Time{}
	}

	return *value
}

// nested returns a reader over a map field, or nil when the field is absent.
func (r *fieldReader) nested(key string) *fieldReader {
	raw, ok := r.data[key]
	if !ok || raw == nil {
		return nil
	}

	data, isMap := raw.(docstore.Fields)
	if !isMap {
		r.fail(key, raw, "map")
		return nil
	}

	return &fieldReader{data: data}
}

// merge adopts the first error of a nested reader.
func (r *fieldReader) merge(nested *fieldReader) {
	if nested != nil && nested.err != nil && r.err == nil {
		r.err = nested.err
	}
}

func (r *fieldReader) attributes(key string) []SeasonAttribute {
	raw, ok := r.data[key]
	if !ok || raw == nil {
		return []SeasonAttribute{}
	}

	var items []any
	switch value := raw.(type) {
	case []any:
		items = value
	case []SeasonAttribute:
		return append([]SeasonAttribute{}, value...)
	default:
		r.fail(key, raw, "list")
		return []SeasonAttribute{}
	}

	attributes := make([]SeasonAttribute, 0, len(items))
	for _, item := range items {
		fields, isMap := item.(docstore.Fields)
		if !isMap {
			r.fail(key, item, "attribute map")
			continue
		}

		attr := read(fields)
		attributes = append(attributes, SeasonAttribute{Name: attr.str("name"), Value: attr.str("value")})
		r.merge(attr)
	}

	return attributes
}

// AttributeFields converts attributes into document data.
func AttributeFields(attributes []SeasonAttribute) []any {
	items := make([]any, 0, len(attributes))
	for _, attribute := range attributes {
		items = append(items, docstore.Fields{"name": attribute.Name, "value": attribute.Value})
	}

	return items
}
