// Package codec converts document fields to and from their stored JSON form.
package codec

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/heavy-duty/docstate/docstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode resolves server timestamps with now and marshals the fields into a JSON object.
// A nil map encodes as an empty object.
func Encode(fields docstore.Fields, now time.Time) ([]byte, error) {
	if fields == nil {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(docstore.ResolveServerTimestamps(fields, now.UTC()))
	if err != nil {
		return nil, errors.Join(docstore.ErrEncodingFieldsFailed, err)
	}

	return data, nil
}

// Decode unmarshals a stored JSON object. Numbers decode as float64 and times as RFC 3339 strings.
func Decode(data []byte) (docstore.Fields, error) {
	fields := docstore.Fields{}

	if len(data) == 0 {
		return fields, nil
	}

	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Join(docstore.ErrDecodingFieldsFailed, err)
	}

	return fields, nil
}

// Normalize round-trips fields through their stored JSON form.
func Normalize(fields docstore.Fields, now time.Time) (docstore.Fields, error) {
	data, err := Encode(fields, now)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// EncodeValue marshals one constraint value.
func EncodeValue(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Join(docstore.ErrEncodingFieldsFailed, err)
	}

	return data, nil
}

// NormalizeValue round-trips one value through JSON, yielding string, float64, bool, nil,
// map[string]any or []any.
func NormalizeValue(value any) (any, error) {
	data, err := EncodeValue(value)
	if err != nil {
		return nil, err
	}

	var normalized any
	if err = json.Unmarshal(data, &normalized); err != nil {
		return nil, errors.Join(docstore.ErrDecodingFieldsFailed, err)
	}

	return normalized, nil
}

// ConstraintDocument builds the JSON object {"field": value} used for containment matching.
func ConstraintDocument(constraint docstore.Constraint) ([]byte, error) {
	return EncodeValue(map[string]any{constraint.Field: constraint.Value})
}

// Matches reports whether the decoded fields satisfy every equality constraint. Both sides are
// compared in their JSON form so that e.g. int 3 equals a stored 3.0.
func Matches(fields docstore.Fields, constraints []docstore.Constraint) bool {
	for _, constraint := range constraints {
		stored, ok := fields[constraint.Field]
		if !ok {
			return false
		}

		want, err := EncodeValue(constraint.Value)
		if err != nil {
			return false
		}

		got, err := EncodeValue(stored)
		if err != nil {
			return false
		}

		if !jsonEqual(want, got) {
			return false
		}
	}

	return true
}

func jsonEqual(a, b []byte) bool {
	var left, right any
	if json.Unmarshal(a, &left) != nil || json.Unmarshal(b, &right) != nil {
		return false
	}

	leftNormalized, _ := json.Marshal(left)
	rightNormalized, _ := json.Marshal(right)

	return string(leftNormalized) == string(rightNormalized)
}
