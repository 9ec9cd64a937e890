// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlfetch

import (
	"github.com/canonical/sqlfetch/internal/typeinfo"
)

// M is a convenience type for decoding a row without declaring a struct:
// every column of the row becomes a key. M is not a special type, any named
// map type with string keys can be used with sqlfetch.
//
// Example:
//
//	rows, err := sqlfetch.AllAs[sqlfetch.M](ctx, db.Query("SELECT id, name FROM planet"))
type M map[string]any

// DecodeError describes a failure to decode a result row into a Go value.
// It carries the target type and, where the failure is column-specific, the
// name of the column at fault. Retrieve it with errors.As.
type DecodeError = typeinfo.DecodeError

// RowDecoder can be implemented by a type to take full control of its own
// decoding. [DecodeRow] uses it in preference to reflection.
type RowDecoder interface {
	// DecodeRow fills the receiver from the columns of r.
	DecodeRow(r Row) error
}

// DecodeRow constructs a value of type T from the columns of r.
//
// T may implement [RowDecoder], be a struct whose fields carry "db" tags
// naming the columns they decode from, or be a map with string keys such as
// [M]. For struct targets every tagged field is required: a missing column,
// or a column whose value does not fit the field's type, results in a
// [DecodeError].
func DecodeRow[T any](r Row) (T, error) {
	var target T
	if dec, ok := any(&target).(RowDecoder); ok {
		if err := dec.DecodeRow(r); err != nil {
			var zero T
			return zero, err
		}
		return target, nil
	}
	if err := typeinfo.Decode(&target, r); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}
