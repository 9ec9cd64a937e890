// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"database/sql"
	"fmt"
	"reflect"
)

// Row is the view of a result row the decoder needs. It is satisfied by
// sqlfetch.Row.
type Row interface {
	// Columns returns the column names of the row in result order.
	Columns() []string
	// Value returns the value of the named column and reports whether the
	// column is present.
	Value(name string) (any, bool)
}

// DecodeError reports a failure to decode a result row into a Go value. It
// identifies the target type and, when the failure is column-specific, the
// column at fault.
type DecodeError struct {
	// Type is the target type that could not be decoded.
	Type reflect.Type
	// Column is the column at fault, or empty if the failure concerns the
	// target type as a whole.
	Column string
	// Reason describes the failure.
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("cannot decode column %q into %s: %s", e.Column, e.Type, e.Reason)
	}
	return fmt.Sprintf("cannot decode row into %s: %s", e.Type, e.Reason)
}

var scannerInterface = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
var byteSliceType = reflect.TypeOf([]byte(nil))

// Decode fills target from the columns of row. target must be a non-nil
// pointer to a struct with "db" tags or to a map with string keys. Every
// tagged field of a struct target is required: a missing column, or a column
// value that cannot be converted to the field's type, results in a
// DecodeError.
func Decode(target any, row Row) error {
	if target == nil {
		return fmt.Errorf("cannot decode into nil target")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("cannot decode into %s, need non-nil pointer", v.Kind())
	}
	v = v.Elem()
	switch v.Kind() {
	case reflect.Struct:
		return decodeStruct(v, row)
	case reflect.Map:
		return decodeMap(v, row)
	default:
		return &DecodeError{Type: v.Type(), Reason: fmt.Sprintf("unsupported target kind %s", v.Kind())}
	}
}

func decodeStruct(v reflect.Value, row Row) error {
	info, err := GetTypeInfo(v.Interface())
	if err != nil {
		return err
	}
	if len(info.Tags) == 0 {
		return &DecodeError{Type: info.Type, Reason: `struct has no "db" tags`}
	}
	for _, tag := range info.Tags {
		field := info.TagToField[tag]
		val, ok := row.Value(tag)
		if !ok {
			return &DecodeError{Type: info.Type, Column: tag, Reason: "column not found in result set"}
		}
		if err := setValue(v.Field(field.Index), val); err != nil {
			return &DecodeError{Type: info.Type, Column: tag, Reason: err.Error()}
		}
	}
	return nil
}

func decodeMap(v reflect.Value, row Row) error {
	t := v.Type()
	if t.Key().Kind() != reflect.String {
		return &DecodeError{Type: t, Reason: "map key type must be string"}
	}
	if v.IsNil() {
		v.Set(reflect.MakeMap(t))
	}
	elemType := t.Elem()
	for _, col := range row.Columns() {
		key := reflect.ValueOf(col).Convert(t.Key())
		val, _ := row.Value(col)
		if val == nil {
			v.SetMapIndex(key, reflect.Zero(elemType))
			continue
		}
		// The driver may reuse []byte buffers between rows.
		if b, ok := val.([]byte); ok {
			val = append([]byte(nil), b...)
		}
		elem := reflect.New(elemType).Elem()
		if err := setValue(elem, val); err != nil {
			return &DecodeError{Type: t, Column: col, Reason: err.Error()}
		}
		v.SetMapIndex(key, elem)
	}
	return nil
}

// setValue converts a driver column value into dst. dst must be
// addressable. Drivers deliver a small set of native types (int64, float64,
// bool, []byte, string, time.Time and nil) so the conversions below cover
// direct assignment, sql.Scanner targets, numeric widening, byte/string
// equivalence, pointer targets and NULL.
func setValue(dst reflect.Value, val any) error {
	t := dst.Type()
	if val == nil {
		// NULL zeroes the target, making pointer fields nil.
		dst.Set(reflect.Zero(t))
		return nil
	}

	// Copy []byte into []byte targets rather than aliasing the driver's
	// buffer, which is only valid until the next row.
	if b, ok := val.([]byte); ok && t == byteSliceType {
		dst.SetBytes(append([]byte(nil), b...))
		return nil
	}

	v := reflect.ValueOf(val)
	if v.Type().AssignableTo(t) {
		dst.Set(v)
		return nil
	}

	if reflect.PointerTo(t).Implements(scannerInterface) {
		return dst.Addr().Interface().(sql.Scanner).Scan(val)
	}

	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		dst.Set(v.Convert(t))
		return nil
	}

	switch b := val.(type) {
	case []byte:
		if t.Kind() == reflect.String {
			dst.SetString(string(b))
			return nil
		}
	case string:
		if t == byteSliceType {
			dst.SetBytes([]byte(b))
			return nil
		}
	case int64:
		// SQLite has no boolean storage class.
		if t.Kind() == reflect.Bool {
			dst.SetBool(b != 0)
			return nil
		}
	}

	if t.Kind() == reflect.Pointer {
		elem := reflect.New(t.Elem())
		if err := setValue(elem.Elem(), val); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	return fmt.Errorf("value of type %s is not assignable to %s", v.Type(), t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
