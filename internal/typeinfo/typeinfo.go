// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// Field represents a single tagged field from a struct type.
type Field struct {
	Type reflect.Type

	// Name is the name of the struct field.
	Name string

	// Index of this field in the structure.
	Index int
}

// Info represents reflected information about a struct type.
type Info struct {
	Type reflect.Type

	// TagToField relates "db" tag names to fields.
	TagToField map[string]Field

	// Tags holds the tag names in sorted order so that iteration over the
	// fields of a type is deterministic.
	Tags []string
}

// GetTypeInfo returns the Info of a given value's type, generating and
// caching it as required. The value must be a struct or a pointer to one.
func GetTypeInfo(value any) (*Info, error) {
	if value == (any)(nil) {
		return nil, fmt.Errorf("cannot reflect nil value")
	}

	v := reflect.Indirect(reflect.ValueOf(value))

	cacheMutex.RLock()
	info, found := cache[v.Type()]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(v)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[v.Type()] = info
	cacheMutex.Unlock()

	return info, nil
}

// generate produces and returns the reflection information for the input
// reflect.Value that sqlfetch needs to decode rows into it.
func generate(value reflect.Value) (*Info, error) {
	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("can only reflect struct type, got %s", value.Kind())
	}

	info := Info{
		TagToField: make(map[string]Field),
		Type:       value.Type(),
	}

	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		// Fields without a "db" tag are outside of sqlfetch's remit.
		tag := field.Tag.Get("db")
		if tag == "" {
			continue
		}
		tag, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("cannot parse tag for field %s.%s: %s", typ.Name(), field.Name, err)
		}
		if !field.IsExported() {
			return nil, fmt.Errorf("field %q of struct %s is not exported", field.Name, typ.Name())
		}
		info.TagToField[tag] = Field{
			Name:  field.Name,
			Index: i,
			Type:  field.Type,
		}
		info.Tags = append(info.Tags, tag)
	}

	sort.Strings(info.Tags)
	return &info, nil
}

// validColNameRx matches the column names we accept in "db" tags.
var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input tag string and returns the column name it holds.
// A trailing "omitempty" option is accepted for compatibility with tags
// shared with input-binding layers, and ignored: it has no meaning when
// decoding results.
func parseTag(tag string) (string, error) {
	options := strings.Split(tag, ",")

	if len(options) > 2 {
		return "", fmt.Errorf("too many options in 'db' tag")
	}
	if len(options) == 2 && strings.ToLower(options[1]) != "omitempty" {
		return "", fmt.Errorf("unexpected tag value %q", options[1])
	}

	name := options[0]
	if len(name) == 0 {
		return "", fmt.Errorf("empty db tag")
	}

	if !validColNameRx.MatchString(name) {
		return "", fmt.Errorf("invalid column name in 'db' tag: %q", name)
	}

	return name, nil
}
