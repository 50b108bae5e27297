package repository

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// coerceText converts a path segment or query value to a value of type t.
// Numbers and booleans are read as JSON literals, everything else as a JSON
// string, so custom types decode the same way they do in request bodies.
// Only strings may carry surrounding whitespace.
func coerceText(t reflect.Type, raw string) (any, error) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.String && strings.TrimSpace(raw) != raw {
		return nil, ErrInvalidValue
	}

	var doc []byte
	switch base.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		if raw == "null" && !nullable(t) {
			return nil, ErrInvalidValue
		}
		doc = []byte(raw)
	case reflect.String:
		doc, _ = json.Marshal(raw)
	default:
		if raw == "null" {
			doc = []byte(raw)
		} else {
			doc, _ = json.Marshal(raw)
		}
	}

	return decodeInto(t, doc)
}

// coerceJSON converts a decoded JSON body value to a value of type t.
func coerceJSON(t reflect.Type, raw any) (any, error) {
	if raw == nil {
		if !nullable(t) {
			return nil, ErrInvalidValue
		}
		return nil, nil
	}

	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	return decodeInto(t, doc)
}

func decodeInto(t reflect.Type, doc []byte) (any, error) {
	ptr := reflect.New(t)
	if err := json.Unmarshal(doc, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return plain(ptr.Elem().Interface()), nil
}

// plain dereferences pointers so that nil becomes SQL NULL and everything
// else is bound by value.
func plain(value any) any {
	v := reflect.ValueOf(value)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Slice && v.IsNil() {
		return nil
	}
	return v.Interface()
}

func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// jsonName returns the name encoding/json uses for the field, or "" when the
// field is not serialized.
func jsonName(sf reflect.StructField) string {
	if !sf.IsExported() {
		return ""
	}
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}
