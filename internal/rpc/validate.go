package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FieldError reports the first parameter field that failed validation.
// It is returned to the caller before any handler runs.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// FieldFunc checks a single decoded JSON value. A missing field is passed
// as nil.
type FieldFunc func(value any) error

// ObjectValidator maps field names to their checks. Fields not listed are
// ignored.
type ObjectValidator map[string]FieldFunc

// Check validates raw against the field contract. The returned error is
// always a *FieldError.
func (v ObjectValidator) Check(raw json.RawMessage) error {
	var obj map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil || obj == nil {
		return &FieldError{Field: "params", Reason: "should be an object"}
	}
	for name, check := range v {
		if err := check(obj[name]); err != nil {
			return &FieldError{Field: name, Reason: err.Error()}
		}
	}
	return nil
}

func String(value any) error {
	if _, ok := value.(string); !ok {
		return errors.New("should be a string")
	}
	return nil
}

func Bool(value any) error {
	if _, ok := value.(bool); !ok {
		return errors.New("should be a boolean")
	}
	return nil
}

// Number accepts any JSON number.
func Number(value any) error {
	if _, ok := value.(float64); !ok {
		return errors.New("should be a number")
	}
	return nil
}

func StringSlice(value any) error {
	items, ok := value.([]any)
	if !ok {
		return errors.New("should be an array of strings")
	}
	for _, item := range items {
		if _, ok := item.(string); !ok {
			return errors.New("should be an array of strings")
		}
	}
	return nil
}

// Optional wraps a check so that a missing field passes.
func Optional(check FieldFunc) FieldFunc {
	return func(value any) error {
		if value == nil {
			return nil
		}
		return check(value)
	}
}
