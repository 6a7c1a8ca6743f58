package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// NullableString carries an explicit null through a patch.
// A nil *NullableString in a patch means "leave unchanged".
type NullableString struct {
	String string
	IsNull bool
}

// Value implements the driver.Valuer interface for database/sql
func (ns NullableString) Value() (driver.Value, error) {
	if ns.IsNull {
		return nil, nil
	}
	return ns.String, nil
}

// Ptr converts to the *string representation used on entities
func (ns NullableString) Ptr() *string {
	if ns.IsNull {
		return nil
	}
	s := ns.String
	return &s
}

func (ns NullableString) MarshalJSON() ([]byte, error) {
	if ns.IsNull {
		return []byte("null"), nil
	}
	return json.Marshal(ns.String)
}

func (ns *NullableString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ns = NullableString{IsNull: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*ns = NullableString{String: s}
	return nil
}

// NullableTime is the time.Time counterpart of NullableString
type NullableTime struct {
	Time   time.Time
	IsNull bool
}

func (nt NullableTime) Value() (driver.Value, error) {
	if nt.IsNull {
		return nil, nil
	}
	return nt.Time, nil
}

func (nt NullableTime) Ptr() *time.Time {
	if nt.IsNull {
		return nil
	}
	t := nt.Time
	return &t
}

func (nt NullableTime) MarshalJSON() ([]byte, error) {
	if nt.IsNull {
		return []byte("null"), nil
	}
	return json.Marshal(nt.Time)
}

func (nt *NullableTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*nt = NullableTime{IsNull: true}
		return nil
	}
	t, err := ParseTime(gjson.ParseBytes(data).String())
	if err != nil {
		return err
	}
	*nt = NullableTime{Time: t}
	return nil
}

// ParseTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. The
// result is always UTC.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected RFC 3339 or YYYY-MM-DD", value)
}

func parseString(result gjson.Result, field string, target **string) error {
	if value := result.Get(field); value.Exists() {
		if value.Type != gjson.String {
			return NewValidationError(fmt.Sprintf("%s must be a string", field))
		}
		s := value.String()
		*target = &s
	}
	return nil
}

func parseNullableString(result gjson.Result, field string, target **NullableString) error {
	if value := result.Get(field); value.Exists() {
		switch value.Type {
		case gjson.Null:
			*target = &NullableString{IsNull: true}
		case gjson.String:
			*target = &NullableString{String: value.String()}
		default:
			return NewValidationError(fmt.Sprintf("%s must be a string or null", field))
		}
	}
	return nil
}

func parseNullableTime(result gjson.Result, field string, target **NullableTime) error {
	if value := result.Get(field); value.Exists() {
		switch value.Type {
		case gjson.Null:
			*target = &NullableTime{IsNull: true}
		case gjson.String:
			t, err := ParseTime(value.String())
			if err != nil {
				return NewValidationError(fmt.Sprintf("%s: %v", field, err))
			}
			*target = &NullableTime{Time: t}
		default:
			return NewValidationError(fmt.Sprintf("%s must be a date string or null", field))
		}
	}
	return nil
}

func parseFloat(result gjson.Result, field string, target **float64) error {
	if value := result.Get(field); value.Exists() {
		if value.Type != gjson.Number {
			return NewValidationError(fmt.Sprintf("%s must be a number", field))
		}
		f := value.Float()
		*target = &f
	}
	return nil
}

func parseInt(result gjson.Result, field string, target **int) error {
	if value := result.Get(field); value.Exists() {
		if value.Type != gjson.Number || value.Float() != float64(value.Int()) {
			return NewValidationError(fmt.Sprintf("%s must be an integer", field))
		}
		i := int(value.Int())
		*target = &i
	}
	return nil
}

func parseBool(result gjson.Result, field string, target **bool) error {
	if value := result.Get(field); value.Exists() {
		if value.Type != gjson.True && value.Type != gjson.False {
			return NewValidationError(fmt.Sprintf("%s must be a boolean", field))
		}
		b := value.Bool()
		*target = &b
	}
	return nil
}

// parseObject rejects anything that is not a JSON object
func parseObject(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, NewValidationError("invalid JSON body")
	}
	result := gjson.ParseBytes(data)
	if !result.IsObject() {
		return gjson.Result{}, NewValidationError("request body must be a JSON object")
	}
	return result, nil
}

// applyNullable folds a patch field into an entity field
func applyNullable(dst **string, patch *NullableString) {
	if patch != nil {
		*dst = patch.Ptr()
	}
}

func applyNullableTime(dst **time.Time, patch *NullableTime) {
	if patch != nil {
		*dst = patch.Ptr()
	}
}
