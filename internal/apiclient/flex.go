package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString decodes a JSON string, number or bool into text and records
// whether the field was present and non-null.
type FlexString struct {
	Value string
	Valid bool
}

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = FlexString{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString{Value: s, Valid: true}
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString{Value: fmt.Sprint(v), Valid: true}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("flex string: unsupported value %s", b)
		}
		*f = FlexString{Value: n.String(), Valid: true}
	}
	return nil
}

// Ptr returns nil when absent.
func (f FlexString) Ptr() *string {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Coalesce returns the first present value, like JavaScript's ?? chain.
func Coalesce(values ...FlexString) (string, bool) {
	for _, v := range values {
		if v.Valid {
			return v.Value, true
		}
	}
	return "", false
}

// FirstNonEmpty returns the first present value that is not "", like a || chain.
func FirstNonEmpty(values ...FlexString) (string, bool) {
	for _, v := range values {
		if v.Valid && v.Value != "" {
			return v.Value, true
		}
	}
	return "", false
}
