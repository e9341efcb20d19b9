package apiclient

import (
	"encoding/json"
	"testing"
)

func TestFlexStringPresence(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexString `json:"d"`
		E FlexString `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"a":"x","b":42,"c":null,"d":""}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.A.Valid || v.A.Value != "x" {
		t.Fatalf("a: %+v", v.A)
	}
	if !v.B.Valid || v.B.Value != "42" {
		t.Fatalf("numbers render in decimal: %+v", v.B)
	}
	if v.C.Valid || v.E.Valid {
		t.Fatalf("null and missing must be absent")
	}
	if !v.D.Valid {
		t.Fatalf("empty string is present")
	}

	if got, ok := Coalesce(v.C, v.D, v.A); !ok || got != "" {
		t.Fatalf("coalesce should stop at the empty string, got %q", got)
	}
	if got, ok := FirstNonEmpty(v.C, v.D, v.A); !ok || got != "x" {
		t.Fatalf("first non-empty: got %q", got)
	}
	if v.E.Ptr() != nil || *v.A.Ptr() != "x" {
		t.Fatalf("unexpected Ptr results")
	}
}
