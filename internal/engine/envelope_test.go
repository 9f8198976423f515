package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEnvelopeExclusivity(t *testing.T) {
	ok := OK(map[string]any{"result": 1})
	if !ok.Success || ok.Data == nil || ok.Error != "" {
		t.Errorf("OK envelope malformed: %+v", ok)
	}

	fail := Fail(errors.New("boom"))
	if fail.Success || fail.Data != nil || fail.Error != "boom" {
		t.Errorf("Fail envelope malformed: %+v", fail)
	}
}

func TestEnvelopeJSON(t *testing.T) {
	env := Fail(&MalformedParametersError{Detail: "unexpected end of JSON input"})

	var decoded map[string]any
	if err := json.Unmarshal([]byte(env.JSON()), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["success"] != false {
		t.Errorf("success: got %v", decoded["success"])
	}
	if decoded["error"] != "Invalid parameter JSON: unexpected end of JSON input" {
		t.Errorf("error: got %q", decoded["error"])
	}
	if _, present := decoded["data"]; present {
		t.Error("data must be absent on failure")
	}
}

func TestEnvelopeRowsAffected(t *testing.T) {
	env := OKRows(3)
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["rows_affected"] != float64(3) {
		t.Errorf("rows_affected: got %v", decoded["rows_affected"])
	}
}
