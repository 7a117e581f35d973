package patch

import (
	"strings"
	"testing"
)

func TestNew_Fields(t *testing.T) {
	p, err := New(map[string]any{"riskFactors": "FX exposure"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Fields()["riskFactors"] != "FX exposure" {
		t.Errorf("Fields() = %v", p.Fields())
	}
	doc, ok := p.Doc()["doc"].(map[string]any)
	if !ok {
		t.Fatalf("Doc() = %v, want doc wrapper", p.Doc())
	}
	if doc["riskFactors"] != "FX exposure" {
		t.Errorf("doc = %v", doc)
	}
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "at least one field") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_RejectsID(t *testing.T) {
	_, err := New(map[string]any{"memoId": "other"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "memoId") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	in := map[string]any{"region": "EU"}
	p, err := New(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in["region"] = "US"
	if p.Fields()["region"] != "EU" {
		t.Errorf("region = %v, want EU", p.Fields()["region"])
	}
	out := p.Fields()
	out["region"] = "APAC"
	if p.Fields()["region"] != "EU" {
		t.Errorf("Fields() leaked internal map")
	}
}
