package batch

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK(3, "doc-1")
	if r.ID() != "doc-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Position() != 3 {
		t.Errorf("Position() = %d", r.Position())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("mapper_parsing_exception")
	r := NewError(1, "doc-2", err, []byte(`{"type":"mapper_parsing_exception"}`))
	if r.ID() != "doc-2" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
	if string(r.Detail()) != `{"type":"mapper_parsing_exception"}` {
		t.Errorf("Detail() = %s", r.Detail())
	}
}

func TestNewOutcome(t *testing.T) {
	boom := errors.New("boom")
	o := NewOutcome([]Result{
		NewOK(0, "a"),
		NewError(4, "e", boom, nil),
		NewOK(1, "b"),
		NewError(2, "c", boom, nil),
	})
	if o.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", o.Succeeded)
	}
	if o.Failed() != 2 {
		t.Fatalf("Failed() = %d, want 2", o.Failed())
	}
	if o.Errors[0].Position() != 2 || o.Errors[1].Position() != 4 {
		t.Errorf("errors not sorted by position: %d, %d", o.Errors[0].Position(), o.Errors[1].Position())
	}
}

func TestNewOutcome_Empty(t *testing.T) {
	o := NewOutcome(nil)
	if o.Succeeded != 0 || o.Failed() != 0 {
		t.Errorf("got %d/%d", o.Succeeded, o.Failed())
	}
}

func TestResponse_ErrorSample(t *testing.T) {
	resp := Response{Errors: true, Items: []Ack{
		{ID: "a", Status: 201},
		{ID: "b", Status: 400, Error: json.RawMessage(`{"reason":"b"}`)},
		{ID: "c", Status: 400, Error: json.RawMessage(`{"reason":"c"}`)},
		{ID: "d", Status: 201},
		{ID: "e", Status: 400, Error: json.RawMessage(`{"reason":"e"}`)},
		{ID: "f", Status: 400, Error: json.RawMessage(`{"reason":"f"}`)},
	}}

	sample := resp.ErrorSample(3)
	if len(sample) != 3 {
		t.Fatalf("sample = %d, want 3", len(sample))
	}
	if string(sample[0]) != `{"reason":"b"}` || string(sample[2]) != `{"reason":"e"}` {
		t.Errorf("sample = %s", sample)
	}
	if !resp.Items[1].Failed() || resp.Items[0].Failed() {
		t.Error("Failed() mismatch")
	}
}
