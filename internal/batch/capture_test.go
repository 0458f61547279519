package batch

import "testing"

func TestExtractIdentity(t *testing.T) {
	got, err := Extract([]byte(`{"id":"beat-1"}`), ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"id":"beat-1"}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractField(t *testing.T) {
	got, err := Extract([]byte(`{"id":"beat-1","count":3}`), ".id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "beat-1" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractArrayIndex(t *testing.T) {
	got, err := Extract([]byte(`{"items":[{"id":"a"},{"id":"b"}]}`), ".items.[1].id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "b" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractNumberPreservesIntegerForm(t *testing.T) {
	got, err := Extract([]byte(`{"count":42}`), ".count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "42" {
		t.Fatalf("got %q, want integer textual form", got)
	}
}

func TestExtractNullIsLiteralNull(t *testing.T) {
	got, err := Extract([]byte(`{"value":null}`), ".value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "null" {
		t.Fatalf("got %q, want the literal string \"null\"", got)
	}
}

func TestExtractOutOfRangeIndex(t *testing.T) {
	_, err := Extract([]byte(`{"items":[1,2]}`), ".items.[5]")
	if err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestExtractMissingFieldYieldsNull(t *testing.T) {
	got, err := Extract([]byte(`{"id":"x"}`), ".missing")
	if err != nil {
		t.Fatalf("a missing object key must yield null, not error: %v", err)
	}
	if got != "null" {
		t.Fatalf("got %q, want the literal string \"null\"", got)
	}
}

func TestExtractObjectReencodesCompactJSON(t *testing.T) {
	got, err := Extract([]byte(`{"nested":{"a":1,"b":2}}`), ".nested")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a":1,"b":2}` {
		t.Fatalf("got %q", got)
	}
}
