package batchfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blackcoderx/aperture/internal/apperr"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadJSONBatchFile(t *testing.T) {
	path := writeTemp(t, "batch.json", `{
		"metadata": {"note": "smoke test"},
		"operations": [
			{"id": "create", "args": ["petstore", "pets", "create-pet"], "capture": {"id": ".id"}},
			{"args": ["petstore", "pets", "get-pet", "--id", "{{id}}"], "depends_on": ["create"]}
		]
	}`)

	ops, meta, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("got %d ops", len(ops))
	}
	if ops[0].ID != "create" || ops[0].Capture["id"] != ".id" {
		t.Fatalf("got %+v", ops[0])
	}
	if len(ops[1].DependsOn) != 1 || ops[1].DependsOn[0] != "create" {
		t.Fatalf("got %+v", ops[1])
	}
	if meta["note"] != "smoke test" {
		t.Fatalf("got %+v", meta)
	}
}

func TestLoadYAMLBatchFile(t *testing.T) {
	path := writeTemp(t, "batch.yaml", `
operations:
  - id: create
    args: [petstore, pets, create-pet]
    retry: 3
    retry_delay: 500ms
    force_retry: true
`)

	ops, _, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d ops", len(ops))
	}
	if ops[0].Retry != 3 || ops[0].RetryDelay != "500ms" || !ops[0].ForceRetry {
		t.Fatalf("got %+v", ops[0])
	}
}

func TestLoadRejectsEmptyOperations(t *testing.T) {
	path := writeTemp(t, "empty.json", `{"operations": []}`)
	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for a batch file with no operations")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.Validation {
		t.Fatalf("got kind %v, want Validation", kind)
	}
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.Load {
		t.Fatalf("got kind %v, want Load", kind)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeTemp(t, "bad.json", `{not valid json`)
	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
