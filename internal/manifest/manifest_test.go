package manifest

import (
	"testing"

	"github.com/blackcoderx/aperture/internal/cachedspec"
)

func TestBuildGroupsByEffectiveGroup(t *testing.T) {
	m := Build(sampleSpec())
	if m.Name != "petstore" || m.Version != "1.0.0" {
		t.Fatalf("got %+v", m)
	}
	if len(m.Groups) != 2 {
		t.Fatalf("got %d groups, want 2 (Pets, Orders)", len(m.Groups))
	}
	if m.Groups[0].Name != "pets" || len(m.Groups[0].Commands) != 2 {
		t.Fatalf("got %+v", m.Groups[0])
	}
	if m.Groups[1].Name != "orders" || len(m.Groups[1].Commands) != 1 {
		t.Fatalf("got %+v", m.Groups[1])
	}
}

func TestBuildCommandInfoFields(t *testing.T) {
	m := Build(sampleSpec())
	create := m.Groups[0].Commands[1]
	if create.Name != "create-pet" || create.RequestBody == nil || !create.RequestBody.Required {
		t.Fatalf("got %+v", create)
	}
	if len(create.Security) != 1 || create.Security[0] != "api_key" {
		t.Fatalf("got %+v", create.Security)
	}
}

func TestBuildIncludesSecuritySchemesAndSkipped(t *testing.T) {
	m := Build(sampleSpec())
	if len(m.SecuritySchemes) != 1 || m.SecuritySchemes[0].EnvVar != "PETSTORE_API_KEY" {
		t.Fatalf("got %+v", m.SecuritySchemes)
	}
	if len(m.Skipped) != 1 || m.Skipped[0].Reason != "unsupported content type" {
		t.Fatalf("got %+v", m.Skipped)
	}
}

func TestBuildOverviewCountsAndTags(t *testing.T) {
	o := BuildOverview(sampleSpec())
	if o.OperationCount != 3 || o.SkippedCount != 1 {
		t.Fatalf("got %+v", o)
	}
	if len(o.Tags) != 2 || o.Tags[0] != "pets" || o.Tags[1] != "orders" {
		t.Fatalf("got %+v", o.Tags)
	}
}

func TestOverviewDescribe(t *testing.T) {
	o := BuildOverview(sampleSpec())
	desc := o.Describe()
	want := "petstore (v1.0.0): 3 operations across 2 tags (pets, orders); 1 endpoints skipped"
	if desc != want {
		t.Fatalf("got %q, want %q", desc, want)
	}
}

func TestSearchMatchesSummaryCaseInsensitive(t *testing.T) {
	results := Search("petstore", sampleSpec(), "ORDER")
	if len(results) != 1 || results[0].Name != "get-order" {
		t.Fatalf("got %+v", results)
	}
}

func TestSearchMatchesPath(t *testing.T) {
	results := Search("petstore", sampleSpec(), "/pets")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
}

func TestSearchNoMatch(t *testing.T) {
	if results := Search("petstore", sampleSpec(), "nonexistent-xyz"); len(results) != 0 {
		t.Fatalf("got %+v", results)
	}
}

func sampleSpec() *cachedspec.Spec {
	return &cachedspec.Spec{
		Name:    "petstore",
		Version: "1.0.0",
		BaseURL: "https://api.petstore.example.com",
		Commands: []cachedspec.Command{
			{
				Tag: "Pets", OperationID: "listPets", Summary: "List all pets",
				Method: "get", Path: "/pets",
				Parameters: []cachedspec.Parameter{{Name: "limit", In: cachedspec.InQuery, Type: cachedspec.TypeInteger}},
			},
			{
				Tag: "Pets", OperationID: "createPet", Summary: "Create a pet",
				Method: "post", Path: "/pets",
				RequestBody: &cachedspec.RequestBody{ContentType: "application/json", Required: true},
				Security:    []string{"api_key"},
			},
			{
				Tag: "Orders", OperationID: "getOrder", Summary: "Fetch an order by id",
				Method: "get", Path: "/orders/{id}",
			},
		},
		SecuritySchemes: map[string]cachedspec.SecurityScheme{
			"api_key": {Kind: cachedspec.SchemeAPIKey, Secret: &cachedspec.SecretBinding{Source: "env", Name: "PETSTORE_API_KEY"}},
		},
		Skipped: []cachedspec.SkippedEndpoint{
			{Path: "/pets/{id}/upload", Method: "post", ContentType: "multipart/form-data", Reason: "unsupported content type"},
		},
	}
}
