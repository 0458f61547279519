package cmdgen

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/cachedspec"
	"github.com/blackcoderx/aperture/internal/executor"
)

func TestValidateUniquenessRejectsReservedGroup(t *testing.T) {
	spec := &cachedspec.Spec{Commands: []cachedspec.Command{
		{DisplayGroup: "config", OperationID: "doThing", Method: "get", Path: "/x"},
	}}
	err := ValidateUniqueness(spec)
	if err == nil {
		t.Fatal("expected an error for a group colliding with a reserved top-level command")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.Configuration {
		t.Fatalf("got kind %v, want Configuration", kind)
	}
}

func TestValidateUniquenessRejectsDuplicateCoordinates(t *testing.T) {
	spec := &cachedspec.Spec{Commands: []cachedspec.Command{
		{Tag: "pets", OperationID: "listPets", Method: "get", Path: "/pets"},
		{Tag: "pets", OperationID: "otherPets", DisplayName: "list-pets", Method: "get", Path: "/pets2"},
	}}
	err := ValidateUniqueness(spec)
	if err == nil {
		t.Fatal("expected an error for duplicate (group, name) coordinates")
	}
}

func TestValidateUniquenessAllowsSharedCoordinateForSameOperation(t *testing.T) {
	spec := &cachedspec.Spec{Commands: []cachedspec.Command{
		{Tag: "pets", OperationID: "listPets", Aliases: []string{"list-pets", "ls"}, Method: "get", Path: "/pets"},
	}}
	if err := ValidateUniqueness(spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKebabCasesUnderscoresSpacesAndCamelCase(t *testing.T) {
	cases := map[string]string{
		"petId":       "pet-id",
		"pet_id":      "pet-id",
		"Pet Id":      "pet-id",
		"already-ok":  "already-ok",
		"UPPER":       "upper",
		"_leading":    "leading",
		"trailing.":   "trailing",
	}
	for in, want := range cases {
		if got := kebab(in); got != want {
			t.Errorf("kebab(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildRejectsDuplicateParameterFlagsAfterKebabCasing(t *testing.T) {
	c := cachedspec.Command{
		OperationID: "op", Method: "get", Path: "/x",
		Parameters: []cachedspec.Parameter{
			{Name: "pet_id", In: cachedspec.InQuery, Type: cachedspec.TypeString},
			{Name: "petId", In: cachedspec.InHeader, Type: cachedspec.TypeString},
		},
	}
	spec := &cachedspec.Spec{Commands: []cachedspec.Command{c}}
	invoke := func(cmd cachedspec.Command, values Values) (*executor.CallResult, error) { return &executor.CallResult{}, nil }
	render := func(cmd *cobra.Command, result *executor.CallResult) error { return nil }
	_, err := Build(spec, Options{}, invoke, render)
	if err == nil {
		t.Fatal("expected an error for colliding parameter flags")
	}
}

func TestBuildLeafPositionalArgsMode(t *testing.T) {
	c := cachedspec.Command{
		OperationID: "getPet", Method: "get", Path: "/pets/{id}",
		Parameters: []cachedspec.Parameter{{Name: "id", In: cachedspec.InPath, Type: cachedspec.TypeString, Required: true}},
	}
	spec := &cachedspec.Spec{Commands: []cachedspec.Command{c}}

	var gotValues Values
	invoke := func(cmd cachedspec.Command, values Values) (*executor.CallResult, error) {
		gotValues = values
		return &executor.CallResult{StatusCode: 200}, nil
	}
	render := func(cmd *cobra.Command, result *executor.CallResult) error { return nil }

	root, err := Build(spec, Options{PositionalArgs: true}, invoke, render)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root.SetArgs([]string{"default", "get-pet", "42"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error executing: %v", err)
	}
	if gotValues.Params["id"] != "42" || !gotValues.Set["id"] {
		t.Fatalf("got %+v", gotValues)
	}
}

func TestBuildLeafFlagModeMissingRequiredParameter(t *testing.T) {
	c := cachedspec.Command{
		OperationID: "getPet", Method: "get", Path: "/pets/{id}",
		Parameters: []cachedspec.Parameter{{Name: "id", In: cachedspec.InQuery, Type: cachedspec.TypeString, Required: true}},
	}
	spec := &cachedspec.Spec{Commands: []cachedspec.Command{c}}
	invoke := func(cmd cachedspec.Command, values Values) (*executor.CallResult, error) {
		return &executor.CallResult{}, nil
	}
	render := func(cmd *cobra.Command, result *executor.CallResult) error { return nil }

	root, err := Build(spec, Options{}, invoke, render)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetArgs([]string{"default", "get-pet"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error when a required flag is missing")
	}
}
