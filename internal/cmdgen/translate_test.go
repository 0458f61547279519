package cmdgen

import (
	"testing"

	"github.com/blackcoderx/aperture/internal/cachedspec"
)

func TestTranslatePathSubstitution(t *testing.T) {
	c := cachedspec.Command{
		Method: "get",
		Path:   "/widgets/{id}",
		Parameters: []cachedspec.Parameter{
			{Name: "id", In: cachedspec.InPath, Type: cachedspec.TypeString},
		},
	}
	call := Translate(c, Values{Params: map[string]string{"id": "42"}, Set: map[string]bool{"id": true}})
	if call.Path != "/widgets/42" {
		t.Fatalf("got %q", call.Path)
	}
	if call.Method != "GET" {
		t.Fatalf("method not upper-cased: %q", call.Method)
	}
}

func TestTranslatePathSubstitutionEscapesReservedCharacters(t *testing.T) {
	c := cachedspec.Command{
		Method: "get",
		Path:   "/files/{name}",
		Parameters: []cachedspec.Parameter{
			{Name: "name", In: cachedspec.InPath, Type: cachedspec.TypeString},
		},
	}
	call := Translate(c, Values{Params: map[string]string{"name": "a/b c"}, Set: map[string]bool{"name": true}})
	if call.Path != "/files/a%2Fb%20c" {
		t.Fatalf("got %q, want the path value URL-escaped", call.Path)
	}
}

func TestTranslateBooleanPathParamLiteral(t *testing.T) {
	c := cachedspec.Command{
		Method: "get",
		Path:   "/widgets/{archived}",
		Parameters: []cachedspec.Parameter{
			{Name: "archived", In: cachedspec.InPath, Type: cachedspec.TypeBoolean},
		},
	}
	call := Translate(c, Values{Params: map[string]string{"archived": "true"}, Set: map[string]bool{}})
	if call.Path != "/widgets/true" {
		t.Fatalf("got %q, want the literal boolean substituted into the path", call.Path)
	}
}

func TestTranslateBooleanQueryAlwaysIncludedRegardlessOfSet(t *testing.T) {
	c := cachedspec.Command{
		Method: "get",
		Path:   "/widgets",
		Parameters: []cachedspec.Parameter{
			{Name: "verbose", In: cachedspec.InQuery, Type: cachedspec.TypeBoolean},
		},
	}
	call := Translate(c, Values{Params: map[string]string{"verbose": "false"}, Set: map[string]bool{}})
	if len(call.Query) != 1 || call.Query[0].Value != "false" {
		t.Fatalf("boolean query params must always be included, even when unset: %+v", call.Query)
	}
}

func TestTranslateNonBooleanQueryOmittedWhenUnset(t *testing.T) {
	c := cachedspec.Command{
		Method: "get",
		Path:   "/widgets",
		Parameters: []cachedspec.Parameter{
			{Name: "filter", In: cachedspec.InQuery, Type: cachedspec.TypeString, Default: "all"},
		},
	}
	call := Translate(c, Values{Params: map[string]string{"filter": "all"}, Set: map[string]bool{}})
	if len(call.Query) != 0 {
		t.Fatalf("a defaulted, not-explicitly-set string query param should be omitted: %+v", call.Query)
	}
}

func TestTranslateRequestBody(t *testing.T) {
	c := cachedspec.Command{Method: "post", Path: "/widgets", RequestBody: &cachedspec.RequestBody{ContentType: "application/json"}}
	call := Translate(c, Values{Body: `{"name":"x"}`})
	if string(call.Body) != `{"name":"x"}` {
		t.Fatalf("got %q", call.Body)
	}
}
