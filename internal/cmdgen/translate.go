package cmdgen

import (
	"net/url"
	"strings"

	"github.com/blackcoderx/aperture/internal/cachedspec"
	"github.com/blackcoderx/aperture/internal/executor"
)

// Translate builds the path/query/header/cookie/body shape of an
// OperationCall from a Command and its parsed Values (spec.md §2 "Argument
// Translator"). BaseURL and Auth are filled in by the caller after the URL
// Resolver and Auth Binder run.
func Translate(c cachedspec.Command, values Values) executor.OperationCall {
	call := executor.OperationCall{
		OperationID: c.OperationID,
		Method:      strings.ToUpper(c.Method),
		Path:        c.Path,
	}

	for _, p := range c.Parameters {
		v, ok := values.Params[p.Name]
		if !ok {
			continue
		}
		switch p.In {
		case cachedspec.InPath:
			call.Path = strings.ReplaceAll(call.Path, "{"+p.Name+"}", url.PathEscape(v))
		case cachedspec.InQuery:
			if values.Set[p.Name] || p.Type == cachedspec.TypeBoolean {
				call.Query = append(call.Query, executor.KV{Key: p.Name, Value: v})
			}
		case cachedspec.InHeader:
			if values.Set[p.Name] || p.Type == cachedspec.TypeBoolean {
				call.Headers = append(call.Headers, executor.KV{Key: p.Name, Value: v})
			}
		case cachedspec.InCookie:
			if values.Set[p.Name] || p.Type == cachedspec.TypeBoolean {
				call.Cookies = append(call.Cookies, executor.KV{Key: p.Name, Value: v})
			}
		}
	}

	if values.Body != "" {
		call.Body = []byte(values.Body)
	}

	return call
}
