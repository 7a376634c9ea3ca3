package nuget

import (
	"bytes"
	"encoding/json"
	"strings"

	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
)

// Normalize rewrites every object key that starts with "@" to start with "_"
// instead, recursively through objects and arrays. Values are untouched.
// A nil payload becomes an empty object; nested nulls are kept as nil.
// When an object holds both "@id" and "_id", the rewritten "@id" value wins.
func Normalize(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return normalize(v)
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if strings.HasPrefix(k, "@") {
				k = "_" + k[1:]
			} else if strings.HasPrefix(k, "_") {
				if _, shadowed := t["@"+k[1:]]; shadowed {
					continue
				}
			}
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// decodeNormalized decodes a JSON body, normalizes it and decodes the result
// into the tagged record v. Numbers are kept as json.Number on the way
// through so large counts survive exactly.
func decodeNormalized(body []byte, v any, what string) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nferrors.Wrap(nferrors.ErrCodeInvalidResponse, err, "decode %s", what)
	}
	normalized, err := json.Marshal(Normalize(raw))
	if err != nil {
		return nferrors.Wrap(nferrors.ErrCodeInvalidResponse, err, "decode %s", what)
	}
	if err := json.Unmarshal(normalized, v); err != nil {
		return nferrors.Wrap(nferrors.ErrCodeInvalidResponse, err, "decode %s", what)
	}
	return nil
}
