package nuget

import (
	"encoding/json"
	"reflect"
	"testing"

	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil becomes empty object", nil, map[string]any{}},
		{"scalar untouched", "@id", "@id"},
		{
			"top level keys",
			map[string]any{"@id": "x", "@type": "Package", "id": "Foo"},
			map[string]any{"_id": "x", "_type": "Package", "id": "Foo"},
		},
		{
			"nested objects and arrays",
			map[string]any{"data": []any{map[string]any{"@id": "a", "versions": []any{map[string]any{"@id": "b"}}}}},
			map[string]any{"data": []any{map[string]any{"_id": "a", "versions": []any{map[string]any{"_id": "b"}}}}},
		},
		{
			"values starting with @ untouched",
			map[string]any{"name": "@scope"},
			map[string]any{"name": "@scope"},
		},
		{
			"nested null kept",
			map[string]any{"@context": nil},
			map[string]any{"_context": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"@id": "x"}
	Normalize(in)
	if _, ok := in["@id"]; !ok {
		t.Error("Normalize modified its input")
	}
}

func TestNormalizeAtKeyWinsCollision(t *testing.T) {
	in := map[string]any{
		"@id":  "https://feed.test/registration/a.json",
		"_id":  "literal",
		"_raw": "kept",
	}
	want := map[string]any{
		"_id":  "https://feed.test/registration/a.json",
		"_raw": "kept",
	}
	// map iteration order varies, so repeat to catch an order-dependent winner
	for i := 0; i < 50; i++ {
		if got := Normalize(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("Normalize() = %#v, want %#v", got, want)
		}
	}
}

func TestDecodeNormalized(t *testing.T) {
	body := []byte(`{"@id": "https://example.test/x", "@type": "SearchQueryService", "comment": "c"}`)
	var r Resource
	if err := decodeNormalized(body, &r, "resource"); err != nil {
		t.Fatalf("decodeNormalized() error: %v", err)
	}
	if r.ID != "https://example.test/x" || r.Type != "SearchQueryService" || r.Comment != "c" {
		t.Errorf("decodeNormalized() = %+v", r)
	}
}

func TestDecodeNormalizedLargeNumbers(t *testing.T) {
	body := []byte(`{"totalDownloads": 9007199254740993}`)
	var item QueryResultItem
	if err := decodeNormalized(body, &item, "item"); err != nil {
		t.Fatalf("decodeNormalized() error: %v", err)
	}
	if item.TotalDownloads != 9007199254740993 {
		t.Errorf("TotalDownloads = %d, want 9007199254740993", item.TotalDownloads)
	}
}

func TestDecodeNormalizedErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"truncated", `{"resources": [`},
		{"wrong shape", `{"resources": "nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var index ServiceIndex
			err := decodeNormalized([]byte(tt.body), &index, "service index")
			if !nferrors.Is(err, nferrors.ErrCodeInvalidResponse) {
				t.Errorf("decodeNormalized() error = %v, want INVALID_RESPONSE", err)
			}
		})
	}
}

func TestDecodeNormalizedNull(t *testing.T) {
	var resp QueryResponse
	if err := decodeNormalized([]byte("null"), &resp, "search response"); err != nil {
		t.Fatalf("decodeNormalized(null) error: %v", err)
	}
	if len(resp.Data) != 0 {
		t.Errorf("Data = %v, want empty", resp.Data)
	}
}

func TestPackageInfoJSON(t *testing.T) {
	data, err := json.Marshal(PackageInfo{ID: "Foo", IndexURL: "u", TotalDownloads: 2})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "indexUrl", "totalDownloads", "currentVersion"} {
		if _, ok := m[key]; !ok {
			t.Errorf("marshalled PackageInfo is missing %q: %s", key, data)
		}
	}
}
