package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"
)

// runCLI executes the root command with args, isolated from the user's
// settings file and environment, and returns what it printed to stdout.
func runCLI(t *testing.T, environ map[string]string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := New(&errOut, LogInfo)
	c.Out = &out
	if environ == nil {
		environ = map[string]string{}
	}
	c.Environ = environ

	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--settings", filepath.Join(t.TempDir(), "missing.toml")))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// feed is a minimal NuGet v3 registry holding Sample.Lib 1.2.3.
type feed struct {
	server    *httptest.Server
	failIndex atomic.Int32
	indexHits atomic.Int32
}

func newFeed(t *testing.T) *feed {
	t.Helper()
	f := &feed{}
	archive := sampleArchive(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/v3/index.json", func(w http.ResponseWriter, r *http.Request) {
		f.indexHits.Add(1)
		if f.failIndex.Load() > 0 {
			f.failIndex.Add(-1)
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"version": "3.0.0", "resources": [{"@id": "%s/query", "@type": "SearchQueryService"}]}`, f.server.URL)
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if strings.HasPrefix(q, "packageId:") && q != "packageId:Sample.Lib" || strings.Contains(q, "nothing") {
			w.Write([]byte(`{"totalHits": 0, "data": []}`))
			return
		}
		fmt.Fprintf(w, `{"totalHits": 1, "data": [{
  "@id": "%[1]s/reg/sample.lib/index.json",
  "id": "Sample.Lib",
  "version": "1.2.3",
  "title": "Sample Lib",
  "description": "First line<br/>\r\n   second line  <br>",
  "projectUrl": "https://example.test/sample",
  "tags": ["sample", "test"],
  "totalDownloads": 42,
  "versions": [{"version": "1.2.3", "downloads": 42, "@id": "%[1]s/reg/sample.lib/1.2.3.json"}]
}]}`, f.server.URL)
	})
	mux.HandleFunc("/reg/sample.lib/1.2.3.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"@id": "%[1]s/reg/sample.lib/1.2.3.json", "packageContent": "%[1]s/content/sample.lib.1.2.3.nupkg"}`, f.server.URL)
	})
	mux.HandleFunc("/content/sample.lib.1.2.3.nupkg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *feed) URL() string { return f.server.URL + "/v3/index.json" }

func sampleArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"Sample.Lib.nuspec":         "<package/>",
		"lib/net8.0/Sample.Lib.dll": "MZ",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
