package nuget

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"
)

// fixtureRegistry is an in-process NuGet v3 feed serving one package,
// PeanutButter.Utils, in versions 1.0.117 and 3.0.117.
type fixtureRegistry struct {
	server *httptest.Server

	indexHits   atomic.Int32
	queryHits   atomic.Int32
	archiveHits atomic.Int32

	mu      sync.Mutex
	auth    []string
	queries []string

	// archive is served for every version.
	archive []byte
	// index overrides the service index body when non-empty.
	index string
	// search overrides the search body when non-empty.
	search string
}

func newFixtureRegistry(t *testing.T, archive []byte) *fixtureRegistry {
	t.Helper()
	f := &fixtureRegistry{archive: archive}
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/index.json", f.handleIndex)
	mux.HandleFunc("/query", f.handleQuery)
	mux.HandleFunc("/registration/", f.handleRegistration)
	mux.HandleFunc("/content/", f.handleContent)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixtureRegistry) URL() string { return f.server.URL + "/v3/index.json" }

func (f *fixtureRegistry) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{WithSource(f.URL()), WithHTTPClient(f.server.Client())}, opts...)
	c, err := NewClient(all...)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func (f *fixtureRegistry) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
}

func (f *fixtureRegistry) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func (f *fixtureRegistry) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func (f *fixtureRegistry) handleIndex(w http.ResponseWriter, r *http.Request) {
	f.indexHits.Add(1)
	f.record(r)
	if f.index != "" {
		w.Write([]byte(f.index))
		return
	}
	base := f.server.URL
	fmt.Fprintf(w, `{
  "version": "3.0.0",
  "resources": [
    {"@id": "%[1]s/query", "@type": "SearchQueryService", "comment": "Query endpoint of NuGet Search service (primary)"},
    {"@id": "%[1]s/query-beta", "@type": "SearchQueryService/3.0.0-beta"},
    {"@id": "%[1]s/query-secondary", "@type": "SearchQueryService", "comment": "secondary"},
    {"@id": "%[1]s/registration/", "@type": "RegistrationsBaseUrl"}
  ],
  "@context": {"@vocab": "http://schema.nuget.org/services#"}
}`, base)
}

func (f *fixtureRegistry) handleQuery(w http.ResponseWriter, r *http.Request) {
	f.queryHits.Add(1)
	f.record(r)
	q := r.URL.Query().Get("q")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.search != "" {
		w.Write([]byte(f.search))
		return
	}
	if strings.HasPrefix(q, "packageId:") && !strings.EqualFold(q, "packageId:PeanutButter.Utils") {
		w.Write([]byte(`{"@context": {"@vocab": "http://schema.nuget.org/schema#"}, "totalHits": 0, "data": []}`))
		return
	}
	base := f.server.URL
	fmt.Fprintf(w, `{
  "@context": {"@vocab": "http://schema.nuget.org/schema#", "@base": "%[1]s/registration/"},
  "totalHits": 1,
  "data": [{
    "@id": "%[1]s/registration/peanutbutter.utils/index.json",
    "@type": "Package",
    "registration": "%[1]s/registration/peanutbutter.utils/index.json",
    "id": "PeanutButter.Utils",
    "version": "3.0.117",
    "description": "Utilities:\n<br/>- DeepEquals\n<br/>- AutoDisposer",
    "summary": "",
    "title": "PeanutButter.Utils",
    "iconUrl": "",
    "licenseUrl": "https://opensource.org/licenses/BSD-3-Clause",
    "projectUrl": "https://github.com/fluffynuts/PeanutButter",
    "tags": ["utilities", "extensions", "disposable"],
    "authors": ["Davyd McColl"],
    "totalDownloads": 9007199254740993,
    "verified": false,
    "packageTypes": [{"name": "Dependency"}],
    "versions": [
      {"version": "1.0.117", "downloads": 321, "@id": "%[1]s/registration/peanutbutter.utils/1.0.117.json"},
      {"version": "3.0.117", "downloads": 999, "@id": "%[1]s/registration/peanutbutter.utils/3.0.117.json"}
    ]
  }]
}`, base)
}

func (f *fixtureRegistry) handleRegistration(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/registration/peanutbutter.utils/"), ".json")
	if name != "1.0.117" && name != "3.0.117" {
		http.NotFound(w, r)
		return
	}
	base := f.server.URL
	fmt.Fprintf(w, `{
  "@id": "%[1]s/registration/peanutbutter.utils/%[2]s.json",
  "@type": ["Package", "http://schema.nuget.org/catalog#Permalink"],
  "listed": true,
  "packageContent": "%[1]s/content/peanutbutter.utils.%[2]s.nupkg",
  "published": "2019-03-01T10:00:00+00:00",
  "registration": "%[1]s/registration/peanutbutter.utils/index.json"
}`, base, name)
}

func (f *fixtureRegistry) handleContent(w http.ResponseWriter, r *http.Request) {
	f.archiveHits.Add(1)
	f.record(r)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(f.archive)))
	w.Write(f.archive)
}

// zipEntry is one file of a test archive. A name ending in "/" is a directory.
type zipEntry struct {
	name string
	body string
}

var packageEntries = []zipEntry{
	{name: "_rels/.rels", body: `<?xml version="1.0"?><Relationships/>`},
	{name: "PeanutButter.Utils.nuspec", body: `<?xml version="1.0"?><package><metadata><id>PeanutButter.Utils</id></metadata></package>`},
	{name: "lib/", body: ""},
	{name: "lib/net452/PeanutButter.Utils.dll", body: "MZ not really a dll"},
	{name: "[Content_Types].xml", body: `<?xml version="1.0"?><Types/>`},
	{name: "package/services/metadata/core-properties/0123.psmdcp", body: "<coreProperties/>"},
}

// buildArchive writes entries into a zip, storing them uncompressed.
func buildArchive(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store})
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
