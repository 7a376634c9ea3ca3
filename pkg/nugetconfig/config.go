// Package nugetconfig reads NuGet.Config files to map friendly source names
// such as "nuget.org" to registry URLs and credentials.
//
// Only the parts nugetfetch consumes are interpreted:
//
//	<configuration>
//	  <packageSources>
//	    <add key="nuget.org" value="https://api.nuget.org/v3/index.json" protocolVersion="3" />
//	  </packageSources>
//	  <packageSourceCredentials>
//	    <nuget.org>
//	      <add key="Username" value="me" />
//	      <add key="ClearTextPassword" value="secret" />
//	    </nuget.org>
//	  </packageSourceCredentials>
//	</configuration>
//
// Lookups never fail loudly: a missing or unreadable file simply resolves
// nothing, and the caller falls back to a literal URL or the default registry.
package nugetconfig

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"github.com/matzehuels/nugetfetch/pkg/xmlmap"
)

// Config is the mapped form of a NuGet.Config document.
type Config = map[string]any

// Credential is a username and clear-text password for a package source.
type Credential struct {
	Username string
	Password string
}

// Source is one entry of configuration/packageSources.
type Source struct {
	Key             string
	URL             string
	ProtocolVersion string
	Credential      *Credential
}

// Read parses the config file at path. A leading ~ is expanded.
func Read(path string) (Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	cfg, err := xmlmap.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", expanded, err)
	}
	return cfg, nil
}

// Resolver answers source lookups against one config file.
type Resolver struct {
	path    string
	locator *Locator
	logger  *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPath reads the given file instead of searching for one.
func WithPath(path string) Option {
	return func(r *Resolver) { r.path = path }
}

// WithLocator replaces the platform Locator.
func WithLocator(l *Locator) Option {
	return func(r *Resolver) { r.locator = l }
}

// WithLogger sets the logger for debug output about skipped configs.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver. Without options it locates the user-wide
// config on first use and logs nothing.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.locator == nil {
		r.locator = NewLocator()
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return r
}

// Path returns the config file in use, or "" when none was found.
func (r *Resolver) Path() string {
	if r.path != "" {
		return r.path
	}
	return r.locator.Locate()
}

// Sources returns every configured package source in document order.
// Any failure yields nil.
func (r *Resolver) Sources() []Source {
	path := r.Path()
	if path == "" {
		r.logger.Debug("no nuget config found")
		return nil
	}
	cfg, err := Read(path)
	if err != nil {
		r.logger.Debug("unable to read nuget config", "path", path, "err", err)
		return nil
	}
	sources := sourcesOf(cfg)
	if sources == nil {
		r.logger.Debug("nuget config has no package sources", "path", path)
	}
	return sources
}

// Resolve returns the URL configured for nameOrURL, matching source keys
// case-insensitively. It returns "" when there is no such source.
func (r *Resolver) Resolve(nameOrURL string) string {
	src, ok := r.ResolveSource(nameOrURL)
	if !ok {
		return ""
	}
	return src.URL
}

// ResolveSource is Resolve with the full source record, including any
// credentials from packageSourceCredentials.
func (r *Resolver) ResolveSource(name string) (Source, bool) {
	if name == "" {
		return Source{}, false
	}
	for _, src := range r.Sources() {
		if strings.EqualFold(src.Key, name) && src.URL != "" {
			return src, true
		}
	}
	return Source{}, false
}

func sourcesOf(cfg Config) []Source {
	conf, _ := cfg["configuration"].(map[string]any)
	if conf == nil {
		return nil
	}
	ps, _ := conf["packageSources"].(map[string]any)
	if ps == nil {
		return nil
	}
	creds, _ := conf["packageSourceCredentials"].(map[string]any)

	var sources []Source
	for _, rec := range records(ps["add"]) {
		key, _ := rec["key"].(string)
		value, _ := rec["value"].(string)
		proto, _ := rec["protocolVersion"].(string)
		sources = append(sources, Source{
			Key:             key,
			URL:             value,
			ProtocolVersion: proto,
			Credential:      credentialFor(creds, key),
		})
	}
	return sources
}

// sourceKeyReplacer decodes the XmlConvert escaping NuGet applies to source
// names used as element names.
var sourceKeyReplacer = strings.NewReplacer("_x0020_", " ", "_x003A_", ":", "_x002F_", "/")

func credentialFor(creds map[string]any, key string) *Credential {
	if creds == nil || key == "" {
		return nil
	}
	for tag, v := range creds {
		if !strings.EqualFold(sourceKeyReplacer.Replace(tag), key) {
			continue
		}
		el, _ := v.(map[string]any)
		if el == nil {
			return nil
		}
		var c Credential
		for _, rec := range records(el["add"]) {
			k, _ := rec["key"].(string)
			val, _ := rec["value"].(string)
			switch {
			case strings.EqualFold(k, "Username"):
				c.Username = val
			case strings.EqualFold(k, "ClearTextPassword"):
				c.Password = val
			}
		}
		if c.Username == "" && c.Password == "" {
			return nil
		}
		return &c
	}
	return nil
}

// records normalizes a single mapped element or a sequence of them.
func records(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
