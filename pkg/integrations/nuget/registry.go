package nuget

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nugetfetch/pkg/cache"
	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
	"github.com/matzehuels/nugetfetch/pkg/integrations"
	"github.com/matzehuels/nugetfetch/pkg/nugetconfig"
)

// DefaultRegistryURL is the nuget.org service index.
const DefaultRegistryURL = "https://api.nuget.org/v3/index.json"

// Credential authenticates against a private feed.
type Credential struct {
	User  string
	Token string
}

// Registry is a NuGet v3 feed, identified by its service index URL.
// The URL is compared case-sensitively.
type Registry struct {
	URL        string
	Credential *Credential
}

// authHeader returns the Basic authorization value, or "" unless both user
// and token are set.
func (r Registry) authHeader() string {
	if r.Credential == nil || r.Credential.User == "" || r.Credential.Token == "" {
		return ""
	}
	raw := r.Credential.User + ":" + r.Credential.Token
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// keyer scopes persistent cache keys by user for authenticated feeds.
func (r Registry) keyer() cache.Keyer {
	if r.authHeader() == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cache.UserScope(r.Credential.User))
}

// Client talks to one NuGet v3 registry.
//
// A Client is safe for concurrent use. Its only mutable state is the
// [ResourceCache] and the list of log sinks.
type Client struct {
	registry  Registry
	http      *integrations.Client
	resources *ResourceCache
	logger    *log.Logger
	progress  integrations.ProgressFunc

	sinksMu sync.RWMutex
	sinks   []func(string)
}

type options struct {
	source     string
	credential *Credential
	config     *nugetconfig.Resolver
	httpClient *http.Client
	resources  *ResourceCache
	logger     *log.Logger
	progress   integrations.ProgressFunc
}

// Option configures a Client.
type Option func(*options)

// WithSource selects the registry by service index URL or by a source name
// from NuGet.Config (see [WithConfig]). Empty selects [DefaultRegistryURL].
func WithSource(nameOrURL string) Option {
	return func(o *options) { o.source = nameOrURL }
}

// WithCredential sets feed credentials. They take precedence over
// credentials found in NuGet.Config.
func WithCredential(user, token string) Option {
	return func(o *options) {
		if user == "" && token == "" {
			o.credential = nil
			return
		}
		o.credential = &Credential{User: user, Token: token}
	}
}

// WithConfig resolves friendly source names through r.
func WithConfig(r *nugetconfig.Resolver) Option {
	return func(o *options) { o.config = r }
}

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithResourceCache shares a discovery cache between clients.
func WithResourceCache(c *ResourceCache) Option {
	return func(o *options) { o.resources = c }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProgress reports archive download progress.
func WithProgress(p integrations.ProgressFunc) Option {
	return func(o *options) { o.progress = p }
}

// NewClient creates a Client. Source names are resolved against the
// configured NuGet.Config here, synchronously; an unknown name that is not
// an http(s) URL is an error.
func NewClient(opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.resources == nil {
		o.resources = NewResourceCache(nil)
	}

	reg, err := resolveRegistry(o)
	if err != nil {
		return nil, err
	}

	var headers map[string]string
	if auth := reg.authHeader(); auth != "" {
		headers = map[string]string{"Authorization": auth}
	}

	return &Client{
		registry:  reg,
		http:      integrations.NewClient(o.httpClient, headers),
		resources: o.resources,
		logger:    o.logger,
		progress:  o.progress,
	}, nil
}

func resolveRegistry(o options) (Registry, error) {
	if o.source == "" {
		return Registry{URL: DefaultRegistryURL, Credential: o.credential}, nil
	}

	reg := Registry{URL: o.source, Credential: o.credential}
	if o.config != nil {
		if src, ok := o.config.ResolveSource(o.source); ok {
			reg.URL = src.URL
			if reg.Credential == nil && src.Credential != nil {
				reg.Credential = &Credential{User: src.Credential.Username, Token: src.Credential.Password}
			}
			o.logger.Debug("resolved package source", "name", o.source, "url", src.URL)
		}
	}

	if err := nferrors.ValidateURL(reg.URL); err != nil {
		return Registry{}, nferrors.New(nferrors.ErrCodeInvalidInput,
			"unknown package source %q: not a configured source name or an http(s) URL", o.source)
	}
	return reg, nil
}

// Registry returns the registry this client talks to.
func (c *Client) Registry() Registry {
	return c.registry
}

// AddLogger registers a sink that receives human-readable progress lines.
// A sink that panics is ignored for that message.
func (c *Client) AddLogger(sink func(string)) {
	if sink == nil {
		return
	}
	c.sinksMu.Lock()
	c.sinks = append(c.sinks, sink)
	c.sinksMu.Unlock()
}

func (c *Client) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.sinksMu.RLock()
	sinks := c.sinks
	c.sinksMu.RUnlock()
	for _, sink := range sinks {
		callSink(sink, msg)
	}
}

func callSink(sink func(string), msg string) {
	defer func() { _ = recover() }()
	sink(msg)
}

// FetchResources retrieves the registry's service index, bypassing the
// discovery cache.
func (c *Client) FetchResources(ctx context.Context) (*ServiceIndex, error) {
	body, err := c.http.GetBytes(ctx, c.registry.URL, nil)
	if err != nil {
		return nil, err
	}
	var index ServiceIndex
	if err := decodeNormalized(body, &index, "service index"); err != nil {
		return nil, err
	}
	return &index, nil
}

func (c *Client) discover(ctx context.Context) (ResourceEntry, error) {
	return c.resources.Discover(ctx, c.registry, func(ctx context.Context) (*ServiceIndex, error) {
		c.logger.Debug("discovering registry resources", "registry", c.registry.URL)
		return c.FetchResources(ctx)
	})
}
