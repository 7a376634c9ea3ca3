package integrations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/nugetfetch/pkg/cache"
	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
	"github.com/matzehuels/nugetfetch/pkg/observability"
)

// userAgent identifies nugetfetch to registries.
const userAgent = "nugetfetch (+https://github.com/matzehuels/nugetfetch)"

// ProgressFunc is called once per archive download with the advertised
// content length (-1 when unknown). The returned writer receives a copy of
// every body byte and is closed when the body has been read.
type ProgressFunc func(contentLength int64) io.WriteCloser

// Client provides shared HTTP functionality for registry API clients.
// It applies default headers, maps status codes to typed errors and reports
// every request to the registered [observability.HTTPHooks].
//
// Client never retries. Transient failures are wrapped with
// [cache.RetryableError] so that a caller-level retry loop can tell them apart.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client with the given HTTP client and default headers.
// A nil httpClient selects [NewHTTPClient] with the default timeout.
// Pass nil for headers if no default headers are needed.
func NewClient(httpClient *http.Client, headers map[string]string) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		http:    httpClient,
		headers: headers,
	}
}

// GetBytes performs an HTTP GET with additional headers merged with defaults
// and returns the whole response body.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetBytes(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return c.Download(ctx, rawURL, headers, nil)
}

// Download is GetBytes with an optional progress sink for large bodies.
func (c *Client) Download(ctx context.Context, rawURL string, headers map[string]string, progress ProgressFunc) ([]byte, error) {
	resp, err := c.doRequest(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if progress != nil {
		if w := progress(resp.ContentLength); w != nil {
			defer w.Close()
			r = io.TeeReader(resp.Body, w)
		}
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, c.transportError(ctx, err)
	}
	return buf.Bytes(), nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nferrors.Wrap(nferrors.ErrCodeInvalidInput, err, "build request for %s", rawURL)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, c.transportError(ctx, err)
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(rawURL, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// transportError classifies a failed round trip. Cancellation is returned
// unwrapped so callers can stop immediately.
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
}

func checkStatus(rawURL string, resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return &HTTPError{StatusCode: code, URL: rawURL, Err: ErrNotFound}
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return cache.Retryable(&nferrors.RateLimitedError{RetryAfter: retryAfter, URL: rawURL})
	case code >= 500:
		return cache.Retryable(&HTTPError{StatusCode: code, URL: rawURL, Err: ErrNetwork})
	default:
		return &HTTPError{StatusCode: code, URL: rawURL, Err: ErrNetwork}
	}
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}
