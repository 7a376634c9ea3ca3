// Package integrations provides the HTTP plumbing shared by registry clients.
//
// # Overview
//
// Registry protocols live in subpackages; this package only knows how to
// issue a GET and classify the outcome:
//
//   - [nuget]: NuGet v3 service index, search and package content
//
// # Client
//
// [Client] wraps an *http.Client built by [NewHTTPClient], which dials through
// a DNS cache. Every response is mapped to one of:
//
//   - nil for 2xx
//   - [HTTPError] wrapping [ErrNotFound] for 404
//   - [errors.RateLimitedError] for 429
//   - [HTTPError] wrapping [ErrNetwork] for everything else
//
// Transient failures (connection errors, 429, 5xx) are additionally wrapped
// with [cache.RetryableError]. The client itself never retries.
//
// [nuget]: github.com/matzehuels/nugetfetch/pkg/integrations/nuget
// [errors.RateLimitedError]: github.com/matzehuels/nugetfetch/pkg/errors.RateLimitedError
// [cache.RetryableError]: github.com/matzehuels/nugetfetch/pkg/cache.RetryableError
package integrations
