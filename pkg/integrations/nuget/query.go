package nuget

import (
	"context"
	"net/url"
	"strings"
)

// Query runs a free-text search against the registry's primary search
// endpoint. There is no paging; the registry's default page is returned.
func (c *Client) Query(ctx context.Context, text string) (*QueryResponse, error) {
	entry, err := c.discover(ctx)
	if err != nil {
		return nil, err
	}

	u := searchURL(entry.PrimarySearchURL, text)
	c.logger.Debug("querying registry", "url", u)
	body, err := c.http.GetBytes(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	var resp QueryResponse
	if err := decodeNormalized(body, &resp, "search response"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchPackageInfo searches for an exact package id.
func (c *Client) FetchPackageInfo(ctx context.Context, packageID string) (*QueryResponse, error) {
	return c.Query(ctx, "packageId:"+packageID)
}

// Search queries for packages matching any of the words.
func (c *Client) Search(ctx context.Context, words ...string) (*QueryResponse, error) {
	return c.Query(ctx, strings.Join(words, " "))
}

// searchURL appends q to base, escaping it like encodeURIComponent so that
// spaces travel as %20.
func searchURL(base, q string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "q=" + strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}
