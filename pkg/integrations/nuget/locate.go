package nuget

import (
	"context"
	"time"

	"github.com/matzehuels/nugetfetch/pkg/observability"
)

// FindPackage resolves id to a single version of a single package.
//
// The identifier first goes through [ResolveIdentifier]. The first search hit
// is used, and its version entry matching id.Version (or, when no version was
// asked for, the hit's current version) is selected.
//
// A package or version the registry does not know is reported as (nil, nil);
// errors are reserved for discovery, transport and decoding failures.
func (c *Client) FindPackage(ctx context.Context, id PackageIdentifier) (info *PackageInfo, err error) {
	id = ResolveIdentifier(id)

	hooks := observability.Package()
	hooks.OnLookupStart(ctx, c.registry.URL, id.PackageID)
	start := time.Now()
	defer func() {
		hooks.OnLookupComplete(ctx, c.registry.URL, id.PackageID, info != nil, time.Since(start), err)
	}()

	resp, err := c.FetchPackageInfo(ctx, id.PackageID)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		c.logger.Debug("package not found", "id", id.PackageID)
		return nil, nil
	}
	item := resp.Data[0]

	want := id.Version
	if want == "" {
		want = item.Version
	}
	v, ok := findVersion(item.Versions, want)
	if !ok {
		c.logger.Debug("version not found", "id", item.PackageID, "version", want)
		return nil, nil
	}

	return &PackageInfo{
		ID:             item.PackageID,
		Version:        v.Version,
		CurrentVersion: item.Version,
		IndexURL:       v.ID,
		Downloads:      v.Downloads,
		TotalDownloads: item.TotalDownloads,
		Description:    item.Description,
		Summary:        item.Summary,
		Title:          item.Title,
		IconURL:        item.IconURL,
		LicenseURL:     item.LicenseURL,
		ProjectURL:     item.ProjectURL,
		Tags:           item.Tags,
		Authors:        item.Authors,
		Verified:       item.Verified,
	}, nil
}

// findVersion matches exactly; registries report versions in normalized form.
func findVersion(versions []QueryVersion, want string) (QueryVersion, bool) {
	for _, v := range versions {
		if v.Version == want {
			return v, true
		}
	}
	return QueryVersion{}, false
}
