// Package nuget is a client for NuGet v3 registries.
//
// # Overview
//
// A [Client] is bound to one registry, given as a service index URL or as a
// source name from NuGet.Config. It discovers the registry's search endpoint
// once, memoized in a [ResourceCache], and answers:
//
//   - [Client.Query], [Client.Search], [Client.FetchPackageInfo]: raw search results
//   - [Client.FindPackage]: one package narrowed to one version
//   - [Client.DownloadPackage]: fetch the .nupkg and unpack it
//
// # Usage
//
//	client, err := nuget.NewClient(nuget.WithSource("nuget.org"),
//	    nuget.WithConfig(nugetconfig.NewResolver()))
//	if err != nil {
//	    return err
//	}
//	res, err := client.DownloadPackage(ctx, nuget.PackageIdentifier{PackageID: "xunit"}, "./packages")
//	if res == nil && err == nil {
//	    // not found
//	}
//
// # Wire format
//
// Registry payloads use JSON-LD keys ("@id", "@type"). Every payload passes
// through [Normalize], which renames them to "_id", "_type", before being
// decoded into the records in this package.
//
// # Errors
//
// Not found is never an error. Discovery failures carry the
// REGISTRY_INCOMPATIBLE or REGISTRY_UNAVAILABLE code, malformed payloads
// INVALID_RESPONSE, and local write failures FILESYSTEM_ERROR. Transport
// errors come from [integrations.Client] unchanged. Nothing here retries.
//
// [integrations.Client]: github.com/matzehuels/nugetfetch/pkg/integrations.Client
package nuget
