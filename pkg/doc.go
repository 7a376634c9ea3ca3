// Package pkg provides the libraries behind nugetfetch, a NuGet v3 package
// downloader.
//
// # Overview
//
// nugetfetch resolves a package identifier against a NuGet feed, discovers the
// feed's search endpoint, narrows the search result to one version and
// unpacks the .nupkg into a deterministic layout. The pkg directory is
// organized into these areas:
//
//  1. [integrations/nuget] - Registry client (discovery, query, locate, download)
//  2. [integrations] - Shared HTTP client and transport errors
//  3. [nugetconfig] and [xmlmap] - NuGet.Config lookup and XML mapping
//  4. [cache] - Persistent registry index cache (file, Redis)
//  5. [errors] and [observability] - Coded errors and hooks
//
// # Architecture
//
// The typical data flow:
//
//	package token ("Foo.Bar.1.2.3")
//	         ↓
//	    [nugetconfig] (source name → service index URL)
//	         ↓
//	    [integrations/nuget] ResourceCache (service index → search URL)
//	         ↓
//	    [integrations/nuget] FindPackage (search → one version)
//	         ↓
//	    [integrations/nuget] DownloadPackage (.nupkg → <id>.<version>/)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/nugetfetch/pkg/integrations/nuget"
//	    "github.com/matzehuels/nugetfetch/pkg/nugetconfig"
//	)
//
//	client, err := nuget.NewClient(
//	    nuget.WithSource("nuget.org"),
//	    nuget.WithConfig(nugetconfig.NewResolver()),
//	)
//	if err != nil {
//	    return err
//	}
//	id, err := nuget.ParseIdentifier("PeanutButter.Utils.1.0.117")
//	if err != nil {
//	    return err
//	}
//	res, err := client.DownloadPackage(ctx, id, "./packages")
//	switch {
//	case err != nil:
//	    return err
//	case res == nil:
//	    fmt.Println("package not found:", id)
//	default:
//	    fmt.Println(res.FullName, "downloaded to", res.FullPath)
//	}
//
// [integrations/nuget]: https://pkg.go.dev/github.com/matzehuels/nugetfetch/pkg/integrations/nuget
// [integrations]: https://pkg.go.dev/github.com/matzehuels/nugetfetch/pkg/integrations
// [nugetconfig]: https://pkg.go.dev/github.com/matzehuels/nugetfetch/pkg/nugetconfig
// [xmlmap]: https://pkg.go.dev/github.com/matzehuels/nugetfetch/pkg/xmlmap
// [cache]: https://pkg.go.dev/github.com/matzehuels/nugetfetch/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/nugetfetch/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/nugetfetch/pkg/observability
package pkg
