package nuget

import (
	"strconv"
	"strings"

	packageurl "github.com/package-url/packageurl-go"

	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
)

// ResolveIdentifier splits a version embedded in the id, so that
// "Foo.Bar.1.2.3" becomes {Foo.Bar 1.2.3}.
//
// The split happens only when no version was given, the id has at least four
// dot-separated segments and the last three are all base-10 integers.
// An id that really ends in three numeric segments is indistinguishable from
// one with an embedded version and is split as well; pass the version
// explicitly to avoid that.
func ResolveIdentifier(id PackageIdentifier) PackageIdentifier {
	if id.PackageID != "" && id.Version != "" {
		return id
	}
	parts := strings.Split(id.PackageID, ".")
	if len(parts) < 4 {
		return id
	}
	tail := parts[len(parts)-3:]
	for _, p := range tail {
		if _, err := strconv.Atoi(p); err != nil {
			return id
		}
	}
	return PackageIdentifier{
		PackageID: strings.Join(parts[:len(parts)-3], "."),
		Version:   strings.Join(tail, "."),
	}
}

// ParseIdentifier reads a command-line package token. Plain tokens
// ("Foo.Bar", "Foo.Bar.1.2.3") and NuGet package URLs
// ("pkg:nuget/Foo.Bar@1.2.3") are accepted. The result has already been
// through [ResolveIdentifier].
func ParseIdentifier(token string) (PackageIdentifier, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return PackageIdentifier{}, nferrors.New(nferrors.ErrCodeInvalidInput, "package id cannot be empty")
	}

	var id PackageIdentifier
	if strings.HasPrefix(token, "pkg:") {
		p, err := packageurl.FromString(token)
		if err != nil {
			return PackageIdentifier{}, nferrors.Wrap(nferrors.ErrCodeInvalidInput, err, "invalid package url %q", token)
		}
		if p.Type != "nuget" {
			return PackageIdentifier{}, nferrors.New(nferrors.ErrCodeInvalidInput, "package url %q is not a nuget package", token)
		}
		if p.Namespace != "" {
			return PackageIdentifier{}, nferrors.New(nferrors.ErrCodeInvalidInput, "nuget package urls have no namespace: %q", token)
		}
		id = PackageIdentifier{PackageID: p.Name, Version: p.Version}
	} else {
		id = PackageIdentifier{PackageID: token}
	}

	if err := nferrors.ValidatePackageName(id.PackageID); err != nil {
		return PackageIdentifier{}, err
	}
	if err := nferrors.ValidateVersion(id.Version); err != nil {
		return PackageIdentifier{}, err
	}
	return ResolveIdentifier(id), nil
}
