package nuget

import "errors"

var (
	// ErrNoSearchService means the service index advertises no SearchQueryService.
	ErrNoSearchService = errors.New("registry advertises no SearchQueryService")

	// ErrNoPackageContent means a registration leaf has no packageContent URL.
	ErrNoPackageContent = errors.New("registration has no packageContent")
)
