package nuget

// Wire records are decoded after [Normalize], so JSON-LD keys such as "@id"
// appear here under their "_" spelling.

// ResourceTypeSearchQueryService is the service index type of the search endpoint.
const ResourceTypeSearchQueryService = "SearchQueryService"

// ServiceIndex is a registry's root document (/v3/index.json).
type ServiceIndex struct {
	Version   string     `json:"version"`
	Resources []Resource `json:"resources"`
}

// Resource is one entry of a service index.
type Resource struct {
	ID      string `json:"_id"`
	Type    string `json:"_type"`
	Comment string `json:"comment,omitempty"`
}

// QueryContext is the JSON-LD context of a search response.
type QueryContext struct {
	Vocab string `json:"_vocab"`
	Base  string `json:"_base"`
}

// QueryResponse is a page of search results.
type QueryResponse struct {
	Context   QueryContext      `json:"_context"`
	TotalHits int               `json:"totalHits"`
	Data      []QueryResultItem `json:"data"`
}

// QueryResultItem is one package entity in a search response.
type QueryResultItem struct {
	ID             string         `json:"_id"`
	Registration   string         `json:"registration"`
	PackageID      string         `json:"id"`
	Version        string         `json:"version"`
	Description    string         `json:"description"`
	Summary        string         `json:"summary"`
	Title          string         `json:"title"`
	IconURL        string         `json:"iconUrl"`
	LicenseURL     string         `json:"licenseUrl"`
	ProjectURL     string         `json:"projectUrl"`
	Tags           []string       `json:"tags"`
	Authors        []string       `json:"authors"`
	TotalDownloads int64          `json:"totalDownloads"`
	Verified       bool           `json:"verified"`
	PackageTypes   []PackageType  `json:"packageTypes"`
	Versions       []QueryVersion `json:"versions"`
}

// PackageType names a package kind such as "Dependency" or "DotnetTool".
type PackageType struct {
	Name string `json:"name"`
}

// QueryVersion is one known version of a search hit. ID is the URL of the
// version's registration leaf.
type QueryVersion struct {
	Version   string `json:"version"`
	Downloads int64  `json:"downloads"`
	ID        string `json:"_id"`
}

// registrationLeaf is the part of a registration document the download uses.
type registrationLeaf struct {
	ID             string `json:"_id"`
	Listed         *bool  `json:"listed"`
	PackageContent string `json:"packageContent"`
	Published      string `json:"published"`
	Registration   string `json:"registration"`
}

// PackageIdentifier names a package and, optionally, a version.
// An empty Version means the registry's current version.
type PackageIdentifier struct {
	PackageID string
	Version   string
}

// String renders the identifier the way it is written on the command line.
func (p PackageIdentifier) String() string {
	if p.Version == "" {
		return p.PackageID
	}
	return p.PackageID + "." + p.Version
}

// PackageInfo is a search hit narrowed to one selected version.
type PackageInfo struct {
	ID             string   `json:"id"`
	Version        string   `json:"version"`
	CurrentVersion string   `json:"currentVersion"`
	IndexURL       string   `json:"indexUrl"`
	Downloads      int64    `json:"downloads"`
	TotalDownloads int64    `json:"totalDownloads"`
	Description    string   `json:"description"`
	Summary        string   `json:"summary"`
	Title          string   `json:"title"`
	IconURL        string   `json:"iconUrl"`
	LicenseURL     string   `json:"licenseUrl"`
	ProjectURL     string   `json:"projectUrl"`
	Tags           []string `json:"tags"`
	Authors        []string `json:"authors"`
	Verified       bool     `json:"verified"`
}

// ExtractWarning records an archive entry that was skipped.
type ExtractWarning struct {
	Entry string
	Err   error
}

func (w ExtractWarning) String() string {
	return w.Entry + ": " + w.Err.Error()
}

// DownloadResult describes a completed download.
type DownloadResult struct {
	PackageInfo

	// FullName is "<id>.<version>".
	FullName string
	// FullPath is the absolute directory the package was extracted into.
	FullPath string
	// ArchivePath is the raw .nupkg written inside FullPath.
	ArchivePath string
	// Entries lists the archive files written, in extraction order.
	Entries []string
	// Warnings lists entries that were skipped.
	Warnings []ExtractWarning
}
