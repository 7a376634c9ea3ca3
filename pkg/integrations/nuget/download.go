package nuget

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
	"github.com/matzehuels/nugetfetch/pkg/observability"
)

// ArchiveExtension is the file extension of a raw package archive.
const ArchiveExtension = ".nupkg"

// DownloadPackage fetches a package and unpacks it into
// outputDir/<id>.<version>/, next to the raw <id>.<version>.nupkg.
//
// Any existing target directory is removed first, so the result never mixes
// files from an earlier download. Extraction is not rolled back: after a
// failure the directory may be partially filled until the next attempt.
//
// Archive entries that cannot be read, or whose path would leave the target
// directory, are skipped and reported in [DownloadResult.Warnings].
// A package the registry does not know is (nil, nil) and touches nothing.
func (c *Client) DownloadPackage(ctx context.Context, id PackageIdentifier, outputDir string) (*DownloadResult, error) {
	info, err := c.FindPackage(ctx, id)
	if err != nil || info == nil {
		return nil, err
	}
	if err := nferrors.ValidatePackageName(info.ID); err != nil {
		return nil, err
	}
	if err := nferrors.ValidateVersion(info.Version); err != nil {
		return nil, err
	}

	fullName := info.ID + "." + info.Version
	base, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, nferrors.Wrap(nferrors.ErrCodeFilesystem, err, "resolve output dir %q", outputDir)
	}
	target := filepath.Join(base, fullName)

	hooks := observability.Package()
	hooks.OnDownloadStart(ctx, fullName)
	start := time.Now()

	result, err := c.download(ctx, info, fullName, target)

	entries := 0
	if result != nil {
		entries = len(result.Entries)
	}
	hooks.OnDownloadComplete(ctx, fullName, entries, time.Since(start), err)
	return result, err
}

func (c *Client) download(ctx context.Context, info *PackageInfo, fullName, target string) (*DownloadResult, error) {
	contentURL, err := c.packageContent(ctx, info.IndexURL)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(target); err == nil {
		c.logger.Debug("removing previous download", "path", target)
		if err := os.RemoveAll(target); err != nil {
			return nil, nferrors.Wrap(nferrors.ErrCodeFilesystem, err, "remove %s", target)
		}
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return nil, nferrors.Wrap(nferrors.ErrCodeFilesystem, err, "create %s", target)
	}

	c.logf("downloading %s", fullName)
	c.logger.Debug("downloading archive", "url", contentURL)
	data, err := c.http.Download(ctx, contentURL, nil, c.progress)
	if err != nil {
		return nil, err
	}

	archivePath := filepath.Join(target, fullName+ArchiveExtension)
	if err := os.WriteFile(archivePath, data, 0644); err != nil {
		return nil, nferrors.Wrap(nferrors.ErrCodeFilesystem, err, "write %s", archivePath)
	}

	c.logf("extracting %s", fullName)
	entries, warnings, err := c.extract(ctx, data, target)
	if err != nil {
		return nil, err
	}

	return &DownloadResult{
		PackageInfo: *info,
		FullName:    fullName,
		FullPath:    target,
		ArchivePath: archivePath,
		Entries:     entries,
		Warnings:    warnings,
	}, nil
}

// packageContent reads the archive URL from a registration leaf.
func (c *Client) packageContent(ctx context.Context, indexURL string) (string, error) {
	if indexURL == "" {
		return "", nferrors.Wrap(nferrors.ErrCodeInvalidResponse, ErrNoPackageContent, "search result has no registration url")
	}
	body, err := c.http.GetBytes(ctx, indexURL, nil)
	if err != nil {
		return "", err
	}
	var leaf registrationLeaf
	if err := decodeNormalized(body, &leaf, "registration index"); err != nil {
		return "", err
	}
	if leaf.PackageContent == "" {
		return "", nferrors.Wrap(nferrors.ErrCodeInvalidResponse, ErrNoPackageContent, "registration %s", indexURL)
	}
	return leaf.PackageContent, nil
}

// extract writes every archive entry under target in sorted name order.
// Filesystem failures abort; unreadable or unsafe entries become warnings.
func (c *Client) extract(ctx context.Context, data []byte, target string) ([]string, []ExtractWarning, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, nferrors.Wrap(nferrors.ErrCodeInvalidResponse, err, "open package archive")
	}

	files := make([]*zip.File, len(zr.File))
	copy(files, zr.File)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var (
		entries  []string
		warnings []ExtractWarning
	)
	warn := func(name string, err error) {
		c.logger.Warn("skipping archive entry", "entry", name, "err", err)
		c.logf("WARN: skipping %s: %v", name, err)
		warnings = append(warnings, ExtractWarning{Entry: name, Err: err})
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return entries, warnings, err
		}

		dest, err := entryPath(target, f.Name)
		if err != nil {
			warn(f.Name, err)
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return entries, warnings, nferrors.Wrap(nferrors.ErrCodeFilesystem, err, "create %s", dest)
			}
			continue
		}

		content, err := readEntry(f)
		if err != nil {
			warn(f.Name, err)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return entries, warnings, nferrors.Wrap(nferrors.ErrCodeFilesystem, err, "create %s", filepath.Dir(dest))
		}
		if err := os.WriteFile(dest, content, 0644); err != nil {
			return entries, warnings, nferrors.Wrap(nferrors.ErrCodeFilesystem, err, "write %s", dest)
		}
		entries = append(entries, f.Name)
	}
	return entries, warnings, nil
}

// entryPath maps an archive entry name to a path under target, rejecting
// names that would escape it.
func entryPath(target, name string) (string, error) {
	if err := nferrors.ValidateEntryPath(name); err != nil {
		return "", err
	}
	dest := filepath.Join(target, filepath.FromSlash(name))
	rel, err := filepath.Rel(target, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("entry %q escapes the package directory", name)
	}
	return dest, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
