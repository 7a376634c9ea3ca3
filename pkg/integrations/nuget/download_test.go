package nuget

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
)

var peanutButter = PackageIdentifier{PackageID: "PeanutButter.Utils", Version: "1.0.117"}

func TestDownloadPackage(t *testing.T) {
	archive := buildArchive(t, packageEntries)
	f := newFixtureRegistry(t, archive)
	c := f.client(t)
	out := t.TempDir()

	var (
		mu    sync.Mutex
		lines []string
	)
	c.AddLogger(func(msg string) {
		mu.Lock()
		lines = append(lines, msg)
		mu.Unlock()
	})

	res, err := c.DownloadPackage(context.Background(), peanutButter, out)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "PeanutButter.Utils.1.0.117", res.FullName)
	assert.Equal(t, filepath.Join(out, "PeanutButter.Utils.1.0.117"), res.FullPath)
	assert.Equal(t, filepath.Join(res.FullPath, "PeanutButter.Utils.1.0.117.nupkg"), res.ArchivePath)
	assert.Equal(t, "1.0.117", res.Version)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{
		"PeanutButter.Utils.nuspec",
		"[Content_Types].xml",
		"_rels/.rels",
		"lib/net452/PeanutButter.Utils.dll",
		"package/services/metadata/core-properties/0123.psmdcp",
	}, res.Entries)

	assert.FileExists(t, filepath.Join(res.FullPath, "PeanutButter.Utils.nuspec"))
	assert.DirExists(t, filepath.Join(res.FullPath, "lib"))
	dll, err := os.ReadFile(filepath.Join(res.FullPath, "lib", "net452", "PeanutButter.Utils.dll"))
	require.NoError(t, err)
	assert.Equal(t, "MZ not really a dll", string(dll))

	raw, err := os.ReadFile(res.ArchivePath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(archive, raw), "raw archive differs from the served bytes")

	assert.Equal(t, []string{
		"downloading PeanutButter.Utils.1.0.117",
		"extracting PeanutButter.Utils.1.0.117",
	}, lines)
}

func TestDownloadPackageRelativeOutputDir(t *testing.T) {
	f := newFixtureRegistry(t, buildArchive(t, packageEntries))
	c := f.client(t)

	dir := t.TempDir()
	t.Chdir(dir)

	res, err := c.DownloadPackage(context.Background(), peanutButter, ".")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, filepath.IsAbs(res.FullPath), "FullPath %q is not absolute", res.FullPath)
	assert.FileExists(t, filepath.Join(dir, "PeanutButter.Utils.1.0.117", "PeanutButter.Utils.nuspec"))
}

func TestDownloadPackageIdempotent(t *testing.T) {
	f := newFixtureRegistry(t, buildArchive(t, packageEntries))
	c := f.client(t)
	out := t.TempDir()
	ctx := context.Background()

	first, err := c.DownloadPackage(ctx, peanutButter, out)
	require.NoError(t, err)
	require.NotNil(t, first)

	stale := filepath.Join(first.FullPath, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("left over"), 0644))

	second, err := c.DownloadPackage(ctx, peanutButter, out)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.NoFileExists(t, stale)
	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.FullPath, second.FullPath)
	assert.EqualValues(t, 2, f.archiveHits.Load())
	assert.EqualValues(t, 1, f.indexHits.Load())
}

func TestDownloadPackageNotFound(t *testing.T) {
	f := newFixtureRegistry(t, buildArchive(t, packageEntries))
	c := f.client(t)
	out := t.TempDir()

	res, err := c.DownloadPackage(context.Background(), PackageIdentifier{PackageID: "No.Such.Package"}, out)
	require.NoError(t, err)
	assert.Nil(t, res)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.EqualValues(t, 0, f.archiveHits.Load())
}

func TestDownloadPackageUnreadableEntry(t *testing.T) {
	const marker = "CORRUPT-ME-CORRUPT-ME"
	entries := append([]zipEntry{{name: "broken.txt", body: marker}}, packageEntries...)
	archive := buildArchive(t, entries)

	// Stored entries keep their bytes verbatim, so flipping them breaks the CRC.
	i := bytes.Index(archive, []byte(marker))
	require.GreaterOrEqual(t, i, 0)
	copy(archive[i:], strings.Repeat("x", len(marker)))

	f := newFixtureRegistry(t, archive)
	c := f.client(t)
	var lines []string
	c.AddLogger(func(msg string) { lines = append(lines, msg) })

	res, err := c.DownloadPackage(context.Background(), peanutButter, t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "broken.txt", res.Warnings[0].Entry)
	assert.Error(t, res.Warnings[0].Err)
	assert.NotContains(t, res.Entries, "broken.txt")
	assert.Contains(t, res.Entries, "PeanutButter.Utils.nuspec")
	assert.NoFileExists(t, filepath.Join(res.FullPath, "broken.txt"))

	var warned bool
	for _, l := range lines {
		if strings.HasPrefix(l, "WARN: skipping broken.txt") {
			warned = true
		}
	}
	assert.True(t, warned, "no warning line in %q", lines)
}

func TestDownloadPackageBadArchive(t *testing.T) {
	f := newFixtureRegistry(t, []byte("this is not a zip file"))
	_, err := f.client(t).DownloadPackage(context.Background(), peanutButter, t.TempDir())
	require.Error(t, err)
	assert.True(t, nferrors.Is(err, nferrors.ErrCodeInvalidResponse), "got %v", err)
}

func TestDownloadPackageOutputIsFile(t *testing.T) {
	f := newFixtureRegistry(t, buildArchive(t, packageEntries))
	out := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(out, nil, 0644))

	_, err := f.client(t).DownloadPackage(context.Background(), peanutButter, out)
	require.Error(t, err)
	assert.True(t, nferrors.Is(err, nferrors.ErrCodeFilesystem), "got %v", err)
}

func TestDownloadPackageCanceled(t *testing.T) {
	f := newFixtureRegistry(t, buildArchive(t, packageEntries))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.client(t).DownloadPackage(ctx, peanutButter, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

type countingWriter struct {
	n      int64
	total  int64
	closed bool
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

func (w *countingWriter) Close() error {
	w.closed = true
	return nil
}

func TestDownloadPackageProgress(t *testing.T) {
	archive := buildArchive(t, packageEntries)
	f := newFixtureRegistry(t, archive)

	w := &countingWriter{}
	c := f.client(t, WithProgress(func(total int64) io.WriteCloser {
		w.total = total
		return w
	}))

	_, err := c.DownloadPackage(context.Background(), peanutButter, t.TempDir())
	require.NoError(t, err)
	assert.EqualValues(t, len(archive), w.n)
	assert.EqualValues(t, len(archive), w.total)
	assert.True(t, w.closed)
}

func TestEntryPath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "Foo.1.0.0")

	tests := []struct {
		name    string
		entry   string
		want    string
		wantErr bool
	}{
		{name: "file", entry: "Foo.nuspec", want: filepath.Join(target, "Foo.nuspec")},
		{name: "nested", entry: "lib/net8.0/Foo.dll", want: filepath.Join(target, "lib", "net8.0", "Foo.dll")},
		{name: "directory", entry: "lib/", want: filepath.Join(target, "lib")},
		{name: "parent", entry: "../evil.txt", wantErr: true},
		{name: "deep parent", entry: "lib/../../evil.txt", wantErr: true},
		{name: "absolute", entry: "/etc/passwd", wantErr: true},
		{name: "empty", entry: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entryPath(target, tt.entry)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
