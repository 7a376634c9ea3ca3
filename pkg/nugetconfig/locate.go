package nugetconfig

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"sync"
)

// configNamePattern matches NuGet.Config, nuget.config, NUGET_CONFIG and the like.
var configNamePattern = regexp.MustCompile(`(?i)nuget.config`)

// Locator finds the user-wide NuGet configuration file.
//
// The first successful lookup is remembered for the lifetime of the Locator;
// a miss is searched again on the next call, so a config created later in
// the process is still picked up.
type Locator struct {
	// GOOS selects the candidate list. Empty means runtime.GOOS.
	GOOS string
	// Getenv reads HOME and APPDATA. Nil means os.Getenv.
	Getenv func(string) string

	mu    sync.Mutex
	found string
}

// NewLocator creates a Locator for the running platform.
func NewLocator() *Locator {
	return &Locator{}
}

// Locate returns the path of the first matching config file, or "" when
// none of the candidate directories holds one.
func (l *Locator) Locate() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.found != "" {
		return l.found
	}
	for _, dir := range l.candidates() {
		if p := firstConfigIn(dir); p != "" {
			l.found = p
			return p
		}
	}
	return ""
}

// candidates lists the user-wide config directories in search order.
// https://learn.microsoft.com/en-us/nuget/consume-packages/configuring-nuget-behavior
func (l *Locator) candidates() []string {
	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if goos == "windows" {
		appdata := getenv("APPDATA")
		if !isDir(appdata) {
			return nil
		}
		return []string{
			filepath.Join(appdata, "NuGet", "config"),
			filepath.Join(appdata, "NuGet"),
		}
	}

	home := getenv("HOME")
	if !isDir(home) {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "NuGet", "config"),
		filepath.Join(home, ".nuget", "config"),
		filepath.Join(home, ".nuget", "NuGet"),
	}
}

// firstConfigIn returns the first regular file in dir, by name, whose name
// matches configNamePattern. Subdirectories are not searched.
func firstConfigIn(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		if !e.Type().IsRegular() || !configNamePattern.MatchString(e.Name()) {
			continue
		}
		return filepath.Join(dir, e.Name())
	}
	return ""
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
