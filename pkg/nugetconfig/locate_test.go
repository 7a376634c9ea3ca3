package nugetconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLocateUnix(t *testing.T) {
	home := t.TempDir()
	first := filepath.Join(home, ".config", "NuGet", "config")
	second := filepath.Join(home, ".nuget", "config")
	writeConfig(t, second, "NuGet.Config", oneSource)

	loc := &Locator{GOOS: "linux", Getenv: envMap(map[string]string{"HOME": home})}
	if got, want := loc.Locate(), filepath.Join(second, "NuGet.Config"); got != want {
		t.Fatalf("Locate() = %q, want %q", got, want)
	}

	// A config appearing in an earlier candidate later does not displace the
	// remembered path.
	writeConfig(t, first, "NuGet.Config", oneSource)
	if got, want := loc.Locate(), filepath.Join(second, "NuGet.Config"); got != want {
		t.Errorf("Locate() after new file = %q, want cached %q", got, want)
	}

	fresh := &Locator{GOOS: "linux", Getenv: envMap(map[string]string{"HOME": home})}
	if got, want := fresh.Locate(), filepath.Join(first, "NuGet.Config"); got != want {
		t.Errorf("fresh Locate() = %q, want %q", got, want)
	}
}

func TestLocateWindows(t *testing.T) {
	appdata := t.TempDir()
	dir := filepath.Join(appdata, "NuGet")
	writeConfig(t, dir, "NuGet.Config", oneSource)

	loc := &Locator{GOOS: "windows", Getenv: envMap(map[string]string{"APPDATA": appdata})}
	if got, want := loc.Locate(), filepath.Join(dir, "NuGet.Config"); got != want {
		t.Errorf("Locate() = %q, want %q", got, want)
	}
}

func TestLocateMissRetries(t *testing.T) {
	home := t.TempDir()
	loc := &Locator{GOOS: "darwin", Getenv: envMap(map[string]string{"HOME": home})}

	if got := loc.Locate(); got != "" {
		t.Fatalf("Locate() = %q, want empty", got)
	}

	dir := filepath.Join(home, ".nuget", "config")
	writeConfig(t, dir, "nuget.config", oneSource)
	if got, want := loc.Locate(), filepath.Join(dir, "nuget.config"); got != want {
		t.Errorf("Locate() after miss = %q, want %q", got, want)
	}
}

func TestLocateNoHome(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		goos string
	}{
		{"unset home", map[string]string{}, "linux"},
		{"home not a dir", map[string]string{"HOME": filepath.Join(os.TempDir(), "definitely-not-here-nugetfetch")}, "linux"},
		{"unset appdata", map[string]string{"HOME": os.TempDir()}, "windows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := &Locator{GOOS: tt.goos, Getenv: envMap(tt.env)}
			if got := loc.Locate(); got != "" {
				t.Errorf("Locate() = %q, want empty", got)
			}
		})
	}
}

func TestFirstConfigIn(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "readme.txt", "x")
	writeConfig(t, dir, "b-NuGet.Config", oneSource)
	writeConfig(t, dir, "a-nuget_config", oneSource)
	os.MkdirAll(filepath.Join(dir, "0-nuget.config"), 0755)

	if got, want := firstConfigIn(dir), filepath.Join(dir, "a-nuget_config"); got != want {
		t.Errorf("firstConfigIn() = %q, want %q", got, want)
	}
	if got := firstConfigIn(filepath.Join(dir, "missing")); got != "" {
		t.Errorf("firstConfigIn(missing) = %q, want empty", got)
	}
}
