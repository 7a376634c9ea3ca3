package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"

	"github.com/matzehuels/nugetfetch/pkg/integrations"
)

// envPrefix prefixes every environment override, e.g. NUGETFETCH_SOURCE.
const envPrefix = "NUGETFETCH_"

// Index cache backends.
const (
	IndexCacheFile  = "file"
	IndexCacheRedis = "redis"
	IndexCacheNone  = "none"
)

// Settings are the tool's own options. They are read from the settings file,
// then the environment, then command-line flags, each overriding the last.
type Settings struct {
	Source      string        `toml:"source" env:"SOURCE"`
	User        string        `toml:"user" env:"USER"`
	Token       string        `toml:"token" env:"TOKEN"`
	Output      string        `toml:"output" env:"OUTPUT"`
	NuGetConfig string        `toml:"nuget_config" env:"NUGET_CONFIG"`
	IndexCache  string        `toml:"index_cache" env:"INDEX_CACHE"`
	RedisAddr   string        `toml:"redis_addr" env:"REDIS_ADDR"`
	Timeout     time.Duration `toml:"timeout" env:"TIMEOUT"`
	Retries     int           `toml:"retries" env:"RETRIES"`
}

// defaultSettings returns the built-in defaults.
func defaultSettings() Settings {
	return Settings{
		Output:     ".",
		IndexCache: IndexCacheFile,
		Timeout:    integrations.DefaultTimeout,
	}
}

// loadSettings merges defaults, the settings file at path (if it exists) and
// the environment. A missing file is not an error. The result is not
// validated; flags may still change it.
func loadSettings(path string, environ map[string]string) (Settings, error) {
	s := defaultSettings()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return s, fmt.Errorf("expand %s: %w", path, err)
		}
		if _, err := toml.DecodeFile(expanded, &s); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return s, fmt.Errorf("read settings %s: %w", expanded, err)
		}
	}

	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return s, fmt.Errorf("read environment: %w", err)
	}

	return s, nil
}

func (s *Settings) validate() error {
	switch s.IndexCache {
	case IndexCacheFile, IndexCacheNone:
	case IndexCacheRedis:
		if s.RedisAddr == "" {
			return fmt.Errorf("index cache %q needs redis_addr", s.IndexCache)
		}
	default:
		return fmt.Errorf("unknown index cache %q (want file, redis or none)", s.IndexCache)
	}
	if s.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", s.Retries)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", s.Timeout)
	}
	return nil
}

// flagValues are the global flags bound on the root command.
type flagValues struct {
	settings string
	source   string
	user     string
	token    string
	config   string
	noCache  bool
	timeout  time.Duration
	retries  int
}

func (f *flagValues) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.settings, "settings", defaultSettingsPath(), "settings file")
	flags.StringVarP(&f.source, "source", "s", "", "package source name or service index URL")
	flags.StringVar(&f.user, "user", "", "feed user name")
	flags.StringVar(&f.token, "token", "", "feed password or API token")
	flags.StringVar(&f.config, "nuget-config", "", "NuGet.Config to resolve source names from (default: auto-detect)")
	flags.BoolVar(&f.noCache, "no-cache", false, "do not persist discovered registry endpoints")
	flags.DurationVar(&f.timeout, "timeout", integrations.DefaultTimeout, "HTTP timeout per request")
	flags.IntVar(&f.retries, "retries", 0, "retry transient failures this many times")
}

// apply copies flags the user actually set over s.
func (f *flagValues) apply(flags *pflag.FlagSet, s *Settings) {
	if flags.Changed("source") {
		s.Source = f.source
	}
	if flags.Changed("user") {
		s.User = f.user
	}
	if flags.Changed("token") {
		s.Token = f.token
	}
	if flags.Changed("nuget-config") {
		s.NuGetConfig = f.config
	}
	if flags.Changed("no-cache") && f.noCache {
		s.IndexCache = IndexCacheNone
	}
	if flags.Changed("timeout") {
		s.Timeout = f.timeout
	}
	if flags.Changed("retries") {
		s.Retries = f.retries
	}
}

// defaultSettingsPath is $XDG_CONFIG_HOME/nugetfetch/config.toml, falling
// back to ~/.config.
func defaultSettingsPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	return filepath.Join("~", ".config", appName, "config.toml")
}
