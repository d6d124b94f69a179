package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the web server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Dir is the directory whose Org files make up the agenda.
	Dir string `yaml:"dir" json:"dir"`

	// Listen is the HTTP listen address for the web server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone Org timestamps are interpreted in. Org
	// timestamps carry no zone of their own.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a standard five-field cron spec for periodic reloads.
	// Empty disables scheduled refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Watch reloads the library when files in Dir change.
	Watch bool `yaml:"watch" json:"watch"`

	// WatchDebounceMs is how long file events are collected before a reload.
	WatchDebounceMs int `yaml:"watch_debounce_ms" json:"watch_debounce_ms"`

	// Include and Exclude are doublestar patterns matched against file
	// names inside Dir.
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`

	// MaxFileBytes caps the size of a single loaded file.
	MaxFileBytes int64 `yaml:"max_file_bytes" json:"max_file_bytes"`

	// TodoKeywords are the headline keywords stripped from agenda labels.
	TodoKeywords []string `yaml:"todo_keywords" json:"todo_keywords"`

	// CalendarName is the name of the exported iCalendar feed.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// PreviewPath is where captured agenda screenshots are stored.
	PreviewPath string `yaml:"preview_path" json:"preview_path"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen          = "127.0.0.1:8080"
	defaultWeekStart       = "monday"
	defaultRefreshCron     = "*/15 * * * *"
	defaultWatchDebounceMs = 250
	defaultMaxFileBytes    = 8 << 20
	defaultCalendarName    = "orgcal"
	defaultPreviewPath     = "./cache/preview.png"
)

func defaultInclude() []string { return []string{"*"} }

func defaultExclude() []string { return []string{".#*", "*~", "#*#"} }

func defaultTodoKeywords() []string { return []string{"TODO", "DONE"} }

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dir:             ".",
		Listen:          defaultListen,
		Timezone:        "Local",
		WeekStart:       defaultWeekStart,
		RefreshCron:     defaultRefreshCron,
		Watch:           true,
		WatchDebounceMs: defaultWatchDebounceMs,
		Include:         defaultInclude(),
		Exclude:         defaultExclude(),
		MaxFileBytes:    defaultMaxFileBytes,
		TodoKeywords:    defaultTodoKeywords(),
		CalendarName:    defaultCalendarName,
		PreviewPath:     defaultPreviewPath,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = defaultWeekStart
	}
	if c.WatchDebounceMs <= 0 {
		c.WatchDebounceMs = defaultWatchDebounceMs
	}
	if len(c.Include) == 0 {
		c.Include = defaultInclude()
	}
	if c.Exclude == nil {
		c.Exclude = defaultExclude()
	}
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = defaultMaxFileBytes
	}
	if len(c.TodoKeywords) == 0 {
		c.TodoKeywords = defaultTodoKeywords()
	}
	if c.CalendarName == "" {
		c.CalendarName = defaultCalendarName
	}
	if c.PreviewPath == "" {
		c.PreviewPath = defaultPreviewPath
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// FirstWeekday maps WeekStart to a time.Weekday.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// WatchDebounce returns WatchDebounceMs as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and defaults are filled in.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700 if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".orgcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
