package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"orgcal/internal/config"
	"orgcal/internal/library"
	"orgcal/internal/loader"
	"orgcal/internal/outline"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	Dir        string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "orgcal", "config.yaml")
}

// NewLibrary builds a library for the configured directory. Nothing is read
// until the first Reload.
func NewLibrary(cfg *config.Config) *library.Library {
	ld := loader.New(loader.Options{
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		MaxFileBytes: cfg.MaxFileBytes,
	})
	parser := outline.NewParser(outline.Options{
		Location:     cfg.Location(),
		TodoKeywords: cfg.TodoKeywords,
	})
	return library.New(cfg.Dir, ld, parser)
}

// openLibrary validates the config and returns a loaded library.
func (f *Flags) openLibrary(ctx context.Context) (*library.Library, error) {
	if f.Config == nil {
		return nil, errors.New("config not loaded")
	}
	if err := f.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", f.ConfigPath, err)
	}

	lib := NewLibrary(f.Config)
	if _, err := lib.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Config.Dir, err)
	}
	return lib, nil
}
