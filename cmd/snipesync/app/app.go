// Package app provides the application context and dependency management
// for the snipesync CLI: configuration loading, logger construction, and
// the wiring of the two inventory clients into the reconciler.
package app

import (
	"github.com/rs/zerolog"

	"github.com/macbridge/snipesync/cmd/snipesync/cmd"
	"github.com/macbridge/snipesync/internal/jamf"
	"github.com/macbridge/snipesync/internal/snipe"
	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/mapping"
	"github.com/macbridge/snipesync/pkg/registry"
)

// App holds the CLI's dependencies: configuration, logging, and lazily
// constructed API clients.
type App struct {
	version string
	commit  string
	date    string

	config *Config
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
func New(version, commit, date string) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "could not load configuration", err)
	}
	a.config = config

	logger := NewLogger(config)
	a.logger = &logger

	return a, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// MDM constructs the MDM client from configuration.
func (a *App) MDM() (cmd.MDM, error) {
	if err := a.config.validateJamf(); err != nil {
		return nil, err
	}
	return jamf.New(
		a.config.Jamf.URL,
		a.config.Jamf.User,
		a.config.Jamf.Password,
		jamf.WithLogger(a.logger),
	), nil
}

// AssetStore constructs the asset-store client from configuration.
func (a *App) AssetStore() (cmd.AssetStore, error) {
	if err := a.config.validateSnipe(); err != nil {
		return nil, err
	}
	return snipe.New(
		a.config.Snipe.URL,
		a.config.Snipe.APIKey,
		snipe.WithLogger(a.logger),
	), nil
}

// Registry constructs an empty model registry configured with the
// manufacturer and category new models are created under.
func (a *App) Registry() (*registry.Registry, error) {
	if a.config.Snipe.ManufacturerID <= 0 {
		return nil, errors.NewValidationError("snipe.manufacturer_id", a.config.Snipe.ManufacturerID,
			"a positive manufacturer ID is required")
	}
	if a.config.Snipe.CategoryID <= 0 {
		return nil, errors.NewValidationError("snipe.category_id", a.config.Snipe.CategoryID,
			"a positive category ID is required")
	}
	return registry.New(a.config.Snipe.ManufacturerID, a.config.Snipe.CategoryID, a.logger), nil
}

// Mappings loads and validates the field-mapping document. A missing
// mappings file means no field sync is configured, which is valid.
func (a *App) Mappings() (mapping.Mappings, error) {
	if a.config.MappingsFile == "" {
		return nil, nil
	}
	return mapping.LoadFile(a.config.MappingsFile)
}

// DefaultStatusID returns the status assigned to newly created assets.
func (a *App) DefaultStatusID() int {
	return a.config.Snipe.DefaultStatusID
}

// ValidateSync checks that everything a full sync pass needs is configured.
func (a *App) ValidateSync() error {
	return a.config.validateSync()
}
