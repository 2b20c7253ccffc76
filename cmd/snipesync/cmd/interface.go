// Package cmd implements the snipesync subcommands. Commands receive their
// dependencies through the App interface so they stay decoupled from
// configuration loading and construction order.
package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/macbridge/snipesync/pkg/mapping"
	"github.com/macbridge/snipesync/pkg/reconciler"
	"github.com/macbridge/snipesync/pkg/registry"
)

// MDM is the device-source surface commands hand to the reconciler.
type MDM = reconciler.MDM

// AssetStore adds the connectivity probe to the reconciler's store surface.
type AssetStore interface {
	Ping(ctx context.Context) error
	reconciler.AssetStore
}

// App is the dependency surface commands consume.
type App interface {
	// Logger returns the application logger.
	Logger() *zerolog.Logger

	// MDM constructs the MDM client from configuration.
	MDM() (MDM, error)

	// AssetStore constructs the asset-store client from configuration.
	AssetStore() (AssetStore, error)

	// Registry constructs an empty model registry.
	Registry() (*registry.Registry, error)

	// Mappings loads the field-mapping document, nil when none configured.
	Mappings() (mapping.Mappings, error)

	// DefaultStatusID returns the status assigned to newly created assets.
	DefaultStatusID() int

	// ValidateSync checks that a full sync pass is fully configured.
	ValidateSync() error

	// Version information.
	Version() string
	Commit() string
	Date() string
}
