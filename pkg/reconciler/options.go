package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/logging"
	"github.com/macbridge/snipesync/pkg/mapping"
)

// options holds the reconciler's configurable behavior.
type options struct {
	mappings        mapping.Mappings
	defaultStatusID int
	dryRun          bool
	logger          *zerolog.Logger
}

// Option configures a Reconciler.
type Option func(*options) error

// newOptions applies options over defaults and validates the result.
func newOptions(opts ...Option) (options, error) {
	o := options{
		logger: logging.Default(),
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return o, err
		}
	}
	if o.defaultStatusID <= 0 {
		return o, errors.NewValidationError("default_status_id", o.defaultStatusID,
			"a positive default status ID is required for asset creation")
	}
	return o, nil
}

// WithMappings sets the field-mapping entries applied on the update path.
// The entries are validated before the reconciler is constructed.
func WithMappings(m mapping.Mappings) Option {
	return func(o *options) error {
		if err := m.Validate(); err != nil {
			return err
		}
		o.mappings = m
		return nil
	}
}

// WithDefaultStatusID sets the status assigned to newly created assets.
func WithDefaultStatusID(id int) Option {
	return func(o *options) error {
		o.defaultStatusID = id
		return nil
	}
}

// WithDryRun makes Run stop after the read-only startup phase: connectivity
// check, model catalog load, and device enumeration happen, writes do not.
func WithDryRun(dryRun bool) Option {
	return func(o *options) error {
		o.dryRun = dryRun
		return nil
	}
}

// WithLogger sets the reconciler's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
