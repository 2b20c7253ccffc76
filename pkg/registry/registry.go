// Package registry caches the asset store's hardware-model catalog in
// memory, keyed by model number, so the reconciler never issues redundant
// model-creation calls. The cache is populated once at startup and appended
// to whenever a new model is created mid-pass.
package registry

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/macbridge/snipesync/pkg/inventory"
	"github.com/macbridge/snipesync/pkg/logging"
)

// ModelLister retrieves the complete hardware-model catalog. The client
// behind it is responsible for pagination completeness; Load trusts that
// the returned slice is the full catalog.
type ModelLister interface {
	Models(ctx context.Context) ([]inventory.Model, error)
}

// ModelCreator creates one hardware model in the asset store. The bool
// return reports success; failures are logged by the client and are
// non-fatal to the pass.
type ModelCreator interface {
	CreateModel(ctx context.Context, payload inventory.ModelPayload) (*inventory.Model, bool)
}

// Registry maps model numbers to asset-store model IDs. Every entry
// corresponds to a model record that already exists in the asset store.
// It is only ever touched by the single reconciler goroutine, so it
// carries no locking.
type Registry struct {
	ids            map[string]int
	failed         map[string]bool
	manufacturerID int
	categoryID     int
	logger         *zerolog.Logger
}

// New creates an empty registry. Models created through GetOrCreate are
// assigned the given manufacturer and category.
func New(manufacturerID, categoryID int, logger *zerolog.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		ids:            make(map[string]int),
		failed:         make(map[string]bool),
		manufacturerID: manufacturerID,
		categoryID:     categoryID,
		logger:         logger,
	}
}

// Load drains the full model catalog into the registry. Models without a
// model number cannot be matched against the MDM's identifier and are
// skipped.
func (r *Registry) Load(ctx context.Context, lister ModelLister) error {
	models, err := lister.Models(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		if m.ModelNumber == "" {
			r.logger.Debug().Int("model_id", m.ID).Str("name", m.Name).
				Msg("Skipping model without a model number")
			continue
		}
		r.ids[m.ModelNumber] = m.ID
	}
	r.logger.Info().Int("models", len(r.ids)).Msg("Model registry loaded")
	return nil
}

// ID returns the cached model ID for a model number.
func (r *Registry) ID(modelNumber string) (int, bool) {
	id, ok := r.ids[modelNumber]
	return id, ok
}

// Put records a model number to ID pairing.
func (r *Registry) Put(modelNumber string, id int) {
	r.ids[modelNumber] = id
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.ids)
}

// GetOrCreate returns the model ID for an identifier, creating the model
// in the asset store on a cache miss. A false return means the model is
// not available this pass (creation failed); the caller skips the device
// and it is retried on a future pass. A failed identifier is remembered so
// every later device with the same model skips the doomed creation call
// instead of re-issuing it.
func (r *Registry) GetOrCreate(ctx context.Context, creator ModelCreator, identifier, displayName string) (int, bool) {
	if id, ok := r.ids[identifier]; ok {
		return id, true
	}
	if r.failed[identifier] {
		r.logger.Debug().Str("model_identifier", identifier).
			Msg("Model creation already failed this pass, not retrying")
		return 0, false
	}

	r.logger.Info().Str("model_identifier", identifier).Str("name", displayName).
		Msg("Model not in asset store, creating")

	created, ok := creator.CreateModel(ctx, inventory.ModelPayload{
		Name:           displayName,
		ModelNumber:    identifier,
		ManufacturerID: r.manufacturerID,
		CategoryID:     r.categoryID,
	})
	if !ok {
		r.failed[identifier] = true
		return 0, false
	}

	r.ids[created.ModelNumber] = created.ID
	return created.ID, true
}
