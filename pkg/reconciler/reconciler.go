// Package reconciler drives the per-device decision procedure: for every
// device the MDM knows about, ensure a matching asset exists in the asset
// store, create it if missing, copy mapped fields when the MDM's data is
// newer, and push the store's canonical asset tag back into the MDM.
package reconciler

import (
	"context"
	"strconv"
	"time"

	"github.com/macbridge/snipesync/pkg/constants"
	"github.com/macbridge/snipesync/pkg/inventory"
	"github.com/macbridge/snipesync/pkg/registry"
)

// MDM is the device source of truth: enumeration, per-device detail, and
// the asset-tag write-back.
type MDM interface {
	Ping(ctx context.Context) error
	ListDevices(ctx context.Context) ([]inventory.DeviceSummary, error)
	Device(ctx context.Context, id int) (*inventory.Device, error)
	WriteAssetTag(ctx context.Context, id int, tag string) bool
}

// AssetStore is the reconciliation target. It also serves the model
// registry's lister and creator roles.
type AssetStore interface {
	FindBySerial(ctx context.Context, serial string) (inventory.Lookup, *inventory.Asset)
	Models(ctx context.Context) ([]inventory.Model, error)
	CreateModel(ctx context.Context, payload inventory.ModelPayload) (*inventory.Model, bool)
	CreateAsset(ctx context.Context, payload inventory.AssetPayload) bool
	UpdateAsset(ctx context.Context, id int, payload map[string]string) bool
}

// Reconciler runs one sync pass, strictly sequentially: one device is fully
// processed before the next begins, and the model registry is only ever
// touched from this single flow of control.
type Reconciler struct {
	mdm      MDM
	store    AssetStore
	registry *registry.Registry
	opts     options
}

// New creates a Reconciler over the two clients and a model registry.
func New(mdm MDM, store AssetStore, reg *registry.Registry, opts ...Option) (*Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		mdm:      mdm,
		store:    store,
		registry: reg,
		opts:     o,
	}, nil
}

// Run executes one full reconciliation pass. Startup failures (unreachable
// MDM, incomplete model catalog, failed enumeration) abort the run before
// any device is processed; everything after that is per-device recoverable.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	result := &Result{Metadata: Metadata{StartTime: time.Now(), DryRun: r.opts.dryRun}}
	log := r.opts.logger

	if err := r.mdm.Ping(ctx); err != nil {
		return nil, err
	}
	log.Debug().Msg("MDM reachable")

	if err := r.registry.Load(ctx, r.store); err != nil {
		return nil, err
	}

	devices, err := r.mdm.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	result.Metadata.Devices = len(devices)
	log.Info().Int("devices", len(devices)).Msg("Device enumeration complete")

	if r.opts.dryRun {
		log.Info().Int("devices", len(devices)).Int("models", r.registry.Len()).
			Msg("Dry run: startup phase complete, no writes will be issued")
		result.finish()
		return result, nil
	}

	for _, summary := range devices {
		if err := ctx.Err(); err != nil {
			result.finish()
			return result, err
		}
		r.reconcileDevice(ctx, summary, result)
	}

	result.finish()
	log.Info().
		Int("processed", result.Processed).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("tag_writebacks", result.TagWritebacks).
		Int("skipped", result.Skipped).
		Int("conflicts", result.Conflicts).
		Int("errors", result.Errors).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation pass complete")
	return result, nil
}

// reconcileDevice applies the decision procedure to one device. Failures
// here never abort the pass.
func (r *Reconciler) reconcileDevice(ctx context.Context, summary inventory.DeviceSummary, result *Result) {
	log := r.opts.logger
	result.Processed++

	device, err := r.mdm.Device(ctx, summary.ID)
	if err != nil || device == nil {
		result.Skipped++
		return
	}

	var modelID int
	modelOK := false
	if device.ModelIdentifier != "" {
		modelID, modelOK = r.registry.GetOrCreate(ctx, r.store, device.ModelIdentifier, device.ModelDisplayName)
	}

	outcome, asset := r.store.FindBySerial(ctx, device.SerialNumber)
	switch outcome {
	case inventory.LookupNone:
		r.createAsset(ctx, device, modelID, modelOK, result)
	case inventory.LookupOne:
		r.updateAsset(ctx, device, asset, result)
	case inventory.LookupMulti:
		log.Warn().Str("serial", device.SerialNumber).Int("device_id", device.ID).
			Msg("Multiple assets share this serial; stale records need manual resolution")
		result.Conflicts++
	default:
		log.Warn().Str("serial", device.SerialNumber).Int("device_id", device.ID).
			Msg("Serial lookup failed, skipping device")
		result.Errors++
	}
}

// createAsset handles the no-match branch: a device the asset store has
// never seen.
func (r *Reconciler) createAsset(ctx context.Context, device *inventory.Device, modelID int, modelOK bool, result *Result) {
	log := r.opts.logger

	// Freshly-enrolled devices report no serial yet; there is nothing to
	// create until the MDM has real inventory for them.
	if device.SerialNumber == constants.SerialNotAvailable {
		log.Debug().Int("device_id", device.ID).Msg("Serial not available yet, skipping device")
		result.Skipped++
		return
	}

	tag := device.AssetTag
	if tag == "" {
		tag = constants.PlaceholderTagPrefix + strconv.Itoa(device.ID)
	}

	if !modelOK {
		log.Warn().Int("device_id", device.ID).Str("model_identifier", device.ModelIdentifier).
			Msg("No model ID available, asset creation deferred to a future pass")
		result.Skipped++
		return
	}

	payload := inventory.AssetPayload{
		AssetTag: tag,
		ModelID:  modelID,
		Name:     device.Name,
		StatusID: r.opts.defaultStatusID,
		Serial:   device.SerialNumber,
	}
	if r.store.CreateAsset(ctx, payload) {
		log.Info().Int("device_id", device.ID).Str("serial", device.SerialNumber).
			Str("asset_tag", tag).Msg("Created asset")
		result.Created++
	} else {
		result.Errors++
	}
}

// updateAsset handles the one-match branch: field sync when the MDM record
// is strictly newer, then the tag write-back, which is independent of the
// timestamp comparison.
func (r *Reconciler) updateAsset(ctx context.Context, device *inventory.Device, asset *inventory.Asset, result *Result) {
	log := r.opts.logger

	if device.ReportTimestamp > asset.UpdatedAt {
		updated := 0
		for _, entry := range r.opts.mappings {
			value, ok := entry.Resolve(device)
			if !ok {
				log.Debug().Int("device_id", device.ID).Str("subset", entry.Subset).
					Str("field", entry.Field).Msg("Mapped source field absent from device record")
				continue
			}
			current, _, _ := asset.Field(entry.TargetKey)
			if value == current {
				continue
			}
			if r.store.UpdateAsset(ctx, asset.ID, map[string]string{entry.TargetKey: value}) {
				updated++
			} else {
				result.Errors++
			}
		}
		if updated > 0 {
			log.Info().Int("asset_id", asset.ID).Int("fields", updated).Msg("Asset fields synced from MDM")
			result.Updated++
		}
	} else {
		log.Debug().Int("asset_id", asset.ID).
			Str("mdm_report", device.ReportTimestamp).Str("asset_updated", asset.UpdatedAt).
			Msg("Asset store record is current, no field sync")
	}

	// The asset store owns the canonical tag. Placeholder and other
	// non-numeric tags are never pushed back into the MDM.
	if device.AssetTag != asset.AssetTag && startsWithDigit(asset.AssetTag) {
		if r.mdm.WriteAssetTag(ctx, device.ID, asset.AssetTag) {
			result.TagWritebacks++
		} else {
			result.Errors++
		}
	}
}

// startsWithDigit reports whether a tag's first character is an ASCII digit.
func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}
