package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macbridge/snipesync/pkg/inventory"
	"github.com/macbridge/snipesync/pkg/logging"
	"github.com/macbridge/snipesync/pkg/mapping"
	"github.com/macbridge/snipesync/pkg/registry"
)

type stubMDM struct {
	devices     []inventory.DeviceSummary
	sawDeadline bool
}

func (s *stubMDM) Ping(ctx context.Context) error {
	_, s.sawDeadline = ctx.Deadline()
	return nil
}

func (s *stubMDM) ListDevices(_ context.Context) ([]inventory.DeviceSummary, error) {
	return s.devices, nil
}

func (s *stubMDM) Device(_ context.Context, _ int) (*inventory.Device, error) {
	return nil, nil
}

func (s *stubMDM) WriteAssetTag(_ context.Context, _ int, _ string) bool {
	return true
}

type stubStore struct{}

func (s *stubStore) Ping(_ context.Context) error { return nil }

func (s *stubStore) FindBySerial(_ context.Context, _ string) (inventory.Lookup, *inventory.Asset) {
	return inventory.LookupNone, nil
}

func (s *stubStore) Models(_ context.Context) ([]inventory.Model, error) {
	return nil, nil
}

func (s *stubStore) CreateModel(_ context.Context, _ inventory.ModelPayload) (*inventory.Model, bool) {
	return nil, false
}

func (s *stubStore) CreateAsset(_ context.Context, _ inventory.AssetPayload) bool { return true }

func (s *stubStore) UpdateAsset(_ context.Context, _ int, _ map[string]string) bool { return true }

type stubApp struct {
	mdm   *stubMDM
	store *stubStore
}

func (a *stubApp) Logger() *zerolog.Logger { return logging.NewNopLogger() }

func (a *stubApp) MDM() (MDM, error) { return a.mdm, nil }

func (a *stubApp) AssetStore() (AssetStore, error) { return a.store, nil }

func (a *stubApp) Registry() (*registry.Registry, error) {
	return registry.New(1, 2, logging.NewNopLogger()), nil
}

func (a *stubApp) Mappings() (mapping.Mappings, error) { return nil, nil }

func (a *stubApp) DefaultStatusID() int { return 2 }

func (a *stubApp) ValidateSync() error { return nil }

func (a *stubApp) Version() string { return "test" }
func (a *stubApp) Commit() string  { return "none" }
func (a *stubApp) Date() string    { return "today" }

// A pass must run under the caller's signal context only. Rate-limit
// cooldowns can stretch a large fleet's pass well past any fixed bound, so
// the sync command never attaches a deadline of its own.
func TestSyncRunsWithoutDeadline(t *testing.T) {
	app := &stubApp{
		mdm:   &stubMDM{devices: []inventory.DeviceSummary{{ID: 1, Name: "kitchen-imac"}}},
		store: &stubStore{},
	}

	syncCmd := NewSyncCommand(app)
	syncCmd.SetArgs([]string{"--dry-run"})
	out := &bytes.Buffer{}
	syncCmd.SetOut(out)
	syncCmd.SetErr(out)

	require.NoError(t, syncCmd.ExecuteContext(context.Background()))
	assert.False(t, app.mdm.sawDeadline, "sync attached a deadline to the pass context")
	assert.Contains(t, out.String(), "Dry run")
}

func TestSyncFullPassSummary(t *testing.T) {
	app := &stubApp{
		mdm:   &stubMDM{devices: []inventory.DeviceSummary{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}},
		store: &stubStore{},
	}

	syncCmd := NewSyncCommand(app)
	syncCmd.SetArgs(nil)
	out := &bytes.Buffer{}
	syncCmd.SetOut(out)
	syncCmd.SetErr(out)

	require.NoError(t, syncCmd.ExecuteContext(context.Background()))
	assert.False(t, app.mdm.sawDeadline)
	assert.Contains(t, out.String(), "Processed 2 devices")
}
