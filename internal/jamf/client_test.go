package jamf

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/logging"
)

const deviceDetailJSON = `{
	"computer": {
		"general": {
			"id": 10,
			"name": "kitchen-imac",
			"serial_number": "ABC123",
			"asset_tag": "",
			"report_date_utc": "2026-08-20T11:02:33.000+0000",
			"mac_address": "00:11:22:33:44:55"
		},
		"hardware": {
			"model_identifier": "MLH12",
			"model": "MacBook Pro (13-inch, 2016)",
			"os_version": "14.5"
		},
		"location": {
			"building": "HQ"
		}
	}
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(server.URL, "svc-sync", "hunter2",
		WithLogger(logging.NewNopLogger()),
		WithCooldown(time.Millisecond),
	)
	return client, server
}

func TestListDevices(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/computers", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "svc-sync", user)
		assert.Equal(t, "hunter2", pass)
		w.Write([]byte(`{"computers":[{"id":10,"name":"kitchen-imac"},{"id":11,"name":"lab-mini"}]}`))
	}))

	devices, err := client.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, 10, devices[0].ID)
	assert.Equal(t, "lab-mini", devices[1].Name)
}

func TestListDevicesUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	client := New(server.URL, "u", "p", WithLogger(logging.NewNopLogger()))
	_, err := client.ListDevices(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsUnreachable(err))
}

func TestDevice(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/computers/id/10", r.URL.Path)
		w.Write([]byte(deviceDetailJSON))
	}))

	device, err := client.Device(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, device)

	assert.Equal(t, 10, device.ID)
	assert.Equal(t, "ABC123", device.SerialNumber)
	assert.Equal(t, "MLH12", device.ModelIdentifier)
	assert.Equal(t, "MacBook Pro (13-inch, 2016)", device.ModelDisplayName)
	assert.Equal(t, "2026-08-20T11:02:33.000+0000", device.ReportTimestamp)

	// Raw subsets stay reachable for field-mapping resolution.
	v, ok := device.SubsetValue("general", "mac_address")
	require.True(t, ok)
	assert.Equal(t, "00:11:22:33:44:55", v)
	v, ok = device.SubsetValue("location", "building")
	require.True(t, ok)
	assert.Equal(t, "HQ", v)
}

func TestDeviceNonSuccessIsNoRecord(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	device, err := client.Device(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, device)
}

func TestDeviceRateLimitRetriesOnce(t *testing.T) {
	var hits atomic.Int32
	slept := 0

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"fault":{"detail":{"errorcode":"policies.ratelimit.QuotaViolation"}}}`))
			return
		}
		w.Write([]byte(deviceDetailJSON))
	}))
	client.sleep = func(d time.Duration) {
		slept++
		assert.Equal(t, client.cooldown, d)
	}

	device, err := client.Device(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 1, slept)
}

func TestDeviceRateLimitGivesUpAfterOneRetry(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`policies.ratelimit.QuotaViolation`))
	}))
	client.sleep = func(time.Duration) {}

	device, err := client.Device(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, device, "still rate-limited after the single retry is treated as no record")
	assert.Equal(t, int32(2), hits.Load())
}

func TestWriteAssetTag(t *testing.T) {
	var gotBody []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/computers/id/10", r.URL.Path)
		assert.Equal(t, "text/xml", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))

	ok := client.WriteAssetTag(context.Background(), 10, "1002")
	require.True(t, ok)

	var update computerUpdate
	require.NoError(t, xml.Unmarshal(gotBody, &update))
	assert.Equal(t, 10, update.General.ID)
	assert.Equal(t, "1002", update.General.AssetTag)
}

func TestWriteAssetTagNonSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	assert.False(t, client.WriteAssetTag(context.Background(), 10, "1002"))
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"computers":[]}`))
	}))
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPingStillRateLimitedIsTypedError(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`policies.ratelimit.QuotaViolation`))
	}))
	client.sleep = func(time.Duration) {}

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))
	assert.Equal(t, int32(2), hits.Load(), "exactly one retry before giving up")
}
