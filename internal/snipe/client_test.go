package snipe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/inventory"
	"github.com/macbridge/snipesync/pkg/logging"
)

const assetJSON = `{
	"id": 55,
	"asset_tag": "1002",
	"serial": "ABC123",
	"name": "kitchen-imac",
	"model": {"id": 7, "name": "MacBook Pro"},
	"status_label": {"id": 2, "name": "Deployed"},
	"updated_at": {"datetime": "2026-08-19 09:15:00", "formatted": "Wed Aug 19"},
	"custom_fields": {
		"MAC Address": {"field": "_snipeit_mac_address_1", "value": "00:11:22:33:44:55"}
	}
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(server.URL, "tok-123",
		WithLogger(logging.NewNopLogger()),
		WithCooldown(time.Millisecond),
	)
}

func TestFindBySerial(t *testing.T) {
	t.Run("one match", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/hardware/byserial/ABC123", r.URL.Path)
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			fmt.Fprintf(w, `{"total": 1, "rows": [%s]}`, assetJSON)
		}))

		outcome, asset := client.FindBySerial(context.Background(), "ABC123")
		require.Equal(t, inventory.LookupOne, outcome)
		require.NotNil(t, asset)
		assert.Equal(t, 55, asset.ID)
		assert.Equal(t, "1002", asset.AssetTag)
		assert.Equal(t, 7, asset.ModelID)
		assert.Equal(t, 2, asset.StatusID)
		assert.Equal(t, "2026-08-19 09:15:00", asset.UpdatedAt)

		v, custom, ok := asset.Field("_snipeit_mac_address_1")
		require.True(t, ok)
		assert.True(t, custom)
		assert.Equal(t, "00:11:22:33:44:55", v)
	})

	t.Run("no match", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"total": 0, "rows": []}`))
		}))

		outcome, asset := client.FindBySerial(context.Background(), "NEW999")
		assert.Equal(t, inventory.LookupNone, outcome)
		assert.Nil(t, asset)
	})

	t.Run("multiple matches", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, `{"total": 2, "rows": [%s, %s]}`, assetJSON, assetJSON)
		}))

		outcome, asset := client.FindBySerial(context.Background(), "DUP001")
		assert.Equal(t, inventory.LookupMulti, outcome)
		assert.Nil(t, asset)
	})

	t.Run("non-success status", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		outcome, _ := client.FindBySerial(context.Background(), "ABC123")
		assert.Equal(t, inventory.LookupError, outcome)
	})

	t.Run("reported match without a row is an error, not a duplicate", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"total": 1, "rows": []}`))
		}))

		outcome, asset := client.FindBySerial(context.Background(), "ABC123")
		assert.Equal(t, inventory.LookupError, outcome)
		assert.Nil(t, asset)
	})
}

// modelRows renders n model rows starting at the given ID.
func modelRows(start, n int) string {
	rows := make([]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, fmt.Sprintf(
			`{"id": %d, "name": "Model %d", "model_number": "MN-%d", "manufacturer": {"id": 1}, "category": {"id": 2}}`,
			start+i, start+i, start+i))
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func TestModels(t *testing.T) {
	t.Run("complete single page", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "50", r.URL.Query().Get("limit"), "first request asks for the default page size")
			fmt.Fprintf(w, `{"total": 3, "rows": %s}`, modelRows(1, 3))
		}))

		models, err := client.Models(context.Background())
		require.NoError(t, err)
		require.Len(t, models, 3)
		assert.Equal(t, "MN-1", models[0].ModelNumber)
		assert.Equal(t, 1, models[0].ManufacturerID)
		assert.Equal(t, 2, models[0].CategoryID)
	})

	t.Run("truncated page re-requested with explicit limit", func(t *testing.T) {
		var hits atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				assert.Equal(t, "50", r.URL.Query().Get("limit"))
				fmt.Fprintf(w, `{"total": 150, "rows": %s}`, modelRows(1, 50))
				return
			}
			assert.Equal(t, "150", r.URL.Query().Get("limit"))
			fmt.Fprintf(w, `{"total": 150, "rows": %s}`, modelRows(1, 150))
		}))

		models, err := client.Models(context.Background())
		require.NoError(t, err)
		assert.Len(t, models, 150)
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("still incomplete is fatal", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, `{"total": 150, "rows": %s}`, modelRows(1, 50))
		}))

		_, err := client.Models(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrIncompleteCatalog))
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		_, err := client.Models(context.Background())
		require.Error(t, err)
	})
}

func TestCreateModel(t *testing.T) {
	t.Run("success returns created record", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/models", r.URL.Path)

			var payload inventory.ModelPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "MLH12", payload.ModelNumber)
			assert.Equal(t, 9, payload.ManufacturerID)

			w.Write([]byte(`{"status": "success", "payload": {"id": 42, "name": "MacBook Pro", "model_number": "MLH12"}}`))
		}))

		model, ok := client.CreateModel(context.Background(), inventory.ModelPayload{
			Name: "MacBook Pro", ModelNumber: "MLH12", ManufacturerID: 9, CategoryID: 3,
		})
		require.True(t, ok)
		assert.Equal(t, 42, model.ID)
		assert.Equal(t, "MLH12", model.ModelNumber)
	})

	t.Run("error status is non-fatal failure", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"status": "error", "messages": {"model_number": ["already taken"]}}`))
		}))

		_, ok := client.CreateModel(context.Background(), inventory.ModelPayload{ModelNumber: "MLH12"})
		assert.False(t, ok)
	})
}

func TestCreateAsset(t *testing.T) {
	t.Run("HTTP 200 is created", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/hardware", r.URL.Path)

			var payload inventory.AssetPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "jamfid-10", payload.AssetTag)
			assert.Equal(t, "ABC123", payload.Serial)

			w.Write([]byte(`{"status": "success", "payload": {"id": 77}}`))
		}))

		ok := client.CreateAsset(context.Background(), inventory.AssetPayload{
			AssetTag: "jamfid-10", ModelID: 42, Name: "kitchen-imac", StatusID: 2, Serial: "ABC123",
		})
		assert.True(t, ok)
	})

	t.Run("anything but 200 is a failure", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"status": "success"}`))
		}))

		ok := client.CreateAsset(context.Background(), inventory.AssetPayload{Serial: "ABC123"})
		assert.False(t, ok)
	})
}

func TestUpdateAsset(t *testing.T) {
	returnedAsset := func(tag, mac string) string {
		return fmt.Sprintf(`{"status": "success", "payload": {
			"id": 55,
			"asset_tag": %q,
			"serial": "ABC123",
			"name": "kitchen-imac",
			"model": {"id": 7},
			"status_label": {"id": 2},
			"updated_at": "2026-08-20 10:00:00",
			"custom_fields": {
				"MAC Address": {"field": "_snipeit_mac_address_1", "value": %q}
			}
		}}`, tag, mac)
	}

	t.Run("all keys verify", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/hardware/55", r.URL.Path)
			w.Write([]byte(returnedAsset("1002", "00:11:22:33:44:55")))
		}))

		ok := client.UpdateAsset(context.Background(), 55, map[string]string{
			"asset_tag":              "1002",
			"_snipeit_mac_address_1": "00:11:22:33:44:55",
		})
		assert.True(t, ok)
	})

	t.Run("custom-field mismatch fails verification", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(returnedAsset("1002", "stale-value")))
		}))

		ok := client.UpdateAsset(context.Background(), 55, map[string]string{
			"_snipeit_mac_address_1": "00:11:22:33:44:55",
		})
		assert.False(t, ok)
	})

	t.Run("non-200 is a failure", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))

		ok := client.UpdateAsset(context.Background(), 55, map[string]string{"name": "x"})
		assert.False(t, ok)
	})
}

func TestRateLimitRetriesOnce(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"total": 0, "rows": []}`))
	}))

	slept := 0
	client.sleep = func(time.Duration) { slept++ }

	outcome, _ := client.FindBySerial(context.Background(), "ABC123")
	assert.Equal(t, inventory.LookupNone, outcome)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 1, slept)
}

func TestTimestampShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object shape", `{"datetime": "2026-08-19 09:15:00", "formatted": "x"}`, "2026-08-19 09:15:00"},
		{"string shape", `"2026-08-19T09:15:00Z"`, "2026-08-19T09:15:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.Equal(t, tt.want, string(ts))
		})
	}
}

func TestCustomFieldsEmptyArrayShape(t *testing.T) {
	var cf customFields
	require.NoError(t, json.Unmarshal([]byte(`[]`), &cf))
	assert.Empty(t, cf)
}
