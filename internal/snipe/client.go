// Package snipe wraps the asset store's REST API: serial search, the
// hardware-model catalog, asset creation, and verified partial updates.
// The model catalog fetch guarantees completeness (or fails the run), and
// HTTP 429 responses get one retry after a fixed cooldown.
package snipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/macbridge/snipesync/internal/transport"
	"github.com/macbridge/snipesync/pkg/constants"
	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/inventory"
	"github.com/macbridge/snipesync/pkg/logging"
)

// Client talks to the asset store's REST API.
type Client struct {
	base      string
	transport *transport.Client
	cooldown  time.Duration
	sleep     func(time.Duration)
	pageLimit int
	logger    *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCooldown overrides the rate-limit cooldown duration.
func WithCooldown(d time.Duration) Option {
	return func(c *Client) { c.cooldown = d }
}

// WithLogger sets the client's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithSleep replaces the cooldown sleep function. Used by tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleep = fn }
}

// New creates an asset-store client for the given base URL and API token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		base:      strings.TrimRight(baseURL, "/"),
		transport: transport.New(&transport.BearerAuth{Token: token}),
		cooldown:  constants.RateLimitCooldown,
		sleep:     time.Sleep,
		pageLimit: constants.DefaultModelsPageSize,
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping probes connectivity to the asset store.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := c.base + "/models?limit=1"
	body, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return errors.NewAPIError("snipe", status, endpoint, truncate(body))
	}
	return nil
}

// FindBySerial looks up the asset matching a serial number. The outcome is
// classified into exactly four cases from the reported match count and the
// HTTP status; a lookup failure never propagates as a raw transport error.
func (c *Client) FindBySerial(ctx context.Context, serial string) (inventory.Lookup, *inventory.Asset) {
	endpoint := c.base + "/hardware/byserial/" + url.PathEscape(serial)
	body, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("serial", serial).Msg("Serial lookup request failed")
		return inventory.LookupError, nil
	}
	if status != http.StatusOK {
		c.logger.Warn().Int("status", status).Str("serial", serial).Msg("Serial lookup returned non-success status")
		return inventory.LookupError, nil
	}

	var result listResponse[apiAsset]
	if err := transport.DecodeJSON(body, &result); err != nil {
		c.logger.Warn().Err(err).Str("serial", serial).Msg("Serial lookup body malformed")
		return inventory.LookupError, nil
	}

	switch {
	case result.Total == 0:
		return inventory.LookupNone, nil
	case result.Total == 1 && len(result.Rows) == 1:
		return inventory.LookupOne, result.Rows[0].toAsset()
	case result.Total > 1:
		return inventory.LookupMulti, nil
	default:
		// A reported match with no row is a malformed response, not a
		// duplicate serial.
		c.logger.Warn().Int("total", result.Total).Int("rows", len(result.Rows)).
			Str("serial", serial).Msg("Serial lookup count does not match returned rows")
		return inventory.LookupError, nil
	}
}

// Models retrieves the complete hardware-model catalog. A truncated first
// page is re-requested with an explicit limit covering the reported total;
// if the catalog still comes back incomplete the whole run must abort, so
// this returns an error rather than a partial list.
func (c *Client) Models(ctx context.Context) ([]inventory.Model, error) {
	endpoint := fmt.Sprintf("%s/models?limit=%d", c.base, c.pageLimit)
	result, err := c.fetchModels(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if result.Total > len(result.Rows) {
		c.logger.Debug().Int("total", result.Total).Int("rows", len(result.Rows)).
			Msg("Model catalog truncated, re-requesting with explicit limit")
		endpoint = fmt.Sprintf("%s/models?limit=%d", c.base, result.Total)
		result, err = c.fetchModels(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if result.Total > len(result.Rows) {
			return nil, fmt.Errorf("%w: store reports %d models but returned %d",
				errors.ErrIncompleteCatalog, result.Total, len(result.Rows))
		}
	}

	models := make([]inventory.Model, 0, len(result.Rows))
	for i := range result.Rows {
		models = append(models, result.Rows[i].toModel())
	}
	return models, nil
}

func (c *Client) fetchModels(ctx context.Context, endpoint string) (*listResponse[apiModel], error) {
	body, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.NewAPIError("snipe", status, endpoint, truncate(body))
	}
	var result listResponse[apiModel]
	if err := transport.DecodeJSON(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateModel creates a new hardware model. On success the created record
// is returned so the caller can register its model_number to ID pairing.
// Failure is non-fatal: the device being processed is retried next pass.
func (c *Client) CreateModel(ctx context.Context, payload inventory.ModelPayload) (*inventory.Model, bool) {
	endpoint := c.base + "/models"
	body, status, err := c.post(ctx, endpoint, payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("model_number", payload.ModelNumber).Msg("Model creation request failed")
		return nil, false
	}

	var result writeResponse
	if status != http.StatusOK || transport.DecodeJSON(body, &result) != nil || result.Status != "success" {
		c.logger.Warn().Int("status", status).Str("model_number", payload.ModelNumber).
			Str("body", truncate(body)).Msg("Model creation rejected")
		return nil, false
	}

	var created apiModel
	if err := json.Unmarshal(result.Payload, &created); err != nil {
		c.logger.Warn().Err(err).Str("model_number", payload.ModelNumber).
			Msg("Model creation response payload malformed")
		return nil, false
	}

	c.logger.Info().Int("model_id", created.ID).Str("model_number", created.ModelNumber).
		Msg("Created hardware model")
	model := created.toModel()
	return &model, true
}

// CreateAsset creates a new asset. Success is exactly HTTP 200.
func (c *Client) CreateAsset(ctx context.Context, payload inventory.AssetPayload) bool {
	endpoint := c.base + "/hardware"
	body, status, err := c.post(ctx, endpoint, payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("serial", payload.Serial).Msg("Asset creation request failed")
		return false
	}
	if status != http.StatusOK {
		c.logger.Warn().Int("status", status).Str("serial", payload.Serial).
			Str("body", truncate(body)).Msg("Asset creation rejected")
		return false
	}

	var result writeResponse
	if transport.DecodeJSON(body, &result) == nil && result.Status != "success" {
		c.logger.Warn().Str("serial", payload.Serial).Str("body", truncate(body)).
			Msg("Asset creation returned 200 with a non-success status")
	}
	return true
}

// UpdateAsset applies a partial update and verifies it took: every key in
// the payload is compared against the freshly-returned record, falling back
// to the custom-fields scan for keys that are not built-in attributes.
// Returns true only if every key verified.
func (c *Client) UpdateAsset(ctx context.Context, id int, payload map[string]string) bool {
	endpoint := fmt.Sprintf("%s/hardware/%d", c.base, id)
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error().Err(err).Int("asset_id", id).Msg("Could not encode asset update")
		return false
	}

	body, status, err := c.do(ctx, http.MethodPatch, endpoint, data)
	if err != nil {
		c.logger.Warn().Err(err).Int("asset_id", id).Msg("Asset update request failed")
		return false
	}
	if status != http.StatusOK {
		c.logger.Warn().Int("status", status).Int("asset_id", id).
			Str("body", truncate(body)).Msg("Asset update rejected")
		return false
	}

	var result writeResponse
	if err := transport.DecodeJSON(body, &result); err != nil {
		c.logger.Warn().Err(err).Int("asset_id", id).Msg("Asset update response malformed")
		return false
	}
	var updated apiAsset
	if err := json.Unmarshal(result.Payload, &updated); err != nil {
		c.logger.Warn().Err(err).Int("asset_id", id).Msg("Asset update response payload malformed")
		return false
	}

	asset := updated.toAsset()
	verified := true
	for key, want := range payload {
		got, _, ok := asset.Field(key)
		if !ok || got != want {
			c.logger.Warn().Int("asset_id", id).Str("key", key).
				Str("want", want).Str("got", got).
				Msg("Asset update did not verify")
			verified = false
		}
	}
	return verified
}

// post issues a JSON POST.
func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	return c.do(ctx, http.MethodPost, endpoint, data)
}

// do issues one request with the rate-limit policy applied: HTTP 429 gets
// one cooldown-then-retry of the same request.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, int, error) {
	retried := false
	for {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		resp, err := c.transport.Request(ctx, method, endpoint, reader)
		if err != nil {
			return nil, 0, errors.WrapAPI("snipe", 0, endpoint, err)
		}
		body, status, err := transport.Drain(resp)
		if err != nil {
			return nil, status, err
		}

		if status == http.StatusTooManyRequests && !retried {
			c.logger.Warn().Str("endpoint", endpoint).Dur("cooldown", c.cooldown).
				Msg("Asset store rate limit hit, cooling down before one retry")
			c.sleep(c.cooldown)
			retried = true
			continue
		}
		return body, status, nil
	}
}

// truncate bounds response bodies quoted in log messages and errors.
func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
