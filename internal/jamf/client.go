// Package jamf wraps the MDM's REST API: device enumeration, per-device
// detail fetches, and the asset-tag write-back. Rate-limited responses are
// classified from the provider's error-body marker and retried once after
// a fixed cooldown.
package jamf

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/macbridge/snipesync/internal/transport"
	"github.com/macbridge/snipesync/pkg/constants"
	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/inventory"
	"github.com/macbridge/snipesync/pkg/logging"
)

// rateLimitMarker is the provider-specific string the MDM embeds in the
// body of a rate-limited error response. It is the only place this marker
// is known; everything downstream sees a typed rate-limit error.
const rateLimitMarker = "policies.ratelimit"

// Client talks to the MDM REST API.
type Client struct {
	base      string
	transport *transport.Client
	cooldown  time.Duration
	sleep     func(time.Duration)
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

// New creates an MDM client for the given base URL and basic-auth
// credentials. Configuration is passed in explicitly; the client keeps no
// ambient global state.
func New(baseURL, user, password string, opts ...Option) *Client {
	c := &Client{
		base:      strings.TrimRight(baseURL, "/"),
		transport: transport.New(&transport.BasicAuth{User: user, Password: password}),
		cooldown:  constants.RateLimitCooldown,
		sleep:     time.Sleep,
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping probes connectivity to the MDM. A failure here is fatal to the run.
func (c *Client) Ping(ctx context.Context) error {
	url := c.base + "/computers"
	body, status, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return errors.NewAPIError("jamf", status, url, truncate(body))
	}
	return nil
}

// ListDevices enumerates every device the MDM knows about.
func (c *Client) ListDevices(ctx context.Context) ([]inventory.DeviceSummary, error) {
	url := c.base + "/computers"
	body, status, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, errors.NewAPIError("jamf", status, url, truncate(body))
	}

	var payload struct {
		Computers []inventory.DeviceSummary `json:"computers"`
	}
	if err := transport.DecodeJSON(body, &payload); err != nil {
		return nil, err
	}
	return payload.Computers, nil
}

// Device retrieves the full detail record for one device. A non-success
// response is logged and reported as "no record" (nil, nil) so the pass
// continues with the next device.
func (c *Client) Device(ctx context.Context, id int) (*inventory.Device, error) {
	url := fmt.Sprintf("%s/computers/id/%d", c.base, id)
	body, status, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.logger.Warn().Err(err).Int("device_id", id).Msg("Device detail request failed")
		return nil, nil
	}
	if status < 200 || status > 299 {
		c.logger.Warn().Int("device_id", id).Int("status", status).
			Msg("Device detail returned non-success status")
		return nil, nil
	}

	device, err := parseDevice(body)
	if err != nil {
		c.logger.Warn().Err(err).Int("device_id", id).Msg("Device detail body malformed")
		return nil, nil
	}
	return device, nil
}

// WriteAssetTag pushes the asset store's canonical tag back into the MDM
// record. The MDM answers 201 on success. Failures are non-fatal: they are
// logged and the pass continues.
func (c *Client) WriteAssetTag(ctx context.Context, id int, tag string) bool {
	url := fmt.Sprintf("%s/computers/id/%d", c.base, id)

	update := computerUpdate{}
	update.General.ID = id
	update.General.AssetTag = tag
	payload, err := xml.Marshal(update)
	if err != nil {
		c.logger.Error().Err(err).Int("device_id", id).Msg("Could not encode asset-tag update")
		return false
	}

	body, status, err := c.do(ctx, http.MethodPut, url, payload, "text/xml")
	if err != nil {
		c.logger.Warn().Err(err).Int("device_id", id).Msg("Asset-tag write-back request failed")
		return false
	}
	if status != http.StatusCreated {
		c.logger.Warn().Int("device_id", id).Int("status", status).Str("body", truncate(body)).
			Msg("Asset-tag write-back rejected")
		return false
	}

	c.logger.Info().Int("device_id", id).Str("asset_tag", tag).Msg("Asset tag written back to MDM")
	return true
}

// computerUpdate is the XML body the MDM expects for an asset-tag update.
type computerUpdate struct {
	XMLName xml.Name `xml:"computer"`
	General struct {
		ID       int    `xml:"id"`
		AssetTag string `xml:"asset_tag"`
	} `xml:"general"`
}

// do issues one request and applies the rate-limit policy: if the response
// carries the provider's rate-limit marker, sleep the cooldown and re-issue
// the same request exactly once. A second rate-limited response surfaces as
// a typed rate-limit error.
func (c *Client) do(ctx context.Context, method, url string, payload []byte, contentType string) ([]byte, int, error) {
	retried := false
	for {
		var resp *http.Response
		var err error
		if contentType != "" {
			resp, err = c.transport.RequestString(ctx, method, url, string(payload), contentType)
		} else {
			resp, err = c.transport.Request(ctx, method, url, nil)
		}
		if err != nil {
			return nil, 0, errors.WrapAPI("jamf", 0, url, err)
		}
		body, status, err := transport.Drain(resp)
		if err != nil {
			return nil, status, err
		}

		if (status < 200 || status > 299) && isRateLimited(body) {
			if !retried {
				c.logger.Warn().Str("endpoint", url).Dur("cooldown", c.cooldown).
					Msg("MDM rate limit hit, cooling down before one retry")
				c.sleep(c.cooldown)
				retried = true
				continue
			}
			return nil, status, &errors.RateLimitError{System: "jamf", Endpoint: url, Marker: rateLimitMarker}
		}
		return body, status, nil
	}
}

// isRateLimited reports whether an error body carries the MDM's
// rate-limit marker.
func isRateLimited(body []byte) bool {
	return bytes.Contains(body, []byte(rateLimitMarker))
}

// truncate bounds response bodies quoted in log messages and errors.
func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
