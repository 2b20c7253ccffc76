// Package constants provides shared constants used throughout the snipesync
// codebase: timeouts, the rate-limit cooldown, and the inventory sentinels
// both remote systems rely on.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the
	// MDM and asset-store APIs
	DefaultHTTPTimeout = 30 * time.Second

	// RateLimitCooldown is how long a client waits after a rate-limited
	// response before re-issuing the request once
	RateLimitCooldown = 75 * time.Second
)

// Inventory sentinels and defaults
const (
	// SerialNotAvailable is the serial number the MDM reports for freshly
	// enrolled devices that have not completed a full inventory yet
	SerialNotAvailable = "Not Available"

	// PlaceholderTagPrefix prefixes synthesized asset tags for devices that
	// have no tag in the MDM. The prefix is non-numeric on purpose: tags
	// that do not start with a digit are never written back to the MDM.
	PlaceholderTagPrefix = "jamfid-"

	// DefaultModelsPageSize is the asset store's default page size for the
	// model catalog listing
	DefaultModelsPageSize = 50
)
