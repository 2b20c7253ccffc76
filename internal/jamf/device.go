package jamf

import (
	"github.com/macbridge/snipesync/internal/transport"
	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/inventory"
)

// parseDevice decodes the MDM's detail response into a device record. The
// well-known fields live in the general and hardware subsets; every subset
// is kept raw for field-mapping resolution.
func parseDevice(body []byte) (*inventory.Device, error) {
	var payload struct {
		Computer map[string]any `json:"computer"`
	}
	if err := transport.DecodeJSON(body, &payload); err != nil {
		return nil, err
	}
	if payload.Computer == nil {
		return nil, errors.New("device detail missing computer object")
	}

	subsets := make(map[string]map[string]any, len(payload.Computer))
	for name, raw := range payload.Computer {
		if fields, ok := raw.(map[string]any); ok {
			subsets[name] = fields
		}
	}

	general := subsets["general"]
	hardware := subsets["hardware"]

	return &inventory.Device{
		ID:               asInt(general["id"]),
		Name:             stringField(general, "name"),
		SerialNumber:     stringField(general, "serial_number"),
		AssetTag:         stringField(general, "asset_tag"),
		ReportTimestamp:  stringField(general, "report_date_utc"),
		ModelIdentifier:  stringField(hardware, "model_identifier"),
		ModelDisplayName: stringField(hardware, "model"),
		Subsets:          subsets,
	}, nil
}

// stringField reads one field from a decoded subset, empty when absent.
func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	return inventory.Stringify(v)
}

// asInt narrows a decoded JSON value to an int (JSON numbers decode as
// float64).
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
