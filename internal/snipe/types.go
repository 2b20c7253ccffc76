package snipe

import (
	"encoding/json"
	"sort"

	"github.com/macbridge/snipesync/pkg/inventory"
)

// ref is a nested {id, name} reference the asset store uses for foreign
// keys (model, status label, manufacturer, category).
type ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// timestamp accepts both wire shapes the asset store uses for datetimes:
// a plain string and a {"datetime": ..., "formatted": ...} object.
type timestamp string

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = timestamp(s)
		return nil
	}
	var obj struct {
		Datetime string `json:"datetime"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = timestamp(obj.Datetime)
	return nil
}

// customFields decodes the asset store's custom-fields object, which is
// keyed by display name with {field, value} entries. Entries are sorted by
// field name so verification output is deterministic.
type customFields []inventory.CustomField

func (c *customFields) UnmarshalJSON(data []byte) error {
	var raw map[string]struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// Some responses serialize an empty set as an array.
		var empty []any
		if arrErr := json.Unmarshal(data, &empty); arrErr == nil && len(empty) == 0 {
			*c = nil
			return nil
		}
		return err
	}
	fields := make([]inventory.CustomField, 0, len(raw))
	for _, entry := range raw {
		fields = append(fields, inventory.CustomField{Field: entry.Field, Value: entry.Value})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	*c = fields
	return nil
}

// apiAsset is one asset record as the store returns it.
type apiAsset struct {
	ID           int          `json:"id"`
	AssetTag     string       `json:"asset_tag"`
	Serial       string       `json:"serial"`
	Name         string       `json:"name"`
	Model        ref          `json:"model"`
	StatusLabel  ref          `json:"status_label"`
	UpdatedAt    timestamp    `json:"updated_at"`
	CustomFields customFields `json:"custom_fields"`
}

// toAsset converts the wire record to the domain type.
func (a *apiAsset) toAsset() *inventory.Asset {
	return &inventory.Asset{
		ID:           a.ID,
		AssetTag:     a.AssetTag,
		Serial:       a.Serial,
		Name:         a.Name,
		ModelID:      a.Model.ID,
		StatusID:     a.StatusLabel.ID,
		UpdatedAt:    string(a.UpdatedAt),
		CustomFields: a.CustomFields,
	}
}

// apiModel is one hardware model record as the store returns it.
type apiModel struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ModelNumber  string `json:"model_number"`
	Manufacturer ref    `json:"manufacturer"`
	Category     ref    `json:"category"`
}

// toModel converts the wire record to the domain type.
func (m *apiModel) toModel() inventory.Model {
	return inventory.Model{
		ID:             m.ID,
		Name:           m.Name,
		ModelNumber:    m.ModelNumber,
		ManufacturerID: m.Manufacturer.ID,
		CategoryID:     m.Category.ID,
	}
}

// listResponse is the paginated {total, rows} envelope.
type listResponse[T any] struct {
	Total int `json:"total"`
	Rows  []T `json:"rows"`
}

// writeResponse is the envelope for create/update calls.
type writeResponse struct {
	Status   string          `json:"status"`
	Messages json.RawMessage `json:"messages"`
	Payload  json.RawMessage `json:"payload"`
}
