package inventory

import "strconv"

// CustomField is one user-defined field on an asset record. Field is the
// asset store's internal column name; Value is whatever the store returned.
type CustomField struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Asset is one record in the asset store, found by serial number and
// mutated only through the asset-store client.
type Asset struct {
	ID           int
	AssetTag     string
	Serial       string
	Name         string
	ModelID      int
	StatusID     int
	UpdatedAt    string
	CustomFields []CustomField
}

// Field resolves a payload key against the asset's polymorphic field shape:
// built-in attributes first, then a scan of the custom-fields list for an
// entry whose field name matches. It returns the normalized string value,
// whether the hit was a custom field, and whether the key resolved at all.
func (a *Asset) Field(key string) (value string, custom bool, ok bool) {
	switch key {
	case "asset_tag":
		return a.AssetTag, false, true
	case "serial":
		return a.Serial, false, true
	case "name":
		return a.Name, false, true
	case "model_id":
		return strconv.Itoa(a.ModelID), false, true
	case "status_id":
		return strconv.Itoa(a.StatusID), false, true
	case "updated_at":
		return a.UpdatedAt, false, true
	}
	for _, cf := range a.CustomFields {
		if cf.Field == key {
			return Stringify(cf.Value), true, true
		}
	}
	return "", false, false
}

// AssetPayload is the minimal body for creating a new asset.
type AssetPayload struct {
	AssetTag string `json:"asset_tag"`
	ModelID  int    `json:"model_id"`
	Name     string `json:"name"`
	StatusID int    `json:"status_id"`
	Serial   string `json:"serial"`
}
