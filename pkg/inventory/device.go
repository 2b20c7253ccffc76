// Package inventory defines the domain types shared by the MDM and
// asset-store clients and the reconciler: device records, asset records,
// hardware models, and the serial-lookup outcome classification.
package inventory

// DeviceSummary identifies one device in the MDM's enumeration listing.
type DeviceSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Device is the full MDM record for one device, snapshotted per sync pass.
// The well-known fields the reconciler branches on are lifted out of the
// raw subsets; everything else stays reachable through Subsets for
// field-mapping resolution.
type Device struct {
	ID               int
	SerialNumber     string
	Name             string
	AssetTag         string
	ModelIdentifier  string
	ModelDisplayName string

	// ReportTimestamp is the MDM's last-inventory time as an ISO8601
	// string, compared lexically against the asset store's updated_at.
	ReportTimestamp string

	// Subsets holds the named field groups of the MDM record
	// (general, hardware, location, purchasing, ...).
	Subsets map[string]map[string]any
}

// SubsetValue reads one field from a named subset of the device record,
// normalized to its string form. The second return reports whether the
// subset and field both exist.
func (d *Device) SubsetValue(subset, field string) (string, bool) {
	fields, ok := d.Subsets[subset]
	if !ok {
		return "", false
	}
	v, ok := fields[field]
	if !ok {
		return "", false
	}
	return Stringify(v), true
}
