// Package mapping translates the declarative field-mapping configuration
// into concrete (source subset/field, target key) pairs the reconciler
// copies from MDM device records onto asset records.
package mapping

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/macbridge/snipesync/pkg/errors"
	"github.com/macbridge/snipesync/pkg/inventory"
)

// ValidSubsets is the fixed set of named field groups an MDM device record
// can carry. Mapping entries referencing anything else are rejected before
// a sync pass starts.
var ValidSubsets = map[string]bool{
	"general":                true,
	"location":               true,
	"purchasing":             true,
	"peripherals":            true,
	"hardware":               true,
	"certificates":           true,
	"software":               true,
	"extension_attributes":   true,
	"groups_accounts":        true,
	"iphones":                true,
	"configuration_profiles": true,
}

// Entry maps one MDM field onto one asset-store key: read
// device[Subset][Field], write it to TargetKey on the asset.
type Entry struct {
	TargetKey string `yaml:"target_key"`
	Subset    string `yaml:"subset"`
	Field     string `yaml:"field"`
}

// Resolve reads the entry's source value from a device record, normalized
// to its string form. The second return reports whether the value exists.
func (e Entry) Resolve(device *inventory.Device) (string, bool) {
	return device.SubsetValue(e.Subset, e.Field)
}

// Mappings is an ordered list of field-mapping entries.
type Mappings []Entry

// document is the on-disk shape of a mappings file.
type document struct {
	Mappings []Entry `yaml:"mappings"`
}

// LoadFile reads and validates a YAML mappings document.
func LoadFile(path string) (Mappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("mappings", "cannot read mappings file "+path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	m := Mappings(doc.Mappings)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate enforces unique target keys and membership of every subset name
// in the fixed valid set.
func (m Mappings) Validate() error {
	seen := make(map[string]bool, len(m))
	for _, e := range m {
		if e.TargetKey == "" {
			return errors.NewValidationError("target_key", e.TargetKey, "target key must not be empty")
		}
		if seen[e.TargetKey] {
			return errors.NewValidationError("target_key", e.TargetKey, "duplicate target key")
		}
		seen[e.TargetKey] = true
		if !ValidSubsets[e.Subset] {
			return errors.NewValidationError("subset", e.Subset, "unknown MDM subset")
		}
		if e.Field == "" {
			return errors.NewValidationError("field", e.Field, "source field must not be empty")
		}
	}
	return nil
}
