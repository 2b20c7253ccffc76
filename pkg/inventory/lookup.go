package inventory

// Lookup classifies the outcome of a serial-number search in the asset
// store. Every search resolves to exactly one of these; the reconciler
// never sees a raw transport failure.
type Lookup int

// Lookup outcomes.
const (
	// LookupError means the search itself failed (non-success status).
	LookupError Lookup = iota

	// LookupNone means no asset matched the serial.
	LookupNone

	// LookupOne means exactly one asset matched.
	LookupOne

	// LookupMulti means more than one asset matched; duplicate serials
	// need manual resolution before the device can be synced.
	LookupMulti
)

// String implements fmt.Stringer.
func (l Lookup) String() string {
	switch l {
	case LookupNone:
		return "no match"
	case LookupOne:
		return "one match"
	case LookupMulti:
		return "multiple matches"
	default:
		return "error"
	}
}
