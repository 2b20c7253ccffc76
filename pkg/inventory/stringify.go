package inventory

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Stringify normalizes a decoded JSON value to its string form so values
// from the two systems compare as plain strings regardless of the wire
// type either side chose (the MDM returns numbers for some fields the
// asset store stores as strings, and vice versa).
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
