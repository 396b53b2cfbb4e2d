package sqlgen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts lists the text forms the engine returns for stored times,
// most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DecodeString returns the text form of a scanned column value.
// NULL decodes to the empty string.
func DecodeString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// DecodeFloat converts a scanned column value to float64. The quoted forms
// written by Encode for non-finite numbers decode back to ±Inf and NaN.
func DecodeFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	default:
		return 0, fmt.Errorf("decode float from %T", v)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("decode float: %w", err)
	}
	return f, nil
}

// DecodeInt converts a scanned column value to int64.
func DecodeInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode int: %w", err)
		}
		return n, nil
	case []byte:
		return DecodeInt(string(x))
	default:
		return 0, fmt.Errorf("decode int from %T", v)
	}
}

// DecodeBool converts a scanned column value to bool. The engine stores
// booleans as 0/1 integers.
func DecodeBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("decode bool: %w", err)
		}
		return b, nil
	case []byte:
		return DecodeBool(string(x))
	default:
		return false, fmt.Errorf("decode bool from %T", v)
	}
}

// DecodeTime converts a scanned column value to time.Time.
func DecodeTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	case int64:
		return time.Unix(x, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("decode time from %T", v)
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("decode time: unrecognized format %q", s)
}

// DecodeJSON unmarshals a JSON text column into dst. NULL and empty text
// leave dst untouched.
func DecodeJSON(v any, dst any) error {
	text := DecodeString(v)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
