package sqlgen

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Ev19Coding/parktrack/pkg/types"
)

// Null is the SQL literal for an absent value.
const Null = "NULL"

// Encode converts v into SQL literal text.
//
// Strings are single-quoted with embedded quotes doubled; nothing else is
// altered. Numbers use plain decimal form, except non-finite floats which
// become the quoted strings 'Infinity', '-Infinity' and 'NaN'. Booleans are
// unquoted true/false, times are quoted RFC 3339, and maps, slices and
// structs are serialized to JSON first and then quoted. Nil, typed nil
// pointers and nil maps or slices encode as NULL.
//
// Text containing a NUL byte and unsigned values above math.MaxInt64 return
// ErrInvalidInput, since the engine cannot store them exactly.
func Encode(v any) (string, error) {
	if isNil(v) {
		return Null, nil
	}

	switch x := v.(type) {
	case string:
		return quoteText(x)
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return encodeUint(uint64(x))
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return encodeUint(x)
	case float32:
		return encodeFloat(float64(x), 32), nil
	case float64:
		return encodeFloat(x, 64), nil
	case time.Time:
		return Quote(x.Format(time.RFC3339Nano)), nil
	case json.RawMessage:
		return quoteText(string(x))
	case []byte:
		return quoteText(string(x))
	case driver.Valuer:
		val, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("encode %T: %w", v, err)
		}
		return Encode(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return Encode(rv.Elem().Interface())
	case reflect.String:
		return quoteText(rv.String())
	case reflect.Bool:
		return Encode(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeUint(rv.Uint())
	case reflect.Float32:
		return encodeFloat(rv.Float(), 32), nil
	case reflect.Float64:
		return encodeFloat(rv.Float(), 64), nil
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode %T: %w", v, err)
		}
		return Quote(string(data)), nil
	default:
		return "", fmt.Errorf("encode %T: unsupported type", v)
	}
}

// quoteText quotes s, rejecting NUL bytes, which end a literal early in
// the engine's tokenizer.
func quoteText(s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", fmt.Errorf("encode string: contains NUL byte: %w", types.ErrInvalidInput)
	}
	return Quote(s), nil
}

// encodeUint rejects values above math.MaxInt64, which the engine would
// store as an inexact REAL.
func encodeUint(u uint64) (string, error) {
	if u > math.MaxInt64 {
		return "", fmt.Errorf("encode %d: exceeds int64 range: %w", u, types.ErrInvalidInput)
	}
	return strconv.FormatUint(u, 10), nil
}

// Quote wraps s in single quotes, doubling every embedded single quote.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent wraps an identifier in double quotes. A bare "*" is returned
// unchanged.
func QuoteIdent(name string) string {
	if name == "*" {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func encodeFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return Quote("NaN")
	case math.IsInf(f, 1):
		return Quote("Infinity")
	case math.IsInf(f, -1):
		return Quote("-Infinity")
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// isNil reports whether v is nil, a nil pointer, a nil map or slice, or a
// driver.Valuer whose value is nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return true
		}
	}
	if valuer, ok := v.(driver.Valuer); ok {
		val, err := valuer.Value()
		return err == nil && val == nil
	}
	return false
}
