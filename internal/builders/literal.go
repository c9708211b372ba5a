package builders

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"jaguarundi/internal/models"
)

const nullLiteral = "NULL"

// Literal renders a Go value as an SQLite literal. nil and the empty string become
// NULL, strings are single-quoted with embedded quotes doubled, numbers are bare.
func Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return FormatNull(), nil
	case json.Number:
		return FormatNumber(val)
	case string:
		return FormatString(val), nil
	case bool:
		return FormatBool(val), nil
	case time.Time:
		return FormatTime(val), nil
	case []byte:
		return FormatBytes(val), nil
	case float32:
		return FormatFloat(float64(val))
	case float64:
		return FormatFloat(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FormatInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FormatUint(rv.Uint()), nil
	case reflect.String:
		return FormatString(rv.String()), nil
	case reflect.Bool:
		return FormatBool(rv.Bool()), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return FormatNull(), nil
		}
		return Literal(rv.Elem().Interface())
	}
	return "", fmt.Errorf("%w: %T", models.ErrUnsupportedValue, v)
}

func FormatNull() string {
	return nullLiteral
}

func FormatString(s string) string {
	if s == "" {
		return nullLiteral
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func FormatUint(u uint64) string {
	return strconv.FormatUint(u, 10)
}

func FormatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v has no SQL literal", models.ErrUnsupportedValue, f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// FormatNumber renders a json.Number bare after checking it really is a number.
func FormatNumber(n json.Number) (string, error) {
	if n == "" {
		return nullLiteral, nil
	}
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return "", fmt.Errorf("%w: %q is not a number", models.ErrUnsupportedValue, string(n))
	}
	return string(n), nil
}

func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func FormatTime(t time.Time) string {
	return "'" + t.UTC().Format(time.RFC3339Nano) + "'"
}

func FormatBytes(b []byte) string {
	if b == nil {
		return nullLiteral
	}
	return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
}
