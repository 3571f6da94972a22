package db

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ParseScheme splits a connection string into its scheme and the rest
func ParseScheme(s string) (scheme string, uri string, err error) {
	const schemeSeparator = "://"
	parts := strings.SplitN(s, schemeSeparator, 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("'%s' is invalid scheme separator", schemeSeparator)
	}

	return parts[0], parts[1], nil
}

// SanitizeConn removes user credentials from a URL shaped connection string
func SanitizeConn(cs string) string {
	sanitized := cs
	u, _ := url.Parse(cs)
	if u != nil && u.User != nil {
		u.User = nil
		sanitized = u.String()
	}
	return sanitized
}

// tryCastToString renders printable byte slices as quoted strings
func tryCastToString(i interface{}) (string, bool) {
	chars, ok := i.([]uint8)
	if !ok {
		return "", false
	}

	var sb strings.Builder
	for _, c := range chars {
		if c < 32 || c > 126 {
			return "", false
		}
		sb.WriteByte(c)
	}

	return "'" + sb.String() + "'", true
}

// DumpRecursive returns string representation of given interface
func DumpRecursive(i interface{}, indent string) string {
	val := reflect.ValueOf(i)

	if !val.IsValid() {
		return "nil"
	}

	if !val.CanInterface() {
		return "?"
	}

	if t, ok := i.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}

	typ := val.Type()

	switch val.Kind() {
	case reflect.String:
		return fmt.Sprintf("%q", val.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(val.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(val.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(val.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(val.Bool())
	case reflect.Slice, reflect.Array:
		if s, ok := tryCastToString(i); ok {
			return s
		}

		var result []string
		for i := 0; i < val.Len(); i++ {
			result = append(result, DumpRecursive(val.Index(i).Interface(), indent+"  "))
		}

		return "[" + strings.Join(result, ", ") + "]"
	case reflect.Struct:
		var result []string
		for i := 0; i < val.NumField(); i++ {
			field := val.Field(i)
			if field.CanInterface() {
				result = append(result, indent+typ.Field(i).Name+" => "+DumpRecursive(field.Interface(), indent+"  "))
			} else {
				result = append(result, indent+"??? => ???")
			}
		}

		return strings.Join(result, "\n")
	case reflect.Ptr:
		if val.IsNil() {
			return "nil"
		}
		return DumpRecursive(val.Elem().Interface(), indent)

	default:
		return fmt.Sprintf("%v", val.Interface())
	}
}

// DataTypeOf picks the column type able to hold v
func DataTypeOf(v interface{}) DataType {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return DataTypeBigInt
	case float32, float64:
		return DataTypeDouble
	case bool:
		return DataTypeBoolean
	case time.Time, *time.Time:
		return DataTypeTimestamp
	case []byte:
		return DataTypeLongBlob
	default:
		return DataTypeText
	}
}
