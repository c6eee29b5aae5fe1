package source

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// listSeparator joins sequence values; it matches the default collection
// and map entry delimiter of the binder.
const listSeparator = ","

// flatten writes nested maps as dotted keys. Leaves are stringified; a nil
// leaf is kept as a present key with an empty value.
func flatten(prefix string, v any, out map[string]string) {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			flatten(joinKey(prefix, k), child, out)
		}
	case map[any]any:
		for k, child := range node {
			flatten(joinKey(prefix, fmt.Sprint(k)), child, out)
		}
	default:
		if prefix != "" {
			out[prefix] = stringify(v)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// stringify renders a decoded leaf. Slices are joined with listSeparator.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []string:
		return strings.Join(x, listSeparator)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, listSeparator)
	}
	return fmt.Sprint(v)
}
