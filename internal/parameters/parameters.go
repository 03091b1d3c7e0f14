// Package parameters handles generic configuration Params, a map[string]string that the
// user can set with a "key1=value1,key2,key3=value3" string.
package parameters

import (
	"slices"
	"strconv"
	"strings"

	"github.com/janpfeifer/othelloGo/internal/generics"
	"github.com/pkg/errors"
)

// Params represent generic configuration parameters.
type Params map[string]string

// NewFromConfigString create params from user's configuration string.
// Parts are separated by commas, and a part without "=" is a key with an empty value.
// Spaces around keys and values are trimmed, and empty parts are ignored.
//
// See GetParamOr and PopParamOr to parse values from this map.
func NewFromConfigString(config string) Params {
	params := make(Params)
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=") // Only the first "=" splits, values may contain "=".
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params
}

// Value is the set of types that can be parsed from Params.
type Value interface {
	bool | int | float32 | float64 | string
}

// PopParamOr is like GetParamOr, but it also deletes from the params map the retrieved parameter.
func PopParamOr[T Value](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetParamOr attempts to parse a parameter to the given type if the key is present, or returns the defaultValue
// if not.
//
// For bool types, a key without a value is interpreted as true.
func GetParamOr[T Value](params Params, key string, defaultValue T) (T, error) {
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	var parsed any
	var err error
	switch any(defaultValue).(type) {
	case string:
		parsed = value
	case int:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err = strconv.Atoi(value)
	case float32:
		if value == "" {
			return defaultValue, nil
		}
		var f64 float64
		f64, err = strconv.ParseFloat(value, 32)
		parsed = float32(f64)
	case float64:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err = strconv.ParseFloat(value, 64)
	case bool:
		switch strings.ToLower(value) {
		case "", "true", "1": // Empty value is considered "true"
			parsed = true
		case "false", "0":
			parsed = false
		default:
			err = errors.New("expected true or false")
		}
	}
	if err != nil {
		return defaultValue, errors.Wrapf(err, "failed to parse configuration %s=%q to %T", key, value, defaultValue)
	}
	return parsed.(T), nil
}

// CheckAllConsumed returns an error listing the keys left in params, if any.
// It is meant to be called after all known keys were retrieved with PopParamOr.
func CheckAllConsumed(params Params) error {
	if len(params) == 0 {
		return nil
	}
	keys := generics.KeysSlice(params)
	slices.Sort(keys)
	return errors.Errorf("unknown parameters \"%s\"", strings.Join(keys, "\", \""))
}
