package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ArgInt reads an integer conversion argument. A missing key yields def.
// Sizes may carry a k, m or g suffix (powers of 1024). Scaled values that
// do not fit in an int64 are rejected.
func ArgInt(args map[string]string, key string, def int64) (int64, error) {
	raw, ok := args[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1<<10, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1<<20, strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "g"):
		mult, s = 1<<30, strings.TrimSuffix(s, "g")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("argument %s=%q is not an integer", key, raw)
	}
	if n > math.MaxInt64/mult || n < math.MinInt64/mult {
		return 0, fmt.Errorf("argument %s=%q is out of range", key, raw)
	}
	return n * mult, nil
}

// ArgBool reads a boolean conversion argument. A missing key yields def.
// It accepts 1/0, true/false, yes/no and on/off.
func ArgBool(args map[string]string, key string, def bool) (bool, error) {
	raw, ok := args[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("argument %s=%q is not a boolean", key, raw)
	}
}
