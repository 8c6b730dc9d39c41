package opts

import (
	"fmt"
	"regexp"
	"strings"
)

var optKeyRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ParseSpecs parses `key=value` launch option specs, later entries override earlier ones.
func ParseSpecs(specs []string) (map[string]string, error) {
	opts := make(map[string]string, len(specs))

	for _, spec := range specs {
		if spec == "" {
			return nil, fmt.Errorf("option spec cannot be empty")
		}

		key, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("option %q must be in key=value form", spec)
		}

		key = strings.TrimSpace(key)
		if !optKeyRegexp.MatchString(key) {
			return nil, fmt.Errorf("invalid option key %q", key)
		}

		opts[key] = value
	}

	return opts, nil
}

// MergeMaps returns a new map with base values overridden by override ones.
func MergeMaps(base map[string]string, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}

	return merged
}
