package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/pathutil"
)

var ok = model.ValidationResult{OK: true}

func fail(format string, args ...any) model.ValidationResult {
	return model.ValidationResult{OK: false, Message: fmt.Sprintf(format, args...)}
}

// Required fails on blank values.
func Required(label string) Validator {
	return func(value string) model.ValidationResult {
		if strings.TrimSpace(value) == "" {
			return fail("%s is required", label)
		}
		return ok
	}
}

// IntRange accepts integers between min and max (inclusive). Blank values are
// accepted, combine with Required when needed.
func IntRange(label string, lo, hi int) Validator {
	return func(value string) model.ValidationResult {
		value = strings.TrimSpace(value)
		if value == "" {
			return ok
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fail("%s must be an integer", label)
		}
		if n < lo || n > hi {
			return fail("%s must be between %d and %d", label, lo, hi)
		}
		return ok
	}
}

// PositiveInt accepts integers greater than zero.
func PositiveInt(label string) Validator {
	return func(value string) model.ValidationResult {
		value = strings.TrimSpace(value)
		if value == "" {
			return ok
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fail("%s must be a positive integer", label)
		}
		return ok
	}
}

// FloatRange accepts numbers between min and max (inclusive).
func FloatRange(label string, lo, hi float64) Validator {
	return func(value string) model.ValidationResult {
		value = strings.TrimSpace(value)
		if value == "" {
			return ok
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fail("%s must be a number", label)
		}
		if f < lo || f > hi {
			return fail("%s must be between %g and %g", label, lo, hi)
		}
		return ok
	}
}

// OneOf accepts only the listed values.
func OneOf(label string, values ...string) Validator {
	return func(value string) model.ValidationResult {
		value = strings.TrimSpace(value)
		if value == "" {
			return ok
		}
		for _, v := range values {
			if v == value {
				return ok
			}
		}
		return fail("%s must be one of: %s", label, strings.Join(values, ", "))
	}
}

// Bool accepts "true" and "false".
func Bool(label string) Validator {
	return OneOf(label, "true", "false")
}

// RelativeDir accepts directories under the profile home, parent references
// are rejected.
func RelativeDir(label string) Validator {
	return func(value string) model.ValidationResult {
		value = strings.TrimSpace(value)
		if value == "" || pathutil.IsRootPath(value) {
			return ok
		}
		for _, seg := range strings.Split(pathutil.NormalizeRelativePath(value), "/") {
			if seg == ".." {
				return fail("%s cannot reference parent directories", label)
			}
		}
		return ok
	}
}

// All combines validators, the first failure wins.
func All(vs ...Validator) Validator {
	return func(value string) model.ValidationResult {
		for _, v := range vs {
			if res := v(value); !res.OK {
				return res
			}
		}
		return ok
	}
}
