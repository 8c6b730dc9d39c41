package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/validation"
)

func newRegistry() *validation.Registry {
	r := validation.NewRegistry()
	r.Register("input_dir", validation.Required("Input directory"))
	r.Register("max_tokens", validation.IntRange("Max tokens", 1, 4096))
	return r
}

func TestRegistryValidate(t *testing.T) {
	tests := map[string]struct {
		edits     [][2]string
		expValid  bool
		expErrors map[string]string
	}{
		"No edits should be valid.": {
			expValid:  true,
			expErrors: map[string]string{},
		},
		"A failed field should be reported.": {
			edits:     [][2]string{{"input_dir", ""}},
			expValid:  false,
			expErrors: map[string]string{"input_dir": "Input directory is required"},
		},
		"A field that fails and then passes should clear its entry.": {
			edits:     [][2]string{{"input_dir", ""}, {"input_dir", "data"}},
			expValid:  true,
			expErrors: map[string]string{},
		},
		"Multiple failed fields should all be reported.": {
			edits: [][2]string{{"input_dir", " "}, {"max_tokens", "99999"}},
			expValid: false,
			expErrors: map[string]string{
				"input_dir":  "Input directory is required",
				"max_tokens": "Max tokens must be between 1 and 4096",
			},
		},
		"Fields without validator should be valid.": {
			edits:     [][2]string{{"unknown", ""}},
			expValid:  true,
			expErrors: map[string]string{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := newRegistry()
			for _, e := range test.edits {
				r.Validate(e[0], e[1])
			}

			assert.Equal(t, test.expValid, r.IsValid())
			assert.Equal(t, test.expErrors, r.Errors().Failed())
		})
	}
}

func TestRegistryClearsStaleEntries(t *testing.T) {
	r := newRegistry()

	res := r.Validate("max_tokens", "abc")
	require.False(t, res.OK)
	require.Contains(t, r.Errors(), "max_tokens")

	res = r.Validate("max_tokens", "128")
	require.True(t, res.OK)

	_, present := r.Errors()["max_tokens"]
	assert.False(t, present)
	assert.True(t, r.IsValid())
}

func TestRegistryValidateAll(t *testing.T) {
	tests := map[string]struct {
		opts     model.ContainerOptions
		expValid bool
		expFail  []string
	}{
		"All valid options should be valid.": {
			opts:     model.ContainerOptions{"input_dir": "data", "max_tokens": "10"},
			expValid: true,
		},
		"Missing required values should fail.": {
			opts:     model.ContainerOptions{"max_tokens": "10"},
			expValid: false,
			expFail:  []string{"input_dir"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := newRegistry()
			valid := r.ValidateAll(test.opts)

			assert.Equal(t, test.expValid, valid)
			for _, f := range test.expFail {
				assert.Contains(t, r.Errors().Failed(), f)
			}
		})
	}
}

func TestRegistryErrorsIsACopy(t *testing.T) {
	r := newRegistry()
	r.Validate("input_dir", "")

	errs := r.Errors()
	errs["input_dir"].Message = "changed"
	delete(errs, "input_dir")

	assert.Equal(t, "Input directory is required", r.Errors()["input_dir"].Message)
}
