package tasks_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/tasks"
)

func TestGet(t *testing.T) {
	tests := map[string]struct {
		task   model.TaskType
		expErr error
	}{
		"A known task should be returned.": {task: model.TaskSpeechRecognition},
		"An unknown task should fail.":     {task: "painting", expErr: model.ErrNotFound},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := tasks.Get(test.task)

			if test.expErr != nil {
				assert.True(t, errors.Is(err, test.expErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.task, d.Type)
		})
	}
}

func TestDefinitionsDefaults(t *testing.T) {
	for _, tt := range tasks.Types() {
		t.Run(string(tt), func(t *testing.T) {
			d, err := tasks.Get(tt)
			require.NoError(t, err)

			opts := d.Defaults()
			r := d.NewRegistry()

			// Only the model is missing on a fresh form.
			valid := r.ValidateAll(opts)
			assert.False(t, valid)
			assert.Equal(t, []string{tasks.FieldModel}, keys(r.Errors().Failed()))

			opts[tasks.FieldModel] = "some-model"
			assert.True(t, r.ValidateAll(opts))
		})
	}
}

func TestDefinitionsDoNotShareFields(t *testing.T) {
	tg, err := tasks.Get(model.TaskTextGeneration)
	require.NoError(t, err)
	sr, err := tasks.Get(model.TaskSpeechRecognition)
	require.NoError(t, err)

	_, ok := tg.Field(tasks.FieldInputDir)
	assert.False(t, ok)
	_, ok = sr.Field(tasks.FieldInputDir)
	assert.True(t, ok)
}

func keys(m map[string]string) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}
