package tasks

import (
	"fmt"
	"sort"

	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/validation"
)

// Common option field names.
const (
	FieldModel     = "model"
	FieldPort      = "port"
	FieldGPUCount  = "gpu_count"
	FieldInputDir  = "input_dir"
	FieldOutputDir = "output_dir"
)

// Field describes a single container option of a task form.
type Field struct {
	Name      string
	Label     string
	Help      string
	Default   string
	Validator validation.Validator
}

// Definition is the launch form of a task.
type Definition struct {
	Type   model.TaskType
	Title  string
	Fields []Field
}

// Defaults returns the seed options of the task form.
func (d Definition) Defaults() model.ContainerOptions {
	opts := make(model.ContainerOptions, len(d.Fields))
	for _, f := range d.Fields {
		opts[f.Name] = f.Default
	}
	return opts
}

// NewRegistry returns a validation registry with all the task field validators registered.
func (d Definition) NewRegistry() *validation.Registry {
	r := validation.NewRegistry()
	for _, f := range d.Fields {
		if f.Validator != nil {
			r.Register(f.Name, f.Validator)
		}
	}
	return r
}

// Field returns a field by name.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func commonFields() []Field {
	return []Field{
		{Name: FieldModel, Label: "Model", Help: "Model to serve.", Validator: validation.Required("Model")},
		{Name: FieldPort, Label: "Port", Help: "Service port.", Default: "8000", Validator: validation.All(validation.Required("Port"), validation.IntRange("Port", 1024, 65535))},
		{Name: FieldGPUCount, Label: "GPUs", Help: "Number of GPUs.", Default: "1", Validator: validation.IntRange("GPUs", 0, 8)},
	}
}

var catalog = map[model.TaskType]Definition{
	model.TaskTextGeneration: {
		Type:  model.TaskTextGeneration,
		Title: "Text generation",
		Fields: append(commonFields(),
			Field{Name: "max_tokens", Label: "Max tokens", Default: "2048", Validator: validation.All(validation.Required("Max tokens"), validation.IntRange("Max tokens", 1, 32768))},
			Field{Name: "temperature", Label: "Temperature", Default: "0.7", Validator: validation.FloatRange("Temperature", 0, 2)},
			Field{Name: "quantization", Label: "Quantization", Default: "none", Validator: validation.OneOf("Quantization", "none", "int8", "int4")},
		),
	},
	model.TaskSpeechRecognition: {
		Type:  model.TaskSpeechRecognition,
		Title: "Speech recognition",
		Fields: append(commonFields(),
			Field{Name: FieldInputDir, Label: "Input directory", Help: "Audio directory, relative to the profile home.", Default: "/", Validator: validation.All(validation.Required("Input directory"), validation.RelativeDir("Input directory"))},
			Field{Name: "language", Label: "Language", Default: "auto", Validator: validation.OneOf("Language", "auto", "en", "es", "fr", "de")},
			Field{Name: "timestamps", Label: "Timestamps", Default: "false", Validator: validation.Bool("Timestamps")},
		),
	},
	model.TaskTextToSpeech: {
		Type:  model.TaskTextToSpeech,
		Title: "Text to speech",
		Fields: append(commonFields(),
			Field{Name: FieldOutputDir, Label: "Output directory", Default: "/", Validator: validation.All(validation.Required("Output directory"), validation.RelativeDir("Output directory"))},
			Field{Name: "voice", Label: "Voice", Default: "default", Validator: validation.Required("Voice")},
			Field{Name: "sample_rate", Label: "Sample rate", Default: "22050", Validator: validation.OneOf("Sample rate", "16000", "22050", "44100")},
		),
	},
	model.TaskImageClassification: {
		Type:  model.TaskImageClassification,
		Title: "Image classification",
		Fields: append(commonFields(),
			Field{Name: FieldInputDir, Label: "Input directory", Default: "/", Validator: validation.All(validation.Required("Input directory"), validation.RelativeDir("Input directory"))},
			Field{Name: "top_k", Label: "Top K", Default: "5", Validator: validation.IntRange("Top K", 1, 100)},
		),
	},
	model.TaskEmbeddings: {
		Type:  model.TaskEmbeddings,
		Title: "Embeddings",
		Fields: append(commonFields(),
			Field{Name: "batch_size", Label: "Batch size", Default: "32", Validator: validation.IntRange("Batch size", 1, 1024)},
			Field{Name: "normalize", Label: "Normalize", Default: "true", Validator: validation.Bool("Normalize")},
		),
	},
}

// Get returns the definition of a task.
func Get(t model.TaskType) (Definition, error) {
	d, ok := catalog[t]
	if !ok {
		return Definition{}, fmt.Errorf("unknown task %q: %w", t, model.ErrNotFound)
	}
	return d, nil
}

// Types returns all the known task types sorted.
func Types() []model.TaskType {
	types := make([]model.TaskType, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
