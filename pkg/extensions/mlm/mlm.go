// Package mlm implements the STAC machine learning model extension:
// model identity, the tasks it serves, its input and output tensors and
// training hyperparameters, carried as "mlm:"-prefixed item properties.
package mlm

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/stacsmith/stacsmith/pkg/extensions"
	"github.com/stacsmith/stacsmith/pkg/stac"
)

// SchemaURI is the versioned schema this package implements.
const SchemaURI = "https://stac-extensions.github.io/mlm/v1.4.0/schema.json"

const (
	nameField         = "mlm:name"
	architectureField = "mlm:architecture"
	tasksField        = "mlm:tasks"
	frameworkField    = "mlm:framework"
	inputField        = "mlm:input"
	outputField       = "mlm:output"
	hyperparamsField  = "mlm:hyperparameters"
)

// Extension is the registry descriptor for this package.
var Extension = &extensions.Extension{
	Name:     "mlm",
	URI:      SchemaURI,
	Kinds:    []stac.Kind{stac.KindItem},
	Validate: validateDoc,
}

// TensorSpec describes one input or output tensor of a model. A -1 shape
// dimension is dynamic (batch size, variable spatial extent).
type TensorSpec struct {
	Name  string
	Shape []int
	DType string
}

// Model is the metadata of one machine learning model.
type Model struct {
	// Name is the required model name.
	Name string
	// Architecture names the model family, e.g. "unet" or "resnet-50".
	Architecture string
	// Tasks lists what the model does, e.g. "semantic-segmentation".
	Tasks []string
	// Framework is the runtime, e.g. "pytorch".
	Framework string
	// Inputs and Outputs describe the model's tensors.
	Inputs  []TensorSpec
	Outputs []TensorSpec
	// Hyperparameters carries free-form training configuration.
	Hyperparameters map[string]any
}

// Apply declares the extension on it.
func Apply(it *stac.Item) { it.AddExtension(SchemaURI) }

// Has reports whether it declares the extension.
func Has(it *stac.Item) bool { return it.HasExtension(SchemaURI) }

// ModelOf reads the model metadata from an item's properties. ok is false
// when the item carries no model name.
func ModelOf(it *stac.Item) (Model, bool) {
	props := it.Properties
	name := str(props, nameField)
	if name == "" {
		return Model{}, false
	}
	m := Model{
		Name:         name,
		Architecture: str(props, architectureField),
		Framework:    str(props, frameworkField),
		Tasks:        strSlice(props, tasksField),
		Inputs:       tensorsFrom(props, inputField),
		Outputs:      tensorsFrom(props, outputField),
	}
	if hp, ok := props[hyperparamsField].(map[string]any); ok {
		m.Hyperparameters = hp
	}
	return m, true
}

// SetModel writes the model metadata to an item's properties, replacing any
// previous model.
func SetModel(it *stac.Item, m Model) {
	props := it.Properties
	for _, key := range []string{nameField, architectureField, tasksField, frameworkField, inputField, outputField, hyperparamsField} {
		delete(props, key)
	}
	props[nameField] = m.Name
	if m.Architecture != "" {
		props[architectureField] = m.Architecture
	}
	if len(m.Tasks) > 0 {
		tasks := make([]any, len(m.Tasks))
		for i, t := range m.Tasks {
			tasks[i] = t
		}
		props[tasksField] = tasks
	}
	if m.Framework != "" {
		props[frameworkField] = m.Framework
	}
	if len(m.Inputs) > 0 {
		props[inputField] = tensorsDoc(m.Inputs)
	}
	if len(m.Outputs) > 0 {
		props[outputField] = tensorsDoc(m.Outputs)
	}
	if len(m.Hyperparameters) > 0 {
		props[hyperparamsField] = m.Hyperparameters
	}
}

func tensorsFrom(props map[string]any, key string) []TensorSpec {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]TensorSpec, 0, len(raw))
	for _, entry := range raw {
		td, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		spec := TensorSpec{
			Name:  str(td, "name"),
			DType: str(td, "dtype"),
		}
		if shape, ok := td["shape"].([]any); ok {
			for _, dim := range shape {
				spec.Shape = append(spec.Shape, intFromAny(dim))
			}
		}
		out = append(out, spec)
	}
	return out
}

func tensorsDoc(specs []TensorSpec) []any {
	out := make([]any, 0, len(specs))
	for _, spec := range specs {
		shape := make([]any, len(spec.Shape))
		for i, dim := range spec.Shape {
			shape[i] = dim
		}
		out = append(out, map[string]any{
			"name":  spec.Name,
			"shape": shape,
			"dtype": spec.DType,
		})
	}
	return out
}

func validateDoc(doc map[string]any) error {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil
	}
	if _, present := props[nameField]; !present {
		// The item declares the extension but carries no model.
		return fmt.Errorf("properties.%s: missing", nameField)
	}

	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}
	if str(props, nameField) == "" {
		add("properties.%s: empty", nameField)
	}
	if raw, present := props[tasksField]; present {
		tasks, ok := raw.([]any)
		if !ok || len(tasks) == 0 {
			add("properties.%s: not a non-empty array", tasksField)
		} else {
			for i, t := range tasks {
				if s, ok := t.(string); !ok || s == "" {
					add("properties.%s[%d]: not a non-empty string", tasksField, i)
				}
			}
		}
	}
	checkTensors(props, inputField, add)
	checkTensors(props, outputField, add)
	if raw, present := props[hyperparamsField]; present {
		if _, ok := raw.(map[string]any); !ok {
			add("properties.%s: not an object", hyperparamsField)
		}
	}
	return result.ErrorOrNil()
}

func checkTensors(props map[string]any, key string, add func(string, ...any)) {
	raw, present := props[key]
	if !present {
		return
	}
	tensors, ok := raw.([]any)
	if !ok {
		add("properties.%s: not an array", key)
		return
	}
	for i, entry := range tensors {
		path := fmt.Sprintf("properties.%s[%d]", key, i)
		td, ok := entry.(map[string]any)
		if !ok {
			add("%s: not an object", path)
			continue
		}
		if str(td, "name") == "" {
			add("%s.name: missing or empty", path)
		}
		shape, ok := td["shape"].([]any)
		if !ok || len(shape) == 0 {
			add("%s.shape: missing or empty", path)
		} else {
			for j, dim := range shape {
				if !isInt(dim) {
					add("%s.shape[%d]: not an integer", path, j)
				} else if n := intFromAny(dim); n < -1 || n == 0 {
					add("%s.shape[%d]: %d is not a positive size or -1", path, j, n)
				}
			}
		}
		if str(td, "dtype") == "" {
			add("%s.dtype: missing or empty", path)
		}
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func strSlice(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func isInt(v any) bool {
	switch n := v.(type) {
	case int:
		return true
	case float64:
		return n == float64(int64(n))
	}
	return false
}
