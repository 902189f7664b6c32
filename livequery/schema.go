package livequery

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Schema decodes a raw field map (with the document id already merged in
// under "id") into T and validates the result.
type Schema[T any] interface {
	Decode(fields map[string]any) (T, error)
}

// SchemaFunc adapts a plain function to the Schema interface.
type SchemaFunc[T any] func(fields map[string]any) (T, error)

// Decode implements Schema.
func (f SchemaFunc[T]) Decode(fields map[string]any) (T, error) {
	return f(fields)
}

// JSONSchema returns the default schema for T: a JSON round-trip decode
// followed by ozzo validation. If T implements validation.Validatable its
// Validate method supplies the rules; otherwise decoding alone decides.
func JSONSchema[T any]() Schema[T] {
	return SchemaFunc[T](func(fields map[string]any) (T, error) {
		var out T
		data, err := json.Marshal(fields)
		if err != nil {
			return out, err
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return out, err
		}
		if err := validation.Validate(out); err != nil {
			return out, err
		}
		return out, nil
	})
}

// Record is one member of a collection binding's snapshot. Valid reports
// whether Value passed schema validation; when false, Raw holds the payload
// exactly as the source delivered it (id merged in) and Value is the zero T.
type Record[T any] struct {
	ID    string
	Value T
	Raw   map[string]any
	Valid bool
}

// mergeID copies the document fields and adds the id, so schema decoding sees
// one flat map and the original event payload stays untouched.
func mergeID(doc Document) map[string]any {
	merged := make(map[string]any, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		merged[k] = v
	}
	merged["id"] = doc.ID
	return merged
}
