package domain

// LabelSchema describes the five-field output object a classification
// service must return. Every field is a required string limited to Enum.
type LabelSchema struct {
	Name   string
	Fields []SchemaField
}

type SchemaField struct {
	Name        string
	Description string
	Enum        []string
}

// FieldNames returns the field names in schema order.
func (s LabelSchema) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}
