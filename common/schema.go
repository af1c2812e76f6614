package common

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Field is a single named, typed column of a Schema.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

func (f Field) String() string {
	return f.Name + ": " + f.Type.String()
}

// Schema is an ordered, name-unique collection of fields. It is created once per plan node and
// never mutated afterwards, so it can be shared freely between nodes and goroutines.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates the fields and builds a Schema. Field order is preserved.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: slices.Clone(fields),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, Errorf(SchemaError, "field %d has an empty name", i)
		}
		if f.Type == DefaultType {
			return nil, Errorf(SchemaError, "field '%s' has no resolved type", f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, Errorf(SchemaError, "duplicate column name '%s'", f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema for statically known field lists; it panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// NumFields returns the number of columns.
func (s *Schema) NumFields() int {
	return len(s.fields)
}

// Field returns the i-th field.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the fields in order.
func (s *Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// IndexOf returns the position of the named column.
func (s *Schema) IndexOf(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// FieldByName returns the named field.
func (s *Schema) FieldByName(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// ColumnNames returns the column names in order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Types returns the column types in order.
func (s *Schema) Types() []Type {
	types := make([]Type, len(s.fields))
	for i, f := range s.fields {
		types[i] = f.Type
	}
	return types
}

// Equal reports whether both schemas have the same fields in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.Equal(s.fields, other.fields)
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
