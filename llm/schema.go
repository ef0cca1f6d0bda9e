package llm

import (
	"encoding/json"
	"fmt"
)

// SchemaType represents JSON Schema types.
type SchemaType string

const (
	SchemaTypeString  SchemaType = "string"
	SchemaTypeNumber  SchemaType = "number"
	SchemaTypeInteger SchemaType = "integer"
	SchemaTypeBoolean SchemaType = "boolean"
	SchemaTypeObject  SchemaType = "object"
	SchemaTypeArray   SchemaType = "array"
)

// JSONSchema is the subset of JSON Schema used to describe tool arguments.
type JSONSchema struct {
	Type        SchemaType             `json:"type,omitempty"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []any                  `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
}

// NewObjectSchema creates a new object schema.
func NewObjectSchema() *JSONSchema {
	return &JSONSchema{
		Type:       SchemaTypeObject,
		Properties: make(map[string]*JSONSchema),
	}
}

// NewStringSchema creates a new string schema.
func NewStringSchema(desc string) *JSONSchema {
	return &JSONSchema{Type: SchemaTypeString, Description: desc}
}

// NewIntegerSchema creates a new integer schema.
func NewIntegerSchema(desc string) *JSONSchema {
	return &JSONSchema{Type: SchemaTypeInteger, Description: desc}
}

// NewNumberSchema creates a new number schema.
func NewNumberSchema(desc string) *JSONSchema {
	return &JSONSchema{Type: SchemaTypeNumber, Description: desc}
}

// NewBooleanSchema creates a new boolean schema.
func NewBooleanSchema(desc string) *JSONSchema {
	return &JSONSchema{Type: SchemaTypeBoolean, Description: desc}
}

// AddProperty adds a property to an object schema.
func (s *JSONSchema) AddProperty(name string, prop *JSONSchema) *JSONSchema {
	if s.Properties == nil {
		s.Properties = make(map[string]*JSONSchema)
	}
	s.Properties[name] = prop
	return s
}

// AddRequired marks field names as required.
func (s *JSONSchema) AddRequired(names ...string) *JSONSchema {
	s.Required = append(s.Required, names...)
	return s
}

// Validate checks an argument mapping against an object schema: every
// required key must be present and every known key must hold a value of the
// declared kind. Unknown keys are tolerated; the model frequently includes
// extra hints and rejecting them helps nobody.
func (s *JSONSchema) Validate(args json.RawMessage) error {
	if s == nil || s.Type != SchemaTypeObject {
		return nil
	}

	values := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &values); err != nil {
			return fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}

	for _, name := range s.Required {
		if _, ok := values[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	for name, value := range values {
		prop, ok := s.Properties[name]
		if !ok || prop == nil {
			continue
		}
		if err := checkKind(name, prop.Type, value); err != nil {
			return err
		}
	}
	return nil
}

func checkKind(name string, want SchemaType, value any) error {
	if value == nil {
		return nil
	}
	switch want {
	case SchemaTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
	case SchemaTypeNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %q must be a number", name)
		}
	case SchemaTypeInteger:
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("argument %q must be an integer", name)
		}
	case SchemaTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case SchemaTypeArray:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
	case SchemaTypeObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("argument %q must be an object", name)
		}
	}
	return nil
}
