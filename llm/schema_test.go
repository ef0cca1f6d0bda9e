package llm

import (
	"encoding/json"
	"testing"
)

func argsSchema() *JSONSchema {
	return NewObjectSchema().
		AddProperty("url", NewStringSchema("target URL")).
		AddProperty("page", NewIntegerSchema("page number")).
		AddProperty("timeout", NewNumberSchema("seconds")).
		AddProperty("force", NewBooleanSchema("skip cache")).
		AddProperty("tags", &JSONSchema{Type: SchemaTypeArray, Items: NewStringSchema("tag")}).
		AddRequired("url")
}

func TestValidate_Accepts(t *testing.T) {
	s := argsSchema()
	cases := []string{
		`{"url":"https://example.com"}`,
		`{"url":"x","page":3,"timeout":1.5,"force":true,"tags":["a"]}`,
		`{"url":"x","unknown_hint":"ignored"}`,
		`{"url":"x","page":null}`,
	}
	for _, c := range cases {
		if err := s.Validate(json.RawMessage(c)); err != nil {
			t.Fatalf("valid args rejected %s: %v", c, err)
		}
	}
}

func TestValidate_Rejects(t *testing.T) {
	s := argsSchema()
	cases := []string{
		`{}`,                      // missing required
		`{"page":1}`,              // missing required
		`{"url":42}`,              // wrong kind
		`{"url":"x","page":1.5}`,  // not an integer
		`{"url":"x","force":"y"}`, // not a boolean
		`{"url":"x","tags":"a"}`,  // not an array
		`[1,2]`,                   // not an object
	}
	for _, c := range cases {
		if err := s.Validate(json.RawMessage(c)); err == nil {
			t.Fatalf("invalid args accepted: %s", c)
		}
	}
}

func TestValidate_EmptyArgsAgainstNoRequirements(t *testing.T) {
	s := NewObjectSchema()
	if err := s.Validate(nil); err != nil {
		t.Fatalf("empty args rejected: %v", err)
	}
	var nilSchema *JSONSchema
	if err := nilSchema.Validate(json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("nil schema must accept anything: %v", err)
	}
}

func TestSchemaJSONShape(t *testing.T) {
	data, err := json.Marshal(argsSchema())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["type"] != "object" {
		t.Fatalf("type wrong: %v", decoded["type"])
	}
	props, ok := decoded["properties"].(map[string]any)
	if !ok || props["url"] == nil {
		t.Fatalf("properties missing: %v", decoded)
	}
}
