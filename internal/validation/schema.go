// Package validation turns untyped request payloads into normalized inputs.
//
// Structural rules (types, required keys, unknown keys, enumerations) live in
// JSON Schema documents. Rules that depend on trimmed values are applied in Go
// afterwards, and every violation from both passes is reported together.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

const rootField = "(root)"

// Schema is a compiled request schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile compiles a JSON Schema document or panics.
func MustCompile(name, document string) *Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return &Schema{name: name, schema: compiled}
}

// check decodes payload into a generic document and evaluates the schema.
// The returned object is nil when the payload is not a JSON object.
func (s *Schema) check(payload any) (map[string]any, *violations, error) {
	v := &violations{}

	doc, err := decode(payload)
	if err != nil {
		v.add(rootField, "payload is not valid JSON")
		return nil, v, nil
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s schema: %w", s.name, err)
	}
	for _, resultErr := range result.Errors() {
		v.add(fieldOf(resultErr), resultErr.Description())
	}

	object, _ := doc.(map[string]any)
	return object, v, nil
}

func decode(payload any) (any, error) {
	switch p := payload.(type) {
	case map[string]any:
		return p, nil
	case nil:
		return nil, nil
	case []byte:
		var doc any
		if err := json.Unmarshal(p, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	case json.RawMessage:
		return decode([]byte(p))
	case string:
		return decode([]byte(p))
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func fieldOf(resultErr gojsonschema.ResultError) string {
	switch resultErr.Type() {
	case "required", "additional_property_not_allowed":
		if property, ok := resultErr.Details()["property"].(string); ok {
			return property
		}
	}
	if field := resultErr.Field(); field != "" {
		return field
	}
	return rootField
}

type violations struct {
	list []apperrors.FieldViolation
}

func (v *violations) add(field, reason string) {
	v.list = append(v.list, apperrors.FieldViolation{Field: field, Reason: reason})
}

func (v *violations) has(field string) bool {
	for _, item := range v.list {
		if item.Field == field {
			return true
		}
	}
	return false
}

func (v *violations) err() error {
	if len(v.list) == 0 {
		return nil
	}
	sort.SliceStable(v.list, func(i, j int) bool {
		return v.list[i].Field < v.list[j].Field
	})
	return apperrors.NewFieldValidationError(v.list)
}

// text trims a string field and enforces non-emptiness and a rune limit.
// It returns nil when the field is absent, of the wrong type, or invalid.
func (v *violations) text(object map[string]any, field string, max int) *string {
	raw, ok := object[field].(string)
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		v.add(field, fmt.Sprintf("%s must not be blank", field))
		return nil
	}
	if utf8.RuneCountInString(trimmed) > max {
		v.add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
		return nil
	}
	return &trimmed
}
