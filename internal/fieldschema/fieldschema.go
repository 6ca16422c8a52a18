// Package fieldschema validates custom field values locally against the
// current field definitions, so a provisional case never carries values the
// backend would refuse.
package fieldschema

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/designcomb/influenter/client/internal/types"
)

// Validator compiles field definitions to JSON Schema and caches the result
// by schema content. Each schema gets its own compiler, so evicting it from
// the cache releases everything it held.
type Validator struct {
	cache *expirable.LRU[string, *js.Schema]
}

// New returns a Validator caching up to maxSize compiled schemas for an hour.
func New(maxSize int) *Validator {
	if maxSize <= 0 {
		maxSize = 32
	}
	return &Validator{
		cache: expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

func newCompiler() *js.Compiler {
	c := js.NewCompiler()
	c.Draft = js.Draft2020
	c.AssertFormat = true
	return c
}

// Schema builds the JSON Schema for the custom_fields object of a case.
// System fields map to backend columns and are not part of it.
func Schema(fields []types.CaseField) map[string]any {
	props := map[string]any{}
	required := []string{}
	for _, f := range fields {
		if f.IsSystem {
			continue
		}
		s := propertySchema(f)
		if f.IsRequired {
			required = append(required, f.Name)
		} else {
			s = map[string]any{"anyOf": []any{s, map[string]any{"type": "null"}}}
		}
		props[f.Name] = s
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
}

func propertySchema(f types.CaseField) map[string]any {
	switch f.Type {
	case types.FieldNumber:
		return map[string]any{"type": "number"}
	case types.FieldCheckbox:
		return map[string]any{"type": "boolean"}
	case types.FieldDate:
		return map[string]any{"type": "string", "format": "date"}
	case types.FieldEmail:
		return map[string]any{"type": "string", "format": "email"}
	case types.FieldURL:
		return map[string]any{"type": "string", "format": "uri"}
	case types.FieldSelect:
		return map[string]any{"enum": optionValues(f.Options)}
	case types.FieldMultiselect:
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"enum": optionValues(f.Options)},
			"uniqueItems": true,
		}
	default:
		s := map[string]any{"type": "string"}
		if f.IsRequired {
			s["minLength"] = 1
		}
		return s
	}
}

func optionValues(opts []types.FieldOption) []any {
	out := make([]any, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}

func (v *Validator) prepare(schema map[string]any) (*js.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:])
	if compiled, ok := v.cache.Get(key); ok {
		return compiled, nil
	}

	compiler := newCompiler()
	resourceURL := fmt.Sprintf("mem://fields/%s.json", key[:16])
	if err := compiler.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	v.cache.Add(key, compiled)
	return compiled, nil
}

// Validate checks values (custom field name to value) against fields. A
// failure wraps types.ErrInvalidInput.
func (v *Validator) Validate(ctx context.Context, fields []types.CaseField, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	compiled, err := v.prepare(Schema(fields))
	if err != nil {
		return err
	}
	if values == nil {
		values = map[string]any{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: custom fields: %v", types.ErrInvalidInput, err)
	}
	return nil
}
