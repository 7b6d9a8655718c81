// Package schema validates record content against the JSON Schemas the
// node knows about. Only basicProfile ships today.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/google/jsonschema-go/jsonschema"
)

//go:embed basic_profile.json
var basicProfileJSON []byte

type Registry struct {
	schemas map[string]*jsonschema.Resolved
}

// NewRegistry compiles the embedded schemas.
func NewRegistry() (*Registry, error) {
	r := &Registry{schemas: map[string]*jsonschema.Resolved{}}
	if err := r.add(common.BasicProfileSchema, basicProfileJSON); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) add(name string, raw []byte) error {
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("parse schema %s: %w", name, err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve schema %s: %w", name, err)
	}
	r.schemas[name] = resolved
	return nil
}

func (r *Registry) Known(name string) bool {
	_, ok := r.schemas[name]
	return ok
}

// Validate checks content against the named schema. An unknown schema
// yields common.ErrUnknownSchema, a mismatch common.ErrInvalidRecord.
func (r *Registry) Validate(name string, content map[string]any) error {
	s, ok := r.schemas[name]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrUnknownSchema, name)
	}
	if err := s.Validate(content); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidRecord, err)
	}
	return nil
}
