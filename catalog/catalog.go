// Package catalog holds the fixed allow-list of storefront event types,
// their payload schemas and the example payloads used by test-sends.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Catalog is an immutable lookup table of event type definitions.
type Catalog struct {
	defs      map[string]Definition
	names     []string
	validator *Validator
}

// New returns a catalog of the built-in storefront event types plus any
// extra definitions. Extra definitions replace built-ins of the same name.
func New(extra ...Definition) *Catalog {
	c := &Catalog{
		defs:      make(map[string]Definition, len(builtin)+len(extra)),
		validator: NewValidator(),
	}
	for _, d := range builtin {
		c.defs[d.Name] = d
	}
	for _, d := range extra {
		c.defs[d.Name] = d
	}
	for name := range c.defs {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}

// Has reports whether name is an allow-listed event type.
func (c *Catalog) Has(name string) bool {
	_, ok := c.defs[name]
	return ok
}

// Get returns the definition for name.
func (c *Catalog) Get(name string) (Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Names returns the allow-listed event type names in lexical order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// List returns all definitions ordered by name.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.defs[name])
	}
	return out
}

// Example returns the mock data for name, or a generic test object when
// the type has no example or is unknown.
func (c *Catalog) Example(name string) json.RawMessage {
	if d, ok := c.defs[name]; ok && len(d.Example) > 0 {
		return d.Example
	}
	return genericExample
}

// Validate checks data against the schema registered for name. Types
// without a schema accept any data.
func (c *Catalog) Validate(name string, data any) error {
	d, ok := c.defs[name]
	if !ok {
		return fmt.Errorf("catalog: unknown event type %q", name)
	}
	if len(d.Schema) == 0 {
		return nil
	}
	return c.validator.Validate(d.Schema, data)
}
