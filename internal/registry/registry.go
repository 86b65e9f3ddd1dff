// Package registry maps spec-level property names to backend-specific
// field paths and declared types. Lookups are served from immutable
// snapshots so that a compilation observes a consistent registry even
// while a reload is in progress.
package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Type enumerates the declared types a property may have.
type Type string

const (
	TypeString    Type = "string"
	TypeNumber    Type = "number"
	TypeBoolean   Type = "boolean"
	TypeTimestamp Type = "timestamp"
)

// ErrNotFound is returned by Lookup for properties absent from the
// registry.
var ErrNotFound = errors.New("registry: property not found")

// Definition is the resolution result for one property on one backend.
type Definition struct {
	// Field is the backend-specific field path the property maps to.
	Field string

	// Type is the declared type of the property. For list-valued
	// properties it is the element type.
	Type Type

	// IsList reports whether the property holds a list of values.
	IsList bool

	// KnownIfEmpty controls IS KNOWN / IS UNKNOWN on list-valued
	// properties: when true, an empty list still counts as known.
	KnownIfEmpty bool

	// LengthField names a sibling backend field storing the list
	// cardinality, for backends that cannot compute it natively.
	LengthField string
}

// Property describes one registered property across all backends.
type Property struct {
	// Type is the declared (element) type.
	Type Type

	// IsList marks list-valued properties.
	IsList bool

	// KnownIfEmpty controls empty-list presence semantics.
	KnownIfEmpty bool

	// Fields maps a backend identifier to the field path used on that
	// backend. Backends without an entry use the property name itself.
	Fields map[string]string

	// LengthFields maps a backend identifier to a cardinality field.
	LengthFields map[string]string
}

// Registry provides point-in-time consistent property lookups.
type Registry interface {
	// Snapshot returns the current immutable registry view.
	Snapshot() *Snapshot
}

// Snapshot is an immutable view of the registry. Each snapshot carries
// a unique ID so that cached compilations from an older snapshot can
// be told apart from current ones.
type Snapshot struct {
	id         uuid.UUID
	properties map[string]Property
}

// NewSnapshot builds a snapshot from a property table. The table is
// copied; later mutation of the argument does not affect the snapshot.
func NewSnapshot(properties map[string]Property) *Snapshot {
	copied := make(map[string]Property, len(properties))
	for name, prop := range properties {
		copied[name] = prop
	}
	return &Snapshot{
		id:         uuid.New(),
		properties: copied,
	}
}

// ID returns the snapshot's unique identifier.
func (s *Snapshot) ID() uuid.UUID {
	return s.id
}

// Len returns the number of registered properties.
func (s *Snapshot) Len() int {
	return len(s.properties)
}

// Lookup resolves a spec-level property name for the given backend.
func (s *Snapshot) Lookup(name string, backend string) (Definition, error) {
	prop, ok := s.properties[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	field := name
	if alias, ok := prop.Fields[backend]; ok {
		field = alias
	}

	return Definition{
		Field:        field,
		Type:         prop.Type,
		IsList:       prop.IsList,
		KnownIfEmpty: prop.KnownIfEmpty,
		LengthField:  prop.LengthFields[backend],
	}, nil
}

// Static is a fixed in-memory registry, mainly for tests and embedded
// use.
type Static struct {
	snapshot *Snapshot
}

// NewStatic builds a Static registry from a property table.
func NewStatic(properties map[string]Property) *Static {
	return &Static{snapshot: NewSnapshot(properties)}
}

// Snapshot returns the registry's single snapshot.
func (r *Static) Snapshot() *Snapshot {
	return r.snapshot
}
