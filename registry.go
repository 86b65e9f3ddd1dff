package optimade

import (
	"log/slog"

	"github.com/nholik/go-optimade/internal/registry"
)

// Registry provides point-in-time consistent property lookups for the
// compiler. Implementations must return immutable snapshots.
type Registry = registry.Registry

// RegistrySnapshot is an immutable registry view identified by a UUID.
type RegistrySnapshot = registry.Snapshot

// PropertyDefinition is the per-backend resolution result for a
// property.
type PropertyDefinition = registry.Definition

// Property describes one registered property across all backends.
type Property = registry.Property

// PropertyType enumerates the declared types a property may have.
type PropertyType = registry.Type

// Declared property types.
const (
	TypeString    = registry.TypeString
	TypeNumber    = registry.TypeNumber
	TypeBoolean   = registry.TypeBoolean
	TypeTimestamp = registry.TypeTimestamp
)

// NewStaticRegistry builds a fixed in-memory registry from a property
// table.
func NewStaticRegistry(properties map[string]Property) Registry {
	return registry.NewStatic(properties)
}

// LoadRegistryFile reads a YAML registry definition file. The returned
// registry supports Reload and Watch for hot reloading.
func LoadRegistryFile(path string, logger *slog.Logger) (*registry.File, error) {
	return registry.LoadFile(path, logger)
}
