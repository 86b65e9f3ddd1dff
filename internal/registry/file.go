package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// fileSchema is the YAML layout of a registry definition file.
type fileSchema struct {
	Properties map[string]propertySchema `yaml:"properties"`
}

type propertySchema struct {
	Type         string            `yaml:"type"`
	List         bool              `yaml:"list"`
	KnownIfEmpty bool              `yaml:"known_if_empty"`
	Fields       map[string]string `yaml:"fields"`
	LengthFields map[string]string `yaml:"length_fields"`
}

// File is a registry backed by a YAML definition file. Reloads swap in
// a fresh snapshot; in-flight compilations keep using the snapshot
// they started with.
type File struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot *Snapshot
}

// LoadFile reads a YAML registry definition and returns a File
// registry serving it.
func LoadFile(path string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f := &File{
		path:   path,
		logger: logger,
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Snapshot returns the most recently loaded snapshot.
func (f *File) Snapshot() *Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// Reload re-reads the definition file and swaps in a new snapshot.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("cannot read registry file: %w", err)
	}

	var schema fileSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("cannot parse registry file: %w", err)
	}

	properties := make(map[string]Property, len(schema.Properties))
	for name, ps := range schema.Properties {
		typ, err := parseType(ps.Type)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		properties[name] = Property{
			Type:         typ,
			IsList:       ps.List,
			KnownIfEmpty: ps.KnownIfEmpty,
			Fields:       ps.Fields,
			LengthFields: ps.LengthFields,
		}
	}

	snapshot := NewSnapshot(properties)

	f.mu.Lock()
	f.snapshot = snapshot
	f.mu.Unlock()

	f.logger.Info("registry loaded",
		"path", f.path,
		"snapshot", snapshot.ID().String(),
		"properties", snapshot.Len())
	return nil
}

// Watch reloads the registry whenever the definition file is written.
// It blocks until ctx is cancelled. A reload failure keeps the
// previous snapshot and is logged, not fatal.
func (f *File) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.path); err != nil {
		return fmt.Errorf("cannot watch registry file: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := f.Reload(); err != nil {
				f.logger.Error("registry reload failed", "path", f.path, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("registry watcher error", "path", f.path, "error", err)
		}
	}
}

// parseType converts a YAML type string into a Type.
func parseType(s string) (Type, error) {
	switch Type(s) {
	case TypeString, TypeNumber, TypeBoolean, TypeTimestamp:
		return Type(s), nil
	case "":
		return "", fmt.Errorf("missing type")
	}
	return "", fmt.Errorf("unknown type %q", s)
}
