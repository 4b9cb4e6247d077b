package jsonstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/angelmondragon/photocard-store/pkg/logger"
)

// Dir is the data directory holding one JSON array file per collection.
type Dir struct {
	path     string
	observer Observer
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Open creates the data directory when missing and verifies it is writable.
func Open(ctx context.Context, path string, observer Observer, logg *logger.Logger) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	d := &Dir{path: abs, observer: observer}
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "data_dir", abs), "storage.ready")
	}
	return d, nil
}

func (d *Dir) Path() string {
	return d.path
}

// Ping checks that the directory still exists and accepts new files.
func (d *Dir) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(d.path)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", d.path)
	}
	probe, err := os.CreateTemp(d.path, ".ping-*")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// OpenCollection binds a typed collection to <dir>/<name>.json.
func OpenCollection[T any](d *Dir, name string) *Collection[T] {
	return NewCollection[T](filepath.Join(d.path, name+".json"), name, d.observer)
}
