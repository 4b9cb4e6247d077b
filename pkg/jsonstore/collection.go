package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrCorrupt marks a collection file that exists but does not hold a JSON array.
var ErrCorrupt = errors.New("collection file is corrupt")

// Observer receives storage timings and failures. Implementations must be
// safe for concurrent use; a nil Observer is allowed.
type Observer interface {
	ObserveRead(collection string, d time.Duration, err error)
	ObserveWrite(collection string, d time.Duration, err error)
}

// Collection is a JSON array file that is always read and written whole.
// Mutations go through Update, which holds the collection lock across the
// read, the in-memory change and the write.
type Collection[T any] struct {
	path     string
	name     string
	observer Observer

	mu sync.Mutex
}

func NewCollection[T any](path, name string, observer Observer) *Collection[T] {
	return &Collection[T]{path: path, name: name, observer: observer}
}

func (c *Collection[T]) Name() string { return c.name }
func (c *Collection[T]) Path() string { return c.path }

// Load reads the whole collection. A missing file is an empty collection;
// an unreadable or malformed file is an error.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := c.read()
	c.observeRead(time.Since(start), err)
	return records, err
}

// Update runs fn over the current records and persists the slice it returns.
// When fn fails nothing is written.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	records, err := c.read()
	c.observeRead(time.Since(start), err)
	if err != nil {
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}
	return c.write(next)
}

// Ensure creates the file with seed when it does not exist yet.
func (c *Collection[T]) Ensure(ctx context.Context, seed []T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(c.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", c.name, err)
	}
	if seed == nil {
		seed = []T{}
	}
	if err := c.write(seed); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Collection[T]) read() ([]T, error) {
	raw, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.name, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, c.name, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *Collection[T]) write(records []T) (err error) {
	start := time.Now()
	defer func() { c.observeWrite(time.Since(start), err) }()

	if records == nil {
		records = []T{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+c.name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", c.name, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", c.name, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", c.name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.name, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", c.name, err)
	}
	if err = os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("replace %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) observeRead(d time.Duration, err error) {
	if c.observer != nil {
		c.observer.ObserveRead(c.name, d, err)
	}
}

func (c *Collection[T]) observeWrite(d time.Duration, err error) {
	if c.observer != nil {
		c.observer.ObserveWrite(c.name, d, err)
	}
}
