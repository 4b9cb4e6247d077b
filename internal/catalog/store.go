package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/jsonstore"
	"github.com/angelmondragon/photocard-store/pkg/types"
)

// collection is the persistence handle a Store needs.
type collection interface {
	Name() string
	Load(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, fn func([]Item) ([]Item, error)) error
	Ensure(ctx context.Context, seed []Item) (bool, error)
}

// Store is one catalog collection (cards or prints) backed by a JSON file.
// Every mutation is a locked whole-file read-modify-write.
type Store struct {
	kind  enums.ItemKind
	items collection
	now   func() time.Time
}

// Adjustment reports a stock change made by Decrement or Restock.
type Adjustment struct {
	Item     Item
	Previous int
	// Applied is how many units actually moved. Decrement floors at zero so
	// it can be less than requested.
	Applied int
}

func NewStore(kind enums.ItemKind, items collection, now func() time.Time) (*Store, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid item kind %q", kind)
	}
	if items == nil {
		return nil, errors.New("collection required")
	}
	if now == nil {
		now = time.Now
	}
	return &Store{kind: kind, items: items, now: now}, nil
}

// OpenStore binds a store to the standard file name for kind under dir.
func OpenStore(dir *jsonstore.Dir, kind enums.ItemKind) (*Store, error) {
	return NewStore(kind, jsonstore.OpenCollection[Item](dir, FileName(kind)), nil)
}

// FileName returns the collection file name (without extension) for kind.
func FileName(kind enums.ItemKind) string {
	if kind == enums.ItemKindCard {
		return "photocards"
	}
	return "prints"
}

func (s *Store) Kind() enums.ItemKind { return s.kind }

// All returns every stored item or the storage error that prevented reading.
func (s *Store) All(ctx context.Context) ([]Item, error) {
	items, err := s.items.Load(ctx)
	if err != nil {
		return nil, s.readError(err)
	}
	for i := range items {
		s.normalize(&items[i])
	}
	return items, nil
}

func (s *Store) List(ctx context.Context, q Query) ([]Item, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	q.Filter = filterForKind(s.kind, q.Filter)
	return q.Apply(items), nil
}

func (s *Store) Get(ctx context.Context, id int64) (Item, error) {
	items, err := s.All(ctx)
	if err != nil {
		return Item{}, err
	}
	if idx := indexOf(items, id); idx >= 0 {
		return items[idx], nil
	}
	return Item{}, s.notFound()
}

func (s *Store) Create(ctx context.Context, in CreateInput) (Item, error) {
	var created Item
	err := s.mutate(ctx, func(items []Item) ([]Item, error) {
		item, err := newItem(s.kind, nextID(items), in, s.now().UTC())
		if err != nil {
			return nil, err
		}
		created = item
		return append(items, item), nil
	})
	return created, err
}

func (s *Store) Update(ctx context.Context, id int64, patch Patch) (Item, error) {
	var updated Item
	err := s.mutate(ctx, func(items []Item) ([]Item, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, s.notFound()
		}
		merged, err := patch.apply(items[idx], s.now().UTC())
		if err != nil {
			return nil, err
		}
		items[idx] = merged
		updated = merged
		return items, nil
	})
	return updated, err
}

// Delete reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	removed := false
	err := s.mutate(ctx, func(items []Item) ([]Item, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, errNoChange
		}
		removed = true
		return append(items[:idx], items[idx+1:]...), nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	return removed, err
}

// Decrement removes up to n units of stock, never going below zero.
func (s *Store) Decrement(ctx context.Context, id int64, n int) (Adjustment, error) {
	if n <= 0 {
		return Adjustment{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return s.adjust(ctx, id, func(q int) int { return max(0, q-n) })
}

// Restock returns n units to stock. It undoes a Decrement.
func (s *Store) Restock(ctx context.Context, id int64, n int) (Adjustment, error) {
	if n <= 0 {
		return Adjustment{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return s.adjust(ctx, id, func(q int) int { return q + n })
}

func (s *Store) adjust(ctx context.Context, id int64, next func(int) int) (Adjustment, error) {
	var adj Adjustment
	err := s.mutate(ctx, func(items []Item) ([]Item, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, s.notFound()
		}
		item := items[idx]
		adj.Previous = item.Quantity
		item.Quantity = next(item.Quantity)
		item.UpdatedAt = s.now().UTC()
		adj.Applied = abs(adj.Previous - item.Quantity)
		adj.Item = item
		items[idx] = item
		return items, nil
	})
	return adj, err
}

// Seed writes seed when the collection file does not exist yet.
func (s *Store) Seed(ctx context.Context, seed []Item) (bool, error) {
	now := s.now().UTC()
	prepared := make([]Item, len(seed))
	for i, it := range seed {
		it = it.clone()
		s.normalize(&it)
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = now
		}
		prepared[i] = it
	}
	created, err := s.items.Ensure(ctx, prepared)
	if err != nil {
		return false, s.readError(err)
	}
	return created, nil
}

var errNoChange = errors.New("no change")

func (s *Store) mutate(ctx context.Context, fn func([]Item) ([]Item, error)) error {
	err := s.items.Update(ctx, func(items []Item) ([]Item, error) {
		for i := range items {
			s.normalize(&items[i])
		}
		return fn(items)
	})
	if err == nil || pkgerrors.As(err) != nil || errors.Is(err, errNoChange) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return s.readError(err)
}

// normalize stamps the collection kind on records loaded from disk; the
// files themselves are per-kind so the stored field is advisory.
func (s *Store) normalize(it *Item) {
	it.Kind = s.kind
	it.Price = types.RoundPrice(it.Price)
	if s.kind == enums.ItemKindPrint {
		it.CardDetails = nil
	}
}

func (s *Store) label() string {
	if s.kind == enums.ItemKindCard {
		return "photocard"
	}
	return "print"
}

func (s *Store) notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, s.label()+" not found")
}

func (s *Store) readError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to access "+s.items.Name())
}

func nextID(items []Item) int64 {
	var maxID int64
	for _, it := range items {
		maxID = max(maxID, it.ID)
	}
	return maxID + 1
}

func indexOf(items []Item, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
