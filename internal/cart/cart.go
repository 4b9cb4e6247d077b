package cart

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/internal/orders"
	"github.com/angelmondragon/photocard-store/pkg/types"
	"github.com/shopspring/decimal"
)

// StorageKey is the key the cart is saved under.
const StorageKey = "cart"

// Warner receives user-facing notices such as "out of stock".
type Warner func(message string)

// Cart is a client-held list of item snapshots, one entry per unit. Every
// mutation is written through to Storage. Two carts on the same storage
// overwrite each other; the last write wins.
type Cart struct {
	storage Storage
	key     string
	warn    Warner
	entries []catalog.Item
}

type Option func(*Cart)

func WithWarner(w Warner) Option {
	return func(c *Cart) {
		if w != nil {
			c.warn = w
		}
	}
}

func WithKey(key string) Option {
	return func(c *Cart) {
		if key != "" {
			c.key = key
		}
	}
}

// New restores the cart from storage. Malformed stored data yields an empty
// cart and the stored key is removed.
func New(storage Storage, opts ...Option) (*Cart, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage required")
	}
	c := &Cart{storage: storage, key: StorageKey, warn: func(string) {}}
	for _, opt := range opts {
		opt(c)
	}

	raw, ok, err := storage.Get(c.key)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if !ok || raw == "" {
		return c, nil
	}
	var entries []catalog.Item
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		c.warn("Saved cart could not be read and was reset")
		if rmErr := storage.Remove(c.key); rmErr != nil {
			return nil, fmt.Errorf("reset cart: %w", rmErr)
		}
		return c, nil
	}
	c.entries = entries
	return c, nil
}

// Add appends one unit of item. It refuses, with a warning, when the item is
// out of stock or the cart already holds as many units as the snapshot's
// stock. The stock figure is whatever the caller last fetched.
func (c *Cart) Add(item catalog.Item) (bool, error) {
	if item.Quantity <= 0 {
		c.warn("This item is out of stock")
		return false, nil
	}
	if c.Quantity(item.Ref()) >= item.Quantity {
		c.warn(fmt.Sprintf("Only %d available in stock", item.Quantity))
		return false, nil
	}
	if err := c.commit(append(c.entries, item)); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops the first entry for ref only.
func (c *Cart) Remove(ref catalog.Ref) (bool, error) {
	for i, e := range c.entries {
		if e.Ref() == ref {
			if err := c.commit(append(c.entries[:i:i], c.entries[i+1:]...)); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (c *Cart) Clear() error {
	return c.commit(nil)
}

// TotalPrice sums the price of every entry.
func (c *Cart) TotalPrice() decimal.Decimal {
	return types.SumPrices(c.entries,
		func(it catalog.Item) decimal.Decimal { return it.Price },
		func(catalog.Item) int { return 1 },
	)
}

// Count is the number of units, not distinct items.
func (c *Cart) Count() int { return len(c.entries) }

func (c *Cart) Quantity(ref catalog.Ref) int {
	n := 0
	for _, e := range c.entries {
		if e.Ref() == ref {
			n++
		}
	}
	return n
}

func (c *Cart) Contains(ref catalog.Ref) bool { return c.Quantity(ref) > 0 }

// Entries returns a copy of the cart contents in insertion order.
func (c *Cart) Entries() []catalog.Item {
	out := make([]catalog.Item, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lines aggregates the cart into one checkout line per item, first-seen order.
func (c *Cart) Lines() []orders.LineInput {
	index := map[catalog.Ref]int{}
	lines := make([]orders.LineInput, 0, len(c.entries))
	for _, e := range c.entries {
		ref := e.Ref()
		if i, ok := index[ref]; ok {
			lines[i].Quantity++
			continue
		}
		index[ref] = len(lines)
		lines = append(lines, orders.LineInput{
			Kind:     string(e.Kind),
			ID:       e.ID,
			Name:     e.Name,
			Price:    e.Price,
			Quantity: 1,
		})
	}
	return lines
}

// commit saves entries and only then adopts them, so a failed write leaves
// the cart as it was.
func (c *Cart) commit(entries []catalog.Item) error {
	if err := c.persist(entries); err != nil {
		return err
	}
	c.entries = entries
	return nil
}

func (c *Cart) persist(entries []catalog.Item) error {
	if entries == nil {
		entries = []catalog.Item{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.storage.Set(c.key, string(raw)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
