package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	"github.com/angelmondragon/photocard-store/pkg/jsonstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T, kind enums.ItemKind, seed ...Item) *Store {
	t.Helper()
	dir, err := jsonstore.Open(context.Background(), t.TempDir(), nil, nil)
	require.NoError(t, err)
	store, err := NewStore(kind, jsonstore.OpenCollection[Item](dir, FileName(kind)), newFakeClock().Now)
	require.NoError(t, err)
	if len(seed) > 0 {
		_, err := store.Seed(context.Background(), seed)
		require.NoError(t, err)
	}
	return store
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func card(id int64, name, group string, p string, qty int) Item {
	return Item{
		Kind:     enums.ItemKindCard,
		ID:       id,
		Name:     name,
		Price:    price(p),
		Quantity: qty,
		CardDetails: &CardDetails{
			Group:    group,
			Member:   "Member",
			Album:    "Album",
			Rarity:   enums.RarityAlbum,
			Category: "cat",
		},
	}
}

func printItem(id int64, name, desc, p string, qty int) Item {
	return Item{Kind: enums.ItemKindPrint, ID: id, Name: name, Description: desc, Price: price(p), Quantity: qty}
}

func ids(items []Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func decPtr(v string) *decimal.Decimal {
	d := price(v)
	return &d
}
