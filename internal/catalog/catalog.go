package catalog

import (
	"context"
	"errors"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
)

// Catalog groups the card and print stores and resolves item references
// across them.
type Catalog struct {
	cards  *Store
	prints *Store
}

func New(cards, prints *Store) (*Catalog, error) {
	if cards == nil || cards.Kind() != enums.ItemKindCard {
		return nil, errors.New("card store required")
	}
	if prints == nil || prints.Kind() != enums.ItemKindPrint {
		return nil, errors.New("print store required")
	}
	return &Catalog{cards: cards, prints: prints}, nil
}

func (c *Catalog) Cards() *Store  { return c.cards }
func (c *Catalog) Prints() *Store { return c.prints }

func (c *Catalog) Store(kind enums.ItemKind) (*Store, error) {
	switch kind {
	case enums.ItemKindCard:
		return c.cards, nil
	case enums.ItemKindPrint:
		return c.prints, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind").
		WithDetails(map[string]string{"kind": string(kind)})
}

// Resolve finds the item an order line refers to. With a kind only that
// collection is consulted. Without one the id must match exactly one
// collection: a match in both is rejected as ambiguous rather than guessed.
// found is false when the id matches nothing.
func (c *Catalog) Resolve(ctx context.Context, kind enums.ItemKind, id int64) (item Item, found bool, err error) {
	if kind != "" {
		store, err := c.Store(kind)
		if err != nil {
			return Item{}, false, err
		}
		return lookup(ctx, store, id)
	}

	card, inCards, err := lookup(ctx, c.cards, id)
	if err != nil {
		return Item{}, false, err
	}
	pr, inPrints, err := lookup(ctx, c.prints, id)
	if err != nil {
		return Item{}, false, err
	}
	switch {
	case inCards && inPrints:
		return Item{}, false, pkgerrors.New(pkgerrors.CodeValidation, "item id is ambiguous; kind is required").
			WithDetails(map[string]any{"id": id, "kinds": []enums.ItemKind{enums.ItemKindCard, enums.ItemKindPrint}})
	case inCards:
		return card, true, nil
	case inPrints:
		return pr, true, nil
	}
	return Item{}, false, nil
}

func lookup(ctx context.Context, store *Store, id int64) (Item, bool, error) {
	item, err := store.Get(ctx, id)
	if err == nil {
		return item, true, nil
	}
	if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
		return Item{}, false, nil
	}
	return Item{}, false, err
}

// Decrement removes up to n units of the referenced item.
func (c *Catalog) Decrement(ctx context.Context, ref Ref, n int) (Adjustment, error) {
	store, err := c.Store(ref.Kind)
	if err != nil {
		return Adjustment{}, err
	}
	return store.Decrement(ctx, ref.ID, n)
}

// Restock returns n units of the referenced item to stock.
func (c *Catalog) Restock(ctx context.Context, ref Ref, n int) (Adjustment, error) {
	store, err := c.Store(ref.Kind)
	if err != nil {
		return Adjustment{}, err
	}
	return store.Restock(ctx, ref.ID, n)
}
