package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/photocard-store/pkg/enums"
)

//go:embed seed/*.json
var seedFS embed.FS

// SampleItems returns the bundled sample catalog for kind.
func SampleItems(kind enums.ItemKind) ([]Item, error) {
	raw, err := seedFS.ReadFile("seed/" + FileName(kind) + ".json")
	if err != nil {
		return nil, fmt.Errorf("read sample %s: %w", kind, err)
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode sample %s: %w", kind, err)
	}
	for i := range items {
		items[i].Kind = kind
	}
	return items, nil
}

// SeedSamples creates missing catalog files from the bundled samples and
// reports which kinds were written.
func SeedSamples(ctx context.Context, stores ...*Store) ([]enums.ItemKind, error) {
	var seeded []enums.ItemKind
	for _, store := range stores {
		items, err := SampleItems(store.Kind())
		if err != nil {
			return seeded, err
		}
		created, err := store.Seed(ctx, items)
		if err != nil {
			return seeded, err
		}
		if created {
			seeded = append(seeded, store.Kind())
		}
	}
	return seeded, nil
}
