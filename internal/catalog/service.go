package catalog

import (
	"context"
	"errors"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
)

// Service exposes catalog browsing and admin management.
type Service interface {
	List(ctx context.Context, kind enums.ItemKind, q Query) ([]Item, error)
	Get(ctx context.Context, kind enums.ItemKind, id int64) (Item, error)
	Create(ctx context.Context, kind enums.ItemKind, input CreateInput) (Item, error)
	Update(ctx context.Context, kind enums.ItemKind, id int64, patch Patch) (Item, error)
	Delete(ctx context.Context, kind enums.ItemKind, id int64) error
}

type ServiceParams struct {
	Catalog *Catalog
	Logger  *logger.Logger
	// StrictReads surfaces storage failures on listing endpoints instead of
	// answering with an empty list.
	StrictReads bool
}

type service struct {
	catalog *Catalog
	logg    *logger.Logger
	strict  bool
}

func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, errors.New("catalog required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &service{
		catalog: params.Catalog,
		logg:    params.Logger,
		strict:  params.StrictReads,
	}, nil
}

func (s *service) List(ctx context.Context, kind enums.ItemKind, q Query) ([]Item, error) {
	store, err := s.catalog.Store(kind)
	if err != nil {
		return nil, err
	}
	items, err := store.List(ctx, q)
	if err == nil {
		return items, nil
	}
	if s.strict || pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		return nil, err
	}
	s.logg.Error(s.logg.WithField(ctx, "kind", kind.String()), "catalog.read_failed", err)
	return []Item{}, nil
}

func (s *service) Get(ctx context.Context, kind enums.ItemKind, id int64) (Item, error) {
	store, err := s.catalog.Store(kind)
	if err != nil {
		return Item{}, err
	}
	return store.Get(ctx, id)
}

func (s *service) Create(ctx context.Context, kind enums.ItemKind, input CreateInput) (Item, error) {
	store, err := s.catalog.Store(kind)
	if err != nil {
		return Item{}, err
	}
	item, err := store.Create(ctx, input)
	if err != nil {
		return Item{}, err
	}
	s.logg.Info(s.withItem(ctx, item), "catalog.item_created")
	return item, nil
}

func (s *service) Update(ctx context.Context, kind enums.ItemKind, id int64, patch Patch) (Item, error) {
	if patch.IsEmpty() {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	store, err := s.catalog.Store(kind)
	if err != nil {
		return Item{}, err
	}
	item, err := store.Update(ctx, id, patch)
	if err != nil {
		return Item{}, err
	}
	s.logg.Info(s.withItem(ctx, item), "catalog.item_updated")
	return item, nil
}

func (s *service) Delete(ctx context.Context, kind enums.ItemKind, id int64) error {
	store, err := s.catalog.Store(kind)
	if err != nil {
		return err
	}
	removed, err := store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return store.notFound()
	}
	s.logg.Info(s.withItem(ctx, Item{Kind: kind, ID: id}), "catalog.item_deleted")
	return nil
}

func (s *service) withItem(ctx context.Context, item Item) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"item_kind": item.Kind.String(),
		"item_id":   item.ID,
		"quantity":  item.Quantity,
	})
}
