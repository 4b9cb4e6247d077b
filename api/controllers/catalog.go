package controllers

import (
	"net/http"

	"github.com/angelmondragon/photocard-store/api/responses"
	"github.com/angelmondragon/photocard-store/api/validators"
	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
	"github.com/angelmondragon/photocard-store/pkg/types"
	"github.com/shopspring/decimal"
)

const maxFilterLen = 100

// CatalogList serves /api/menu and /api/prints: in-stock items only, with the
// filters and sort the query string asks for.
func CatalogList(svc catalog.Service, kind enums.ItemKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		q, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q.Filter.InStockOnly = true

		items, err := svc.List(r.Context(), kind, q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, items)
	}
}

// CatalogGet returns one item by id regardless of stock.
func CatalogGet(svc catalog.Service, kind enums.ItemKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, item)
	}
}

// AdminCatalogList returns every item, sold-out ones included.
func AdminCatalogList(svc catalog.Service, kind enums.ItemKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), kind, q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, items)
	}
}

func AdminCatalogCreate(svc catalog.Service, kind enums.ItemKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body itemRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toCreateInput(kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), kind, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, item)
	}
}

func AdminCatalogUpdate(svc catalog.Service, kind enums.ItemKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body itemPatchRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Update(r.Context(), kind, id, body.toPatch())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, item)
	}
}

func AdminCatalogDelete(svc catalog.Service, kind enums.ItemKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), kind, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		label := "Print"
		if kind == enums.ItemKindCard {
			label = "Photocard"
		}
		responses.WriteMessage(w, http.StatusOK, label+" deleted successfully")
	}
}

func parseCatalogQuery(r *http.Request) (catalog.Query, error) {
	sort, err := catalog.ParseSort(r.URL.Query().Get("sortBy"), r.URL.Query().Get("sortOrder"))
	if err != nil {
		return catalog.Query{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "minPrice")
	if err != nil {
		return catalog.Query{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "maxPrice")
	if err != nil {
		return catalog.Query{}, err
	}
	return catalog.Query{
		Filter: catalog.Filter{
			Group:    allAsEmpty(validators.QueryString(r, "group", maxFilterLen)),
			Rarity:   allAsEmpty(validators.QueryString(r, "rarity", maxFilterLen)),
			Age:      allAsEmpty(validators.QueryString(r, "age", maxFilterLen)),
			Search:   validators.QueryString(r, "search", maxFilterLen),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
		},
		Sort: sort,
	}, nil
}

// The storefront sends "all" for an unselected dropdown.
func allAsEmpty(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

type itemRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Image       string           `json:"image"`
	Quantity    *int             `json:"quantity" validate:"omitempty,min=0"`
	Group       string           `json:"group"`
	Member      string           `json:"member"`
	Album       string           `json:"album"`
	Set         string           `json:"set"`
	Age         catalog.Age      `json:"age"`
	Rarity      string           `json:"rarity"`
	Category    string           `json:"category"`
}

func (b itemRequest) toCreateInput(kind enums.ItemKind) (catalog.CreateInput, error) {
	if kind == enums.ItemKindCard && (b.Group == "" || b.Member == "" || b.Album == "") {
		return catalog.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields").
			WithDetails(map[string]string{"required": "name, price, group, member, album"})
	}
	return catalog.CreateInput{
		Name:        validators.SanitizeString(b.Name, 200),
		Description: b.Description,
		Price:       types.RoundPrice(*b.Price),
		Image:       b.Image,
		Quantity:    b.Quantity,
		Group:       b.Group,
		Member:      b.Member,
		Album:       b.Album,
		Set:         b.Set,
		Age:         b.Age.String(),
		Rarity:      b.Rarity,
		Category:    b.Category,
	}, nil
}

type itemPatchRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Quantity    *int             `json:"quantity" validate:"omitempty,min=0"`
	Group       *string          `json:"group"`
	Member      *string          `json:"member"`
	Album       *string          `json:"album"`
	Set         *string          `json:"set"`
	Age         *catalog.Age     `json:"age"`
	Rarity      *string          `json:"rarity"`
	Category    *string          `json:"category"`
}

func (b itemPatchRequest) toPatch() catalog.Patch {
	var age *string
	if b.Age != nil {
		v := b.Age.String()
		age = &v
	}
	return catalog.Patch{
		Name:        b.Name,
		Description: b.Description,
		Price:       b.Price,
		Image:       b.Image,
		Quantity:    b.Quantity,
		Group:       b.Group,
		Member:      b.Member,
		Album:       b.Album,
		Set:         b.Set,
		Age:         age,
		Rarity:      b.Rarity,
		Category:    b.Category,
	}
}
