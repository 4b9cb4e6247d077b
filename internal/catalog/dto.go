package catalog

import (
	"strings"
	"time"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/shopspring/decimal"
)

// CreateInput carries the admin-supplied fields of a new item. Card fields
// are ignored for prints only when empty; otherwise they are rejected.
type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Quantity    *int

	Group    string
	Member   string
	Album    string
	Set      string
	Age      string
	Rarity   string
	Category string
}

func (in CreateInput) hasCardFields() bool {
	return in.Group != "" || in.Member != "" || in.Album != "" || in.Set != "" ||
		in.Age != "" || in.Rarity != "" || in.Category != ""
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Quantity    *int

	Group    *string
	Member   *string
	Album    *string
	Set      *string
	Age      *string
	Rarity   *string
	Category *string
}

func (p Patch) hasCardFields() bool {
	return p.Group != nil || p.Member != nil || p.Album != nil || p.Set != nil ||
		p.Age != nil || p.Rarity != nil || p.Category != nil
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Image == nil &&
		p.Quantity == nil && !p.hasCardFields()
}

func newItem(kind enums.ItemKind, id int64, in CreateInput, now time.Time) (Item, error) {
	item := Item{
		Kind:        kind,
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Quantity:    DefaultQuantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}

	switch kind {
	case enums.ItemKindCard:
		if item.Image == "" {
			item.Image = DefaultCardImage
		}
		details := &CardDetails{
			Group:    strings.TrimSpace(in.Group),
			Member:   strings.TrimSpace(in.Member),
			Album:    strings.TrimSpace(in.Album),
			Set:      strings.TrimSpace(in.Set),
			Age:      Age(strings.TrimSpace(in.Age)),
			Rarity:   enums.RarityAlbum,
			Category: strings.TrimSpace(in.Category),
		}
		if in.Rarity != "" {
			rarity, err := enums.ParseRarity(in.Rarity)
			if err != nil {
				return Item{}, invalidField("rarity", err.Error())
			}
			details.Rarity = rarity
		}
		if details.Category == "" {
			details.Category = strings.ToLower(details.Group)
		}
		item.CardDetails = details
	case enums.ItemKindPrint:
		if item.Image == "" {
			item.Image = DefaultPrintImage
		}
		if in.hasCardFields() {
			return Item{}, invalidField("kind", "prints do not take card attributes")
		}
	}

	if err := validateItem(item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// apply merges p into a copy of item and validates the merged result.
func (p Patch) apply(item Item, now time.Time) (Item, error) {
	merged := item.clone()

	if p.Name != nil {
		merged.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		merged.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		merged.Price = *p.Price
	}
	if p.Image != nil {
		merged.Image = strings.TrimSpace(*p.Image)
	}
	if p.Quantity != nil {
		merged.Quantity = *p.Quantity
	}

	if p.hasCardFields() {
		if merged.CardDetails == nil {
			return Item{}, invalidField("kind", "prints do not take card attributes")
		}
		c := merged.CardDetails
		if p.Group != nil {
			c.Group = strings.TrimSpace(*p.Group)
		}
		if p.Member != nil {
			c.Member = strings.TrimSpace(*p.Member)
		}
		if p.Album != nil {
			c.Album = strings.TrimSpace(*p.Album)
		}
		if p.Set != nil {
			c.Set = strings.TrimSpace(*p.Set)
		}
		if p.Age != nil {
			c.Age = Age(strings.TrimSpace(*p.Age))
		}
		if p.Category != nil {
			c.Category = strings.TrimSpace(*p.Category)
		}
		if p.Rarity != nil {
			rarity, err := enums.ParseRarity(*p.Rarity)
			if err != nil {
				return Item{}, invalidField("rarity", err.Error())
			}
			c.Rarity = rarity
		}
	}

	if err := validateItem(merged); err != nil {
		return Item{}, err
	}
	merged.UpdatedAt = now
	return merged, nil
}

func validateItem(it Item) error {
	details := map[string]string{}
	if it.Name == "" {
		details["name"] = "is required"
	}
	if it.Price.IsNegative() {
		details["price"] = "must be greater than or equal to 0"
	}
	if it.Quantity < 0 {
		details["quantity"] = "must be greater than or equal to 0"
	}
	switch it.Kind {
	case enums.ItemKindCard:
		if it.CardDetails == nil {
			details["kind"] = "cards require card attributes"
			break
		}
		if it.Group == "" {
			details["group"] = "is required"
		}
		if it.Member == "" {
			details["member"] = "is required"
		}
		if it.Album == "" {
			details["album"] = "is required"
		}
		if !it.Rarity.IsValid() {
			details["rarity"] = "must be one of Album, Preorder Benefit, Lucky Draw"
		}
	case enums.ItemKindPrint:
		if it.CardDetails != nil {
			details["kind"] = "prints do not take card attributes"
		}
	default:
		details["kind"] = "unknown item kind"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid item").WithDetails(details)
	}
	return nil
}

func invalidField(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid item").WithDetails(map[string]string{field: msg})
}
