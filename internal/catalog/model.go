package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	DefaultCardImage  = "/images/default-photocard.jpg"
	DefaultPrintImage = "/images/default-print.jpg"
	DefaultQuantity   = 1
)

// Item is a sellable catalog entry. Kind discriminates the two variants:
// cards carry CardDetails, prints never do.
type Item struct {
	Kind        enums.ItemKind  `json:"kind"`
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	*CardDetails
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CardDetails holds the collectible attributes of a photocard.
type CardDetails struct {
	Group    string       `json:"group"`
	Member   string       `json:"member"`
	Album    string       `json:"album"`
	Set      string       `json:"set,omitempty"`
	Age      Age          `json:"age,omitempty"`
	Rarity   enums.Rarity `json:"rarity"`
	Category string       `json:"category"`
}

// Ref is the composite key identifying an item across both collections.
type Ref struct {
	Kind enums.ItemKind `json:"kind"`
	ID   int64          `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

func (i Item) Ref() Ref {
	return Ref{Kind: i.Kind, ID: i.ID}
}

func (i Item) IsCard() bool {
	return i.Kind == enums.ItemKindCard
}

func (i Item) InStock() bool {
	return i.Quantity > 0
}

// clone copies the item so the card details pointer is not shared.
func (i Item) clone() Item {
	if i.CardDetails != nil {
		details := *i.CardDetails
		i.CardDetails = &details
	}
	return i
}

// Age is the release year of a card. Older data files store it either as a
// string or as a number, so both decode.
type Age string

func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Age(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("age must be a string or number: %w", err)
	}
	*a = Age(n.String())
	return nil
}

func (a Age) String() string { return string(a) }
