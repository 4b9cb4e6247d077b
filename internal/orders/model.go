package orders

import (
	"time"

	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	"github.com/shopspring/decimal"
)

// Line is one item of a placed order. Kind is empty only for lines whose id
// matched nothing in the catalog.
type Line struct {
	Kind     enums.ItemKind  `json:"kind,omitempty"`
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Order is immutable once written to orders.json.
type Order struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"userId"`
	Items     []Line            `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	Status    enums.OrderStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// LineInput is a line as submitted at checkout.
type LineInput struct {
	Kind     string          `json:"kind,omitempty"`
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CreateInput is a checkout request. UserID comes from the caller's
// credential, never from the body.
type CreateInput struct {
	UserID int64
	Items  []LineInput
	Total  decimal.Decimal
}

// Actor is the caller reading orders.
type Actor struct {
	UserID int64
	Admin  bool
}

func (o Order) OwnedBy(userID int64) bool { return o.UserID == userID }

// lineKey groups submitted lines before resolution. kind is what the client
// sent, possibly empty.
type lineKey struct {
	kind enums.ItemKind
	id   int64
}

// resolvedLine is an aggregated line with its catalog match, if any.
type resolvedLine struct {
	Line
	ref   catalog.Ref
	item  catalog.Item
	found bool
}
