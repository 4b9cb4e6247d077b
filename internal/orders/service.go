package orders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
	"github.com/angelmondragon/photocard-store/pkg/metrics"
	"github.com/angelmondragon/photocard-store/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Inventory is the catalog surface an order transaction needs.
type Inventory interface {
	Resolve(ctx context.Context, kind enums.ItemKind, id int64) (catalog.Item, bool, error)
	Decrement(ctx context.Context, ref catalog.Ref, n int) (catalog.Adjustment, error)
	Restock(ctx context.Context, ref catalog.Ref, n int) (catalog.Adjustment, error)
}

type orderStore interface {
	Append(ctx context.Context, o Order) (Order, error)
	All(ctx context.Context) ([]Order, error)
	ByUser(ctx context.Context, userID int64) ([]Order, error)
	Get(ctx context.Context, id int64) (Order, error)
}

// Service places and reads orders.
type Service interface {
	Create(ctx context.Context, in CreateInput) (Order, error)
	ListForUser(ctx context.Context, userID int64) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id int64, actor Actor) (Order, error)
}

// ServiceParams bundles the dependencies of the order service.
type ServiceParams struct {
	Inventory    Inventory
	Orders       orderStore
	Logger       *logger.Logger
	Metrics      *metrics.OrderMetrics
	EnforceTotal bool
	StrictReads  bool
}

type service struct {
	inventory    Inventory
	orders       orderStore
	logg         *logger.Logger
	metrics      *metrics.OrderMetrics
	enforceTotal bool
	strictReads  bool

	// mu serializes whole checkouts. Collections take their own locks
	// underneath, always one at a time.
	mu sync.Mutex
}

func NewService(params ServiceParams) (Service, error) {
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		inventory:    params.Inventory,
		orders:       params.Orders,
		logg:         params.Logger,
		metrics:      params.Metrics,
		enforceTotal: params.EnforceTotal,
		strictReads:  params.StrictReads,
	}, nil
}

// Create runs the checkout transaction: validate, aggregate, resolve,
// decrement stock, then append the order. If the order cannot be written the
// stock taken is put back.
func (s *service) Create(ctx context.Context, in CreateInput) (Order, error) {
	ctx = s.logg.WithUserID(ctx, in.UserID)
	if err := validateInput(in); err != nil {
		s.metrics.IncFailed("validation")
		return Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.resolve(ctx, aggregate(in.Items))
	if err != nil {
		s.metrics.IncFailed(failureReason(err))
		return Order{}, err
	}

	total := types.RoundPrice(in.Total)
	if err := s.checkTotal(ctx, lines, total); err != nil {
		s.metrics.IncFailed("total_mismatch")
		return Order{}, err
	}

	taken, err := s.take(ctx, lines)
	if err != nil {
		s.metrics.IncFailed("inventory")
		return Order{}, err
	}

	order, err := s.orders.Append(ctx, Order{
		UserID: in.UserID,
		Items:  orderLines(lines),
		Total:  total,
		Status: enums.OrderStatusPending,
	})
	if err != nil {
		s.metrics.IncFailed("persist")
		s.restock(ctx, taken)
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Failed to create order")
	}

	for _, adj := range taken {
		s.metrics.AddDecremented(string(adj.Item.Kind), adj.Applied)
	}
	s.metrics.IncCreated()
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"lines":    len(order.Items),
		"total":    order.Total.String(),
	}), "order.created")
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.orders.ByUser(ctx, userID)
	return s.degrade(ctx, orders, err)
}

func (s *service) ListAll(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.All(ctx)
	return s.degrade(ctx, orders, err)
}

// Get returns the order to its owner or an admin. Anyone else sees not-found.
func (s *service) Get(ctx context.Context, id int64, actor Actor) (Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !actor.Admin && !order.OwnedBy(actor.UserID) {
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) degrade(ctx context.Context, orders []Order, err error) ([]Order, error) {
	if err == nil {
		return orders, nil
	}
	if s.strictReads || pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		return nil, err
	}
	s.logg.Error(ctx, "orders.read_failed", err)
	return []Order{}, nil
}

// MaxLineQuantity bounds a single submitted line. Summing capped lines
// cannot overflow an int.
const MaxLineQuantity = math.MaxInt32

func validateInput(in CreateInput) error {
	if in.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required")
	}
	if len(in.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Items are required")
	}
	if !types.RoundPrice(in.Total).IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Valid total is required")
	}
	details := map[string]string{}
	for i, line := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case line.ID <= 0:
			details[field+".id"] = "must be a positive integer"
		case line.Quantity < 1:
			details[field+".quantity"] = "must be at least 1"
		case line.Quantity > MaxLineQuantity:
			details[field+".quantity"] = fmt.Sprintf("must be at most %d", MaxLineQuantity)
		case line.Price.IsNegative():
			details[field+".price"] = "must not be negative"
		}
		if line.Kind != "" {
			if _, err := enums.ParseItemKind(line.Kind); err != nil {
				details[field+".kind"] = "must be card or print"
			}
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid order items").WithDetails(details)
	}
	return nil
}

// aggregate merges lines with the same submitted (kind, id), summing
// quantities and keeping first-seen order. Already aggregated input passes
// through unchanged.
func aggregate(items []LineInput) []resolvedLine {
	index := map[lineKey]int{}
	out := make([]resolvedLine, 0, len(items))
	for _, in := range items {
		kind, _ := enums.ParseItemKind(in.Kind)
		key := lineKey{kind: kind, id: in.ID}
		if i, ok := index[key]; ok {
			out[i].Quantity += in.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, resolvedLine{Line: Line{
			Kind:     kind,
			ID:       in.ID,
			Name:     strings.TrimSpace(in.Name),
			Price:    types.RoundPrice(in.Price),
			Quantity: in.Quantity,
		}})
	}
	return out
}

// resolve looks every line up in the catalog before anything is mutated.
// Lines that land on the same item (one with a kind, one without) merge.
func (s *service) resolve(ctx context.Context, lines []resolvedLine) ([]resolvedLine, error) {
	byRef := map[catalog.Ref]int{}
	out := make([]resolvedLine, 0, len(lines))
	for _, line := range lines {
		item, found, err := s.inventory.Resolve(ctx, line.Kind, line.ID)
		if err != nil {
			return nil, err
		}
		if !found {
			s.metrics.IncSkipped(string(line.Kind))
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"item_id":   line.ID,
				"item_kind": string(line.Kind),
			}), "order.item_skipped")
			out = append(out, line)
			continue
		}

		ref := item.Ref()
		if i, ok := byRef[ref]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		line.found = true
		line.item = item
		line.ref = ref
		line.Kind = item.Kind
		if line.Name == "" {
			line.Name = item.Name
		}
		byRef[ref] = len(out)
		out = append(out, line)
	}
	return out, nil
}

// checkTotal compares the submitted total with current catalog prices.
// Skipped lines are priced at what the client sent.
func (s *service) checkTotal(ctx context.Context, lines []resolvedLine, total decimal.Decimal) error {
	expected := types.SumPrices(lines,
		func(l resolvedLine) decimal.Decimal {
			if l.found {
				return l.item.Price
			}
			return l.Price
		},
		func(l resolvedLine) int { return l.Quantity },
	)
	if expected.Equal(total) {
		return nil
	}
	if s.enforceTotal {
		return pkgerrors.New(pkgerrors.CodeValidation, "Total does not match item prices").
			WithDetails(map[string]string{"expected": expected.StringFixed(types.PriceScale), "total": total.StringFixed(types.PriceScale)})
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"expected": expected.String(),
		"total":    total.String(),
	}), "order.total_mismatch")
	return nil
}

// take decrements stock for every resolved line. On failure the lines
// already taken are restocked.
func (s *service) take(ctx context.Context, lines []resolvedLine) ([]catalog.Adjustment, error) {
	taken := make([]catalog.Adjustment, 0, len(lines))
	for _, line := range lines {
		if !line.found {
			continue
		}
		adj, err := s.inventory.Decrement(ctx, line.ref, line.Quantity)
		if err != nil {
			s.restock(ctx, taken)
			if pkgerrors.As(err) != nil {
				return nil, err
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Failed to update inventory")
		}
		if adj.Applied < line.Quantity {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"item":      line.ref.String(),
				"requested": line.Quantity,
				"applied":   adj.Applied,
			}), "order.stock_floored")
		}
		taken = append(taken, adj)
	}
	return taken, nil
}

// restock undoes take on a best-effort basis. Every failure is kept.
func (s *service) restock(ctx context.Context, taken []catalog.Adjustment) {
	var errs error
	for _, adj := range taken {
		if adj.Applied == 0 {
			continue
		}
		if _, err := s.inventory.Restock(ctx, adj.Item.Ref(), adj.Applied); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("restock %s: %w", adj.Item.Ref(), err))
			continue
		}
		s.metrics.AddRestocked(string(adj.Item.Kind), adj.Applied)
	}
	if errs != nil {
		s.logg.Error(s.logg.WithField(ctx, "failures", len(multierr.Errors(errs))), "order.restock_failed", errs)
	}
}

func orderLines(lines []resolvedLine) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.Line
	}
	return out
}

func failureReason(err error) string {
	if pkgerrors.CodeOf(err) == pkgerrors.CodeValidation {
		return "ambiguous"
	}
	return "inventory"
}
