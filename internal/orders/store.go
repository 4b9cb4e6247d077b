package orders

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/jsonstore"
)

// FileName is the orders collection file (without extension).
const FileName = "orders"

type collection interface {
	Name() string
	Load(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, fn func([]Order) ([]Order, error)) error
	Ensure(ctx context.Context, seed []Order) (bool, error)
}

// Store appends and reads orders in orders.json.
type Store struct {
	orders collection
	now    func() time.Time
}

func NewStore(orders collection, now func() time.Time) (*Store, error) {
	if orders == nil {
		return nil, errors.New("collection required")
	}
	if now == nil {
		now = time.Now
	}
	return &Store{orders: orders, now: now}, nil
}

func OpenStore(dir *jsonstore.Dir) (*Store, error) {
	return NewStore(jsonstore.OpenCollection[Order](dir, FileName), nil)
}

// Init creates an empty orders file when none exists.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.orders.Ensure(ctx, []Order{}); err != nil {
		return s.readError(err)
	}
	return nil
}

// Append stamps o with the next id and timestamps and persists it.
func (s *Store) Append(ctx context.Context, o Order) (Order, error) {
	err := s.orders.Update(ctx, func(orders []Order) ([]Order, error) {
		var maxID int64
		for _, existing := range orders {
			maxID = max(maxID, existing.ID)
		}
		now := s.now().UTC()
		o.ID = maxID + 1
		o.CreatedAt = now
		o.UpdatedAt = now
		return append(orders, o), nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Order{}, err
		}
		return Order{}, s.readError(err)
	}
	return o, nil
}

func (s *Store) All(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.Load(ctx)
	if err != nil {
		return nil, s.readError(err)
	}
	return orders, nil
}

// ByUser returns the user's orders in file order.
func (s *Store) ByUser(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0)
	for _, o := range orders {
		if o.OwnedBy(userID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Order, error) {
	orders, err := s.All(ctx)
	if err != nil {
		return Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *Store) readError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to access "+s.orders.Name())
}
