package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/angelmondragon/photocard-store/internal/cart"
	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/pkg/enums"
)

// TokenKey is the storage key holding the signed-in user's access token.
const TokenKey = "token"

var ErrUnknownCommand = errors.New("unknown command")

type command struct {
	usage string
	run   func(s *Shop, ctx context.Context, args []string) error
}

// Shop is the terminal storefront: a cart held in local storage plus the API
// client used to browse and check out.
type Shop struct {
	api     *Client
	cart    *cart.Cart
	storage cart.Storage
	out     io.Writer
}

func NewShop(api *Client, storage cart.Storage, out io.Writer) (*Shop, error) {
	s := &Shop{api: api, storage: storage, out: out}
	c, err := cart.New(storage, cart.WithWarner(func(msg string) {
		fmt.Fprintln(s.out, msg)
	}))
	if err != nil {
		return nil, err
	}
	s.cart = c
	return s, nil
}

func (s *Shop) Cart() *cart.Cart { return s.cart }

var commands = map[string]command{
	"menu":     {usage: "menu", run: (*Shop).menu},
	"prints":   {usage: "prints", run: (*Shop).prints},
	"add":      {usage: "add <card|print> <id>", run: (*Shop).add},
	"remove":   {usage: "remove <card|print> <id>", run: (*Shop).remove},
	"cart":     {usage: "cart", run: (*Shop).show},
	"clear":    {usage: "clear", run: (*Shop).clear},
	"register": {usage: "register <name> <email> <password>", run: (*Shop).register},
	"login":    {usage: "login <email> <password>", run: (*Shop).login},
	"logout":   {usage: "logout", run: (*Shop).logout},
	"checkout": {usage: "checkout", run: (*Shop).checkout},
	"orders":   {usage: "orders", run: (*Shop).orders},
}

// Usage lists every command, sorted.
func Usage() []string {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		out = append(out, c.usage)
	}
	sort.Strings(out)
	return out
}

// Run dispatches one command line.
func (s *Shop) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: none given", ErrUnknownCommand)
	}
	cmd, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return cmd.run(s, ctx, args[1:])
}

func (s *Shop) menu(ctx context.Context, _ []string) error {
	items, err := s.api.Menu(ctx)
	if err != nil {
		return err
	}
	s.printItems(items)
	return nil
}

func (s *Shop) prints(ctx context.Context, _ []string) error {
	items, err := s.api.Prints(ctx)
	if err != nil {
		return err
	}
	s.printItems(items)
	return nil
}

func (s *Shop) add(ctx context.Context, args []string) error {
	ref, err := parseRef(args)
	if err != nil {
		return err
	}
	item, err := s.api.Item(ctx, ref.Kind, ref.ID)
	if err != nil {
		return err
	}
	added, err := s.cart.Add(item)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(s.out, "Added %s (%d in cart)\n", item.Name, s.cart.Quantity(ref))
	}
	return nil
}

func (s *Shop) remove(_ context.Context, args []string) error {
	ref, err := parseRef(args)
	if err != nil {
		return err
	}
	removed, err := s.cart.Remove(ref)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(s.out, "%s is not in your cart\n", ref)
		return nil
	}
	fmt.Fprintf(s.out, "Removed one %s\n", ref)
	return nil
}

func (s *Shop) show(_ context.Context, _ []string) error {
	if s.cart.Count() == 0 {
		fmt.Fprintln(s.out, "Your cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tNAME\tQTY\tPRICE")
	for _, line := range s.cart.Lines() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", line.Kind, line.ID, line.Name, line.Quantity, line.Price.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%d\t%s\n", s.cart.Count(), s.cart.TotalPrice().StringFixed(2))
	return tw.Flush()
}

func (s *Shop) clear(_ context.Context, _ []string) error {
	if err := s.cart.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Cart cleared")
	return nil
}

func (s *Shop) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: register <name> <email> <password>")
	}
	res, err := s.api.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	if err := s.storage.Set(TokenKey, res.Token); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Welcome, %s\n", res.User.Name)
	return nil
}

func (s *Shop) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	res, err := s.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := s.storage.Set(TokenKey, res.Token); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Logged in as %s\n", res.User.Email)
	return nil
}

func (s *Shop) logout(_ context.Context, _ []string) error {
	if err := s.storage.Remove(TokenKey); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Logged out")
	return nil
}

// checkout posts the aggregated cart and clears it once the order exists.
// On any failure the cart is left untouched.
func (s *Shop) checkout(ctx context.Context, _ []string) error {
	if s.cart.Count() == 0 {
		fmt.Fprintln(s.out, "Your cart is empty")
		return nil
	}
	token, err := s.token()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(s.out, "Please log in to checkout")
		return nil
	}
	order, err := s.api.Checkout(ctx, token, s.cart.Lines(), s.cart.TotalPrice())
	if err != nil {
		return err
	}
	if err := s.cart.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Order #%d placed, total %s\n", order.ID, order.Total.StringFixed(2))
	return nil
}

func (s *Shop) orders(ctx context.Context, _ []string) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(s.out, "Please log in to see your orders")
		return nil
	}
	list, err := s.api.MyOrders(ctx, token)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No orders yet")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tITEMS\tTOTAL\tSTATUS\tPLACED")
	for _, o := range list {
		fmt.Fprintf(tw, "#%d\t%d\t%s\t%s\t%s\n", o.ID, len(o.Items), o.Total.StringFixed(2), o.Status, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (s *Shop) token() (string, error) {
	token, _, err := s.storage.Get(TokenKey)
	return token, err
}

func (s *Shop) printItems(items []catalog.Item) {
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Nothing in stock")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tIN CART")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", it.ID, it.Name, it.Price.StringFixed(2), it.Quantity, s.cart.Quantity(it.Ref()))
	}
	_ = tw.Flush()
}

func parseRef(args []string) (catalog.Ref, error) {
	if len(args) != 2 {
		return catalog.Ref{}, errors.New("expected <card|print> <id>")
	}
	kind, err := enums.ParseItemKind(args[0])
	if err != nil {
		return catalog.Ref{}, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return catalog.Ref{}, fmt.Errorf("invalid id %q", args[1])
	}
	return catalog.Ref{Kind: kind, ID: id}, nil
}
