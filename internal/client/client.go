package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/photocard-store/internal/auth"
	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/internal/orders"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
)

const (
	DefaultBaseURL        = "http://localhost:3001"
	responseBodyReadLimit = 1 << 20
	errorBodyReadLimit    = 4096
	idempotencyKeyHeader  = "Idempotency-Key"
	defaultRequestTimeout = 10 * time.Second
)

// APIError is a non-2xx answer from the store API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store api: status %d", e.Status)
	}
	return fmt.Sprintf("store api: %s (status %d)", e.Message, e.Status)
}

// Client talks to the photocard store REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Menu lists in-stock photocards.
func (c *Client) Menu(ctx context.Context) ([]catalog.Item, error) {
	var items []catalog.Item
	err := c.do(ctx, http.MethodGet, "/api/menu", "", nil, nil, &items)
	return items, err
}

// Prints lists in-stock prints.
func (c *Client) Prints(ctx context.Context) ([]catalog.Item, error) {
	var items []catalog.Item
	err := c.do(ctx, http.MethodGet, "/api/prints", "", nil, nil, &items)
	return items, err
}

// Item fetches one item with its current stock.
func (c *Client) Item(ctx context.Context, kind enums.ItemKind, id int64) (catalog.Item, error) {
	var item catalog.Item
	path := "/api/prints/"
	if kind == enums.ItemKindCard {
		path = "/api/photocards/"
	}
	err := c.do(ctx, http.MethodGet, path+strconv.FormatInt(id, 10), "", nil, nil, &item)
	return item, err
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Result, error) {
	var res auth.Result
	err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, auth.LoginRequest{Email: email, Password: password}, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, name, email, password string) (auth.Result, error) {
	var res auth.Result
	err := c.do(ctx, http.MethodPost, "/auth/register", "", nil, auth.RegisterRequest{Name: name, Email: email, Password: password}, &res)
	return res, err
}

// Checkout posts the order. Each call carries a fresh idempotency key, so a
// retry by the transport does not place a second order.
func (c *Client) Checkout(ctx context.Context, token string, lines []orders.LineInput, total decimal.Decimal) (orders.Order, error) {
	var res struct {
		Order orders.Order `json:"order"`
	}
	body := struct {
		Items []orders.LineInput `json:"items"`
		Total decimal.Decimal    `json:"total"`
	}{Items: lines, Total: total}
	headers := map[string]string{idempotencyKeyHeader: uuid.NewString()}
	err := c.do(ctx, http.MethodPost, "/api/orders", token, headers, body, &res)
	return res.Order, err
}

func (c *Client) MyOrders(ctx context.Context, token string) ([]orders.Order, error) {
	var res struct {
		Orders []orders.Order `json:"orders"`
	}
	err := c.do(ctx, http.MethodGet, "/api/orders/my-orders", token, nil, nil, &res)
	return res.Orders, err
}

func (c *Client) do(ctx context.Context, method, path, token string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store api unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
