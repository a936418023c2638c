package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"goeats/internal/domain"
)

var (
	// ErrRemote wraps every non-success answer from the API.
	ErrRemote = errors.New("remote request failed")
	// ErrUnavailable wraps transport failures where no answer was received.
	ErrUnavailable = errors.New("remote unavailable")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error { return ErrRemote }

// Client talks to the food-ordering API. Every call honours ctx, which is how
// callers abandon requests whose result they no longer need.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. timeout <= 0 means no client-side timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login exchange.
type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type cartItemRequest struct {
	MenuID   string `json:"menu_id"`
	Quantity int    `json:"quantity"`
}

// OrderRequest is the order submission payload.
type OrderRequest struct {
	Items       []OrderLine `json:"items"`
	TotalAmount json.Number `json:"total_amount"`
}

type OrderLine struct {
	MenuID   string `json:"menu_id"`
	Quantity int    `json:"quantity"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodPost, "/user", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/user/login", "", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Menu(ctx context.Context) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	if err := c.do(ctx, http.MethodGet, "/restaurant/menu", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddCartItem mirrors a local add-to-cart on the server.
func (c *Client) AddCartItem(ctx context.Context, token, menuID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/cart/", token, cartItemRequest{MenuID: menuID, Quantity: quantity}, nil)
}

// SubmitOrder places an order. The API may answer with an empty body, in
// which case the returned order is nil.
func (c *Client) SubmitOrder(ctx context.Context, token string, req OrderRequest) (*domain.Order, error) {
	var out *domain.Order
	if err := c.do(ctx, http.MethodPost, "/order/", token, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/order/", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewsByMenu lists reviews for one menu item. token may be empty.
func (c *Client) ReviewsByMenu(ctx context.Context, token, menuID string) ([]domain.Review, error) {
	var out []domain.Review
	if err := c.do(ctx, http.MethodGet, "/review/menu/"+url.PathEscape(menuID), token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
