// Package backend is the REST client for the remote pedidos service. The
// service itself is a black box; only the request/response shapes the core
// depends on live here.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mgiraudo/pedidos/internal/domain"
)

// DefaultTimeout bounds every backend call; an expiry is reported as a
// timeout failure, distinct from a connectivity failure, since the backend
// might have received the write.
const DefaultTimeout = 10 * time.Second

const maxResponseBody = 1 << 20 // 1MB

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID propagates the host request id to the backend call headers.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

type httpResult struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*httpResult]

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[*httpResult](gobreaker.Settings{
		Name:    "pedidos-backend",
		Timeout: 15 * time.Second,
	})

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

// SetToken installs the bearer token attached to subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

type Session struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	UserID      int64  `json:"user_id"`
}

// Login authenticates against the backend and installs the session token on
// success.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &session); err != nil {
		return nil, err
	}

	c.SetToken(session.AccessToken)
	return &session, nil
}

type CatalogQuery struct {
	Description string
	Rubro       string
	Cursor      string
	Limit       int
}

type Pagination struct {
	NextCursor  string `json:"nextCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

type CatalogPage struct {
	Items      []domain.Article `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

func (c *Client) Catalog(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	params := url.Values{}
	if q.Description != "" {
		params.Set("description", q.Description)
	}
	if q.Rubro != "" {
		params.Set("rubro", q.Rubro)
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var page CatalogPage
	if err := c.do(ctx, http.MethodGet, "/products/catalog", params, nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []domain.Article{}
	}
	return &page, nil
}

func (c *Client) Rubros(ctx context.Context) ([]domain.Rubro, error) {
	var rubros []domain.Rubro
	if err := c.do(ctx, http.MethodGet, "/rubros", nil, nil, &rubros); err != nil {
		return nil, err
	}
	return rubros, nil
}

type orderProductDTO struct {
	IDArticulo  string  `json:"idArticulo"`
	Descripcion string  `json:"descripcion"`
	Cantidad    int     `json:"cantidad"`
	Precio      float64 `json:"precio"`
	Observation string  `json:"observation"`
}

type orderDTO struct {
	ID          int64             `json:"id"`
	ClientName  string            `json:"clientName"`
	TotalValue  float64           `json:"totalValue"`
	FechaAlta   time.Time         `json:"fechaAlta"`
	Observation string            `json:"observation"`
	Products    []orderProductDTO `json:"products"`
}

func (dto orderDTO) toDomain() domain.Order {
	lines := make([]domain.OrderLine, 0, len(dto.Products))
	for _, p := range dto.Products {
		lines = append(lines, domain.OrderLine{
			ArticleID: p.IDArticulo,
			Name:      p.Descripcion,
			Quantity:  p.Cantidad,
			UnitPrice: p.Precio,
			Note:      p.Observation,
		})
	}

	return domain.Order{
		ID:         dto.ID,
		Status:     domain.OrderStatusSent,
		ClientName: dto.ClientName,
		TotalValue: dto.TotalValue,
		CreatedAt:  dto.FechaAlta,
		Note:       dto.Observation,
		Lines:      lines,
	}
}

// ListOrders fetches the full server-confirmed order list.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var resp struct {
		Items []orderDTO `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/pedidos", nil, nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(resp.Items))
	for _, dto := range resp.Items {
		orders = append(orders, dto.toDomain())
	}
	return orders, nil
}

// GetOrder fetches one order's detail, nested product lines included.
func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var dto orderDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/pedidos/%d", id), nil, nil, &dto); err != nil {
		return nil, err
	}
	order := dto.toDomain()
	return &order, nil
}

// CreateOrder posts a submission payload and returns the server-assigned id.
func (c *Client) CreateOrder(ctx context.Context, payload domain.SubmissionPayload) (int64, error) {
	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/pedidos", nil, payload, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.breaker.Execute(func() (*httpResult, error) {
		resp, errDo := c.http.Do(req)
		if errDo != nil {
			return nil, errDo
		}
		defer resp.Body.Close()

		raw, errRead := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if errRead != nil {
			return nil, errRead
		}

		// 5xx counts as a breaker failure, 4xx does not: a rejected
		// payload says nothing about backend health.
		if resp.StatusCode >= 500 {
			return nil, normalizeStatus(resp.StatusCode, raw)
		}
		return &httpResult{status: resp.StatusCode, body: raw}, nil
	})
	if err != nil {
		return classifyTransport(err)
	}

	if res.status >= 400 {
		return normalizeStatus(res.status, res.body)
	}

	if out != nil && len(res.body) > 0 {
		if err := json.Unmarshal(res.body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func classifyTransport(err error) error {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Failure{Kind: FailureNetwork, Message: "connectivity error"}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Message: "request timed out"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: FailureTimeout, Message: "request timed out"}
	}

	return &Failure{Kind: FailureNetwork, Message: "connectivity error"}
}
