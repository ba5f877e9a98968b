// internal/adapter/shopapi/client.go

package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"shopmap/internal/domain/shop"
)

// maxErrorBody caps how much of a failed response is read
const maxErrorBody = 64 * 1024

// StatusError is a non-2xx answer from the shop backend
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Msg)
}

// Is maps 400 and 404 onto the domain sentinels
func (e *StatusError) Is(target error) bool {
	switch target {
	case shop.ErrValidation:
		return e.Code == http.StatusBadRequest
	case shop.ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

// Client implements shop.Service over the backend REST API
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid shop API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid shop API URL %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Find lists shops around q.Center, filtered by q.Term when set
func (c *Client) Find(ctx context.Context, q shop.Query) ([]shop.Shop, error) {
	params := url.Values{}
	params.Set("lon", strconv.FormatFloat(q.Center.Lng, 'f', -1, 64))
	params.Set("lat", strconv.FormatFloat(q.Center.Lat, 'f', -1, 64))
	params.Set("range", strconv.Itoa(q.RangeM))
	if q.Term != "" {
		params.Set("q", q.Term)
	}

	op := "fetch"
	if q.Term != "" {
		op = "search"
	}

	var body shop.ListResponse
	if err := c.do(ctx, op, http.MethodGet, "/api/shop?"+params.Encode(), nil, &body); err != nil {
		return nil, err
	}
	if body.Items == nil {
		body.Items = []shop.Shop{}
	}

	c.logger.Debug("Fetched shops", zap.String("op", op), zap.Int("count", len(body.Items)))
	return body.Items, nil
}

// Create inserts a new shop
func (c *Client) Create(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	var created shop.Shop
	if err := c.do(ctx, "insert", http.MethodPost, "/api/shop", s, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update amends the shop with the same title and coordinate
func (c *Client) Update(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	var updated shop.Shop
	if err := c.do(ctx, "update", http.MethodPut, "/api/shop", s, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// do sends one request; every failure comes back as *shop.NetworkError
func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var payload io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &shop.NetworkError{Op: op, Err: fmt.Errorf("error encoding request: %w", err)}
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, payload)
	if err != nil {
		return &shop.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &shop.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &shop.NetworkError{Op: op, Err: readStatusError(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &shop.NetworkError{Op: op, Err: fmt.Errorf("error decoding response: %w", err)}
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	statusErr := &StatusError{Code: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return statusErr
	}

	var body shop.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Msg != "" {
		statusErr.Msg = body.Msg
	} else {
		statusErr.Msg = strings.TrimSpace(string(data))
	}
	return statusErr
}
