// Package client is a typed Go client for the stanza backend REST API.
// It has no dependency on server internals so external tools can embed it.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned when the server reports 404 for a record.
var ErrNotFound = errors.New("not found")

// APIError carries a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client talks to one backend instance.
type Client struct {
	http *resty.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resource binds the client to one collection, e.g. NewResource[User](c, "users").
type Resource[T any] struct {
	c    *Client
	path string
}

// NewResource creates a typed handle on /api/{collection}.
func NewResource[T any](c *Client, collection string) *Resource[T] {
	return &Resource[T]{c: c, path: "/api/" + collection}
}

// ListOptions mirror the server's list query parameters. Zero values are
// omitted from the request.
type ListOptions struct {
	Search   string
	Filter   string
	SortBy   string
	SortDesc bool
	Page     *int
	PageSize *int
}

// ListResult is the paginated list envelope.
type ListResult[T any] struct {
	TotalItems int `json:"totalItems"`
	Items      []T `json:"items"`
}

// FindResult is the filter-query envelope.
type FindResult[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

func apiErr(resp *resty.Response) error {
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	msg := resp.String()
	if body, ok := resp.Error().(*errorBody); ok && body.Message != "" {
		msg = body.Message
	}
	return &APIError{Status: resp.StatusCode(), Message: msg}
}

func (r *Resource[T]) req(ctx context.Context) *resty.Request {
	return r.c.http.R().SetContext(ctx).SetError(&errorBody{})
}

// List fetches a filtered, sorted, windowed page of the collection.
func (r *Resource[T]) List(ctx context.Context, opts ListOptions) (*ListResult[T], error) {
	req := r.req(ctx)
	if opts.Search != "" {
		req.SetQueryParam("search", opts.Search)
	}
	if opts.Filter != "" {
		req.SetQueryParam("filter", opts.Filter)
	}
	if opts.SortBy != "" {
		req.SetQueryParam("sortBy", opts.SortBy)
		if opts.SortDesc {
			req.SetQueryParam("sortDesc", "true")
		}
	}
	if opts.Page != nil {
		req.SetQueryParam("page", strconv.Itoa(*opts.Page))
	}
	if opts.PageSize != nil {
		req.SetQueryParam("pageSize", strconv.Itoa(*opts.PageSize))
	}
	var out ListResult[T]
	resp, err := req.SetResult(&out).Get(r.path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// GetAll fetches the whole visible collection without a window.
func (r *Resource[T]) GetAll(ctx context.Context) ([]T, error) {
	res, err := r.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Get fetches a single record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	resp, err := r.req(ctx).SetResult(&out).Get(r.path + "/" + id)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// Find evaluates a filter expression server-side.
func (r *Resource[T]) Find(ctx context.Context, filter string) (*FindResult[T], error) {
	var out FindResult[T]
	resp, err := r.req(ctx).
		SetQueryParam("filter", filter).
		SetResult(&out).
		Get(r.path + "/find")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// Exists reports whether any record has property == value.
func (r *Resource[T]) Exists(ctx context.Context, property, value string) (bool, error) {
	var out bool
	resp, err := r.req(ctx).
		SetQueryParam("property", property).
		SetQueryParam("value", value).
		SetResult(&out).
		Get(r.path + "/exists")
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, apiErr(resp)
	}
	return out, nil
}

// Create persists a new record and returns the server's copy with id,
// version and audit fields populated.
func (r *Resource[T]) Create(ctx context.Context, item *T) (*T, error) {
	var out T
	resp, err := r.req(ctx).SetBody(item).SetResult(&out).Post(r.path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// Update replaces a record. The payload must carry the current version.
func (r *Resource[T]) Update(ctx context.Context, id string, item *T) error {
	resp, err := r.req(ctx).SetBody(item).Put(r.path + "/" + id)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiErr(resp)
	}
	return nil
}

// Delete removes a record. soft overrides the server-side default when
// non-nil.
func (r *Resource[T]) Delete(ctx context.Context, id string, soft *bool) error {
	req := r.req(ctx)
	if soft != nil {
		req.SetQueryParam("softDelete", strconv.FormatBool(*soft))
	}
	resp, err := req.Delete(r.path + "/" + id)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiErr(resp)
	}
	return nil
}
