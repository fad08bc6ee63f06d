// Package wordpress is a small client for the WordPress REST API, limited to
// the WooCommerce product category endpoints the assistant needs.
//
// Every request carries HTTP basic authentication built from the user's
// application password. Calls are traced through the injected *http.Client
// and counted in wordpress_requests_total.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/wp-category-assistant/internal/observability"
)

const (
	restPrefix     = "/wp-json/wp/v2"
	categoriesPath = restPrefix + "/product_cat"
	maxErrorBody   = 4 << 10
)

var tracer = otel.Tracer("wordpress")

// Client talks to any number of WordPress sites; the site is chosen per call
// by the credentials.
type Client struct {
	http *http.Client
}

// New returns a Client using hc. A nil hc falls back to http.DefaultClient.
func New(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc}
}

// ValidateConnection checks that creds can read the current user with edit
// context. Any failure is logged and reported as false.
func (c *Client) ValidateConnection(ctx context.Context, creds Credentials) bool {
	q := url.Values{"context": {"edit"}}
	if err := c.do(ctx, "validate", creds, http.MethodGet, restPrefix+"/users/me", q, nil, nil); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Object("site", creds).Msg("wordpress connection validation failed")
		return false
	}
	return true
}

// ListCategories returns up to 100 product categories with edit context.
func (c *Client) ListCategories(ctx context.Context, creds Credentials) ([]Category, error) {
	var out []Category
	q := url.Values{"per_page": {"100"}, "context": {"edit"}}
	if err := c.do(ctx, "list", creds, http.MethodGet, categoriesPath, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup finds the category whose name equals name, ignoring case, among the
// results of a server-side search, then fetches it with edit context so the
// Yoast fields are populated.
func (c *Client) Lookup(ctx context.Context, creds Credentials, name string) LookupResult {
	var hits []Category
	if err := c.do(ctx, "search", creds, http.MethodGet, categoriesPath, url.Values{"search": {name}}, nil, &hits); err != nil {
		return LookupResult{Status: Failed, Err: err}
	}

	var match *Category
	for i := range hits {
		if strings.EqualFold(hits[i].Name, name) {
			match = &hits[i]
			break
		}
	}
	if match == nil {
		return LookupResult{Status: NotFound}
	}

	var full Category
	path := categoriesPath + "/" + strconv.FormatInt(match.ID, 10)
	if err := c.do(ctx, "get", creds, http.MethodGet, path, url.Values{"context": {"edit"}}, nil, &full); err != nil {
		return LookupResult{Status: Failed, Err: err}
	}
	return LookupResult{Status: Found, Category: &full}
}

// FindCategoryByName is Lookup collapsed to a pointer: nil when the category
// does not exist or the lookup failed (the failure is logged).
func (c *Client) FindCategoryByName(ctx context.Context, creds Credentials, name string) *Category {
	res := c.Lookup(ctx, creds, name)
	if res.Status == Failed {
		zerolog.Ctx(ctx).Error().Err(res.Err).Str("category", name).Msg("wordpress category lookup failed")
	}
	return res.Category
}

// UpdateCategory applies a partial update and returns the stored category.
func (c *Client) UpdateCategory(ctx context.Context, creds Credentials, id int64, upd CategoryUpdate) (*Category, error) {
	var out Category
	path := categoriesPath + "/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "update", creds, http.MethodPost, path, nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one authenticated JSON request. A 2xx response with an empty
// body leaves out untouched.
func (c *Client) do(ctx context.Context, op string, creds Credentials, method, path string, q url.Values, in, out any) (err error) {
	ctx, span := tracer.Start(ctx, "wordpress."+op)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	u := endpoint(creds.WPURL, path, q)
	span.SetAttributes(attribute.String("wordpress.op", op), attribute.String("http.url", u))

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		observability.WordPressRequests.WithLabelValues(op, "error").Inc()
		return err
	}
	req.Header.Set("Authorization", BasicAuth(creds.Username, creds.AppPassword))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		observability.WordPressRequests.WithLabelValues(op, "error").Inc()
		return err
	}
	defer resp.Body.Close()
	observability.WordPressRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Op:         op,
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(raw),
		}
		zerolog.Ctx(ctx).Debug().Str("op", op).Int("status", resp.StatusCode).Str("body", apiErr.Body).Msg("wordpress error body")
		return apiErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("wordpress %s: decode response: %w", op, err)
	}
	return nil
}

// BasicAuth renders the Authorization header value for user:password.
func BasicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// endpoint joins the site URL (one trailing slash removed) with path and query.
func endpoint(base, path string, q url.Values) string {
	u := strings.TrimSuffix(base, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// statusText mirrors the reason phrase of the response, e.g. "Unauthorized".
func statusText(resp *http.Response) string {
	if t := http.StatusText(resp.StatusCode); t != "" {
		return t
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

// IsAPIError reports whether err carries a WordPress HTTP status and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
