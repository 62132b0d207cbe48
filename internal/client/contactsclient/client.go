// Package contactsclient calls the contacts HTTP API.
package contactsclient

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
	"github.com/louisbranch/contactkeeper/internal/platform/httpx"
	"github.com/louisbranch/contactkeeper/internal/platform/timeouts"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/identity"
)

const (
	basePath   = "/api/contacts"
	tracerName = "github.com/louisbranch/contactkeeper/internal/client/contactsclient"
)

// Client is a contacts API client bound to one credential.
type Client struct {
	baseURL    string
	token      string
	locale     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLocale sets the Accept-Language sent with each request.
func WithLocale(locale string) Option {
	return func(c *Client) {
		c.locale = strings.TrimSpace(locale)
	}
}

// New creates a client for the API at baseURL.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeouts.Request},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns the caller's contacts. filter is an optional server-side
// AIP-160 expression.
func (c *Client) List(ctx context.Context, filter string) ([]contact.Contact, error) {
	path := basePath
	if strings.TrimSpace(filter) != "" {
		path += "?" + url.Values{"filter": {filter}}.Encode()
	}
	var contacts []contact.Contact
	if err := c.do(ctx, http.MethodGet, path, nil, &contacts); err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	return contacts, nil
}

// Create stores a new contact.
func (c *Client) Create(ctx context.Context, fields contact.Fields) (contact.Contact, error) {
	var created contact.Contact
	if err := c.do(ctx, http.MethodPost, basePath, fields, &created); err != nil {
		return contact.Contact{}, err
	}
	return created, nil
}

// Update applies patch to the contact id.
func (c *Client) Update(ctx context.Context, id string, patch contact.Patch) (contact.Contact, error) {
	var updated contact.Contact
	if err := c.do(ctx, http.MethodPut, basePath+"/"+url.PathEscape(id), patch, &updated); err != nil {
		return contact.Contact{}, err
	}
	return updated, nil
}

// Delete removes the contact id.
func (c *Client) Delete(ctx context.Context, id string) error {
	var ack struct {
		Msg string `json:"msg"`
	}
	return c.do(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(id), nil, &ack)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (err error) {
	if c == nil {
		return errors.New("contacts client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+basePath, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(identity.HeaderAuthToken, c.token)
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps an error envelope back to a domain error carrying the
// server's code and localized message.
func decodeError(resp *http.Response) error {
	var envelope httpx.ErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, httpx.MaxBodyBytes)).Decode(&envelope); err != nil || envelope.Error.Code == "" {
		return apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("contacts api returned %s", resp.Status))
	}
	return &apperrors.Error{
		Code:     apperrors.Code(envelope.Error.Code),
		Message:  envelope.Error.Message,
		Metadata: envelope.Error.Details,
	}
}
