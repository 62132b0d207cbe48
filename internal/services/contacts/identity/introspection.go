package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/contactkeeper/internal/platform/timeouts"
)

// IntrospectionResult mirrors the auth service introspection JSON response.
type IntrospectionResult struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
}

// IntrospectionResolver asks a remote endpoint whether a token is active.
type IntrospectionResolver struct {
	url            string
	resourceSecret string
	client         *http.Client
}

// NewIntrospectionResolver creates a resolver that POSTs to url.
func NewIntrospectionResolver(url, resourceSecret string, client *http.Client) *IntrospectionResolver {
	if client == nil {
		client = &http.Client{Timeout: timeouts.Introspection}
	}
	return &IntrospectionResolver{
		url:            url,
		resourceSecret: resourceSecret,
		client:         client,
	}
}

// Resolve returns the user id of an active token.
func (r *IntrospectionResolver) Resolve(ctx context.Context, credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", unauthenticated("credential is required", nil)
	}
	result, err := r.introspect(ctx, credential)
	if err != nil {
		return "", unauthenticated("introspect token", err)
	}
	if !result.Active || strings.TrimSpace(result.UserID) == "" {
		return "", unauthenticated("token is not active", nil)
	}
	return result.UserID, nil
}

func (r *IntrospectionResolver) introspect(ctx context.Context, token string) (IntrospectionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return IntrospectionResult{}, fmt.Errorf("build introspect request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if r.resourceSecret != "" {
		req.Header.Set("X-Resource-Secret", r.resourceSecret)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return IntrospectionResult{}, fmt.Errorf("introspect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return IntrospectionResult{}, fmt.Errorf("introspect returned %s", resp.Status)
	}

	var result IntrospectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return IntrospectionResult{}, fmt.Errorf("decode introspect response: %w", err)
	}
	return result, nil
}
