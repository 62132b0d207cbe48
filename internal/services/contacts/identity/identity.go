// Package identity resolves request credentials into the opaque owner id that
// scopes every contact operation.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/contactkeeper/internal/platform/config"
	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
)

// EnvPrefix namespaces the identity settings.
const EnvPrefix = config.EnvPrefix + "AUTH_"

// HeaderAuthToken carries a raw token without a scheme.
const HeaderAuthToken = "x-auth-token"

// Resolver turns a credential into an owner id or fails closed.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (string, error)
}

// Config selects and configures a Resolver.
type Config struct {
	JWTSecret      string `env:"JWT_SECRET"`
	JWTIssuer      string `env:"JWT_ISSUER"`
	IntrospectURL  string `env:"INTROSPECT_URL"`
	ResourceSecret string `env:"RESOURCE_SECRET"`
}

// LoadConfigFromEnv reads CONTACTKEEPER_AUTH_* variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnvPrefixed(&cfg, EnvPrefix); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewResolver builds the resolver named by cfg. Introspection wins when both
// an introspection URL and a JWT secret are set.
func NewResolver(cfg Config, client *http.Client) (Resolver, error) {
	if url := strings.TrimSpace(cfg.IntrospectURL); url != "" {
		return NewIntrospectionResolver(url, cfg.ResourceSecret, client), nil
	}
	if strings.TrimSpace(cfg.JWTSecret) != "" {
		return NewJWTResolver(cfg.JWTSecret, cfg.JWTIssuer, time.Now)
	}
	return nil, fmt.Errorf("%sJWT_SECRET or %sINTROSPECT_URL is required", EnvPrefix, EnvPrefix)
}

// CredentialFromRequest extracts the caller credential from the x-auth-token
// header or an Authorization bearer token. It returns "" when neither is set.
func CredentialFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := strings.TrimSpace(r.Header.Get(HeaderAuthToken)); token != "" {
		return token
	}
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthenticated(message string, cause error) error {
	return apperrors.Wrap(apperrors.CodeUnauthenticated, message, cause)
}
