package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims accepts both the nested {"user":{"id"}} payload and a plain
// subject claim.
type tokenClaims struct {
	jwt.RegisteredClaims
	User *userClaim `json:"user,omitempty"`
}

type userClaim struct {
	ID string `json:"id"`
}

func (c tokenClaims) ownerID() string {
	if c.User != nil && strings.TrimSpace(c.User.ID) != "" {
		return c.User.ID
	}
	return c.Subject
}

// JWTResolver verifies HS256 tokens signed with a shared secret.
type JWTResolver struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTResolver creates a resolver. An empty issuer disables the iss check.
func NewJWTResolver(secret, issuer string, now func() time.Time) (*JWTResolver, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &JWTResolver{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    now,
	}, nil
}

// Resolve verifies credential and returns its owner id.
func (r *JWTResolver) Resolve(_ context.Context, credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", unauthenticated("credential is required", nil)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
	}
	if r.issuer != "" {
		options = append(options, jwt.WithIssuer(r.issuer))
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, options...)
	if err != nil {
		return "", mapJWTError(err)
	}

	ownerID := claims.ownerID()
	if strings.TrimSpace(ownerID) == "" {
		return "", unauthenticated("token has no user id", nil)
	}
	return ownerID, nil
}

// mapJWTError translates jwt library errors to unauthenticated errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return unauthenticated("token is expired", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return unauthenticated("token not active yet", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return unauthenticated("token issuer mismatch", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return unauthenticated("token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return unauthenticated("token alg is invalid", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return unauthenticated("token is malformed", err)
	default:
		return unauthenticated("token is invalid", err)
	}
}

// Issuer mints HS256 tokens accepted by JWTResolver.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates a token issuer. A non-positive ttl mints tokens without exp.
func NewIssuer(secret, issuer string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    ttl,
		now:    now,
	}, nil
}

// Mint signs a token for ownerID.
func (i *Issuer) Mint(ownerID string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("owner id is required")
	}
	issuedAt := i.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   i.issuer,
			Subject:  ownerID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		User: &userClaim{ID: ownerID},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(i.ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
