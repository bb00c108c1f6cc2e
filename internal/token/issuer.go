// Package token mints and validates the signed bearer tokens used by the
// account service. Issuance is stateless; only revocations are persisted,
// in the revocation registry the issuer consults on every validation.
package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"stores-api/internal/revocation"
)

var (
	// ErrInvalidToken covers malformed, badly signed, expired and revoked
	// tokens alike; callers get no more detail than that.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenKind is returned when an access token is presented to
	// an operation that requires a refresh token, or vice versa.
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the payload embedded in every issued token. Fresh marks an
// access token minted directly from a password login; tokens from a
// refresh exchange are never fresh.
type Claims struct {
	Kind  Kind `json:"typ"`
	Fresh bool `json:"fresh,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the token subject back into a user identifier.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Issuer mints HS256-signed access and refresh tokens and validates them
// against signature, expiry and the revocation registry.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	registry   revocation.Registry
	now        func() time.Time
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration, registry revocation.Registry) *Issuer {
	return &Issuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		registry:   registry,
		now:        time.Now,
	}
}

// MaxLifetime is the longest any issued token stays valid. Revocation
// entries older than this can be pruned.
func (i *Issuer) MaxLifetime() time.Duration {
	if i.refreshTTL > i.accessTTL {
		return i.refreshTTL
	}
	return i.accessTTL
}

// IssueAccess mints an access token for the user. fresh should be true
// only when the caller has just verified the user's password.
func (i *Issuer) IssueAccess(userID int64, fresh bool) (string, error) {
	return i.sign(userID, KindAccess, fresh, i.accessTTL)
}

// IssueRefresh mints a refresh token, exchangeable for new non-fresh
// access tokens until it expires.
func (i *Issuer) IssueRefresh(userID int64) (string, error) {
	return i.sign(userID, KindRefresh, false, i.refreshTTL)
}

func (i *Issuer) sign(userID int64, kind Kind, fresh bool, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		Kind:  kind,
		Fresh: fresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses the token and rejects it when the signature or encoding
// is malformed, when it has expired, or when its identifier has been
// revoked. All failures surface as ErrInvalidToken.
func (i *Issuer) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || (claims.Kind != KindAccess && claims.Kind != KindRefresh) {
		return nil, ErrInvalidToken
	}

	revoked, err := i.registry.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new non-fresh access
// token for the same subject.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := i.Validate(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Kind != KindRefresh {
		return "", ErrWrongTokenKind
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", err
	}
	return i.IssueAccess(userID, false)
}

// Revoke records the token's identifier in the registry for the remainder
// of the token's lifetime. Revoking an already revoked token is a no-op.
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	ttl := i.MaxLifetime()
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(i.now()); remaining < ttl {
			ttl = remaining
		}
	}
	return i.registry.Revoke(ctx, claims.ID, ttl)
}
