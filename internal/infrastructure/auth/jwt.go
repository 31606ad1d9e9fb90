package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/credoauth/credo/internal/application/ports"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

// TokenIssuer implements ports.TokenIssuer with HS256. The signing secret is
// process-wide, loaded once at startup; rotation is out of scope.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

func NewTokenIssuer(secret []byte, issuer, audience string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("session signing secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenIssuer{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

func (t *TokenIssuer) Issue(accountID string) (string, int64, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(t.ttl.Seconds()), nil
}

// Verify checks signature and expiry. The returned errors stay internal:
// callers must collapse them into one generic unauthenticated response so
// token state cannot be probed.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithAudience(t.audience))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", domerrors.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", domerrors.ErrBadSignature
		default:
			return "", domerrors.ErrTokenMalformed
		}
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", domerrors.ErrTokenMalformed
	}
	return claims.Subject, nil
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)
