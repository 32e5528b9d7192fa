package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	perr "satyanetra/internal/platform/errors"
	pnet "satyanetra/internal/platform/net"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token payload analysts present
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth validates HS256 bearer tokens
type JWTAuth struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

var _ AuthPort = (*JWTAuth)(nil)

// Parse reads Authorization: Bearer <token>, or ?access_token= for websocket upgrades
func (a *JWTAuth) Parse(r *http.Request) (pnet.Principal, error) {
	raw := bearer(r)
	if raw == "" {
		return pnet.Principal{}, perr.Unauthorizedf("missing bearer token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(a.Leeway)}
	if a.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.Issuer))
	}
	if a.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.Audience))
	}

	var c Claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.Secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return pnet.Principal{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "token expired")
	case err != nil || !tok.Valid:
		return pnet.Principal{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid token")
	}

	sub, _ := c.GetSubject()
	if sub == "" {
		return pnet.Principal{}, perr.Unauthorizedf("token has no subject")
	}
	return pnet.Principal{Subject: sub, Roles: c.Roles}, nil
}

// Sign issues a token for subject; used by the CLI and tests
func (a *JWTAuth) Sign(subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if a.Audience != "" {
		c.Audience = jwt.ClaimStrings{a.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.Secret)
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return r.URL.Query().Get("access_token")
}
