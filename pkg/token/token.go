// Package token issues and verifies the two credential kinds used by the
// API: short-lived signed access tokens and long-lived opaque refresh
// tokens. Refresh tokens carry no identity; they are matched against a
// stored slow hash, so "does this token still exist" is the same question as
// "is it still valid".
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccessClaims is the payload of an access token: identity in Subject, a
// jti for the revocation ledger, and the role held at issuance.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the numeric identity out of the Subject claim.
func (c *AccessClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject: %w", err)
	}
	return uint(id), nil
}

// Issuer mints and verifies access tokens. Construct once at startup; a
// missing secret is a configuration error and is rejected here, not on the
// request path.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	name   string
}

// NewIssuer builds an Issuer from the configured signing secret and access
// token TTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("empty signing secret")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, name: "docman"}, nil
}

// IssueAccess signs a token asserting {identity, role} for the next TTL
// window.
func (i *Issuer) IssueAccess(userID uint, role string) (string, *AccessClaims, error) {
	now := time.Now()
	claims := &AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			Issuer:    i.name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return signed, claims, nil
}

// ParseAccess verifies signature and expiry and returns the claims.
func (i *Issuer) ParseAccess(raw string) (*AccessClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*AccessClaims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// NewRefreshToken returns a fresh opaque refresh token (32 random bytes,
// hex-encoded) and the bcrypt hash under which it is stored. The plaintext
// never touches the database.
func NewRefreshToken() (plaintext, hash string, err error) {
	b := make([]byte, 32)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(b)
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return plaintext, string(h), nil
}

// CheckRefreshToken reports whether plaintext matches the stored hash.
func CheckRefreshToken(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
