// Package auth issues and verifies the stateless session tokens handed out
// at registration and login.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity of a session token. Tokens are not stored
// and cannot be revoked before they expire.
const TokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims binds a user id to a token. The id is carried both as the "id"
// claim and as the registered subject.
type Claims struct {
	UserID int `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// Issue returns a signed token for userID and its expiry.
func (m *TokenManager) Issue(userID int) (string, time.Time, error) {
	if userID < 1 {
		return "", time.Time{}, errors.New("user id is required")
	}
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature and expiry and returns the claims.
func (m *TokenManager) Parse(tokenString string) (Claims, error) {
	claims := Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.UserID < 1 {
		id, err := strconv.Atoi(claims.Subject)
		if err != nil || id < 1 {
			return Claims{}, errors.Join(ErrInvalidToken, errors.New("missing subject"))
		}
		claims.UserID = id
	}
	return claims, nil
}

// ParseUnverified decodes the claims without checking the signature. It is
// meant for clients deciding whether a stored token is still usable; servers
// must use Parse.
func ParseUnverified(tokenString string) (Claims, error) {
	claims := Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(tokenString), &claims); err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, errors.Join(ErrInvalidToken, errors.New("missing exp"))
	}
	if claims.UserID < 1 {
		id, err := strconv.Atoi(claims.Subject)
		if err != nil || id < 1 {
			return Claims{}, errors.Join(ErrInvalidToken, errors.New("missing subject"))
		}
		claims.UserID = id
	}
	return claims, nil
}
