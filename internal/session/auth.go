package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ggonsajang/comcard/internal/kv"
)

const issuer = "comcard"

var (
	ErrEmptyPassword    = errors.New("패스워드를 입력해주세요")
	ErrWrongPassword    = errors.New("패스워드가 올바르지 않습니다")
	ErrInvalidToken     = errors.New("invalid session token")
	ErrNotAuthenticated = errors.New("session expired or logged out")
)

// Token is a signed session token.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authenticator checks the shared password and tracks logged-in sessions.
// A session is valid while its token verifies and its flag is stored.
type Authenticator struct {
	kv       kv.Store
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthenticator accepts the shared password either in plain text or as
// a bcrypt hash.
func NewAuthenticator(kvs kv.Store, password, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{kv: kvs, password: password, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// HashPassword returns a bcrypt hash suitable for COMCARD_PASSWORD.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (a *Authenticator) matches(password string) bool {
	if strings.HasPrefix(a.password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(a.password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.password), []byte(password)) == 1
}

// Login checks password and opens a session.
func (a *Authenticator) Login(ctx context.Context, password string) (Token, error) {
	if password == "" {
		return Token{}, ErrEmptyPassword
	}
	if !a.matches(password) {
		return Token{}, ErrWrongPassword
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign session token: %w", err)
	}
	if err := a.kv.Set(ctx, AuthKeyPrefix+claims.ID, "true", a.ttl); err != nil {
		return Token{}, fmt.Errorf("store session: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

func (a *Authenticator) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrNotAuthenticated
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticated returns nil when token belongs to an open session.
func (a *Authenticator) Authenticated(ctx context.Context, token string) error {
	claims, err := a.parse(token)
	if err != nil {
		return err
	}
	v, ok, err := a.kv.Get(ctx, AuthKeyPrefix+claims.ID)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok || v != "true" {
		return ErrNotAuthenticated
	}
	return nil
}

// Logout closes the session. Unknown or invalid tokens are ignored.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.parse(token)
	if err != nil {
		return nil
	}
	if err := a.kv.Delete(ctx, AuthKeyPrefix+claims.ID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
