package media

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// URLSigner turns a stored media key into a time-limited access URL
type URLSigner interface {
	SignURL(key string) (string, error)
}

type urlClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// Signer issues URLs of the form <baseURL>/<key>?token=<jwt>, where the token
// binds the key and an expiry. The media host checks the token with Verify.
type Signer struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewSigner creates a new media URL signer
func NewSigner(baseURL, secret string, ttl time.Duration) *Signer {
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SignURL signs key into an access URL. Keys that are already absolute
// http(s) URLs are returned unchanged.
func (s *Signer) SignURL(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("media key is required")
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}
	key = strings.TrimLeft(key, "/")

	now := s.now()
	claims := urlClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign media URL: %w", err)
	}

	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s?token=%s", s.baseURL, strings.Join(segments, "/"), url.QueryEscape(token)), nil
}

// Verify checks that token was issued for key and has not expired
func (s *Signer) Verify(key, token string) error {
	parsed, err := jwt.ParseWithClaims(token, &urlClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("invalid media token: %w", err)
	}

	claims, ok := parsed.Claims.(*urlClaims)
	if !ok || !parsed.Valid {
		return fmt.Errorf("invalid media token")
	}
	if claims.Key != strings.TrimLeft(key, "/") {
		return fmt.Errorf("media token was issued for another key")
	}
	return nil
}
