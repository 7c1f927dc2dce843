package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the payload carried by both access and refresh tokens.
type Claims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"userName"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies the JWT session pair. Access and refresh tokens
// use separate secrets so one cannot stand in for the other.
type Manager struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(secret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *Manager) sign(userID uint, username, role string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// GenerateAccessToken issues a short-lived access token.
func (m *Manager) GenerateAccessToken(userID uint, username, role string) (string, error) {
	return m.sign(userID, username, role, m.accessTTL, m.secret)
}

// GenerateRefreshToken issues the long-lived refresh token persisted on the user row.
func (m *Manager) GenerateRefreshToken(userID uint, username, role string) (string, error) {
	return m.sign(userID, username, role, m.refreshTTL, m.refreshSecret)
}

func (m *Manager) parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *Manager) ParseAccessToken(token string) (*Claims, error) {
	return m.parse(token, m.secret)
}

func (m *Manager) ParseRefreshToken(token string) (*Claims, error) {
	return m.parse(token, m.refreshSecret)
}
