package auth

import (
	"errors"
	"fmt"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

// Claims carried by an admin bearer token
type Claims struct {
	AdminId     string                  `json:"id"`
	Email       string                  `json:"email"`
	Role        string                  `json:"role"`
	Permissions models.AdminPermissions `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 admin tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(cfg models.AuthConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

func (m *TokenManager) Issue(admin *models.Admin) (string, error) {
	issuedAt := m.now()
	claims := Claims{
		AdminId:     admin.Id,
		Email:       admin.Email,
		Role:        admin.Role,
		Permissions: admin.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.Id,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the principal it identifies
func (m *TokenManager) Verify(tokenString string) (*models.Principal, error) {
	var claims Claims
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}, options...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", store.ErrUnauthorized)
	}
	if claims.AdminId == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing admin claims", store.ErrUnauthorized)
	}

	return &models.Principal{
		AdminId:     claims.AdminId,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}, nil
}
