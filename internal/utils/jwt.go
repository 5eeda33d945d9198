package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of every issued token
const TokenTTL = 7 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("jwt secret key is not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// JWTClaims custom claims for JWT
type JWTClaims struct {
	AccountID string `json:"id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the account data embedded into a token at issuance time
type Identity struct {
	AccountID string
	Username  string
	Email     string
	Mobile    string
}

// JWTUtil provides JWT generation and validation
type JWTUtil struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// JWTOption customises a JWTUtil
type JWTOption func(*JWTUtil)

// WithClock overrides the time source used for issuing and validating tokens
func WithClock(now func() time.Time) JWTOption {
	return func(ju *JWTUtil) { ju.now = now }
}

// NewJWTUtil creates a new JWTUtil. An empty secret is a configuration error.
func NewJWTUtil(secretKey string, opts ...JWTOption) (*JWTUtil, error) {
	if secretKey == "" {
		return nil, ErrMissingSecret
	}
	ju := &JWTUtil{secretKey: []byte(secretKey), ttl: TokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(ju)
	}
	return ju, nil
}

// GenerateToken signs a token for identity valid for TokenTTL
func (ju *JWTUtil) GenerateToken(identity Identity) (string, error) {
	if identity.AccountID == "" {
		return "", fmt.Errorf("failed to sign token: account id is empty")
	}
	issuedAt := ju.now()
	claims := &JWTClaims{
		AccountID: identity.AccountID,
		Username:  identity.Username,
		Email:     identity.Email,
		Mobile:    identity.Mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ju.ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Subject:   identity.AccountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ju.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates the JWT token. Every failure wraps ErrInvalidToken.
func (ju *JWTUtil) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ju.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ju.now),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
