package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront_accounts/internal/logging"
	"storefront_accounts/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthClaimsKey is the gin context key holding *utils.JWTClaims
const AuthClaimsKey = "authClaims"

var ErrNoClaims = errors.New("authenticated identity not found in request context")

type claimsCtxKey struct{}

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*utils.JWTClaims, error)
}

// JWTAuthMiddleware rejects requests without a bearer token (401) or with an
// invalid or expired one (403). Valid claims are attached to the request context.
func JWTAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "access token required"})
			return
		}

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			logging.FromContext(c.Request.Context()).Debug("rejected bearer token", "error", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(AuthClaimsKey, claims)
		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims *utils.JWTClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// ClaimsFromContext returns the claims attached by JWTAuthMiddleware
func ClaimsFromContext(ctx context.Context) (*utils.JWTClaims, error) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*utils.JWTClaims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
