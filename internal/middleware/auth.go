package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/logger"
	"invoice-settlement/models"
)

const (
	actorKey  = "actor"
	claimsKey = "claims"
)

// Authenticator resolves a bearer token to the account using it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Actor, *auth.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and puts the
// actor on both the gin context and the request context.
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	log := logger.WithComponent("auth")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Bearer token required"})
			return
		}

		actor, claims, err := a.Authenticate(c.Request.Context(), tokenString)
		switch {
		case err == nil:
		case errors.Is(err, accounts.ErrInactive):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Account is inactive"})
			return
		case errors.Is(err, auth.ErrInvalidToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		default:
			log.Error().Err(err).Msg("token check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		c.Set(actorKey, actor)
		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(auth.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := auth.ActorFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}
		for _, role := range roles {
			if role == a.Role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied"})
	}
}

// Claims returns the token claims stored by AuthMiddleware.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
