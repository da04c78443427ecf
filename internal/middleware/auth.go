package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	"github.com/carelink/carelink-api/pkg/auth"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
	"github.com/carelink/carelink-api/pkg/httputil"
)

const (
	ContextActor  = "actor"
	ContextClaims = "claims"
)

type AuthMiddleware struct {
	jwt     auth.JWTService
	revoker repository.TokenRevoker
	users   repository.UserRepository
}

func NewAuthMiddleware(jwt auth.JWTService, revoker repository.TokenRevoker, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, revoker: revoker, users: users}
}

// Authenticate verifies the bearer token, rejects revoked tokens and loads
// the acting user into the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.jwt.ValidateAccessToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		revoked, err := m.revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Internal(err))
			c.Abort()
			return
		}
		if revoked {
			abortUnauthorized(c, "token has been revoked")
			return
		}

		// The role on the stored row is authoritative, not the token claim.
		user, err := m.users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(ContextActor, user)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireRole gates a route group to one role. It runs after Authenticate.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := Actor(c)
		if !ok || actor.Role != role {
			httputil.RespondWithError(c, apperrors.Forbidden(""))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	httputil.RespondWithError(c, apperrors.Unauthorized(message))
	c.Abort()
}

// Actor retrieves the authenticated user placed by Authenticate.
func Actor(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// Claims retrieves the token claims placed by Authenticate.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
