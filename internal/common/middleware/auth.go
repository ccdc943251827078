package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"agrihub-backend/internal/common/errors"
	authmodels "agrihub-backend/internal/features/auth/models"
	channelservice "agrihub-backend/internal/features/channel/service"
	usermodels "agrihub-backend/internal/features/user/models"
	userservice "agrihub-backend/internal/features/user/service"
)

const (
	identityKey = "identity"
	accessKey   = "access"
)

// Auth parses the Bearer token and stores the session identity in the
// request context. Requests without a token pass through anonymously; the
// Require* middlewares enforce presence.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			AbortWithError(c, errors.NewUnauthorizedError("authorization header must use the Bearer scheme"))
			return
		}

		id, err := authmodels.ParseToken(jwtSecret, tokenString)
		if err != nil {
			AbortWithError(c, errors.NewUnauthorizedError("invalid or expired token"))
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// ResolveAccess attaches the {role, allowed channels} pair for the current
// identity. Runs after Auth; anonymous requests get least privilege.
func ResolveAccess(resolver *userservice.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.Set(accessKey, resolver.Resolve(c.Request.Context(), id))
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			AbortWithError(c, errors.NewUnauthorizedError("authentication required"))
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			AbortWithError(c, errors.NewUnauthorizedError("authentication required"))
			return
		}
		if CurrentAccess(c).Role != usermodels.RoleAdmin {
			AbortWithError(c, errors.NewForbiddenError("admin access required"))
			return
		}
		c.Next()
	}
}

// RequireStaff admits technical staff and admins.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			AbortWithError(c, errors.NewUnauthorizedError("authentication required"))
			return
		}
		if !CurrentAccess(c).Role.Staff() {
			AbortWithError(c, errors.NewForbiddenError("staff access required"))
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the parsed session identity, if any.
func CurrentIdentity(c *gin.Context) (authmodels.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return authmodels.Identity{}, false
	}
	id, ok := v.(authmodels.Identity)
	return id, ok
}

// CurrentAccess returns the resolved access; least privilege when the
// resolver middleware did not run.
func CurrentAccess(c *gin.Context) usermodels.Access {
	if v, exists := c.Get(accessKey); exists {
		if access, ok := v.(usermodels.Access); ok {
			return access
		}
	}
	return usermodels.Access{Role: usermodels.RoleUser, AllowedChannels: []string{channelservice.OpenChannelID}}
}
