package middleware

import (
	"net/http"
	"os"
	"strings"

	"backend/internal/model"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorContextKey = "actor"

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// RequireRole validates the JWT and checks that the caller's role is in the
// allowedRoles list. On success the decoded Actor is stored in the gin
// context for handlers to pick up via GetActor.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if actor.Role == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// RequireAuth admits any of the known roles.
func RequireAuth() gin.HandlerFunc {
	return RequireRole(model.RoleSystemOwner, model.RoleBusinessOwner, model.RoleEmployee)
}

// RequireManage admits roles allowed to mutate stock and ledgers.
func RequireManage() gin.HandlerFunc {
	return RequireRole(model.RoleSystemOwner, model.RoleBusinessOwner)
}

// GetActor returns the Actor placed in the context by RequireRole.
func GetActor(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

// actorFromClaims decodes the token payload. Claims: sub (user id), role,
// shop_id (optional), global (optional bool).
func actorFromClaims(claims jwt.MapClaims) (model.Actor, error) {
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return model.Actor{}, err
	}

	role, _ := claims["role"].(string)
	switch role {
	case model.RoleSystemOwner, model.RoleBusinessOwner, model.RoleEmployee:
	default:
		return model.Actor{}, jwt.ErrTokenInvalidClaims
	}

	actor := model.Actor{UserID: userID, Role: role}
	if raw, ok := claims["shop_id"].(string); ok && raw != "" {
		shopID, err := uuid.Parse(raw)
		if err != nil {
			return model.Actor{}, err
		}
		actor.ShopID = &shopID
	}
	if global, ok := claims["global"].(bool); ok {
		actor.GlobalAccess = global
	}
	return actor, nil
}
