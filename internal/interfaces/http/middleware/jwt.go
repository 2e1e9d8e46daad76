package middleware

import (
	"errors"
	"net/http"
	"strings"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/infrastructure/auth"
	"github.com/gestionale/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the JWT middleware
const (
	JWTClaimsKey = "jwt_claims"
	ActorKey     = "actor"
)

// JWTMiddlewareConfig holds configuration for the JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	Blacklist  auth.TokenBlacklist
	// SkipPaths are exact paths that bypass authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that bypass authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// JWTAuth validates the Bearer token on every request, rejects revoked
// tokens, and stashes the validated claims plus the derived actor in the
// gin context. Blacklist lookups fail open: a broken Redis must not take
// down every authenticated endpoint, and revocation is best effort by
// construction since access tokens are short-lived.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if shouldSkip(c.Request.URL.Path, cfg) {
			c.Next()
			return
		}

		token := extractBearerToken(c)
		if token == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, tokenErrorCode(err), "Invalid or expired token")
			return
		}

		if cfg.Blacklist != nil {
			revoked, err := cfg.Blacklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("Token blacklist check failed, allowing request",
					zap.Error(err),
					zap.String("jti", claims.ID))
			} else if revoked {
				abortUnauthorized(c, dto.ErrCodeTokenRevoked, "Token has been revoked")
				return
			}

			if issuedAt := claims.IssuedAt; issuedAt != nil {
				userRevoked, err := cfg.Blacklist.IsUserRevoked(c.Request.Context(), claims.UserID, issuedAt.Time)
				if err != nil {
					logger.Warn("User revocation check failed, allowing request",
						zap.Error(err),
						zap.String("user_id", claims.UserID))
				} else if userRevoked {
					abortUnauthorized(c, dto.ErrCodeTokenRevoked, "Session has been revoked")
					return
				}
			}
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Malformed token claims")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

func shouldSkip(path string, cfg JWTMiddlewareConfig) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// actorFromClaims rebuilds the permission-check actor from token claims.
// The token carries only the role reference, never permission lists, so
// role edits apply on the next request instead of the next login.
func actorFromClaims(claims *auth.Claims) (appidentity.Actor, error) {
	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return appidentity.Actor{}, err
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return appidentity.Actor{}, err
	}

	var role identity.RoleRef
	if customID, err := claims.GetCustomRoleUUID(); err != nil {
		return appidentity.Actor{}, err
	} else if customID != nil {
		role = identity.RoleRef{CustomID: customID}
	} else {
		role = identity.RoleRef{Builtin: identity.BuiltinRole(claims.BuiltinRole)}
	}

	return appidentity.Actor{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}, nil
}

func tokenErrorCode(err error) string {
	if errors.Is(err, auth.ErrExpiredToken) {
		return dto.ErrCodeTokenExpired
	}
	return dto.ErrCodeTokenInvalid
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message))
}

// GetClaims returns the validated JWT claims, or nil outside an
// authenticated request.
func GetClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(JWTClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetActor returns the authenticated actor derived from the token.
func GetActor(c *gin.Context) (appidentity.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return appidentity.Actor{}, false
	}
	actor, ok := v.(appidentity.Actor)
	return actor, ok
}
