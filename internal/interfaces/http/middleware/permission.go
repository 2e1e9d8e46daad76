package middleware

import (
	"context"
	"net/http"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PermissionChecker answers authorization questions for an actor. Satisfied
// by the identity application's PermissionService.
type PermissionChecker interface {
	Check(ctx context.Context, actor appidentity.Actor, section identity.Section, action identity.Action) bool
}

// RequirePermission guards a route with a single section/action check.
// The check is default deny: no actor, unresolvable role or missing grant
// all end the same way.
func RequirePermission(checker PermissionChecker, section identity.Section, action identity.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		if !checker.Check(c.Request.Context(), actor, section, action) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(shared.CodeForbidden, "Insufficient permissions"))
			return
		}

		c.Next()
	}
}
