package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/domain/account"
)

const (
	userKey    = "user"
	isStaffKey = "is_staff"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*account.User, error)
}

// BearerAuth authenticates the Authorization header and stores the user in the context.
func BearerAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, errors.NewUnauthorizedError("missing bearer token"))
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			appErr, ok := errors.AsAppError(err)
			if !ok {
				appErr = errors.Wrap(err, errors.ErrCodeInternal, "Authentication failed")
			}
			AbortWithError(c, appErr)
			return
		}

		c.Set(userKey, user)
		c.Set(userIDKey, user.ID)
		c.Set(isStaffKey, user.IsStaff)
		c.Next()
	}
}

// RequireStaff must run after BearerAuth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(isStaffKey) {
			AbortWithError(c, errors.NewForbiddenError("Staff access required"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside BearerAuth.
func CurrentUser(c *gin.Context) *account.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*account.User)
	return user
}
