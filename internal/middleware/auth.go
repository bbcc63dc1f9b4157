package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/service"
)

const (
	SessionCookie  = "session_token"
	currentUserKey = "currentUser"
)

// Authenticator resolves a session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// SessionToken reads the token from the session cookie, falling back to a Bearer header.
func SessionToken(ctx *gin.Context) string {
	if token, err := ctx.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	header := ctx.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid session and stores the user on the context.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := SessionToken(ctx)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Not authenticated"})
			return
		}
		user, err := auth.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired session"})
				return
			}
			log.Error().Err(err).Msg("RequireAuth: Session lookup failed")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to verify session"})
			return
		}
		ctx.Set(currentUserKey, user)
		ctx.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Not authenticated"})
			return
		}
		if !user.HasRole(roles...) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Message: "Insufficient permissions",
				Details: []string{"required role: " + strings.Join(roles, " or ")},
			})
			return
		}
		ctx.Next()
	}
}

func CurrentUser(ctx *gin.Context) (*model.User, bool) {
	v, ok := ctx.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
