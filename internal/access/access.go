// Package access authenticates requests and guards routes by role.
package access

import (
	"context"
	"strings"

	"campusdesk/internal/authz"
	"campusdesk/internal/user/model"
	"campusdesk/internal/user/service"
	pkgerrors "campusdesk/pkg/errors"
	"campusdesk/pkg/utils/contextkey"
	"campusdesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// CookieName carries the session token.
const CookieName = "jwt"

const (
	userContextKey   = "access_user"
	claimsContextKey = "access_claims"
)

// Authenticator verifies a raw token and resolves the user behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, *service.Claims, error)
}

// Authenticate requires a valid session. The jwt cookie is tried first and an
// Authorization Bearer header second; the first token that verifies wins.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth service unavailable")
			return
		}

		candidates := TokensFromRequest(c)
		if len(candidates) == 0 {
			response.AbortWithError(c, pkgerrors.New(pkgerrors.TokenMissing))
			return
		}

		var (
			user     *model.User
			claims   *service.Claims
			firstErr error
		)
		for _, raw := range candidates {
			u, cl, err := auth.Authenticate(c.Request.Context(), raw)
			if err == nil {
				user, claims = u, cl
				break
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		if user == nil {
			response.AbortWithError(c, firstErr)
			return
		}

		c.Set(userContextKey, user)
		c.Set(claimsContextKey, claims)
		ctx := context.WithValue(c.Request.Context(), contextkey.UserID, user.ID)
		ctx = context.WithValue(ctx, contextkey.UserSID, user.SID)
		ctx = context.WithValue(ctx, contextkey.UserRole, string(user.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole must run after Authenticate. Missing identity answers 401, a role mismatch 403.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.RequireRole(CurrentUser(c), roles...); err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// CurrentClaims returns the verified token claims, or nil.
func CurrentClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

// TokensFromRequest returns the non-empty tokens of the request, cookie before header.
func TokensFromRequest(c *gin.Context) []string {
	tokens := make([]string, 0, 2)
	if cookie, err := c.Cookie(CookieName); err == nil {
		if raw := strings.TrimSpace(cookie); raw != "" {
			tokens = append(tokens, raw)
		}
	}
	if raw := extractBearerToken(c.GetHeader("Authorization")); raw != "" && (len(tokens) == 0 || tokens[0] != raw) {
		tokens = append(tokens, raw)
	}
	return tokens
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
