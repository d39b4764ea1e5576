package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if hasRole(RolesFromContext(c.Request().Context()), roles) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireSelfOrRole allows the request when the path parameter param names
// the authenticated user, or when the user holds one of roles.
func RequireSelfOrRole(param string, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			uid := UserIDFromContext(ctx)
			if uid != "" && strings.EqualFold(uid, c.Param(param)) {
				return next(c)
			}
			if hasRole(RolesFromContext(ctx), roles) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "access to another user's records is not allowed")
		}
	}
}

// hasRole reports whether granted covers one of required. admin covers all.
func hasRole(granted, required []string) bool {
	for _, has := range granted {
		if has == "admin" {
			return true
		}
		for _, r := range required {
			if has == r {
				return true
			}
		}
	}
	return false
}
