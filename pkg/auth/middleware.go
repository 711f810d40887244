package auth

import (
	"errors"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/libris/pkg/api/types/errors"
	kdb "github.com/opst/libris/pkg/db"
)

const principalKey = "libris.principal"

// Authenticate returns a middleware requiring a valid bearer token.
//
// The principal of the token is available with PrincipalOf.
func Authenticate(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				return apierr.Unauthorized(`send "Authorization: Bearer <token>". tokens are issued by POST /api/auth/login`)
			}

			p, err := v.Verify(strings.TrimSpace(token))
			if errors.Is(err, ErrUnauthenticated) {
				return apierr.Unauthorized("token is invalid or expired. log in again.")
			} else if err != nil {
				return apierr.InternalServerError(err)
			}

			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// RequireRole returns a middleware refusing principals without one of roles.
//
// It should be used after Authenticate.
func RequireRole(roles ...kdb.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalOf(c)
			if !ok {
				return apierr.Unauthorized("log in first.")
			}
			if !slices.Contains(roles, p.Role) {
				return apierr.Forbidden()
			}
			return next(c)
		}
	}
}

// RequireStaff = RequireRole(kdb.RoleLibrarian, kdb.RoleAdmin)
func RequireStaff() echo.MiddlewareFunc {
	return RequireRole(kdb.RoleLibrarian, kdb.RoleAdmin)
}

// RequireSelfOrStaff returns a middleware letting staff and the member named by path param through.
func RequireSelfOrStaff(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalOf(c)
			if !ok {
				return apierr.Unauthorized("log in first.")
			}
			if !p.CanActFor(c.Param(param)) {
				return apierr.Forbidden()
			}
			return next(c)
		}
	}
}

func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}

func PrincipalOf(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}
