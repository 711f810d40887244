package handlers_test

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/libris/pkg/auth"
	kdb "github.com/opst/libris/pkg/db"
)

var now = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time {
	return now
}

// statusOf tells the status code of err returned from a handler.
func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return -1
}

func as(id string, role kdb.Role) func(echo.Context) {
	return func(c echo.Context) {
		auth.SetPrincipal(c, auth.Principal{ID: id, Role: role})
	}
}

var (
	asLibrarian = as("staff-1", kdb.RoleLibrarian)
	asMember    = as("member-1", kdb.RoleMember)
	anonymous   = func(echo.Context) {}
)
