package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	apiaccounts "github.com/opst/libris/pkg/api/types/accounts"
	apiassistant "github.com/opst/libris/pkg/api/types/assistant"
	apibooks "github.com/opst/libris/pkg/api/types/books"
	apierr "github.com/opst/libris/pkg/api/types/errors"
	"github.com/opst/libris/pkg/auth"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/isbn"
)

var (
	errIncorrectQueryLimit  = errors.New("incorrect query param limit")
	errIncorrectQueryOffset = errors.New("incorrect query param offset")
	errIncorrectQueryFlag   = errors.New("incorrect query param: it should be true or false")
)

// Clock tells the current time. Handlers use it to tell overdue loans.
type Clock func() time.Time

// bindJSON decodes the request body into v.
func bindJSON(c echo.Context, v any) error {
	req := c.Request()
	mediatype, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediatype != "application/json" {
		return apierr.BadRequest(
			"unexpected content type. it should be application/json", err,
		)
	}
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return apierr.BadRequest("can not understand the requested json", err)
	}
	return nil
}

// pageOf reads "limit" and "offset" query params.
func pageOf(c echo.Context) (kdb.Page, error) {
	page := kdb.Page{}
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return page, errIncorrectQueryLimit
		}
		page.Limit = n
	}
	if o := c.QueryParam("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			return page, errIncorrectQueryOffset
		}
		page.Offset = n
	}
	return page.Normalize(), nil
}

func flagOf(c echo.Context, name string) (bool, error) {
	switch c.QueryParam(name) {
	case "":
		return false, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errIncorrectQueryFlag
	}
}

// asHTTPError maps errors from the database layer into HTTP errors.
func asHTTPError(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, kdb.ErrMissing):
		return apierr.NotFound()
	case errors.Is(err, apibooks.ErrInvalidRequest),
		errors.Is(err, apiaccounts.ErrInvalidRequest),
		errors.Is(err, apiassistant.ErrInvalidRequest),
		errors.Is(err, isbn.ErrInvalid):
		return apierr.BadRequest(err.Error(), err)
	case errors.Is(err, kdb.ErrCopiesOutOfRange):
		return apierr.BadRequest(err.Error(), err)
	case errors.Is(err, kdb.ErrConflict):
		return apierr.Conflict(err.Error(), apierr.WithError(err))
	case errors.Is(err, kdb.ErrInvalidState):
		return apierr.Conflict(
			"the record does not accept the operation in its current state",
			apierr.WithError(err),
		)
	default:
		return apierr.InternalServerError(err)
	}
}

func ok(c echo.Context, v any) error {
	return c.JSON(http.StatusOK, v)
}

func created(c echo.Context, v any) error {
	return c.JSON(http.StatusCreated, v)
}

// principal returns who sends the request.
//
// Routes using it should be behind auth.Authenticate.
func principal(c echo.Context) (auth.Principal, error) {
	p, found := auth.PrincipalOf(c)
	if !found {
		return auth.Principal{}, apierr.Unauthorized("login required.")
	}
	return p, nil
}

// actFor returns an error unless the principal may act for the member.
func actFor(c echo.Context, memberID string) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if !p.CanActFor(memberID) {
		return apierr.Forbidden()
	}
	return nil
}
