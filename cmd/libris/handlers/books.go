package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apibooks "github.com/opst/libris/pkg/api/types/books"
	apicirc "github.com/opst/libris/pkg/api/types/circulation"
	apierr "github.com/opst/libris/pkg/api/types/errors"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/isbn"
	"github.com/opst/libris/pkg/utils"
)

// FindBooksHandler lists books.
//
// Query params are "q" (free text), "isbn", "author", "category", "available",
// "limit" and "offset".
func FindBooksHandler(dbcat kdb.CatalogInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := func() (kdb.BookQuery, error) {
			q := kdb.BookQuery{
				Text:       strings.TrimSpace(c.QueryParam("q")),
				AuthorID:   c.QueryParam("author"),
				CategoryID: c.QueryParam("category"),
			}
			if code := c.QueryParam("isbn"); code != "" {
				n, err := isbn.Normalize(code)
				if err != nil {
					return q, err
				}
				q.ISBN = n
			}
			available, err := flagOf(c, "available")
			if err != nil {
				return q, err
			}
			q.AvailableOnly = available

			page, err := pageOf(c)
			if err != nil {
				return q, err
			}
			q.Page = page
			return q, nil
		}()
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}

		books, err := dbcat.FindBooks(c.Request().Context(), query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(books, apibooks.ComposeBook))
	}
}

func GetBookHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		book, err := dbcat.GetBook(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apibooks.ComposeBook(book))
	}
}

func CreateBookHandler(dbcat kdb.CatalogInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apibooks.BookRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		copies := req.Copies
		if copies == 0 {
			copies = 1
		}
		if copies < 1 {
			return apierr.BadRequest(`"copies" should be 1 or more`, nil)
		}

		book, err := dbcat.CreateBook(c.Request().Context(), spec, copies)
		if err != nil {
			return asHTTPError(err)
		}
		return created(c, apibooks.ComposeBook(book))
	}
}

func UpdateBookHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apibooks.BookRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		book, err := dbcat.UpdateBook(c.Request().Context(), c.Param(param), spec)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apibooks.ComposeBook(book))
	}
}

// SetCopiesHandler changes the total number of copies of a book.
func SetCopiesHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apibooks.CopiesRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.Total == nil || *req.Total < 0 {
			return apierr.BadRequest(`"total" is required and should not be negative`, nil)
		}
		book, err := dbcat.SetCopies(c.Request().Context(), c.Param(param), *req.Total)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apibooks.ComposeBook(book))
	}
}

func DeleteBookHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := dbcat.DeleteBook(c.Request().Context(), c.Param(param)); err != nil {
			return asHTTPError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// QueueHandler shows the reservation queue of a book.
func QueueHandler(dbres kdb.ReservationInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		queue, err := dbres.Queue(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, utils.Map(queue, apicirc.ComposeReservation))
	}
}

func FindAuthorsHandler(dbcat kdb.CatalogInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := pageOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		authors, err := dbcat.FindAuthors(
			c.Request().Context(), strings.TrimSpace(c.QueryParam("name")), page,
		)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(authors, apibooks.ComposeAuthor))
	}
}

func GetAuthorHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		author, err := dbcat.GetAuthor(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apibooks.ComposeAuthor(author))
	}
}

func CreateAuthorHandler(dbcat kdb.CatalogInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apibooks.AuthorRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		author, err := dbcat.CreateAuthor(c.Request().Context(), spec)
		if err != nil {
			return asHTTPError(err)
		}
		return created(c, apibooks.ComposeAuthor(author))
	}
}

func UpdateAuthorHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apibooks.AuthorRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		author, err := dbcat.UpdateAuthor(c.Request().Context(), c.Param(param), spec)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apibooks.ComposeAuthor(author))
	}
}

func DeleteAuthorHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := dbcat.DeleteAuthor(c.Request().Context(), c.Param(param)); err != nil {
			return asHTTPError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func FindCategoriesHandler(dbcat kdb.CatalogInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := pageOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		categories, err := dbcat.FindCategories(
			c.Request().Context(), strings.TrimSpace(c.QueryParam("name")), page,
		)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(categories, apibooks.ComposeCategory))
	}
}

func GetCategoryHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		category, err := dbcat.GetCategory(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apibooks.ComposeCategory(category))
	}
}

func CreateCategoryHandler(dbcat kdb.CatalogInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apibooks.CategoryRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		category, err := dbcat.CreateCategory(c.Request().Context(), spec)
		if err != nil {
			return asHTTPError(err)
		}
		return created(c, apibooks.ComposeCategory(category))
	}
}

func UpdateCategoryHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apibooks.CategoryRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		category, err := dbcat.UpdateCategory(c.Request().Context(), c.Param(param), spec)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apibooks.ComposeCategory(category))
	}
}

func DeleteCategoryHandler(dbcat kdb.CatalogInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := dbcat.DeleteCategory(c.Request().Context(), c.Param(param)); err != nil {
			return asHTTPError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// LookupISBNHandler finds bibliographic metadata of an ISBN.
func LookupISBNHandler(resolver isbn.Resolver, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		code := c.Param(param)
		meta, err := resolver.Lookup(c.Request().Context(), code)
		switch {
		case err == nil:
		case errors.Is(err, kdb.ErrMissing):
			if n, nerr := isbn.Normalize(code); nerr == nil {
				code = n
			}
			return apierr.NotFound(
				apierr.WithAdvice("no records are registered for the isbn. fill in the book by hand."),
				apierr.WithSee(isbn.SearchURL(code)),
			)
		case errors.Is(err, isbn.ErrInvalid):
			return asHTTPError(err)
		default:
			return apierr.ServiceUnavailable("isbn registry does not respond. try later.", err)
		}
		return ok(c, meta)
	}
}
