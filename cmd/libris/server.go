package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/libris/cmd/libris/handlers"
	"github.com/opst/libris/pkg/auth"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/echoutil"
	"github.com/opst/libris/pkg/isbn"
)

// Components are what handlers of the server use.
type Components struct {
	DB        kdb.LibraryDatabase
	Issuer    auth.Issuer
	Verifier  auth.Verifier
	ISBN      isbn.Resolver
	Assistant handlers.Assistant
	Clock     handlers.Clock
}

// BuildServer returns an echo server with routes of the library API.
func BuildServer(comp Components, loglevel string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	Register(e, comp)
	return e
}

// Register mounts handlers on e.
func Register(e *echo.Echo, comp Components) {
	db := comp.DB
	now := comp.Clock

	authn := auth.Authenticate(comp.Verifier)
	user := []echo.MiddlewareFunc{authn}
	staff := []echo.MiddlewareFunc{authn, auth.RequireStaff()}
	admin := []echo.MiddlewareFunc{authn, auth.RequireRole(kdb.RoleAdmin)}
	self := func(param string) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{authn, auth.RequireSelfOrStaff(param)}
	}

	api := e.Group("/api")

	api.POST("/auth/login", handlers.LoginHandler(db.Accounts(), comp.Issuer))

	{
		const memberId = "memberId"
		api.POST("/members", handlers.RegisterMemberHandler(db.Accounts()))
		api.GET("/members", handlers.FindMembersHandler(db.Accounts()), staff...)
		api.GET("/members/:memberId", handlers.GetMemberHandler(db.Accounts(), memberId), self(memberId)...)
		api.PUT("/members/:memberId", handlers.UpdateMemberHandler(db.Accounts(), memberId), self(memberId)...)
		api.PUT(
			"/members/:memberId/status",
			handlers.SetMemberStatusHandler(db.Accounts(), memberId), staff...,
		)
		api.PUT(
			"/members/:memberId/password",
			handlers.ChangePasswordHandler(db.Accounts(), memberId), self(memberId)...,
		)
		api.GET(
			"/members/:memberId/loans",
			handlers.MemberLoansHandler(db.Loans(), now, memberId), self(memberId)...,
		)
		api.GET(
			"/members/:memberId/reservations",
			handlers.MemberReservationsHandler(db.Reservations(), memberId), self(memberId)...,
		)
		api.GET(
			"/members/:memberId/fines",
			handlers.MemberFinesHandler(db.Fines(), memberId), self(memberId)...,
		)
		api.GET(
			"/members/:memberId/recommendations",
			handlers.RecommendHandler(comp.Assistant, memberId), self(memberId)...,
		)
	}

	{
		api.GET("/staff", handlers.FindStaffHandler(db.Accounts()), staff...)
		api.POST("/staff", handlers.CreateStaffHandler(db.Accounts()), admin...)
		api.GET("/staff/:staffId", handlers.GetStaffHandler(db.Accounts(), "staffId"), staff...)
	}

	{
		const bookId = "bookId"
		cat := db.Catalog()
		api.GET("/books", handlers.FindBooksHandler(cat))
		api.POST("/books", handlers.CreateBookHandler(cat), staff...)
		api.GET("/books/:bookId", handlers.GetBookHandler(cat, bookId))
		api.PUT("/books/:bookId", handlers.UpdateBookHandler(cat, bookId), staff...)
		api.DELETE("/books/:bookId", handlers.DeleteBookHandler(cat, bookId), staff...)
		api.PUT("/books/:bookId/copies", handlers.SetCopiesHandler(cat, bookId), staff...)
		api.GET("/books/:bookId/queue", handlers.QueueHandler(db.Reservations(), bookId), staff...)

		api.GET("/authors", handlers.FindAuthorsHandler(cat))
		api.POST("/authors", handlers.CreateAuthorHandler(cat), staff...)
		api.GET("/authors/:authorId", handlers.GetAuthorHandler(cat, "authorId"))
		api.PUT("/authors/:authorId", handlers.UpdateAuthorHandler(cat, "authorId"), staff...)
		api.DELETE("/authors/:authorId", handlers.DeleteAuthorHandler(cat, "authorId"), staff...)

		api.GET("/categories", handlers.FindCategoriesHandler(cat))
		api.POST("/categories", handlers.CreateCategoryHandler(cat), staff...)
		api.GET("/categories/:categoryId", handlers.GetCategoryHandler(cat, "categoryId"))
		api.PUT("/categories/:categoryId", handlers.UpdateCategoryHandler(cat, "categoryId"), staff...)
		api.DELETE("/categories/:categoryId", handlers.DeleteCategoryHandler(cat, "categoryId"), staff...)

		api.GET("/isbn/:isbn", handlers.LookupISBNHandler(comp.ISBN, "isbn"), staff...)
	}

	{
		const loanId = "loanId"
		loans := db.Loans()
		api.POST("/loans", handlers.BorrowHandler(loans, now), staff...)
		api.GET("/loans", handlers.FindLoansHandler(loans, now), staff...)
		api.GET("/loans/:loanId", handlers.GetLoanHandler(loans, now, loanId), user...)
		api.PUT("/loans/:loanId/renew", handlers.RenewLoanHandler(loans, now, loanId), user...)
		api.PUT("/loans/:loanId/return", handlers.ReturnLoanHandler(loans, now, loanId), staff...)
		api.PUT("/loans/:loanId/lost", handlers.LostLoanHandler(loans, now, loanId), staff...)
	}

	{
		res := db.Reservations()
		api.POST("/reservations", handlers.ReserveHandler(res), user...)
		api.GET("/reservations", handlers.FindReservationsHandler(res), staff...)
		api.DELETE(
			"/reservations/:reservationId",
			handlers.CancelReservationHandler(res, "reservationId"), user...,
		)
	}

	{
		fines := db.Fines()
		api.GET("/fines", handlers.FindFinesHandler(fines), staff...)
		api.PUT("/fines/:fineId/pay", handlers.PayFineHandler(fines, "fineId"), user...)
		api.PUT("/fines/:fineId/waive", handlers.WaiveFineHandler(fines, "fineId"), staff...)
	}

	api.POST("/assistant/chat", handlers.ChatHandler(comp.Assistant, db.Accounts()), user...)

	api.GET("/stats", handlers.StatsHandler(db.Stats()), staff...)
	api.GET("/stats/popular", handlers.PopularHandler(db.Stats()), staff...)
}
