package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	apiassistant "github.com/opst/libris/pkg/api/types/assistant"
	apierr "github.com/opst/libris/pkg/api/types/errors"
	apistats "github.com/opst/libris/pkg/api/types/stats"
	"github.com/opst/libris/pkg/assistant"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/utils"
)

// Assistant is what *assistant.Assistant does for handlers.
type Assistant interface {
	Chat(ctx context.Context, name string, message string, history []assistant.Turn) (assistant.Answer, error)
	Recommend(ctx context.Context, memberID string, limit int) (assistant.Recommendations, error)
}

var _ Assistant = &assistant.Assistant{}

const (
	defaultRecommendations = 10
	maxRecommendations     = 50
)

// ChatHandler asks the assistant.
//
// Members are called by their names in the conversation.
func ChatHandler(asst Assistant, dbacct kdb.AccountsInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}
		req := apiassistant.ChatRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		message, history, err := req.Turns()
		if err != nil {
			return asHTTPError(err)
		}

		name := ""
		if p.Kind() == "member" {
			if m, err := dbacct.GetMember(ctx, p.ID); err == nil {
				name = m.Name
			} else if !errors.Is(err, kdb.ErrMissing) {
				return apierr.InternalServerError(err)
			}
		}

		answer, err := asst.Chat(ctx, name, message, history)
		if errors.Is(err, assistant.ErrDisabled) {
			return apierr.ServiceUnavailable("the assistant is not configured in this library.", err)
		} else if err != nil {
			return apierr.ServiceUnavailable("the assistant does not respond. try later.", err)
		}
		return ok(c, apiassistant.ComposeAnswer(answer))
	}
}

// RecommendHandler suggests books for the member in the path.
//
// Query param "limit" caps the number of books.
func RecommendHandler(asst Assistant, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := defaultRecommendations
		if l := c.QueryParam("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n <= 0 {
				return apierr.BadRequest("query parameter is incorrect", errIncorrectQueryLimit)
			}
			limit = min(n, maxRecommendations)
		}

		recs, err := asst.Recommend(c.Request().Context(), c.Param(param), limit)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apiassistant.ComposeRecommendations(recs))
	}
}

// StatsHandler shows figures of the library for the dashboard.
func StatsHandler(dbstats kdb.StatsInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := dbstats.Get(c.Request().Context())
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, apistats.Compose(stats))
	}
}

// PopularHandler shows the most borrowed books.
func PopularHandler(dbstats kdb.StatsInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := pageOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		counts, err := dbstats.Popular(c.Request().Context(), page.Limit)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(counts, apistats.ComposeBookCount))
	}
}
