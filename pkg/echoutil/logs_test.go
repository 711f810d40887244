package echoutil_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/opst/libris/pkg/echoutil"
)

func TestSetLevel(t *testing.T) {
	for name, testcase := range map[string]struct {
		when string
		then log.Lvl
	}{
		"debug":         {when: "debug", then: log.DEBUG},
		"info":          {when: "INFO", then: log.INFO},
		"warn":          {when: "warn", then: log.WARN},
		"empty":         {when: "", then: log.WARN},
		"error":         {when: "error", then: log.ERROR},
		"off":           {when: "off", then: log.OFF},
		"unknown names": {when: "verbose", then: log.WARN},
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			echoutil.SetLevel(e, testcase.when)
			if got := e.Logger.Level(); got != testcase.then {
				t.Errorf("expected %v, but %v", testcase.then, got)
			}
		})
	}
}

func TestLogHandlerFunc(t *testing.T) {
	e := echo.New()
	expected := errors.New("fake")

	t.Run("it passes the response through", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/books", nil), httptest.NewRecorder())
		err := echoutil.LogHandlerFunc(func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		})(c)
		if err != nil {
			t.Fatal(err)
		}
		if c.Response().Status != http.StatusNoContent {
			t.Errorf("status: %d", c.Response().Status)
		}
	})

	t.Run("it passes errors through", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/books", nil), httptest.NewRecorder())
		err := echoutil.LogHandlerFunc(func(c echo.Context) error { return expected })(c)
		if !errors.Is(err, expected) {
			t.Errorf("expected %v, but %v", expected, err)
		}
	})
}
