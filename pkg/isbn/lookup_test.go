package isbn_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/isbn"
)

func openLibrary(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenLibrary_Lookup(t *testing.T) {
	srv := openLibrary(t, map[string]string{
		"/isbn/9780156001311.json": `{
			"title": "The Name of the Rose",
			"publishers": ["Harcourt"],
			"publish_date": "October 1994",
			"number_of_pages": 512,
			"authors": [{"key": "/authors/OL1A"}, {"key": "/authors/OLGONE"}]
		}`,
		"/authors/OL1A.json": `{"name": "Umberto Eco"}`,
		"/isbn/0306406152.json": `{"title": "Data Reduction"}`,
	})

	t.Run("it composes an edition and its authors", func(t *testing.T) {
		testee := isbn.NewOpenLibrary(srv.URL+"/", time.Second)
		got, err := testee.Lookup(context.Background(), "978-0-15-600131-1")
		if err != nil {
			t.Fatal(err)
		}
		expected := isbn.Metadata{
			ISBN:          "9780156001311",
			Title:         "The Name of the Rose",
			Publishers:    []string{"Harcourt"},
			PublishedYear: 1994,
			Pages:         512,
			Authors:       []string{"Umberto Eco"},
			CoverURL:      "https://covers.openlibrary.org/b/isbn/9780156001311-L.jpg",
		}
		if diff := cmp.Diff(expected, got); diff != "" {
			t.Errorf("(-want +got): %s", diff)
		}
	})

	t.Run("fields absent are empty", func(t *testing.T) {
		testee := isbn.NewOpenLibrary(srv.URL, time.Second)
		got, err := testee.Lookup(context.Background(), "0306406152")
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "Data Reduction" || len(got.Authors) != 0 || len(got.Publishers) != 0 || got.PublishedYear != 0 {
			t.Errorf("unexpected: %+v", got)
		}
	})

	t.Run("unknown isbn is missing", func(t *testing.T) {
		testee := isbn.NewOpenLibrary(srv.URL, time.Second)
		_, err := testee.Lookup(context.Background(), "9780306406157")
		if !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("expected ErrMissing, but %v", err)
		}
	})

	t.Run("invalid isbn is not looked up", func(t *testing.T) {
		testee := isbn.NewOpenLibrary(srv.URL, time.Second)
		_, err := testee.Lookup(context.Background(), "9780306406158")
		if !errors.Is(err, isbn.ErrInvalid) {
			t.Errorf("expected ErrInvalid, but %v", err)
		}
	})

	t.Run("server errors are errors", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer broken.Close()
		testee := isbn.NewOpenLibrary(broken.URL, time.Second)
		_, err := testee.Lookup(context.Background(), "9780306406157")
		if err == nil || errors.Is(err, kdb.ErrMissing) {
			t.Errorf("unexpected: %v", err)
		}
	})
}
