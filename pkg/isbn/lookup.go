package isbn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	kdb "github.com/opst/libris/pkg/db"
	xe "github.com/opst/libris/pkg/errors"
)

// Metadata is a bibliographic record found by ISBN.
type Metadata struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Publishers    []string `json:"publishers"`
	PublishedYear int      `json:"publishedYear,omitempty"`
	Pages         int      `json:"pages,omitempty"`
	Authors       []string `json:"authors"`
	CoverURL      string   `json:"coverUrl"`
}

// Resolver finds metadata of a book by ISBN.
type Resolver interface {
	// Lookup finds metadata by normalized ISBN.
	//
	// # Returns
	//
	// - error: kdb.ErrMissing when no records are found.
	Lookup(ctx context.Context, isbn string) (Metadata, error)
}

const (
	DefaultEndpoint = "https://openlibrary.org"
	coverEndpoint   = "https://covers.openlibrary.org"
)

// OpenLibrary is a Resolver querying the Open Library API.
type OpenLibrary struct {
	endpoint string
	client   *http.Client
}

// NewOpenLibrary returns a Resolver on Open Library at endpoint.
//
// When endpoint is empty, DefaultEndpoint is used.
func NewOpenLibrary(endpoint string, timeout time.Duration) *OpenLibrary {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &OpenLibrary{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

var _ Resolver = &OpenLibrary{}

// SearchURL is the Open Library search page for the isbn.
func SearchURL(isbn string) string {
	return DefaultEndpoint + "/search?isbn=" + url.QueryEscape(isbn)
}

type edition struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	NumberOfPages int      `json:"number_of_pages"`
	Authors       []struct {
		Key string `json:"key"`
	} `json:"authors"`
}

type author struct {
	Name string `json:"name"`
}

var year = regexp.MustCompile(`\b(\d{4})\b`)

func (o *OpenLibrary) Lookup(ctx context.Context, isbn string) (Metadata, error) {
	isbn, err := Normalize(isbn)
	if err != nil {
		return Metadata{}, err
	}

	ed := edition{}
	if err := o.get(ctx, "/isbn/"+isbn+".json", &ed); err != nil {
		return Metadata{}, err
	}

	m := Metadata{
		ISBN:       isbn,
		Title:      ed.Title,
		Subtitle:   ed.Subtitle,
		Publishers: ed.Publishers,
		Pages:      ed.NumberOfPages,
		Authors:    []string{},
		CoverURL:   fmt.Sprintf("%s/b/isbn/%s-L.jpg", coverEndpoint, isbn),
	}
	if m.Publishers == nil {
		m.Publishers = []string{}
	}
	if y := year.FindString(ed.PublishDate); y != "" {
		m.PublishedYear, _ = strconv.Atoi(y)
	}

	for _, a := range ed.Authors {
		if a.Key == "" {
			continue
		}
		au := author{}
		if err := o.get(ctx, a.Key+".json", &au); err != nil {
			// an author record may be gone while the edition refers it.
			if errors.Is(err, kdb.ErrMissing) {
				continue
			}
			return Metadata{}, err
		}
		if au.Name != "" {
			m.Authors = append(m.Authors, au.Name)
		}
	}
	return m, nil
}

func (o *OpenLibrary) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+path, nil)
	if err != nil {
		return xe.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return xe.Wrap(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", kdb.ErrMissing, path)
	case resp.StatusCode != http.StatusOK:
		return xe.Wrap(fmt.Errorf("unexpected status from %s: %s", path, resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return xe.Wrap(err)
	}
	return nil
}
