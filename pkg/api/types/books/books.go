package books

import (
	"errors"
	"fmt"
	"strings"
	"time"

	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/isbn"
	"github.com/opst/libris/pkg/utils"
)

var ErrInvalidRequest = errors.New("invalid request")

type Author struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Biography   string `json:"biography,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

func ComposeAuthor(a kdb.Author) Author {
	return Author{
		ID:          a.ID,
		Name:        a.Name,
		Biography:   a.Biography,
		Nationality: a.Nationality,
	}
}

type AuthorRequest struct {
	Name        string `json:"name"`
	Biography   string `json:"biography"`
	Nationality string `json:"nationality"`
}

func (r AuthorRequest) Spec() (kdb.AuthorSpec, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return kdb.AuthorSpec{}, fmt.Errorf(`%w: "name" is required`, ErrInvalidRequest)
	}
	return kdb.AuthorSpec{
		Name:        name,
		Biography:   r.Biography,
		Nationality: strings.TrimSpace(r.Nationality),
	}, nil
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func ComposeCategory(c kdb.Category) Category {
	return Category{ID: c.ID, Name: c.Name, Description: c.Description}
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r CategoryRequest) Spec() (kdb.CategorySpec, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return kdb.CategorySpec{}, fmt.Errorf(`%w: "name" is required`, ErrInvalidRequest)
	}
	return kdb.CategorySpec{Name: name, Description: r.Description}, nil
}

type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	ID              string    `json:"id"`
	ISBN            string    `json:"isbn,omitempty"`
	Title           string    `json:"title"`
	Subtitle        string    `json:"subtitle,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	PublishedYear   int       `json:"publishedYear,omitempty"`
	Edition         int       `json:"edition,omitempty"`
	Language        string    `json:"language,omitempty"`
	Pages           int       `json:"pages,omitempty"`
	Synopsis        string    `json:"synopsis,omitempty"`
	CoverURL        string    `json:"coverUrl,omitempty"`
	Shelf           string    `json:"shelf,omitempty"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	Authors         []Ref     `json:"authors"`
	Categories      []Ref     `json:"categories"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func ComposeBook(b kdb.Book) Book {
	return Book{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Subtitle:        b.Subtitle,
		Publisher:       b.Publisher,
		PublishedYear:   b.PublishedYear,
		Edition:         b.Edition,
		Language:        b.Language,
		Pages:           b.Pages,
		Synopsis:        b.Synopsis,
		CoverURL:        b.CoverURL,
		Shelf:           b.Shelf,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Authors: utils.Map(b.Authors, func(a kdb.AuthorRef) Ref {
			return Ref{ID: a.ID, Name: a.Name}
		}),
		Categories: utils.Map(b.Categories, func(c kdb.CategoryRef) Ref {
			return Ref{ID: c.ID, Name: c.Name}
		}),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type BookRequest struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Publisher     string   `json:"publisher"`
	PublishedYear int      `json:"publishedYear"`
	Edition       int      `json:"edition"`
	Language      string   `json:"language"`
	Pages         int      `json:"pages"`
	Synopsis      string   `json:"synopsis"`
	CoverURL      string   `json:"coverUrl"`
	Shelf         string   `json:"shelf"`
	AuthorIDs     []string `json:"authorIds"`
	CategoryIDs   []string `json:"categoryIds"`

	// Copies is the number of copies of a new book. It is ignored on updates.
	Copies int `json:"copies"`
}

// Spec validates the request and converts it.
//
// ISBN is normalized when given.
func (r BookRequest) Spec() (kdb.BookSpec, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return kdb.BookSpec{}, fmt.Errorf(`%w: "title" is required`, ErrInvalidRequest)
	}
	if r.PublishedYear < 0 || r.Pages < 0 || r.Edition < 0 {
		return kdb.BookSpec{}, fmt.Errorf(
			`%w: "publishedYear", "pages" and "edition" should not be negative`, ErrInvalidRequest,
		)
	}

	code := ""
	if strings.TrimSpace(r.ISBN) != "" {
		n, err := isbn.Normalize(r.ISBN)
		if err != nil {
			return kdb.BookSpec{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		code = n
	}

	return kdb.BookSpec{
		ISBN:          code,
		Title:         title,
		Subtitle:      strings.TrimSpace(r.Subtitle),
		Publisher:     strings.TrimSpace(r.Publisher),
		PublishedYear: r.PublishedYear,
		Edition:       r.Edition,
		Language:      strings.TrimSpace(r.Language),
		Pages:         r.Pages,
		Synopsis:      r.Synopsis,
		CoverURL:      strings.TrimSpace(r.CoverURL),
		Shelf:         strings.TrimSpace(r.Shelf),
		AuthorIDs:     nonNil(r.AuthorIDs),
		CategoryIDs:   nonNil(r.CategoryIDs),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type CopiesRequest struct {
	Total *int `json:"total"`
}
