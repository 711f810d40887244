package db

import (
	"context"
	"time"
)

type AuthorSpec struct {
	Name        string
	Biography   string
	Nationality string
}

type Author struct {
	ID string
	AuthorSpec
}

type CategorySpec struct {
	Name        string
	Description string
}

type Category struct {
	ID string
	CategorySpec
}

// AuthorRef and CategoryRef are short references embedded in Book.
type AuthorRef struct {
	ID   string
	Name string
}

type CategoryRef struct {
	ID   string
	Name string
}

// BookSpec is the editable part of Book.
type BookSpec struct {
	// ISBN in normalized form (digits and trailing X), or empty.
	ISBN string

	Title         string
	Subtitle      string
	Publisher     string
	PublishedYear int
	Edition       int
	Language      string
	Pages         int
	Synopsis      string
	CoverURL      string

	// location in the stacks, like "QA76.73 G6"
	Shelf string

	AuthorIDs   []string
	CategoryIDs []string
}

type Book struct {
	ID string

	ISBN          string
	Title         string
	Subtitle      string
	Publisher     string
	PublishedYear int
	Edition       int
	Language      string
	Pages         int
	Synopsis      string
	CoverURL      string
	Shelf         string

	// TotalCopies is the number of copies the library owns.
	TotalCopies int

	// AvailableCopies is the number of copies on the shelf which nobody has borrowed or holds.
	AvailableCopies int

	Authors    []AuthorRef
	Categories []CategoryRef

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CopiesOut is the number of copies which are on loan or on hold.
func (b Book) CopiesOut() int {
	return b.TotalCopies - b.AvailableCopies
}

func (b Book) HasCategory(categoryID string) bool {
	for _, c := range b.Categories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}

type BookQuery struct {
	// Text matches title, subtitle or author name (case insensitive, partial).
	Text string

	// ISBN matches exactly, when not empty.
	ISBN string

	AuthorID   string
	CategoryID string

	// AvailableOnly limits results to books with available copies.
	AvailableOnly bool

	Page
}

type CatalogInterface interface {
	CreateAuthor(ctx context.Context, spec AuthorSpec) (Author, error)
	GetAuthor(ctx context.Context, id string) (Author, error)

	// FindAuthors returns authors whose name contains name (case insensitive), ordered by name.
	FindAuthors(ctx context.Context, name string, page Page) ([]Author, error)
	UpdateAuthor(ctx context.Context, id string, spec AuthorSpec) (Author, error)

	// DeleteAuthor removes an author.
	//
	// # Returns
	//
	// - error: ErrMissing when not found, ErrConflict when books still refer the author.
	DeleteAuthor(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, spec CategorySpec) (Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	FindCategories(ctx context.Context, name string, page Page) ([]Category, error)
	UpdateCategory(ctx context.Context, id string, spec CategorySpec) (Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// CreateBook registers a new book with copies.
	//
	// # Args
	//
	// - spec: book metadata. Referred authors and categories should exist.
	//
	// - copies: number of copies, 1 or more.
	//
	// # Returns
	//
	// - Book: created book. All copies are available.
	//
	// - error: ErrConflict when ISBN is taken, ErrMissing when an author or a category is not found.
	CreateBook(ctx context.Context, spec BookSpec, copies int) (Book, error)

	GetBook(ctx context.Context, id string) (Book, error)

	// GetBooks returns books found. Missing ids are ignored.
	GetBooks(ctx context.Context, ids []string) (map[string]Book, error)

	FindBooks(ctx context.Context, query BookQuery) ([]Book, error)

	// UpdateBook replaces metadata, authors and categories of a book.
	UpdateBook(ctx context.Context, id string, spec BookSpec) (Book, error)

	// SetCopies changes the number of copies the library owns.
	//
	// New copies go to the reservation queue first, then to the shelf.
	//
	// # Returns
	//
	// - error: ErrCopiesOutOfRange when total is less than copies out or negative.
	SetCopies(ctx context.Context, id string, total int) (Book, error)

	// DeleteBook removes a book.
	//
	// # Returns
	//
	// - error: ErrHasActiveLoans when some copies are out or reservations are active.
	DeleteBook(ctx context.Context, id string) error
}
