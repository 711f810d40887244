package mocks

import (
	"context"
	"errors"

	kdb "github.com/opst/libris/pkg/db"
)

type CatalogInterface struct {
	Impl struct {
		CreateAuthor   func(context.Context, kdb.AuthorSpec) (kdb.Author, error)
		GetAuthor      func(context.Context, string) (kdb.Author, error)
		FindAuthors    func(context.Context, string, kdb.Page) ([]kdb.Author, error)
		UpdateAuthor   func(context.Context, string, kdb.AuthorSpec) (kdb.Author, error)
		DeleteAuthor   func(context.Context, string) error
		CreateCategory func(context.Context, kdb.CategorySpec) (kdb.Category, error)
		GetCategory    func(context.Context, string) (kdb.Category, error)
		FindCategories func(context.Context, string, kdb.Page) ([]kdb.Category, error)
		UpdateCategory func(context.Context, string, kdb.CategorySpec) (kdb.Category, error)
		DeleteCategory func(context.Context, string) error
		CreateBook     func(context.Context, kdb.BookSpec, int) (kdb.Book, error)
		GetBook        func(context.Context, string) (kdb.Book, error)
		GetBooks       func(context.Context, []string) (map[string]kdb.Book, error)
		FindBooks      func(context.Context, kdb.BookQuery) ([]kdb.Book, error)
		UpdateBook     func(context.Context, string, kdb.BookSpec) (kdb.Book, error)
		SetCopies      func(context.Context, string, int) (kdb.Book, error)
		DeleteBook     func(context.Context, string) error
	}
	Calls struct {
		CreateAuthor CallLog[struct{ Spec kdb.AuthorSpec }]
		GetAuthor CallLog[struct{ ID string }]
		FindAuthors CallLog[struct {
			Name string
			Page kdb.Page
		}]
		UpdateAuthor CallLog[struct {
			ID   string
			Spec kdb.AuthorSpec
		}]
		DeleteAuthor CallLog[struct{ ID string }]
		CreateCategory CallLog[struct{ Spec kdb.CategorySpec }]
		GetCategory CallLog[struct{ ID string }]
		FindCategories CallLog[struct {
			Name string
			Page kdb.Page
		}]
		UpdateCategory CallLog[struct {
			ID   string
			Spec kdb.CategorySpec
		}]
		DeleteCategory CallLog[struct{ ID string }]
		CreateBook CallLog[struct {
			Spec   kdb.BookSpec
			Copies int
		}]
		GetBook CallLog[struct{ ID string }]
		GetBooks CallLog[struct{ IDs []string }]
		FindBooks CallLog[struct{ Query kdb.BookQuery }]
		UpdateBook CallLog[struct {
			ID   string
			Spec kdb.BookSpec
		}]
		SetCopies CallLog[struct {
			ID    string
			Total int
		}]
		DeleteBook CallLog[struct{ ID string }]
	}
}

func NewCatalogInterface() *CatalogInterface {
	return &CatalogInterface{}
}

var _ kdb.CatalogInterface = &CatalogInterface{}

func (m *CatalogInterface) CreateAuthor(ctx context.Context, spec kdb.AuthorSpec) (kdb.Author, error) {
	m.Calls.CreateAuthor = append(m.Calls.CreateAuthor, struct{ Spec kdb.AuthorSpec }{Spec: spec})
	if m.Impl.CreateAuthor != nil {
		return m.Impl.CreateAuthor(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) GetAuthor(ctx context.Context, id string) (kdb.Author, error) {
	m.Calls.GetAuthor = append(m.Calls.GetAuthor, struct{ ID string }{ID: id})
	if m.Impl.GetAuthor != nil {
		return m.Impl.GetAuthor(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) FindAuthors(ctx context.Context, name string, page kdb.Page) ([]kdb.Author, error) {
	m.Calls.FindAuthors = append(m.Calls.FindAuthors, struct {
		Name string
		Page kdb.Page
	}{
		Name: name, Page: page,
	})
	if m.Impl.FindAuthors != nil {
		return m.Impl.FindAuthors(ctx, name, page)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) UpdateAuthor(ctx context.Context, id string, spec kdb.AuthorSpec) (kdb.Author, error) {
	m.Calls.UpdateAuthor = append(m.Calls.UpdateAuthor, struct {
		ID   string
		Spec kdb.AuthorSpec
	}{
		ID: id, Spec: spec,
	})
	if m.Impl.UpdateAuthor != nil {
		return m.Impl.UpdateAuthor(ctx, id, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) DeleteAuthor(ctx context.Context, id string) error {
	m.Calls.DeleteAuthor = append(m.Calls.DeleteAuthor, struct{ ID string }{ID: id})
	if m.Impl.DeleteAuthor != nil {
		return m.Impl.DeleteAuthor(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) CreateCategory(ctx context.Context, spec kdb.CategorySpec) (kdb.Category, error) {
	m.Calls.CreateCategory = append(m.Calls.CreateCategory, struct{ Spec kdb.CategorySpec }{Spec: spec})
	if m.Impl.CreateCategory != nil {
		return m.Impl.CreateCategory(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) GetCategory(ctx context.Context, id string) (kdb.Category, error) {
	m.Calls.GetCategory = append(m.Calls.GetCategory, struct{ ID string }{ID: id})
	if m.Impl.GetCategory != nil {
		return m.Impl.GetCategory(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) FindCategories(ctx context.Context, name string, page kdb.Page) ([]kdb.Category, error) {
	m.Calls.FindCategories = append(m.Calls.FindCategories, struct {
		Name string
		Page kdb.Page
	}{
		Name: name, Page: page,
	})
	if m.Impl.FindCategories != nil {
		return m.Impl.FindCategories(ctx, name, page)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) UpdateCategory(ctx context.Context, id string, spec kdb.CategorySpec) (kdb.Category, error) {
	m.Calls.UpdateCategory = append(m.Calls.UpdateCategory, struct {
		ID   string
		Spec kdb.CategorySpec
	}{
		ID: id, Spec: spec,
	})
	if m.Impl.UpdateCategory != nil {
		return m.Impl.UpdateCategory(ctx, id, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) DeleteCategory(ctx context.Context, id string) error {
	m.Calls.DeleteCategory = append(m.Calls.DeleteCategory, struct{ ID string }{ID: id})
	if m.Impl.DeleteCategory != nil {
		return m.Impl.DeleteCategory(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) CreateBook(ctx context.Context, spec kdb.BookSpec, copies int) (kdb.Book, error) {
	m.Calls.CreateBook = append(m.Calls.CreateBook, struct {
		Spec   kdb.BookSpec
		Copies int
	}{
		Spec: spec, Copies: copies,
	})
	if m.Impl.CreateBook != nil {
		return m.Impl.CreateBook(ctx, spec, copies)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) GetBook(ctx context.Context, id string) (kdb.Book, error) {
	m.Calls.GetBook = append(m.Calls.GetBook, struct{ ID string }{ID: id})
	if m.Impl.GetBook != nil {
		return m.Impl.GetBook(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) GetBooks(ctx context.Context, ids []string) (map[string]kdb.Book, error) {
	m.Calls.GetBooks = append(m.Calls.GetBooks, struct{ IDs []string }{IDs: ids})
	if m.Impl.GetBooks != nil {
		return m.Impl.GetBooks(ctx, ids)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) FindBooks(ctx context.Context, query kdb.BookQuery) ([]kdb.Book, error) {
	m.Calls.FindBooks = append(m.Calls.FindBooks, struct{ Query kdb.BookQuery }{Query: query})
	if m.Impl.FindBooks != nil {
		return m.Impl.FindBooks(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) UpdateBook(ctx context.Context, id string, spec kdb.BookSpec) (kdb.Book, error) {
	m.Calls.UpdateBook = append(m.Calls.UpdateBook, struct {
		ID   string
		Spec kdb.BookSpec
	}{
		ID: id, Spec: spec,
	})
	if m.Impl.UpdateBook != nil {
		return m.Impl.UpdateBook(ctx, id, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) SetCopies(ctx context.Context, id string, total int) (kdb.Book, error) {
	m.Calls.SetCopies = append(m.Calls.SetCopies, struct {
		ID    string
		Total int
	}{
		ID: id, Total: total,
	})
	if m.Impl.SetCopies != nil {
		return m.Impl.SetCopies(ctx, id, total)
	}
	panic(errors.New("it should not be called"))
}

func (m *CatalogInterface) DeleteBook(ctx context.Context, id string) error {
	m.Calls.DeleteBook = append(m.Calls.DeleteBook, struct{ ID string }{ID: id})
	if m.Impl.DeleteBook != nil {
		return m.Impl.DeleteBook(ctx, id)
	}
	panic(errors.New("it should not be called"))
}
