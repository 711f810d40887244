package internal

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v4"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
)

// BookColumns are columns scanned by ScanBook, for a query on "book".
const BookColumns = `
	"book"."book_id", coalesce("book"."isbn", ''), "book"."title", "book"."subtitle",
	"book"."publisher", "book"."published_year", "book"."edition", "book"."language",
	"book"."pages", "book"."synopsis", "book"."cover_url", "book"."shelf",
	"book"."total_copies", "book"."available_copies",
	"book"."created_at", "book"."updated_at"
`

// ScanBook scans a row of BookColumns. Authors and Categories are not set.
func ScanBook(row pgx.Row) (kdb.Book, error) {
	b := kdb.Book{}
	err := row.Scan(
		&b.ID, &b.ISBN, &b.Title, &b.Subtitle,
		&b.Publisher, &b.PublishedYear, &b.Edition, &b.Language,
		&b.Pages, &b.Synopsis, &b.CoverURL, &b.Shelf,
		&b.TotalCopies, &b.AvailableCopies,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// LockBook gets the book row with "for update" lock. Authors and Categories are not set.
func LockBook(ctx context.Context, tx kpool.Tx, bookID string) (kdb.Book, error) {
	if err := CheckID("book", bookID); err != nil {
		return kdb.Book{}, err
	}
	b, err := ScanBook(tx.QueryRow(
		ctx,
		`select `+BookColumns+` from "book" where "book_id" = $1 for update`,
		bookID,
	))
	if err != nil {
		return kdb.Book{}, kpgerr.Interpret(err, "book", bookID)
	}
	return b, nil
}

// GetBooks returns books with authors and categories. Missing ids are ignored.
func GetBooks(ctx context.Context, conn kpool.Queryer, ids []string) (map[string]kdb.Book, error) {
	ids = ValidIDs(ids)
	result := map[string]kdb.Book{}
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := conn.Query(
		ctx,
		`select `+BookColumns+` from "book" where "book_id" = any($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		b, err := ScanBook(rows)
		if err != nil {
			return nil, err
		}
		result[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	authors, err := conn.Query(
		ctx,
		`
		select "book_author"."book_id", "author"."author_id", "author"."name"
		from "book_author"
		inner join "author" using ("author_id")
		where "book_author"."book_id" = any($1)
		order by "book_author"."book_id", "book_author"."ordinal", "author"."name"
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer authors.Close()
	for authors.Next() {
		var bookID string
		a := kdb.AuthorRef{}
		if err := authors.Scan(&bookID, &a.ID, &a.Name); err != nil {
			return nil, err
		}
		if b, ok := result[bookID]; ok {
			b.Authors = append(b.Authors, a)
			result[bookID] = b
		}
	}
	if err := authors.Err(); err != nil {
		return nil, err
	}
	authors.Close()

	categories, err := conn.Query(
		ctx,
		`
		select "book_category"."book_id", "category"."category_id", "category"."name"
		from "book_category"
		inner join "category" using ("category_id")
		where "book_category"."book_id" = any($1)
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer categories.Close()
	for categories.Next() {
		var bookID string
		c := kdb.CategoryRef{}
		if err := categories.Scan(&bookID, &c.ID, &c.Name); err != nil {
			return nil, err
		}
		if b, ok := result[bookID]; ok {
			b.Categories = append(b.Categories, c)
			result[bookID] = b
		}
	}
	if err := categories.Err(); err != nil {
		return nil, err
	}

	for id, b := range result {
		sort.Slice(b.Categories, func(i, j int) bool { return b.Categories[i].Name < b.Categories[j].Name })
		result[id] = b
	}

	return result, nil
}

// GetBook is GetBooks for single book. It returns Missing when not found.
func GetBook(ctx context.Context, conn kpool.Queryer, id string) (kdb.Book, error) {
	if err := CheckID("book", id); err != nil {
		return kdb.Book{}, err
	}
	books, err := GetBooks(ctx, conn, []string{id})
	if err != nil {
		return kdb.Book{}, err
	}
	for _, b := range books {
		return b, nil
	}
	return kdb.Book{}, kpgerr.Missing{Table: "book", Identity: id}
}
