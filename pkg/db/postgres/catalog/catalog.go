package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpgintr "github.com/opst/libris/pkg/db/postgres/internal"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	xe "github.com/opst/libris/pkg/errors"
)

type pgCatalog struct {
	pool kpool.Pool

	now       func() time.Time
	holdUntil func(time.Time) time.Time
}

type Option func(*pgCatalog) *pgCatalog

// WithClock replaces the clock. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *pgCatalog) *pgCatalog {
		c.now = now
		return c
	}
}

// WithHoldUntil sets the function deciding the end of holding
// for copies passed to reservation queues.
func WithHoldUntil(holdUntil func(time.Time) time.Time) Option {
	return func(c *pgCatalog) *pgCatalog {
		c.holdUntil = holdUntil
		return c
	}
}

func New(pool kpool.Pool, options ...Option) kdb.CatalogInterface {
	c := &pgCatalog{
		pool:      pool,
		now:       time.Now,
		holdUntil: func(t time.Time) time.Time { return t.Add(48 * time.Hour) },
	}
	for _, o := range options {
		c = o(c)
	}
	return c
}

func (c *pgCatalog) CreateAuthor(ctx context.Context, spec kdb.AuthorSpec) (kdb.Author, error) {
	a := kdb.Author{ID: kpgintr.NewID(), AuthorSpec: spec}
	if _, err := c.pool.Exec(
		ctx,
		`
		insert into "author" ("author_id", "name", "biography", "nationality")
		values ($1, $2, $3, $4)
		`,
		a.ID, spec.Name, spec.Biography, spec.Nationality,
	); err != nil {
		return kdb.Author{}, xe.Wrap(kpgerr.Interpret(err, "author", a.ID))
	}
	return a, nil
}

func (c *pgCatalog) GetAuthor(ctx context.Context, id string) (kdb.Author, error) {
	if err := kpgintr.CheckID("author", id); err != nil {
		return kdb.Author{}, err
	}
	a := kdb.Author{}
	if err := c.pool.QueryRow(
		ctx,
		`select "author_id", "name", "biography", "nationality" from "author" where "author_id" = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Biography, &a.Nationality); err != nil {
		return kdb.Author{}, kpgerr.Interpret(err, "author", id)
	}
	return a, nil
}

func (c *pgCatalog) FindAuthors(ctx context.Context, name string, page kdb.Page) ([]kdb.Author, error) {
	page = page.Normalize()
	rows, err := c.pool.Query(
		ctx,
		`
		select "author_id", "name", "biography", "nationality" from "author"
		where lower("name") like $1
		order by "name", "author_id"
		limit $2 offset $3
		`,
		kpgintr.Contains(name), page.Limit, page.Offset,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	result := []kdb.Author{}
	for rows.Next() {
		a := kdb.Author{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Biography, &a.Nationality); err != nil {
			return nil, xe.Wrap(err)
		}
		result = append(result, a)
	}
	return result, xe.Wrap(rows.Err())
}

func (c *pgCatalog) UpdateAuthor(ctx context.Context, id string, spec kdb.AuthorSpec) (kdb.Author, error) {
	if err := kpgintr.CheckID("author", id); err != nil {
		return kdb.Author{}, err
	}
	ctag, err := c.pool.Exec(
		ctx,
		`
		update "author" set "name" = $2, "biography" = $3, "nationality" = $4
		where "author_id" = $1
		`,
		id, spec.Name, spec.Biography, spec.Nationality,
	)
	if err != nil {
		return kdb.Author{}, xe.Wrap(kpgerr.Interpret(err, "author", id))
	}
	if ctag.RowsAffected() == 0 {
		return kdb.Author{}, kpgerr.Missing{Table: "author", Identity: id}
	}
	return c.GetAuthor(ctx, id)
}

func (c *pgCatalog) DeleteAuthor(ctx context.Context, id string) error {
	if err := kpgintr.CheckID("author", id); err != nil {
		return err
	}
	ctag, err := c.pool.Exec(ctx, `delete from "author" where "author_id" = $1`, id)
	if err != nil {
		return xe.Wrap(kpgerr.Interpret(err, "author", id))
	}
	if ctag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "author", Identity: id}
	}
	return nil
}

func (c *pgCatalog) CreateCategory(ctx context.Context, spec kdb.CategorySpec) (kdb.Category, error) {
	cat := kdb.Category{ID: kpgintr.NewID(), CategorySpec: spec}
	if _, err := c.pool.Exec(
		ctx,
		`insert into "category" ("category_id", "name", "description") values ($1, $2, $3)`,
		cat.ID, spec.Name, spec.Description,
	); err != nil {
		return kdb.Category{}, xe.Wrap(kpgerr.Interpret(err, "category", cat.ID))
	}
	return cat, nil
}

func (c *pgCatalog) GetCategory(ctx context.Context, id string) (kdb.Category, error) {
	if err := kpgintr.CheckID("category", id); err != nil {
		return kdb.Category{}, err
	}
	cat := kdb.Category{}
	if err := c.pool.QueryRow(
		ctx,
		`select "category_id", "name", "description" from "category" where "category_id" = $1`,
		id,
	).Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
		return kdb.Category{}, kpgerr.Interpret(err, "category", id)
	}
	return cat, nil
}

func (c *pgCatalog) FindCategories(ctx context.Context, name string, page kdb.Page) ([]kdb.Category, error) {
	page = page.Normalize()
	rows, err := c.pool.Query(
		ctx,
		`
		select "category_id", "name", "description" from "category"
		where lower("name") like $1
		order by "name"
		limit $2 offset $3
		`,
		kpgintr.Contains(name), page.Limit, page.Offset,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	result := []kdb.Category{}
	for rows.Next() {
		cat := kdb.Category{}
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
			return nil, xe.Wrap(err)
		}
		result = append(result, cat)
	}
	return result, xe.Wrap(rows.Err())
}

func (c *pgCatalog) UpdateCategory(ctx context.Context, id string, spec kdb.CategorySpec) (kdb.Category, error) {
	if err := kpgintr.CheckID("category", id); err != nil {
		return kdb.Category{}, err
	}
	ctag, err := c.pool.Exec(
		ctx,
		`update "category" set "name" = $2, "description" = $3 where "category_id" = $1`,
		id, spec.Name, spec.Description,
	)
	if err != nil {
		return kdb.Category{}, xe.Wrap(kpgerr.Interpret(err, "category", id))
	}
	if ctag.RowsAffected() == 0 {
		return kdb.Category{}, kpgerr.Missing{Table: "category", Identity: id}
	}
	return c.GetCategory(ctx, id)
}

func (c *pgCatalog) DeleteCategory(ctx context.Context, id string) error {
	if err := kpgintr.CheckID("category", id); err != nil {
		return err
	}
	ctag, err := c.pool.Exec(ctx, `delete from "category" where "category_id" = $1`, id)
	if err != nil {
		return xe.Wrap(kpgerr.Interpret(err, "category", id))
	}
	if ctag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "category", Identity: id}
	}
	return nil
}

func (c *pgCatalog) CreateBook(ctx context.Context, spec kdb.BookSpec, copies int) (kdb.Book, error) {
	if copies < 1 {
		return kdb.Book{}, fmt.Errorf("%w: %d copies", kdb.ErrCopiesOutOfRange, copies)
	}
	id := kpgintr.NewID()
	now := c.now()

	err := kpool.InTx(ctx, c.pool, func(tx kpool.Tx) error {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "book" (
				"book_id", "isbn", "title", "subtitle", "publisher", "published_year",
				"edition", "language", "pages", "synopsis", "cover_url", "shelf",
				"total_copies", "available_copies", "created_at", "updated_at"
			)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, $14, $14)
			`,
			id, kpgintr.NullIfEmpty(spec.ISBN), spec.Title, spec.Subtitle, spec.Publisher, spec.PublishedYear,
			spec.Edition, spec.Language, spec.Pages, spec.Synopsis, spec.CoverURL, spec.Shelf,
			copies, now,
		); err != nil {
			return kpgerr.Interpret(err, "book", id)
		}
		return setRelations(ctx, tx, id, spec)
	})
	if err != nil {
		return kdb.Book{}, xe.Wrap(err)
	}

	return kpgintr.GetBook(ctx, c.pool, id)
}

// setRelations replaces authors and categories of the book.
func setRelations(ctx context.Context, tx kpool.Tx, bookID string, spec kdb.BookSpec) error {
	for _, id := range spec.AuthorIDs {
		if err := kpgintr.CheckID("author", id); err != nil {
			return err
		}
	}
	for _, id := range spec.CategoryIDs {
		if err := kpgintr.CheckID("category", id); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `delete from "book_author" where "book_id" = $1`, bookID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `delete from "book_category" where "book_id" = $1`, bookID); err != nil {
		return err
	}

	for nth, authorID := range spec.AuthorIDs {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "book_author" ("book_id", "author_id", "ordinal") values ($1, $2, $3)
			on conflict do nothing
			`,
			bookID, authorID, nth,
		); err != nil {
			if kpgerr.IsForeignKeyViolation(err) {
				return kpgerr.Missing{Table: "author", Identity: authorID}
			}
			return err
		}
	}
	for _, categoryID := range spec.CategoryIDs {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "book_category" ("book_id", "category_id") values ($1, $2)
			on conflict do nothing
			`,
			bookID, categoryID,
		); err != nil {
			if kpgerr.IsForeignKeyViolation(err) {
				return kpgerr.Missing{Table: "category", Identity: categoryID}
			}
			return err
		}
	}
	return nil
}

func (c *pgCatalog) GetBook(ctx context.Context, id string) (kdb.Book, error) {
	b, err := kpgintr.GetBook(ctx, c.pool, id)
	if err != nil && !errors.Is(err, kdb.ErrMissing) {
		return kdb.Book{}, xe.Wrap(err)
	}
	return b, err
}

func (c *pgCatalog) GetBooks(ctx context.Context, ids []string) (map[string]kdb.Book, error) {
	books, err := kpgintr.GetBooks(ctx, c.pool, ids)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	return books, nil
}

func (c *pgCatalog) FindBooks(ctx context.Context, query kdb.BookQuery) ([]kdb.Book, error) {
	page := query.Page.Normalize()

	w := kpgintr.Where{}
	if query.Text != "" {
		w.Add(
			`(
				lower("book"."title") like ? or lower("book"."subtitle") like ?
				or exists (
					select 1 from "book_author" inner join "author" using ("author_id")
					where "book_author"."book_id" = "book"."book_id" and lower("author"."name") like ?
				)
			)`,
			kpgintr.Contains(query.Text),
		)
	}
	if query.ISBN != "" {
		w.Add(`"book"."isbn" = ?`, query.ISBN)
	}
	if query.AuthorID != "" {
		if kpgintr.CheckID("author", query.AuthorID) != nil {
			return []kdb.Book{}, nil
		}
		w.Add(
			`exists (
				select 1 from "book_author"
				where "book_author"."book_id" = "book"."book_id" and "book_author"."author_id" = ?
			)`,
			query.AuthorID,
		)
	}
	if query.CategoryID != "" {
		if kpgintr.CheckID("category", query.CategoryID) != nil {
			return []kdb.Book{}, nil
		}
		w.Add(
			`exists (
				select 1 from "book_category"
				where "book_category"."book_id" = "book"."book_id" and "book_category"."category_id" = ?
			)`,
			query.CategoryID,
		)
	}
	if query.AvailableOnly {
		w.AddRaw(`0 < "book"."available_copies"`)
	}
	limit := w.Param(page.Limit)
	offset := w.Param(page.Offset)

	rows, err := c.pool.Query(
		ctx,
		`select "book"."book_id" from "book" `+w.Clause()+
			` order by lower("book"."title"), "book"."book_id" limit `+limit+` offset `+offset,
		w.Args()...,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, xe.Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	rows.Close()

	books, err := kpgintr.GetBooks(ctx, c.pool, ids)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	result := make([]kdb.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := books[id]; ok {
			result = append(result, b)
		}
	}
	return result, nil
}

func (c *pgCatalog) UpdateBook(ctx context.Context, id string, spec kdb.BookSpec) (kdb.Book, error) {
	err := kpool.InTx(ctx, c.pool, func(tx kpool.Tx) error {
		if _, err := kpgintr.LockBook(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			update "book" set
				"isbn" = $2, "title" = $3, "subtitle" = $4, "publisher" = $5,
				"published_year" = $6, "edition" = $7, "language" = $8, "pages" = $9,
				"synopsis" = $10, "cover_url" = $11, "shelf" = $12, "updated_at" = $13
			where "book_id" = $1
			`,
			id, kpgintr.NullIfEmpty(spec.ISBN), spec.Title, spec.Subtitle, spec.Publisher,
			spec.PublishedYear, spec.Edition, spec.Language, spec.Pages,
			spec.Synopsis, spec.CoverURL, spec.Shelf, c.now(),
		); err != nil {
			return kpgerr.Interpret(err, "book", id)
		}
		return setRelations(ctx, tx, id, spec)
	})
	if err != nil {
		return kdb.Book{}, xe.Wrap(err)
	}
	return kpgintr.GetBook(ctx, c.pool, id)
}

func (c *pgCatalog) SetCopies(ctx context.Context, id string, total int) (kdb.Book, error) {
	err := kpool.InTx(ctx, c.pool, func(tx kpool.Tx) error {
		b, err := kpgintr.LockBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if total < 0 || total < b.CopiesOut() {
			return fmt.Errorf(
				"%w: %d copies are out, but total is going to be %d",
				kdb.ErrCopiesOutOfRange, b.CopiesOut(), total,
			)
		}

		now := c.now()
		delta := total - b.TotalCopies
		available := b.AvailableCopies
		if delta < 0 {
			available += delta
		}
		if _, err := tx.Exec(
			ctx,
			`
			update "book" set "total_copies" = $2, "available_copies" = $3, "updated_at" = $4
			where "book_id" = $1
			`,
			id, total, available, now,
		); err != nil {
			return err
		}

		// new copies serve the queue first.
		for range max(delta, 0) {
			if _, err := kpgintr.ReleaseCopy(ctx, tx, id, now, c.holdUntil(now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return kdb.Book{}, xe.Wrap(err)
	}
	return kpgintr.GetBook(ctx, c.pool, id)
}

func (c *pgCatalog) DeleteBook(ctx context.Context, id string) error {
	err := kpool.InTx(ctx, c.pool, func(tx kpool.Tx) error {
		b, err := kpgintr.LockBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if 0 < b.CopiesOut() {
			return kdb.ErrHasActiveLoans
		}

		var openReservations int
		if err := tx.QueryRow(
			ctx,
			`
			select count(*) from "reservation"
			where "book_id" = $1 and "status" in ('waiting', 'available')
			`,
			id,
		).Scan(&openReservations); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if 0 < openReservations {
			return kdb.ErrHasActiveLoans
		}

		if _, err := tx.Exec(ctx, `delete from "book" where "book_id" = $1`, id); err != nil {
			return kpgerr.Interpret(err, "book", id)
		}
		return nil
	})
	return xe.Wrap(err)
}
