package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	kdb "github.com/opst/libris/pkg/db"
	kpgacct "github.com/opst/libris/pkg/db/postgres/accounts"
	"github.com/opst/libris/pkg/db/postgres/catalog"
	kpgcirc "github.com/opst/libris/pkg/db/postgres/circulation"
	"github.com/opst/libris/pkg/db/postgres/pool/testenv"
	"github.com/opst/libris/pkg/utils/try"
)

func TestBooks(t *testing.T) {
	ctx := context.Background()
	pool := testenv.NewPoolBroaker(ctx, t).GetPool(ctx, t)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	testee := catalog.New(pool, catalog.WithClock(func() time.Time { return now }))

	eco := try.To(testee.CreateAuthor(ctx, kdb.AuthorSpec{Name: "Umberto Eco", Nationality: "Italian"})).OrFatal(t)
	calvino := try.To(testee.CreateAuthor(ctx, kdb.AuthorSpec{Name: "Italo Calvino"})).OrFatal(t)
	novel := try.To(testee.CreateCategory(ctx, kdb.CategorySpec{Name: "Novel"})).OrFatal(t)
	essay := try.To(testee.CreateCategory(ctx, kdb.CategorySpec{Name: "Essay"})).OrFatal(t)

	if _, err := testee.CreateCategory(ctx, kdb.CategorySpec{Name: "novel"}); !errors.Is(err, kdb.ErrConflict) {
		t.Errorf("category names should be unique ignoring case: %v", err)
	}

	rose := try.To(testee.CreateBook(ctx, kdb.BookSpec{
		ISBN:          "9780156001311",
		Title:         "The Name of the Rose",
		PublishedYear: 1980,
		AuthorIDs:     []string{eco.ID},
		CategoryIDs:   []string{novel.ID},
	}, 3)).OrFatal(t)
	memos := try.To(testee.CreateBook(ctx, kdb.BookSpec{
		Title:       "Six Memos for the Next Millennium",
		AuthorIDs:   []string{calvino.ID},
		CategoryIDs: []string{essay.ID, novel.ID},
	}, 1)).OrFatal(t)

	t.Run("created book has its relations and copies", func(t *testing.T) {
		if rose.TotalCopies != 3 || rose.AvailableCopies != 3 {
			t.Errorf("copies: %+v", rose)
		}
		if diff := cmp.Diff([]kdb.AuthorRef{{ID: eco.ID, Name: eco.Name}}, rose.Authors); diff != "" {
			t.Errorf("authors (-want +got): %s", diff)
		}
		expected := []kdb.CategoryRef{{ID: essay.ID, Name: essay.Name}, {ID: novel.ID, Name: novel.Name}}
		if diff := cmp.Diff(expected, memos.Categories); diff != "" {
			t.Errorf("categories (-want +got): %s", diff)
		}
	})

	t.Run("isbn is unique", func(t *testing.T) {
		_, err := testee.CreateBook(ctx, kdb.BookSpec{ISBN: rose.ISBN, Title: "dup"}, 1)
		if !errors.Is(err, kdb.ErrConflict) {
			t.Errorf("expected conflict, but %v", err)
		}
	})

	t.Run("a book needs a copy", func(t *testing.T) {
		_, err := testee.CreateBook(ctx, kdb.BookSpec{Title: "none"}, 0)
		if !errors.Is(err, kdb.ErrCopiesOutOfRange) {
			t.Errorf("expected out of range, but %v", err)
		}
	})

	t.Run("unknown author is missing", func(t *testing.T) {
		_, err := testee.CreateBook(ctx, kdb.BookSpec{
			Title: "ghost", AuthorIDs: []string{"00000000-0000-0000-0000-000000000000"},
		}, 1)
		if !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("expected missing, but %v", err)
		}
	})

	for name, testcase := range map[string]struct {
		when kdb.BookQuery
		then []string
	}{
		"all books ordered by title": {
			when: kdb.BookQuery{},
			then: []string{memos.ID, rose.ID},
		},
		"by title text": {
			when: kdb.BookQuery{Text: "ROSE"},
			then: []string{rose.ID},
		},
		"by author name text": {
			when: kdb.BookQuery{Text: "calvino"},
			then: []string{memos.ID},
		},
		"by category": {
			when: kdb.BookQuery{CategoryID: novel.ID},
			then: []string{memos.ID, rose.ID},
		},
		"by author": {
			when: kdb.BookQuery{AuthorID: eco.ID},
			then: []string{rose.ID},
		},
		"by isbn": {
			when: kdb.BookQuery{ISBN: "9780156001311"},
			then: []string{rose.ID},
		},
		"wildcards are literal": {
			when: kdb.BookQuery{Text: "%"},
			then: []string{},
		},
		"with a page": {
			when: kdb.BookQuery{Page: kdb.Page{Limit: 1, Offset: 1}},
			then: []string{rose.ID},
		},
	} {
		t.Run("FindBooks "+name, func(t *testing.T) {
			books := try.To(testee.FindBooks(ctx, testcase.when)).OrFatal(t)
			got := []string{}
			for _, b := range books {
				got = append(got, b.ID)
			}
			if diff := cmp.Diff(testcase.then, got); diff != "" {
				t.Errorf("(-want +got): %s", diff)
			}
		})
	}

	t.Run("an author of books cannot be deleted", func(t *testing.T) {
		if err := testee.DeleteAuthor(ctx, eco.ID); !errors.Is(err, kdb.ErrConflict) {
			t.Errorf("expected conflict, but %v", err)
		}
	})

	t.Run("update replaces relations", func(t *testing.T) {
		updated := try.To(testee.UpdateBook(ctx, memos.ID, kdb.BookSpec{
			Title:       memos.Title,
			AuthorIDs:   []string{calvino.ID, eco.ID},
			CategoryIDs: []string{essay.ID},
		})).OrFatal(t)
		if len(updated.Authors) != 2 || updated.Authors[0].ID != calvino.ID || updated.Authors[1].ID != eco.ID {
			t.Errorf("authors: %+v", updated.Authors)
		}
		if len(updated.Categories) != 1 || updated.Categories[0].ID != essay.ID {
			t.Errorf("categories: %+v", updated.Categories)
		}
	})

	t.Run("missing book", func(t *testing.T) {
		if _, err := testee.GetBook(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("expected missing, but %v", err)
		}
		if _, err := testee.GetBook(ctx, "not-an-id"); !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("expected missing, but %v", err)
		}
	})
}

func TestSetCopies(t *testing.T) {
	ctx := context.Background()
	pool := testenv.NewPoolBroaker(ctx, t).GetPool(ctx, t)
	testee := catalog.New(pool)
	accounts := kpgacct.New(pool)
	loans := kpgcirc.NewLoans(pool)
	reservations := kpgcirc.NewReservations(pool)

	book := try.To(testee.CreateBook(ctx, kdb.BookSpec{Title: "Mr. Palomar"}, 1)).OrFatal(t)
	members := []kdb.Member{}
	for _, name := range []string{"alice", "bob", "carol"} {
		members = append(members, try.To(accounts.RegisterMember(ctx, kdb.MemberSpec{
			Name: name, Email: name + "@example.edu", Registration: name, Kind: kdb.Student,
		}, []byte("hash"))).OrFatal(t))
	}

	try.To(loans.Borrow(ctx, members[0].ID, book.ID, "")).OrFatal(t)
	try.To(reservations.Reserve(ctx, members[1].ID, book.ID)).OrFatal(t)

	if _, err := testee.SetCopies(ctx, book.ID, 0); !errors.Is(err, kdb.ErrCopiesOutOfRange) {
		t.Errorf("copies out are more than total: %v", err)
	}
	if err := testee.DeleteBook(ctx, book.ID); !errors.Is(err, kdb.ErrHasActiveLoans) {
		t.Errorf("deleting a book on loan: %v", err)
	}

	updated := try.To(testee.SetCopies(ctx, book.ID, 3)).OrFatal(t)
	if updated.TotalCopies != 3 || updated.AvailableCopies != 1 {
		t.Errorf("one of new copies should be held for the queue: %+v", updated)
	}
	queue := try.To(reservations.Queue(ctx, book.ID)).OrFatal(t)
	if len(queue) != 1 || queue[0].Status != kdb.ReservationAvailable || queue[0].MemberID != members[1].ID {
		t.Errorf("queue: %+v", queue)
	}

	shrunk := try.To(testee.SetCopies(ctx, book.ID, 2)).OrFatal(t)
	if shrunk.TotalCopies != 2 || shrunk.AvailableCopies != 0 {
		t.Errorf("copies: %+v", shrunk)
	}
}
