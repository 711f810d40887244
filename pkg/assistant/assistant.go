// Package assistant answers questions about the library and recommends books.
//
// Language models are reached through Model. Without a model, chat is unavailable
// and recommendations fall back to categories and popularity.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	kdb "github.com/opst/libris/pkg/db"
	xe "github.com/opst/libris/pkg/errors"
)

var ErrDisabled = errors.New("assistant is disabled")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a message in a conversation.
type Turn struct {
	Role string
	Text string
}

type Model interface {
	// Generate answers message following the system instruction and the history.
	Generate(ctx context.Context, system string, history []Turn, message string) (string, error)

	// Embed returns an embedding for each text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Method string

const (
	ByEmbedding  Method = "embedding"
	ByCategories Method = "categories"
)

type Recommendation struct {
	Book  kdb.Book
	Score float64
}

type Recommendations struct {
	Method Method
	Items  []Recommendation
}

type Answer struct {
	Text string

	// Books in the catalog told to the model.
	Books []kdb.Book
}

const (
	historySize    = 20
	excerptSize    = 10
	keywordLimit   = 5
	chatTurnsLimit = 10
)

type Assistant struct {
	model   Model
	catalog kdb.CatalogInterface
	loans   kdb.LoanInterface
	stats   kdb.StatsInterface
	library string
}

type Option func(*Assistant) *Assistant

// WithLibraryName sets the name the assistant works for.
func WithLibraryName(name string) Option {
	return func(a *Assistant) *Assistant {
		if name != "" {
			a.library = name
		}
		return a
	}
}

// New returns an Assistant. model can be nil to disable the model.
func New(model Model, db kdb.LibraryDatabase, options ...Option) *Assistant {
	a := &Assistant{
		model:   model,
		catalog: db.Catalog(),
		loans:   db.Loans(),
		stats:   db.Stats(),
		library: "the university library",
	}
	for _, opt := range options {
		a = opt(a)
	}
	return a
}

func (a *Assistant) Enabled() bool {
	return a.model != nil
}

// Chat answers a message of a member, telling the model about books related to it.
//
// # Args
//
// - name: name of who asks. It can be empty.
//
// - message: the question
//
// - history: conversation so far, oldest first. Only the last turns are sent.
//
// # Returns
//
// - error: ErrDisabled when no model is configured.
func (a *Assistant) Chat(ctx context.Context, name string, message string, history []Turn) (Answer, error) {
	if a.model == nil {
		return Answer{}, ErrDisabled
	}

	books, err := a.excerpt(ctx, message)
	if err != nil {
		return Answer{}, err
	}

	if len(history) > chatTurnsLimit {
		history = history[len(history)-chatTurnsLimit:]
	}
	text, err := a.model.Generate(ctx, a.instruction(name, books), history, message)
	if err != nil {
		return Answer{}, xe.Wrap(err)
	}
	return Answer{Text: strings.TrimSpace(text), Books: books}, nil
}

func (a *Assistant) instruction(name string, books []kdb.Book) string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "You are the librarian assistant of %s. ", a.library)
	sb.WriteString("Answer briefly. Recommend only books listed below, and say so when nothing fits.\n")
	if name != "" {
		fmt.Fprintf(sb, "You are talking with %s.\n", name)
	}
	if len(books) == 0 {
		sb.WriteString("\nNo books in the catalog matched the question.\n")
		return sb.String()
	}
	sb.WriteString("\nBooks in the catalog:\n")
	for _, b := range books {
		fmt.Fprintf(sb, "- %s (%d of %d copies available)\n", Describe(b), b.AvailableCopies, b.TotalCopies)
	}
	return sb.String()
}

// excerpt finds books matching keywords of message.
func (a *Assistant) excerpt(ctx context.Context, message string) ([]kdb.Book, error) {
	seen := map[string]struct{}{}
	books := []kdb.Book{}
	for _, w := range Keywords(message, keywordLimit) {
		found, err := a.catalog.FindBooks(ctx, kdb.BookQuery{Text: w, Page: kdb.Page{Limit: excerptSize}})
		if err != nil {
			return nil, xe.Wrap(err)
		}
		for _, b := range found {
			if _, ok := seen[b.ID]; ok {
				continue
			}
			seen[b.ID] = struct{}{}
			books = append(books, b)
			if len(books) == excerptSize {
				return books, nil
			}
		}
	}
	return books, nil
}

var stopwords = map[string]struct{}{
	"about": {}, "also": {}, "book": {}, "books": {}, "could": {}, "does": {}, "from": {},
	"have": {}, "into": {}, "like": {}, "recommend": {}, "some": {}, "something": {},
	"that": {}, "there": {}, "this": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"with": {}, "would": {}, "your": {}, "read": {}, "want": {}, "please": {}, "library": {},
}

// Keywords picks up to limit distinct words of 4 or more letters from text, in order.
func Keywords(text string, limit int) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]struct{}{}
	keywords := []string{}
	for _, w := range words {
		if len([]rune(w)) < 4 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
		if len(keywords) == limit {
			break
		}
	}
	return keywords
}

// Describe makes a one-line text of a book, for models.
func Describe(b kdb.Book) string {
	sb := new(strings.Builder)
	sb.WriteString(b.Title)
	if b.Subtitle != "" {
		sb.WriteString(": " + b.Subtitle)
	}
	if len(b.Authors) != 0 {
		names := make([]string, len(b.Authors))
		for i, au := range b.Authors {
			names[i] = au.Name
		}
		sb.WriteString(" by " + strings.Join(names, ", "))
	}
	if b.PublishedYear != 0 {
		fmt.Fprintf(sb, " (%d)", b.PublishedYear)
	}
	if len(b.Categories) != 0 {
		names := make([]string, len(b.Categories))
		for i, c := range b.Categories {
			names[i] = c.Name
		}
		sb.WriteString(" [" + strings.Join(names, ", ") + "]")
	}
	if b.Synopsis != "" {
		sb.WriteString(". " + b.Synopsis)
	}
	return sb.String()
}

// Recommend picks available books the member has never borrowed.
//
// The profile of the member is made of the books in the last historySize loans.
// With a model and some borrowing history, candidates are ranked by similarity to the
// profile. Otherwise, or when the model fails, by categories shared with the profile,
// then by popularity.
func (a *Assistant) Recommend(ctx context.Context, memberID string, limit int) (Recommendations, error) {
	limit = kdb.Page{Limit: limit}.Normalize().Limit

	// newest first
	loans, err := every(func(p kdb.Page) ([]kdb.Loan, error) {
		return a.loans.Find(ctx, kdb.LoanQuery{MemberID: memberID, Page: p})
	})
	if err != nil {
		return Recommendations{}, xe.Wrap(err)
	}
	borrowed := map[string]struct{}{}
	ids := []string{}
	for i, l := range loans {
		if _, ok := borrowed[l.BookID]; ok {
			continue
		}
		borrowed[l.BookID] = struct{}{}
		if i < historySize {
			ids = append(ids, l.BookID)
		}
	}
	history := []kdb.Book{}
	if len(ids) != 0 {
		read, err := a.catalog.GetBooks(ctx, ids)
		if err != nil {
			return Recommendations{}, xe.Wrap(err)
		}
		for _, id := range ids {
			if b, ok := read[id]; ok {
				history = append(history, b)
			}
		}
	}

	found, err := every(func(p kdb.Page) ([]kdb.Book, error) {
		return a.catalog.FindBooks(ctx, kdb.BookQuery{AvailableOnly: true, Page: p})
	})
	if err != nil {
		return Recommendations{}, xe.Wrap(err)
	}
	candidates := []kdb.Book{}
	for _, b := range found {
		if _, ok := borrowed[b.ID]; !ok {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return Recommendations{Method: ByCategories, Items: []Recommendation{}}, nil
	}

	if a.model != nil && len(history) != 0 {
		if items, err := a.byEmbedding(ctx, history, candidates, limit); err == nil {
			return Recommendations{Method: ByEmbedding, Items: items}, nil
		}
	}

	items, err := a.byCategories(ctx, history, candidates, limit)
	if err != nil {
		return Recommendations{}, err
	}
	return Recommendations{Method: ByCategories, Items: items}, nil
}

// every reads pages of find until a short page.
func every[T any](find func(kdb.Page) ([]T, error)) ([]T, error) {
	all := []T{}
	page := kdb.Page{Limit: kdb.MaxLimit}
	for {
		items, err := find(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < page.Limit {
			return all, nil
		}
		page.Offset += len(items)
	}
}

func (a *Assistant) byEmbedding(ctx context.Context, history, candidates []kdb.Book, limit int) ([]Recommendation, error) {
	texts := make([]string, 0, len(history)+len(candidates))
	for _, b := range history {
		texts = append(texts, Describe(b))
	}
	for _, b := range candidates {
		texts = append(texts, Describe(b))
	}

	vectors, err := a.model.Embed(ctx, texts)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embeddings: %d for %d texts", len(vectors), len(texts))
	}

	profile := Mean(vectors[:len(history)])
	items := []Recommendation{}
	for _, s := range Rank(profile, vectors[len(history):]) {
		items = append(items, Recommendation{Book: candidates[s.Index], Score: s.Score})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (a *Assistant) byCategories(ctx context.Context, history, candidates []kdb.Book, limit int) ([]Recommendation, error) {
	weights := map[string]int{}
	for _, b := range history {
		for _, c := range b.Categories {
			weights[c.ID] += 1
		}
	}

	counts, err := a.stats.Popular(ctx, kdb.MaxLimit)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	popularity := map[string]int{}
	for _, c := range counts {
		popularity[c.BookID] = c.Loans
	}

	items := make([]Recommendation, len(candidates))
	for i, b := range candidates {
		score := 0
		for _, c := range b.Categories {
			score += weights[c.ID]
		}
		items[i] = Recommendation{Book: b, Score: float64(score)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		pi, pj := popularity[items[i].Book.ID], popularity[items[j].Book.ID]
		if pi != pj {
			return pi > pj
		}
		return items[i].Book.Title < items[j].Book.Title
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
