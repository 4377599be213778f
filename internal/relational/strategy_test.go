package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
	"github.com/hyperjump/tansaku/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []models.Product{
	{Title: "iPhone 15 Pro", Description: "Apple smartphone with A17 chip", Brand: "Apple", Category: "phones"},
	{Title: "iPhone 15", Description: "Apple smartphone with A16 chip", Brand: "Apple", Category: "phones"},
	{Title: "iPhone 14", Description: "Apple smartphone previous generation", Brand: "Apple", Category: "phones"},
	{Title: "Samsung Galaxy S24 Ultra", Description: "Android flagship phone", Brand: "Samsung", Category: "phones"},
	{Title: "Samsung Galaxy S23", Description: "Previous Samsung flagship", Brand: "Samsung", Category: "phones"},
	{Title: "MacBook Pro 16", Description: "Apple laptop with M2 Pro", Brand: "Apple", Category: "laptops"},
	{Title: "MacBook Air M2", Description: "Apple light laptop", Brand: "Apple", Category: "laptops"},
}

func newSQLiteStrategy(t *testing.T, products []models.Product) *Strategy {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "products.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := storage.NewProductStore(db, storage.KindSQLite)
	ctx := context.Background()
	require.NoError(t, store.InitSchema(ctx))
	require.NoError(t, store.ReplaceAll(ctx, products))
	return New(db, SQLite{})
}

func titles(matches []models.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Title
	}
	return out
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestStrategy_Search_IPhoneScenario(t *testing.T) {
	s := newSQLiteStrategy(t, catalog)

	res, err := s.Search(context.Background(), "iphone 15")
	require.NoError(t, err)

	assert.Equal(t, "iphone 15", res.Query)
	assert.Equal(t, "iPhone 15", res.Corrected)
	assert.Equal(t, []string{"iPhone 15", "iPhone 15 Pro"}, res.Suggestions)

	got := titles(res.Results)
	assert.Contains(t, got, "iPhone 15")
	assert.Contains(t, got, "iPhone 15 Pro")
	if i := indexOf(got, "iPhone 14"); i >= 0 {
		assert.Greater(t, i, indexOf(got, "iPhone 15"))
		assert.Greater(t, i, indexOf(got, "iPhone 15 Pro"))
	}
	for _, m := range res.Results {
		assert.NotEmpty(t, m.ID)
		assert.Greater(t, m.Score, 0.0)
	}
}

func TestStrategy_Search_EchoesRawQuery(t *testing.T) {
	s := newSQLiteStrategy(t, catalog)

	res, err := s.Search(context.Background(), "  MacBook   AIR ")
	require.NoError(t, err)
	assert.Equal(t, "  MacBook   AIR ", res.Query)
	assert.Equal(t, "MacBook Air M2", res.Corrected)
}

func TestStrategy_Search_CorrectsTypo(t *testing.T) {
	s := newSQLiteStrategy(t, catalog)

	res, err := s.Search(context.Background(), "macbok air")
	require.NoError(t, err)
	assert.Equal(t, "MacBook Air M2", res.Corrected)
	assert.Equal(t, []string{"MacBook Air M2"}, res.Suggestions)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, "MacBook Air M2", res.Results[0].Title)
	assert.Equal(t, "Apple light laptop", res.Results[0].Description)
}

func TestStrategy_Search_EmptyStore(t *testing.T) {
	s := newSQLiteStrategy(t, nil)

	res, err := s.Search(context.Background(), " Galaxy  S24 ")
	require.NoError(t, err)
	assert.Equal(t, query.Normalize(" Galaxy  S24 "), res.Corrected)
	assert.Empty(t, res.Suggestions)
	assert.NotNil(t, res.Suggestions)
	assert.Empty(t, res.Results)
	assert.NotNil(t, res.Results)
}

func TestStrategy_Search_UnrelatedQueryStillCorrected(t *testing.T) {
	s := newSQLiteStrategy(t, catalog)

	res, err := s.Search(context.Background(), "zzz")
	require.NoError(t, err)
	stored := make([]string, len(catalog))
	for i, p := range catalog {
		stored[i] = p.Title
	}
	assert.Contains(t, stored, res.Corrected)
}

func TestStrategy_Search_MinSimilarityKeepsQuery(t *testing.T) {
	base := newSQLiteStrategy(t, catalog)
	s := New(base.db, SQLite{}, WithMinSimilarity(0.1))

	res, err := s.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Equal(t, "zzz", res.Corrected)
	assert.Empty(t, res.Suggestions)
	assert.Empty(t, res.Results)
}

func TestStrategy_Search_EmptyQuery(t *testing.T) {
	s := newSQLiteStrategy(t, catalog)

	_, err := s.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, query.ErrEmpty)
}

func TestStrategy_AutoComplete_PrefixOrderAndLimit(t *testing.T) {
	products := make([]models.Product, 0, 15)
	for i := 14; i >= 0; i-- {
		products = append(products, models.Product{Title: fmt.Sprintf("Widget %02d", i)})
	}
	products = append(products, models.Product{Title: "Gizmo 01"})
	s := newSQLiteStrategy(t, products)

	got, err := s.AutoComplete(context.Background(), "widget")
	require.NoError(t, err)
	require.Len(t, got, SuggestionLimit)
	assert.True(t, sort.StringsAreSorted(got), "not alphabetical: %v", got)
	for _, title := range got {
		assert.True(t, strings.HasPrefix(strings.ToLower(title), "widget"), title)
	}
	assert.Equal(t, "Widget 00", got[0])
}

func TestStrategy_AutoComplete_WildcardsAreLiteral(t *testing.T) {
	s := newSQLiteStrategy(t, []models.Product{{Title: "100% Cotton Tee"}, {Title: "1000 Piece Puzzle"}})

	got, err := s.AutoComplete(context.Background(), "100%")
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Cotton Tee"}, got)
}

func TestStrategy_AutoComplete_Distinct(t *testing.T) {
	s := newSQLiteStrategy(t, []models.Product{{Title: "iPhone 15"}, {Title: "iPhone 15"}})

	got, err := s.AutoComplete(context.Background(), "iphone")
	require.NoError(t, err)
	assert.Equal(t, []string{"iPhone 15"}, got)
}

func TestStrategy_FullTextSearch_OrderAndLimit(t *testing.T) {
	products := make([]models.Product, 0, 25)
	for i := 0; i < 25; i++ {
		p := models.Product{Title: fmt.Sprintf("Gadget %d", i)}
		if i%3 == 0 {
			p.Description = "gadget gadget"
		}
		products = append(products, p)
	}
	s := newSQLiteStrategy(t, products)

	got, err := s.FullTextSearch(context.Background(), "gadget")
	require.NoError(t, err)
	require.Len(t, got, ResultLimit)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestStrategy_FullTextSearch_DescriptionWeighsLess(t *testing.T) {
	s := newSQLiteStrategy(t, catalog)

	got, err := s.FullTextSearch(context.Background(), "laptop")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.InDelta(t, 0.4, m.Score, 1e-9)
	}
}

func TestStrategy_FullTextSearch_MatchesInflections(t *testing.T) {
	s := newSQLiteStrategy(t, catalog)
	ctx := context.Background()

	for q, want := range map[string]int{"laptops": 2, "smartphones": 3, "phones": 1} {
		got, err := s.FullTextSearch(ctx, q)
		require.NoError(t, err)
		assert.Len(t, got, want, "%s: %v", q, titles(got))
	}
}

func TestStrategy_AutoComplete_FoldsNonASCII(t *testing.T) {
	s := newSQLiteStrategy(t, []models.Product{{Title: "Ökonom Pro"}, {Title: "Élan Chair"}, {Title: "Oak Table"}})
	ctx := context.Background()

	got, err := s.AutoComplete(ctx, "öko")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ökonom Pro"}, got)

	got, err = s.AutoComplete(ctx, "ÉLAN")
	require.NoError(t, err)
	assert.Equal(t, []string{"Élan Chair"}, got)
}

var errBackend = errors.New("connection refused")

// failingQuerier fails every statement containing fail.
type failingQuerier struct {
	db   Querier
	fail string
}

func (f failingQuerier) QueryContext(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	if strings.Contains(stmt, f.fail) {
		return nil, errBackend
	}
	return f.db.QueryContext(ctx, stmt, args...)
}

func TestStrategy_Search_PropagatesBackendFailure(t *testing.T) {
	base := newSQLiteStrategy(t, catalog)

	tests := []struct {
		name string
		fail string
	}{
		{"autocorrect", "similarity"},
		{"autocomplete", "LIKE"},
		{"full text", "fts_rank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(failingQuerier{db: base.db, fail: tt.fail}, SQLite{})
			res, err := s.Search(context.Background(), "iphone 15")
			assert.Nil(t, res)
			assert.ErrorIs(t, err, errBackend)
		})
	}
}

func TestStrategy_WithMinSimilarity(t *testing.T) {
	base := newSQLiteStrategy(t, catalog)
	s := New(base.db, SQLite{}, WithMinSimilarity(0.99))

	corrected, err := s.AutoCorrect(context.Background(), "iphone 15 pro max")
	require.NoError(t, err)
	assert.Equal(t, "iphone 15 pro max", corrected)
}
