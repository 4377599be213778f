package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigrams(t *testing.T) {
	got := Trigrams("Cat")
	want := map[string]struct{}{"  c": {}, " ca": {}, "cat": {}, "at ": {}}
	assert.Equal(t, want, got)
	assert.Empty(t, Trigrams("  --  "))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("iphone 15", "iPhone 15"), 1e-9)
	assert.Equal(t, 0.0, Similarity("", "iPhone"))
	assert.Equal(t, 0.0, Similarity("zzz", "iPhone"))

	exact := Similarity("iphone 15", "iPhone 15")
	longer := Similarity("iphone 15", "iPhone 15 Pro")
	other := Similarity("iphone 15", "iPhone 14")
	assert.Greater(t, exact, longer)
	assert.Greater(t, longer, 0.0)
	assert.Greater(t, exact, other)
	assert.InDelta(t, Similarity("galaxy", "Samsung Galaxy S23"), Similarity("Samsung Galaxy S23", "galaxy"), 1e-9)
}

func TestSimilarity_Typo(t *testing.T) {
	typo := Similarity("macbok air", "MacBook Air M2")
	unrelated := Similarity("macbok air", "Samsung Galaxy S24 Ultra")
	assert.Greater(t, typo, unrelated)
}

func TestTerms_DropsStopWordsAndPunctuation(t *testing.T) {
	got := Terms("Apple smartphone, with an A17 chip!")
	assert.Len(t, got, 4)
	assert.Contains(t, got, "a17")
	assert.Empty(t, Terms("the and of"))
}

func TestTerms_Stems(t *testing.T) {
	assert.Equal(t, Terms("laptop"), Terms("Laptops"))
	assert.Equal(t, Terms("apple smartphone chip"), Terms("Apple smartphones, chips"))
	assert.Equal(t, Terms("phone"), Terms("phones"))
}

func TestMatchDocument(t *testing.T) {
	assert.Equal(t, int64(1), MatchDocument("iPhone 15 Pro", "Apple smartphone with A17 chip", "iphone 15"))
	assert.Equal(t, int64(1), MatchDocument("iPhone 15", "Apple smartphone", "iphone smartphone"))
	assert.Equal(t, int64(0), MatchDocument("iPhone 14", "Apple smartphone previous generation", "iphone 15"))
	assert.Equal(t, int64(0), MatchDocument("iPhone 14", "", "the"))
	assert.Equal(t, int64(1), MatchDocument("MacBook Air M2", "Apple light laptop", "laptops"))
}

func TestRankDocument_TitleOutweighsDescription(t *testing.T) {
	inTitle := RankDocument("Apple Watch", "", "apple")
	inDescription := RankDocument("MacBook Air M2", "Apple light laptop", "apple")
	assert.InDelta(t, 1.0, inTitle, 1e-9)
	assert.InDelta(t, 0.4, inDescription, 1e-9)
	assert.Equal(t, 0.0, RankDocument("iPhone 14", "", "samsung"))
}
