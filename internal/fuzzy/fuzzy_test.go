package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = []Field{
	{Name: "title", Weight: 1.0},
	{Name: "category", Weight: 0.8},
	{Name: "address", Weight: 0.5},
	{Name: "description", Weight: 0.3},
}

func testIndex() *Index {
	return New(testFields, [][]string{
		{"Millennium Park", "Park", "Maitama, Abuja", "Large urban park"},
		{"Jabi Lake Mall", "Shopping", "Jabi, Abuja", "Lakeside mall"},
		{"Central Park", "Park", "Wuse, Abuja", "Family friendly gardens"},
		{"National Zoo", "Zoo", "N/A", "Animals and a petting area near the park"},
	})
}

func TestSearch(t *testing.T) {
	ix := testIndex()

	tests := []struct {
		name      string
		query     string
		wantFirst int
		wantNone  bool
	}{
		{name: "misspelled title", query: "Millenium Park", wantFirst: 0},
		{name: "case insensitive", query: "JABI LAKE", wantFirst: 1},
		{name: "prefix", query: "centr", wantFirst: 2},
		{name: "category", query: "zoo", wantFirst: 3},
		{name: "unrelated token", query: "qwxv", wantNone: true},
		{name: "blank query", query: "   ", wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.Search(tt.query, 10)
			if tt.wantNone {
				assert.Empty(t, got)
				return
			}
			require.NotEmpty(t, got)
			assert.Equal(t, tt.wantFirst, got[0].Index)
		})
	}
}

func TestSearchOrderAndLimit(t *testing.T) {
	ix := testIndex()

	got := ix.Search("park", 10)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	// Title matches outrank description matches; ties keep document order.
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, 3, got[len(got)-1].Index)

	assert.Len(t, ix.Search("park", 2), 2)
	assert.Nil(t, ix.Search("park", 0))
}

func TestEmptyIndex(t *testing.T) {
	var nilIndex *Index
	assert.Nil(t, nilIndex.Search("park", 5))
	assert.Equal(t, 0, nilIndex.Len())

	ix := New(testFields, nil)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Search("park", 5))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("park", "park"))
	assert.InDelta(t, 0.9, Similarity("millenium", "millennium"), 1e-9)
	assert.Equal(t, prefixScore, Similarity("cen", "central"))
	assert.Less(t, Similarity("ce", "central"), TokenThreshold)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"maitama", "abuja"}, Tokenize("Maitama, Abuja"))
	assert.Equal(t, []string{"o", "brien"}, Tokenize("O'Brien"))
	assert.Empty(t, Tokenize(" - "))
}
