package catalog

import (
	"testing"

	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByPriceDescendingKeepsTiesStable(t *testing.T) {
	items := []Item{
		printItem(1, "a", "", "10", 1),
		printItem(2, "b", "", "5", 1),
		printItem(3, "c", "", "20", 1),
		printItem(4, "d", "", "10", 1),
	}

	got := Query{Sort: Sort{Field: "price", Order: SortDesc}}.Apply(items)
	assert.Equal(t, []int64{3, 1, 4, 2}, ids(got))

	got = Query{Sort: Sort{Field: "price", Order: SortAsc}}.Apply(items)
	assert.Equal(t, []int64{2, 1, 4, 3}, ids(got))

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(items), "input must not be reordered")
}

func TestSortStringsIgnoreCase(t *testing.T) {
	items := []Item{
		card(1, "b-side", "TWICE", "1", 1),
		card(2, "Alpha", "aespa", "1", 1),
		card(3, "alpha", "BTS", "1", 1),
	}
	got := Query{Sort: Sort{Field: "name"}}.Apply(items)
	assert.Equal(t, []int64{2, 3, 1}, ids(got))

	got = Query{Sort: Sort{Field: "group", Order: SortDesc}}.Apply(items)
	assert.Equal(t, []int64{1, 3, 2}, ids(got))
}

func TestSortAgeNumerically(t *testing.T) {
	a, b, c := card(1, "a", "g", "1", 1), card(2, "b", "g", "1", 1), card(3, "c", "g", "1", 1)
	a.Age, b.Age, c.Age = "2023", "999", "unknown"
	got := Query{Sort: Sort{Field: "age"}}.Apply([]Item{a, b, c})
	assert.Equal(t, []int64{2, 1, 3}, ids(got))
}

func TestFilterCards(t *testing.T) {
	bts := card(1, "Jungkook", "BTS", "12.99", 1)
	bts.Age = "2022"
	nj := card(2, "Hanni", "NewJeans", "18.99", 1)
	nj.Rarity = "Preorder Benefit"
	nj.Age = "2023"
	soldOut := card(3, "Sold", "BTS", "9", 0)
	items := []Item{bts, nj, soldOut}

	got := Query{Filter: Filter{Group: "bt"}}.Apply(items)
	assert.Equal(t, []int64{1, 3}, ids(got), "group matches by case-insensitive substring")

	got = Query{Filter: Filter{Rarity: "preorder benefit"}}.Apply(items)
	assert.Equal(t, []int64{2}, ids(got))

	got = Query{Filter: Filter{Age: "2023"}}.Apply(items)
	assert.Equal(t, []int64{2}, ids(got))

	got = Query{Filter: Filter{Group: "BTS", InStockOnly: true}}.Apply(items)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestFilterPrints(t *testing.T) {
	items := []Item{
		printItem(1, "BTS Group Photo Print", "Proof era", "15.99", 10),
		printItem(2, "NewJeans Concept Print", "Get Up concept", "18.99", 8),
		printItem(3, "TWICE Group Shot", "READY TO BE", "14.99", 15),
	}

	got := Query{Filter: Filter{Search: "group"}}.Apply(items)
	assert.Equal(t, []int64{1, 3}, ids(got))

	got = Query{Filter: Filter{Search: "CONCEPT"}}.Apply(items)
	assert.Equal(t, []int64{2}, ids(got), "search covers description")

	got = Query{Filter: Filter{MinPrice: decPtr("15"), MaxPrice: decPtr("18.99")}}.Apply(items)
	assert.Equal(t, []int64{1, 2}, ids(got), "price bounds are inclusive")
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("createdAt", "DESC")
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: "createdat", Order: SortDesc}, s)

	s, err = ParseSort("", "desc")
	require.NoError(t, err)
	assert.Equal(t, Sort{}, s)

	_, err = ParseSort("color", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = ParseSort("price", "sideways")
	require.Error(t, err)
}
