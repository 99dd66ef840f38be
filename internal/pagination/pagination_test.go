package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPageClamps(t *testing.T) {
	p := New(23, PerPage)
	assert.Equal(t, 3, p.NumPages())

	cases := map[string]int{
		"":     1,
		"abc":  1,
		"0":    1,
		"-4":   1,
		"1":    1,
		"2":    2,
		"3":    3,
		"4":    3,
		"9999": 3,

		"99999999999999999999":  3,
		"-99999999999999999999": 1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, p.GetPage(raw).Number, "page=%q", raw)
	}
}

func TestPageBounds(t *testing.T) {
	last := New(23, PerPage).GetPage("3")
	assert.Equal(t, 20, last.Offset())
	assert.Equal(t, 10, last.Limit())
	assert.Equal(t, int64(21), last.StartIndex())
	assert.Equal(t, int64(23), last.EndIndex())
	assert.True(t, last.HasPrevious())
	assert.False(t, last.HasNext())
	assert.Equal(t, []int{1, 2, 3}, last.Range())
}

func TestEmptyCollectionHasOnePage(t *testing.T) {
	p := New(0, PerPage)
	assert.Equal(t, 1, p.NumPages())

	page := p.GetPage("5")
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 0, page.Offset())
	assert.Equal(t, int64(0), page.StartIndex())
	assert.Equal(t, int64(0), page.EndIndex())
	assert.False(t, page.HasOtherPages())
}

func TestNewDefaultsPerPage(t *testing.T) {
	assert.Equal(t, PerPage, New(5, 0).PerPage)
	assert.Equal(t, int64(0), New(-1, 3).Count)
}
