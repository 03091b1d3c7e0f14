package generics

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	m := map[int]string{1: "1", 5: "5", 3: "3"}
	// Since the builtin map iterator in Go is deliberately non-deterministic, we
	// run it a bunch of times to show it is stably sorted.
	want := []int{1, 3, 5}
	for range 100 {
		got := slices.Collect(SortedKeys(m))
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestKeysSlice(t *testing.T) {
	keys := KeysSlice(map[string]int{"a": 1, "b": 2})
	slices.Sort(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Empty(t, KeysSlice(map[string]int{}))
}

func TestSliceOrdering(t *testing.T) {
	s := []float32{7, -3, 2}
	assert.Equal(t, []int{1, 2, 0}, SliceOrdering(s, false))
	s2 := []int64{0, 1, 2}
	assert.Equal(t, []int{2, 1, 0}, SliceOrdering(s2, true))

	// Ties keep index order, in both directions.
	s3 := []float32{1, 5, 1, 5}
	assert.Equal(t, []int{1, 3, 0, 2}, SliceOrdering(s3, true))
	assert.Equal(t, []int{0, 2, 1, 3}, SliceOrdering(s3, false))
	assert.Empty(t, SliceOrdering([]int{}, true))
}
