package collection

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	got := Map([]string{"a", "b"}, strings.ToUpper)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestFilter(t *testing.T) {
	got := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{2, 4}, got)
}

func TestFirst(t *testing.T) {
	v, ok := First([]int{1, 2, 3}, func(n int) bool { return n > 1 })
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = First([]int{1}, func(n int) bool { return n > 9 })
	assert.False(t, ok)
}

func TestUniquePreservesFirstSeenOrder(t *testing.T) {
	got := Unique([]string{"b", "a", "b", "c", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestUniqueBy(t *testing.T) {
	type coupon struct{ Code string }
	got := UniqueBy([]coupon{{"A"}, {"B"}, {"A"}}, func(c coupon) string { return c.Code })
	assert.Equal(t, []coupon{{"A"}, {"B"}}, got)
}

func TestKeyByLastWins(t *testing.T) {
	type coupon struct {
		Code  string
		Group string
	}
	got := KeyBy([]coupon{{"A", "g1"}, {"A", "g2"}}, func(c coupon) string { return c.Code })
	assert.Equal(t, "g2", got["A"].Group)
}

func TestSample(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	_, ok := Sample(r, []string{})
	assert.False(t, ok)

	s := []string{"x", "y", "z"}
	for i := 0; i < 20; i++ {
		v, ok := Sample(r, s)
		assert.True(t, ok)
		assert.Contains(t, s, v)
	}
}

func TestSampleIsSeedDeterministic(t *testing.T) {
	s := []int{10, 20, 30, 40}
	a := rand.New(rand.NewSource(5))
	b := rand.New(rand.NewSource(5))
	for i := 0; i < 10; i++ {
		va, _ := Sample(a, s)
		vb, _ := Sample(b, s)
		assert.Equal(t, va, vb)
	}
}
