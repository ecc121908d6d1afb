package canon

import (
	"cmp"
	"slices"
	"strings"
)

// orderStrings sorts canonical element strings byte-lexicographically.
// Ties only occur between identical canonical forms.
func orderStrings(elems []string) []string {
	slices.Sort(elems)
	return elems
}

type pair struct {
	key, value string
}

// orderPairs sorts map entries by canonical key, breaking ties by canonical
// value.
func orderPairs(pairs []pair) []pair {
	slices.SortStableFunc(pairs, func(a, b pair) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.value, b.value)
	})
	return pairs
}

func writeJoined(b *strings.Builder, elems []string) {
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(e)
	}
}

func writePairs(b *strings.Builder, pairs []pair) {
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		b.WriteString(p.key)
		b.WriteByte(',')
		b.WriteString(p.value)
		b.WriteByte(']')
	}
}
