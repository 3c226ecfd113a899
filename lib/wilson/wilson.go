package wilson

import (
	"math"
	"slices"
)

// DefaultZ is the normal quantile for a 95% confidence interval.
const DefaultZ = 1.96

// Item is one thing to rank, Fraction is the share of positive ratings and
// Count the number of ratings it was computed from. Secondary only breaks
// ties that score and count leave.
type Item struct {
	ID        string
	Fraction  float64
	Count     float64
	Secondary float64
}

type Ranked struct {
	Item
	Score float64
}

// LowerBound returns the lower bound of the Wilson score interval for a
// positive fraction p observed over n samples. It is 0 whenever there is
// nothing to be confident about (n <= 0, or a non-finite p or n).
func LowerBound(p, n, z float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		z = DefaultZ
	}

	phat := math.Max(0, math.Min(1, p))
	z2 := z * z

	center := phat + z2/(2*n)
	margin := z * math.Sqrt(phat*(1-phat)/n+z2/(4*n*n))
	denominator := 1 + z2/n
	return (center - margin) / denominator
}

// Rank scores every item and returns them sorted by descending score, then
// descending count, then descending secondary score. Items tied on all three
// keep their input order. The input slice is not modified.
func Rank(items []Item, z float64) []Ranked {
	ranked := make([]Ranked, len(items))
	for i, item := range items {
		ranked[i] = Ranked{
			Item:  item,
			Score: LowerBound(item.Fraction, item.Count, z),
		}
	}

	slices.SortStableFunc(ranked, compare)
	return ranked
}

// Scored is a value ranked by RankFunc along with the item derived from it.
type Scored[T any] struct {
	Value T
	Ranked
}

// RankFunc orders values the same way Rank orders items, key derives the
// rating of each value. The input slice is not modified.
func RankFunc[T any](values []T, z float64, key func(T) Item) []Scored[T] {
	scored := make([]Scored[T], len(values))
	for i, v := range values {
		item := key(v)
		scored[i] = Scored[T]{
			Value: v,
			Ranked: Ranked{
				Item:  item,
				Score: LowerBound(item.Fraction, item.Count, z),
			},
		}
	}

	slices.SortStableFunc(scored, func(a, b Scored[T]) int {
		return compare(a.Ranked, b.Ranked)
	})
	return scored
}

func compare(a, b Ranked) int {
	if c := descending(a.Score, b.Score); c != 0 {
		return c
	}
	if c := descending(finiteOrZero(a.Count), finiteOrZero(b.Count)); c != 0 {
		return c
	}
	return descending(finiteOrZero(a.Secondary), finiteOrZero(b.Secondary))
}

func descending(a, b float64) int {
	if a > b {
		return -1
	}
	if a < b {
		return 1
	}
	return 0
}

// NaN would break the ordering, treat it like a missing value.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
