package utils

import (
	"math"
	"sort"
	"time"
)

// SortOrder 列表排序方式
type SortOrder string

const (
	SortTrending  SortOrder = "trending"
	SortNewest    SortOrder = "newest"
	SortMostVoted SortOrder = "most_voted"
)

// ParseSortOrder accepts the public names and their short aliases.
// An empty value means trending.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch s {
	case "", "trending", "hot":
		return SortTrending, true
	case "newest", "new":
		return SortNewest, true
	case "most_voted", "top":
		return SortMostVoted, true
	}
	return "", false
}

// TrendingMode 热度算法
type TrendingMode string

const (
	// ModeSimple: score desc, views desc, created_at desc.
	ModeSimple TrendingMode = "simple"
	// ModeDecayed: featured first, then score / max(1, hours since creation) desc.
	ModeDecayed TrendingMode = "decayed"
)

func ParseTrendingMode(s string) (TrendingMode, bool) {
	switch TrendingMode(s) {
	case ModeSimple, ModeDecayed:
		return TrendingMode(s), true
	}
	return "", false
}

// RankItem is the subset of an article the ranking engine looks at.
type RankItem struct {
	ID         uint
	Upvotes    int
	Downvotes  int
	Views      int
	IsFeatured bool
	CreatedAt  time.Time
}

func (r RankItem) Score() int {
	return r.Upvotes - r.Downvotes
}

// DecayedScore = (upvotes - downvotes) / max(1, hours since creation).
func DecayedScore(r RankItem, now time.Time) float64 {
	hours := math.Max(1, now.Sub(r.CreatedAt).Hours())
	return float64(r.Score()) / hours
}

// Less reports whether a ranks before b. Ties that the order leaves open
// fall back to the higher id first so pagination stays stable.
func Less(order SortOrder, mode TrendingMode, a, b RankItem, now time.Time) bool {
	switch order {
	case SortNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	case SortMostVoted:
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
	default:
		if mode == ModeDecayed {
			if a.IsFeatured != b.IsFeatured {
				return a.IsFeatured
			}
			sa, sb := DecayedScore(a, now), DecayedScore(b, now)
			if sa != sb {
				return sa > sb
			}
		} else {
			if a.Score() != b.Score() {
				return a.Score() > b.Score()
			}
			if a.Views != b.Views {
				return a.Views > b.Views
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
	}
	return a.ID > b.ID
}

// Rank sorts items in place.
func Rank(items []RankItem, order SortOrder, mode TrendingMode, now time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(order, mode, items[i], items[j], now)
	})
}
