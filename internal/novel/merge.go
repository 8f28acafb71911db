package novel

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var numToken = regexp.MustCompile(`\d+\.?\d*`)

// SameChapter reports whether two records describe the same chapter:
// matching ids when both carry one, else matching (number, title).
func SameChapter(a, b Chapter) bool {
	if a.ID != nil && b.ID != nil && *a.ID == *b.ID {
		return true
	}

	return a.Number == b.Number && a.Title == b.Title
}

func ContainsChapter(set []Chapter, c Chapter) bool {
	for _, e := range set {
		if SameChapter(e, c) {
			return true
		}
	}

	return false
}

// Merge appends incoming chapters to existing, skipping any whose id or
// number is already present. Identity sets come from existing alone, so
// existing records always win and re-merging the same input is a no-op.
func Merge(existing, incoming []Chapter) []Chapter {
	ids := make(map[string]bool, len(existing))
	numbers := make(map[string]bool, len(existing))

	for _, c := range existing {
		if c.ID != nil && *c.ID != "" {
			ids[*c.ID] = true
		}
		if c.Number != "" {
			numbers[c.Number] = true
		}
	}

	merged := append([]Chapter{}, existing...)

	for _, c := range incoming {
		if c.ID != nil && ids[*c.ID] {
			continue
		}
		if c.Number != "" && numbers[c.Number] {
			continue
		}

		merged = append(merged, c)
	}

	return merged
}

// MergeStrict is Merge with a narrower fallback: when ids are absent, a
// duplicate needs both number and title to match.
func MergeStrict(existing, incoming []Chapter) []Chapter {
	ids := make(map[string]bool, len(existing))
	pairs := make(map[[2]string]bool, len(existing))

	for _, c := range existing {
		if c.ID != nil && *c.ID != "" {
			ids[*c.ID] = true
		}
		if c.Number != "" {
			pairs[[2]string{c.Number, c.Title}] = true
		}
	}

	merged := append([]Chapter{}, existing...)

	for _, c := range incoming {
		if c.ID != nil && ids[*c.ID] {
			continue
		}
		if c.Number != "" && pairs[[2]string{c.Number, c.Title}] {
			continue
		}

		merged = append(merged, c)
	}

	return merged
}

// SortChapters orders chapters by their numeric position, keeping the
// incoming order for ties and pushing unparseable numbers to the end.
func SortChapters(chapters []Chapter) []Chapter {
	out := append([]Chapter{}, chapters...)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i].Number) < sortKey(out[j].Number)
	})

	return out
}

func sortKey(number string) float64 {
	s := strings.TrimSpace(number)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if tok := numToken.FindString(s); tok != "" {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return f
		}
	}

	return math.Inf(1)
}
