package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Match is one ranked name
type Match struct {
	Index          int   // Index in the source slice
	Score          int   // Lower is better
	MatchedIndexes []int // Rune positions that matched, for highlighting
}

// Rank matches query against names word by word. Every query word must
// match some word of the name, in any order, allowing typos on longer
// words. Results are sorted best first.
func Rank(query string, names []string) []Match {
	words := tokenize(strings.TrimSpace(query))
	if len(words) == 0 {
		return nil
	}

	var matches []Match
	for i, name := range names {
		if m, ok := matchName(name, words); ok {
			m.Index = i
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score < matches[b].Score
		}
		return len(names[matches[a].Index]) < len(names[matches[b].Index])
	})
	return matches
}

// word is a run of letters and digits with its rune span in the source
type word struct {
	text       string
	start, end int
}

// tokenize splits on anything that is not a letter or digit, so
// "shot_v002.0001-0100.exr" gives shot, v002, 0001, 0100, exr
func tokenize(text string) []word {
	var words []word
	runes := []rune(strings.ToLower(text))
	start := -1
	for i, r := range runes {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			words = append(words, word{string(runes[start:i]), start, i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, word{string(runes[start:]), start, len(runes)})
	}
	return words
}

func matchName(name string, query []word) (Match, bool) {
	lower := strings.ToLower(name)
	words := tokenize(name)
	used := make([]bool, len(words))

	var m Match
	for _, q := range query {
		best, at := -1, -1
		var hit []int
		for i, w := range words {
			if used[i] {
				continue
			}
			if score, idx := matchWord(q.text, w); score >= 0 && (best < 0 || score < best) {
				best, at, hit = score, i, idx
			}
		}
		if best < 0 {
			// fall back to a substring anywhere, separators included
			pos := strings.Index(lower, q.text)
			if pos < 0 {
				return Match{}, false
			}
			r := len([]rune(lower[:pos]))
			best, hit = 150+r, span(r, r+len([]rune(q.text)))
		}
		if at >= 0 {
			used[at] = true
		}
		m.Score += best
		m.MatchedIndexes = append(m.MatchedIndexes, hit...)
	}

	// prefer names without extra words
	if extra := len(words) - len(query); extra > 0 {
		m.Score += extra * 5
	}
	m.MatchedIndexes = dedupe(m.MatchedIndexes)
	return m, true
}

// matchWord scores q against w; a negative score is no match
func matchWord(q string, w word) (int, []int) {
	n := len([]rune(q))
	switch {
	case q == w.text:
		return 0, span(w.start, w.end)
	case strings.HasPrefix(w.text, q):
		return 10, span(w.start, w.start+n)
	case strings.HasPrefix(q, w.text):
		return 20, span(w.start, w.end)
	}
	if idx := strings.Index(w.text, q); idx >= 0 {
		r := len([]rune(w.text[:idx]))
		return 50 + r, span(w.start+r, w.start+r+n)
	}
	if typos := allowedTypos(n); typos > 0 {
		if d := fuzzy.LevenshteinDistance(q, w.text); d <= typos {
			return 100 + d*20, span(w.start, w.end)
		}
	}
	return -1, nil
}

// allowedTypos is 0 up to 3 runes, 1 up to 6 and 2 beyond
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}

func span(start, end int) []int {
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}

func dedupe(indexes []int) []int {
	if len(indexes) == 0 {
		return indexes
	}
	sort.Ints(indexes)
	out := indexes[:1]
	for _, i := range indexes[1:] {
		if i != out[len(out)-1] {
			out = append(out, i)
		}
	}
	return out
}
