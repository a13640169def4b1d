// Package search resolves loosely typed clip names against a directory
// listing.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
)

var (
	ErrNoMatch   = errors.New("no matching clip")
	ErrAmbiguous = errors.New("ambiguous clip name")
)

// maxCandidates bounds the names listed in an ambiguity error
const maxCandidates = 5

// Resolve picks the clip the query names. An exact name or path wins.
// Otherwise the query is matched as a subsequence of the names, then word
// by word with typo tolerance; the best match must be unique.
func Resolve(query string, clips []fileseq.FileInfo) (fileseq.FileInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(clips) == 0 {
		return fileseq.FileInfo{}, fmt.Errorf("%w: %q", ErrNoMatch, query)
	}

	names := make([]string, len(clips))
	for i, c := range clips {
		if strings.EqualFold(c.Name(), query) || strings.EqualFold(c.Path(), query) {
			return c, nil
		}
		names[i] = c.Name()
	}

	if ranks := fuzzy.RankFindFold(query, names); len(ranks) > 0 {
		sort.Stable(ranks)
		if len(ranks) == 1 || ranks[0].Distance < ranks[1].Distance {
			return clips[ranks[0].OriginalIndex], nil
		}
		tied := make([]string, 0, len(ranks))
		for _, r := range ranks {
			if r.Distance != ranks[0].Distance {
				break
			}
			tied = append(tied, r.Target)
		}
		return fileseq.FileInfo{}, ambiguous(query, tied)
	}

	matches := Rank(query, names)
	switch {
	case len(matches) == 0:
		return fileseq.FileInfo{}, fmt.Errorf("%w: %q", ErrNoMatch, query)
	case len(matches) == 1 || matches[0].Score < matches[1].Score:
		return clips[matches[0].Index], nil
	}
	var tied []string
	for _, m := range matches {
		if m.Score != matches[0].Score {
			break
		}
		tied = append(tied, names[m.Index])
	}
	return fileseq.FileInfo{}, ambiguous(query, tied)
}

func ambiguous(query string, names []string) error {
	if len(names) > maxCandidates {
		names = append(names[:maxCandidates:maxCandidates], "...")
	}
	return fmt.Errorf("%w: %q could be %s", ErrAmbiguous, query, strings.Join(names, ", "))
}
