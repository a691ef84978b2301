// Package segment splits documents into bounded-size passage candidates
// and ranks them by heuristic scene potential. Two strategies exist, one
// per source format, behind the Segmenter interface. Scoring has no
// randomness: for fixed input and bounds the output is deterministic.
package segment

import (
	"sort"

	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/format"
)

// Passage is a bounded span of source text considered as a scene
// candidate. Ephemeral: produced and consumed within one document's
// processing, never persisted.
type Passage struct {
	DocID   string
	Section string
	Text    string
	Score   float64
	Format  format.Format
}

// Bounds limits passage size in characters.
type Bounds struct {
	MinChars int
	MaxChars int
}

func DefaultBounds() Bounds {
	return Bounds{MinChars: 600, MaxChars: 6000}
}

// Segmenter splits a document into scored passage candidates, ordered by
// score descending (ties keep original document order).
type Segmenter interface {
	Segment(doc corpus.Document, bounds Bounds) []Passage
}

// ForFormat returns the strategy for a detected format. Unknown falls
// back to the prose strategy.
func ForFormat(f format.Format) Segmenter {
	if f == format.Drama {
		return &DramaSegmenter{}
	}
	return &ProseSegmenter{}
}

// SelectBest segments a document with the strategy for verdict and
// returns the top n candidates after dropping duplicate section labels
// (near-identical spans). The result is sorted by non-increasing score
// and never includes a passage shorter than bounds.MinChars unless it
// was an unmergeable remainder.
func SelectBest(doc corpus.Document, verdict format.Verdict, n int, bounds Bounds) []Passage {
	if n <= 0 {
		return nil
	}

	passages := ForFormat(verdict.Format).Segment(doc, bounds)

	seen := make(map[string]bool, len(passages))
	var unique []Passage
	for _, p := range passages {
		if seen[p.Section] {
			continue
		}
		seen[p.Section] = true
		unique = append(unique, p)
	}

	if len(unique) > n {
		unique = unique[:n]
	}
	return unique
}

// rank orders passages by score descending, preserving document order on
// ties. Passages are built in document order, so a stable sort is the
// tie-break.
func rank(passages []Passage) []Passage {
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	return passages
}

// cap limits a signal's contribution so no single signal dominates.
func capped(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

// per1000 converts a raw count into a density per 1000 characters.
func per1000(count, textLen int) float64 {
	if textLen == 0 {
		return 0
	}
	return float64(count) * 1000.0 / float64(textLen)
}
