package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/format"
)

// ProseSegmenter splits narrative prose on chapter boundaries and scores
// candidates by dialogue, character presence and sensory texture.
type ProseSegmenter struct{}

var (
	proseBoundary   = regexp.MustCompile(`(?m)^[ \t]*(?:CHAPTER|BOOK|PART|Chapter|Book|Part)\s+[IVXLCDM\d]+[^\n]*`)
	sceneBreak      = regexp.MustCompile(`(?m)^[ \t]*(?:\*[ \t]*\*[ \t]*\*+|\* \* \*|-{3,}|_{3,}|#)[ \t]*$`)
	quotedDialogue  = regexp.MustCompile(`["\x{201c}][^"\x{201d}\n]{2,}["\x{201d}]`)
	capitalizedName = regexp.MustCompile(`(?m)(?:[a-z,;]\s|^|\. )([A-Z][a-z]{2,})\b`)
)

func (s *ProseSegmenter) Segment(doc corpus.Document, bounds Bounds) []Passage {
	units := splitOnBoundaries(doc.Text, proseBoundary, "Opening")

	var passages []Passage
	for _, u := range units {
		if len(u.text) > bounds.MaxChars {
			for _, part := range splitProseUnit(u, bounds) {
				passages = appendIfLongEnough(passages, doc, part, bounds, format.Prose, scoreProse)
			}
			continue
		}
		passages = appendIfLongEnough(passages, doc, u, bounds, format.Prose, scoreProse)
	}

	return rank(passages)
}

// splitProseUnit breaks an oversized chapter on explicit scene-break
// markers when present, otherwise accumulates paragraphs up to the
// maximum bound.
func splitProseUnit(u unit, bounds Bounds) []unit {
	pieces := sceneBreak.Split(u.text, -1)
	if len(pieces) == 1 {
		pieces = strings.Split(u.text, "\n\n")
	}

	var parts []unit
	var group strings.Builder
	flush := func() {
		if strings.TrimSpace(group.String()) == "" {
			group.Reset()
			return
		}
		parts = append(parts, unit{section: u.section, text: group.String()})
		group.Reset()
	}

	const joiner = "\n\n"
	for _, piece := range pieces {
		if group.Len() > 0 && group.Len()+len(joiner)+len(piece) > bounds.MaxChars {
			flush()
		}
		if group.Len() > 0 {
			group.WriteString(joiner)
		}
		group.WriteString(piece)
	}

	// A short remainder merges into the previous part only when the
	// result stays within the maximum bound; otherwise it is dropped
	// like any other below-minimum fragment.
	if group.Len() > 0 && group.Len() < bounds.MinChars && len(parts) > 0 {
		last := &parts[len(parts)-1]
		if len(last.text)+len(joiner)+group.Len() <= bounds.MaxChars {
			last.text += joiner + group.String()
		}
		group.Reset()
	}
	flush()

	if len(parts) > 1 {
		for i := range parts {
			parts[i].section = fmt.Sprintf("%s (part %d)", u.section, i+1)
		}
	}
	return parts
}

// scoreProse is a weighted sum of five densities, each capped before
// summing so no single signal dominates.
func scoreProse(text string) float64 {
	n := len(text)

	dialogue := per1000(len(quotedDialogue.FindAllStringIndex(text, -1)), n)
	names := per1000(countDistinctNames(text), n)
	action := per1000(countKeywords(text, actionVerbs), n)
	emotion := per1000(countKeywords(text, emotionKeywords), n)
	setting := per1000(countKeywords(text, settingKeywords), n)

	score := capped(dialogue*1.5, 6)
	score += capped(names*2.0, 4)
	score += capped(action*1.2, 4)
	score += capped(emotion*1.2, 4)
	score += capped(setting*0.8, 3)
	return score
}

// countDistinctNames counts mid-sentence capitalized words as a proxy
// for character presence. Sentence-initial capitals are mostly filtered
// by requiring a lowercase or punctuation lead-in.
func countDistinctNames(text string) int {
	matches := capitalizedName.FindAllStringSubmatch(text, -1)
	names := make(map[string]bool, len(matches))
	count := 0
	for _, m := range matches {
		count++
		names[m[1]] = true
	}
	// Weight raw mentions, but require at least two distinct names to
	// count at all: a lone repeated name rarely marks an ensemble scene.
	if len(names) < 2 {
		return 0
	}
	return count
}
