package segment

import (
	"regexp"
	"strings"

	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/format"
)

// unit is an intermediate labeled span produced by boundary splitting,
// before size enforcement and scoring.
type unit struct {
	section string
	text    string
}

// splitOnBoundaries divides text at every match of boundary, labeling
// each unit with the trimmed header line. Text before the first boundary
// becomes a unit labeled openingLabel.
func splitOnBoundaries(text string, boundary *regexp.Regexp, openingLabel string) []unit {
	locs := boundary.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []unit{{section: openingLabel, text: text}}
	}

	var units []unit
	if head := text[:locs[0][0]]; strings.TrimSpace(head) != "" {
		units = append(units, unit{section: openingLabel, text: head})
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		label := strings.TrimSpace(text[loc[0]:loc[1]])
		units = append(units, unit{section: label, text: text[loc[0]:end]})
	}
	return units
}

// appendIfLongEnough scores and appends a unit, discarding spans below
// the minimum bound (too short to contain a scene).
func appendIfLongEnough(passages []Passage, doc corpus.Document, u unit, bounds Bounds, f format.Format, scorer func(string) float64) []Passage {
	text := strings.TrimSpace(u.text)
	if len(text) < bounds.MinChars {
		return passages
	}
	return append(passages, Passage{
		DocID:   doc.ID,
		Section: u.section,
		Text:    text,
		Score:   scorer(text),
		Format:  f,
	})
}
