package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/format"
)

// DramaSegmenter splits dramatic scripts on act/scene boundaries and
// scores candidates by dialogue structure.
type DramaSegmenter struct{}

var (
	dramaBoundary = regexp.MustCompile(`(?m)^[ \t]*(?:ACT|SCENE|Act|Scene)\s+[IVXLCDM\d]+[^\n]*`)
	dramaSpeaker  = regexp.MustCompile(`(?m)^[A-Z][A-Z '.\-]{1,40}[.:][ \t]`)
	dramaStageDir = regexp.MustCompile(`\[[^\]\n]{2,120}\]|\((?:Enter|Exit|Exeunt|Aside|Re-enter|Within)[^)\n]*\)`)
)

func (s *DramaSegmenter) Segment(doc corpus.Document, bounds Bounds) []Passage {
	units := splitOnBoundaries(doc.Text, dramaBoundary, "Opening")

	var passages []Passage
	for _, u := range units {
		if len(u.text) > bounds.MaxChars {
			for _, part := range splitSpeakerTurns(u, bounds) {
				passages = appendIfLongEnough(passages, doc, part, bounds, format.Drama, scoreDrama)
			}
			continue
		}
		passages = appendIfLongEnough(passages, doc, u, bounds, format.Drama, scoreDrama)
	}

	return rank(passages)
}

// splitSpeakerTurns breaks an oversized unit on contiguous speaker-turn
// groupings. A single speaker turn is never split: a turn is always
// emitted whole into exactly one part. A short final remainder merges
// back into the previous part when the result stays within bounds.
func splitSpeakerTurns(u unit, bounds Bounds) []unit {
	turnStarts := dramaSpeaker.FindAllStringIndex(u.text, -1)
	if len(turnStarts) == 0 {
		return []unit{u}
	}

	// Turn n spans from its label to the next label (or end of unit).
	// Text before the first label rides with the first turn.
	var turns []string
	prev := 0
	for i, loc := range turnStarts {
		if i == 0 {
			prev = 0
			continue
		}
		turns = append(turns, u.text[prev:loc[0]])
		prev = loc[0]
	}
	turns = append(turns, u.text[prev:])

	var parts []unit
	var group strings.Builder
	flush := func() {
		if group.Len() == 0 {
			return
		}
		parts = append(parts, unit{section: u.section, text: group.String()})
		group.Reset()
	}

	for _, turn := range turns {
		if group.Len() > 0 && group.Len()+len(turn) > bounds.MaxChars {
			flush()
		}
		group.WriteString(turn)
	}

	// Merge an undersized trailing group into the last emitted part,
	// but never past the maximum bound; an unmergeable remainder is
	// dropped like any other below-minimum fragment.
	if group.Len() > 0 && group.Len() < bounds.MinChars && len(parts) > 0 {
		last := &parts[len(parts)-1]
		if len(last.text)+group.Len() <= bounds.MaxChars {
			last.text += group.String()
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

// scoreDrama is a weighted sum of structural dialogue signals. The first
// three signals are individually capped so one long cast list or a
// stage-direction-heavy unit cannot dominate the ranking.
func scoreDrama(text string) float64 {
	turnLocs := dramaSpeaker.FindAllString(text, -1)

	speakers := make(map[string]bool, len(turnLocs))
	for _, label := range turnLocs {
		speakers[strings.TrimSpace(strings.TrimRight(strings.TrimSpace(label), ".:"))] = true
	}

	score := capped(float64(len(speakers))*1.2, 8)
	score += capped(per1000(len(turnLocs), len(text)), 10) * 0.8
	score += capped(float64(len(dramaStageDir.FindAllStringIndex(text, -1)))*0.5, 3)
	score += float64(countKeywords(text, dramaticLexicon)) * 0.4
	score += per1000(strings.Count(text, "!")+strings.Count(text, "?"), len(text)) * 0.5
	return score
}
