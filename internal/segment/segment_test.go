package segment

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/format"
)

func testBounds() Bounds {
	return Bounds{MinChars: 120, MaxChars: 1500}
}

// dramaDoc builds a script with a configurable number of scenes, each
// holding several speaker turns.
func dramaDoc(scenes, turnsPerScene int) corpus.Document {
	var b strings.Builder
	speakers := []string{"ORSINO", "VIOLA", "OLIVIA", "FESTE"}
	for s := 1; s <= scenes; s++ {
		fmt.Fprintf(&b, "SCENE %d. A street before the duke's palace.\n\n", s)
		for i := 0; i < turnsPerScene; i++ {
			sp := speakers[i%len(speakers)]
			fmt.Fprintf(&b, "%s. If music be the food of love, play on! Give me excess of it, that surfeiting the appetite may sicken and so die. What say you to that, my lord?\n\n", sp)
		}
		b.WriteString("[Exeunt]\n\n")
	}
	return corpus.Document{ID: "twelfth-night", Title: "Twelfth Night", Text: b.String()}
}

func proseDoc(chapters, parasPerChapter int) corpus.Document {
	var b strings.Builder
	for c := 1; c <= chapters; c++ {
		fmt.Fprintf(&b, "Chapter %d\n\n", c)
		for i := 0; i < parasPerChapter; i++ {
			b.WriteString(`Elizabeth ran across the garden toward the house, afraid of what Darcy might have seen from the window. "You must not go," cried Jane, trembling by the door of the room. The storm struck the shore beyond the trees that night.` + "\n\n")
		}
	}
	return corpus.Document{ID: "pp", Title: "Pride and Prejudice", Text: b.String()}
}

func TestDramaSegmentBounds(t *testing.T) {
	bounds := testBounds()
	doc := dramaDoc(3, 4)

	passages := (&DramaSegmenter{}).Segment(doc, bounds)
	if len(passages) == 0 {
		t.Fatal("expected passages from drama document")
	}

	for _, p := range passages {
		if len(p.Text) < bounds.MinChars {
			t.Errorf("passage %q shorter than min: %d", p.Section, len(p.Text))
		}
		if len(p.Text) > bounds.MaxChars {
			t.Errorf("passage %q longer than max: %d", p.Section, len(p.Text))
		}
		if p.Format != format.Drama {
			t.Errorf("passage %q has format %s", p.Section, p.Format)
		}
		if p.DocID != doc.ID {
			t.Errorf("passage %q has doc id %s", p.Section, p.DocID)
		}
	}
}

func TestDramaOversizeSplitsOnSpeakerTurns(t *testing.T) {
	bounds := testBounds()
	// One scene far over the max bound forces splitting on turns.
	doc := dramaDoc(1, 30)

	passages := (&DramaSegmenter{}).Segment(doc, bounds)
	if len(passages) < 2 {
		t.Fatalf("expected oversized scene split into parts, got %d passages", len(passages))
	}

	for _, p := range passages {
		if len(p.Text) > bounds.MaxChars {
			t.Errorf("part %q exceeds max bound: %d", p.Section, len(p.Text))
		}
		if !strings.Contains(p.Section, "(part ") {
			t.Errorf("split part %q missing part label", p.Section)
		}
		// A turn is never split: every part starts at a speaker label.
		if !dramaSpeaker.MatchString(p.Text) {
			t.Errorf("part %q does not contain speaker turns", p.Section)
		}
	}
}

func TestProseSegmentBounds(t *testing.T) {
	bounds := testBounds()
	doc := proseDoc(2, 3)

	passages := (&ProseSegmenter{}).Segment(doc, bounds)
	if len(passages) == 0 {
		t.Fatal("expected passages from prose document")
	}

	for _, p := range passages {
		if len(p.Text) < bounds.MinChars || len(p.Text) > bounds.MaxChars {
			t.Errorf("passage %q out of bounds: %d chars", p.Section, len(p.Text))
		}
		if p.Format != format.Prose {
			t.Errorf("passage %q has format %s", p.Section, p.Format)
		}
	}
}

func TestProseOversizeAccumulatesParagraphs(t *testing.T) {
	bounds := testBounds()
	// A single chapter well over the max accumulates paragraphs into
	// multiple parts, merging any short final remainder backwards.
	doc := proseDoc(1, 12)

	passages := (&ProseSegmenter{}).Segment(doc, bounds)
	if len(passages) < 2 {
		t.Fatalf("expected paragraph-accumulated parts, got %d", len(passages))
	}
	for _, p := range passages {
		if len(p.Text) < bounds.MinChars {
			t.Errorf("part %q below min bound: %d", p.Section, len(p.Text))
		}
	}
}

func TestProseRemainderNeverExceedsMaxBound(t *testing.T) {
	bounds := testBounds()
	// A near-max paragraph followed by a short trailing one: merging the
	// remainder backwards would push the part past the maximum bound, so
	// it must be dropped instead.
	long := strings.Repeat("Elizabeth watched Darcy cross the lawn while Jane waited near the gate. ", 20)
	short := strings.Repeat("The rain fell on Pemberley. ", 3)
	doc := corpus.Document{ID: "pp", Text: "Chapter 1\n\n" + long + "\n\n" + short}

	passages := (&ProseSegmenter{}).Segment(doc, bounds)
	if len(passages) == 0 {
		t.Fatal("expected a passage from the oversized chapter")
	}
	for _, p := range passages {
		if len(p.Text) > bounds.MaxChars {
			t.Errorf("passage %q has %d chars, exceeds max bound %d",
				p.Section, len(p.Text), bounds.MaxChars)
		}
		if strings.Contains(p.Text, "Pemberley") {
			t.Errorf("unmergeable trailing remainder kept in passage %q", p.Section)
		}
	}
}

func TestDramaRemainderNeverExceedsMaxBound(t *testing.T) {
	bounds := testBounds()
	turn := func(sp string, n int) string {
		return sp + ". " + strings.Repeat("What country, friends, is this? ", n) + "\n"
	}
	// Two long turns fill a part almost to the max; the short final turn
	// can neither start a part nor merge back without breaking a bound.
	text := turn("VIOLA", 23) + turn("ORSINO", 23) + turn("FESTE", 3)

	parts := splitSpeakerTurns(unit{section: "SCENE 1", text: text}, bounds)
	if len(parts) == 0 {
		t.Fatal("expected parts from the oversized unit")
	}
	for _, p := range parts {
		if len(p.text) > bounds.MaxChars {
			t.Errorf("part %q has %d chars, exceeds max bound %d",
				p.section, len(p.text), bounds.MaxChars)
		}
		if strings.Contains(p.text, "FESTE") {
			t.Errorf("unmergeable trailing turn kept in part %q", p.section)
		}
	}
}

func TestCountDistinctNamesLineInitial(t *testing.T) {
	text := "Elizabeth waited by the gate.\nDarcy crossed the lawn toward her.\nElizabeth turned away."
	if got := countDistinctNames(text); got != 3 {
		t.Errorf("countDistinctNames = %d, want 3 line-initial mentions", got)
	}
}

func TestSegmentOrderedByScore(t *testing.T) {
	doc := proseDoc(4, 3)

	passages := (&ProseSegmenter{}).Segment(doc, testBounds())
	for i := 1; i < len(passages); i++ {
		if passages[i].Score > passages[i-1].Score {
			t.Errorf("passages not sorted by non-increasing score at %d: %.3f > %.3f",
				i, passages[i].Score, passages[i-1].Score)
		}
	}
}

func TestSegmentDeterministic(t *testing.T) {
	doc := dramaDoc(3, 5)
	bounds := testBounds()

	first := (&DramaSegmenter{}).Segment(doc, bounds)
	second := (&DramaSegmenter{}).Segment(doc, bounds)

	if !reflect.DeepEqual(first, second) {
		t.Error("segmentation is not deterministic for fixed input and bounds")
	}
}

func TestSegmentDiscardsShortUnits(t *testing.T) {
	doc := corpus.Document{ID: "short", Text: "SCENE 1. A heath.\n\nWITCH. Brief.\n"}

	passages := (&DramaSegmenter{}).Segment(doc, testBounds())
	if len(passages) != 0 {
		t.Errorf("expected short unit discarded, got %d passages", len(passages))
	}
}

func TestSelectBest(t *testing.T) {
	doc := proseDoc(5, 3)
	verdict := format.Verdict{Format: format.Prose, Confidence: 0.9}
	bounds := testBounds()

	got := SelectBest(doc, verdict, 3, bounds)
	if len(got) > 3 {
		t.Errorf("SelectBest returned %d passages, want at most 3", len(got))
	}

	sections := make(map[string]bool)
	for i, p := range got {
		if len(p.Text) < bounds.MinChars {
			t.Errorf("selected passage %q shorter than min", p.Section)
		}
		if i > 0 && got[i].Score > got[i-1].Score {
			t.Errorf("selection not sorted by score at %d", i)
		}
		if sections[p.Section] {
			t.Errorf("duplicate section label %q in selection", p.Section)
		}
		sections[p.Section] = true
	}
}

func TestSelectBestUnknownFallsBackToProse(t *testing.T) {
	doc := proseDoc(2, 3)
	verdict := format.Verdict{Format: format.Unknown}

	got := SelectBest(doc, verdict, 2, testBounds())
	if len(got) == 0 {
		t.Fatal("expected prose fallback to produce passages")
	}
	for _, p := range got {
		if p.Format != format.Prose {
			t.Errorf("fallback passage tagged %s, want prose", p.Format)
		}
	}
}

func TestSelectBestZero(t *testing.T) {
	doc := proseDoc(2, 3)
	if got := SelectBest(doc, format.Verdict{Format: format.Prose}, 0, testBounds()); got != nil {
		t.Errorf("expected nil for n=0, got %d passages", len(got))
	}
}
