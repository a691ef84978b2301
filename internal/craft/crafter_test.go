package craft

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dotcommander/scenesmith/internal/agent"
	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/format"
	"github.com/dotcommander/scenesmith/internal/scene"
	"github.com/dotcommander/scenesmith/internal/segment"
	"github.com/dotcommander/scenesmith/internal/style"
)

func draftJSON(location string) string {
	return `{
		"environment": {"time": "night", "location": "` + location + `", "description": "a torchlit hall"},
		"characters": [
			{"name": "Hero", "role": "protagonist", "physical_state": "tense", "psychological_state": "resolved", "position": "by the door", "relationships": {"Rival": "sworn enemy"}},
			{"name": "Rival", "role": "antagonist", "physical_state": "composed", "psychological_state": "scheming", "position": "at the center"}
		]
	}`
}

func evalJSON(creativity, coherence, conformity, detail int, recommendation string, suggestions ...string) string {
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf(`{
		"creativity": %d, "coherence": %d, "conformity": %d, "detail": %d,
		"justifications": {"creativity": "j"},
		"suggestions": [%s],
		"recommendation": %q
	}`, creativity, coherence, conformity, detail, strings.Join(quoted, ", "), recommendation)
}

func testRequest() Request {
	return Request{
		Doc: corpus.Document{ID: "doc1", Title: "The Duchess of Malfi", Author: "John Webster", Genre: "tragedy"},
		Passage: &segment.Passage{
			DocID:   "doc1",
			Section: "ACT II, SCENE I",
			Text:    "BOSOLA. You come from painting now?",
			Format:  format.Drama,
		},
		Format:   format.Drama,
		StyleKey: "gothic",
	}
}

func newTestCrafter(mock *agent.MockClient, opts ...Option) *Crafter {
	return NewCrafter(mock, style.DefaultCatalog(), opts...)
}

func TestAcceptanceRule(t *testing.T) {
	tests := []struct {
		name           string
		scores         [4]int
		recommendation string
		want           Status
	}{
		// Average exactly at the threshold is accepted even when the
		// explicit recommendation says otherwise.
		{"boundary average accepts", [4]int{4, 4, 3, 3}, "reject", StatusAccepted},
		{"below threshold without recommendation rejects", [4]int{4, 3, 3, 3}, "reject", StatusRejected},
		// The permissive OR: explicit accept overrides a low average.
		{"below threshold with explicit accept accepts", [4]int{4, 3, 3, 3}, "accept", StatusAccepted},
		{"high average accepts", [4]int{5, 5, 4, 4}, "accept", StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := agent.NewMockClient()
			mock.Respond("screenwriter", draftJSON("raw hall"))
			mock.Respond("director", draftJSON("refined hall"))
			mock.Respond("evaluator", evalJSON(tt.scores[0], tt.scores[1], tt.scores[2], tt.scores[3], tt.recommendation))

			crafter := newTestCrafter(mock, WithRetryLimit(0))
			outcome := crafter.Craft(context.Background(), testRequest())

			if outcome.Status != tt.want {
				t.Errorf("status %s, want %s", outcome.Status, tt.want)
			}
			if tt.want == StatusAccepted && outcome.Scene == nil {
				t.Error("accepted outcome missing scene")
			}
			if tt.want == StatusRejected && outcome.Scene != nil {
				t.Error("rejected outcome carries a scene")
			}
		})
	}
}

func TestRetryFeedbackLoop(t *testing.T) {
	mock := agent.NewMockClient()
	mock.Respond("screenwriter", draftJSON("raw hall"))
	mock.Respond("director", draftJSON("refined-1"), draftJSON("refined-2"), draftJSON("refined-3"))
	mock.Respond("evaluator",
		evalJSON(2, 2, 2, 2, "reject", "sharpen the conflict"),
		evalJSON(2, 2, 2, 2, "reject", "deepen motivations"),
		evalJSON(4, 4, 4, 4, "accept"))

	crafter := newTestCrafter(mock, WithRetryLimit(2))
	outcome := crafter.Craft(context.Background(), testRequest())

	if outcome.Status != StatusAccepted {
		t.Fatalf("status %s, want accepted", outcome.Status)
	}
	if got := mock.Calls("director"); got != 3 {
		t.Errorf("director invoked %d times, want 3 (original + 2 retries)", got)
	}
	if got := mock.Calls("evaluator"); got != 3 {
		t.Errorf("evaluator invoked %d times, want 3", got)
	}
	if outcome.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", outcome.Attempts)
	}

	// Each retry feeds the just-rejected refined draft forward, not the
	// original raw one, together with the evaluator's suggestions.
	lastDirector := mock.LastPrompt("director")
	if !strings.Contains(lastDirector, "refined-2") {
		t.Error("final director retry did not receive the previous refined draft")
	}
	if strings.Contains(lastDirector, "raw hall") {
		t.Error("director retry received the raw draft instead of the refined one")
	}
	if !strings.Contains(lastDirector, "deepen motivations") {
		t.Error("director retry missing evaluator feedback")
	}

	if outcome.Scene.Environment.Location != "refined-3" {
		t.Errorf("accepted scene from %q, want the final refinement", outcome.Scene.Environment.Location)
	}
}

func TestRetryExhaustionRejects(t *testing.T) {
	mock := agent.NewMockClient()
	mock.Respond("screenwriter", draftJSON("raw"))
	mock.Respond("director", draftJSON("refined"))
	mock.Respond("evaluator", evalJSON(2, 2, 2, 2, "reject", "still flat"))

	crafter := newTestCrafter(mock, WithRetryLimit(2))
	outcome := crafter.Craft(context.Background(), testRequest())

	if outcome.Status != StatusRejected {
		t.Fatalf("status %s, want rejected", outcome.Status)
	}
	if outcome.Scene != nil {
		t.Error("terminal rejection must not produce a scene")
	}
	if got := mock.Calls("director"); got != 3 {
		t.Errorf("director invoked %d times, want 3", got)
	}
	if got := mock.Calls("evaluator"); got != 3 {
		t.Errorf("evaluator invoked %d times, want 3", got)
	}
}

func TestStageFailureRejectsCandidate(t *testing.T) {
	t.Run("screenwriter transport failure", func(t *testing.T) {
		mock := agent.NewMockClient()
		mock.RespondErr("screenwriter", fmt.Errorf("max retries exceeded: connection refused"))

		outcome := newTestCrafter(mock).Craft(context.Background(), testRequest())
		if outcome.Status != StatusRejected {
			t.Errorf("status %s, want rejected", outcome.Status)
		}
	})

	t.Run("evaluator malformed output", func(t *testing.T) {
		mock := agent.NewMockClient()
		mock.Respond("screenwriter", draftJSON("raw"))
		mock.Respond("director", draftJSON("refined"))
		mock.Respond("evaluator", "I cannot score this scene, sorry.")

		outcome := newTestCrafter(mock).Craft(context.Background(), testRequest())
		if outcome.Status != StatusRejected {
			t.Errorf("status %s, want rejected", outcome.Status)
		}
	})

	t.Run("director draft with too few characters", func(t *testing.T) {
		mock := agent.NewMockClient()
		mock.Respond("screenwriter", draftJSON("raw"))
		mock.Respond("director", `{"environment": {"time": "day", "location": "road", "description": "d"}, "characters": [{"name": "Lonely"}]}`)

		outcome := newTestCrafter(mock).Craft(context.Background(), testRequest())
		if outcome.Status != StatusRejected {
			t.Errorf("status %s, want rejected", outcome.Status)
		}
	})
}

func TestAssembledSceneFields(t *testing.T) {
	mock := agent.NewMockClient()
	mock.Respond("screenwriter", draftJSON("raw"))
	mock.Respond("director", draftJSON("the great hall"))
	mock.Respond("evaluator", evalJSON(4, 4, 4, 4, "accept"))

	t.Run("extraction", func(t *testing.T) {
		outcome := newTestCrafter(mock).Craft(context.Background(), testRequest())
		if outcome.Status != StatusAccepted {
			t.Fatalf("status %s", outcome.Status)
		}

		s := outcome.Scene
		if s.Type != scene.TypeExtracted {
			t.Errorf("type %s, want extracted", s.Type)
		}
		if s.Section != "ACT II, SCENE I" {
			t.Errorf("section %q", s.Section)
		}
		if s.Style != "gothic" {
			t.Errorf("style %q", s.Style)
		}
		if s.SourceID != "doc1" || s.SourceFormat != format.Drama {
			t.Errorf("source fields %q/%s", s.SourceID, s.SourceFormat)
		}
		if s.ID == "" {
			t.Error("scene missing id")
		}
		if got := s.Scores.Average(); got != 4.0 {
			t.Errorf("average %.2f, want 4.00", got)
		}
		if len(s.Characters) != 2 {
			t.Errorf("character count %d", len(s.Characters))
		}
	})

	t.Run("generation", func(t *testing.T) {
		req := testRequest()
		req.Passage = nil

		outcome := newTestCrafter(mock).Craft(context.Background(), req)
		if outcome.Status != StatusAccepted {
			t.Fatalf("status %s", outcome.Status)
		}
		if outcome.Scene.Type != scene.TypeGenerated {
			t.Errorf("type %s, want generated", outcome.Scene.Type)
		}
		if outcome.Scene.Section != "" {
			t.Errorf("generated scene has section %q", outcome.Scene.Section)
		}
	})
}

func TestPromptConstruction(t *testing.T) {
	mock := agent.NewMockClient()
	mock.Respond("screenwriter", draftJSON("raw"))
	mock.Respond("director", draftJSON("refined"))
	mock.Respond("evaluator", evalJSON(4, 4, 4, 4, "accept"))

	crafter := newTestCrafter(mock)
	crafter.Craft(context.Background(), testRequest())

	sw := mock.LastPrompt("screenwriter")
	if !strings.Contains(sw, "dramatic script") {
		t.Error("drama source did not shape the screenwriter prompt")
	}
	if !strings.Contains(sw, "BOSOLA") {
		t.Error("screenwriter prompt missing passage text")
	}
	if !strings.Contains(sw, "Gothic") {
		t.Error("screenwriter prompt missing style hints")
	}

	// Prose sources get the narrative phrasing instead.
	mock2 := agent.NewMockClient()
	mock2.Respond("screenwriter", draftJSON("raw"))
	mock2.Respond("director", draftJSON("refined"))
	mock2.Respond("evaluator", evalJSON(4, 4, 4, 4, "accept"))

	req := testRequest()
	req.Format = format.Prose
	req.Passage.Format = format.Prose
	req.StyleKey = ""

	newTestCrafter(mock2).Craft(context.Background(), req)
	sw2 := mock2.LastPrompt("screenwriter")
	if !strings.Contains(sw2, "prose narrative") {
		t.Error("prose source did not shape the screenwriter prompt")
	}
	if strings.Contains(sw2, "Gothic") {
		t.Error("style hints applied without a style key")
	}
}
