package craft

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dotcommander/scenesmith/internal/format"
)

// Prompt construction is format- and style-aware: drama sources are
// framed around speaker turns and stage business, prose around narration
// and reported speech, and a selected thematic style extends the prompt
// with its tone and setting hints.

const draftShape = `Respond with a single JSON object of this shape:
{
  "environment": {"time": "...", "location": "...", "description": "..."},
  "characters": [
    {
      "name": "...",
      "role": "...",
      "physical_state": "...",
      "psychological_state": "...",
      "position": "...",
      "relationships": {"Other Name": "relationship description"}
    }
  ]
}
Include between 2 and 4 characters.`

func (c *Crafter) buildScreenwriterPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are a screenwriter distilling literary source material into a structured scene.\n\n")

	if req.Passage != nil {
		if req.Format == format.Drama {
			b.WriteString("The passage below is from a dramatic script. Read the speaker turns and stage directions, and reconstruct the scene they stage: who is present, where they stand, and what state each character is in.\n\n")
		} else {
			b.WriteString("The passage below is prose narrative. Read the narration and reported speech, and reconstruct the scene it depicts: who is present, the time and place, and each character's physical and psychological state.\n\n")
		}
		fmt.Fprintf(&b, "Source: %s by %s, section %q.\n\n", req.Doc.Title, req.Doc.Author, req.Passage.Section)
		b.WriteString("Passage:\n---\n")
		b.WriteString(req.Passage.Text)
		b.WriteString("\n---\n\n")
	} else {
		fmt.Fprintf(&b, "Invent an original scene in the spirit of %s by %s", req.Doc.Title, req.Doc.Author)
		if req.Doc.Genre != "" {
			fmt.Fprintf(&b, " (%s)", req.Doc.Genre)
		}
		b.WriteString(". Do not retell an existing episode; imagine a new encounter consistent with the work's world and period.\n\n")
	}

	c.appendStyleHints(&b, req.StyleKey)

	b.WriteString(draftShape)
	return b.String()
}

func (c *Crafter) buildDirectorPrompt(req Request, draft sceneDraft, feedback []string) string {
	var b strings.Builder

	b.WriteString("You are a director refining a scene draft for role-play. Enrich it: sharpen the central conflict, deepen each character's motivation, add spatial detail to positions and environment, and plant narrative hooks the players can pick up.\n\n")

	if req.Format == format.Drama {
		b.WriteString("The source is a dramatic script; keep the refinement stageable.\n\n")
	} else {
		b.WriteString("The source is prose narrative; keep the refinement grounded in the narrated world.\n\n")
	}

	c.appendStyleHints(&b, req.StyleKey)

	b.WriteString("Current draft:\n")
	b.Write(mustMarshal(draft))
	b.WriteString("\n\n")

	if len(feedback) > 0 {
		b.WriteString("A previous evaluation rejected this draft. Address these specific points:\n")
		for _, s := range feedback {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString(draftShape)
	return b.String()
}

func (c *Crafter) buildEvaluatorPrompt(req Request, draft sceneDraft) string {
	var b strings.Builder

	b.WriteString("You are an evaluator scoring a refined scene for role-play suitability.\n\n")
	fmt.Fprintf(&b, "Source: %s by %s.\n\n", req.Doc.Title, req.Doc.Author)

	b.WriteString("Scene:\n")
	b.Write(mustMarshal(draft))
	b.WriteString("\n\n")

	b.WriteString(`Score each criterion as an integer from 1 to 5:
- creativity: originality and dramatic interest
- coherence: internal consistency of environment and characters
- conformity: fidelity to the source work's world and tone
- detail: specificity of states, positions and relationships

Respond with a single JSON object:
{
  "creativity": 1-5,
  "coherence": 1-5,
  "conformity": 1-5,
  "detail": 1-5,
  "justifications": {"creativity": "...", "coherence": "...", "conformity": "...", "detail": "..."},
  "suggestions": ["concrete improvement", "..."],
  "recommendation": "accept" or "reject"
}`)
	return b.String()
}

// appendStyleHints extends a prompt with the thematic style's tone and
// setting when a style is set. An unknown key is ignored.
func (c *Crafter) appendStyleHints(b *strings.Builder, styleKey string) {
	if styleKey == "" || c.catalog == nil {
		return
	}
	s, ok := c.catalog.Get(styleKey)
	if !ok {
		return
	}
	fmt.Fprintf(b, "Apply the %s thematic style: %s. Favor a %s tone and settings such as %s.\n\n",
		s.Name, s.Description, s.Tone, s.Setting)
}

func mustMarshal(v any) []byte {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return []byte("{}")
	}
	return data
}
