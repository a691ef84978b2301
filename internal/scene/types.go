package scene

import (
	"github.com/google/uuid"

	"github.com/dotcommander/scenesmith/internal/format"
)

// SceneType records how a scene came to exist.
type SceneType string

const (
	TypeExtracted SceneType = "extracted"
	TypeGenerated SceneType = "generated"
)

// Character is one participant in a scene. Relationships maps other
// character names to a description of the relationship; keys are unique
// by construction (map semantics).
type Character struct {
	Name               string            `json:"name" validate:"required"`
	Role               string            `json:"role"`
	PhysicalState      string            `json:"physical_state"`
	PsychologicalState string            `json:"psychological_state"`
	Position           string            `json:"position"`
	Relationships      map[string]string `json:"relationships,omitempty"`
}

// Environment describes where and when a scene takes place.
type Environment struct {
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// QualityScores holds the four evaluator criteria, each 1-5; range
// enforcement happens when the evaluator verdict is parsed.
type QualityScores struct {
	Creativity     int               `json:"creativity"`
	Coherence      int               `json:"coherence"`
	Conformity     int               `json:"conformity"`
	Detail         int               `json:"detail"`
	Justifications map[string]string `json:"justifications,omitempty"`
	Suggestions    []string          `json:"suggestions,omitempty"`
}

// Average returns the arithmetic mean of the four criteria. It is
// derived on demand and never persisted as a rounded value.
func (q QualityScores) Average() float64 {
	return float64(q.Creativity+q.Coherence+q.Conformity+q.Detail) / 4.0
}

// Scene is the quality-gated output unit. Scenes are only ever built
// from an accepted evaluation outcome and are immutable after creation;
// structural constraints (2-4 characters, named) are enforced on the
// drafts they are assembled from.
type Scene struct {
	ID           string        `json:"id"`
	SourceID     string        `json:"source_id"`
	SourceTitle  string        `json:"source_title"`
	Type         SceneType     `json:"scene_type"`
	SourceFormat format.Format `json:"source_format"`
	Section      string        `json:"section,omitempty"`
	Style        string        `json:"style,omitempty"`
	Environment  Environment   `json:"environment"`
	Characters   []Character   `json:"characters"`
	Scores       QualityScores `json:"scores"`
}

// New assigns a fresh identifier to a scene and returns it by value.
func New(s Scene) Scene {
	s.ID = uuid.NewString()
	return s
}
