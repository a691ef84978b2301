// Package craft drives a scene candidate through the three-stage
// generate → refine → evaluate pipeline against the generation boundary.
package craft

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dotcommander/scenesmith/internal/agent"
	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/format"
	"github.com/dotcommander/scenesmith/internal/scene"
	"github.com/dotcommander/scenesmith/internal/segment"
	"github.com/dotcommander/scenesmith/internal/style"
)

// Status is a terminal pipeline state for one candidate.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// acceptThreshold is the numeric acceptance gate. A scene also passes on
// an explicit accept recommendation regardless of the average; the OR is
// deliberate and must not be tightened to AND without a product call.
const acceptThreshold = 3.5

const defaultRetryLimit = 2

// Request describes one candidate: an extraction from a passage, or a
// from-scratch generation when Passage is nil.
type Request struct {
	Doc      corpus.Document
	Passage  *segment.Passage
	Format   format.Format
	StyleKey string
}

// Outcome is the terminal result for one candidate. Scene is non-nil
// only when Status is StatusAccepted.
type Outcome struct {
	Status   Status
	Scene    *scene.Scene
	Attempts int
}

// Crafter orchestrates the screenwriter, director and evaluator stages.
type Crafter struct {
	gen        agent.Generator
	catalog    *style.Catalog
	validate   *validator.Validate
	logger     *slog.Logger
	retryLimit int
	opts       agent.Options
}

type Option func(*Crafter)

// WithRetryLimit sets how many additional director passes are allowed
// after a rejection before the candidate is terminally rejected.
func WithRetryLimit(n int) Option {
	return func(c *Crafter) {
		if n >= 0 {
			c.retryLimit = n
		}
	}
}

func WithGenerationOptions(opts agent.Options) Option {
	return func(c *Crafter) {
		c.opts = opts
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Crafter) {
		c.logger = logger
	}
}

func NewCrafter(gen agent.Generator, catalog *style.Catalog, opts ...Option) *Crafter {
	c := &Crafter{
		gen:        gen,
		catalog:    catalog,
		validate:   validator.New(),
		logger:     slog.Default().With("component", "scene_crafter"),
		retryLimit: defaultRetryLimit,
		opts:       agent.Options{Temperature: 0.8, MaxTokens: 4096},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sceneDraft is the structure the screenwriter and director stages
// return across the generation boundary.
type sceneDraft struct {
	Environment scene.Environment `json:"environment"`
	Characters  []scene.Character `json:"characters" validate:"min=2,max=4,dive"`
}

// evaluation is the evaluator stage's verdict on a refined draft.
type evaluation struct {
	Creativity     int               `json:"creativity" validate:"min=1,max=5"`
	Coherence      int               `json:"coherence" validate:"min=1,max=5"`
	Conformity     int               `json:"conformity" validate:"min=1,max=5"`
	Detail         int               `json:"detail" validate:"min=1,max=5"`
	Justifications map[string]string `json:"justifications,omitempty"`
	Suggestions    []string          `json:"suggestions,omitempty"`
	Recommendation string            `json:"recommendation"`
}

func (e evaluation) average() float64 {
	return float64(e.Creativity+e.Coherence+e.Conformity+e.Detail) / 4.0
}

func (e evaluation) accepted() bool {
	return e.average() >= acceptThreshold || strings.EqualFold(e.Recommendation, "accept")
}

// Craft runs one candidate through the pipeline. A stage whose remote
// call fails after transport retries terminates the candidate with a
// rejection; it never aborts the batch.
func (c *Crafter) Craft(ctx context.Context, req Request) Outcome {
	log := c.logger.With(
		"document_id", req.Doc.ID,
		"mode", req.mode(),
		"style", req.StyleKey,
	)

	raw, err := c.screenwriter(ctx, req)
	if err != nil {
		log.Warn("screenwriter stage failed, rejecting candidate", "error", err)
		return Outcome{Status: StatusRejected}
	}

	refined, err := c.director(ctx, req, raw, nil)
	if err != nil {
		log.Warn("director stage failed, rejecting candidate", "error", err)
		return Outcome{Status: StatusRejected}
	}

	for attempt := 0; attempt <= c.retryLimit; attempt++ {
		eval, err := c.evaluator(ctx, req, refined)
		if err != nil {
			log.Warn("evaluator stage failed, rejecting candidate",
				"attempt", attempt,
				"error", err)
			return Outcome{Status: StatusRejected, Attempts: attempt + 1}
		}

		if eval.accepted() {
			log.Info("candidate accepted",
				"attempt", attempt,
				"average", eval.average(),
				"recommendation", eval.Recommendation)
			s := c.assemble(req, refined, eval)
			return Outcome{Status: StatusAccepted, Scene: &s, Attempts: attempt + 1}
		}

		log.Debug("candidate rejected by evaluator",
			"attempt", attempt,
			"average", eval.average(),
			"recommendation", eval.Recommendation)

		if attempt == c.retryLimit {
			break
		}

		// Retry from the director stage, feeding the just-rejected
		// refined draft (not the original raw) plus the evaluator's
		// suggestions back in.
		refined, err = c.director(ctx, req, refined, eval.Suggestions)
		if err != nil {
			log.Warn("director retry failed, rejecting candidate",
				"attempt", attempt,
				"error", err)
			return Outcome{Status: StatusRejected, Attempts: attempt + 1}
		}
	}

	log.Info("candidate terminally rejected after refine retries",
		"retry_limit", c.retryLimit)
	return Outcome{Status: StatusRejected, Attempts: c.retryLimit + 1}
}

func (c *Crafter) screenwriter(ctx context.Context, req Request) (sceneDraft, error) {
	prompt := c.buildScreenwriterPrompt(req)

	var draft sceneDraft
	if err := c.gen.CompleteStructured(ctx, prompt, c.opts, &draft); err != nil {
		return sceneDraft{}, fmt.Errorf("screenwriter stage: %w", err)
	}
	if err := c.validate.Struct(draft); err != nil {
		return sceneDraft{}, fmt.Errorf("screenwriter stage: invalid draft: %w", err)
	}
	return draft, nil
}

func (c *Crafter) director(ctx context.Context, req Request, draft sceneDraft, feedback []string) (sceneDraft, error) {
	prompt := c.buildDirectorPrompt(req, draft, feedback)

	var refined sceneDraft
	if err := c.gen.CompleteStructured(ctx, prompt, c.opts, &refined); err != nil {
		return sceneDraft{}, fmt.Errorf("director stage: %w", err)
	}
	if err := c.validate.Struct(refined); err != nil {
		return sceneDraft{}, fmt.Errorf("director stage: invalid draft: %w", err)
	}
	return refined, nil
}

func (c *Crafter) evaluator(ctx context.Context, req Request, draft sceneDraft) (evaluation, error) {
	prompt := c.buildEvaluatorPrompt(req, draft)

	var eval evaluation
	if err := c.gen.CompleteStructured(ctx, prompt, c.opts, &eval); err != nil {
		return evaluation{}, fmt.Errorf("evaluator stage: %w", err)
	}
	if err := c.validate.Struct(eval); err != nil {
		return evaluation{}, fmt.Errorf("evaluator stage: invalid scores: %w", err)
	}
	return eval, nil
}

// assemble builds the immutable Scene from an accepted refined draft.
func (c *Crafter) assemble(req Request, draft sceneDraft, eval evaluation) scene.Scene {
	sceneType := scene.TypeGenerated
	section := ""
	if req.Passage != nil {
		sceneType = scene.TypeExtracted
		section = req.Passage.Section
	}

	return scene.New(scene.Scene{
		SourceID:     req.Doc.ID,
		SourceTitle:  req.Doc.Title,
		Type:         sceneType,
		SourceFormat: req.Format,
		Section:      section,
		Style:        req.StyleKey,
		Environment:  draft.Environment,
		Characters:   draft.Characters,
		Scores: scene.QualityScores{
			Creativity:     eval.Creativity,
			Coherence:      eval.Coherence,
			Conformity:     eval.Conformity,
			Detail:         eval.Detail,
			Justifications: eval.Justifications,
			Suggestions:    eval.Suggestions,
		},
	})
}

func (r Request) mode() string {
	if r.Passage != nil {
		return "extraction"
	}
	return "generation"
}
