// Package batch iterates documents through the scene crafting pipeline
// with crash-safe incremental persistence: the full collection is
// flushed after every completed document, so a crash loses at most the
// in-flight document's scenes.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/craft"
	"github.com/dotcommander/scenesmith/internal/format"
	"github.com/dotcommander/scenesmith/internal/scene"
	"github.com/dotcommander/scenesmith/internal/segment"
	"github.com/dotcommander/scenesmith/internal/style"
)

// Config holds the per-run crafting knobs.
type Config struct {
	ExtractedPerDoc int
	GeneratedPerDoc int
	// StyleFraction of extraction attempts receive a thematic style.
	StyleFraction float64
	// OverFetchFactor controls passage over-fetching relative to the
	// extraction target; some candidates will be rejected. Minimum 2.
	OverFetchFactor int
	Bounds          segment.Bounds
	// Workers > 1 enables concurrent document processing. Sequential
	// mode is the default and the only ordering-guaranteed mode.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		ExtractedPerDoc: 3,
		GeneratedPerDoc: 1,
		StyleFraction:   0.3,
		OverFetchFactor: 2,
		Bounds:          segment.DefaultBounds(),
		Workers:         1,
	}
}

// Runner drives the batch. The output collection and the style
// selector's generator are the only state shared across documents; both
// sit behind a mutex so concurrent mode stays auditable.
type Runner struct {
	crafter    *craft.Crafter
	classifier *format.Classifier
	selector   *style.Selector
	store      *SceneStore
	cfg        Config
	logger     *slog.Logger

	mu         sync.Mutex
	collection []scene.Scene
}

func NewRunner(crafter *craft.Crafter, classifier *format.Classifier, selector *style.Selector, store *SceneStore, cfg Config, logger *slog.Logger) *Runner {
	if cfg.OverFetchFactor < 2 {
		cfg.OverFetchFactor = 2
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default().With("component", "batch_runner")
	}
	return &Runner{
		crafter:    crafter,
		classifier: classifier,
		selector:   selector,
		store:      store,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run processes documents in input order (sequential mode) or through a
// bounded worker pool (Workers > 1). A persistence failure is fatal to
// the batch; any other per-document failure is logged and skipped.
func (r *Runner) Run(ctx context.Context, docs []corpus.Document) ([]scene.Scene, error) {
	if r.cfg.Workers <= 1 {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return r.snapshot(), err
			}
			scenes := r.processDocument(ctx, doc)
			if err := r.appendAndFlush(ctx, scenes); err != nil {
				return r.snapshot(), err
			}
		}
		return r.snapshot(), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			scenes := r.processDocument(gctx, doc)
			// Output for a document is only appended once its own
			// processing is fully complete.
			return r.appendAndFlush(gctx, scenes)
		})
	}

	if err := g.Wait(); err != nil {
		return r.snapshot(), err
	}
	return r.snapshot(), nil
}

// processDocument classifies, segments and crafts one document,
// returning its accepted scenes. Candidate-level failures never abort
// the document; returning fewer scenes than requested is acceptable
// partial success.
func (r *Runner) processDocument(ctx context.Context, doc corpus.Document) []scene.Scene {
	log := r.logger.With("document_id", doc.ID, "title", doc.Title)

	verdict := r.classifier.ClassifyWithOverride(doc.Text, doc.FormatOverride)
	log.Info("document classified",
		"format", verdict.Format,
		"confidence", verdict.Confidence)

	genStyles := r.selector.SelectUnique(doc.Genre, r.cfg.GeneratedPerDoc)

	overFetch := r.cfg.ExtractedPerDoc * r.cfg.OverFetchFactor
	passages := segment.SelectBest(doc, verdict, overFetch, r.cfg.Bounds)
	log.Debug("passages selected",
		"requested", overFetch,
		"found", len(passages))

	var accepted []scene.Scene

	for i := range passages {
		if len(accepted) >= r.cfg.ExtractedPerDoc {
			break
		}

		styleKey := ""
		if r.selector.Chance(r.cfg.StyleFraction) {
			if key, ok := r.selector.SelectOne(doc.Genre, nil); ok {
				styleKey = key
			}
		}

		outcome := r.crafter.Craft(ctx, craft.Request{
			Doc:      doc,
			Passage:  &passages[i],
			Format:   verdict.Format,
			StyleKey: styleKey,
		})
		if outcome.Status == craft.StatusAccepted {
			accepted = append(accepted, *outcome.Scene)
		}
	}

	if len(accepted) < r.cfg.ExtractedPerDoc {
		log.Warn("fewer extracted scenes accepted than requested",
			"requested", r.cfg.ExtractedPerDoc,
			"accepted", len(accepted),
			"candidates", len(passages))
	}

	for _, key := range genStyles {
		outcome := r.crafter.Craft(ctx, craft.Request{
			Doc:      doc,
			Format:   verdict.Format,
			StyleKey: key,
		})
		if outcome.Status == craft.StatusAccepted {
			accepted = append(accepted, *outcome.Scene)
		}
	}

	log.Info("document complete",
		"accepted_scenes", len(accepted),
		"generated_styles", len(genStyles))

	return accepted
}

// appendAndFlush commits one completed document's scenes and persists
// the whole collection. Persistence failure aborts the batch: silent
// data loss is worse than stopping.
func (r *Runner) appendAndFlush(ctx context.Context, scenes []scene.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.collection = append(r.collection, scenes...)

	if err := r.store.Flush(ctx, r.collection); err != nil {
		return fmt.Errorf("flushing scene collection: %w", err)
	}
	return nil
}

func (r *Runner) snapshot() []scene.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scene.Scene, len(r.collection))
	copy(out, r.collection)
	return out
}
