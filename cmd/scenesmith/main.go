package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/scenesmith/internal/agent"
	"github.com/dotcommander/scenesmith/internal/batch"
	"github.com/dotcommander/scenesmith/internal/config"
	"github.com/dotcommander/scenesmith/internal/corpus"
	"github.com/dotcommander/scenesmith/internal/craft"
	"github.com/dotcommander/scenesmith/internal/format"
	"github.com/dotcommander/scenesmith/internal/scene"
	"github.com/dotcommander/scenesmith/internal/segment"
	"github.com/dotcommander/scenesmith/internal/storage"
	"github.com/dotcommander/scenesmith/internal/style"
)

var (
	flagConfig  string
	flagInput   string
	flagCatalog string
	flagOutput  string
	flagWorkers int
	flagSeed    int64
	flagVerbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scenesmith",
		Short: "Convert long-form literary text into structured, quality-scored scenes",
	}

	craftCmd := &cobra.Command{
		Use:   "craft",
		Short: "Run the scene crafting pipeline over a document corpus",
		RunE:  runCraft,
	}

	craftCmd.Flags().StringVar(&flagConfig, "config", "", "config file path (default: XDG config dir)")
	craftCmd.Flags().StringVar(&flagInput, "input", "", "directory of <id>.txt source documents")
	craftCmd.Flags().StringVar(&flagCatalog, "catalog", "", "YAML metadata catalog path")
	craftCmd.Flags().StringVar(&flagOutput, "output", "scenes.json", "output scene collection path")
	craftCmd.Flags().IntVar(&flagWorkers, "workers", 0, "concurrent document workers (overrides config)")
	craftCmd.Flags().Int64Var(&flagSeed, "seed", 0, "style-selection seed (overrides config)")
	craftCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	craftCmd.MarkFlagRequired("input")
	craftCmd.MarkFlagRequired("catalog")

	rootCmd.AddCommand(craftCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveSeed prefers an explicit --seed value, zero included, over the
// config value; a zero config seed derives one from the clock.
func resolveSeed(flagSet bool, flagVal, cfgVal int64) int64 {
	if flagSet {
		return flagVal
	}
	if cfgVal == 0 {
		return time.Now().UnixNano()
	}
	return cfgVal
}

func runCraft(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagWorkers > 0 {
		cfg.Limits.Workers = flagWorkers
	}
	seed := resolveSeed(cmd.Flags().Changed("seed"), flagSeed, cfg.Crafting.Seed)

	catalog, err := corpus.LoadCatalog(flagCatalog)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	docs, err := corpus.LoadDocuments(flagInput, catalog, logger)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents with catalog metadata found in %s", flagInput)
	}

	client := agent.NewClient(cfg.API.APIKey,
		agent.WithAPIConfig(cfg.API.BaseURL, cfg.API.Model),
		agent.WithTimeout(time.Duration(cfg.API.Timeout)*time.Second),
		agent.WithRetry(cfg.Limits.MaxRetries),
		agent.WithRateLimit(cfg.Limits.RateLimit.RequestsPerMinute, cfg.Limits.RateLimit.BurstSize),
		agent.WithLogger(logger.With("component", "generation_client")))

	styles := style.DefaultCatalog()
	selector := style.NewSelector(styles, seed)
	classifier := format.NewClassifier(format.WithLogger(logger.With("component", "format_classifier")))

	crafter := craft.NewCrafter(client, styles,
		craft.WithRetryLimit(cfg.Crafting.RefineRetries),
		craft.WithGenerationOptions(agent.Options{
			Temperature: cfg.Crafting.Temperature,
			MaxTokens:   cfg.Crafting.MaxTokens,
		}),
		craft.WithLogger(logger.With("component", "scene_crafter")))

	outputAbs, err := filepath.Abs(flagOutput)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}
	store := batch.NewSceneStore(storage.NewFileSystem(filepath.Dir(outputAbs)), filepath.Base(outputAbs))

	runner := batch.NewRunner(crafter, classifier, selector, store, batch.Config{
		ExtractedPerDoc: cfg.Crafting.ExtractedPerDoc,
		GeneratedPerDoc: cfg.Crafting.GeneratedPerDoc,
		StyleFraction:   cfg.Crafting.StyleFraction,
		OverFetchFactor: 2,
		Bounds: segment.Bounds{
			MinChars: cfg.Crafting.MinPassageChars,
			MaxChars: cfg.Crafting.MaxPassageChars,
		},
		Workers: cfg.Limits.Workers,
	}, logger.With("component", "batch_runner"))

	scenes, err := runner.Run(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("batch run failed after %d scenes: %w", len(scenes), err)
	}

	extracted, generated := 0, 0
	for _, s := range scenes {
		if s.Type == scene.TypeExtracted {
			extracted++
		} else {
			generated++
		}
	}

	logger.Info("batch complete",
		"documents", len(docs),
		"scenes", len(scenes),
		"extracted", extracted,
		"generated", generated,
		"output", outputAbs)

	fmt.Printf("crafted %d scenes (%d extracted, %d generated) from %d documents -> %s\n",
		len(scenes), extracted, generated, len(docs), outputAbs)
	return nil
}
