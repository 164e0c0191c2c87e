package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/platewise/reviewpipe/config"
	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/infrastructure/cache"
	"github.com/platewise/reviewpipe/internal/infrastructure/catalog"
	"github.com/platewise/reviewpipe/internal/infrastructure/filestore"
	"github.com/platewise/reviewpipe/internal/infrastructure/logging"
	"github.com/platewise/reviewpipe/internal/infrastructure/metrics"
	"github.com/platewise/reviewpipe/internal/infrastructure/places"
	"github.com/platewise/reviewpipe/internal/infrastructure/yelp"
	"github.com/platewise/reviewpipe/internal/lexicon"
	"github.com/platewise/reviewpipe/internal/usecase"
)

type runOptions struct {
	configFile string
	noProgress bool
	stdout     io.Writer
}

func runStage(cmd *cobra.Command, opts *runOptions, stage usecase.Stage) error {
	cfg, err := config.Load(config.Options{
		File:  opts.configFile,
		Stage: string(stage),
		Flags: cmd.Flags(),
	})
	if err != nil {
		return err
	}

	if _, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	progress := newProgress(opts.stdout, !opts.noProgress)
	report, outputPath, err := Execute(cmd.Context(), cfg, stage, progress)
	if report != nil {
		printSummary(opts.stdout, report, outputPath)
	}
	return err
}

// Execute wires the pipeline from cfg and runs stage. It returns the run report and
// the generated file path even when a stage fails part way.
func Execute(ctx context.Context, cfg *config.Config, stage usecase.Stage, progress usecase.Progress) (*usecase.Report, string, error) {
	lex, err := loadLexicon(cfg.Pipeline.LexiconFile)
	if err != nil {
		return nil, "", err
	}

	store, err := filestore.New(cfg.Pipeline.DataDir, filestore.Paths{
		RawFile:     cfg.Pipeline.RawFile,
		MatchedFile: cfg.Pipeline.MatchedFile,
		OutputFile:  cfg.Pipeline.OutputFile,
	})
	if err != nil {
		return nil, "", err
	}

	lock, err := filestore.AcquireLock(store.Dir())
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("failed to release run lock", "path", lock.Path(), "error", err)
		}
	}()

	recorder := metrics.New()

	var catalogStore *catalog.Store
	if stage.Includes(usecase.StageHarvest) || stage.Includes(usecase.StageMatch) {
		catalogStore, err = catalog.Open(ctx, cfg.Platform.Driver, cfg.Platform.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("open catalog: %w", err)
		}
		defer catalogStore.Close()
	}

	var harvester *usecase.HarvestService
	if stage.Includes(usecase.StageHarvest) {
		responseCache, err := cache.New(ctx, cfg.Cache.Type, cfg.Cache.RedisURL, cachePath(store.Dir(), cfg.Cache.File))
		if err != nil {
			// a cache is an optimization; run uncached rather than fail
			slog.Warn("response cache unavailable, continuing without it", "type", cfg.Cache.Type, "error", err)
		}
		if responseCache != nil {
			defer func() {
				if err := responseCache.Close(); err != nil {
					slog.Warn("failed to save response cache", "type", cfg.Cache.Type, "error", err)
				}
			}()
		}
		harvester = newHarvester(cfg, lex, catalogStore, responseCache, recorder, progress)
	}

	pipeline := usecase.NewPipeline(
		store,
		catalogRepository(catalogStore),
		harvester,
		usecase.NewMatchingService(usecase.MatchConfig{Lexicon: lex}),
		usecase.NewGeneratorService(usecase.GeneratorConfig{
			Lexicon:      lex,
			Table:        cfg.Generator.Table,
			SystemUserID: cfg.Generator.SystemUserID,
			Origin:       cfg.Generator.Origin,
		}),
		recorder,
	)

	started := time.Now()
	report, runErr := pipeline.Run(ctx, stage)
	slog.Info("run finished", "stage", stage, "state", pipeline.State(), "elapsed", time.Since(started).Round(time.Millisecond))

	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("failed to export metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	return report, store.OutputPath(), runErr
}

func newHarvester(
	cfg *config.Config,
	lex *lexicon.Lexicon,
	catalogStore *catalog.Store,
	responseCache cache.Cache,
	recorder *metrics.Recorder,
	progress usecase.Progress,
) *usecase.HarvestService {
	placesClient := places.NewClient(cfg.Google.APIKey, cfg.Google.BaseURL, cfg.Google.RequestsPerSecond, cfg.Harvest.HTTPTimeout)
	placesClient.SetDebug(cfg.Logging.Level == "debug")

	var yelpClient domain.YelpClient
	if cfg.Yelp.APIKey != "" {
		yelpClient = yelp.NewClient(cfg.Yelp.APIKey, cfg.Yelp.BaseURL, yelp.Options{
			RequestsPerSecond: cfg.Yelp.RequestsPerSecond,
			Timeout:           cfg.Harvest.HTTPTimeout,
			ReviewLimit:       cfg.Yelp.ReviewLimit,
		})
	} else {
		slog.Info("yelp api key not set, secondary provider disabled")
	}

	var cacheRepo domain.CacheRepository
	if responseCache != nil {
		cacheRepo = responseCache
	}

	return usecase.NewHarvestService(catalogStore, placesClient, yelpClient, cacheRepo, recorder, progress, usecase.HarvestConfig{
		Lexicon:         lex,
		RestaurantDelay: cfg.Harvest.RestaurantDelay,
		CacheTTL:        cfg.Cache.TTL,
		DefaultLocality: cfg.Yelp.DefaultLocality,
	})
}

// cachePath resolves a relative cache file name inside the data dir
func cachePath(dataDir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}

// catalogRepository keeps a nil store from becoming a non-nil interface
func catalogRepository(store *catalog.Store) domain.CatalogRepository {
	if store == nil {
		return nil
	}
	return store
}

func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.Default(), nil
	}
	lex, err := lexicon.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: lexicon file: %v", domain.ErrInvalidConfig, err)
	}
	return lex, nil
}
