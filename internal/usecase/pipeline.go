package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/platewise/reviewpipe/internal/domain"
)

// Stage is a dispatcher sub-operation
type Stage string

const (
	StageHarvest  Stage = "harvest"
	StageMatch    Stage = "match"
	StageGenerate Stage = "generate"
	StageAll      Stage = "all"
)

// ParseStage converts a sub-operation name; empty means all
func ParseStage(name string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(name))) {
	case "", StageAll:
		return StageAll, nil
	case StageHarvest:
		return StageHarvest, nil
	case StageMatch:
		return StageMatch, nil
	case StageGenerate:
		return StageGenerate, nil
	}
	return "", fmt.Errorf("%w: %q (want harvest, match, generate or all)", domain.ErrUnknownStage, name)
}

// Includes reports whether running s runs the other stage too
func (s Stage) Includes(other Stage) bool {
	return s == other || s == StageAll
}

// State is the pipeline position
type State string

const (
	StateIdle       State = "idle"
	StateHarvesting State = "harvesting"
	StateMatching   State = "matching"
	StateGenerating State = "generating"
	StateDone       State = "done"
)

// Report collects the per-stage summaries of a run; nil fields were not run
type Report struct {
	Harvest  *HarvestStats
	Match    *domain.MatchStats
	Generate *GenerateStats
}

// Pipeline runs the stages in order, handing data between them through the stage store
type Pipeline struct {
	store     domain.StageStore
	catalog   domain.CatalogRepository
	harvester *HarvestService
	matcher   *MatchingService
	generator *GeneratorService
	metrics   domain.MetricsRecorder
	logger    *slog.Logger

	state   State
	history []State
}

// NewPipeline wires the stages. harvester may be nil when the harvest stage is never run.
func NewPipeline(
	store domain.StageStore,
	catalog domain.CatalogRepository,
	harvester *HarvestService,
	matcher *MatchingService,
	generator *GeneratorService,
	metrics domain.MetricsRecorder,
) *Pipeline {
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	return &Pipeline{
		store:     store,
		catalog:   catalog,
		harvester: harvester,
		matcher:   matcher,
		generator: generator,
		metrics:   metrics,
		logger:    slog.Default().With("component", "pipeline"),
		state:     StateIdle,
		history:   []State{StateIdle},
	}
}

// State returns the current pipeline state
func (p *Pipeline) State() State {
	return p.state
}

// History returns every state the pipeline has entered, in order
func (p *Pipeline) History() []State {
	return append([]State(nil), p.history...)
}

// Run executes the requested stage, or all three for StageAll
func (p *Pipeline) Run(ctx context.Context, stage Stage) (*Report, error) {
	report := &Report{}

	if stage.Includes(StageHarvest) {
		if err := p.runHarvest(ctx, report); err != nil {
			return report, err
		}
	}
	if stage.Includes(StageMatch) {
		if err := p.runMatch(ctx, report); err != nil {
			return report, err
		}
	}
	if stage.Includes(StageGenerate) {
		if err := p.runGenerate(report); err != nil {
			return report, err
		}
	}

	p.transition(StateDone)
	return report, nil
}

func (p *Pipeline) runHarvest(ctx context.Context, report *Report) error {
	if p.harvester == nil {
		return fmt.Errorf("%w: harvest stage is not configured", domain.ErrMissingConfig)
	}
	p.transition(StateHarvesting)

	reviews, stats, err := p.harvester.Harvest(ctx)
	report.Harvest = &stats
	if err != nil {
		return fmt.Errorf("harvest: %w", err)
	}

	if err := p.store.WriteRawReviews(reviews); err != nil {
		return fmt.Errorf("write raw reviews: %w", err)
	}
	return nil
}

func (p *Pipeline) runMatch(ctx context.Context, report *Report) error {
	if !p.store.RawReviewsExist() {
		return fmt.Errorf("%w: no raw reviews, run harvest first", domain.ErrMissingStageInput)
	}
	p.transition(StateMatching)

	reviews, err := p.store.ReadRawReviews()
	if err != nil {
		return fmt.Errorf("read raw reviews: %w", err)
	}

	dishes, err := p.catalog.ListDishes(ctx)
	if err != nil {
		return fmt.Errorf("load dishes: %w", err)
	}

	matches, stats, err := p.matcher.MatchReviews(ctx, reviews, domain.NewDishIndex(dishes))
	report.Match = &stats
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	p.metrics.MatchOutcomes(stats)

	if err := p.store.WriteMatches(matches); err != nil {
		return fmt.Errorf("write matches: %w", err)
	}
	return nil
}

func (p *Pipeline) runGenerate(report *Report) error {
	if !p.store.MatchesExist() {
		return fmt.Errorf("%w: no matched reviews, run match first", domain.ErrMissingStageInput)
	}
	p.transition(StateGenerating)

	matches, err := p.store.ReadMatches()
	if err != nil {
		return fmt.Errorf("read matches: %w", err)
	}

	sql, stats, err := p.generator.Generate(matches)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	report.Generate = &stats
	p.metrics.StatementsGenerated(stats.Statements)

	if err := p.store.WriteStatements(sql); err != nil {
		return fmt.Errorf("write statements: %w", err)
	}
	return nil
}

func (p *Pipeline) transition(next State) {
	p.logger.Info("pipeline state", "from", p.state, "to", next)
	p.state = next
	p.history = append(p.history, next)
}
