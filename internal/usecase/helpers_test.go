package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/platewise/reviewpipe/internal/domain"
)

type fakeCatalog struct {
	restaurants []domain.Restaurant
	dishes      []domain.DishRecord
	err         error
}

func (f *fakeCatalog) ListRestaurants(context.Context) ([]domain.Restaurant, error) {
	return f.restaurants, f.err
}

func (f *fakeCatalog) ListDishes(context.Context) ([]domain.DishRecord, error) {
	return f.dishes, f.err
}

type fakeMetrics struct {
	mu         sync.Mutex
	harvested  map[domain.Source]int
	failures   map[domain.Source]int
	outcomes   []domain.MatchStats
	statements int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		harvested: make(map[domain.Source]int),
		failures:  make(map[domain.Source]int),
	}
}

func (m *fakeMetrics) ReviewsHarvested(source domain.Source, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.harvested[source] += n
}

func (m *fakeMetrics) ProviderFailure(source domain.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[source]++
}

func (m *fakeMetrics) MatchOutcomes(stats domain.MatchStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, stats)
}

func (m *fakeMetrics) StatementsGenerated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements += n
}

type recordingProgress struct {
	total    int
	advanced []string
	finished bool
}

func (p *recordingProgress) Start(total int)           { p.total = total }
func (p *recordingProgress) Advance(restaurant string) { p.advanced = append(p.advanced, restaurant) }
func (p *recordingProgress) Finish()                   { p.finished = true }

// countingSleep records requested delays without waiting
type countingSleep struct {
	calls []time.Duration
}

func (s *countingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}
