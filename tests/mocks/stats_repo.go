package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/contentql/internal/content/domain"
)

// MockStatsRepository es un mock de domain.StatsRepository y domain.StatsReader.
type MockStatsRepository struct {
	mock.Mock
}

var (
	_ domain.StatsRepository = (*MockStatsRepository)(nil)
	_ domain.StatsReader     = (*MockStatsRepository)(nil)
)

func (m *MockStatsRepository) LogBatch(ctx context.Context, stats []domain.QueryStat) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) DailyVolume(ctx context.Context, start, end time.Time) ([]domain.DailyVolume, error) {
	args := m.Called(ctx, start, end)
	if v := args.Get(0); v != nil {
		return v.([]domain.DailyVolume), args.Error(1)
	}
	return nil, args.Error(1)
}
