package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedBus "github.com/davicafu/contentql/internal/shared/infra/platform/bus"
)

// MockPublisher es un mock de sharedBus.EventBus.
type MockPublisher struct {
	mock.Mock
}

var _ sharedBus.EventBus = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, event interface{}) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockInvalidator registra las invalidaciones de caché pedidas.
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, t domain.EntityType, id int64) error {
	args := m.Called(ctx, t, id)
	return args.Error(0)
}
