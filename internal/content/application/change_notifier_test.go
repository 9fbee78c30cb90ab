package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedEvents "github.com/davicafu/contentql/internal/shared/events"
	"github.com/davicafu/contentql/tests/mocks"
)

func TestChangeNotifier_PublishesIntegrationEvent(t *testing.T) {
	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(evt sharedEvents.IntegrationEvent) bool {
		var changed domain.ContentChanged
		if err := json.Unmarshal(evt.Data, &changed); err != nil {
			return false
		}
		return evt.Type == domain.ContentUpdated &&
			changed.Type == domain.EntityPost && changed.ID == 9 &&
			evt.PartitionKey() == "post:id:9"
	})).Return(nil).Once()

	n := NewChangeNotifier(pub, zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), domain.ContentUpdated, domain.EntityPost, 9))
	pub.AssertExpectations(t)
}

func TestChangeNotifier_RejectsUnknownInput(t *testing.T) {
	pub := new(mocks.MockPublisher)
	n := NewChangeNotifier(pub, zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, n.Notify(ctx, "content.exploded", domain.EntityPost, 1), ErrUnknownChange)
	assert.ErrorIs(t, n.Notify(ctx, domain.ContentDeleted, domain.EntityType("comment"), 1), ErrUnknownChange)
	assert.ErrorIs(t, n.Notify(ctx, domain.ContentDeleted, domain.EntityUser, 0), ErrUnknownChange)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestChangeNotifier_PublishError(t *testing.T) {
	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka is down")).Once()

	err := NewChangeNotifier(pub, zap.NewNop()).Notify(context.Background(), domain.ContentDeleted, domain.EntityUser, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka is down")
}
