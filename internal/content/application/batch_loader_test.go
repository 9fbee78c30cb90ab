package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/tests/mocks"
)

func newPostLoader(src domain.DataSource, viewer domain.Viewer) *BatchLoader {
	return NewBatchLoader(domain.EntityPost, src, viewer, nil, zap.NewNop())
}

func TestLoadMany_DedupesIntoOneFetch(t *testing.T) {
	src := mocks.NewInMemorySource(mocks.Posts(10)...)
	loader := newPostLoader(src, domain.Viewer{})

	results, err := loader.LoadMany(context.Background(), []int64{5, 7, 5})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(5), results[5].Model.Entity.EntityID())
	assert.Equal(t, int64(7), results[7].Model.Entity.EntityID())

	require.Equal(t, 1, src.CallCount())
	call := src.LastCall()
	assert.Equal(t, []int64{5, 7}, call.IDs)
	assert.True(t, call.PreserveIDOrder)
	assert.Equal(t, 2, call.Pagination.Limit)
	assert.False(t, call.CountTotal)
	assert.True(t, call.IgnoreSticky)
}

func TestLoadMany_EmptyKeysNoFetch(t *testing.T) {
	src := mocks.NewInMemorySource(mocks.Posts(3)...)
	loader := newPostLoader(src, domain.Viewer{})

	results, err := loader.LoadMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, src.CallCount())
}

func TestLoad_MissingKey(t *testing.T) {
	src := mocks.NewInMemorySource(mocks.Posts(3)...)
	loader := newPostLoader(src, domain.Viewer{})

	model, err := loader.Load(context.Background(), 999)
	assert.Nil(t, model)
	var notFound *domain.EntityNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(999), notFound.ID)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestLoadMany_PerKeyIsolation(t *testing.T) {
	src := mocks.NewInMemorySource(mocks.Posts(3)...)
	loader := newPostLoader(src, domain.Viewer{})

	results, err := loader.LoadMany(context.Background(), []int64{1, 999})
	require.NoError(t, err)
	assert.NoError(t, results[1].Err)
	assert.NotNil(t, results[1].Model)
	assert.ErrorIs(t, results[999].Err, domain.ErrEntityNotFound)
}

func TestLoadMany_HiddenEntityIsNotFound(t *testing.T) {
	draft := &domain.Post{ID: 4, PostType: domain.EntityPost, Status: "draft", AuthorID: 2}
	src := mocks.NewInMemorySource(draft)

	_, err := newPostLoader(src, domain.Viewer{}).Load(context.Background(), 4)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)

	model, err := newPostLoader(src, domain.Viewer{UserID: 2}).Load(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "draft", model.Field("status"))
}

func TestLoad_MemoizesAcrossCalls(t *testing.T) {
	src := mocks.NewInMemorySource(mocks.Posts(3)...)
	loader := newPostLoader(src, domain.Viewer{})

	_, err := loader.Load(context.Background(), 1)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), 1)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), 999)
	assert.Error(t, err)
	_, err = loader.Load(context.Background(), 999)
	assert.Error(t, err)

	assert.Equal(t, 2, src.CallCount())
}

func TestPrime_BatchesWithNextLoad(t *testing.T) {
	src := mocks.NewInMemorySource(mocks.Posts(5)...)
	loader := newPostLoader(src, domain.Viewer{})

	loader.Prime(2, 3, 3, 0)
	model, err := loader.Load(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), model.Entity.EntityID())
	require.Equal(t, 1, src.CallCount())
	assert.Equal(t, []int64{2, 3, 4}, src.LastCall().IDs)

	// Lo primado ya está resuelto.
	_, err = loader.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, src.CallCount())
}

func TestLoadMany_FetchError(t *testing.T) {
	boom := errors.New("timeout")
	src := mocks.NewInMemorySource()
	src.Err = boom

	_, err := newPostLoader(src, domain.Viewer{}).LoadMany(context.Background(), []int64{1})
	assert.ErrorIs(t, err, boom)
}

func TestLoaders_PerTypeAndContext(t *testing.T) {
	src := mocks.NewInMemorySource(mocks.Posts(2)...)
	loaders := NewLoaders(src, domain.Viewer{}, nil, zap.NewNop())

	assert.Same(t, loaders.For(domain.EntityPost), loaders.For(domain.EntityPost))
	assert.NotSame(t, loaders.For(domain.EntityPost), loaders.For(domain.EntityUser))

	ctx := WithLoaders(context.Background(), loaders)
	assert.Same(t, loaders, LoadersFrom(ctx))
	assert.Nil(t, LoadersFrom(context.Background()))
}
