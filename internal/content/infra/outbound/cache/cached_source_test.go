package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedQuery "github.com/davicafu/contentql/internal/shared/infra/platform/query"
	"github.com/davicafu/contentql/tests/mocks"
)

func byIDParams(ids ...int64) domain.QueryParams {
	return domain.QueryParams{
		EntityType:      domain.EntityPost,
		IDs:             ids,
		PreserveIDOrder: true,
		Pagination:      sharedQuery.OffsetPagination{Limit: len(ids)},
		IgnoreSticky:    true,
	}
}

func ids(records []domain.Entity) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.EntityID())
	}
	return out
}

func TestCachedSource_ServesRepeatedReadsFromCache(t *testing.T) {
	inner := mocks.NewInMemorySource(mocks.Posts(5)...)
	c := mocks.NewDummyCache()
	src := NewCachedSource(inner, c, 60, nil, zap.NewNop())
	ctx := context.Background()

	res, err := src.Query(ctx, byIDParams(3, 1))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(res.Records))
	assert.Equal(t, 1, inner.CallCount())

	// La escritura en caché es asíncrona.
	require.Eventually(t, func() bool {
		return c.Has(domain.CacheKeyByID(domain.EntityPost, 3)) && c.Has(domain.CacheKeyByID(domain.EntityPost, 1))
	}, time.Second, 5*time.Millisecond)

	res, err = src.Query(ctx, byIDParams(1, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 3}, ids(res.Records))
	assert.Equal(t, 2, inner.CallCount())
	// Solo el 4 viaja al almacén.
	assert.Equal(t, []int64{4}, inner.LastCall().IDs)
	assert.Equal(t, 1, inner.LastCall().Pagination.Limit)

	post := res.Records[0].(*domain.Post)
	assert.Equal(t, domain.EntityPost, post.PostType)
}

func TestCachedSource_PassesThroughListQueries(t *testing.T) {
	inner := mocks.NewInMemorySource(mocks.Posts(3)...)
	c := mocks.NewDummyCache()
	src := NewCachedSource(inner, c, 60, nil, zap.NewNop())

	p := byIDParams(1, 2)
	p.CountTotal = true
	res, err := src.Query(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, res.Total)
	assert.Equal(t, 2, *res.Total)

	_, err = src.Query(context.Background(), domain.QueryParams{EntityType: domain.EntityPost})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.CallCount())
	assert.False(t, c.Has(domain.CacheKeyByID(domain.EntityPost, 1)))
}

func TestCachedSource_CacheErrorsFallBackToSource(t *testing.T) {
	inner := mocks.NewInMemorySource(mocks.Posts(2)...)
	c := mocks.NewDummyCache()
	c.Err = errors.New("redis down")
	src := NewCachedSource(inner, c, 60, nil, zap.NewNop())

	res, err := src.Query(context.Background(), byIDParams(2))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(res.Records))
}

func TestCachedSource_SourceErrorIsWrapped(t *testing.T) {
	inner := mocks.NewInMemorySource()
	inner.Err = errors.New("boom")
	src := NewCachedSource(inner, mocks.NewDummyCache(), 60, nil, zap.NewNop())

	_, err := src.Query(context.Background(), byIDParams(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, inner.Err)
}

func TestCachedSource_InvalidateClearsPostAndPage(t *testing.T) {
	c := mocks.NewDummyCache()
	src := NewCachedSource(mocks.NewInMemorySource(), c, 60, nil, zap.NewNop())

	require.NoError(t, src.Invalidate(context.Background(), domain.EntityPage, 7))
	assert.ElementsMatch(t, []string{"post:id:7", "page:id:7"}, c.DeletedKeys())

	require.NoError(t, src.Invalidate(context.Background(), domain.EntityUser, 2))
	assert.Contains(t, c.DeletedKeys(), "user:id:2")
}
