package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/application"
	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/internal/content/infra/outbound/db/sqlbuilder"
	sharedDomain "github.com/davicafu/contentql/internal/shared/domain"
	sharedQuery "github.com/davicafu/contentql/internal/shared/infra/platform/query"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Cada conexión de :memory: es una base distinta.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSQLite(db))
	return db
}

func exec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

// seed crea 10 posts (el 10 es el más reciente), 2 usuarios, términos, meta y un menú.
func seed(t *testing.T, db *sql.DB) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 10; i++ {
		date := base.AddDate(0, 0, i).Format(sqlbuilder.TimeLayout)
		status := "publish"
		if i == 5 {
			status = "draft"
		}
		author := 1
		if i%2 == 0 {
			author = 2
		}
		exec(t, db, `INSERT INTO posts (id, post_type, status, title, slug, content, author_id, date, modified)
			VALUES (?, 'post', ?, ?, ?, ?, ?, ?, ?)`,
			i, status, fmt.Sprintf("Post %d", i), fmt.Sprintf("post-%d", i), "body", author, date, date)
	}
	exec(t, db, `INSERT INTO posts (id, post_type, title, slug, date, modified) VALUES (11, 'page', 'About', 'about', ?, ?)`,
		base.Format(sqlbuilder.TimeLayout), base.Format(sqlbuilder.TimeLayout))

	exec(t, db, `INSERT INTO users (id, login, nicename, email, display_name, registered) VALUES
		(1, 'ana', 'ana', 'ana@example.com', 'Ana', '2023-01-01 00:00:00'),
		(2, 'luis', 'luis', 'luis@example.com', 'Luis', '2023-06-01 00:00:00')`)
	exec(t, db, `INSERT INTO user_roles (user_id, role) VALUES (1, 'editor'), (1, 'author'), (2, 'subscriber')`)

	// news (1) tiene un hijo local (2); tag go (3), tag sql (4)
	exec(t, db, `INSERT INTO terms (id, taxonomy, name, slug, parent_id) VALUES
		(1, 'category', 'News', 'news', 0),
		(2, 'category', 'Local', 'local', 1),
		(3, 'post_tag', 'Go', 'go', 0),
		(4, 'post_tag', 'SQL', 'sql', 0)`)
	exec(t, db, `INSERT INTO term_relationships (object_id, term_id) VALUES
		(1, 1), (2, 2), (3, 3), (3, 4), (4, 3)`)

	exec(t, db, `INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES
		(1, 'price', '5'), (2, 'price', '15'), (3, 'price', '25'), (4, 'color', 'red')`)

	exec(t, db, `INSERT INTO menus (id, name) VALUES (1, 'Main')`)
	exec(t, db, `INSERT INTO menu_locations (location, menu_id) VALUES ('primary', 1)`)
	exec(t, db, `INSERT INTO menu_items (id, menu_id, parent_id, object_id, object_type, label, url, menu_order) VALUES
		(100, 1, 0, 11, 'page', 'About', '/about', 2),
		(101, 1, 0, 1, 'post', 'First', '/first', 1),
		(102, 1, 101, 2, 'post', 'Child', '/child', 3)`)
}

func postIDs(records []domain.Entity) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.EntityID())
	}
	return ids
}

func TestQuery_PostsPageAndCount(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)

	res, err := repo.Query(context.Background(), domain.QueryParams{
		EntityType: domain.EntityPost,
		Statuses:   []string{domain.StatusPublish},
		Pagination: sharedQuery.OffsetPagination{Limit: 3, Offset: 2},
		CountTotal: true,
	})
	require.NoError(t, err)
	// 10, 9, 8, 7, 6, (5 es borrador), 4 ...
	assert.Equal(t, []int64{8, 7, 6}, postIDs(res.Records))
	require.NotNil(t, res.Total)
	assert.Equal(t, 9, *res.Total)

	post := res.Records[0].(*domain.Post)
	assert.Equal(t, "Post 8", post.Title)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), post.Date)
}

func TestQuery_ReverseRead(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)

	res, err := repo.Query(context.Background(), domain.QueryParams{
		EntityType:   domain.EntityPost,
		Pagination:   sharedQuery.OffsetPagination{Limit: 2},
		Reverse:      true,
		IgnoreSticky: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, postIDs(res.Records))
	assert.Nil(t, res.Total)
}

func TestQuery_ReverseReadMirrorsStickyOrder(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	exec(t, db, `UPDATE posts SET sticky = 1 WHERE id = 1`)
	repo := NewContentRepoSQLite(db)

	forward, err := repo.Query(context.Background(), domain.QueryParams{
		EntityType: domain.EntityPost,
		Pagination: sharedQuery.OffsetPagination{Limit: 11},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 10, 9, 8, 7, 6, 5, 4, 3, 2}, postIDs(forward.Records))

	backward, err := repo.Query(context.Background(), domain.QueryParams{
		EntityType: domain.EntityPost,
		Pagination: sharedQuery.OffsetPagination{Limit: 3},
		Reverse:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, postIDs(backward.Records))
}

func TestResolve_LastCursorsMatchForwardWithSticky(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	exec(t, db, `UPDATE posts SET sticky = 1 WHERE id = 1`)
	resolver := application.NewConnectionResolver(NewContentRepoSQLite(db),
		application.NewArgsTranslator(zap.NewNop()), application.DefaultResolverOptions(), nil, nil, zap.NewNop())

	byCursor := func(conn *domain.Connection) map[string]int64 {
		out := make(map[string]int64, len(conn.Edges))
		for _, e := range conn.Edges {
			out[e.Cursor] = e.Node.Entity.EntityID()
		}
		return out
	}

	first, last := 10, 3
	forward, err := resolver.Resolve(context.Background(), domain.EntityPost, nil,
		domain.PaginationArgs{First: &first}, application.ResolveRequest{})
	require.NoError(t, err)
	require.Len(t, forward.Edges, 9)
	assert.Equal(t, int64(1), forward.Edges[0].Node.Entity.EntityID())

	backward, err := resolver.Resolve(context.Background(), domain.EntityPost, nil,
		domain.PaginationArgs{Last: &last}, application.ResolveRequest{})
	require.NoError(t, err)
	require.Len(t, backward.Edges, 3)
	assert.Equal(t, []int64{4, 3, 2}, []int64{
		backward.Edges[0].Node.Entity.EntityID(),
		backward.Edges[1].Node.Entity.EntityID(),
		backward.Edges[2].Node.Entity.EntityID(),
	})

	want := byCursor(forward)
	for cursor, id := range byCursor(backward) {
		assert.Equal(t, want[cursor], id, "cursor %s", cursor)
	}
	assert.True(t, backward.PageInfo.HasPreviousPage)
}

func TestQuery_PreservesIDOrder(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)

	res, err := repo.Query(context.Background(), domain.QueryParams{
		EntityType:      domain.EntityPost,
		IDs:             []int64{3, 9, 5, 999},
		PreserveIDOrder: true,
		Pagination:      sharedQuery.OffsetPagination{Limit: 4},
		IgnoreSticky:    true,
	})
	require.NoError(t, err)
	// Sin filtro de estado: el borrador también vuelve.
	assert.Equal(t, []int64{3, 9, 5}, postIDs(res.Records))
}

func TestQuery_Taxonomies(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)
	ctx := context.Background()

	withChildren, err := repo.Query(ctx, domain.QueryParams{
		EntityType: domain.EntityPost,
		Terms:      []domain.TaxRow{{Taxonomy: "category", Field: "slug", Terms: []string{"news"}, IncludeChildren: true, Operator: sharedDomain.OpIn}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, postIDs(withChildren.Records))

	allTags, err := repo.Query(ctx, domain.QueryParams{
		EntityType: domain.EntityPost,
		Terms:      []domain.TaxRow{{Taxonomy: "post_tag", Field: "term_id", Terms: []string{"3", "4"}, Operator: domain.TaxOpAnd}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, postIDs(allTags.Records))

	either, err := repo.Query(ctx, domain.QueryParams{
		EntityType: domain.EntityPost,
		TaxQuery: &domain.FilterGroup[domain.TaxRow]{
			Relation: sharedDomain.OpOr,
			Rows: []domain.TaxRow{
				{Taxonomy: "category", Field: "term_id", Terms: []string{"1"}, Operator: sharedDomain.OpIn},
				{Taxonomy: "post_tag", Field: "slug", Terms: []string{"go"}, Operator: sharedDomain.OpIn},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 1}, postIDs(either.Records))
}

func TestQuery_MetaAndDate(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)
	ctx := context.Background()

	res, err := repo.Query(ctx, domain.QueryParams{
		EntityType: domain.EntityPost,
		MetaQuery: &domain.FilterGroup[domain.MetaRow]{Rows: []domain.MetaRow{
			{Key: "price", Value: "10", Compare: sharedDomain.OpGt, Type: "NUMERIC"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, postIDs(res.Records))

	after := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	res, err = repo.Query(ctx, domain.QueryParams{
		EntityType: domain.EntityPost,
		DateQuery: &domain.FilterGroup[domain.DateRow]{Rows: []domain.DateRow{
			{Column: "date", After: &after, Inclusive: true, Year: 2024},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 9, 8, 7}, postIDs(res.Records))
}

func TestQuery_UsersWithRoles(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)

	p := domain.QueryParams{EntityType: domain.EntityUser, CountTotal: true}
	p.AddCondition("role", sharedDomain.OpIn, []string{"editor"})
	res, err := repo.Query(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	u := res.Records[0].(*domain.User)
	assert.Equal(t, "ana", u.Login)
	assert.Equal(t, []string{"author", "editor"}, u.Roles)
	assert.Equal(t, 1, *res.Total)
}

func TestQuery_MenuItemsByLocation(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)

	p := domain.QueryParams{EntityType: domain.EntityMenuItem}
	p.AddCondition("location", sharedDomain.OpEq, "primary")
	p.AddCondition("parent_id", sharedDomain.OpEq, int64(0))
	res, err := repo.Query(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []int64{101, 100}, postIDs(res.Records))
	item := res.Records[1].(*domain.MenuItem)
	assert.Equal(t, domain.EntityPage, item.ObjectType)
	assert.Equal(t, int64(11), item.ObjectID)
}

func TestQuery_SearchAndPages(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	repo := NewContentRepoSQLite(db)

	res, err := repo.Query(context.Background(), domain.QueryParams{EntityType: domain.EntityPage, Search: "abo"})
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, postIDs(res.Records))
}

func TestQuery_SearchMatchesWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	exec(t, db, `UPDATE posts SET title = '50% off' WHERE id = 11`)
	repo := NewContentRepoSQLite(db)

	res, err := repo.Query(context.Background(), domain.QueryParams{EntityType: domain.EntityPage, Search: "0%"})
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, postIDs(res.Records))

	res, err = repo.Query(context.Background(), domain.QueryParams{EntityType: domain.EntityPost, Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, res.Records)

	res, err = repo.Query(context.Background(), domain.QueryParams{EntityType: domain.EntityPost, Search: "Post_1"})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}
