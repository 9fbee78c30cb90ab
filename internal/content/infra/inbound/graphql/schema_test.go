package graphql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/application"
	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/tests/mocks"
)

func fixtures() []domain.Entity {
	records := mocks.Posts(5)
	records = append(records,
		&domain.User{ID: 1, Login: "ana", Nicename: "ana", DisplayName: "Ana", Email: "ana@example.com", Registered: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		&domain.Post{ID: 20, PostType: domain.EntityPage, Status: domain.StatusPublish, Title: "About", AuthorID: 1, Date: time.Now(), Modified: time.Now()},
		&domain.MenuItem{ID: 100, MenuID: 1, ObjectID: 20, ObjectType: domain.EntityPage, Label: "About", MenuOrder: 1},
		&domain.MenuItem{ID: 101, MenuID: 1, ObjectID: 3, ObjectType: domain.EntityPost, Label: "Third", MenuOrder: 2},
		&domain.MenuItem{ID: 102, MenuID: 1, ParentID: 101, Label: "Child", MenuOrder: 3},
	)
	return records
}

func newTestSchema(t *testing.T, src domain.DataSource, opts application.ResolverOptions) *Schema {
	t.Helper()
	log := zap.NewNop()
	resolver := application.NewConnectionResolver(src, application.NewArgsTranslator(log), opts, nil, nil, log)
	s, err := NewSchema(resolver, src, nil, log)
	require.NoError(t, err)
	return s
}

func execute(t *testing.T, s *Schema, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	res := s.Execute(context.Background(), Request{Query: query, Variables: vars})
	require.Empty(t, res.Errors)
	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func field(v interface{}, path ...string) interface{} {
	for _, p := range path {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[p]
	}
	return v
}

func TestExecute_PostsConnectionBatchesAuthors(t *testing.T) {
	src := mocks.NewInMemorySource(fixtures()...)
	s := newTestSchema(t, src, application.DefaultResolverOptions())

	data := execute(t, s, `{
		posts(first: 3) {
			edges { cursor node { databaseId title author { name } } }
			pageInfo { hasNextPage hasPreviousPage endCursor }
		}
	}`, nil)

	edges, ok := field(data, "posts", "edges").([]interface{})
	require.True(t, ok)
	require.Len(t, edges, 3)
	assert.Equal(t, 5, field(edges[0], "node", "databaseId"))
	assert.Equal(t, "Post 5", field(edges[0], "node", "title"))
	for _, e := range edges {
		assert.Equal(t, "Ana", field(e, "node", "author", "name"))
	}
	assert.Equal(t, true, field(data, "posts", "pageInfo", "hasNextPage"))
	assert.Equal(t, false, field(data, "posts", "pageInfo", "hasPreviousPage"))
	assert.Equal(t, field(edges[2], "cursor"), field(data, "posts", "pageInfo", "endCursor"))

	// Una consulta para la página y una para todos los autores.
	assert.Equal(t, 2, src.CallCount())
	assert.True(t, src.Calls[0].CountTotal)
	assert.Equal(t, []int64{1}, src.Calls[1].IDs)
}

func TestExecute_PageInfoDrivesCount(t *testing.T) {
	src := mocks.NewInMemorySource(fixtures()...)
	s := newTestSchema(t, src, application.DefaultResolverOptions())

	execute(t, s, `{ posts { nodes { title } } }`, nil)
	assert.False(t, src.LastCall().CountTotal)

	execute(t, s, `query { posts { ...Page } } fragment Page on PostConnection { pageInfo { hasNextPage } }`, nil)
	assert.True(t, src.LastCall().CountTotal)
}

func TestExecute_WhereVariables(t *testing.T) {
	src := mocks.NewInMemorySource(fixtures()...)
	s := newTestSchema(t, src, application.DefaultResolverOptions())

	data := execute(t, s, `query Q($where: PostObjectsWhereArgs) { posts(where: $where) { nodes { databaseId } } }`,
		map[string]interface{}{"where": map[string]interface{}{"in": []interface{}{"2", "4"}}})

	nodes, ok := field(data, "posts", "nodes").([]interface{})
	require.True(t, ok)
	require.Len(t, nodes, 2)
	assert.Equal(t, 4, field(nodes[0], "databaseId"))
	assert.Equal(t, 2, field(nodes[1], "databaseId"))
}

func TestExecute_NodeLookup(t *testing.T) {
	src := mocks.NewInMemorySource(fixtures()...)
	s := newTestSchema(t, src, application.DefaultResolverOptions())

	data := execute(t, s, `{ post(id: "3") { title slug } }`, nil)
	assert.Equal(t, "Post 3", field(data, "post", "title"))

	res := s.Execute(context.Background(), Request{Query: `{ post(id: "99") { title } }`})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "no post exists with the id 99")
}

func TestExecute_MenuItemsConnectedObjectAndChildren(t *testing.T) {
	src := mocks.NewInMemorySource(fixtures()...)
	opts := application.DefaultResolverOptions()
	opts.EmptyIsError = false
	s := newTestSchema(t, src, opts)

	data := execute(t, s, `{
		menuItems(where: { in: [100, 101] }) {
			nodes {
				label
				connectedObject {
					__typename
					... on Page { title }
					... on Post { title }
				}
				childItems { nodes { label } }
			}
		}
	}`, nil)

	nodes, ok := field(data, "menuItems", "nodes").([]interface{})
	require.True(t, ok)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Page", field(nodes[0], "connectedObject", "__typename"))
	assert.Equal(t, "About", field(nodes[0], "connectedObject", "title"))
	assert.Equal(t, "Post", field(nodes[1], "connectedObject", "__typename"))
	assert.Equal(t, "Post 3", field(nodes[1], "connectedObject", "title"))

	children, ok := field(nodes[1], "childItems", "nodes").([]interface{})
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, "Child", field(children[0], "label"))
}

func TestExecute_ConflictingArguments(t *testing.T) {
	src := mocks.NewInMemorySource(fixtures()...)
	s := newTestSchema(t, src, application.DefaultResolverOptions())

	res := s.Execute(context.Background(), Request{Query: `{ posts(first: 1, last: 1) { nodes { title } } }`})
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, 0, src.CallCount())
}

func TestExecute_ProjectsPrivateUserFields(t *testing.T) {
	src := mocks.NewInMemorySource(fixtures()...)
	s := newTestSchema(t, src, application.DefaultResolverOptions())
	query := `{ user(id: "1") { name email } }`

	anon := s.Execute(context.Background(), Request{Query: query})
	require.Empty(t, anon.Errors)
	assert.Nil(t, field(anon.Data, "user", "email"))

	self := s.Execute(context.Background(), Request{Query: query, Viewer: domain.Viewer{UserID: 1}})
	require.Empty(t, self.Errors)
	assert.Equal(t, "ana@example.com", field(self.Data, "user", "email"))
}

func TestExecute_EmptyChildrenStayLocal(t *testing.T) {
	records := mocks.Posts(2)
	records = append(records, &domain.Post{
		ID: 3, PostType: domain.EntityPost, Status: domain.StatusPublish, Title: "Child", ParentID: 1,
		Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Modified: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s := newTestSchema(t, mocks.NewInMemorySource(records...), application.DefaultResolverOptions())

	res := s.Execute(context.Background(), Request{Query: `{
		posts(first: 3) { nodes { databaseId children { nodes { databaseId } } } }
	}`})
	// Los posts 2 y 3 no tienen hijos: el error queda en su campo children.
	require.Len(t, res.Errors, 2)
	for _, e := range res.Errors {
		assert.Contains(t, e.Path, "children")
	}

	nodes, ok := field(res.Data, "posts", "nodes").([]interface{})
	require.True(t, ok)
	require.Len(t, nodes, 3)
	children := map[interface{}]interface{}{}
	for _, n := range nodes {
		children[field(n, "databaseId")] = field(n, "children")
	}
	assert.Nil(t, children[2])
	assert.Nil(t, children[3])
	assert.Equal(t, []interface{}{map[string]interface{}{"databaseId": 3}}, field(children[1], "nodes"))
}
