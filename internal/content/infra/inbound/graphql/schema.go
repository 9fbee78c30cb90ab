package graphql

import (
	"context"
	"fmt"
	"strconv"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/application"
	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/internal/metrics"
)

// Schema expone el contenido como GraphQL con conexiones Relay.
type Schema struct {
	resolver *application.ConnectionResolver
	source   domain.DataSource
	metrics  *metrics.Metrics
	log      *zap.Logger

	schema graphql.Schema

	pageInfo                   *graphql.Object
	post, page, user, menuItem *graphql.Object
	connections                map[domain.EntityType]*graphql.Object
	menuItemObject             *graphql.Union
	where                      whereInputs
}

func NewSchema(resolver *application.ConnectionResolver, source domain.DataSource, m *metrics.Metrics, log *zap.Logger) (*Schema, error) {
	s := &Schema{
		resolver:    resolver,
		source:      source,
		metrics:     m,
		log:         log,
		connections: make(map[domain.EntityType]*graphql.Object),
		where:       newWhereInputs(),
	}
	s.buildTypes()

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "RootQuery",
			Fields: s.rootFields(),
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}
	s.schema = schema
	return s, nil
}

// Execute ejecuta una operación con loaders nuevos para la petición.
func (s *Schema) Execute(ctx context.Context, req Request) *graphql.Result {
	loaders := application.NewLoaders(s.source, req.Viewer, s.metrics, s.log)
	ctx = application.WithLoaders(ctx, loaders)
	ctx = withScope(ctx, scope{viewer: req.Viewer, requestID: req.RequestID})

	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// ---------------- Tipos ----------------

func (s *Schema) buildTypes() {
	s.pageInfo = graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Resolve: pageInfoField(func(pi domain.PageInfo) interface{} {
				return pi.HasNextPage
			})},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Resolve: pageInfoField(func(pi domain.PageInfo) interface{} {
				return pi.HasPreviousPage
			})},
			"startCursor": &graphql.Field{Type: graphql.String, Resolve: pageInfoField(func(pi domain.PageInfo) interface{} {
				return derefString(pi.StartCursor)
			})},
			"endCursor": &graphql.Field{Type: graphql.String, Resolve: pageInfoField(func(pi domain.PageInfo) interface{} {
				return derefString(pi.EndCursor)
			})},
		},
	})

	s.post = s.postObject("Post", domain.EntityPost)
	s.page = s.postObject("Page", domain.EntityPage)

	s.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: modelField("id")},
				"databaseId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: modelField("id")},
				"nicename":   &graphql.Field{Type: graphql.String, Resolve: modelField("nicename")},
				"name":       &graphql.Field{Type: graphql.String, Resolve: modelField("displayName")},
				"registered": &graphql.Field{Type: graphql.DateTime, Resolve: modelField("registered")},
				"username":   &graphql.Field{Type: graphql.String, Resolve: modelField("login")},
				"email":      &graphql.Field{Type: graphql.String, Resolve: modelField("email")},
				"roles":      &graphql.Field{Type: stringList, Resolve: modelField("roles")},
				"posts":      s.connectionField(domain.EntityPost, s.where.post, true),
				"pages":      s.connectionField(domain.EntityPage, s.where.post, true),
			}
		}),
	})

	s.menuItem = graphql.NewObject(graphql.ObjectConfig{
		Name: "MenuItem",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: modelField("id")},
				"databaseId":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: modelField("id")},
				"label":           &graphql.Field{Type: graphql.String, Resolve: modelField("label")},
				"url":             &graphql.Field{Type: graphql.String, Resolve: modelField("url")},
				"menuOrder":       &graphql.Field{Type: graphql.Int, Resolve: modelField("menuOrder")},
				"menuId":          &graphql.Field{Type: graphql.Int, Resolve: modelField("menuId")},
				"parentId":        &graphql.Field{Type: graphql.ID, Resolve: nonZeroField("parentId")},
				"objectType":      &graphql.Field{Type: graphql.String, Resolve: modelField("objectType")},
				"connectedObject": &graphql.Field{Type: s.menuItemObject, Resolve: s.resolveConnectedObject},
				"childItems":      s.connectionField(domain.EntityMenuItem, s.where.menuItem, true),
			}
		}),
	})

	s.menuItemObject = graphql.NewUnion(graphql.UnionConfig{
		Name:  "MenuItemObjectUnion",
		Types: []*graphql.Object{s.post, s.page},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			m, ok := p.Value.(*domain.Model)
			if !ok || m.Entity == nil {
				return nil
			}
			if m.Entity.Type() == domain.EntityPage {
				return s.page
			}
			return s.post
		},
	})

	for t, node := range map[domain.EntityType]*graphql.Object{
		domain.EntityPost:     s.post,
		domain.EntityPage:     s.page,
		domain.EntityUser:     s.user,
		domain.EntityMenuItem: s.menuItem,
	} {
		s.connections[t] = s.connectionObject(node)
	}
}

func (s *Schema) postObject(name string, t domain.EntityType) *graphql.Object {
	var obj *graphql.Object
	obj = graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: modelField("id")},
				"databaseId":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: modelField("id")},
				"title":       &graphql.Field{Type: graphql.String, Resolve: modelField("title")},
				"slug":        &graphql.Field{Type: graphql.String, Resolve: modelField("slug")},
				"status":      &graphql.Field{Type: graphql.String, Resolve: modelField("status")},
				"content":     &graphql.Field{Type: graphql.String, Resolve: modelField("content")},
				"excerpt":     &graphql.Field{Type: graphql.String, Resolve: modelField("excerpt")},
				"date":        &graphql.Field{Type: graphql.DateTime, Resolve: modelField("date")},
				"modified":    &graphql.Field{Type: graphql.DateTime, Resolve: modelField("modified")},
				"menuOrder":   &graphql.Field{Type: graphql.Int, Resolve: modelField("menuOrder")},
				"isSticky":    &graphql.Field{Type: graphql.Boolean, Resolve: modelField("sticky")},
				"hasPassword": &graphql.Field{Type: graphql.Boolean, Resolve: modelField("hasPassword")},
				"author":      &graphql.Field{Type: s.user, Resolve: s.relation(domain.EntityUser, "authorId")},
				"parent":      &graphql.Field{Type: obj, Resolve: s.relation(t, "parentId")},
				"children":    s.connectionField(t, s.where.post, true),
			}
		}),
	})
	return obj
}

func (s *Schema) connectionObject(node *graphql.Object) *graphql.Object {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: node.Name() + "Edge",
		Fields: graphql.Fields{
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				e, _ := p.Source.(domain.Edge)
				return e.Cursor, nil
			}},
			"node": &graphql.Field{Type: graphql.NewNonNull(node), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				e, _ := p.Source.(domain.Edge)
				return e.Node, nil
			}},
		},
	})

	return graphql.NewObject(graphql.ObjectConfig{
		Name: node.Name() + "Connection",
		Fields: graphql.Fields{
			"edges": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edge))), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				c, _ := p.Source.(*domain.Connection)
				if c == nil {
					return []domain.Edge{}, nil
				}
				return c.Edges, nil
			}},
			"nodes": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(node))), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				c, _ := p.Source.(*domain.Connection)
				if c == nil {
					return []*domain.Model{}, nil
				}
				return c.Nodes(), nil
			}},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(s.pageInfo), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				c, _ := p.Source.(*domain.Connection)
				if c == nil {
					return domain.PageInfo{}, nil
				}
				return c.PageInfo, nil
			}},
		},
	})
}

// ---------------- Raíz ----------------

func (s *Schema) rootFields() graphql.Fields {
	return graphql.Fields{
		"posts":     s.connectionField(domain.EntityPost, s.where.post, false),
		"pages":     s.connectionField(domain.EntityPage, s.where.post, false),
		"users":     s.connectionField(domain.EntityUser, s.where.user, false),
		"menuItems": s.connectionField(domain.EntityMenuItem, s.where.menuItem, false),
		"post":      s.nodeField(domain.EntityPost, s.post),
		"page":      s.nodeField(domain.EntityPage, s.page),
		"user":      s.nodeField(domain.EntityUser, s.user),
		"menuItem":  s.nodeField(domain.EntityMenuItem, s.menuItem),
	}
}

// connectionField crea un campo de conexión. Con scoped, el objeto padre
// (p.Source) acota la consulta y el campo admite null para que un error
// quede en ese campo sin anular al padre.
func (s *Schema) connectionField(t domain.EntityType, where *graphql.InputObject, scoped bool) *graphql.Field {
	var typ graphql.Output = graphql.NewNonNull(s.connections[t])
	if scoped {
		typ = s.connections[t]
	}
	return &graphql.Field{
		Type: typ,
		Args: graphql.FieldConfigArgument{
			"first":  &graphql.ArgumentConfig{Type: graphql.Int},
			"last":   &graphql.ArgumentConfig{Type: graphql.Int},
			"after":  &graphql.ArgumentConfig{Type: graphql.String},
			"before": &graphql.ArgumentConfig{Type: graphql.String},
			"where":  &graphql.ArgumentConfig{Type: where},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			var parent domain.Entity
			if scoped {
				m, ok := p.Source.(*domain.Model)
				if !ok || m == nil {
					return nil, nil
				}
				parent = m.Entity
			}

			sc := scopeFrom(p.Context)
			conn, err := s.resolver.Resolve(p.Context, t, parent, paginationArgs(p.Args), application.ResolveRequest{
				Viewer:        sc.viewer,
				NeedsPageInfo: selects(p, "pageInfo"),
				RequestID:     sc.requestID,
			})
			if err != nil {
				return nil, err
			}
			s.primeRelations(p.Context, t, conn)
			return conn, nil
		},
	}
}

func (s *Schema) nodeField(t domain.EntityType, obj *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: obj,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			raw, _ := p.Args["id"].(string)
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return nil, &domain.EntityNotFoundError{Type: t, ID: id}
			}
			loaders := application.LoadersFrom(p.Context)
			if loaders == nil {
				return nil, fmt.Errorf("no loaders in request context")
			}
			return loaders.For(t).Load(p.Context, id)
		},
	}
}

// ---------------- Relaciones ----------------

// relation carga por ID la entidad referenciada en field. Si no existe o no es
// visible el campo queda a null.
func (s *Schema) relation(t domain.EntityType, field string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		m, ok := p.Source.(*domain.Model)
		if !ok {
			return nil, nil
		}
		id, _ := m.Field(field).(int64)
		if id <= 0 {
			return nil, nil
		}
		return s.loadOrNil(p.Context, t, id)
	}
}

func (s *Schema) resolveConnectedObject(p graphql.ResolveParams) (interface{}, error) {
	m, ok := p.Source.(*domain.Model)
	if !ok {
		return nil, nil
	}
	item, ok := m.Entity.(*domain.MenuItem)
	if !ok || !item.ObjectType.PostLike() || item.ObjectID <= 0 {
		return nil, nil
	}
	return s.loadOrNil(p.Context, item.ObjectType, item.ObjectID)
}

func (s *Schema) loadOrNil(ctx context.Context, t domain.EntityType, id int64) (interface{}, error) {
	loaders := application.LoadersFrom(ctx)
	if loaders == nil {
		return nil, nil
	}
	results, err := loaders.For(t).LoadMany(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if r := results[id]; r.Err == nil && r.Model != nil {
		return r.Model, nil
	}
	return nil, nil
}

// primeRelations encola los IDs relacionados de una página para que los
// resolvers de author, parent y connectedObject compartan una consulta.
func (s *Schema) primeRelations(ctx context.Context, t domain.EntityType, conn *domain.Connection) {
	loaders := application.LoadersFrom(ctx)
	if loaders == nil || conn == nil {
		return
	}
	for _, edge := range conn.Edges {
		switch e := edge.Node.Entity.(type) {
		case *domain.Post:
			loaders.For(domain.EntityUser).Prime(e.AuthorID)
			loaders.For(e.PostType).Prime(e.ParentID)
		case *domain.MenuItem:
			if e.ObjectType.PostLike() {
				loaders.For(e.ObjectType).Prime(e.ObjectID)
			}
		}
	}
}

// ---------------- Helpers ----------------

func paginationArgs(args map[string]interface{}) domain.PaginationArgs {
	var out domain.PaginationArgs
	if v, ok := args["first"].(int); ok {
		out.First = &v
	}
	if v, ok := args["last"].(int); ok {
		out.Last = &v
	}
	if v, ok := args["after"].(string); ok {
		out.After = &v
	}
	if v, ok := args["before"].(string); ok {
		out.Before = &v
	}
	if v, ok := args["where"].(map[string]interface{}); ok && len(v) > 0 {
		out.Where = domain.WhereArgs(v)
	}
	return out
}

func modelField(name string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		m, ok := p.Source.(*domain.Model)
		if !ok {
			return nil, nil
		}
		return m.Field(name), nil
	}
}

func nonZeroField(name string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		m, ok := p.Source.(*domain.Model)
		if !ok {
			return nil, nil
		}
		if id, _ := m.Field(name).(int64); id > 0 {
			return id, nil
		}
		return nil, nil
	}
}

func pageInfoField(get func(domain.PageInfo) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		pi, _ := p.Source.(domain.PageInfo)
		return get(pi), nil
	}
}

func derefString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
