package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedDomain "github.com/davicafu/contentql/internal/shared/domain"
)

// ContentRepoMongoDB implementa el DataSource sobre MongoDB.
// Términos, meta y roles van embebidos en cada documento.
type ContentRepoMongoDB struct {
	posts     *mongo.Collection
	users     *mongo.Collection
	menuItems *mongo.Collection
}

func NewContentRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*ContentRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &ContentRepoMongoDB{
		posts:     db.Collection("posts"),
		users:     db.Collection("users"),
		menuItems: db.Collection("menu_items"),
	}, nil
}

var _ domain.DataSource = (*ContentRepoMongoDB)(nil)

// --- Structs de BSON para el mapeo ---

type mongoTerm struct {
	ID       int64  `bson:"id"`
	Taxonomy string `bson:"taxonomy"`
	Name     string `bson:"name"`
	Slug     string `bson:"slug"`
	ParentID int64  `bson:"parentId"`
}

type mongoPost struct {
	ID             int64             `bson:"_id"`
	PostType       string            `bson:"postType"`
	Status         string            `bson:"status"`
	Title          string            `bson:"title"`
	Slug           string            `bson:"slug"`
	Content        string            `bson:"content"`
	Excerpt        string            `bson:"excerpt"`
	AuthorID       int64             `bson:"authorId"`
	AuthorNicename string            `bson:"authorNicename"`
	ParentID       int64             `bson:"parentId"`
	MenuOrder      int               `bson:"menuOrder"`
	Password       string            `bson:"password"`
	Sticky         bool              `bson:"sticky"`
	Date           time.Time         `bson:"date"`
	Modified       time.Time         `bson:"modified"`
	Terms          []mongoTerm       `bson:"terms,omitempty"`
	Meta           map[string]string `bson:"meta,omitempty"`
}

type mongoUser struct {
	ID          int64     `bson:"_id"`
	Login       string    `bson:"login"`
	Nicename    string    `bson:"nicename"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"displayName"`
	Roles       []string  `bson:"roles"`
	Registered  time.Time `bson:"registered"`
}

type mongoMenuItem struct {
	ID         int64    `bson:"_id"`
	MenuID     int64    `bson:"menuId"`
	ParentID   int64    `bson:"parentId"`
	ObjectID   int64    `bson:"objectId"`
	ObjectType string   `bson:"objectType"`
	Label      string   `bson:"label"`
	URL        string   `bson:"url"`
	MenuOrder  int      `bson:"menuOrder"`
	Locations  []string `bson:"locations,omitempty"`
}

// campo neutral -> clave BSON
var (
	postKeys = map[string]string{
		"id": "_id", "slug": "slug", "title": "title", "status": "status",
		"author_id": "authorId", "author_nicename": "authorNicename", "parent_id": "parentId",
		"menu_order": "menuOrder", "password": "password", "date": "date", "modified": "modified",
	}
	userKeys = map[string]string{
		"id": "_id", "login": "login", "nicename": "nicename", "email": "email",
		"display_name": "displayName", "registered": "registered", "role": "roles",
	}
	menuItemKeys = map[string]string{
		"id": "_id", "menu_id": "menuId", "parent_id": "parentId", "object_id": "objectId",
		"menu_order": "menuOrder", "location": "locations",
	}
	searchKeys = map[domain.EntityType][]string{
		domain.EntityPost:     {"title", "content", "excerpt"},
		domain.EntityPage:     {"title", "content", "excerpt"},
		domain.EntityUser:     {"login", "email", "nicename", "displayName"},
		domain.EntityMenuItem: {"label"},
	}
)

func (r *ContentRepoMongoDB) collection(t domain.EntityType) (*mongo.Collection, map[string]string, error) {
	switch {
	case t.PostLike():
		return r.posts, postKeys, nil
	case t == domain.EntityUser:
		return r.users, userKeys, nil
	case t == domain.EntityMenuItem:
		return r.menuItems, menuItemKeys, nil
	}
	return nil, nil, fmt.Errorf("unknown entity type %q", t)
}

// --- Lectura ---

func (r *ContentRepoMongoDB) Query(ctx context.Context, p domain.QueryParams) (domain.QueryResult, error) {
	coll, keys, err := r.collection(p.EntityType)
	if err != nil {
		return domain.QueryResult{}, err
	}

	// has_published_posts necesita una consulta previa sobre posts.
	if p.EntityType == domain.EntityUser {
		if p, err = r.resolvePublishedAuthors(ctx, p); err != nil {
			return domain.QueryResult{}, err
		}
	}

	filter, err := buildFilter(p, keys)
	if err != nil {
		return domain.QueryResult{}, err
	}

	opts := options.Find()
	if p.Pagination.Offset > 0 {
		opts.SetSkip(int64(p.Pagination.Offset))
	}
	if p.Pagination.Limit > 0 {
		opts.SetLimit(int64(p.Pagination.Limit))
	}
	if !(p.PreserveIDOrder && len(p.IDs) > 0) {
		opts.SetSort(buildSort(p, keys))
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("find %s: %w", p.EntityType, err)
	}
	defer cursor.Close(ctx)

	var records []domain.Entity
	for cursor.Next(ctx) {
		e, err := decodeEntity(p.EntityType, cursor)
		if err != nil {
			return domain.QueryResult{}, err
		}
		records = append(records, e)
	}
	if err := cursor.Err(); err != nil {
		return domain.QueryResult{}, err
	}

	if p.PreserveIDOrder && len(p.IDs) > 0 {
		records = orderByIDs(records, p.IDs)
	}

	result := domain.QueryResult{Records: records}
	if p.CountTotal {
		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return domain.QueryResult{}, fmt.Errorf("count %s: %w", p.EntityType, err)
		}
		total := int(n)
		result.Total = &total
	}
	return result, nil
}

// resolvePublishedAuthors sustituye has_published_posts por un filtro de IDs.
func (r *ContentRepoMongoDB) resolvePublishedAuthors(ctx context.Context, p domain.QueryParams) (domain.QueryParams, error) {
	out := p
	out.Conditions = nil
	for _, c := range p.Conditions {
		if c.Field != "has_published_posts" {
			out.Conditions = append(out.Conditions, c)
			continue
		}
		types, _ := c.Value.([]string)
		if len(types) == 0 {
			types = []string{string(domain.EntityPost)}
		}
		authors, err := r.posts.Distinct(ctx, "authorId", bson.D{
			{Key: "status", Value: domain.StatusPublish},
			{Key: "postType", Value: bson.M{"$in": types}},
		})
		if err != nil {
			return p, fmt.Errorf("published authors: %w", err)
		}
		ids := make([]int64, 0, len(authors))
		for _, a := range authors {
			if id, ok := toInt64(a); ok {
				ids = append(ids, id)
			}
		}
		out.Conditions = append(out.Conditions, sharedDomain.Criterion{Field: "id", Op: sharedDomain.OpIn, Value: ids})
	}
	return out, nil
}

// --- Helpers de Mapeo y Conversión ---

func buildFilter(p domain.QueryParams, keys map[string]string) (bson.D, error) {
	var and bson.A

	if p.EntityType.PostLike() {
		and = append(and, bson.M{"postType": string(p.EntityType)})
		if len(p.Statuses) > 0 {
			and = append(and, bson.M{"status": bson.M{"$in": p.Statuses}})
		}
	}
	if len(p.IDs) > 0 {
		and = append(and, bson.M{"_id": bson.M{"$in": p.IDs}})
	}

	for _, c := range p.Conditions {
		key, ok := keys[c.Field]
		if !ok {
			return nil, fmt.Errorf("unsupported filter field %s", c.Field)
		}
		cond, err := criterionToMongo(key, c)
		if err != nil {
			return nil, err
		}
		and = append(and, cond)
	}

	if p.Search != "" {
		pattern := regexp.QuoteMeta(p.Search)
		var or bson.A
		for _, k := range searchKeys[p.EntityType] {
			or = append(or, bson.M{k: bson.M{"$regex": pattern, "$options": "i"}})
		}
		and = append(and, bson.M{"$or": or})
	}

	for _, row := range p.Terms {
		and = append(and, taxToMongo(row))
	}
	if p.TaxQuery != nil {
		and = append(and, taxGroupToMongo(*p.TaxQuery))
	}
	if p.MetaQuery != nil {
		and = append(and, metaGroupToMongo(*p.MetaQuery))
	}
	if p.DateQuery != nil {
		and = append(and, dateGroupToMongo(*p.DateQuery))
	}

	if len(and) == 0 {
		return bson.D{}, nil
	}
	return bson.D{{Key: "$and", Value: and}}, nil
}

func criterionToMongo(key string, c sharedDomain.Criterion) (bson.M, error) {
	switch c.Op {
	case sharedDomain.OpEq:
		return bson.M{key: c.Value}, nil
	case sharedDomain.OpNe:
		return bson.M{key: bson.M{"$ne": c.Value}}, nil
	case sharedDomain.OpIn:
		return bson.M{key: bson.M{"$in": c.Value}}, nil
	case sharedDomain.OpNotIn:
		return bson.M{key: bson.M{"$nin": c.Value}}, nil
	case sharedDomain.OpGt:
		return bson.M{key: bson.M{"$gt": c.Value}}, nil
	case sharedDomain.OpGte:
		return bson.M{key: bson.M{"$gte": c.Value}}, nil
	case sharedDomain.OpLt:
		return bson.M{key: bson.M{"$lt": c.Value}}, nil
	case sharedDomain.OpLte:
		return bson.M{key: bson.M{"$lte": c.Value}}, nil
	case sharedDomain.OpLike, sharedDomain.OpILike:
		return bson.M{key: bson.M{"$regex": likePattern(c.Value), "$options": "i"}}, nil
	case sharedDomain.OpNotLike:
		return bson.M{key: bson.M{"$not": bson.M{"$regex": likePattern(c.Value), "$options": "i"}}}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", c.Op)
}

func likePattern(v interface{}) string {
	return regexp.QuoteMeta(strings.Trim(fmt.Sprint(v), "%"))
}

func taxGroupToMongo(g domain.FilterGroup[domain.TaxRow]) bson.M {
	var parts bson.A
	for _, r := range g.Rows {
		parts = append(parts, taxToMongo(r))
	}
	for _, sub := range g.Groups {
		parts = append(parts, taxGroupToMongo(sub))
	}
	if g.Combinator() == sharedDomain.OpOr {
		return bson.M{"$or": parts}
	}
	return bson.M{"$and": parts}
}

// taxToMongo: con IncludeChildren por ID también casan los hijos directos.
func taxToMongo(r domain.TaxRow) bson.M {
	switch r.Operator {
	case sharedDomain.OpExists:
		return bson.M{"terms.taxonomy": r.Taxonomy}
	case sharedDomain.OpNotExists:
		return bson.M{"terms.taxonomy": bson.M{"$ne": r.Taxonomy}}
	}

	field := "id"
	switch r.Field {
	case "name", "slug":
		field = r.Field
	}
	values := termValues(field, r.Terms)

	match := func(vals bson.A) bson.M {
		m := bson.M{"taxonomy": r.Taxonomy, field: bson.M{"$in": vals}}
		if r.IncludeChildren && field == "id" {
			return bson.M{"taxonomy": r.Taxonomy, "$or": bson.A{
				bson.M{"id": bson.M{"$in": vals}},
				bson.M{"parentId": bson.M{"$in": vals}},
			}}
		}
		return m
	}

	switch r.Operator {
	case sharedDomain.OpNotIn:
		return bson.M{"terms": bson.M{"$not": bson.M{"$elemMatch": match(values)}}}
	case domain.TaxOpAnd:
		var all bson.A
		for _, v := range values {
			all = append(all, bson.M{"terms": bson.M{"$elemMatch": bson.M{"taxonomy": r.Taxonomy, field: v}}})
		}
		return bson.M{"$and": all}
	default:
		return bson.M{"terms": bson.M{"$elemMatch": match(values)}}
	}
}

func termValues(field string, terms []string) bson.A {
	out := bson.A{}
	for _, t := range terms {
		if field == "id" {
			if n, err := strconv.ParseInt(t, 10, 64); err == nil {
				out = append(out, n)
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

func metaGroupToMongo(g domain.FilterGroup[domain.MetaRow]) bson.M {
	var parts bson.A
	for _, r := range g.Rows {
		parts = append(parts, metaToMongo(r))
	}
	for _, sub := range g.Groups {
		parts = append(parts, metaGroupToMongo(sub))
	}
	if g.Combinator() == sharedDomain.OpOr {
		return bson.M{"$or": parts}
	}
	return bson.M{"$and": parts}
}

var exprOps = map[sharedDomain.Operator]string{
	sharedDomain.OpEq: "$eq", sharedDomain.OpNe: "$ne",
	sharedDomain.OpGt: "$gt", sharedDomain.OpGte: "$gte",
	sharedDomain.OpLt: "$lt", sharedDomain.OpLte: "$lte",
}

func metaToMongo(r domain.MetaRow) bson.M {
	key := "meta." + r.Key
	switch r.Compare {
	case sharedDomain.OpExists:
		return bson.M{key: bson.M{"$exists": true}}
	case sharedDomain.OpNotExists:
		return bson.M{key: bson.M{"$exists": false}}
	case sharedDomain.OpIn:
		return bson.M{key: bson.M{"$in": r.Value}}
	case sharedDomain.OpNotIn:
		return bson.M{key: bson.M{"$nin": r.Value}}
	case sharedDomain.OpLike:
		return bson.M{key: bson.M{"$regex": likePattern(r.Value), "$options": "i"}}
	case sharedDomain.OpNotLike:
		return bson.M{key: bson.M{"$not": bson.M{"$regex": likePattern(r.Value), "$options": "i"}}}
	}

	numeric := false
	switch r.Type {
	case "NUMERIC", "DECIMAL", "SIGNED", "UNSIGNED":
		numeric = true
	}
	field := interface{}("$" + key)
	if numeric {
		field = bson.M{"$toDouble": "$" + key}
	}

	if r.Compare == sharedDomain.OpBetween || r.Compare == sharedDomain.OpNotBetween {
		bounds, _ := r.Value.([]string)
		if len(bounds) != 2 {
			return bson.M{}
		}
		lo, hi := metaValue(bounds[0], numeric), metaValue(bounds[1], numeric)
		inRange := bson.M{"$and": bson.A{
			bson.M{"$gte": bson.A{field, lo}},
			bson.M{"$lte": bson.A{field, hi}},
		}}
		if r.Compare == sharedDomain.OpNotBetween {
			return bson.M{"$expr": bson.M{"$not": bson.A{inRange}}}
		}
		return bson.M{"$expr": inRange}
	}

	op, ok := exprOps[r.Compare]
	if !ok {
		op = "$eq"
	}
	return bson.M{"$expr": bson.M{op: bson.A{field, metaValue(fmt.Sprint(r.Value), numeric)}}}
}

func metaValue(s string, numeric bool) interface{} {
	if numeric {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func dateGroupToMongo(g domain.FilterGroup[domain.DateRow]) bson.M {
	var parts bson.A
	for _, r := range g.Rows {
		parts = append(parts, dateToMongo(r))
	}
	for _, sub := range g.Groups {
		parts = append(parts, dateGroupToMongo(sub))
	}
	if g.Combinator() == sharedDomain.OpOr {
		return bson.M{"$or": parts}
	}
	return bson.M{"$and": parts}
}

func dateToMongo(r domain.DateRow) bson.M {
	key := "date"
	if r.Column == "modified" {
		key = "modified"
	}
	parts := bson.A{}
	bounds := bson.M{}
	if r.After != nil {
		if r.Inclusive {
			bounds["$gte"] = *r.After
		} else {
			bounds["$gt"] = *r.After
		}
	}
	if r.Before != nil {
		if r.Inclusive {
			bounds["$lte"] = *r.Before
		} else {
			bounds["$lt"] = *r.Before
		}
	}
	if len(bounds) > 0 {
		parts = append(parts, bson.M{key: bounds})
	}
	if r.Year > 0 {
		parts = append(parts, bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$year": "$" + key}, r.Year}}})
	}
	if r.Month > 0 {
		parts = append(parts, bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$month": "$" + key}, r.Month}}})
	}
	if r.Day > 0 {
		parts = append(parts, bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$dayOfMonth": "$" + key}, r.Day}}})
	}
	return bson.M{"$and": parts}
}

var sortKeys = map[string]string{
	"date": "date", "modified": "modified", "title": "title", "slug": "slug",
	"menu_order": "menuOrder", "author_id": "authorId", "parent_id": "parentId", "id": "_id",
	"registered": "registered", "login": "login", "nicename": "nicename",
	"display_name": "displayName", "email": "email",
}

func buildSort(p domain.QueryParams, keys map[string]string) bson.D {
	var out bson.D
	if !p.IgnoreSticky && p.EntityType == domain.EntityPost {
		sticky := -1
		if p.Reverse {
			sticky = 1 // espejo del orden normal
		}
		out = append(out, bson.E{Key: "sticky", Value: sticky})
	}
	s := p.EffectiveSort()
	key, ok := sortKeys[s.Field]
	if _, allowed := keys[s.Field]; !ok || !allowed {
		s = domain.DefaultSort(p.EntityType)
		if p.Reverse {
			s = s.Reversed()
		}
		key = sortKeys[s.Field]
	}
	dir := 1 // Ascendente por defecto
	if s.Desc {
		dir = -1 // Descendente
	}
	out = append(out, bson.E{Key: key, Value: dir})
	if key != "_id" {
		out = append(out, bson.E{Key: "_id", Value: dir})
	}
	return out
}

func decodeEntity(t domain.EntityType, cursor *mongo.Cursor) (domain.Entity, error) {
	switch {
	case t.PostLike():
		var mp mongoPost
		if err := cursor.Decode(&mp); err != nil {
			return nil, err
		}
		return fromMongoPost(&mp), nil
	case t == domain.EntityUser:
		var mu mongoUser
		if err := cursor.Decode(&mu); err != nil {
			return nil, err
		}
		return fromMongoUser(&mu), nil
	default:
		var mm mongoMenuItem
		if err := cursor.Decode(&mm); err != nil {
			return nil, err
		}
		return fromMongoMenuItem(&mm), nil
	}
}

func fromMongoPost(mp *mongoPost) *domain.Post {
	return &domain.Post{
		ID: mp.ID, PostType: domain.EntityType(mp.PostType), Status: mp.Status,
		Title: mp.Title, Slug: mp.Slug, Content: mp.Content, Excerpt: mp.Excerpt,
		AuthorID: mp.AuthorID, ParentID: mp.ParentID, MenuOrder: mp.MenuOrder,
		Password: mp.Password, Sticky: mp.Sticky, Date: mp.Date.UTC(), Modified: mp.Modified.UTC(),
	}
}

func fromMongoUser(mu *mongoUser) *domain.User {
	return &domain.User{
		ID: mu.ID, Login: mu.Login, Nicename: mu.Nicename, Email: mu.Email,
		DisplayName: mu.DisplayName, Roles: mu.Roles, Registered: mu.Registered.UTC(),
	}
}

func fromMongoMenuItem(mm *mongoMenuItem) *domain.MenuItem {
	return &domain.MenuItem{
		ID: mm.ID, MenuID: mm.MenuID, ParentID: mm.ParentID, ObjectID: mm.ObjectID,
		ObjectType: domain.EntityType(mm.ObjectType), Label: mm.Label, URL: mm.URL, MenuOrder: mm.MenuOrder,
	}
}

func orderByIDs(records []domain.Entity, ids []int64) []domain.Entity {
	byID := make(map[int64]domain.Entity, len(records))
	for _, e := range records {
		byID[e.EntityID()] = e
	}
	out := make([]domain.Entity, 0, len(records))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
			delete(byID, id)
		}
	}
	return out
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
