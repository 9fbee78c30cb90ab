package sqlbuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedDomain "github.com/davicafu/contentql/internal/shared/domain"
)

var ErrUnsupportedField = errors.New("unsupported filter field")

// tableSpec describe cómo se consulta un tipo de entidad.
type tableSpec struct {
	table   string
	columns []string
	// campo neutral -> columna
	filters map[string]string
	search  []string
}

var (
	postTable = tableSpec{
		table: "posts",
		columns: []string{"id", "post_type", "status", "title", "slug", "content", "excerpt",
			"author_id", "parent_id", "menu_order", "password", "sticky", "date", "modified"},
		filters: map[string]string{
			"id": "id", "slug": "slug", "title": "title", "status": "status",
			"author_id": "author_id", "parent_id": "parent_id", "menu_order": "menu_order",
			"password": "password", "date": "date", "modified": "modified",
		},
		search: []string{"title", "content", "excerpt"},
	}
	userTable = tableSpec{
		table:   "users",
		columns: []string{"id", "login", "nicename", "email", "display_name", "registered"},
		filters: map[string]string{
			"id": "id", "login": "login", "nicename": "nicename", "email": "email",
			"display_name": "display_name", "registered": "registered",
		},
		search: []string{"login", "email", "nicename", "display_name"},
	}
	menuItemTable = tableSpec{
		table:   "menu_items",
		columns: []string{"id", "menu_id", "parent_id", "object_id", "object_type", "label", "url", "menu_order"},
		filters: map[string]string{
			"id": "id", "menu_id": "menu_id", "parent_id": "parent_id",
			"object_id": "object_id", "menu_order": "menu_order",
		},
		search: []string{"label"},
	}
)

func specFor(t domain.EntityType) (tableSpec, error) {
	switch {
	case t.PostLike():
		return postTable, nil
	case t == domain.EntityUser:
		return userTable, nil
	case t == domain.EntityMenuItem:
		return menuItemTable, nil
	}
	return tableSpec{}, fmt.Errorf("unknown entity type %q", t)
}

// Builder genera SQL a partir de QueryParams para un dialecto.
type Builder struct {
	d Dialect
}

func New(d Dialect) *Builder {
	return &Builder{d: d}
}

func (b *Builder) Dialect() Dialect { return b.d }

// Select genera la consulta paginada de registros.
func (b *Builder) Select(p domain.QueryParams) (string, []interface{}, error) {
	spec, err := specFor(p.EntityType)
	if err != nil {
		return "", nil, err
	}
	where, err := b.where(spec, p)
	if err != nil {
		return "", nil, err
	}

	q := sq.Select(qualify(spec.table, spec.columns)...).
		From(spec.table).
		Where(where).
		OrderBy(b.orderBy(spec, p)...)
	if p.Pagination.Limit > 0 {
		q = q.Limit(uint64(p.Pagination.Limit))
	}
	if p.Pagination.Offset > 0 {
		q = q.Offset(uint64(p.Pagination.Offset))
	}
	return q.PlaceholderFormat(b.d.Placeholder).ToSql()
}

// Count genera la consulta del total filtrado, sin paginación.
func (b *Builder) Count(p domain.QueryParams) (string, []interface{}, error) {
	spec, err := specFor(p.EntityType)
	if err != nil {
		return "", nil, err
	}
	where, err := b.where(spec, p)
	if err != nil {
		return "", nil, err
	}
	return sq.Select("COUNT(*)").
		From(spec.table).
		Where(where).
		PlaceholderFormat(b.d.Placeholder).
		ToSql()
}

func (b *Builder) where(spec tableSpec, p domain.QueryParams) (sq.And, error) {
	id := spec.table + ".id"
	conds := sq.And{}

	if p.EntityType.PostLike() {
		conds = append(conds, sq.Eq{"posts.post_type": string(p.EntityType)})
		if len(p.Statuses) > 0 {
			conds = append(conds, sq.Eq{"posts.status": p.Statuses})
		}
	}
	if len(p.IDs) > 0 {
		conds = append(conds, sq.Eq{id: p.IDs})
	}

	for _, c := range p.Conditions {
		cond, err := b.condition(spec, c)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}

	if p.Search != "" {
		like := sq.Or{}
		for _, col := range spec.search {
			like = append(like, sq.Expr(fmt.Sprintf("%s.%s %s ? ESCAPE '\\'", spec.table, col, b.d.CaseInsensitiveLike), "%"+EscapeLike(p.Search)+"%"))
		}
		conds = append(conds, like)
	}

	for _, row := range p.Terms {
		conds = append(conds, taxCondition(id, row))
	}
	if p.TaxQuery != nil {
		conds = append(conds, taxGroup(id, *p.TaxQuery))
	}
	if p.MetaQuery != nil {
		if !p.EntityType.PostLike() {
			return nil, fmt.Errorf("meta query on %s: %w", p.EntityType, ErrUnsupportedField)
		}
		conds = append(conds, b.metaGroup(id, *p.MetaQuery))
	}
	if p.DateQuery != nil {
		if !p.EntityType.PostLike() {
			return nil, fmt.Errorf("date query on %s: %w", p.EntityType, ErrUnsupportedField)
		}
		conds = append(conds, b.dateGroup(*p.DateQuery))
	}
	return conds, nil
}

// condition traduce un Criterion. Algunos campos no son columnas sino subconsultas.
func (b *Builder) condition(spec tableSpec, c sharedDomain.Criterion) (sq.Sqlizer, error) {
	id := spec.table + ".id"
	switch {
	case spec.table == "posts" && c.Field == "author_nicename":
		return subquery("posts.author_id", c.Op, "SELECT id FROM users WHERE nicename = ?", c.Value)
	case spec.table == "users" && c.Field == "role":
		return membership(id, c.Op, "SELECT user_id FROM user_roles WHERE role", c.Value)
	case spec.table == "users" && c.Field == "has_published_posts":
		types, _ := c.Value.([]string)
		if len(types) == 0 {
			types = []string{string(domain.EntityPost)}
		}
		args := []interface{}{domain.StatusPublish}
		for _, t := range types {
			args = append(args, t)
		}
		return sq.Expr(fmt.Sprintf(
			"%s IN (SELECT author_id FROM posts WHERE status = ? AND post_type IN (%s))",
			id, sq.Placeholders(len(types))), args...), nil
	case spec.table == "menu_items" && c.Field == "location":
		return membership("menu_items.menu_id", c.Op, "SELECT menu_id FROM menu_locations WHERE location", c.Value)
	}

	col, ok := spec.filters[c.Field]
	if !ok {
		return nil, fmt.Errorf("%s on %s: %w", c.Field, spec.table, ErrUnsupportedField)
	}
	return b.compare(spec.table+"."+col, c.Op, c.Value)
}

func (b *Builder) compare(col string, op sharedDomain.Operator, v interface{}) (sq.Sqlizer, error) {
	switch op {
	case sharedDomain.OpEq, sharedDomain.OpIn:
		return sq.Eq{col: v}, nil
	case sharedDomain.OpNe, sharedDomain.OpNotIn:
		return sq.NotEq{col: v}, nil
	case sharedDomain.OpGt:
		return sq.Gt{col: v}, nil
	case sharedDomain.OpGte:
		return sq.GtOrEq{col: v}, nil
	case sharedDomain.OpLt:
		return sq.Lt{col: v}, nil
	case sharedDomain.OpLte:
		return sq.LtOrEq{col: v}, nil
	case sharedDomain.OpLike:
		return sq.Like{col: v}, nil
	case sharedDomain.OpNotLike:
		return sq.NotLike{col: v}, nil
	case sharedDomain.OpILike:
		return sq.Expr(col+" "+b.d.CaseInsensitiveLike+" ?", v), nil
	case sharedDomain.OpBetween, sharedDomain.OpNotBetween:
		bounds, ok := v.([]interface{})
		if !ok || len(bounds) != 2 {
			return nil, fmt.Errorf("%s needs two bounds", op)
		}
		return sq.Expr(fmt.Sprintf("%s %s ? AND ?", col, op), bounds[0], bounds[1]), nil
	}
	return nil, fmt.Errorf("operator %q: %w", op, ErrUnsupportedField)
}

// subquery compara col con el resultado de una subconsulta de un valor.
func subquery(col string, op sharedDomain.Operator, sel string, v interface{}) (sq.Sqlizer, error) {
	switch op {
	case sharedDomain.OpEq:
		return sq.Expr(fmt.Sprintf("%s IN (%s)", col, sel), v), nil
	case sharedDomain.OpNe:
		return sq.Expr(fmt.Sprintf("%s NOT IN (%s)", col, sel), v), nil
	}
	return nil, fmt.Errorf("operator %q on subquery: %w", op, ErrUnsupportedField)
}

// membership filtra por pertenencia a una tabla auxiliar (roles, ubicaciones).
// sel termina en la columna a comparar, p. ej. "SELECT user_id FROM user_roles WHERE role".
func membership(col string, op sharedDomain.Operator, sel string, v interface{}) (sq.Sqlizer, error) {
	values := toArgs(v)
	if len(values) == 0 {
		return nil, fmt.Errorf("empty value for %s", col)
	}
	not := ""
	if op == sharedDomain.OpNe || op == sharedDomain.OpNotIn {
		not = "NOT "
	}
	return sq.Expr(fmt.Sprintf("%s %sIN (%s IN (%s))", col, not, sel, sq.Placeholders(len(values))), values...), nil
}

// ---------------- Taxonomías ----------------

func taxGroup(id string, g domain.FilterGroup[domain.TaxRow]) sq.Sqlizer {
	parts := make([]sq.Sqlizer, 0, g.Len())
	for _, r := range g.Rows {
		parts = append(parts, taxCondition(id, r))
	}
	for _, sub := range g.Groups {
		parts = append(parts, taxGroup(id, sub))
	}
	if g.Combinator() == sharedDomain.OpOr {
		return sq.Or(parts)
	}
	return sq.And(parts)
}

// taxCondition: los hijos solo bajan un nivel en la jerarquía de términos.
func taxCondition(id string, r domain.TaxRow) sq.Sqlizer {
	field := "id"
	switch r.Field {
	case "name", "slug":
		field = r.Field
	}

	switch r.Operator {
	case sharedDomain.OpExists, sharedDomain.OpNotExists:
		not := ""
		if r.Operator == sharedDomain.OpNotExists {
			not = "NOT "
		}
		return sq.Expr(fmt.Sprintf(
			"%s %sIN (SELECT tr.object_id FROM term_relationships tr JOIN terms t ON t.id = tr.term_id WHERE t.taxonomy = ?)",
			id, not), r.Taxonomy)
	}

	args := []interface{}{r.Taxonomy}
	for _, t := range r.Terms {
		if field == "id" {
			n, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				continue
			}
			args = append(args, n)
			continue
		}
		args = append(args, t)
	}
	if len(args) == 1 {
		// Ningún término utilizable: IN no casa nada, NOT IN lo casa todo.
		if r.Operator == sharedDomain.OpNotIn {
			return sq.Expr("1=1")
		}
		return sq.Expr("1=0")
	}
	terms := len(args) - 1
	termIDs := fmt.Sprintf("SELECT id FROM terms WHERE taxonomy = ? AND %s IN (%s)", field, sq.Placeholders(terms))
	if r.IncludeChildren && r.Operator != domain.TaxOpAnd {
		termIDs = fmt.Sprintf("SELECT id FROM terms WHERE id IN (%s) OR parent_id IN (%s)", termIDs, termIDs)
		args = append(args, args...)
	}

	switch r.Operator {
	case sharedDomain.OpNotIn:
		return sq.Expr(fmt.Sprintf("%s NOT IN (SELECT object_id FROM term_relationships WHERE term_id IN (%s))", id, termIDs), args...)
	case domain.TaxOpAnd:
		args = append(args, terms)
		return sq.Expr(fmt.Sprintf(
			"%s IN (SELECT object_id FROM term_relationships WHERE term_id IN (%s) GROUP BY object_id HAVING COUNT(DISTINCT term_id) = ?)",
			id, termIDs), args...)
	default:
		return sq.Expr(fmt.Sprintf("%s IN (SELECT object_id FROM term_relationships WHERE term_id IN (%s))", id, termIDs), args...)
	}
}

// ---------------- Meta ----------------

func (b *Builder) metaGroup(id string, g domain.FilterGroup[domain.MetaRow]) sq.Sqlizer {
	parts := make([]sq.Sqlizer, 0, g.Len())
	for _, r := range g.Rows {
		parts = append(parts, b.metaCondition(id, r))
	}
	for _, sub := range g.Groups {
		parts = append(parts, b.metaGroup(id, sub))
	}
	if g.Combinator() == sharedDomain.OpOr {
		return sq.Or(parts)
	}
	return sq.And(parts)
}

func (b *Builder) metaCondition(id string, r domain.MetaRow) sq.Sqlizer {
	switch r.Compare {
	case sharedDomain.OpExists:
		return sq.Expr(id+" IN (SELECT post_id FROM post_meta WHERE meta_key = ?)", r.Key)
	case sharedDomain.OpNotExists:
		return sq.Expr(id+" NOT IN (SELECT post_id FROM post_meta WHERE meta_key = ?)", r.Key)
	}

	value := "meta_value"
	numeric := false
	switch r.Type {
	case "NUMERIC", "DECIMAL", "SIGNED", "UNSIGNED":
		value = fmt.Sprintf("CAST(meta_value AS %s)", b.d.NumericType)
		numeric = true
	}

	args := []interface{}{r.Key}
	var pred string
	switch r.Compare {
	case sharedDomain.OpIn, sharedDomain.OpNotIn:
		values := metaArgs(r.Value, numeric)
		pred = fmt.Sprintf("%s %s (%s)", value, r.Compare, sq.Placeholders(len(values)))
		args = append(args, values...)
	case sharedDomain.OpBetween, sharedDomain.OpNotBetween:
		values := metaArgs(r.Value, numeric)
		pred = fmt.Sprintf("%s %s ? AND ?", value, r.Compare)
		args = append(args, values...)
	case sharedDomain.OpLike, sharedDomain.OpNotLike:
		pred = fmt.Sprintf("%s %s ?", value, r.Compare)
		args = append(args, "%"+fmt.Sprint(r.Value)+"%")
	default:
		pred = fmt.Sprintf("%s %s ?", value, r.Compare)
		args = append(args, metaArg(fmt.Sprint(r.Value), numeric))
	}
	return sq.Expr(fmt.Sprintf("%s IN (SELECT post_id FROM post_meta WHERE meta_key = ? AND %s)", id, pred), args...)
}

func metaArgs(v interface{}, numeric bool) []interface{} {
	list, _ := v.([]string)
	out := make([]interface{}, 0, len(list))
	for _, s := range list {
		out = append(out, metaArg(s, numeric))
	}
	return out
}

func metaArg(s string, numeric bool) interface{} {
	if numeric {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// ---------------- Fechas ----------------

func (b *Builder) dateGroup(g domain.FilterGroup[domain.DateRow]) sq.Sqlizer {
	parts := make([]sq.Sqlizer, 0, g.Len())
	for _, r := range g.Rows {
		parts = append(parts, b.dateCondition(r))
	}
	for _, sub := range g.Groups {
		parts = append(parts, b.dateGroup(sub))
	}
	if g.Combinator() == sharedDomain.OpOr {
		return sq.Or(parts)
	}
	return sq.And(parts)
}

func (b *Builder) dateCondition(r domain.DateRow) sq.Sqlizer {
	col := "posts.date"
	if r.Column == "modified" {
		col = "posts.modified"
	}
	conds := sq.And{}
	if r.After != nil {
		if r.Inclusive {
			conds = append(conds, sq.GtOrEq{col: b.d.TimeArg(*r.After)})
		} else {
			conds = append(conds, sq.Gt{col: b.d.TimeArg(*r.After)})
		}
	}
	if r.Before != nil {
		if r.Inclusive {
			conds = append(conds, sq.LtOrEq{col: b.d.TimeArg(*r.Before)})
		} else {
			conds = append(conds, sq.Lt{col: b.d.TimeArg(*r.Before)})
		}
	}
	parts := []struct {
		name  string
		value int
	}{{"year", r.Year}, {"month", r.Month}, {"day", r.Day}}
	for _, part := range parts {
		if part.value > 0 {
			conds = append(conds, sq.Expr(b.d.DatePart(part.name, col)+" = ?", part.value))
		}
	}
	return conds
}

// ---------------- Orden ----------------

var sortColumns = map[string]bool{
	"date": true, "modified": true, "title": true, "slug": true, "menu_order": true,
	"author_id": true, "parent_id": true, "id": true,
	"registered": true, "login": true, "nicename": true, "display_name": true, "email": true,
}

func (b *Builder) orderBy(spec tableSpec, p domain.QueryParams) []string {
	if p.PreserveIDOrder && len(p.IDs) > 0 {
		// Los IDs son enteros: se incrustan sin riesgo de inyección.
		var sb strings.Builder
		sb.WriteString("CASE " + spec.table + ".id")
		for i, id := range p.IDs {
			fmt.Fprintf(&sb, " WHEN %d THEN %d", id, i)
		}
		sb.WriteString(" END")
		return []string{sb.String()}
	}

	var order []string
	if !p.IgnoreSticky && p.EntityType == domain.EntityPost {
		// La lectura invertida es el espejo exacto del orden normal, sticky incluido.
		sticky := "posts.sticky DESC"
		if p.Reverse {
			sticky = "posts.sticky ASC"
		}
		order = append(order, sticky)
	}
	s := p.EffectiveSort()
	if _, known := spec.filters[s.Field]; !known || !sortColumns[s.Field] {
		s = domain.DefaultSort(p.EntityType)
		if p.Reverse {
			s = s.Reversed()
		}
	}
	order = append(order,
		fmt.Sprintf("%s.%s %s", spec.table, s.Field, s.Direction()),
		fmt.Sprintf("%s.id %s", spec.table, s.Direction()))
	return order
}

// ---------------- Helpers ----------------

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike neutraliza los comodines de LIKE para buscar el texto literal.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func qualify(table string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = table + "." + c
	}
	return out
}

func toArgs(v interface{}) []interface{} {
	switch vs := v.(type) {
	case []string:
		out := make([]interface{}, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]interface{}, len(vs))
		for i, n := range vs {
			out[i] = n
		}
		return out
	case []interface{}:
		return vs
	case nil:
		return nil
	}
	return []interface{}{v}
}
