package application

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedDomain "github.com/davicafu/contentql/internal/shared/domain"
	sharedQuery "github.com/davicafu/contentql/internal/shared/infra/platform/query"
)

// HookInput es lo que recibe un ArgsHook además de los parámetros.
type HookInput struct {
	EntityType domain.EntityType
	Where      domain.WhereArgs
	Viewer     domain.Viewer
}

// ArgsHook puede añadir o sobrescribir campos de los parámetros finales.
type ArgsHook func(ctx context.Context, params *domain.QueryParams, in HookInput)

// ArgsTranslator traduce el input "where" de GraphQL a QueryParams.
// Es tolerante: lo que no entiende lo ignora y lo inválido lo coerciona.
type ArgsTranslator struct {
	hooks []ArgsHook
	log   *zap.Logger
}

func NewArgsTranslator(log *zap.Logger, hooks ...ArgsHook) *ArgsTranslator {
	return &ArgsTranslator{hooks: hooks, log: log}
}

type whereMapper func(p *domain.QueryParams, v interface{})

// Translate mezcla el where traducido sobre base y ejecuta los hooks al final.
func (t *ArgsTranslator) Translate(ctx context.Context, base domain.QueryParams, where domain.WhereArgs, viewer domain.Viewer) domain.QueryParams {
	params := base
	if params.EntityType.PostLike() && len(params.Statuses) == 0 {
		params.Statuses = []string{domain.StatusPublish}
	}

	allowed := allowList(params.EntityType)
	for key, value := range where {
		mapper, ok := allowed[key]
		if !ok {
			t.log.Debug("Ignoring unsupported where field",
				zap.String("entity_type", string(params.EntityType)),
				zap.String("field", key))
			continue
		}
		if value == nil {
			continue
		}
		mapper(&params, value)
	}

	for _, hook := range t.hooks {
		hook(ctx, &params, HookInput{EntityType: params.EntityType, Where: where, Viewer: viewer})
	}
	return params
}

// ---------------- Allow-lists ----------------

func allowList(t domain.EntityType) map[string]whereMapper {
	switch {
	case t.PostLike():
		return postWhere
	case t == domain.EntityUser:
		return userWhere
	case t == domain.EntityMenuItem:
		return menuItemWhere
	}
	return nil
}

var postWhere = map[string]whereMapper{
	"id":          idCondition("id", sharedDomain.OpEq),
	"in":          idsCondition("id", sharedDomain.OpIn),
	"notIn":       idsCondition("id", sharedDomain.OpNotIn),
	"name":        stringCondition("slug", sharedDomain.OpEq),
	"nameIn":      stringsCondition("slug", sharedDomain.OpIn),
	"title":       stringCondition("title", sharedDomain.OpEq),
	"search":      search,
	"parent":      idCondition("parent_id", sharedDomain.OpEq),
	"parentIn":    idsCondition("parent_id", sharedDomain.OpIn),
	"parentNotIn": idsCondition("parent_id", sharedDomain.OpNotIn),
	"author":      idCondition("author_id", sharedDomain.OpEq),
	"authorIn":    idsCondition("author_id", sharedDomain.OpIn),
	"authorNotIn": idsCondition("author_id", sharedDomain.OpNotIn),
	"authorName":  stringCondition("author_nicename", sharedDomain.OpEq),

	"categoryId":    termIDs("category", sharedDomain.OpIn, true),
	"categoryIn":    termIDs("category", sharedDomain.OpIn, true),
	"categoryNotIn": termIDs("category", sharedDomain.OpNotIn, true),
	"categoryName":  termSlugs("category", sharedDomain.OpIn, true),
	"tagId":         termIDs("post_tag", sharedDomain.OpIn, false),
	"tagIn":         termIDs("post_tag", sharedDomain.OpIn, false),
	"tagNotIn":      termIDs("post_tag", sharedDomain.OpNotIn, false),
	"tag":           termSlugs("post_tag", sharedDomain.OpIn, false),
	"tagSlugIn":     termSlugs("post_tag", sharedDomain.OpIn, false),
	"tagSlugAnd":    termSlugs("post_tag", domain.TaxOpAnd, false),

	"hasPassword": hasPassword,
	"status":      statuses,
	"stati":       statuses,
	"dateQuery":   dateQuery,
	"taxQuery":    taxQuery,
	"metaQuery":   metaQuery,
	"orderby":     orderBy(postSortFields),
}

var userWhere = map[string]whereMapper{
	"include":           idsCondition("id", sharedDomain.OpIn),
	"exclude":           idsCondition("id", sharedDomain.OpNotIn),
	"search":            search,
	"role":              stringCondition("role", sharedDomain.OpEq),
	"roleIn":            stringsCondition("role", sharedDomain.OpIn),
	"roleNotIn":         stringsCondition("role", sharedDomain.OpNotIn),
	"login":             stringCondition("login", sharedDomain.OpEq),
	"loginIn":           stringsCondition("login", sharedDomain.OpIn),
	"nicename":          stringCondition("nicename", sharedDomain.OpEq),
	"nicenameIn":        stringsCondition("nicename", sharedDomain.OpIn),
	"hasPublishedPosts": hasPublishedPosts,
	"orderby":           orderBy(userSortFields),
}

var menuItemWhere = map[string]whereMapper{
	"id":       idCondition("id", sharedDomain.OpEq),
	"in":       idsCondition("id", sharedDomain.OpIn),
	"notIn":    idsCondition("id", sharedDomain.OpNotIn),
	"location": stringCondition("location", sharedDomain.OpEq),
	"parentId": idCondition("parent_id", sharedDomain.OpEq),
	"orderby":  orderBy(menuItemSortFields),
}

var postSortFields = map[string]string{
	"DATE":       "date",
	"MODIFIED":   "modified",
	"TITLE":      "title",
	"SLUG":       "slug",
	"MENU_ORDER": "menu_order",
	"AUTHOR":     "author_id",
	"PARENT":     "parent_id",
	"ID":         "id",
}

var userSortFields = map[string]string{
	"REGISTERED":   "registered",
	"LOGIN":        "login",
	"NICENAME":     "nicename",
	"DISPLAY_NAME": "display_name",
	"EMAIL":        "email",
	"ID":           "id",
}

var menuItemSortFields = map[string]string{
	"MENU_ORDER": "menu_order",
	"ID":         "id",
}

// ---------------- Mappers planos ----------------

func idCondition(field string, op sharedDomain.Operator) whereMapper {
	return func(p *domain.QueryParams, v interface{}) {
		if id, ok := toUint(v); ok {
			p.AddCondition(field, op, id)
		}
	}
}

func idsCondition(field string, op sharedDomain.Operator) whereMapper {
	return func(p *domain.QueryParams, v interface{}) {
		if ids := toUints(v); len(ids) > 0 {
			p.AddCondition(field, op, ids)
		}
	}
}

func stringCondition(field string, op sharedDomain.Operator) whereMapper {
	return func(p *domain.QueryParams, v interface{}) {
		if s, ok := v.(string); ok && s != "" {
			p.AddCondition(field, op, s)
		}
	}
}

func stringsCondition(field string, op sharedDomain.Operator) whereMapper {
	return func(p *domain.QueryParams, v interface{}) {
		if list := toStrings(v); len(list) > 0 {
			p.AddCondition(field, op, list)
		}
	}
}

func search(p *domain.QueryParams, v interface{}) {
	if s, ok := v.(string); ok {
		p.Search = strings.TrimSpace(s)
	}
}

func hasPassword(p *domain.QueryParams, v interface{}) {
	b, ok := v.(bool)
	if !ok {
		return
	}
	if b {
		p.AddCondition("password", sharedDomain.OpNe, "")
	} else {
		p.AddCondition("password", sharedDomain.OpEq, "")
	}
}

func statuses(p *domain.QueryParams, v interface{}) {
	if list := toStrings(v); len(list) > 0 {
		for i := range list {
			list[i] = strings.ToLower(list[i])
		}
		p.Statuses = list
	}
}

func hasPublishedPosts(p *domain.QueryParams, v interface{}) {
	switch val := v.(type) {
	case bool:
		if val {
			p.AddCondition("has_published_posts", sharedDomain.OpIn, []string{string(domain.EntityPost)})
		}
	default:
		if types := toStrings(v); len(types) > 0 {
			for i := range types {
				types[i] = strings.ToLower(types[i])
			}
			p.AddCondition("has_published_posts", sharedDomain.OpIn, types)
		}
	}
}

func termIDs(taxonomy string, op sharedDomain.Operator, children bool) whereMapper {
	return func(p *domain.QueryParams, v interface{}) {
		ids := toUints(v)
		if len(ids) == 0 {
			return
		}
		terms := make([]string, 0, len(ids))
		for _, id := range ids {
			terms = append(terms, strconv.FormatInt(id, 10))
		}
		p.Terms = append(p.Terms, domain.TaxRow{
			Taxonomy: taxonomy, Field: "term_id", Terms: terms, IncludeChildren: children, Operator: op,
		})
	}
}

func termSlugs(taxonomy string, op sharedDomain.Operator, children bool) whereMapper {
	return func(p *domain.QueryParams, v interface{}) {
		slugs := toStrings(v)
		if len(slugs) == 0 {
			return
		}
		p.Terms = append(p.Terms, domain.TaxRow{
			Taxonomy: taxonomy, Field: "slug", Terms: slugs, IncludeChildren: children, Operator: op,
		})
	}
}

func orderBy(fields map[string]string) whereMapper {
	return func(p *domain.QueryParams, v interface{}) {
		spec, ok := v.(map[string]interface{})
		if !ok {
			// También se acepta una lista; solo cuenta el primer criterio.
			if list, isList := v.([]interface{}); isList && len(list) > 0 {
				spec, ok = list[0].(map[string]interface{})
			}
		}
		if !ok {
			return
		}
		name, _ := spec["field"].(string)
		column, known := fields[strings.ToUpper(name)]
		if !known {
			return
		}
		order, _ := spec["order"].(string)
		p.Sort = sharedQuery.Sort{Field: column, Desc: !strings.EqualFold(order, "ASC")}
	}
}

// ---------------- Grupos anidados ----------------

// groupRelation conserva la relación solo si el nivel tiene como mucho 2 entradas;
// con más, se descarta y el almacén aplica su combinación por defecto.
func groupRelation(entries int, raw interface{}) sharedDomain.LogicalOperator {
	if entries > 2 {
		return ""
	}
	s, _ := raw.(string)
	switch strings.ToUpper(s) {
	case "OR":
		return sharedDomain.OpOr
	case "AND":
		return sharedDomain.OpAnd
	}
	return ""
}

func taxQuery(p *domain.QueryParams, v interface{}) {
	if g, ok := buildTaxGroup(v); ok {
		p.TaxQuery = &g
	}
}

func buildTaxGroup(v interface{}) (domain.FilterGroup[domain.TaxRow], bool) {
	var group domain.FilterGroup[domain.TaxRow]
	in, ok := v.(map[string]interface{})
	if !ok {
		return group, false
	}
	entries, _ := in["taxArray"].([]interface{})
	if len(entries) == 0 {
		return group, false
	}
	group.Relation = groupRelation(len(entries), in["relation"])

	for _, raw := range entries {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if _, nested := entry["taxArray"]; nested {
			if sub, ok := buildTaxGroup(entry); ok {
				group.Groups = append(group.Groups, sub)
			}
			continue
		}
		if row, ok := taxRow(entry); ok {
			group.Rows = append(group.Rows, row)
		}
	}
	return group, group.Len() > 0
}

func taxRow(in map[string]interface{}) (domain.TaxRow, bool) {
	taxonomy, _ := in["taxonomy"].(string)
	if taxonomy == "" {
		return domain.TaxRow{}, false
	}
	row := domain.TaxRow{
		Taxonomy:        strings.ToLower(taxonomy),
		Field:           "term_id",
		Terms:           toStrings(in["terms"]),
		IncludeChildren: true,
		Operator:        sharedDomain.OpIn,
	}
	if f, ok := in["field"].(string); ok {
		switch strings.ToUpper(f) {
		case "NAME":
			row.Field = "name"
		case "SLUG":
			row.Field = "slug"
		}
	}
	if b, ok := in["includeChildren"].(bool); ok {
		row.IncludeChildren = b
	}
	if op, ok := in["operator"].(string); ok {
		switch normalized := sharedDomain.Operator(strings.ReplaceAll(strings.ToUpper(op), "_", " ")); normalized {
		case sharedDomain.OpIn, sharedDomain.OpNotIn, sharedDomain.OpExists, sharedDomain.OpNotExists, domain.TaxOpAnd:
			row.Operator = normalized
		}
	}
	needsTerms := row.Operator != sharedDomain.OpExists && row.Operator != sharedDomain.OpNotExists
	if needsTerms && len(row.Terms) == 0 {
		return domain.TaxRow{}, false
	}
	return row, true
}

func metaQuery(p *domain.QueryParams, v interface{}) {
	if g, ok := buildMetaGroup(v); ok {
		p.MetaQuery = &g
	}
}

func buildMetaGroup(v interface{}) (domain.FilterGroup[domain.MetaRow], bool) {
	var group domain.FilterGroup[domain.MetaRow]
	in, ok := v.(map[string]interface{})
	if !ok {
		return group, false
	}
	entries, _ := in["metaArray"].([]interface{})
	if len(entries) == 0 {
		return group, false
	}
	group.Relation = groupRelation(len(entries), in["relation"])

	for _, raw := range entries {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if _, nested := entry["metaArray"]; nested {
			if sub, ok := buildMetaGroup(entry); ok {
				group.Groups = append(group.Groups, sub)
			}
			continue
		}
		if row, ok := metaRow(entry); ok {
			group.Rows = append(group.Rows, row)
		}
	}
	return group, group.Len() > 0
}

var metaCompares = map[string]sharedDomain.Operator{
	"EQUAL_TO":                 sharedDomain.OpEq,
	"NOT_EQUAL_TO":             sharedDomain.OpNe,
	"GREATER_THAN":             sharedDomain.OpGt,
	"GREATER_THAN_OR_EQUAL_TO": sharedDomain.OpGte,
	"LESS_THAN":                sharedDomain.OpLt,
	"LESS_THAN_OR_EQUAL_TO":    sharedDomain.OpLte,
	"LIKE":                     sharedDomain.OpLike,
	"NOT_LIKE":                 sharedDomain.OpNotLike,
	"IN":                       sharedDomain.OpIn,
	"NOT_IN":                   sharedDomain.OpNotIn,
	"BETWEEN":                  sharedDomain.OpBetween,
	"NOT_BETWEEN":              sharedDomain.OpNotBetween,
	"EXISTS":                   sharedDomain.OpExists,
	"NOT_EXISTS":               sharedDomain.OpNotExists,
}

var metaTypes = map[string]bool{
	"NUMERIC": true, "BINARY": true, "CHAR": true, "DATE": true, "DATETIME": true,
	"DECIMAL": true, "SIGNED": true, "TIME": true, "UNSIGNED": true,
}

func metaRow(in map[string]interface{}) (domain.MetaRow, bool) {
	key, _ := in["key"].(string)
	if key == "" {
		return domain.MetaRow{}, false
	}
	row := domain.MetaRow{Key: key, Compare: sharedDomain.OpEq, Type: "CHAR"}

	if c, ok := in["compare"].(string); ok {
		upper := strings.ToUpper(c)
		if op, known := metaCompares[upper]; known {
			row.Compare = op
		} else if op := sharedDomain.Operator(upper); op.Valid() && op != sharedDomain.OpILike {
			row.Compare = op
		}
	}
	if typ, ok := in["type"].(string); ok && metaTypes[strings.ToUpper(typ)] {
		row.Type = strings.ToUpper(typ)
	}

	switch row.Compare {
	case sharedDomain.OpExists, sharedDomain.OpNotExists:
	case sharedDomain.OpIn, sharedDomain.OpNotIn:
		values := toStrings(in["value"])
		if len(values) == 0 {
			return domain.MetaRow{}, false
		}
		row.Value = values
	case sharedDomain.OpBetween, sharedDomain.OpNotBetween:
		values := toStrings(in["value"])
		if len(values) != 2 {
			return domain.MetaRow{}, false
		}
		row.Value = values
	default:
		row.Value = toScalarString(in["value"])
	}
	return row, true
}

func dateQuery(p *domain.QueryParams, v interface{}) {
	in, ok := v.(map[string]interface{})
	if !ok {
		return
	}
	row := domain.DateRow{Column: "date"}
	if col, ok := in["column"].(string); ok && strings.EqualFold(col, "MODIFIED") {
		row.Column = "modified"
	}
	row.After = toDate(in["after"])
	row.Before = toDate(in["before"])
	if b, ok := in["inclusive"].(bool); ok {
		row.Inclusive = b
	}
	if n, ok := toUint(in["year"]); ok {
		row.Year = int(n)
	}
	if n, ok := toUint(in["month"]); ok && n <= 12 {
		row.Month = int(n)
	}
	if n, ok := toUint(in["day"]); ok && n <= 31 {
		row.Day = int(n)
	}
	if row.After == nil && row.Before == nil && row.Year == 0 && row.Month == 0 && row.Day == 0 {
		return
	}
	p.DateQuery = &domain.FilterGroup[domain.DateRow]{
		Relation: groupRelation(1, in["relation"]),
		Rows:     []domain.DateRow{row},
	}
}

// ---------------- Coerción ----------------

// toUint coerciona a entero sin signo; negativos, cero o no numéricos son ausencia.
func toUint(v interface{}) (int64, bool) {
	var n int64
	switch val := v.(type) {
	case int:
		n = int64(val)
	case int32:
		n = int64(val)
	case int64:
		n = val
	case float64:
		n = int64(val)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

func toUints(v interface{}) []int64 {
	var out []int64
	add := func(x interface{}) {
		if n, ok := toUint(x); ok {
			out = append(out, n)
		}
	}
	switch val := v.(type) {
	case []interface{}:
		for _, x := range val {
			add(x)
		}
	case []int64:
		for _, x := range val {
			add(x)
		}
	case []int:
		for _, x := range val {
			add(x)
		}
	case []string:
		for _, x := range val {
			add(x)
		}
	case string:
		for _, x := range strings.Split(val, ",") {
			add(x)
		}
	default:
		add(v)
	}
	return out
}

func toStrings(v interface{}) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch val := v.(type) {
	case []interface{}:
		for _, x := range val {
			if s := toScalarString(x); s != "" {
				add(s)
			}
		}
	case []string:
		for _, x := range val {
			add(x)
		}
	case string:
		for _, x := range strings.Split(val, ",") {
			add(x)
		}
	case int, int64, float64:
		add(toScalarString(val))
	}
	return out
}

func toScalarString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func toDate(v interface{}) *time.Time {
	in, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	year, ok := toUint(in["year"])
	if !ok {
		return nil
	}
	month, ok := toUint(in["month"])
	if !ok || month > 12 {
		month = 1
	}
	day, ok := toUint(in["day"])
	if !ok || day > 31 {
		day = 1
	}
	d := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	return &d
}
