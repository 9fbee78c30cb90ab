package domain

import (
	"time"

	sharedDomain "github.com/davicafu/contentql/internal/shared/domain"
	sharedQuery "github.com/davicafu/contentql/internal/shared/infra/platform/query"
)

// ---------- Filas nativas de taxonomía / meta / fecha ----------

// TaxOpAnd exige que el objeto tenga todos los términos.
const TaxOpAnd sharedDomain.Operator = "AND"

// TaxRow filtra por términos de una taxonomía.
type TaxRow struct {
	Taxonomy        string
	Field           string // term_id | name | slug
	Terms           []string
	IncludeChildren bool
	Operator        sharedDomain.Operator // IN | NOT IN | AND | EXISTS | NOT EXISTS
}

// MetaRow compara un valor de metadatos.
type MetaRow struct {
	Key     string
	Value   interface{}
	Compare sharedDomain.Operator
	Type    string // CHAR | NUMERIC | DATE ...
}

// DateRow acota por fecha. Column es "date" o "modified".
type DateRow struct {
	Column    string
	After     *time.Time
	Before    *time.Time
	Inclusive bool
	Year      int
	Month     int
	Day       int
}

// FilterGroup es un grupo de condiciones con relación AND/OR.
// Relation vacía significa la combinación por defecto del almacén (AND).
type FilterGroup[R any] struct {
	Relation sharedDomain.LogicalOperator
	Rows     []R
	Groups   []FilterGroup[R]
}

// Len cuenta las entradas de este nivel (filas y subgrupos).
func (g FilterGroup[R]) Len() int {
	return len(g.Rows) + len(g.Groups)
}

// Combinator devuelve la relación efectiva.
func (g FilterGroup[R]) Combinator() sharedDomain.LogicalOperator {
	if g.Relation == sharedDomain.OpOr {
		return sharedDomain.OpOr
	}
	return sharedDomain.OpAnd
}

// ---------- QueryParams ----------

// QueryParams es el conjunto de parámetros que recibe el DataSource.
// Se construye en cada petición y no se conserva.
type QueryParams struct {
	EntityType EntityType
	Statuses   []string

	Pagination sharedQuery.OffsetPagination
	Sort       sharedQuery.Sort
	// Reverse lee en sentido contrario a Sort (páginas hacia atrás sin "before").
	Reverse bool

	// Condiciones planas, siempre combinadas con AND.
	Conditions []sharedDomain.Criterion
	// Filtros de categoría/etiqueta, siempre combinados con AND.
	Terms  []TaxRow
	Search string

	TaxQuery  *FilterGroup[TaxRow]
	MetaQuery *FilterGroup[MetaRow]
	DateQuery *FilterGroup[DateRow]

	// Conjunto de identificadores; con PreserveIDOrder el resultado sigue su orden.
	IDs             []int64
	PreserveIDOrder bool

	CountTotal   bool
	IgnoreSticky bool

	// Campos libres que pueden añadir los hooks.
	Extra map[string]interface{}
}

// AddCondition añade una condición plana.
func (p *QueryParams) AddCondition(field string, op sharedDomain.Operator, value interface{}) {
	p.Conditions = append(p.Conditions, sharedDomain.Criterion{Field: field, Op: op, Value: value})
}

// ToConditions implementa sharedDomain.Criteria.
func (p QueryParams) ToConditions() []sharedDomain.Criterion {
	return p.Conditions
}

// QueryResult es lo que devuelve el DataSource.
// Total solo viene informado si se pidió CountTotal.
type QueryResult struct {
	Records []Entity
	Total   *int
}

// EffectiveSort devuelve el orden real de lectura.
func (p QueryParams) EffectiveSort() sharedQuery.Sort {
	s := p.Sort
	if s.Field == "" {
		s = DefaultSort(p.EntityType)
	}
	if p.Reverse {
		return s.Reversed()
	}
	return s
}

// DefaultSort es el orden canónico de cada tipo.
func DefaultSort(t EntityType) sharedQuery.Sort {
	switch t {
	case EntityUser:
		return sharedQuery.Sort{Field: "registered", Desc: true}
	case EntityMenuItem:
		return sharedQuery.Sort{Field: "menu_order", Desc: false}
	default:
		return sharedQuery.Sort{Field: "date", Desc: true}
	}
}

var _ sharedDomain.Criteria = QueryParams{}
