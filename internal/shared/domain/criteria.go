package domain

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq         Operator = "="
	OpNe         Operator = "!="
	OpGt         Operator = ">"
	OpGte        Operator = ">="
	OpLt         Operator = "<"
	OpLte        Operator = "<="
	OpLike       Operator = "LIKE"
	OpNotLike    Operator = "NOT LIKE"
	OpILike      Operator = "ILIKE"
	OpIn         Operator = "IN"
	OpNotIn      Operator = "NOT IN"
	OpBetween    Operator = "BETWEEN"
	OpNotBetween Operator = "NOT BETWEEN"
	OpExists     Operator = "EXISTS"
	OpNotExists  Operator = "NOT EXISTS"
)

// Valid indica si el operador está en la lista conocida.
func (o Operator) Valid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpLike, OpNotLike, OpILike,
		OpIn, OpNotIn, OpBetween, OpNotBetween, OpExists, OpNotExists:
		return true
	}
	return false
}

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado.
// Para OpIn/OpNotIn Value es un slice; para OpBetween un slice de dos elementos.
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

// ---------------- Criteria interface ----------------

// Criteria permite transformar filtros a condiciones neutrales
type Criteria interface {
	ToConditions() []Criterion
}
