package query

// ---------- Tipos de paginación / ordenamiento ----------

// OffsetPagination para paginación clásica
type OffsetPagination struct {
	Limit  int
	Offset int
}

// Sort indica campo y dirección.
type Sort struct {
	Field string // ej. "date", "menu_order", "registered"
	Desc  bool
}

// Reversed devuelve el mismo campo con la dirección invertida.
func (s Sort) Reversed() Sort {
	return Sort{Field: s.Field, Desc: !s.Desc}
}

// Direction devuelve "DESC" o "ASC".
func (s Sort) Direction() string {
	if s.Desc {
		return "DESC"
	}
	return "ASC"
}
