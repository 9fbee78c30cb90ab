package sqlbuilder

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Dialect recoge lo poco que cambia entre SQLite y PostgreSQL.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// CaseInsensitiveLike es el operador para búsquedas sin mayúsculas.
	CaseInsensitiveLike string
	// NumericType es el tipo al que se convierte meta_value en comparaciones numéricas.
	NumericType string
	// DatePart extrae year/month/day de una columna como entero.
	DatePart func(part, column string) string
	// TimeArg adapta un time.Time a lo que espera el driver.
	TimeArg func(t time.Time) interface{}
}

// TimeLayout es el formato de fechas almacenadas como texto en SQLite.
const TimeLayout = "2006-01-02 15:04:05"

var SQLite = Dialect{
	Name:                "sqlite",
	Placeholder:         sq.Question,
	CaseInsensitiveLike: "LIKE",
	NumericType:         "REAL",
	DatePart: func(part, column string) string {
		format := map[string]string{"year": "%Y", "month": "%m", "day": "%d"}[part]
		return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", format, column)
	},
	TimeArg: func(t time.Time) interface{} {
		return t.UTC().Format(TimeLayout)
	},
}

var Postgres = Dialect{
	Name:                "postgres",
	Placeholder:         sq.Dollar,
	CaseInsensitiveLike: "ILIKE",
	NumericType:         "NUMERIC",
	DatePart: func(part, column string) string {
		return fmt.Sprintf("EXTRACT(%s FROM %s)::int", part, column)
	},
	TimeArg: func(t time.Time) interface{} {
		return t.UTC()
	},
}
