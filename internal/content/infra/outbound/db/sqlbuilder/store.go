package sqlbuilder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/davicafu/contentql/internal/content/domain"
)

// Store implementa domain.DataSource sobre database/sql con un dialecto concreto.
type Store struct {
	db *sql.DB
	b  *Builder
}

func NewStore(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, b: New(d)}
}

var _ domain.DataSource = (*Store)(nil)

func (s *Store) Query(ctx context.Context, p domain.QueryParams) (domain.QueryResult, error) {
	query, args, err := s.b.Select(p)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("build %s query: %w", p.EntityType, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("query %s: %w", p.EntityType, err)
	}
	defer rows.Close()

	var records []domain.Entity
	for rows.Next() {
		e, err := scanEntity(p.EntityType, rows)
		if err != nil {
			return domain.QueryResult{}, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return domain.QueryResult{}, err
	}

	if p.EntityType == domain.EntityUser && len(records) > 0 {
		if err := s.attachRoles(ctx, records); err != nil {
			return domain.QueryResult{}, err
		}
	}

	result := domain.QueryResult{Records: records}
	if p.CountTotal {
		total, err := s.count(ctx, p)
		if err != nil {
			return domain.QueryResult{}, err
		}
		result.Total = &total
	}
	return result, nil
}

func (s *Store) count(ctx context.Context, p domain.QueryParams) (int, error) {
	query, args, err := s.b.Count(p)
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", p.EntityType, err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", p.EntityType, err)
	}
	return total, nil
}

func (s *Store) attachRoles(ctx context.Context, records []domain.Entity) error {
	byID := make(map[int64]*domain.User, len(records))
	ids := make([]int64, 0, len(records))
	for _, e := range records {
		u := e.(*domain.User)
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	query, args, err := sq.Select("user_id", "role").
		From("user_roles").
		Where(sq.Eq{"user_id": ids}).
		OrderBy("user_id", "role").
		PlaceholderFormat(s.b.d.Placeholder).
		ToSql()
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var role string
		if err := rows.Scan(&id, &role); err != nil {
			return err
		}
		if u, ok := byID[id]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return rows.Err()
}

// ---------------- Escaneo ----------------

func scanEntity(t domain.EntityType, rows *sql.Rows) (domain.Entity, error) {
	switch {
	case t.PostLike():
		var p domain.Post
		var postType string
		err := rows.Scan(&p.ID, &postType, &p.Status, &p.Title, &p.Slug, &p.Content, &p.Excerpt,
			&p.AuthorID, &p.ParentID, &p.MenuOrder, &p.Password, &p.Sticky,
			timeValue{&p.Date}, timeValue{&p.Modified})
		p.PostType = domain.EntityType(postType)
		return &p, err
	case t == domain.EntityUser:
		var u domain.User
		err := rows.Scan(&u.ID, &u.Login, &u.Nicename, &u.Email, &u.DisplayName, timeValue{&u.Registered})
		return &u, err
	case t == domain.EntityMenuItem:
		var m domain.MenuItem
		var objectType string
		err := rows.Scan(&m.ID, &m.MenuID, &m.ParentID, &m.ObjectID, &objectType, &m.Label, &m.URL, &m.MenuOrder)
		m.ObjectType = domain.EntityType(objectType)
		return &m, err
	}
	return nil, fmt.Errorf("unknown entity type %q", t)
}

// timeValue acepta fechas como time.Time (pgx) o como texto (SQLite).
type timeValue struct {
	t *time.Time
}

func (v timeValue) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v.t = time.Time{}
	case time.Time:
		*v.t = s.UTC()
	case string:
		return v.parse(s)
	case []byte:
		return v.parse(string(s))
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}

func (v timeValue) parse(s string) error {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*v.t = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid time %q", s)
}
