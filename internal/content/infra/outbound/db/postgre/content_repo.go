package postgre

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	"github.com/davicafu/contentql/internal/content/infra/outbound/db/sqlbuilder"
)

// ContentRepoPostgres implementa el DataSource para PostgreSQL.
type ContentRepoPostgres struct {
	*sqlbuilder.Store
}

// NewContentRepoPostgres es el constructor del repositorio.
func NewContentRepoPostgres(db *sql.DB) *ContentRepoPostgres {
	return &ContentRepoPostgres{Store: sqlbuilder.NewStore(db, sqlbuilder.Postgres)}
}

// ------------------ Inicialización del Esquema ------------------

var schema = []struct {
	name string
	stmt string
}{
	{"posts", `
    CREATE TABLE IF NOT EXISTS posts (
        id BIGINT PRIMARY KEY,
        post_type TEXT NOT NULL DEFAULT 'post',
        status TEXT NOT NULL DEFAULT 'publish',
        title TEXT NOT NULL DEFAULT '',
        slug TEXT NOT NULL DEFAULT '',
        content TEXT NOT NULL DEFAULT '',
        excerpt TEXT NOT NULL DEFAULT '',
        author_id BIGINT NOT NULL DEFAULT 0,
        parent_id BIGINT NOT NULL DEFAULT 0,
        menu_order INTEGER NOT NULL DEFAULT 0,
        password TEXT NOT NULL DEFAULT '',
        sticky BOOLEAN NOT NULL DEFAULT FALSE,
        date TIMESTAMP WITH TIME ZONE NOT NULL,
        modified TIMESTAMP WITH TIME ZONE NOT NULL
    )`},
	{"posts index", `CREATE INDEX IF NOT EXISTS idx_posts_type_status_date ON posts (post_type, status, date DESC)`},
	{"post_meta", `
    CREATE TABLE IF NOT EXISTS post_meta (
        post_id BIGINT NOT NULL,
        meta_key TEXT NOT NULL,
        meta_value TEXT NOT NULL DEFAULT ''
    )`},
	{"post_meta index", `CREATE INDEX IF NOT EXISTS idx_post_meta_key ON post_meta (meta_key, post_id)`},
	{"terms", `
    CREATE TABLE IF NOT EXISTS terms (
        id BIGINT PRIMARY KEY,
        taxonomy TEXT NOT NULL,
        name TEXT NOT NULL,
        slug TEXT NOT NULL,
        parent_id BIGINT NOT NULL DEFAULT 0
    )`},
	{"term_relationships", `
    CREATE TABLE IF NOT EXISTS term_relationships (
        object_id BIGINT NOT NULL,
        term_id BIGINT NOT NULL,
        PRIMARY KEY (object_id, term_id)
    )`},
	{"users", `
    CREATE TABLE IF NOT EXISTS users (
        id BIGINT PRIMARY KEY,
        login TEXT UNIQUE NOT NULL,
        nicename TEXT NOT NULL DEFAULT '',
        email TEXT NOT NULL DEFAULT '',
        display_name TEXT NOT NULL DEFAULT '',
        registered TIMESTAMP WITH TIME ZONE NOT NULL
    )`},
	{"user_roles", `
    CREATE TABLE IF NOT EXISTS user_roles (
        user_id BIGINT NOT NULL,
        role TEXT NOT NULL,
        PRIMARY KEY (user_id, role)
    )`},
	{"menus", `
    CREATE TABLE IF NOT EXISTS menus (
        id BIGINT PRIMARY KEY,
        name TEXT NOT NULL
    )`},
	{"menu_locations", `
    CREATE TABLE IF NOT EXISTS menu_locations (
        location TEXT PRIMARY KEY,
        menu_id BIGINT NOT NULL
    )`},
	{"menu_items", `
    CREATE TABLE IF NOT EXISTS menu_items (
        id BIGINT PRIMARY KEY,
        menu_id BIGINT NOT NULL,
        parent_id BIGINT NOT NULL DEFAULT 0,
        object_id BIGINT NOT NULL DEFAULT 0,
        object_type TEXT NOT NULL DEFAULT '',
        label TEXT NOT NULL DEFAULT '',
        url TEXT NOT NULL DEFAULT '',
        menu_order INTEGER NOT NULL DEFAULT 0
    )`},
}

// InitPostgres crea las tablas de contenido si no existen.
func InitPostgres(db *sql.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.stmt); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}
