package sqlite

import (
	"database/sql"

	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	"github.com/davicafu/contentql/internal/content/infra/outbound/db/sqlbuilder"
)

// ContentRepoSQLite es el DataSource sobre SQLite. Las fechas se guardan como
// texto UTC en formato sqlbuilder.TimeLayout.
type ContentRepoSQLite struct {
	*sqlbuilder.Store
}

func NewContentRepoSQLite(db *sql.DB) *ContentRepoSQLite {
	return &ContentRepoSQLite{Store: sqlbuilder.NewStore(db, sqlbuilder.SQLite)}
}

// ------------------ Inicialización de DB ------------------

var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY,
		post_type TEXT NOT NULL DEFAULT 'post',
		status TEXT NOT NULL DEFAULT 'publish',
		title TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		author_id INTEGER NOT NULL DEFAULT 0,
		parent_id INTEGER NOT NULL DEFAULT 0,
		menu_order INTEGER NOT NULL DEFAULT 0,
		password TEXT NOT NULL DEFAULT '',
		sticky INTEGER NOT NULL DEFAULT 0,
		date TEXT NOT NULL,
		modified TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_type_status_date ON posts (post_type, status, date)`,
	`CREATE TABLE IF NOT EXISTS post_meta (
		post_id INTEGER NOT NULL,
		meta_key TEXT NOT NULL,
		meta_value TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_post_meta_key ON post_meta (meta_key, post_id)`,
	`CREATE TABLE IF NOT EXISTS terms (
		id INTEGER PRIMARY KEY,
		taxonomy TEXT NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		parent_id INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS term_relationships (
		object_id INTEGER NOT NULL,
		term_id INTEGER NOT NULL,
		PRIMARY KEY (object_id, term_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		login TEXT UNIQUE NOT NULL,
		nicename TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		registered TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		PRIMARY KEY (user_id, role)
	)`,
	`CREATE TABLE IF NOT EXISTS menus (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS menu_locations (
		location TEXT PRIMARY KEY,
		menu_id INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id INTEGER PRIMARY KEY,
		menu_id INTEGER NOT NULL,
		parent_id INTEGER NOT NULL DEFAULT 0,
		object_id INTEGER NOT NULL DEFAULT 0,
		object_type TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		menu_order INTEGER NOT NULL DEFAULT 0
	)`,
}

// InitSQLite crea las tablas de contenido si no existen.
func InitSQLite(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
