package domain

import (
	"time"
)

// EntityType identifica el tipo de contenido servido por la API.
type EntityType string

const (
	EntityPost     EntityType = "post"
	EntityPage     EntityType = "page"
	EntityUser     EntityType = "user"
	EntityMenuItem EntityType = "nav_menu_item"
)

// PostLike indica si el tipo vive en la tabla de posts.
func (t EntityType) PostLike() bool {
	return t == EntityPost || t == EntityPage
}

// Capacidades que consultan las proyecciones.
const (
	CapEditOthersPosts  = "edit_others_posts"
	CapReadPrivatePosts = "read_private_posts"
	CapListUsers        = "list_users"
)

const StatusPublish = "publish"

// Viewer es quien hace la petición.
type Viewer struct {
	UserID       int64
	Capabilities map[string]bool
}

func (v Viewer) Can(capability string) bool {
	return v.Capabilities[capability]
}

func (v Viewer) IsAnonymous() bool {
	return v.UserID == 0
}

// Entity es un registro crudo del almacén de contenido.
// VisibleFields devuelve false si el viewer no puede ver la entidad en absoluto.
type Entity interface {
	EntityID() int64
	Type() EntityType
	VisibleFields(v Viewer) (map[string]interface{}, bool)
}

// ---------------- Post ----------------

// Post cubre posts y páginas.
type Post struct {
	ID        int64      `json:"id"`
	PostType  EntityType `json:"post_type"`
	Status    string     `json:"status"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Content   string     `json:"content"`
	Excerpt   string     `json:"excerpt"`
	AuthorID  int64      `json:"author_id"`
	ParentID  int64      `json:"parent_id"`
	MenuOrder int        `json:"menu_order"`
	Password  string     `json:"password"`
	Sticky    bool       `json:"sticky"`
	Date      time.Time  `json:"date"`
	Modified  time.Time  `json:"modified"`
}

func (p *Post) EntityID() int64  { return p.ID }
func (p *Post) Type() EntityType { return p.PostType }

func (p *Post) VisibleFields(v Viewer) (map[string]interface{}, bool) {
	owner := !v.IsAnonymous() && v.UserID == p.AuthorID
	editor := v.Can(CapEditOthersPosts)

	switch p.Status {
	case StatusPublish:
	case "private":
		if !owner && !v.Can(CapReadPrivatePosts) {
			return nil, false
		}
	default:
		if !owner && !editor {
			return nil, false
		}
	}

	fields := map[string]interface{}{
		"id":          p.ID,
		"type":        string(p.PostType),
		"status":      p.Status,
		"title":       p.Title,
		"slug":        p.Slug,
		"authorId":    p.AuthorID,
		"parentId":    p.ParentID,
		"menuOrder":   p.MenuOrder,
		"sticky":      p.Sticky,
		"hasPassword": p.Password != "",
		"date":        p.Date,
		"modified":    p.Modified,
	}
	// El contenido protegido por contraseña solo lo ven autor y editores.
	if p.Password == "" || owner || editor {
		fields["content"] = p.Content
		fields["excerpt"] = p.Excerpt
	}
	return fields, true
}

// ---------------- User ----------------

type User struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	Nicename    string    `json:"nicename"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Roles       []string  `json:"roles"`
	Registered  time.Time `json:"registered"`
}

func (u *User) EntityID() int64  { return u.ID }
func (u *User) Type() EntityType { return EntityUser }

func (u *User) VisibleFields(v Viewer) (map[string]interface{}, bool) {
	fields := map[string]interface{}{
		"id":          u.ID,
		"nicename":    u.Nicename,
		"displayName": u.DisplayName,
		"registered":  u.Registered,
	}
	if (!v.IsAnonymous() && v.UserID == u.ID) || v.Can(CapListUsers) {
		fields["login"] = u.Login
		fields["email"] = u.Email
		fields["roles"] = u.Roles
	}
	return fields, true
}

// ---------------- MenuItem ----------------

type MenuItem struct {
	ID         int64      `json:"id"`
	MenuID     int64      `json:"menu_id"`
	ParentID   int64      `json:"parent_id"`
	ObjectID   int64      `json:"object_id"`
	ObjectType EntityType `json:"object_type"`
	Label      string     `json:"label"`
	URL        string     `json:"url"`
	MenuOrder  int        `json:"menu_order"`
}

func (m *MenuItem) EntityID() int64  { return m.ID }
func (m *MenuItem) Type() EntityType { return EntityMenuItem }

func (m *MenuItem) VisibleFields(v Viewer) (map[string]interface{}, bool) {
	return map[string]interface{}{
		"id":         m.ID,
		"menuId":     m.MenuID,
		"parentId":   m.ParentID,
		"objectId":   m.ObjectID,
		"objectType": string(m.ObjectType),
		"label":      m.Label,
		"url":        m.URL,
		"menuOrder":  m.MenuOrder,
	}, true
}

// ---------------- Model ----------------

// Model es la vista de una entidad filtrada para un viewer concreto.
type Model struct {
	Entity Entity
	Fields map[string]interface{}
}

// Project aplica la proyección de capacidades. Devuelve nil si la entidad no es visible.
func Project(e Entity, v Viewer) *Model {
	if e == nil {
		return nil
	}
	fields, ok := e.VisibleFields(v)
	if !ok {
		return nil
	}
	return &Model{Entity: e, Fields: fields}
}

// Field devuelve el valor visible o nil.
func (m *Model) Field(name string) interface{} {
	if m == nil {
		return nil
	}
	return m.Fields[name]
}

// Verificación estática
var (
	_ Entity = (*Post)(nil)
	_ Entity = (*User)(nil)
	_ Entity = (*MenuItem)(nil)
)
