package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedDomain "github.com/davicafu/contentql/internal/shared/domain"
)

// InMemorySource simula un DataSource sobre una lista de entidades.
// Entiende condiciones planas, estados, IDs, orden y paginación;
// ignora grupos de taxonomía, meta y fecha.
type InMemorySource struct {
	Records []domain.Entity
	// Calls guarda los parámetros de cada consulta, en orden.
	Calls []domain.QueryParams
	// Err, si no es nil, se devuelve en todas las consultas.
	Err error
	mu  sync.Mutex
}

var _ domain.DataSource = (*InMemorySource)(nil)

func NewInMemorySource(records ...domain.Entity) *InMemorySource {
	return &InMemorySource{Records: records}
}

// CallCount devuelve cuántas consultas se han hecho.
func (s *InMemorySource) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// LastCall devuelve los parámetros de la última consulta.
func (s *InMemorySource) LastCall() domain.QueryParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Calls) == 0 {
		return domain.QueryParams{}
	}
	return s.Calls[len(s.Calls)-1]
}

func (s *InMemorySource) Query(ctx context.Context, p domain.QueryParams) (domain.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, p)
	if s.Err != nil {
		return domain.QueryResult{}, s.Err
	}

	var list []domain.Entity
	for _, e := range s.Records {
		if e.Type() != p.EntityType {
			continue
		}
		if !matchStatus(e, p.Statuses) || !matchIDs(e, p.IDs) {
			continue
		}
		matchesAll := true
		for _, cond := range p.Conditions {
			if !matchCriterion(e, cond) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			list = append(list, e)
		}
	}

	if p.PreserveIDOrder && len(p.IDs) > 0 {
		pos := make(map[int64]int, len(p.IDs))
		for i, id := range p.IDs {
			if _, seen := pos[id]; !seen {
				pos[id] = i
			}
		}
		sort.SliceStable(list, func(i, j int) bool {
			return pos[list[i].EntityID()] < pos[list[j].EntityID()]
		})
	} else {
		st := p.EffectiveSort()
		sticky := !p.IgnoreSticky && p.EntityType == domain.EntityPost
		sort.SliceStable(list, func(i, j int) bool {
			// Los fijados van primero; en la lectura invertida, al final.
			if sticky {
				if si, sj := isSticky(list[i]), isSticky(list[j]); si != sj {
					return si != p.Reverse
				}
			}
			c := compareValues(fieldValue(list[i], st.Field), fieldValue(list[j], st.Field))
			if c == 0 {
				c = compareValues(list[i].EntityID(), list[j].EntityID())
			}
			if st.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	var result domain.QueryResult
	if p.CountTotal {
		total := len(list)
		result.Total = &total
	}

	// paginación
	start := p.Pagination.Offset
	if start > len(list) {
		start = len(list)
	}
	end := len(list)
	if p.Pagination.Limit > 0 && start+p.Pagination.Limit < end {
		end = start + p.Pagination.Limit
	}
	result.Records = append([]domain.Entity{}, list[start:end]...)
	return result, nil
}

func isSticky(e domain.Entity) bool {
	post, ok := e.(*domain.Post)
	return ok && post.Sticky
}

func matchStatus(e domain.Entity, statuses []string) bool {
	post, ok := e.(*domain.Post)
	if !ok || len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if post.Status == s {
			return true
		}
	}
	return false
}

func matchIDs(e domain.Entity, ids []int64) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if e.EntityID() == id {
			return true
		}
	}
	return false
}

// matchCriterion evalúa un Criterion contra una entidad en memoria.
// Los campos que la entidad no tiene no filtran.
func matchCriterion(e domain.Entity, crit sharedDomain.Criterion) bool {
	actual := fieldValue(e, crit.Field)
	if actual == nil {
		return true
	}

	switch crit.Op {
	case sharedDomain.OpEq:
		return compareValues(actual, crit.Value) == 0
	case sharedDomain.OpNe:
		return compareValues(actual, crit.Value) != 0
	case sharedDomain.OpIn:
		return inList(actual, crit.Value)
	case sharedDomain.OpNotIn:
		return !inList(actual, crit.Value)
	case sharedDomain.OpGt:
		return compareValues(actual, crit.Value) > 0
	case sharedDomain.OpLt:
		return compareValues(actual, crit.Value) < 0
	}
	return true
}

func inList(actual interface{}, list interface{}) bool {
	switch vs := list.(type) {
	case []int64:
		for _, v := range vs {
			if compareValues(actual, v) == 0 {
				return true
			}
		}
	case []string:
		for _, v := range vs {
			if compareValues(actual, v) == 0 {
				return true
			}
		}
	}
	return false
}

func fieldValue(e domain.Entity, field string) interface{} {
	switch v := e.(type) {
	case *domain.Post:
		switch field {
		case "id":
			return v.ID
		case "date":
			return v.Date
		case "modified":
			return v.Modified
		case "title":
			return v.Title
		case "slug":
			return v.Slug
		case "menu_order":
			return int64(v.MenuOrder)
		case "author_id":
			return v.AuthorID
		case "parent_id":
			return v.ParentID
		case "password":
			return v.Password
		}
	case *domain.User:
		switch field {
		case "id":
			return v.ID
		case "registered":
			return v.Registered
		case "login":
			return v.Login
		case "nicename":
			return v.Nicename
		case "display_name":
			return v.DisplayName
		case "email":
			return v.Email
		}
	case *domain.MenuItem:
		switch field {
		case "id":
			return v.ID
		case "menu_order":
			return int64(v.MenuOrder)
		case "parent_id":
			return v.ParentID
		}
	}
	return nil
}

func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case int64:
		var bv int64
		switch x := b.(type) {
		case int64:
			bv = x
		case int:
			bv = int64(x)
		default:
			return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return -1
		}
		return av.Compare(bv)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// ---------------- Fixtures ----------------

// Posts crea n posts publicados con fechas descendentes por ID:
// el ID n es el más reciente, así que el orden canónico es n, n-1, ..., 1.
func Posts(n int) []domain.Entity {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Entity, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &domain.Post{
			ID:       int64(i),
			PostType: domain.EntityPost,
			Status:   domain.StatusPublish,
			Title:    fmt.Sprintf("Post %d", i),
			Slug:     fmt.Sprintf("post-%d", i),
			AuthorID: 1,
			Date:     base.Add(time.Duration(i) * time.Hour),
			Modified: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}
