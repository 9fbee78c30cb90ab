package domain

// WhereArgs es el input "where" tal y como llega de GraphQL.
type WhereArgs map[string]interface{}

// PaginationArgs son los argumentos Relay de una conexión.
type PaginationArgs struct {
	First  *int
	Last   *int
	After  *string
	Before *string
	Where  WhereArgs
}

// Empty indica que no llegó ningún argumento de paginación ni filtro.
func (a PaginationArgs) Empty() bool {
	return a.First == nil && a.Last == nil && a.After == nil && a.Before == nil && len(a.Where) == 0
}

type Edge struct {
	Cursor string
	Node   *Model
}

type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     *string
	EndCursor       *string
}

// Connection es la respuesta paginada estilo Relay. Se reconstruye en cada petición.
type Connection struct {
	Edges      []Edge
	PageInfo   PageInfo
	TotalCount *int
}

// Nodes devuelve los nodos de las aristas en orden.
func (c *Connection) Nodes() []*Model {
	nodes := make([]*Model, 0, len(c.Edges))
	for _, e := range c.Edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}
