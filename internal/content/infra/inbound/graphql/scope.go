package graphql

import (
	"context"

	"github.com/davicafu/contentql/internal/content/domain"
)

// Request es una operación GraphQL junto con quién la hace.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`

	Viewer    domain.Viewer `json:"-"`
	RequestID string        `json:"-"`
}

type scope struct {
	viewer    domain.Viewer
	requestID string
}

type scopeKey struct{}

func withScope(ctx context.Context, s scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}
