package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// selects indica si el campo que se resuelve pide el subcampo name,
// directamente o a través de fragmentos.
func selects(p graphql.ResolveParams, name string) bool {
	for _, field := range p.Info.FieldASTs {
		if field == nil {
			continue
		}
		if selectionHas(field.SelectionSet, name, p.Info.Fragments, map[string]bool{}) {
			return true
		}
	}
	return false
}

func selectionHas(set *ast.SelectionSet, name string, fragments map[string]ast.Definition, visited map[string]bool) bool {
	if set == nil {
		return false
	}
	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name != nil && s.Name.Value == name {
				return true
			}
		case *ast.InlineFragment:
			if selectionHas(s.SelectionSet, name, fragments, visited) {
				return true
			}
		case *ast.FragmentSpread:
			if s.Name == nil || visited[s.Name.Value] {
				continue
			}
			visited[s.Name.Value] = true
			if def, ok := fragments[s.Name.Value].(*ast.FragmentDefinition); ok {
				if selectionHas(def.SelectionSet, name, fragments, visited) {
					return true
				}
			}
		}
	}
	return false
}
