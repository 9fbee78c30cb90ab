package graphql

import (
	"github.com/graphql-go/graphql"
)

func enum(name string, values ...string) *graphql.Enum {
	cfg := graphql.EnumValueConfigMap{}
	for _, v := range values {
		cfg[v] = &graphql.EnumValueConfig{Value: v}
	}
	return graphql.NewEnum(graphql.EnumConfig{Name: name, Values: cfg})
}

var (
	relationEnum     = enum("RelationEnum", "AND", "OR")
	orderEnum        = enum("OrderEnum", "ASC", "DESC")
	taxFieldEnum     = enum("TaxQueryField", "ID", "NAME", "SLUG")
	taxOperatorEnum  = enum("TaxQueryOperator", "IN", "NOT_IN", "AND", "EXISTS", "NOT_EXISTS")
	dateColumnEnum   = enum("PostDateColumn", "DATE", "MODIFIED")
	postStatusEnum   = enum("PostStatusEnum", "PUBLISH", "DRAFT", "PENDING", "PRIVATE", "FUTURE", "TRASH")
	postOrderField   = enum("PostOrderbyField", "DATE", "MODIFIED", "TITLE", "SLUG", "MENU_ORDER", "AUTHOR", "PARENT", "ID")
	userOrderField   = enum("UserOrderbyField", "REGISTERED", "LOGIN", "NICENAME", "DISPLAY_NAME", "EMAIL", "ID")
	menuOrderField   = enum("MenuItemOrderbyField", "MENU_ORDER", "ID")
	metaTypeEnum     = enum("MetaType", "NUMERIC", "BINARY", "CHAR", "DATE", "DATETIME", "DECIMAL", "SIGNED", "TIME", "UNSIGNED")
	metaCompareEnum  = enum("MetaCompare",
		"EQUAL_TO", "NOT_EQUAL_TO", "GREATER_THAN", "GREATER_THAN_OR_EQUAL_TO",
		"LESS_THAN", "LESS_THAN_OR_EQUAL_TO", "LIKE", "NOT_LIKE", "IN", "NOT_IN",
		"BETWEEN", "NOT_BETWEEN", "EXISTS", "NOT_EXISTS")
)

var (
	idList     = graphql.NewList(graphql.ID)
	stringList = graphql.NewList(graphql.String)
)

func orderbyInput(name string, fields *graphql.Enum) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMap{
			"field": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(fields)},
			"order": &graphql.InputObjectFieldConfig{Type: orderEnum},
		},
	})
}

var dateInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "DateInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"year":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"month": &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"day":   &graphql.InputObjectFieldConfig{Type: graphql.Int},
	},
})

var dateQueryInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "DateQueryInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"after":     &graphql.InputObjectFieldConfig{Type: dateInput},
		"before":    &graphql.InputObjectFieldConfig{Type: dateInput},
		"inclusive": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		"column":    &graphql.InputObjectFieldConfig{Type: dateColumnEnum},
		"relation":  &graphql.InputObjectFieldConfig{Type: relationEnum},
		"year":      &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"month":     &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"day":       &graphql.InputObjectFieldConfig{Type: graphql.Int},
	},
})

// Los grupos anidados se describen con el mismo tipo de entrada.
var taxArrayInput *graphql.InputObject

func init() {
	taxArrayInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TaxArray",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return graphql.InputObjectConfigFieldMap{
				"taxonomy":        &graphql.InputObjectFieldConfig{Type: graphql.String},
				"field":           &graphql.InputObjectFieldConfig{Type: taxFieldEnum},
				"terms":           &graphql.InputObjectFieldConfig{Type: stringList},
				"includeChildren": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
				"operator":        &graphql.InputObjectFieldConfig{Type: taxOperatorEnum},
				"relation":        &graphql.InputObjectFieldConfig{Type: relationEnum},
				"taxArray":        &graphql.InputObjectFieldConfig{Type: graphql.NewList(taxArrayInput)},
			}
		}),
	})
	metaArrayInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "MetaArray",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return graphql.InputObjectConfigFieldMap{
				"key":       &graphql.InputObjectFieldConfig{Type: graphql.String},
				"value":     &graphql.InputObjectFieldConfig{Type: graphql.String},
				"compare":   &graphql.InputObjectFieldConfig{Type: metaCompareEnum},
				"type":      &graphql.InputObjectFieldConfig{Type: metaTypeEnum},
				"relation":  &graphql.InputObjectFieldConfig{Type: relationEnum},
				"metaArray": &graphql.InputObjectFieldConfig{Type: graphql.NewList(metaArrayInput)},
			}
		}),
	})
}

var metaArrayInput *graphql.InputObject

func taxQueryInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TaxQuery",
		Fields: graphql.InputObjectConfigFieldMap{
			"relation": &graphql.InputObjectFieldConfig{Type: relationEnum},
			"taxArray": &graphql.InputObjectFieldConfig{Type: graphql.NewList(taxArrayInput)},
		},
	})
}

func metaQueryInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "MetaQuery",
		Fields: graphql.InputObjectConfigFieldMap{
			"relation":  &graphql.InputObjectFieldConfig{Type: relationEnum},
			"metaArray": &graphql.InputObjectFieldConfig{Type: graphql.NewList(metaArrayInput)},
		},
	})
}

// whereInputs son las entradas "where" de cada tipo de conexión.
// Los valores de IN/BETWEEN en metaArray van separados por comas.
type whereInputs struct {
	post, user, menuItem *graphql.InputObject
}

func newWhereInputs() whereInputs {
	taxQuery, metaQuery := taxQueryInput(), metaQueryInput()

	post := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PostObjectsWhereArgs",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":            &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"in":            &graphql.InputObjectFieldConfig{Type: idList},
			"notIn":         &graphql.InputObjectFieldConfig{Type: idList},
			"name":          &graphql.InputObjectFieldConfig{Type: graphql.String},
			"nameIn":        &graphql.InputObjectFieldConfig{Type: stringList},
			"title":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"search":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"parent":        &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"parentIn":      &graphql.InputObjectFieldConfig{Type: idList},
			"parentNotIn":   &graphql.InputObjectFieldConfig{Type: idList},
			"author":        &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"authorIn":      &graphql.InputObjectFieldConfig{Type: idList},
			"authorNotIn":   &graphql.InputObjectFieldConfig{Type: idList},
			"authorName":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"categoryId":    &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"categoryName":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"categoryIn":    &graphql.InputObjectFieldConfig{Type: idList},
			"categoryNotIn": &graphql.InputObjectFieldConfig{Type: idList},
			"tagId":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"tag":           &graphql.InputObjectFieldConfig{Type: graphql.String},
			"tagIn":         &graphql.InputObjectFieldConfig{Type: idList},
			"tagNotIn":      &graphql.InputObjectFieldConfig{Type: idList},
			"tagSlugIn":     &graphql.InputObjectFieldConfig{Type: stringList},
			"tagSlugAnd":    &graphql.InputObjectFieldConfig{Type: stringList},
			"hasPassword":   &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"status":        &graphql.InputObjectFieldConfig{Type: postStatusEnum},
			"stati":         &graphql.InputObjectFieldConfig{Type: graphql.NewList(postStatusEnum)},
			"dateQuery":     &graphql.InputObjectFieldConfig{Type: dateQueryInput},
			"taxQuery":      &graphql.InputObjectFieldConfig{Type: taxQuery},
			"metaQuery":     &graphql.InputObjectFieldConfig{Type: metaQuery},
			"orderby":       &graphql.InputObjectFieldConfig{Type: orderbyInput("PostObjectsConnectionOrderbyInput", postOrderField)},
		},
	})

	user := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UsersWhereArgs",
		Fields: graphql.InputObjectConfigFieldMap{
			"include":           &graphql.InputObjectFieldConfig{Type: idList},
			"exclude":           &graphql.InputObjectFieldConfig{Type: idList},
			"search":            &graphql.InputObjectFieldConfig{Type: graphql.String},
			"role":              &graphql.InputObjectFieldConfig{Type: graphql.String},
			"roleIn":            &graphql.InputObjectFieldConfig{Type: stringList},
			"roleNotIn":         &graphql.InputObjectFieldConfig{Type: stringList},
			"login":             &graphql.InputObjectFieldConfig{Type: graphql.String},
			"loginIn":           &graphql.InputObjectFieldConfig{Type: stringList},
			"nicename":          &graphql.InputObjectFieldConfig{Type: graphql.String},
			"nicenameIn":        &graphql.InputObjectFieldConfig{Type: stringList},
			"hasPublishedPosts": &graphql.InputObjectFieldConfig{Type: stringList},
			"orderby":           &graphql.InputObjectFieldConfig{Type: orderbyInput("UsersConnectionOrderbyInput", userOrderField)},
		},
	})

	menuItem := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "MenuItemsWhereArgs",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":       &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"in":       &graphql.InputObjectFieldConfig{Type: idList},
			"notIn":    &graphql.InputObjectFieldConfig{Type: idList},
			"location": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"parentId": &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"orderby":  &graphql.InputObjectFieldConfig{Type: orderbyInput("MenuItemsConnectionOrderbyInput", menuOrderField)},
		},
	})

	return whereInputs{post: post, user: user, menuItem: menuItem}
}
