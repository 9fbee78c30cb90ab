package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter monta el engine con middleware, GraphQL, hooks y observabilidad.
func NewRouter(handler *ContentHandler, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(log))
	RegisterContentRoutes(r, handler)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func RegisterContentRoutes(r *gin.Engine, handler *ContentHandler) {
	api := r.Group("/", Viewer())
	{
		api.POST("/graphql", handler.GraphQL)
		api.GET("/graphql", handler.GraphQLQuery)
	}
	r.POST("/hooks/content", handler.ContentChanged)
	r.GET("/stats/daily", handler.DailyStats)
}
