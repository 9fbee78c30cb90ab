package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/application"
	"github.com/davicafu/contentql/internal/content/domain"
	gql "github.com/davicafu/contentql/internal/content/infra/inbound/graphql"
	"github.com/davicafu/contentql/pkg/utils"
)

const dayLayout = "2006-01-02"

// ContentHandler encapsula los endpoints HTTP de contenido.
type ContentHandler struct {
	schema   *gql.Schema
	notifier *application.ChangeNotifier
	stats    domain.StatsReader
	log      *zap.Logger
}

// NewContentHandler crea el handler. stats puede ser nil si no hay almacén analítico.
func NewContentHandler(schema *gql.Schema, notifier *application.ChangeNotifier, stats domain.StatsReader, log *zap.Logger) *ContentHandler {
	return &ContentHandler{schema: schema, notifier: notifier, stats: stats, log: log}
}

// ---------------- Handlers ----------------

// GraphQL endpoint POST /graphql
func (h *ContentHandler) GraphQL(c *gin.Context) {
	var req gql.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, "invalid graphql request body")
		return
	}
	h.execute(c, req)
}

// GraphQLQuery endpoint GET /graphql?query=...&variables=...
func (h *ContentHandler) GraphQLQuery(c *gin.Context) {
	req := gql.Request{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			utils.SendBadRequest(c, "variables must be a JSON object")
			return
		}
	}
	h.execute(c, req)
}

func (h *ContentHandler) execute(c *gin.Context, req gql.Request) {
	if req.Query == "" {
		utils.SendBadRequest(c, "query is required")
		return
	}
	req.Viewer = viewerFrom(c)
	req.RequestID = c.GetString(ctxRequestID)

	// Los errores de resolución viajan en "errors" con 200, como en cualquier servidor GraphQL.
	result := h.schema.Execute(c.Request.Context(), req)
	if result.HasErrors() {
		h.log.Debug("GraphQL operation returned errors",
			zap.String("request_id", req.RequestID),
			zap.Int("errors", len(result.Errors)))
	}
	c.JSON(http.StatusOK, result)
}

// ContentChanged endpoint POST /hooks/content
func (h *ContentHandler) ContentChanged(c *gin.Context) {
	var req struct {
		Event string `json:"event" binding:"required"`
		Type  string `json:"type" binding:"required"`
		ID    int64  `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	err := h.notifier.Notify(c.Request.Context(), req.Event, domain.EntityType(req.Type), req.ID)
	if err != nil {
		if errors.Is(err, application.ErrUnknownChange) {
			utils.SendBadRequest(c, err.Error())
			return
		}
		h.log.Error("Failed to notify content change", zap.Error(err))
		utils.SendInternalServerError(c, "failed to publish change")
		return
	}
	utils.SendSuccess(c, http.StatusAccepted, gin.H{"event": req.Event, "type": req.Type, "id": req.ID})
}

// DailyStats endpoint GET /stats/daily?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ContentHandler) DailyStats(c *gin.Context) {
	if h.stats == nil {
		utils.SendNotFound(c, "query stats are not enabled")
		return
	}

	end := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	start := end.AddDate(0, 0, -7)
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(dayLayout, raw)
		if err != nil {
			utils.SendBadRequest(c, "invalid from format, use YYYY-MM-DD")
			return
		}
		start = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(dayLayout, raw)
		if err != nil {
			utils.SendBadRequest(c, "invalid to format, use YYYY-MM-DD")
			return
		}
		end = to.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		utils.SendBadRequest(c, "from must not be after to")
		return
	}

	volumes, err := h.stats.DailyVolume(c.Request.Context(), start, end)
	if err != nil {
		h.log.Error("Failed to read daily stats", zap.Error(err))
		utils.SendInternalServerError(c, "failed to read stats")
		return
	}
	utils.SendSuccess(c, http.StatusOK, toDailyResponse(volumes))
}

type dailyVolumeResponse struct {
	Day        string  `json:"day"`
	EntityType string  `json:"entity_type"`
	Queries    int64   `json:"queries"`
	Failed     int64   `json:"failed"`
	AvgMillis  float64 `json:"avg_ms"`
}

func toDailyResponse(volumes []domain.DailyVolume) []dailyVolumeResponse {
	out := make([]dailyVolumeResponse, 0, len(volumes))
	for _, v := range volumes {
		out = append(out, dailyVolumeResponse{
			Day:        v.Day.Format(dayLayout),
			EntityType: string(v.EntityType),
			Queries:    v.Queries,
			Failed:     v.Failed,
			AvgMillis:  v.AvgMillis,
		})
	}
	return out
}
