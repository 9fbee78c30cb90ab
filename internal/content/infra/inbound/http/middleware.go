package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderViewerID   = "X-Viewer-ID"
	HeaderViewerCaps = "X-Viewer-Caps"

	ctxRequestID = "request_id"
	ctxViewer    = "viewer"
)

// RequestID reutiliza el X-Request-ID entrante o genera uno nuevo.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Viewer lee la identidad que fija el gateway. Sin cabeceras la petición es anónima.
func Viewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		var v domain.Viewer
		if raw := c.GetHeader(HeaderViewerID); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				v.UserID = id
			}
		}
		if raw := c.GetHeader(HeaderViewerCaps); raw != "" {
			v.Capabilities = make(map[string]bool)
			for _, capability := range strings.Split(raw, ",") {
				if capability = strings.TrimSpace(capability); capability != "" {
					v.Capabilities[capability] = true
				}
			}
		}
		c.Set(ctxViewer, v)
		c.Next()
	}
}

// AccessLog registra cada petición con zap.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)))
	}
}

func viewerFrom(c *gin.Context) domain.Viewer {
	v, _ := c.Get(ctxViewer)
	viewer, _ := v.(domain.Viewer)
	return viewer
}
