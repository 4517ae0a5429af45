package server

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pokechat/internal/logging"
	"pokechat/internal/services"
)

// requestID attaches a correlation id to the request context and echoes it
// in the response. Client-supplied ids are kept so callers can trace
// through their own systems.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		ctx := services.WithRequestID(c.Request.Context(), id)
		ctx = services.WithEndpoint(ctx, c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger emits one line per request. Health probes log at debug so
// liveness polling does not drown the log.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logging.WithContext(c.Request.Context(), s.logger)
		args := logging.Args(
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
		if c.Request.URL.Path == "/health" {
			log.Debug("request handled", args...)
		} else {
			log.Info("request handled", args...)
		}
	}
}

func (s *Server) handlePanic(c *gin.Context, recovered any) {
	requestID, _ := services.RequestIDFromContext(c.Request.Context())
	logging.WithContext(c.Request.Context(), s.logger).Error("handler panic",
		logging.Any("panic", recovered),
		logging.String("stack", string(debug.Stack())))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error", RequestID: requestID})
}

// corsMiddleware applies the configured origin list. A "*" entry (or an
// empty list) allows every origin, which forces credentials off per the
// CORS spec.
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Accept", "X-Request-ID")
	corsCfg.ExposeHeaders = []string{"X-Request-ID"}

	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			cleaned = nil
			break
		}
		if origin != "" {
			cleaned = append(cleaned, origin)
		}
	}
	if len(cleaned) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cleaned
		corsCfg.AllowCredentials = true
	}
	return cors.New(corsCfg)
}
