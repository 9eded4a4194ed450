package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

const contextAuditDetails = "audit_details"

// AuditSink stores audit entries.
type AuditSink interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditDetail attaches a value to the audit entry of the current request.
func AuditDetail(c *gin.Context, key string, value interface{}) {
	details, _ := c.Get(contextAuditDetails)
	m, ok := details.(map[string]interface{})
	if !ok {
		m = make(map[string]interface{})
		c.Set(contextAuditDetails, m)
	}
	m[key] = value
}

// Audit creates a middleware that records audit logs after successful requests.
func Audit(sink AuditSink, action, resource string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if sink == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if actor := ActorID(c); actor != "" {
			userID = &actor
		}
		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		payload := models.AuditRequest{
			Path:      c.FullPath(),
			Method:    c.Request.Method,
			Status:    c.Writer.Status(),
			LatencyMS: time.Since(start).Milliseconds(),
		}
		if details, ok := c.Get(contextAuditDetails); ok {
			payload.Details, _ = details.(map[string]interface{})
		}
		body, _ := json.Marshal(payload)

		if err := sink.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
		}
	}
}
