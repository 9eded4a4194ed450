package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

const defaultAuditBacklog = 500

// LogAuditSink writes audit entries to the logger and keeps the most recent ones in memory.
// It stands in for the database sink when no audit database is configured.
type LogAuditSink struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	entries []models.AuditLog
	backlog int
}

// NewLogAuditSink constructs a sink retaining up to backlog entries.
func NewLogAuditSink(logger *zap.Logger, backlog int) *LogAuditSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backlog <= 0 {
		backlog = defaultAuditBacklog
	}
	return &LogAuditSink{logger: logger, backlog: backlog}
}

// CreateAuditLog records the entry.
func (s *LogAuditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	actor := ""
	if log.UserID != nil {
		actor = *log.UserID
	}
	s.logger.Info("audit",
		zap.String("audit_id", log.ID),
		zap.String("action", log.Action),
		zap.String("resource", log.Resource),
		zap.String("actor", actor),
		zap.ByteString("details", log.NewValues),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *log)
	if over := len(s.entries) - s.backlog; over > 0 {
		s.entries = append([]models.AuditLog{}, s.entries[over:]...)
	}
	return nil
}

// ListByAction returns the newest entries for the action, newest first.
func (s *LogAuditSink) ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditLog, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if action == "" || s.entries[i].Action == action {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}
