package service

import (
	"context"
	"time"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100
	auditPersistTimeout  = 5 * time.Second
)

type auditService struct {
	repo           ports.AuditLogRepository
	persistTimeout time.Duration
	log            zerolog.Logger
}

// NewAuditService creates a new settlement audit service.
// If repo is nil, audit entries are only written to the logger.
func NewAuditService(repo ports.AuditLogRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, persistTimeout: auditPersistTimeout, log: log}
}

// Record writes an audit entry asynchronously (fire-and-forget).
// The entry outlives the request, so persistence ignores request cancellation
// and is bounded by its own timeout instead.
func (s *auditService) Record(ctx context.Context, entry domain.SettlementAuditLog) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.RequestID == "" {
		entry.RequestID = logger.RequestIDFromContext(ctx)
	}
	log := logger.FromContext(ctx, s.log)
	detached := context.WithoutCancel(ctx)

	go func() {
		persistCtx, cancel := context.WithTimeout(detached, s.persistTimeout)
		defer cancel()

		log.Info().
			Str("event_id", entry.EventID).
			Str("event_type", string(entry.EventType)).
			Str("order_id", entry.OrderID).
			Str("action", string(entry.Action)).
			Str("outcome", string(entry.Outcome)).
			Str("detail", entry.Detail).
			Msg("settlement audit")

		if s.repo != nil {
			if err := s.repo.Create(persistCtx, &entry); err != nil {
				log.Warn().Err(err).Str("event_id", entry.EventID).Msg("failed to persist settlement audit log")
			}
		}
	}()
}

// List returns a page of audit entries, newest first.
func (s *auditService) List(ctx context.Context, params ports.AuditListParams) ([]domain.SettlementAuditLog, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultAuditPageSize
	}
	if params.PageSize > maxAuditPageSize {
		params.PageSize = maxAuditPageSize
	}
	if s.repo == nil {
		return []domain.SettlementAuditLog{}, 0, nil
	}
	return s.repo.List(ctx, params)
}
