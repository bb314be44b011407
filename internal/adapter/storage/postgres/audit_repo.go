package postgres

import (
	"context"
	"fmt"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"
)

// AuditRepo implements ports.AuditLogRepository using PostgreSQL.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.SettlementAuditLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO settlement_audit_logs
		 (id, request_id, event_id, event_type, order_id, order_kind, action, outcome, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		log.ID, log.RequestID, log.EventID, string(log.EventType), log.OrderID,
		string(log.OrderKind), string(log.Action), string(log.Outcome), log.Detail, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List returns audit entries newest first, optionally filtered by order id.
func (r *AuditRepo) List(ctx context.Context, params ports.AuditListParams) ([]domain.SettlementAuditLog, int64, error) {
	where := ""
	args := []any{}
	argIdx := 1

	if params.OrderID != "" {
		where = fmt.Sprintf(" WHERE order_id = $%d", argIdx)
		args = append(args, params.OrderID)
		argIdx++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM settlement_audit_logs" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(
		`SELECT id, request_id, event_id, event_type, order_id, order_kind, action, outcome, detail, created_at
		 FROM settlement_audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1,
	)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.SettlementAuditLog{}
	for rows.Next() {
		var l domain.SettlementAuditLog
		if err := rows.Scan(
			&l.ID, &l.RequestID, &l.EventID, &l.EventType, &l.OrderID,
			&l.OrderKind, &l.Action, &l.Outcome, &l.Detail, &l.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit logs: %w", err)
	}

	return logs, total, nil
}
