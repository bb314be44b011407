package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuditLog() *domain.SettlementAuditLog {
	return &domain.SettlementAuditLog{
		ID:        uuid.New(),
		RequestID: "req-1",
		EventID:   "evt_1",
		EventType: domain.EventPaymentPaid,
		OrderID:   "ord-1",
		OrderKind: domain.OrderKindPhysical,
		Action:    domain.ActionTransition,
		Outcome:   domain.OutcomeApplied,
		Detail:    "to_pay -> to_ship",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func auditColumns() []string {
	return []string{"id", "request_id", "event_id", "event_type", "order_id", "order_kind", "action", "outcome", "detail", "created_at"}
}

func TestAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	l := newTestAuditLog()

	mock.ExpectExec("INSERT INTO settlement_audit_logs").
		WithArgs(l.ID, l.RequestID, l.EventID, "payment.paid", l.OrderID,
			"physical", "TRANSITION", "APPLIED", l.Detail, l.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_Create_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)

	mock.ExpectExec("INSERT INTO settlement_audit_logs").
		WillReturnError(errors.New("disk full"))

	err = repo.Create(context.Background(), newTestAuditLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit log")
}

func TestAuditRepo_List_FilteredByOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	l := newTestAuditLog()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("ord-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM settlement_audit_logs WHERE order_id").
		WithArgs("ord-1", 20, 0).
		WillReturnRows(pgxmock.NewRows(auditColumns()).AddRow(
			l.ID, l.RequestID, l.EventID, l.EventType, l.OrderID,
			l.OrderKind, l.Action, l.Outcome, l.Detail, l.CreatedAt,
		))

	logs, total, err := repo.List(context.Background(), ports.AuditListParams{OrderID: "ord-1", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, *l, logs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_List_Unfiltered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(45)))
	mock.ExpectQuery("SELECT .+ FROM settlement_audit_logs ORDER BY created_at DESC").
		WithArgs(20, 40).
		WillReturnRows(pgxmock.NewRows(auditColumns()))

	logs, total, err := repo.List(context.Background(), ports.AuditListParams{Page: 3, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(45), total)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_List_CountError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(errors.New("timeout"))

	_, _, err = repo.List(context.Background(), ports.AuditListParams{Page: 1, PageSize: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count audit logs")
}
