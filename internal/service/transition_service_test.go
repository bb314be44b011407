package service

import (
	"context"
	"errors"
	"testing"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports/mocks"
	"harvest-settlement/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testOrder(id string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{ID: id, Status: status}
}

func TestTransition_AppliesAllowedEdge(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "ORD-123").Return(testOrder("ORD-123", domain.OrderStatusToPay), nil)
	repo.EXPECT().
		CompareAndSetStatus(gomock.Any(), "ORD-123", domain.OrderStatusToPay, domain.OrderStatusToShip, gomock.Any()).
		Return(true, nil)

	outcome, err := guard.Transition(context.Background(), "ORD-123", domain.OrderStatusToShip)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionApplied, outcome)
}

func TestTransition_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	gomock.InOrder(
		repo.EXPECT().GetByID(gomock.Any(), "ORD-1").Return(testOrder("ORD-1", domain.OrderStatusToPay), nil),
		repo.EXPECT().CompareAndSetStatus(gomock.Any(), "ORD-1", domain.OrderStatusToPay, domain.OrderStatusToShip, gomock.Any()).Return(true, nil),
		repo.EXPECT().GetByID(gomock.Any(), "ORD-1").Return(testOrder("ORD-1", domain.OrderStatusToShip), nil),
	)

	first, err := guard.Transition(context.Background(), "ORD-1", domain.OrderStatusToShip)
	require.NoError(t, err)
	second, err := guard.Transition(context.Background(), "ORD-1", domain.OrderStatusToShip)
	require.NoError(t, err)

	assert.Equal(t, domain.TransitionApplied, first)
	assert.Equal(t, domain.TransitionUnchanged, second)
}

func TestTransition_CompletedOrderIsStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "ORD-9").Return(testOrder("ORD-9", domain.OrderStatusCompleted), nil)
	// No CompareAndSetStatus expectation: gomock fails the test on any write.

	outcome, err := guard.Transition(context.Background(), "ORD-9", domain.OrderStatusToShip)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionStale, outcome)
}

func TestTransition_UnknownOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, nil)

	_, err := guard.Transition(context.Background(), "missing", domain.OrderStatusToShip)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, "ORD_001"))
}

func TestTransition_RejectedPair(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "ORD-2").Return(testOrder("ORD-2", domain.OrderStatusPaymentFailed), nil)

	outcome, err := guard.Transition(context.Background(), "ORD-2", domain.OrderStatusToPay)
	assert.Equal(t, domain.TransitionRejected, outcome)
	assert.True(t, apperror.HasCode(err, "ORD_002"))
}

func TestTransition_RetriesAfterConcurrentChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	gomock.InOrder(
		repo.EXPECT().GetByID(gomock.Any(), "ORD-3").Return(testOrder("ORD-3", domain.OrderStatusToPay), nil),
		repo.EXPECT().CompareAndSetStatus(gomock.Any(), "ORD-3", domain.OrderStatusToPay, domain.OrderStatusPaymentFailed, gomock.Any()).Return(false, nil),
		// A concurrent payment.paid won the race.
		repo.EXPECT().GetByID(gomock.Any(), "ORD-3").Return(testOrder("ORD-3", domain.OrderStatusToShip), nil),
	)

	outcome, err := guard.Transition(context.Background(), "ORD-3", domain.OrderStatusPaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionStale, outcome)
}

func TestTransition_ConflictAfterMaxAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "ORD-4").Return(testOrder("ORD-4", domain.OrderStatusToPay), nil).Times(3)
	repo.EXPECT().CompareAndSetStatus(gomock.Any(), "ORD-4", gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(3)

	_, err := guard.Transition(context.Background(), "ORD-4", domain.OrderStatusToShip)
	assert.True(t, apperror.HasCode(err, "ORD_003"))
}

func TestTransition_LookupFailurePropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "ORD-5").Return(nil, errors.New("connection reset"))

	_, err := guard.Transition(context.Background(), "ORD-5", domain.OrderStatusToShip)
	assert.True(t, apperror.HasCode(err, "SYS_001"))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestTransition_WriteFailurePropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "ORD-6").Return(testOrder("ORD-6", domain.OrderStatusToPay), nil)
	repo.EXPECT().CompareAndSetStatus(gomock.Any(), "ORD-6", gomock.Any(), gomock.Any(), gomock.Any()).Return(false, context.Canceled)

	_, err := guard.Transition(context.Background(), "ORD-6", domain.OrderStatusToShip)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInspect(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOrderRepository(ctrl)
	guard := NewTransitionGuard(repo, 3, newTestLogger())

	repo.EXPECT().GetByID(gomock.Any(), "ORD-7").Return(testOrder("ORD-7", domain.OrderStatusToPay), nil)
	repo.EXPECT().GetByID(gomock.Any(), "ORD-8").Return(testOrder("ORD-8", domain.OrderStatusCompleted), nil)
	repo.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, nil)

	open, err := guard.Inspect(context.Background(), "ORD-7")
	require.NoError(t, err)
	assert.False(t, open.Advanced)
	assert.ElementsMatch(t, []domain.OrderStatus{domain.OrderStatusToShip, domain.OrderStatusPaymentFailed}, open.AllowedTargets)

	closed, err := guard.Inspect(context.Background(), "ORD-8")
	require.NoError(t, err)
	assert.True(t, closed.Advanced)
	assert.Empty(t, closed.AllowedTargets)

	_, err = guard.Inspect(context.Background(), "nope")
	assert.True(t, apperror.HasCode(err, "ORD_001"))
}
