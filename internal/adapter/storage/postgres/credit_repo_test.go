package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditRepo_AddCredits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCreditRepo(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO user_credits").
		WithArgs("user-1", int64(50)).
		WillReturnRows(pgxmock.NewRows([]string{"credits_remaining"}).AddRow(int64(60)))

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	balance, err := repo.AddCredits(ctx, tx, "user-1", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepo_AddCredits_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCreditRepo(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO user_credits").
		WithArgs("user-1", int64(50)).
		WillReturnError(errors.New("check constraint violated"))

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, err = repo.AddCredits(ctx, tx, "user-1", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add credits")
}

func TestCreditRepo_GetBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCreditRepo(mock)
	updated := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM user_credits WHERE user_id").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "credits_remaining", "updated_at"}).
			AddRow("user-1", int64(110), updated))

	uc, err := repo.GetBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, uc)
	assert.Equal(t, int64(110), uc.CreditsRemaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepo_GetBalance_NoRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCreditRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM user_credits WHERE user_id").
		WithArgs("user-2").
		WillReturnError(pgx.ErrNoRows)

	uc, err := repo.GetBalance(context.Background(), "user-2")
	assert.NoError(t, err)
	assert.Nil(t, uc)
}
