package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

func newMockTokenRepo(t *testing.T) (*ResetTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewResetTokenRepository(mock), mock
}

func TestPut(t *testing.T) {
	t.Parallel()
	repo, mock := newMockTokenRepo(t)
	id := domain.NewAccountID(uuid.New())

	mock.ExpectExec(regexp.QuoteMeta(createResetTokenSQL)).
		WithArgs("deadbeef", id.UUID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Put(context.Background(), "deadbeef", id, time.Hour))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeAtomic_Live(t *testing.T) {
	t.Parallel()
	repo, mock := newMockTokenRepo(t)
	id := domain.NewAccountID(uuid.New())

	mock.ExpectQuery(regexp.QuoteMeta(consumeResetTokenSQL)).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows([]string{"account_id"}).AddRow(id.UUID))

	got, err := repo.ConsumeAtomic(context.Background(), "deadbeef")
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeAtomic_DeadIsTokenNotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockTokenRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(consumeResetTokenSQL)).
		WithArgs("deadbeef").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.ConsumeAtomic(context.Background(), "deadbeef")
	require.ErrorIs(t, err, domerrors.ErrTokenNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_AbsentIsTokenNotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockTokenRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(getResetTokenSQL)).
		WithArgs("deadbeef").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "deadbeef")
	require.ErrorIs(t, err, domerrors.ErrTokenNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeDeadResetTokens(t *testing.T) {
	t.Parallel()
	repo, mock := newMockTokenRepo(t)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(purgeResetTokensSQL)).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.PurgeDeadResetTokens(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
