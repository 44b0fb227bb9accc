package discount

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymhub/internal/metrics"
)

var codeCols = []string{"id", "code", "description", "discount_type", "amount", "is_active", "max_redemptions",
	"used_count", "starts_at", "ends_at", "created_at", "updated_at"}

func beginTx(t *testing.T) (*sqlx.Tx, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	mock.ExpectBegin()
	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)
	return tx, mock
}

func TestRedeemTx_SingleUseCode(t *testing.T) {
	tx, mock := beginTx(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM discount_codes WHERE code = $1 FOR UPDATE")).
		WithArgs("ONCE").
		WillReturnRows(sqlmock.NewRows(codeCols).
			AddRow(3, "ONCE", "", TypeFixed, 500, true, 1, 0, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SET used_count = used_count + 1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"used_count"}).AddRow(1))

	c, err := RedeemTx(context.Background(), tx, "once", now)
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemTx_SecondRedemptionExhausted(t *testing.T) {
	tx, mock := beginTx(t)

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("ONCE").
		WillReturnRows(sqlmock.NewRows(codeCols).
			AddRow(3, "ONCE", "", TypeFixed, 500, true, 1, 1, nil, nil, now, now))

	_, err := RedeemTx(context.Background(), tx, "ONCE", now)
	assert.Equal(t, ReasonExhausted, reasonOf(t, err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemTx_GuardedUpdateLosesRace(t *testing.T) {
	tx, mock := beginTx(t)

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("ONCE").
		WillReturnRows(sqlmock.NewRows(codeCols).
			AddRow(3, "ONCE", "", TypeFixed, 500, true, 1, 0, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SET used_count = used_count + 1")).
		WithArgs(3).
		WillReturnError(sql.ErrNoRows)

	_, err := RedeemTx(context.Background(), tx, "ONCE", now)
	assert.Equal(t, ReasonExhausted, reasonOf(t, err))
}

func TestRedeemTx_UnknownCode(t *testing.T) {
	tx, mock := beginTx(t)

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("NOPE").
		WillReturnError(sql.ErrNoRows)

	_, err := RedeemTx(context.Background(), tx, "nope", now)
	assert.Equal(t, ReasonNotFound, reasonOf(t, err))
}

func TestRedeemTx_RolledBackRedemptionNotCounted(t *testing.T) {
	tx, mock := beginTx(t)
	before := testutil.ToFloat64(metrics.DiscountRedemptionsTotal)

	mock.ExpectQuery(regexp.QuoteMeta("FROM discount_codes WHERE code = $1 FOR UPDATE")).
		WithArgs("SPRING").
		WillReturnRows(sqlmock.NewRows(codeCols).
			AddRow(4, "SPRING", "", TypePercentage, 10, true, nil, 7, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SET used_count = used_count + 1")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"used_count"}).AddRow(8))
	mock.ExpectRollback()

	_, err := RedeemTx(context.Background(), tx, "spring", now)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	assert.Equal(t, before, testutil.ToFloat64(metrics.DiscountRedemptionsTotal))
	require.NoError(t, mock.ExpectationsWereMet())
}
