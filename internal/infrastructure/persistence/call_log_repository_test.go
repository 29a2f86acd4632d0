package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dorahyong/buyma/internal/domain/listing"
)

// newMockCallLogRepository creates a GormCallLogRepository with a mocked SQL connection
func newMockCallLogRepository(t *testing.T) (*GormCallLogRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCallLogRepository(gormDB), mock, mockDB
}

func TestGormCallLogRepository_Save(t *testing.T) {
	repo, mock, mockDB := newMockCallLogRepository(t)
	defer mockDB.Close()

	mock.ExpectExec(`INSERT INTO "call_logs"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := listing.NewCallLog("/api/v1/products.json", "POST", 201, listing.CallOutcomeAccepted)
	entry.ReferenceNumber = "okmall-12345"
	entry.RequestUID = "req-abc"

	err := repo.Save(context.Background(), entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCallLogRepository_CountSince(t *testing.T) {
	repo, mock, mockDB := newMockCallLogRepository(t)
	defer mockDB.Close()

	since := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "call_logs" WHERE called_at >= \$1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCallLogRepository_CountEndpointSince(t *testing.T) {
	repo, mock, mockDB := newMockCallLogRepository(t)
	defer mockDB.Close()

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "call_logs" WHERE endpoint = \$1 AND called_at >= \$2`).
		WithArgs("/api/v1/products.json", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountEndpointSince(context.Background(), "/api/v1/products.json", since)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCallLogRepository_FindRecent(t *testing.T) {
	repo, mock, mockDB := newMockCallLogRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"endpoint", "method", "status_code", "outcome", "called_at"}).
		AddRow("/api/v1/products.json", "POST", 201, "accepted", time.Now()).
		AddRow("/api/v1/products.json", "POST", 429, "quota_exhausted", time.Now())

	mock.ExpectQuery(`SELECT \* FROM "call_logs" ORDER BY called_at DESC LIMIT .*`).
		WillReturnRows(rows)

	logs, err := repo.FindRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, listing.CallOutcomeAccepted, logs[0].Outcome)
	assert.Equal(t, listing.CallOutcomeQuotaExhausted, logs[1].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}
