package sqlite

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/clinic"
)

// Сбой записи в журнал откатывает и вставку сущности
func TestCreateClient_LedgerFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewWithDB(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetClock(func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) })

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM pending_operations WHERE operation_id`).
		WithArgs("op-1").
		WillReturnRows(sqlmock.NewRows([]string{"operation_id"}))
	mock.ExpectQuery(`UPDATE local_sequence SET value = value - 1`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(-1))
	mock.ExpectExec(`INSERT INTO clients`).
		WillReturnResult(sqlmock.NewResult(-1, 1))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("op-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`UPDATE local_sequence SET value = value \+ 1`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO pending_operations`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	c := &clinic.Client{FullName: "Иванов Иван", Phone: "+79990000000"}
	created, err := s.CreateClient(context.Background(), c, "op-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Ошибка фиксации возвращается вызывающему
func TestPutSettings_CommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewWithDB(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO settings`).
		WithArgs("server_url", "http://clinic.local", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err = s.PutSetting(context.Background(), "server_url", "http://clinic.local")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}
