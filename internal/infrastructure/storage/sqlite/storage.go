package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"clinicsync/internal/infrastructure/migration"
)

// DriverName драйвер sqlite3 с пользовательскими функциями (casefold для поиска по кириллице)
const DriverName = "sqlite3_clinic"

// ErrIDConflict канонический id уже занят другой локальной строкой
var ErrIDConflict = errors.New("canonical id already used by another local row")

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("casefold", strings.ToLower, true)
			},
		})
	})
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Storage локальное хранилище компаньона: сущности клиники, справочники и журнал операций.
// Запись идет через одно соединение и мьютекс, чтобы транзакции не пересекались.
type Storage struct {
	db  *sql.DB
	log *slog.Logger
	mu  sync.Mutex
	now func() time.Time
}

// Open применяет миграции и открывает базу по пути path
func Open(ctx context.Context, path string, log *slog.Logger) (*Storage, error) {
	if err := migration.NewMigration(path, nil).Up(); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	registerDriver()
	db, err := sql.Open(DriverName, path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	log.Debug("local store opened", slog.String("path", path))
	return NewWithDB(db, log), nil
}

// NewWithDB оборачивает уже открытое соединение (схема должна быть применена)
func NewWithDB(db *sql.DB, log *slog.Logger) *Storage {
	return &Storage{
		db:  db,
		log: log.With(slog.String("component", "local_store")),
		now: time.Now,
	}
}

// SetClock подменяет источник времени (для тестов)
func (s *Storage) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// withTx выполняет fn в транзакции под мьютексом записи
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			s.log.Error("rollback failed", slog.String("error", rerr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// nextTempID выдает следующий временный id: -1, -2, ...
func nextTempID(ctx context.Context, q querier) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`UPDATE local_sequence SET value = value - 1 WHERE name = 'temp_id' RETURNING value`,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка выделения временного id: %w", err)
	}
	return id, nil
}

func nextOperationSeq(ctx context.Context, q querier) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx,
		`UPDATE local_sequence SET value = value + 1 WHERE name = 'operation_seq' RETURNING value`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("ошибка выделения номера операции: %w", err)
	}
	return seq, nil
}

// timeLayout фиксированной ширины, чтобы строки сравнивались в SQL как время
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return t, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
