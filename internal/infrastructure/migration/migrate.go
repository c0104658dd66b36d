package migration

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Регистрация драйвера sqlite3 для миграций
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine фабрика мигратора, подменяется в тестах
type MigrationEngine func(src source.Driver, databaseURL string) (Migrator, error)

// Migration применяет встроенные миграции к локальной базе компаньона.
type Migration struct {
	dbPath string
	engine MigrationEngine
}

func NewMigration(dbPath string, engine MigrationEngine) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		dbPath: dbPath,
		engine: engine,
	}
}

// DefaultEngine мигратор golang-migrate
func DefaultEngine(src source.Driver, databaseURL string) (Migrator, error) {
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}

// Source возвращает драйвер источника поверх встроенных файлов миграций.
func Source() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

// DatabaseURL строит URL для драйвера sqlite3 библиотеки migrate.
func DatabaseURL(dbPath string) string {
	return "sqlite3://" + dbPath + "?_foreign_keys=on"
}

func (mg *Migration) Up() (err error) {
	src, err := Source()
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := mg.engine(src, DatabaseURL(mg.dbPath))
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}
