package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
)

const clientColumns = `id, full_name, phone, email, address, sync_state, created_at, updated_at`

func scanClient(row scanner) (*clinic.Client, error) {
	var (
		c                clinic.Client
		email, address   sql.NullString
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.FullName, &c.Phone, &email, &address, &c.SyncState, &created, &updated); err != nil {
		return nil, err
	}
	c.Email = stringPtr(email)
	c.Address = stringPtr(address)
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func getClient(ctx context.Context, q querier, id int64) (*clinic.Client, error) {
	c, err := scanClient(q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: client %d", clinic.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения клиента: %w", err)
	}
	return c, nil
}

// CreateClient сохраняет клиента с временным id и ставит его создание в журнал.
// false означает, что ключ операции уже встречался и c заполнен ранее созданным клиентом.
func (s *Storage) CreateClient(ctx context.Context, c *clinic.Client, operationID string) (bool, error) {
	insert := func(tx *sql.Tx, id int64, now time.Time) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clients (id, full_name, phone, email, address, sync_state, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'local_only', ?, ?)`,
			id, c.FullName, c.Phone, nullString(c.Email), nullString(c.Address),
			formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("ошибка сохранения клиента: %w", err)
		}
		c.ID = id
		c.SyncState = clinic.SyncLocalOnly
		c.CreatedAt = now.UTC()
		c.UpdatedAt = now.UTC()
		return nil
	}
	return s.create(ctx, clinic.EntityClient, operationID, operation.NewClientPayload(*c), insert, s.loadClientInto(ctx, c))
}

// UpdateClient сохраняет изменения клиента и ставит их отправку в журнал
func (s *Storage) UpdateClient(ctx context.Context, c *clinic.Client, operationID string) error {
	apply := func(tx *sql.Tx, now time.Time) (operation.Payload, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE clients
			SET full_name = ?, phone = ?, email = ?, address = ?, sync_state = `+syncStateAfterEdit+`, updated_at = ?
			WHERE id = ?`,
			c.FullName, c.Phone, nullString(c.Email), nullString(c.Address), formatTime(now), c.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка обновления клиента: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("%w: client %d", clinic.ErrNotFound, c.ID)
		}
		if err := s.loadClientInto(ctx, c)(tx, c.ID); err != nil {
			return nil, err
		}
		return operation.NewClientPayload(*c), nil
	}
	return s.update(ctx, clinic.EntityClient, c.ID, operationID, apply, s.loadClientInto(ctx, c))
}

func (s *Storage) loadClientInto(ctx context.Context, c *clinic.Client) loadFunc {
	return func(q querier, id int64) error {
		got, err := getClient(ctx, q, id)
		if err != nil {
			return err
		}
		*c = *got
		return nil
	}
}

func (s *Storage) GetClient(ctx context.Context, id int64) (*clinic.Client, error) {
	return getClient(ctx, s.db, id)
}

// SearchClients ищет клиентов по подстроке ФИО или телефона без учета регистра
func (s *Storage) SearchClients(ctx context.Context, query string, limit int) ([]clinic.Client, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := likePattern(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE casefold(full_name) LIKE ? ESCAPE '\' OR casefold(phone) LIKE ? ESCAPE '\'
		ORDER BY full_name, id
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска клиентов: %w", err)
	}
	defer rows.Close()

	clients := []clinic.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения клиента: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}
