package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
)

const operationColumns = `operation_id, seq, kind, entity_type, entity_id, payload, depends_on,
	status, attempt_count, last_error, canonical_id, created_at, updated_at`

func scanOperation(row scanner) (*operation.Operation, error) {
	var (
		op         operation.Operation
		payload    string
		dependsOn  string
		lastError  sql.NullString
		canonical  sql.NullInt64
		created    string
		updated    string
		entityType string
	)
	err := row.Scan(&op.ID, &op.Seq, &op.Kind, &entityType, &op.EntityID, &payload, &dependsOn,
		&op.Status, &op.AttemptCount, &lastError, &canonical, &created, &updated)
	if err != nil {
		return nil, err
	}
	op.EntityType = clinic.EntityType(entityType)
	if op.Payload, err = operation.Decode(op.EntityType, []byte(payload)); err != nil {
		return nil, fmt.Errorf("operation %s: %w", op.ID, err)
	}
	if err := json.Unmarshal([]byte(dependsOn), &op.DependsOn); err != nil {
		return nil, fmt.Errorf("operation %s: invalid depends_on: %w", op.ID, err)
	}
	op.LastError = stringPtr(lastError)
	if canonical.Valid {
		id := canonical.Int64
		op.CanonicalID = &id
	}
	if op.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if op.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &op, nil
}

func collectOperations(rows *sql.Rows) ([]*operation.Operation, error) {
	defer rows.Close()
	var ops []*operation.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения операции: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func getOperation(ctx context.Context, q querier, id string) (*operation.Operation, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+operationColumns+` FROM pending_operations WHERE operation_id = ?`, id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", operation.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения операции %s: %w", id, err)
	}
	return op, nil
}

// insertOperation записывает операцию в журнал. Повторный ключ идемпотентности ничего не меняет.
func insertOperation(ctx context.Context, q querier, op *operation.Operation, now time.Time) (bool, error) {
	if err := op.Validate(); err != nil {
		return false, err
	}

	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pending_operations WHERE operation_id = ?)`, op.ID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки операции: %w", err)
	}
	if exists {
		return false, nil
	}

	payload, err := operation.Encode(op.Payload)
	if err != nil {
		return false, err
	}
	deps := op.DependsOn
	if deps == nil {
		deps = []string{}
	}
	dependsOn, err := json.Marshal(deps)
	if err != nil {
		return false, fmt.Errorf("ошибка сериализации зависимостей: %w", err)
	}
	seq, err := nextOperationSeq(ctx, q)
	if err != nil {
		return false, err
	}
	if op.Status == "" {
		op.Status = operation.StatusPending
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO pending_operations (operation_id, seq, kind, entity_type, entity_id, class,
			payload, depends_on, status, attempt_count, last_error, canonical_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, NULL, ?, ?)`,
		op.ID, seq, op.Kind, op.EntityType, op.EntityID, op.Class(),
		string(payload), string(dependsOn), op.Status, formatTime(now), formatTime(now))
	if err != nil {
		return false, fmt.Errorf("ошибка записи операции в журнал: %w", err)
	}

	op.Seq = seq
	op.CreatedAt = now.UTC()
	op.UpdatedAt = now.UTC()
	return true, nil
}

// createOperationFor ищет незавершенную операцию создания сущности
func createOperationFor(ctx context.Context, q querier, t clinic.EntityType, id int64) (string, error) {
	var opID string
	err := q.QueryRowContext(ctx, `
		SELECT operation_id FROM pending_operations
		WHERE entity_type = ? AND entity_id = ? AND kind = 'create' AND status != 'acked'
		ORDER BY seq LIMIT 1`, t, id,
	).Scan(&opID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка поиска операции создания: %w", err)
	}
	return opID, nil
}

// dependencies проверяет, что все ссылки существуют локально, и возвращает
// операции создания родителей, которые еще не подтверждены сервером
func dependencies(ctx context.Context, q querier, refs []operation.Ref) ([]string, error) {
	var deps []string
	seen := make(map[string]struct{})
	for _, ref := range refs {
		var exists bool
		err := q.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM `+ref.Type.Table()+` WHERE id = ?)`, ref.ID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки ссылки: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s %d", clinic.ErrDanglingRef, ref.Type, ref.ID)
		}
		if !clinic.IsTemporaryID(ref.ID) {
			continue
		}
		opID, err := createOperationFor(ctx, q, ref.Type, ref.ID)
		if err != nil {
			return nil, err
		}
		if opID == "" {
			continue
		}
		if _, ok := seen[opID]; !ok {
			seen[opID] = struct{}{}
			deps = append(deps, opID)
		}
	}
	return deps, nil
}

// EnqueueOperation добавляет операцию в журнал; false, если ключ уже есть
func (s *Storage) EnqueueOperation(ctx context.Context, op *operation.Operation) (bool, error) {
	var inserted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		inserted, err = insertOperation(ctx, tx, op, s.now())
		return err
	})
	return inserted, err
}

func (s *Storage) GetOperation(ctx context.Context, id string) (*operation.Operation, error) {
	return getOperation(ctx, s.db, id)
}

// ListOperations возвращает операции в порядке создания; без статусов: все
func (s *Storage) ListOperations(ctx context.Context, statuses ...operation.Status) ([]*operation.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM pending_operations`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения операций: %w", err)
	}
	return collectOperations(rows)
}

// ReadyOperations возвращает ожидающие операции, все зависимости которых подтверждены.
// Удаленные из архива зависимости считаются подтвержденными.
func (s *Storage) ReadyOperations(ctx context.Context) ([]*operation.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+operationColumns+` FROM pending_operations p
		WHERE p.status = 'pending'
		  AND NOT EXISTS (
			SELECT 1 FROM json_each(p.depends_on) d
			JOIN pending_operations parent ON parent.operation_id = d.value
			WHERE parent.status != 'acked'
		  )
		ORDER BY p.class, p.seq`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения готовых операций: %w", err)
	}
	return collectOperations(rows)
}

// CountOperations считает операции с указанными статусами
func (s *Storage) CountOperations(ctx context.Context, statuses ...operation.Status) (int, error) {
	query := `SELECT COUNT(*) FROM pending_operations`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчета операций: %w", err)
	}
	return n, nil
}

// MarkInFlight переводит ожидающую операцию в отправку, а сущность в pending_push.
// Возвращает операцию в том виде, в каком она уйдет на сервер: правки, слитые
// с ней после выборки пачки, уже в теле.
func (s *Storage) MarkInFlight(ctx context.Context, id string) (*operation.Operation, error) {
	var marked *operation.Operation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		op, err := getOperation(ctx, tx, id)
		if err != nil {
			return err
		}
		if op.Status != operation.StatusPending {
			return fmt.Errorf("%w: operation %s is %s, not pending",
				operation.ErrInvalidOperation, id, op.Status)
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE pending_operations SET status = 'in_flight', updated_at = ? WHERE operation_id = ?`,
			formatTime(now), id); err != nil {
			return fmt.Errorf("ошибка обновления операции: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE `+op.EntityType.Table()+` SET sync_state = 'pending_push' WHERE id = ? AND sync_state = 'local_only'`,
			op.EntityID)
		if err != nil {
			return fmt.Errorf("ошибка обновления состояния сущности: %w", err)
		}
		op.Status = operation.StatusInFlight
		op.UpdatedAt = now.UTC()
		marked = op
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// ReleaseOperation возвращает операцию в очередь после сбоя связи
func (s *Storage) ReleaseOperation(ctx context.Context, id string, cause string) error {
	return s.finishAttempt(ctx, id, operation.StatusPending, cause)
}

// FailOperation помечает операцию отклоненной сервером
func (s *Storage) FailOperation(ctx context.Context, id string, cause string) error {
	return s.finishAttempt(ctx, id, operation.StatusFailed, cause)
}

func (s *Storage) finishAttempt(ctx context.Context, id string, status operation.Status, cause string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE pending_operations
			SET status = ?, attempt_count = attempt_count + 1, last_error = ?, updated_at = ?
			WHERE operation_id = ? AND status IN ('pending', 'in_flight')`,
			status, cause, formatTime(s.now()), id)
		if err != nil {
			return fmt.Errorf("ошибка обновления операции: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s is not in flight", operation.ErrNotFound, id)
		}
		return nil
	})
}

// AckOperation фиксирует подтверждение сервера: переписывает временный id на канонический
// со всеми зависимыми строками и операциями, помечает сущность synced, а операцию acked.
// Повторное подтверждение уже подтвержденной операции ничего не меняет.
func (s *Storage) AckOperation(ctx context.Context, id string, canonicalID int64) (*operation.Operation, error) {
	var acked *operation.Operation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		op, err := getOperation(ctx, tx, id)
		if err != nil {
			return err
		}
		if op.Status == operation.StatusAcked {
			acked = op
			return nil
		}
		if canonicalID <= 0 {
			return fmt.Errorf("%w: non-canonical id %d for %s", operation.ErrInvalidOperation, canonicalID, id)
		}

		entityID := op.EntityID
		if op.Kind == operation.KindCreate && entityID != canonicalID {
			if err := remap(ctx, tx, op.EntityType, entityID, canonicalID); err != nil {
				return err
			}
			entityID = canonicalID
		}

		table := op.EntityType.Table()
		_, err = tx.ExecContext(ctx, `
			UPDATE `+table+` SET sync_state = 'synced'
			WHERE id = ? AND NOT EXISTS (
				SELECT 1 FROM pending_operations
				WHERE entity_type = ? AND entity_id = ? AND status != 'acked' AND operation_id != ?
			)`, entityID, op.EntityType, entityID, id)
		if err != nil {
			return fmt.Errorf("ошибка обновления состояния сущности: %w", err)
		}

		now := s.now()
		_, err = tx.ExecContext(ctx, `
			UPDATE pending_operations
			SET status = 'acked', canonical_id = ?, entity_id = ?, last_error = NULL,
			    attempt_count = attempt_count + 1, updated_at = ?
			WHERE operation_id = ?`,
			canonicalID, entityID, formatTime(now), id)
		if err != nil {
			return fmt.Errorf("ошибка подтверждения операции: %w", err)
		}

		acked, err = getOperation(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acked, nil
}

// ResetInFlight возвращает в очередь операции, отправка которых прервалась
func (s *Storage) ResetInFlight(ctx context.Context) (int64, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE pending_operations SET status = 'pending', updated_at = ? WHERE status = 'in_flight'`,
			formatTime(s.now()))
		if err != nil {
			return fmt.Errorf("ошибка восстановления журнала: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	if n > 0 {
		s.log.Info("in-flight operations returned to queue", slog.Int64("count", n))
	}
	return n, err
}

// RetryOperation возвращает отклоненную операцию в очередь
func (s *Storage) RetryOperation(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		op, err := getOperation(ctx, tx, id)
		if err != nil {
			return err
		}
		if op.Status != operation.StatusFailed {
			return fmt.Errorf("%w: operation %s is %s", operation.ErrNotRetryable, id, op.Status)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE pending_operations SET status = 'pending', last_error = NULL, updated_at = ? WHERE operation_id = ?`,
			formatTime(s.now()), id)
		if err != nil {
			return fmt.Errorf("ошибка обновления операции: %w", err)
		}
		return nil
	})
}

// PruneAcked удаляет из архива подтвержденные операции старше before
func (s *Storage) PruneAcked(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM pending_operations WHERE status = 'acked' AND updated_at < ?`, formatTime(before))
		if err != nil {
			return fmt.Errorf("ошибка очистки журнала: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return n, err
}
