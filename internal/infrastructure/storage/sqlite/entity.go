package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
)

// insertFunc вставляет строку с выданным временным id
type insertFunc func(tx *sql.Tx, id int64, now time.Time) error

// loadFunc перечитывает сущность в вызывающую структуру
type loadFunc func(q querier, id int64) error

// create атомарно вставляет сущность и операцию ее создания.
// Если ключ operationID уже использован, ничего не пишет и загружает ранее созданную сущность.
func (s *Storage) create(
	ctx context.Context,
	t clinic.EntityType,
	operationID string,
	payload operation.Payload,
	insert insertFunc,
	load loadFunc,
) (bool, error) {
	var created bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getOperation(ctx, tx, operationID)
		switch {
		case err == nil:
			if existing.EntityType != t || existing.Kind != operation.KindCreate {
				return fmt.Errorf("%w: key %s belongs to %s %s",
					operation.ErrDuplicate, operationID, existing.Kind, existing.EntityType)
			}
			return load(tx, existing.EntityID)
		case !errors.Is(err, operation.ErrNotFound):
			return err
		}

		deps, err := dependencies(ctx, tx, payload.References())
		if err != nil {
			return err
		}

		id, err := nextTempID(ctx, tx)
		if err != nil {
			return err
		}
		now := s.now()
		if err := insert(tx, id, now); err != nil {
			return err
		}

		op := &operation.Operation{
			ID:         operationID,
			Kind:       operation.KindCreate,
			EntityType: t,
			EntityID:   id,
			Payload:    payload,
			DependsOn:  deps,
			Status:     operation.StatusPending,
		}
		if _, err := insertOperation(ctx, tx, op, now); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		s.log.Debug("entity created locally",
			slog.String("entity", t.String()),
			slog.String("operation_id", operationID))
	}
	return created, nil
}

// applyFunc обновляет строку и возвращает новое тело операции
type applyFunc func(tx *sql.Tx, now time.Time) (operation.Payload, error)

// update обновляет сущность и сливает изменение с еще не отправленной операцией,
// а если такой нет, ставит в журнал новую операцию изменения
func (s *Storage) update(
	ctx context.Context,
	t clinic.EntityType,
	id int64,
	operationID string,
	apply applyFunc,
	load loadFunc,
) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getOperation(ctx, tx, operationID); err == nil {
			return load(tx, id)
		} else if !errors.Is(err, operation.ErrNotFound) {
			return err
		}

		now := s.now()
		payload, err := apply(tx, now)
		if err != nil {
			return err
		}
		data, err := operation.Encode(payload)
		if err != nil {
			return err
		}

		deps, err := dependencies(ctx, tx, payload.References())
		if err != nil {
			return err
		}

		var (
			openID   string
			openDeps string
		)
		err = tx.QueryRowContext(ctx, `
			SELECT operation_id, depends_on FROM pending_operations
			WHERE entity_type = ? AND entity_id = ? AND status IN ('pending', 'failed')
			ORDER BY seq DESC LIMIT 1`, t, id,
		).Scan(&openID, &openDeps)
		switch {
		case err == nil:
			merged, err := mergeDependencies(openDeps, deps)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE pending_operations
				SET payload = ?, depends_on = ?, status = 'pending', last_error = NULL, updated_at = ?
				WHERE operation_id = ?`, string(data), merged, formatTime(now), openID)
			if err != nil {
				return fmt.Errorf("ошибка слияния изменения: %w", err)
			}
			s.log.Debug("update coalesced", slog.String("operation_id", openID))
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("ошибка поиска операции: %w", err)
		}

		var inFlight string
		err = tx.QueryRowContext(ctx, `
			SELECT operation_id FROM pending_operations
			WHERE entity_type = ? AND entity_id = ? AND status = 'in_flight'
			ORDER BY seq DESC LIMIT 1`, t, id,
		).Scan(&inFlight)
		switch {
		case err == nil:
			deps = append(deps, inFlight)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("ошибка поиска операции: %w", err)
		}

		op := &operation.Operation{
			ID:         operationID,
			Kind:       operation.KindUpdate,
			EntityType: t,
			EntityID:   id,
			Payload:    payload,
			DependsOn:  deps,
			Status:     operation.StatusPending,
		}
		_, err = insertOperation(ctx, tx, op, now)
		return err
	})
}

// mergeDependencies добавляет к зависимостям операции новые, сохраняя порядок
func mergeDependencies(existing string, extra []string) (string, error) {
	var deps []string
	if err := json.Unmarshal([]byte(existing), &deps); err != nil {
		return "", fmt.Errorf("invalid depends_on: %w", err)
	}
	for _, dep := range extra {
		if !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	if deps == nil {
		deps = []string{}
	}
	data, err := json.Marshal(deps)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации зависимостей: %w", err)
	}
	return string(data), nil
}

// syncStateAfterEdit: подтвержденная сущность после правки снова локальная
const syncStateAfterEdit = `CASE WHEN sync_state = 'synced' THEN 'local_only' ELSE sync_state END`
