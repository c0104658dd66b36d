package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
)

// remap переписывает id строки. Внешние ключи с ON UPDATE CASCADE переносят ссылки
// дочерних строк, а тела неподтвержденных операций переписываются здесь же.
func remap(ctx context.Context, tx *sql.Tx, t clinic.EntityType, oldID, newID int64) error {
	if oldID == newID {
		return nil
	}
	if err := t.Validate(); err != nil {
		return err
	}
	table := t.Table()

	var taken bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`, newID,
	).Scan(&taken); err != nil {
		return fmt.Errorf("ошибка проверки id: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %s %d", ErrIDConflict, t, newID)
	}

	res, err := tx.ExecContext(ctx, `UPDATE `+table+` SET id = ? WHERE id = ?`, newID, oldID)
	if err != nil {
		return fmt.Errorf("ошибка замены id %s %d -> %d: %w", t, oldID, newID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s %d", clinic.ErrNotFound, t, oldID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pending_operations SET entity_id = ? WHERE entity_type = ? AND entity_id = ?`,
		newID, t, oldID); err != nil {
		return fmt.Errorf("ошибка замены id в журнале: %w", err)
	}

	return remapPayloads(ctx, tx, t, oldID, newID)
}

func remapPayloads(ctx context.Context, tx *sql.Tx, t clinic.EntityType, oldID, newID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM pending_operations WHERE status != 'acked' ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	ops, err := collectOperations(rows)
	if err != nil {
		return err
	}

	for _, op := range ops {
		payload, changed := op.Payload.Remap(t, oldID, newID)
		if !changed {
			continue
		}
		data, err := operation.Encode(payload)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE pending_operations SET payload = ? WHERE operation_id = ?`, string(data), op.ID,
		); err != nil {
			return fmt.Errorf("ошибка перезаписи операции %s: %w", op.ID, err)
		}
	}
	return nil
}

// RemapID заменяет временный id на канонический вместе со всеми ссылками на него
func (s *Storage) RemapID(ctx context.Context, t clinic.EntityType, oldID, newID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return remap(ctx, tx, t, oldID, newID)
	})
}

// MarkSyncState выставляет состояние синхронизации сущности
func (s *Storage) MarkSyncState(ctx context.Context, t clinic.EntityType, id int64, state clinic.SyncState) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE `+t.Table()+` SET sync_state = ? WHERE id = ?`, state, id)
		if err != nil {
			return fmt.Errorf("ошибка обновления состояния: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s %d", clinic.ErrNotFound, t, id)
		}
		return nil
	})
}
