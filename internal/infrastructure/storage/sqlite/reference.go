package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/clinic"
)

const nomenclatureColumns = `id, code, name, category, unit, price, is_active`

func scanNomenclature(row scanner) (*clinic.NomenclatureItem, error) {
	var (
		item                 clinic.NomenclatureItem
		code, category, unit sql.NullString
	)
	if err := row.Scan(&item.ID, &code, &item.Name, &category, &unit, &item.Price, &item.IsActive); err != nil {
		return nil, err
	}
	item.Code = stringPtr(code)
	item.Category = stringPtr(category)
	item.Unit = stringPtr(unit)
	return &item, nil
}

// ReplaceNomenclature заменяет справочник номенклатуры целиком.
// Позиции, на которые ссылаются еще не синхронизированные счета, не удаляются:
// если сервер их больше не прислал, они остаются неактивными.
func (s *Storage) ReplaceNomenclature(ctx context.Context, items []clinic.NomenclatureItem) error {
	var orphaned []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM nomenclature WHERE id NOT IN (
				SELECT ii.nomenclature_id FROM invoice_items ii
				JOIN invoices i ON i.id = ii.invoice_id
				WHERE i.sync_state != 'synced'
			)`)
		if err != nil {
			return fmt.Errorf("ошибка очистки номенклатуры: %w", err)
		}
		retained, err := nomenclatureIDs(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE nomenclature SET is_active = 0`); err != nil {
			return fmt.Errorf("ошибка обновления номенклатуры: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nomenclature (id, code, name, category, unit, price, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				code = excluded.code, name = excluded.name, category = excluded.category,
				unit = excluded.unit, price = excluded.price, is_active = excluded.is_active`)
		if err != nil {
			return fmt.Errorf("ошибка подготовки запроса: %w", err)
		}
		defer stmt.Close()

		pulled := make(map[int64]struct{}, len(items))
		for _, item := range items {
			if _, err := stmt.ExecContext(ctx, item.ID, nullString(item.Code), item.Name,
				nullString(item.Category), nullString(item.Unit), item.Price, item.IsActive); err != nil {
				return fmt.Errorf("ошибка сохранения номенклатуры %d: %w", item.ID, err)
			}
			pulled[item.ID] = struct{}{}
		}
		for _, id := range retained {
			if _, ok := pulled[id]; !ok {
				orphaned = append(orphaned, id)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(orphaned) > 0 {
		s.log.Warn("nomenclature removed on server is still used by unsynced invoices",
			slog.Any("nomenclature_ids", orphaned))
	}
	s.log.Debug("nomenclature replaced", slog.Int("count", len(items)))
	return nil
}

func nomenclatureIDs(ctx context.Context, q querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM nomenclature ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения номенклатуры: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка чтения номенклатуры: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Storage) queryNomenclature(ctx context.Context, query string, args ...any) ([]clinic.NomenclatureItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения номенклатуры: %w", err)
	}
	defer rows.Close()

	items := []clinic.NomenclatureItem{}
	for rows.Next() {
		item, err := scanNomenclature(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения номенклатуры: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// AllNomenclature возвращает весь справочник по наименованию
func (s *Storage) AllNomenclature(ctx context.Context) ([]clinic.NomenclatureItem, error) {
	return s.queryNomenclature(ctx, `SELECT `+nomenclatureColumns+` FROM nomenclature ORDER BY name, id`)
}

// SearchNomenclature ищет активные позиции по наименованию или коду
func (s *Storage) SearchNomenclature(ctx context.Context, query string, limit int) ([]clinic.NomenclatureItem, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := likePattern(query)
	return s.queryNomenclature(ctx, `
		SELECT `+nomenclatureColumns+` FROM nomenclature
		WHERE is_active = 1
		  AND (casefold(name) LIKE ? ESCAPE '\' OR casefold(COALESCE(code, '')) LIKE ? ESCAPE '\')
		ORDER BY name, id
		LIMIT ?`, pattern, pattern, limit)
}

// ReplaceBranches заменяет список филиалов целиком
func (s *Storage) ReplaceBranches(ctx context.Context, branches []clinic.Branch) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM branches`); err != nil {
			return fmt.Errorf("ошибка очистки филиалов: %w", err)
		}
		for _, b := range branches {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO branches (id, name, address) VALUES (?, ?, ?)`,
				b.ID, b.Name, nullString(b.Address)); err != nil {
				return fmt.Errorf("ошибка сохранения филиала %d: %w", b.ID, err)
			}
		}
		return nil
	})
}

func (s *Storage) ListBranches(ctx context.Context) ([]clinic.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address FROM branches ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения филиалов: %w", err)
	}
	defer rows.Close()

	branches := []clinic.Branch{}
	for rows.Next() {
		var (
			b       clinic.Branch
			address sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Name, &address); err != nil {
			return nil, fmt.Errorf("ошибка чтения филиала: %w", err)
		}
		b.Address = stringPtr(address)
		branches = append(branches, b)
	}
	return branches, rows.Err()
}
