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

const invoiceColumns = `id, client_id, total_amount, payment_status, sync_state, created_at`

func scanInvoice(row scanner) (*clinic.Invoice, error) {
	var (
		inv     clinic.Invoice
		created string
	)
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.TotalAmount, &inv.PaymentStatus, &inv.SyncState, &created)
	if err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &inv, nil
}

func loadInvoiceItems(ctx context.Context, q querier, inv *clinic.Invoice) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, nomenclature_id, quantity, price, total
		FROM invoice_items WHERE invoice_id = ? ORDER BY position`, inv.ID)
	if err != nil {
		return fmt.Errorf("ошибка получения позиций счета: %w", err)
	}
	defer rows.Close()

	inv.Items = []clinic.InvoiceItem{}
	for rows.Next() {
		var item clinic.InvoiceItem
		if err := rows.Scan(&item.ID, &item.NomenclatureID, &item.Quantity, &item.Price, &item.Total); err != nil {
			return fmt.Errorf("ошибка чтения позиции счета: %w", err)
		}
		inv.Items = append(inv.Items, item)
	}
	return rows.Err()
}

func getInvoice(ctx context.Context, q querier, id int64) (*clinic.Invoice, error) {
	inv, err := scanInvoice(q.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invoice %d", clinic.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения счета: %w", err)
	}
	if err := loadInvoiceItems(ctx, q, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateInvoice сохраняет счет с позициями. Каждая позиция должна ссылаться на
// существующую номенклатуру; итоги пересчитываются перед записью.
func (s *Storage) CreateInvoice(ctx context.Context, inv *clinic.Invoice, operationID string) (bool, error) {
	inv.Recalculate()
	insert := func(tx *sql.Tx, id int64, _ time.Time) error {
		for _, item := range inv.Items {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM nomenclature WHERE id = ?)`, item.NomenclatureID,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("ошибка проверки номенклатуры: %w", err)
			}
			if !exists {
				return fmt.Errorf("%w: nomenclature %d", clinic.ErrDanglingRef, item.NomenclatureID)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (id, client_id, total_amount, payment_status, sync_state, created_at)
			VALUES (?, ?, ?, ?, 'local_only', ?)`,
			id, inv.ClientID, inv.TotalAmount, inv.PaymentStatus, formatTime(inv.CreatedAt))
		if err != nil {
			return fmt.Errorf("ошибка сохранения счета: %w", err)
		}
		for i := range inv.Items {
			item := &inv.Items[i]
			res, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_items (invoice_id, position, nomenclature_id, quantity, price, total)
				VALUES (?, ?, ?, ?, ?, ?)`,
				id, i, item.NomenclatureID, item.Quantity, item.Price, item.Total)
			if err != nil {
				return fmt.Errorf("ошибка сохранения позиции счета: %w", err)
			}
			if item.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("ошибка сохранения позиции счета: %w", err)
			}
		}
		inv.ID = id
		inv.SyncState = clinic.SyncLocalOnly
		return nil
	}
	load := func(q querier, id int64) error {
		got, err := getInvoice(ctx, q, id)
		if err != nil {
			return err
		}
		*inv = *got
		return nil
	}

	// created_at попадает в тело операции, поэтому фиксируем его до построения payload
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.now().UTC()
	}
	return s.create(ctx, clinic.EntityInvoice, operationID, operation.NewInvoicePayload(*inv), insert, load)
}

func (s *Storage) GetInvoice(ctx context.Context, id int64) (*clinic.Invoice, error) {
	return getInvoice(ctx, s.db, id)
}

// RecentInvoices возвращает n последних счетов вместе с позициями
func (s *Storage) RecentInvoices(ctx context.Context, n int) ([]clinic.Invoice, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения счетов: %w", err)
	}

	invoices := []clinic.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка чтения счета: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// позиции читаются после закрытия курсора: соединение одно
	for i := range invoices {
		if err := loadInvoiceItems(ctx, s.db, &invoices[i]); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}
