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

const appointmentColumns = `id, client_id, patient_id, appointment_date, appointment_time, doctor_name, notes,
	status, sync_state, created_at`

func scanAppointment(row scanner) (*clinic.Appointment, error) {
	var (
		a             clinic.Appointment
		doctor, notes sql.NullString
		created       string
	)
	err := row.Scan(&a.ID, &a.ClientID, &a.PatientID, &a.AppointmentDate, &a.AppointmentTime,
		&doctor, &notes, &a.Status, &a.SyncState, &created)
	if err != nil {
		return nil, err
	}
	a.DoctorName = stringPtr(doctor)
	a.Notes = stringPtr(notes)
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}

func getAppointment(ctx context.Context, q querier, id int64) (*clinic.Appointment, error) {
	a, err := scanAppointment(q.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: appointment %d", clinic.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения приема: %w", err)
	}
	return a, nil
}

// CreateAppointment сохраняет прием. Пациент должен принадлежать указанному клиенту.
func (s *Storage) CreateAppointment(ctx context.Context, a *clinic.Appointment, operationID string) (bool, error) {
	insert := func(tx *sql.Tx, id int64, now time.Time) error {
		var owner int64
		err := tx.QueryRowContext(ctx, `SELECT client_id FROM patients WHERE id = ?`, a.PatientID).Scan(&owner)
		if err != nil {
			return fmt.Errorf("ошибка чтения пациента: %w", err)
		}
		if owner != a.ClientID {
			return fmt.Errorf("%w: patient %d does not belong to client %d",
				clinic.ErrInvalidData, a.PatientID, a.ClientID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments (id, client_id, patient_id, appointment_date, appointment_time,
				doctor_name, notes, status, sync_state, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'local_only', ?)`,
			id, a.ClientID, a.PatientID, a.AppointmentDate, a.AppointmentTime,
			nullString(a.DoctorName), nullString(a.Notes), a.Status, formatTime(now))
		if err != nil {
			return fmt.Errorf("ошибка сохранения приема: %w", err)
		}
		a.ID = id
		a.SyncState = clinic.SyncLocalOnly
		a.CreatedAt = now.UTC()
		return nil
	}
	load := func(q querier, id int64) error {
		got, err := getAppointment(ctx, q, id)
		if err != nil {
			return err
		}
		*a = *got
		return nil
	}
	return s.create(ctx, clinic.EntityAppointment, operationID, operation.NewAppointmentPayload(*a), insert, load)
}

func (s *Storage) GetAppointment(ctx context.Context, id int64) (*clinic.Appointment, error) {
	return getAppointment(ctx, s.db, id)
}

// RecentAppointments возвращает n последних приемов по дате и времени
func (s *Storage) RecentAppointments(ctx context.Context, n int) ([]clinic.Appointment, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		ORDER BY appointment_date DESC, appointment_time DESC, created_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения приемов: %w", err)
	}
	defer rows.Close()

	appointments := []clinic.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения приема: %w", err)
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}
