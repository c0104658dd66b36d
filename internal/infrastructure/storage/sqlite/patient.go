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

const patientColumns = `id, name, species, breed, gender, birth_date, client_id, sync_state, created_at, updated_at`

func scanPatient(row scanner) (*clinic.Patient, error) {
	var (
		p                clinic.Patient
		breed, birth     sql.NullString
		created, updated string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Species, &breed, &p.Gender, &birth, &p.ClientID,
		&p.SyncState, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Breed = stringPtr(breed)
	p.BirthDate = stringPtr(birth)
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func getPatient(ctx context.Context, q querier, id int64) (*clinic.Patient, error) {
	p, err := scanPatient(q.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: patient %d", clinic.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения пациента: %w", err)
	}
	return p, nil
}

// CreatePatient сохраняет пациента с временным id; владелец может быть еще не отправлен
func (s *Storage) CreatePatient(ctx context.Context, p *clinic.Patient, operationID string) (bool, error) {
	insert := func(tx *sql.Tx, id int64, now time.Time) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patients (id, name, species, breed, gender, birth_date, client_id, sync_state, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 'local_only', ?, ?)`,
			id, p.Name, p.Species, nullString(p.Breed), p.Gender, nullString(p.BirthDate), p.ClientID,
			formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("ошибка сохранения пациента: %w", err)
		}
		p.ID = id
		p.SyncState = clinic.SyncLocalOnly
		p.CreatedAt = now.UTC()
		p.UpdatedAt = now.UTC()
		return nil
	}
	return s.create(ctx, clinic.EntityPatient, operationID, operation.NewPatientPayload(*p), insert, s.loadPatientInto(ctx, p))
}

// UpdatePatient сохраняет изменения пациента. Владелец пациента не меняется.
func (s *Storage) UpdatePatient(ctx context.Context, p *clinic.Patient, operationID string) error {
	apply := func(tx *sql.Tx, now time.Time) (operation.Payload, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE patients
			SET name = ?, species = ?, breed = ?, gender = ?, birth_date = ?,
			    sync_state = `+syncStateAfterEdit+`, updated_at = ?
			WHERE id = ?`,
			p.Name, p.Species, nullString(p.Breed), p.Gender, nullString(p.BirthDate), formatTime(now), p.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка обновления пациента: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("%w: patient %d", clinic.ErrNotFound, p.ID)
		}
		if err := s.loadPatientInto(ctx, p)(tx, p.ID); err != nil {
			return nil, err
		}
		return operation.NewPatientPayload(*p), nil
	}
	return s.update(ctx, clinic.EntityPatient, p.ID, operationID, apply, s.loadPatientInto(ctx, p))
}

func (s *Storage) loadPatientInto(ctx context.Context, p *clinic.Patient) loadFunc {
	return func(q querier, id int64) error {
		got, err := getPatient(ctx, q, id)
		if err != nil {
			return err
		}
		*p = *got
		return nil
	}
}

func (s *Storage) GetPatient(ctx context.Context, id int64) (*clinic.Patient, error) {
	return getPatient(ctx, s.db, id)
}

// ListPatientsByClient возвращает пациентов клиента по имени
func (s *Storage) ListPatientsByClient(ctx context.Context, clientID int64) ([]clinic.Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE client_id = ? ORDER BY name, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пациентов: %w", err)
	}
	defer rows.Close()

	patients := []clinic.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения пациента: %w", err)
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}
