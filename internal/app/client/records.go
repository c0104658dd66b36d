package client

import (
	"context"

	"github.com/google/uuid"

	"clinicsync/internal/domain/clinic"
)

// operationID ключ идемпотентности: переданный вызывающим или новый UUID
func operationID(requestID string) string {
	if requestID != "" {
		return requestID
	}
	return uuid.NewString()
}

// CreateClient сохраняет клиента локально и ставит его отправку в очередь.
// Повтор с тем же requestID возвращает ранее созданного клиента.
func (a *App) CreateClient(ctx context.Context, c clinic.Client, requestID string) (*clinic.Client, error) {
	if err := clinic.NormalizeClient(&c); err != nil {
		return nil, err
	}
	if _, err := a.storage.CreateClient(ctx, &c, operationID(requestID)); err != nil {
		return nil, err
	}
	return &c, a.afterWrite(ctx)
}

func (a *App) CreatePatient(ctx context.Context, p clinic.Patient, requestID string) (*clinic.Patient, error) {
	if err := clinic.NormalizePatient(&p); err != nil {
		return nil, err
	}
	if _, err := a.storage.CreatePatient(ctx, &p, operationID(requestID)); err != nil {
		return nil, err
	}
	return &p, a.afterWrite(ctx)
}

func (a *App) CreateAppointment(ctx context.Context, ap clinic.Appointment, requestID string) (*clinic.Appointment, error) {
	if err := clinic.NormalizeAppointment(&ap); err != nil {
		return nil, err
	}
	if _, err := a.storage.CreateAppointment(ctx, &ap, operationID(requestID)); err != nil {
		return nil, err
	}
	return &ap, a.afterWrite(ctx)
}

// CreateInvoice сохраняет счет; итоги пересчитываются из позиций
func (a *App) CreateInvoice(ctx context.Context, inv clinic.Invoice, requestID string) (*clinic.Invoice, error) {
	if err := clinic.NormalizeInvoice(&inv); err != nil {
		return nil, err
	}
	if _, err := a.storage.CreateInvoice(ctx, &inv, operationID(requestID)); err != nil {
		return nil, err
	}
	return &inv, a.afterWrite(ctx)
}

// UpdateClient сохраняет изменения клиента; еще не отправленные изменения сливаются
func (a *App) UpdateClient(ctx context.Context, c clinic.Client, requestID string) (*clinic.Client, error) {
	if err := clinic.NormalizeClient(&c); err != nil {
		return nil, err
	}
	if err := a.storage.UpdateClient(ctx, &c, operationID(requestID)); err != nil {
		return nil, err
	}
	return &c, a.afterWrite(ctx)
}

// UpdatePatient сохраняет изменения пациента (владелец не меняется)
func (a *App) UpdatePatient(ctx context.Context, p clinic.Patient, requestID string) (*clinic.Patient, error) {
	current, err := a.storage.GetPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.ClientID = current.ClientID
	if err := clinic.NormalizePatient(&p); err != nil {
		return nil, err
	}
	if err := a.storage.UpdatePatient(ctx, &p, operationID(requestID)); err != nil {
		return nil, err
	}
	return &p, a.afterWrite(ctx)
}

func (a *App) GetPatient(ctx context.Context, id int64) (*clinic.Patient, error) {
	return a.storage.GetPatient(ctx, id)
}

func (a *App) GetClient(ctx context.Context, id int64) (*clinic.Client, error) {
	return a.storage.GetClient(ctx, id)
}

func (a *App) SearchClients(ctx context.Context, query string, limit int) ([]clinic.Client, error) {
	return a.storage.SearchClients(ctx, query, limit)
}

func (a *App) GetPatientsByClient(ctx context.Context, clientID int64) ([]clinic.Patient, error) {
	if _, err := a.storage.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return a.storage.ListPatientsByClient(ctx, clientID)
}

func (a *App) GetAllNomenclature(ctx context.Context) ([]clinic.NomenclatureItem, error) {
	return a.storage.AllNomenclature(ctx)
}

func (a *App) SearchNomenclature(ctx context.Context, query string, limit int) ([]clinic.NomenclatureItem, error) {
	return a.storage.SearchNomenclature(ctx, query, limit)
}

func (a *App) GetRecentAppointments(ctx context.Context, n int) ([]clinic.Appointment, error) {
	return a.storage.RecentAppointments(ctx, n)
}

func (a *App) GetRecentInvoices(ctx context.Context, n int) ([]clinic.Invoice, error) {
	return a.storage.RecentInvoices(ctx, n)
}
