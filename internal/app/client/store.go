package client

import (
	"context"
	"time"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
)

// LocalStore локальное хранилище, которым пользуется движок
type LocalStore interface {
	CreateClient(ctx context.Context, c *clinic.Client, operationID string) (bool, error)
	CreatePatient(ctx context.Context, p *clinic.Patient, operationID string) (bool, error)
	CreateAppointment(ctx context.Context, a *clinic.Appointment, operationID string) (bool, error)
	CreateInvoice(ctx context.Context, inv *clinic.Invoice, operationID string) (bool, error)
	UpdateClient(ctx context.Context, c *clinic.Client, operationID string) error
	UpdatePatient(ctx context.Context, p *clinic.Patient, operationID string) error

	GetClient(ctx context.Context, id int64) (*clinic.Client, error)
	GetPatient(ctx context.Context, id int64) (*clinic.Patient, error)
	SearchClients(ctx context.Context, query string, limit int) ([]clinic.Client, error)
	ListPatientsByClient(ctx context.Context, clientID int64) ([]clinic.Patient, error)
	RecentAppointments(ctx context.Context, n int) ([]clinic.Appointment, error)
	RecentInvoices(ctx context.Context, n int) ([]clinic.Invoice, error)
	AllNomenclature(ctx context.Context) ([]clinic.NomenclatureItem, error)
	SearchNomenclature(ctx context.Context, query string, limit int) ([]clinic.NomenclatureItem, error)
	ListBranches(ctx context.Context) ([]clinic.Branch, error)
	ReplaceNomenclature(ctx context.Context, items []clinic.NomenclatureItem) error
	ReplaceBranches(ctx context.Context, branches []clinic.Branch) error

	EnqueueOperation(ctx context.Context, op *operation.Operation) (bool, error)
	GetOperation(ctx context.Context, id string) (*operation.Operation, error)
	ListOperations(ctx context.Context, statuses ...operation.Status) ([]*operation.Operation, error)
	ReadyOperations(ctx context.Context) ([]*operation.Operation, error)
	CountOperations(ctx context.Context, statuses ...operation.Status) (int, error)
	MarkInFlight(ctx context.Context, id string) (*operation.Operation, error)
	ReleaseOperation(ctx context.Context, id string, cause string) error
	FailOperation(ctx context.Context, id string, cause string) error
	AckOperation(ctx context.Context, id string, canonicalID int64) (*operation.Operation, error)
	ResetInFlight(ctx context.Context) (int64, error)
	RetryOperation(ctx context.Context, id string) error
	PruneAcked(ctx context.Context, before time.Time) (int64, error)

	GetSetting(ctx context.Context, key string) (string, error)
	PutSettings(ctx context.Context, values map[string]string) error

	Close() error
}
