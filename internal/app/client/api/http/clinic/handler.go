package clinic

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/api/http/apierr"
	"clinicsync/internal/domain/clinic"
)

// Service локальные операции с данными клиники
type Service interface {
	CreateClient(ctx context.Context, c clinic.Client, requestID string) (*clinic.Client, error)
	UpdateClient(ctx context.Context, c clinic.Client, requestID string) (*clinic.Client, error)
	GetClient(ctx context.Context, id int64) (*clinic.Client, error)
	SearchClients(ctx context.Context, query string, limit int) ([]clinic.Client, error)
	CreatePatient(ctx context.Context, p clinic.Patient, requestID string) (*clinic.Patient, error)
	UpdatePatient(ctx context.Context, p clinic.Patient, requestID string) (*clinic.Patient, error)
	GetPatientsByClient(ctx context.Context, clientID int64) ([]clinic.Patient, error)
	CreateAppointment(ctx context.Context, a clinic.Appointment, requestID string) (*clinic.Appointment, error)
	GetRecentAppointments(ctx context.Context, n int) ([]clinic.Appointment, error)
	CreateInvoice(ctx context.Context, inv clinic.Invoice, requestID string) (*clinic.Invoice, error)
	GetRecentInvoices(ctx context.Context, n int) ([]clinic.Invoice, error)
}

type Handler struct {
	service    Service
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Service, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createClientOp(), h.createClient)
	huma.Register(api, h.updateClientOp(), h.updateClient)
	huma.Register(api, h.getClientOp(), h.getClient)
	huma.Register(api, h.searchClientsOp(), h.searchClients)
	huma.Register(api, h.clientPatientsOp(), h.clientPatients)

	huma.Register(api, h.createPatientOp(), h.createPatient)
	huma.Register(api, h.updatePatientOp(), h.updatePatient)

	huma.Register(api, h.createAppointmentOp(), h.createAppointment)
	huma.Register(api, h.recentAppointmentsOp(), h.recentAppointments)

	huma.Register(api, h.createInvoiceOp(), h.createInvoice)
	huma.Register(api, h.recentInvoicesOp(), h.recentInvoices)
}

func (h *Handler) createClient(ctx context.Context, input *createClientInput) (*clientOutput, error) {
	c, err := h.service.CreateClient(ctx, input.Body.toDomain(0), input.RequestID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &clientOutput{Body: c}, nil
}

func (h *Handler) updateClient(ctx context.Context, input *updateClientInput) (*clientOutput, error) {
	c, err := h.service.UpdateClient(ctx, input.Body.toDomain(input.ID), input.RequestID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &clientOutput{Body: c}, nil
}

func (h *Handler) getClient(ctx context.Context, input *idInput) (*clientOutput, error) {
	c, err := h.service.GetClient(ctx, input.ID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &clientOutput{Body: c}, nil
}

func (h *Handler) searchClients(ctx context.Context, input *searchClientsInput) (*clientsOutput, error) {
	clients, err := h.service.SearchClients(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &clientsOutput{Body: clients}, nil
}

func (h *Handler) clientPatients(ctx context.Context, input *idInput) (*patientsOutput, error) {
	patients, err := h.service.GetPatientsByClient(ctx, input.ID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &patientsOutput{Body: patients}, nil
}

func (h *Handler) createPatient(ctx context.Context, input *createPatientInput) (*patientOutput, error) {
	p, err := h.service.CreatePatient(ctx, input.Body.toDomain(0), input.RequestID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &patientOutput{Body: p}, nil
}

func (h *Handler) updatePatient(ctx context.Context, input *updatePatientInput) (*patientOutput, error) {
	p, err := h.service.UpdatePatient(ctx, input.Body.toDomain(input.ID), input.RequestID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &patientOutput{Body: p}, nil
}

func (h *Handler) createAppointment(ctx context.Context, input *createAppointmentInput) (*appointmentOutput, error) {
	b := input.Body
	a, err := h.service.CreateAppointment(ctx, clinic.Appointment{
		ClientID:        b.ClientID,
		PatientID:       b.PatientID,
		AppointmentDate: b.AppointmentDate,
		AppointmentTime: b.AppointmentTime,
		DoctorName:      b.DoctorName,
		Notes:           b.Notes,
		Status:          b.Status,
	}, input.RequestID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &appointmentOutput{Body: a}, nil
}

func (h *Handler) recentAppointments(ctx context.Context, input *listInput) (*appointmentsOutput, error) {
	appointments, err := h.service.GetRecentAppointments(ctx, input.Limit)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &appointmentsOutput{Body: appointments}, nil
}

func (h *Handler) createInvoice(ctx context.Context, input *createInvoiceInput) (*invoiceOutput, error) {
	inv, err := h.service.CreateInvoice(ctx, input.Body.toDomain(), input.RequestID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &invoiceOutput{Body: inv}, nil
}

func (h *Handler) recentInvoices(ctx context.Context, input *listInput) (*invoicesOutput, error) {
	invoices, err := h.service.GetRecentInvoices(ctx, input.Limit)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &invoicesOutput{Body: invoices}, nil
}
