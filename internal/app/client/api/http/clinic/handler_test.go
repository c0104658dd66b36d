package clinic

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/clinic"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateClient(ctx context.Context, c clinic.Client, requestID string) (*clinic.Client, error) {
	args := m.Called(ctx, c, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Client), args.Error(1)
}

func (m *MockService) UpdateClient(ctx context.Context, c clinic.Client, requestID string) (*clinic.Client, error) {
	args := m.Called(ctx, c, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Client), args.Error(1)
}

func (m *MockService) GetClient(ctx context.Context, id int64) (*clinic.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Client), args.Error(1)
}

func (m *MockService) SearchClients(ctx context.Context, query string, limit int) ([]clinic.Client, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]clinic.Client), args.Error(1)
}

func (m *MockService) CreatePatient(ctx context.Context, p clinic.Patient, requestID string) (*clinic.Patient, error) {
	args := m.Called(ctx, p, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Patient), args.Error(1)
}

func (m *MockService) UpdatePatient(ctx context.Context, p clinic.Patient, requestID string) (*clinic.Patient, error) {
	args := m.Called(ctx, p, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Patient), args.Error(1)
}

func (m *MockService) GetPatientsByClient(ctx context.Context, clientID int64) ([]clinic.Patient, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]clinic.Patient), args.Error(1)
}

func (m *MockService) CreateAppointment(ctx context.Context, a clinic.Appointment, requestID string) (*clinic.Appointment, error) {
	args := m.Called(ctx, a, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Appointment), args.Error(1)
}

func (m *MockService) GetRecentAppointments(ctx context.Context, n int) ([]clinic.Appointment, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]clinic.Appointment), args.Error(1)
}

func (m *MockService) CreateInvoice(ctx context.Context, inv clinic.Invoice, requestID string) (*clinic.Invoice, error) {
	args := m.Called(ctx, inv, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Invoice), args.Error(1)
}

func (m *MockService) GetRecentInvoices(ctx context.Context, n int) ([]clinic.Invoice, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]clinic.Invoice), args.Error(1)
}

func newTestHandler(service Service) *Handler {
	return NewHandler(service, slog.Default(), huma.Middlewares{})
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected huma status error, got %v", err)
	return se.GetStatus()
}

func TestHandler_createClient(t *testing.T) {
	ctx := context.Background()
	service := new(MockService)
	handler := newTestHandler(service)

	input := &createClientInput{Body: clientRequest{FullName: "Иванов Иван", Phone: "+79991234567"}}
	input.RequestID = "ui-1"
	want := clinic.Client{FullName: "Иванов Иван", Phone: "+79991234567"}
	service.On("CreateClient", ctx, want, "ui-1").
		Return(&clinic.Client{ID: -1, FullName: "Иванов Иван", SyncState: clinic.SyncLocalOnly}, nil)

	output, err := handler.createClient(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, int64(-1), output.Body.ID)
	service.AssertExpectations(t)
}

func TestHandler_createClient_InvalidData(t *testing.T) {
	ctx := context.Background()
	service := new(MockService)
	handler := newTestHandler(service)

	service.On("CreateClient", ctx, mock.Anything, "").Return(nil, clinic.ErrInvalidData)

	_, err := handler.createClient(ctx, &createClientInput{})

	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestHandler_updatePatient_UsesPathID(t *testing.T) {
	ctx := context.Background()
	service := new(MockService)
	handler := newTestHandler(service)

	input := &updatePatientInput{ID: -2, Body: patientRequest{Name: "Барсик", Species: "кот"}}
	service.On("UpdatePatient", ctx, mock.MatchedBy(func(p clinic.Patient) bool {
		return p.ID == -2 && p.Name == "Барсик"
	}), "").Return(&clinic.Patient{ID: -2, Name: "Барсик"}, nil)

	output, err := handler.updatePatient(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "Барсик", output.Body.Name)
	service.AssertExpectations(t)
}

func TestHandler_getClient_NotFound(t *testing.T) {
	ctx := context.Background()
	service := new(MockService)
	handler := newTestHandler(service)

	service.On("GetClient", ctx, int64(42)).Return(nil, clinic.ErrNotFound)

	_, err := handler.getClient(ctx, &idInput{ID: 42})

	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestHandler_createInvoice_MapsItems(t *testing.T) {
	ctx := context.Background()
	service := new(MockService)
	handler := newTestHandler(service)

	input := &createInvoiceInput{Body: invoiceRequest{
		ClientID: -1,
		Items:    []invoiceItemRequest{{NomenclatureID: 7, Quantity: 2, Price: 900.5}},
	}}
	service.On("CreateInvoice", ctx, mock.MatchedBy(func(inv clinic.Invoice) bool {
		return inv.ClientID == -1 && len(inv.Items) == 1 && inv.Items[0].NomenclatureID == 7
	}), "").Return(&clinic.Invoice{ID: -3, TotalAmount: 1801}, nil)

	output, err := handler.createInvoice(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, 1801.0, output.Body.TotalAmount)
	service.AssertExpectations(t)
}
