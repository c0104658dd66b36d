package clinic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalizeClient(t *testing.T) {
	tests := []struct {
		name     string
		client   Client
		wantName string
		wantErr  bool
	}{
		{
			name:     "valid client",
			client:   Client{FullName: "  Иванов Иван ", Phone: "+7 900 000-00-00"},
			wantName: "Иванов Иван",
		},
		{
			name:    "empty name",
			client:  Client{FullName: "   ", Phone: "+7 900 000-00-00"},
			wantErr: true,
		},
		{
			name:    "short phone",
			client:  Client{FullName: "Иванов", Phone: "12"},
			wantErr: true,
		},
		{
			name:    "bad email",
			client:  Client{FullName: "Иванов", Phone: "+79000000000", Email: strPtr("ivanov.example.com")},
			wantErr: true,
		},
		{
			name:     "blank optional fields are dropped",
			client:   Client{FullName: "Иванов", Phone: "+79000000000", Email: strPtr(" "), Address: strPtr("")},
			wantName: "Иванов",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.client
			err := NormalizeClient(&c)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidData)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.FullName)
			assert.Nil(t, c.Email)
			assert.Nil(t, c.Address)
		})
	}
}

func TestNormalizePatient_Defaults(t *testing.T) {
	p := Patient{Name: "Барсик", Species: "cat", ClientID: -1}
	require.NoError(t, NormalizePatient(&p))
	assert.Equal(t, GenderUnknown, p.Gender)

	p.BirthDate = strPtr("01.02.2020")
	assert.ErrorIs(t, NormalizePatient(&p), ErrInvalidData)

	missingClient := Patient{Name: "Барсик", Species: "cat"}
	assert.ErrorIs(t, NormalizePatient(&missingClient), ErrInvalidData)
}

func TestNormalizeAppointment(t *testing.T) {
	a := Appointment{ClientID: 1, PatientID: 2, AppointmentDate: "2026-03-01", AppointmentTime: "09:30"}
	require.NoError(t, NormalizeAppointment(&a))
	assert.Equal(t, AppointmentScheduled, a.Status)

	a.AppointmentTime = "9.30"
	assert.ErrorIs(t, NormalizeAppointment(&a), ErrInvalidData)
}

func TestNormalizeInvoice_RecalculatesTotals(t *testing.T) {
	inv := Invoice{
		ClientID:    -3,
		TotalAmount: 999999,
		Items: []InvoiceItem{
			{NomenclatureID: 10, Quantity: 2, Price: 150.25},
			{NomenclatureID: 11, Quantity: 1, Price: 99.99, Total: 1},
		},
	}

	require.NoError(t, NormalizeInvoice(&inv))
	assert.Equal(t, PaymentUnpaid, inv.PaymentStatus)
	assert.InDelta(t, 300.50, inv.Items[0].Total, 0.001)
	assert.InDelta(t, 99.99, inv.Items[1].Total, 0.001)
	assert.InDelta(t, 400.49, inv.TotalAmount, 0.001)
}

func TestNormalizeInvoice_Rejects(t *testing.T) {
	tests := []struct {
		name string
		inv  Invoice
	}{
		{name: "no items", inv: Invoice{ClientID: 1}},
		{name: "zero quantity", inv: Invoice{ClientID: 1, Items: []InvoiceItem{{NomenclatureID: 1, Price: 1}}}},
		{name: "no client", inv: Invoice{Items: []InvoiceItem{{NomenclatureID: 1, Quantity: 1}}}},
		{name: "bad payment status", inv: Invoice{ClientID: 1, PaymentStatus: "free", Items: []InvoiceItem{{NomenclatureID: 1, Quantity: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := tt.inv
			assert.ErrorIs(t, NormalizeInvoice(&inv), ErrInvalidData)
		})
	}
}

func TestEntityType_Class(t *testing.T) {
	assert.Less(t, EntityClient.Class(), EntityPatient.Class())
	assert.Less(t, EntityPatient.Class(), EntityAppointment.Class())
	assert.Equal(t, EntityAppointment.Class(), EntityInvoice.Class())
	assert.ErrorIs(t, EntityType("branch").Validate(), ErrUnknownEntity)
}
