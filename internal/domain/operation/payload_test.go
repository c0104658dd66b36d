package operation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsync/internal/domain/clinic"
)

func TestDecode_RejectsInvalidPayload(t *testing.T) {
	_, err := Decode(clinic.EntityPatient, []byte(`{"name":"Барсик","species":"cat"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, clinic.ErrInvalidData)

	_, err = Decode(clinic.EntityType("branch"), []byte(`{}`))
	assert.ErrorIs(t, err, clinic.ErrUnknownEntity)

	_, err = Decode(clinic.EntityClient, []byte(`{not json`))
	assert.Error(t, err)
}

func TestDecode_ReturnsConcreteVariant(t *testing.T) {
	p, err := Decode(clinic.EntityAppointment, []byte(`{
		"client_id": -1, "patient_id": -2,
		"appointment_date": "2026-05-10", "appointment_time": "10:15", "status": "scheduled"
	}`))
	require.NoError(t, err)

	appt, ok := p.(AppointmentPayload)
	require.True(t, ok)
	assert.Equal(t, int64(-2), appt.PatientID)
}

func TestRemap_RewritesOnlyMatchingReference(t *testing.T) {
	appt := AppointmentPayload{ClientID: -1, PatientID: -1, AppointmentDate: "2026-05-10", AppointmentTime: "10:15"}

	// клиент и пациент с одинаковым временным id в разных таблицах не путаются
	got, changed := appt.Remap(clinic.EntityClient, -1, 42)
	require.True(t, changed)
	assert.Equal(t, int64(42), got.(AppointmentPayload).ClientID)
	assert.Equal(t, int64(-1), got.(AppointmentPayload).PatientID)

	_, changed = ClientPayload{FullName: "Иванов"}.Remap(clinic.EntityClient, -1, 42)
	assert.False(t, changed)
}

func TestOperation_TemporaryRefs(t *testing.T) {
	op := Operation{
		ID:         "op-1",
		Kind:       KindCreate,
		EntityType: clinic.EntityInvoice,
		EntityID:   -5,
		Payload: NewInvoicePayload(clinic.Invoice{
			ClientID:  -1,
			Items:     []clinic.InvoiceItem{{ID: 7, NomenclatureID: 3, Quantity: 1, Price: 10}},
			CreatedAt: time.Now(),
		}),
	}
	require.NoError(t, op.Validate())
	assert.Equal(t, []Ref{{Type: clinic.EntityClient, ID: -1}}, op.TemporaryRefs())
	assert.Zero(t, op.Payload.(InvoicePayload).Items[0].ID)

	remapped, _ := op.Payload.Remap(clinic.EntityClient, -1, 100)
	op.Payload = remapped
	assert.Empty(t, op.TemporaryRefs())
}

func TestOperation_Validate(t *testing.T) {
	base := Operation{
		ID:         "op-1",
		Kind:       KindCreate,
		EntityType: clinic.EntityClient,
		Payload:    ClientPayload{FullName: "Иванов", Phone: "+79001234567"},
	}
	require.NoError(t, base.Validate())

	mismatch := base
	mismatch.EntityType = clinic.EntityPatient
	assert.ErrorIs(t, mismatch.Validate(), ErrInvalidOperation)

	update := base
	update.Kind = KindUpdate
	update.EntityID = -4
	assert.ErrorIs(t, update.Validate(), ErrInvalidOperation)

	noID := base
	noID.ID = ""
	assert.ErrorIs(t, noID.Validate(), ErrInvalidOperation)
}
