package operation

import (
	"encoding/json"
	"fmt"
	"time"

	"clinicsync/internal/domain/clinic"
)

// Payload тело изменения. Закрытое объединение: реализации есть только в этом пакете.
type Payload interface {
	EntityType() clinic.EntityType
	Validate() error
	// References перечисляет внешние ключи, которые должны существовать на сервере до отправки
	References() []Ref
	// Remap возвращает копию, в которой ссылка на (t, oldID) заменена на newID
	Remap(t clinic.EntityType, oldID, newID int64) (Payload, bool)
	sealed()
}

// Ref ссылка на другую сущность
type Ref struct {
	Type clinic.EntityType
	ID   int64
}

// ClientPayload тело создания/изменения клиента
type ClientPayload struct {
	FullName string  `json:"full_name"`
	Phone    string  `json:"phone"`
	Email    *string `json:"email,omitempty"`
	Address  *string `json:"address,omitempty"`
}

// PatientPayload тело создания/изменения пациента
type PatientPayload struct {
	Name      string        `json:"name"`
	Species   string        `json:"species"`
	Breed     *string       `json:"breed,omitempty"`
	Gender    clinic.Gender `json:"gender"`
	BirthDate *string       `json:"birth_date,omitempty"`
	ClientID  int64         `json:"client_id"`
}

// AppointmentPayload тело создания приема
type AppointmentPayload struct {
	ClientID        int64                    `json:"client_id"`
	PatientID       int64                    `json:"patient_id"`
	AppointmentDate string                   `json:"appointment_date"`
	AppointmentTime string                   `json:"appointment_time"`
	DoctorName      *string                  `json:"doctor_name,omitempty"`
	Notes           *string                  `json:"notes,omitempty"`
	Status          clinic.AppointmentStatus `json:"status"`
}

// InvoicePayload тело создания счета
type InvoicePayload struct {
	ClientID      int64                `json:"client_id"`
	Items         []clinic.InvoiceItem `json:"items"`
	TotalAmount   float64              `json:"total_amount"`
	PaymentStatus clinic.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time            `json:"created_at"`
}

func NewClientPayload(c clinic.Client) ClientPayload {
	return ClientPayload{FullName: c.FullName, Phone: c.Phone, Email: c.Email, Address: c.Address}
}

func NewPatientPayload(p clinic.Patient) PatientPayload {
	return PatientPayload{
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Gender:    p.Gender,
		BirthDate: p.BirthDate,
		ClientID:  p.ClientID,
	}
}

func NewAppointmentPayload(a clinic.Appointment) AppointmentPayload {
	return AppointmentPayload{
		ClientID:        a.ClientID,
		PatientID:       a.PatientID,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		DoctorName:      a.DoctorName,
		Notes:           a.Notes,
		Status:          a.Status,
	}
}

func NewInvoicePayload(inv clinic.Invoice) InvoicePayload {
	items := make([]clinic.InvoiceItem, len(inv.Items))
	for i, item := range inv.Items {
		// локальный id позиции серверу не нужен
		item.ID = 0
		items[i] = item
	}
	return InvoicePayload{
		ClientID:      inv.ClientID,
		Items:         items,
		TotalAmount:   inv.TotalAmount,
		PaymentStatus: inv.PaymentStatus,
		CreatedAt:     inv.CreatedAt.UTC(),
	}
}

func (ClientPayload) EntityType() clinic.EntityType      { return clinic.EntityClient }
func (PatientPayload) EntityType() clinic.EntityType     { return clinic.EntityPatient }
func (AppointmentPayload) EntityType() clinic.EntityType { return clinic.EntityAppointment }
func (InvoicePayload) EntityType() clinic.EntityType     { return clinic.EntityInvoice }

func (ClientPayload) sealed()      {}
func (PatientPayload) sealed()     {}
func (AppointmentPayload) sealed() {}
func (InvoicePayload) sealed()     {}

func (p ClientPayload) Validate() error {
	c := clinic.Client{FullName: p.FullName, Phone: p.Phone, Email: p.Email, Address: p.Address}
	return clinic.NormalizeClient(&c)
}

func (p PatientPayload) Validate() error {
	pt := clinic.Patient{
		Name: p.Name, Species: p.Species, Breed: p.Breed,
		Gender: p.Gender, BirthDate: p.BirthDate, ClientID: p.ClientID,
	}
	return clinic.NormalizePatient(&pt)
}

func (p AppointmentPayload) Validate() error {
	a := clinic.Appointment{
		ClientID: p.ClientID, PatientID: p.PatientID,
		AppointmentDate: p.AppointmentDate, AppointmentTime: p.AppointmentTime,
		DoctorName: p.DoctorName, Notes: p.Notes, Status: p.Status,
	}
	return clinic.NormalizeAppointment(&a)
}

func (p InvoicePayload) Validate() error {
	inv := clinic.Invoice{
		ClientID:      p.ClientID,
		Items:         append([]clinic.InvoiceItem(nil), p.Items...),
		PaymentStatus: p.PaymentStatus,
	}
	return clinic.NormalizeInvoice(&inv)
}

func (ClientPayload) References() []Ref { return nil }

func (p PatientPayload) References() []Ref {
	return []Ref{{Type: clinic.EntityClient, ID: p.ClientID}}
}

func (p AppointmentPayload) References() []Ref {
	return []Ref{
		{Type: clinic.EntityClient, ID: p.ClientID},
		{Type: clinic.EntityPatient, ID: p.PatientID},
	}
}

func (p InvoicePayload) References() []Ref {
	return []Ref{{Type: clinic.EntityClient, ID: p.ClientID}}
}

func (p ClientPayload) Remap(clinic.EntityType, int64, int64) (Payload, bool) {
	return p, false
}

func (p PatientPayload) Remap(t clinic.EntityType, oldID, newID int64) (Payload, bool) {
	if t == clinic.EntityClient && p.ClientID == oldID {
		p.ClientID = newID
		return p, true
	}
	return p, false
}

func (p AppointmentPayload) Remap(t clinic.EntityType, oldID, newID int64) (Payload, bool) {
	changed := false
	if t == clinic.EntityClient && p.ClientID == oldID {
		p.ClientID = newID
		changed = true
	}
	if t == clinic.EntityPatient && p.PatientID == oldID {
		p.PatientID = newID
		changed = true
	}
	return p, changed
}

func (p InvoicePayload) Remap(t clinic.EntityType, oldID, newID int64) (Payload, bool) {
	if t == clinic.EntityClient && p.ClientID == oldID {
		p.ClientID = newID
		return p, true
	}
	return p, false
}

// Encode сериализует полезную нагрузку для журнала и для отправки на сервер
func Encode(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrInvalidOperation)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.EntityType(), err)
	}
	return data, nil
}

// Decode восстанавливает полезную нагрузку по типу сущности и проверяет ее
func Decode(t clinic.EntityType, data []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch t {
	case clinic.EntityClient:
		var v ClientPayload
		err = json.Unmarshal(data, &v)
		p = v
	case clinic.EntityPatient:
		var v PatientPayload
		err = json.Unmarshal(data, &v)
		p = v
	case clinic.EntityAppointment:
		var v AppointmentPayload
		err = json.Unmarshal(data, &v)
		p = v
	case clinic.EntityInvoice:
		var v InvoicePayload
		err = json.Unmarshal(data, &v)
		p = v
	default:
		return nil, fmt.Errorf("%w: %s", clinic.ErrUnknownEntity, t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse payload for type %s: %w", t, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("payload for type %s: %w", t, err)
	}
	return p, nil
}
