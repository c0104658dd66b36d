package clinic

import (
	"clinicsync/internal/domain/clinic"
)

type idInput struct {
	ID int64 `path:"id" example:"-1" doc:"ID сущности (отрицательный, пока не подтвержден сервером)"`
}

type listInput struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"500" doc:"Сколько последних записей вернуть"`
}

// ==================== Client ====================

type clientRequest struct {
	FullName string  `json:"full_name" doc:"ФИО" minLength:"1" maxLength:"255"`
	Phone    string  `json:"phone" doc:"Телефон" minLength:"5"`
	Email    *string `json:"email,omitempty" doc:"Email"`
	Address  *string `json:"address,omitempty" doc:"Адрес"`
}

func (r clientRequest) toDomain(id int64) clinic.Client {
	return clinic.Client{ID: id, FullName: r.FullName, Phone: r.Phone, Email: r.Email, Address: r.Address}
}

type createClientInput struct {
	RequestID string `header:"Idempotency-Key" doc:"Ключ идемпотентности запроса"`
	Body      clientRequest
}

type updateClientInput struct {
	RequestID string `header:"Idempotency-Key" doc:"Ключ идемпотентности запроса"`
	ID        int64  `path:"id" doc:"ID клиента"`
	Body      clientRequest
}

type clientOutput struct {
	Body *clinic.Client
}

type searchClientsInput struct {
	Query string `query:"q" doc:"Часть ФИО или телефона, без учета регистра"`
	Limit int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
}

type clientsOutput struct {
	Body []clinic.Client
}

// ==================== Patient ====================

type patientRequest struct {
	Name      string        `json:"name" doc:"Кличка" minLength:"1"`
	Species   string        `json:"species" doc:"Вид животного" minLength:"1"`
	Breed     *string       `json:"breed,omitempty" doc:"Порода"`
	Gender    clinic.Gender `json:"gender,omitempty" enum:"male,female,unknown" doc:"Пол"`
	BirthDate *string       `json:"birth_date,omitempty" doc:"Дата рождения YYYY-MM-DD"`
	ClientID  int64         `json:"client_id,omitempty" doc:"ID владельца; при изменении игнорируется"`
}

func (r patientRequest) toDomain(id int64) clinic.Patient {
	return clinic.Patient{
		ID:        id,
		Name:      r.Name,
		Species:   r.Species,
		Breed:     r.Breed,
		Gender:    r.Gender,
		BirthDate: r.BirthDate,
		ClientID:  r.ClientID,
	}
}

type createPatientInput struct {
	RequestID string `header:"Idempotency-Key" doc:"Ключ идемпотентности запроса"`
	Body      patientRequest
}

type updatePatientInput struct {
	RequestID string `header:"Idempotency-Key" doc:"Ключ идемпотентности запроса"`
	ID        int64  `path:"id" doc:"ID пациента"`
	Body      patientRequest
}

type patientOutput struct {
	Body *clinic.Patient
}

type patientsOutput struct {
	Body []clinic.Patient
}

// ==================== Appointment ====================

type appointmentRequest struct {
	ClientID        int64                    `json:"client_id" doc:"ID клиента"`
	PatientID       int64                    `json:"patient_id" doc:"ID пациента этого клиента"`
	AppointmentDate string                   `json:"appointment_date" doc:"Дата YYYY-MM-DD"`
	AppointmentTime string                   `json:"appointment_time" doc:"Время HH:MM"`
	DoctorName      *string                  `json:"doctor_name,omitempty" doc:"Врач"`
	Notes           *string                  `json:"notes,omitempty" doc:"Заметки"`
	Status          clinic.AppointmentStatus `json:"status,omitempty" doc:"Статус приема"`
}

type createAppointmentInput struct {
	RequestID string `header:"Idempotency-Key" doc:"Ключ идемпотентности запроса"`
	Body      appointmentRequest
}

type appointmentOutput struct {
	Body *clinic.Appointment
}

type appointmentsOutput struct {
	Body []clinic.Appointment
}

// ==================== Invoice ====================

type invoiceItemRequest struct {
	NomenclatureID int64   `json:"nomenclature_id" doc:"ID позиции номенклатуры"`
	Quantity       float64 `json:"quantity" exclusiveMinimum:"0" doc:"Количество"`
	Price          float64 `json:"price" minimum:"0" doc:"Цена за единицу"`
}

type invoiceRequest struct {
	ClientID      int64                `json:"client_id" doc:"ID клиента"`
	Items         []invoiceItemRequest `json:"items" minItems:"1" doc:"Позиции; итог пересчитывается"`
	PaymentStatus clinic.PaymentStatus `json:"payment_status,omitempty" doc:"Статус оплаты"`
}

func (r invoiceRequest) toDomain() clinic.Invoice {
	items := make([]clinic.InvoiceItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = clinic.InvoiceItem{NomenclatureID: item.NomenclatureID, Quantity: item.Quantity, Price: item.Price}
	}
	return clinic.Invoice{ClientID: r.ClientID, Items: items, PaymentStatus: r.PaymentStatus}
}

type createInvoiceInput struct {
	RequestID string `header:"Idempotency-Key" doc:"Ключ идемпотентности запроса"`
	Body      invoiceRequest
}

type invoiceOutput struct {
	Body *clinic.Invoice
}

type invoicesOutput struct {
	Body []clinic.Invoice
}
