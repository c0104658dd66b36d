package clinic

import (
	"time"
)

// Client владелец животного
type Client struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	SyncState SyncState `json:"sync_state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patient пациент клиники (животное), принадлежит клиенту
type Patient struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     *string   `json:"breed,omitempty"`
	Gender    Gender    `json:"gender"`
	BirthDate *string   `json:"birth_date,omitempty"`
	ClientID  int64     `json:"client_id"`
	SyncState SyncState `json:"sync_state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appointment запись на прием
type Appointment struct {
	ID              int64             `json:"id"`
	ClientID        int64             `json:"client_id"`
	PatientID       int64             `json:"patient_id"`
	AppointmentDate string            `json:"appointment_date"`
	AppointmentTime string            `json:"appointment_time"`
	DoctorName      *string           `json:"doctor_name,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	Status          AppointmentStatus `json:"status"`
	SyncState       SyncState         `json:"sync_state"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Invoice счет клиента
type Invoice struct {
	ID            int64         `json:"id"`
	ClientID      int64         `json:"client_id"`
	Items         []InvoiceItem `json:"items"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	SyncState     SyncState     `json:"sync_state"`
	CreatedAt     time.Time     `json:"created_at"`
}

// InvoiceItem позиция счета
type InvoiceItem struct {
	ID             int64   `json:"id,omitempty"`
	NomenclatureID int64   `json:"nomenclature_id"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
	Total          float64 `json:"total"`
}

// NomenclatureItem позиция справочника услуг и товаров. Данные сервера, локально только чтение.
type NomenclatureItem struct {
	ID       int64   `json:"id"`
	Code     *string `json:"code,omitempty"`
	Name     string  `json:"name"`
	Category *string `json:"category,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"is_active"`
}

// Branch филиал клиники. Данные сервера, локально только чтение.
type Branch struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

// Recalculate пересчитывает суммы позиций и итог счета
func (inv *Invoice) Recalculate() {
	var total float64
	for i := range inv.Items {
		inv.Items[i].Total = round2(inv.Items[i].Quantity * inv.Items[i].Price)
		total += inv.Items[i].Total
	}
	inv.TotalAmount = round2(total)
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}

// IsTemporaryID сообщает, что идентификатор выдан локально и еще не заменен серверным
func IsTemporaryID(id int64) bool {
	return id < 0
}
