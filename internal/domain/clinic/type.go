package clinic

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// EntityType тип сущности, принадлежащей клинике и подлежащей отправке на сервер
type EntityType string

const (
	EntityClient      EntityType = "client"
	EntityPatient     EntityType = "patient"
	EntityAppointment EntityType = "appointment"
	EntityInvoice     EntityType = "invoice"
)

func (EntityType) Schema(_ huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type: "string",
		Enum: []any{
			string(EntityClient),
			string(EntityPatient),
			string(EntityAppointment),
			string(EntityInvoice),
		},
		Description: "Тип синхронизируемой сущности",
		Examples:    []any{EntityClient},
	}
}

// Validate реализует интерфейс huma.Validatable.
func (t EntityType) Validate() error {
	switch t {
	case EntityClient, EntityPatient, EntityAppointment, EntityInvoice:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownEntity, t)
}

func (t EntityType) String() string {
	return string(t)
}

// Class возвращает класс зависимости: клиенты отправляются раньше пациентов,
// пациенты раньше приемов и счетов.
func (t EntityType) Class() int {
	switch t {
	case EntityClient:
		return 0
	case EntityPatient:
		return 1
	default:
		return 2
	}
}

// Table возвращает имя локальной таблицы сущности
func (t EntityType) Table() string {
	switch t {
	case EntityClient:
		return "clients"
	case EntityPatient:
		return "patients"
	case EntityAppointment:
		return "appointments"
	case EntityInvoice:
		return "invoices"
	}
	return ""
}

// DisplayName возвращает человекочитаемое название типа.
func (t EntityType) DisplayName() string {
	switch t {
	case EntityClient:
		return "Клиент"
	case EntityPatient:
		return "Пациент"
	case EntityAppointment:
		return "Прием"
	case EntityInvoice:
		return "Счет"
	default:
		return "Неизвестный тип"
	}
}

// SyncState состояние синхронизации локальной сущности
type SyncState string

const (
	// SyncLocalOnly сущность создана или изменена локально и еще не отправлялась
	SyncLocalOnly SyncState = "local_only"
	// SyncPendingPush отправка начата, подтверждения сервера еще нет
	SyncPendingPush SyncState = "pending_push"
	// SyncSynced сущность принята сервером, id канонический
	SyncSynced SyncState = "synced"
)

func (s SyncState) Validate() error {
	switch s {
	case SyncLocalOnly, SyncPendingPush, SyncSynced:
		return nil
	}
	return fmt.Errorf("неверное состояние синхронизации: %s", s)
}

// Gender пол животного
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

func (g Gender) Validate() error {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return nil
	}
	return fmt.Errorf("неверный пол: %s", g)
}

// AppointmentStatus статус приема
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Validate() error {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return nil
	}
	return fmt.Errorf("неверный статус приема: %s", s)
}

// PaymentStatus статус оплаты счета
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Validate() error {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid:
		return nil
	}
	return fmt.Errorf("неверный статус оплаты: %s", s)
}
