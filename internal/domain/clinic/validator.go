package clinic

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLen  = 255
	MinPhoneLen = 5
	DateLayout  = "2006-01-02"
	TimeLayout  = "15:04"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

// NormalizeClient обрезает пробелы и проверяет обязательные поля клиента
func NormalizeClient(c *Client) error {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = trimOptional(c.Email)
	c.Address = trimOptional(c.Address)

	if c.FullName == "" {
		return invalid("full_name is required")
	}
	if utf8.RuneCountInString(c.FullName) > MaxNameLen {
		return invalid("full_name must be at most %d characters", MaxNameLen)
	}
	if utf8.RuneCountInString(c.Phone) < MinPhoneLen {
		return invalid("phone must be at least %d characters", MinPhoneLen)
	}
	if c.Email != nil && !strings.Contains(*c.Email, "@") {
		return invalid("email %q is malformed", *c.Email)
	}
	return nil
}

// NormalizePatient проверяет пациента; ссылка на клиента проверяется хранилищем
func NormalizePatient(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Species = strings.TrimSpace(p.Species)
	p.Breed = trimOptional(p.Breed)
	p.BirthDate = trimOptional(p.BirthDate)
	if p.Gender == "" {
		p.Gender = GenderUnknown
	}

	if p.Name == "" {
		return invalid("name is required")
	}
	if p.Species == "" {
		return invalid("species is required")
	}
	if err := p.Gender.Validate(); err != nil {
		return invalid("%v", err)
	}
	if p.BirthDate != nil {
		if _, err := time.Parse(DateLayout, *p.BirthDate); err != nil {
			return invalid("birth_date must be YYYY-MM-DD")
		}
	}
	if p.ClientID == 0 {
		return invalid("client_id is required")
	}
	return nil
}

// NormalizeAppointment проверяет дату, время и ссылки приема
func NormalizeAppointment(a *Appointment) error {
	a.AppointmentDate = strings.TrimSpace(a.AppointmentDate)
	a.AppointmentTime = strings.TrimSpace(a.AppointmentTime)
	a.DoctorName = trimOptional(a.DoctorName)
	a.Notes = trimOptional(a.Notes)
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}

	if a.ClientID == 0 || a.PatientID == 0 {
		return invalid("client_id and patient_id are required")
	}
	if _, err := time.Parse(DateLayout, a.AppointmentDate); err != nil {
		return invalid("appointment_date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(TimeLayout, a.AppointmentTime); err != nil {
		return invalid("appointment_time must be HH:MM")
	}
	if err := a.Status.Validate(); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// NormalizeInvoice проверяет позиции и пересчитывает итог.
// Сумма из входных данных не используется.
func NormalizeInvoice(inv *Invoice) error {
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = PaymentUnpaid
	}
	if inv.ClientID == 0 {
		return invalid("client_id is required")
	}
	if len(inv.Items) == 0 {
		return invalid("invoice must contain at least one item")
	}
	for i, item := range inv.Items {
		if item.NomenclatureID <= 0 {
			return invalid("item %d: nomenclature_id is required", i)
		}
		if item.Quantity <= 0 {
			return invalid("item %d: quantity must be positive", i)
		}
		if item.Price < 0 {
			return invalid("item %d: price must not be negative", i)
		}
	}
	if err := inv.PaymentStatus.Validate(); err != nil {
		return invalid("%v", err)
	}
	inv.Recalculate()
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
