package operation

import (
	"fmt"
	"time"

	"clinicsync/internal/domain/clinic"
)

// Kind вид изменения
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
)

func (k Kind) Validate() error {
	switch k {
	case KindCreate, KindUpdate:
		return nil
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidOperation, k)
}

// Status состояние операции в журнале
type Status string

const (
	StatusPending  Status = "pending"
	StatusInFlight Status = "in_flight"
	StatusAcked    Status = "acked"
	StatusFailed   Status = "failed"
)

func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusInFlight, StatusAcked, StatusFailed:
		return nil
	}
	return fmt.Errorf("%w: status %q", ErrInvalidOperation, s)
}

// Operation локальное изменение, еще не подтвержденное сервером.
// ID служит ключом идемпотентности и не меняется при повторных отправках.
type Operation struct {
	ID           string            `json:"operation_id"`
	Seq          int64             `json:"seq"`
	Kind         Kind              `json:"kind"`
	EntityType   clinic.EntityType `json:"entity_type"`
	EntityID     int64             `json:"entity_id"`
	Payload      Payload           `json:"-"`
	DependsOn    []string          `json:"depends_on,omitempty"`
	Status       Status            `json:"status"`
	AttemptCount int               `json:"attempt_count"`
	LastError    *string           `json:"last_error,omitempty"`
	CanonicalID  *int64            `json:"canonical_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Class класс зависимости операции
func (o *Operation) Class() int {
	return o.EntityType.Class()
}

// Validate проверяет операцию на границе журнала
func (o *Operation) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: empty operation id", ErrInvalidOperation)
	}
	if err := o.Kind.Validate(); err != nil {
		return err
	}
	if err := o.EntityType.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	if o.Payload == nil {
		return fmt.Errorf("%w: empty payload", ErrInvalidOperation)
	}
	if o.Payload.EntityType() != o.EntityType {
		return fmt.Errorf("%w: payload %s does not match entity %s",
			ErrInvalidOperation, o.Payload.EntityType(), o.EntityType)
	}
	// изменение сущности без канонического id допустимо только после ее создания
	if o.Kind == KindUpdate && clinic.IsTemporaryID(o.EntityID) && len(o.DependsOn) == 0 {
		return fmt.Errorf("%w: update of entity without canonical id", ErrInvalidOperation)
	}
	return o.Payload.Validate()
}

// TemporaryRefs возвращает ссылки полезной нагрузки, которые еще указывают на временные id
func (o *Operation) TemporaryRefs() []Ref {
	var refs []Ref
	if o.Kind == KindUpdate && clinic.IsTemporaryID(o.EntityID) {
		refs = append(refs, Ref{Type: o.EntityType, ID: o.EntityID})
	}
	for _, ref := range o.Payload.References() {
		if clinic.IsTemporaryID(ref.ID) {
			refs = append(refs, ref)
		}
	}
	return refs
}
