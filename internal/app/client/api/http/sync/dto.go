package sync

import (
	"encoding/json"
	"time"

	"clinicsync/internal/domain/operation"
	"clinicsync/internal/domain/sync"
)

type statusOutput struct {
	Body statusResponse
}

// statusResponse плоское представление sync.SyncStatus для интерфейса
type statusResponse struct {
	IsOnline       bool       `json:"is_online"`
	IsSyncing      bool       `json:"is_syncing"`
	Phase          sync.Phase `json:"phase" enum:"idle,pulling,pushing,failed"`
	PendingCount   int        `json:"pending_count" doc:"Неподтвержденные операции, включая отклоненные"`
	FailedCount    int        `json:"failed_count" doc:"Операции, отклоненные сервером"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty" doc:"Последняя синхронизация, после которой журнал опустел"`
	LastError      string     `json:"last_error,omitempty"`
	AuthError      string     `json:"auth_error,omitempty"`
	NeedsAttention bool       `json:"needs_attention" doc:"Есть отклоненные операции или ошибка авторизации"`
}

func newStatusResponse(st sync.SyncStatus) statusResponse {
	return statusResponse{
		IsOnline:       st.IsOnline,
		IsSyncing:      st.IsSyncing,
		Phase:          st.Phase,
		PendingCount:   st.PendingCount,
		FailedCount:    st.FailedCount,
		LastSyncAt:     st.LastSyncAt,
		LastError:      st.LastError,
		AuthError:      st.AuthError,
		NeedsAttention: st.NeedsAttention(),
	}
}

type triggerOutput struct {
	Body *sync.SyncResult
}

type statsOutput struct {
	Body sync.SyncStats
}

type offlineInput struct {
	Body struct {
		Offline bool `json:"offline" doc:"Работать без сервера"`
	}
}

type operationsInput struct {
	Status string `query:"status" enum:"unacked,failed" default:"unacked" doc:"unacked для всех неподтвержденных, failed для отклоненных сервером"`
}

type operationsOutput struct {
	Body []operationView
}

type retryInput struct {
	ID string `path:"id" doc:"ID операции (ключ идемпотентности)"`
}

type retryOutput struct {
	Body statusResponse
}

// operationView операция журнала вместе с телом запроса
type operationView struct {
	ID           string          `json:"operation_id"`
	Seq          int64           `json:"seq"`
	Kind         operation.Kind  `json:"kind"`
	EntityType   string          `json:"entity_type"`
	EntityID     int64           `json:"entity_id"`
	Payload      json.RawMessage `json:"payload"`
	DependsOn    []string        `json:"depends_on,omitempty"`
	Status       string          `json:"status"`
	AttemptCount int             `json:"attempt_count"`
	LastError    *string         `json:"last_error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func newOperationView(op *operation.Operation) (operationView, error) {
	payload, err := operation.Encode(op.Payload)
	if err != nil {
		return operationView{}, err
	}
	return operationView{
		ID:           op.ID,
		Seq:          op.Seq,
		Kind:         op.Kind,
		EntityType:   op.EntityType.String(),
		EntityID:     op.EntityID,
		Payload:      payload,
		DependsOn:    op.DependsOn,
		Status:       string(op.Status),
		AttemptCount: op.AttemptCount,
		LastError:    op.LastError,
		CreatedAt:    op.CreatedAt,
		UpdatedAt:    op.UpdatedAt,
	}, nil
}

// Event сообщение в потоке /api/v1/sync/events
type Event struct {
	Type   string          `json:"type"`
	Status sync.SyncStatus `json:"status"`
}

const eventSyncStatus = "sync_status"
