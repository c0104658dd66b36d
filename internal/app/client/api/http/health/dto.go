package health

import "time"

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusOffline  = "offline"
)

type healthOutput struct {
	Body report
}

// report состояние компаньона для интерфейса и скриптов мониторинга
type report struct {
	Status       string     `json:"status" enum:"ok,degraded,offline" doc:"ok, degraded (нужно вмешательство оператора) или offline"`
	Online       bool       `json:"online" doc:"Центральный сервер доступен"`
	Syncing      bool       `json:"syncing"`
	PendingCount int        `json:"pending_count" doc:"Операции, ожидающие отправки"`
	FailedCount  int        `json:"failed_count" doc:"Операции, отклоненные сервером"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	Uptime       string     `json:"uptime" example:"2h15m0s"`
}
