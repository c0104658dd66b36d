package sync

import (
	"time"
)

// Phase фаза цикла синхронизации
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePulling Phase = "pulling"
	PhasePushing Phase = "pushing"
	PhaseFailed  Phase = "failed"
)

// SyncStatus наблюдаемое состояние синхронизации для UI.
// Вычисляется, между запусками хранится только последнее значение.
type SyncStatus struct {
	IsOnline     bool       `json:"is_online"`
	IsSyncing    bool       `json:"is_syncing"`
	Phase        Phase      `json:"phase"`
	PendingCount int        `json:"pending_count"`
	FailedCount  int        `json:"failed_count"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	AuthError    string     `json:"auth_error,omitempty"`
}

// NeedsAttention сообщает, что есть операции, которые сами не разрешатся
func (s SyncStatus) NeedsAttention() bool {
	return s.FailedCount > 0 || s.AuthError != ""
}

// Credentials параметры подключения к центральному серверу
type Credentials struct {
	ServerURL  string `json:"server_url"`
	APIKey     string `json:"-"`
	BranchID   int64  `json:"branch_id"`
	BranchName string `json:"branch_name"`
}

// IsConfigured сообщает, заданы ли адрес сервера и ключ
func (c Credentials) IsConfigured() bool {
	return c.ServerURL != "" && c.APIKey != ""
}

// SyncResult результат одного цикла синхронизации
type SyncResult struct {
	Success      bool          `json:"success"`
	Pulled       int           `json:"pulled"`
	Pushed       int           `json:"pushed"`
	Failed       int           `json:"failed"`
	Blocked      int           `json:"blocked"`
	PendingCount int           `json:"pending_count"`
	Error        string        `json:"error,omitempty"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
}

// SyncStats накопительная статистика синхронизаций процесса
type SyncStats struct {
	TotalSyncs      int       `json:"total_syncs"`
	LastSuccessful  time.Time `json:"last_successful"`
	LastFailed      time.Time `json:"last_failed"`
	TotalPushed     int       `json:"total_pushed"`
	TotalFailed     int       `json:"total_failed"`
	TotalErrors     int       `json:"total_errors"`
	AvgSyncDuration float64   `json:"avg_sync_duration"`
}
