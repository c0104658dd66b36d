package client

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/config"
	"clinicsync/internal/app/client/crypto"
	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
	"clinicsync/internal/domain/sync"
	"clinicsync/internal/infrastructure/storage/sqlite"
)

// ackedRetention срок хранения подтвержденных операций в архиве журнала
const ackedRetention = 30 * 24 * time.Hour

// App экземпляр движка синхронизации компаньона.
// Жизненный цикл: New, Init (восстановление журнала), Start (фоновые циклы), Close.
type App struct {
	config  *config.Config
	log     *slog.Logger
	box     *crypto.SecretBox
	storage LocalStore
	queue   *Queue
	creds   *CredentialStore
	gateway *RemoteGateway
	monitor *ConnectivityMonitor
	status  *StatusPublisher
	sync    *SyncService

	started bool
	cancel  context.CancelFunc
	wg      gosync.WaitGroup
	mu      gosync.Mutex
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	box, err := crypto.LoadOrCreate(cfg.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации секрета: %w", err)
	}

	storage, err := sqlite.Open(ctx, cfg.DBPath, log)
	if err != nil {
		box.Wipe()
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	return newApp(cfg, log, box, storage), nil
}

func newApp(cfg *config.Config, log *slog.Logger, box *crypto.SecretBox, storage LocalStore) *App {
	creds := NewCredentialStore(storage, box, log)
	queue := NewQueue(storage, log)
	gateway := NewRemoteGateway(cfg.Sync, creds, log)
	monitor := NewConnectivityMonitor(gateway, cfg.Sync, log)
	status := NewStatusPublisher()

	return &App{
		config:  cfg,
		log:     log,
		box:     box,
		storage: storage,
		queue:   queue,
		creds:   creds,
		gateway: gateway,
		monitor: monitor,
		status:  status,
		sync:    NewSyncService(storage, queue, gateway, monitor, status, creds, cfg.Sync, log),
	}
}

// Init восстанавливает журнал после аварийного завершения и загружает учетные данные.
// Восстановление выполняется до любой отправки.
func (a *App) Init(ctx context.Context) error {
	if err := a.queue.Recover(ctx); err != nil {
		return err
	}
	if err := a.creds.Load(ctx, a.config.Credentials()); err != nil {
		return fmt.Errorf("ошибка загрузки учетных данных: %w", err)
	}

	a.monitor.OnChange(func(online bool) {
		a.status.Update(func(st *sync.SyncStatus) { st.IsOnline = online })
		// внутри цикла связь восстанавливает сам цикл
		if online && a.isStarted() && !a.sync.IsSyncing() {
			a.sync.TriggerAsync("online")
		}
	})
	a.creds.OnChange(func(sync.Credentials) {
		a.status.Update(func(st *sync.SyncStatus) { st.AuthError = "" })
		a.monitor.Reset()
	})

	if n, err := a.queue.Prune(ctx, ackedRetention); err != nil {
		a.log.Warn("Не удалось очистить архив журнала", slog.String("error", err.Error()))
	} else if n > 0 {
		a.log.Debug("acked operations pruned", slog.Int64("count", n))
	}

	return a.refreshCounts(ctx)
}

// Start запускает проверку связи, периодическую синхронизацию и слежение за конфигурацией
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.monitor.Run(ctx)
	}()
	a.sync.Start()

	if a.config.Watch(func(creds sync.Credentials) {
		if err := a.creds.Replace(ctx, creds); err != nil {
			a.log.Error("Не удалось применить учетные данные из конфигурации", slog.String("error", err.Error()))
		}
	}) {
		a.log.Debug("watching config file", slog.String("path", a.config.ConfigFile))
	}

	a.log.Info("Компаньон запущен",
		slog.String("server", a.creds.Current().ServerURL),
		slog.String("env", a.config.Env))
}

// Close останавливает фоновые циклы и закрывает хранилище
func (a *App) Close() error {
	a.log.Info("Завершение работы компаньона...")

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	a.sync.Stop()
	a.wg.Wait()

	err := a.storage.Close()
	a.box.Wipe()
	return err
}

// GetSyncStatus текущее состояние синхронизации
func (a *App) GetSyncStatus() sync.SyncStatus {
	return a.status.Get()
}

// OnSyncStatusChange подписывает на изменения статуса; возвращает функцию отписки
func (a *App) OnSyncStatusChange(fn func(sync.SyncStatus)) func() {
	return a.status.Subscribe(fn)
}

// FullSync ручной запуск цикла синхронизации
func (a *App) FullSync(ctx context.Context) (*sync.SyncResult, error) {
	return a.sync.FullSync(ctx)
}

// SyncStats накопленная статистика синхронизаций
func (a *App) SyncStats() sync.SyncStats {
	return a.sync.Stats()
}

// SetWorkOffline включает или выключает ручной офлайн-режим
func (a *App) SetWorkOffline(offline bool) {
	if offline {
		a.monitor.Force(false)
		return
	}
	a.monitor.Unforce()
}

// FetchBranches список филиалов для мастера настройки (учетные данные еще не сохранены)
func (a *App) FetchBranches(ctx context.Context, serverURL, apiKey string) ([]clinic.Branch, error) {
	return a.gateway.FetchBranches(ctx, serverURL, apiKey)
}

// GetBranches филиалы из последней загрузки справочников
func (a *App) GetBranches(ctx context.Context) ([]clinic.Branch, error) {
	return a.storage.ListBranches(ctx)
}

func (a *App) UpdateCredentials(ctx context.Context, serverURL, apiKey string) error {
	return a.creds.UpdateCredentials(ctx, serverURL, apiKey)
}

func (a *App) UpdateBranch(ctx context.Context, branchID int64, branchName string) error {
	return a.creds.UpdateBranch(ctx, branchID, branchName)
}

// Credentials текущие учетные данные (ключ не сериализуется в JSON)
func (a *App) Credentials() sync.Credentials {
	return a.creds.Current()
}

// FailedOperations операции, отклоненные сервером
func (a *App) FailedOperations(ctx context.Context) ([]*operation.Operation, error) {
	return a.queue.Failed(ctx)
}

// PendingOperations все неподтвержденные операции
func (a *App) PendingOperations(ctx context.Context) ([]*operation.Operation, error) {
	return a.queue.Pending(ctx)
}

// RetryOperation возвращает отклоненную операцию в очередь
func (a *App) RetryOperation(ctx context.Context, id string) error {
	if err := a.queue.Retry(ctx, id); err != nil {
		return err
	}
	return a.afterWrite(ctx)
}

// afterWrite обновляет счетчики и при необходимости запускает синхронизацию
func (a *App) afterWrite(ctx context.Context) error {
	if err := a.refreshCounts(ctx); err != nil {
		return err
	}
	if a.isStarted() && a.config.Sync.AutoSyncOnWrite && a.monitor.IsOnline() {
		a.sync.TriggerAsync("write")
	}
	return nil
}

func (a *App) isStarted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

func (a *App) refreshCounts(ctx context.Context) error {
	pending, err := a.queue.Size(ctx)
	if err != nil {
		return err
	}
	failed, err := a.queue.FailedCount(ctx)
	if err != nil {
		return err
	}
	a.status.Update(func(st *sync.SyncStatus) {
		st.PendingCount = pending
		st.FailedCount = failed
	})
	return nil
}
