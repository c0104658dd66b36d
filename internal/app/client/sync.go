package client

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"clinicsync/internal/app/client/config"
	"clinicsync/internal/domain/operation"
	"clinicsync/internal/domain/sync"
)

// SyncService управляет циклом синхронизации: загрузка справочников, затем отправка журнала
// в порядке зависимостей. Одновременно выполняется не более одного цикла.
type SyncService struct {
	store   LocalStore
	queue   *Queue
	gateway Gateway
	monitor *ConnectivityMonitor
	status  *StatusPublisher
	creds   CredentialsProvider
	cfg     config.SyncConfig
	log     *slog.Logger

	mu        gosync.Mutex
	isSyncing bool
	rerun     bool
	stopped   bool
	stats     sync.SyncStats

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

func NewSyncService(
	store LocalStore,
	queue *Queue,
	gateway Gateway,
	monitor *ConnectivityMonitor,
	status *StatusPublisher,
	creds CredentialsProvider,
	cfg config.SyncConfig,
	log *slog.Logger,
) *SyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncService{
		store:   store,
		queue:   queue,
		gateway: gateway,
		monitor: monitor,
		status:  status,
		creds:   creds,
		cfg:     cfg,
		log:     log.With(slog.String("component", "sync")),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start запускает периодическую синхронизацию (sync_interval > 0)
func (s *SyncService) Start() {
	if s.cfg.SyncInterval <= 0 {
		return
	}
	if !s.track() {
		return
	}
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if s.monitor.IsOnline() {
					s.TriggerAsync("interval")
				}
			}
		}
	}()
}

// Stop отменяет фоновые циклы и ждет их завершения; новые циклы после него не запускаются
func (s *SyncService) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// track регистрирует фоновую горутину, если сервис еще не остановлен
func (s *SyncService) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

// TriggerAsync запускает цикл в фоне. Если цикл уже идет, после него будет выполнен еще один.
func (s *SyncService) TriggerAsync(reason string) {
	if !s.track() {
		return
	}
	go func() {
		defer s.wg.Done()
		_, err := s.FullSync(s.ctx)
		switch {
		case err == nil:
		case errors.Is(err, sync.ErrSyncInProgress):
			s.mu.Lock()
			s.rerun = true
			s.mu.Unlock()
		case errors.Is(err, sync.ErrOffline), errors.Is(err, context.Canceled):
			s.log.Debug("background sync skipped", slog.String("reason", reason), slog.String("error", err.Error()))
		default:
			s.log.Warn("background sync failed", slog.String("reason", reason), slog.String("error", err.Error()))
		}
	}()
}

// IsSyncing сообщает, идет ли цикл
func (s *SyncService) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSyncing
}

// Stats возвращает накопленную статистику
func (s *SyncService) Stats() sync.SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// FullSync выполняет полный цикл: pull справочников, затем push журнала
func (s *SyncService) FullSync(ctx context.Context) (*sync.SyncResult, error) {
	if online, forced := s.monitor.Forced(); forced && !online {
		return nil, sync.ErrOffline
	}

	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		return nil, sync.ErrSyncInProgress
	}
	s.isSyncing = true
	s.mu.Unlock()

	result := &sync.SyncResult{StartTime: time.Now()}
	s.log.Info("Начало синхронизации")
	s.status.Update(func(st *sync.SyncStatus) {
		st.IsSyncing = true
		st.Phase = sync.PhasePulling
	})

	err := s.run(ctx, result)
	s.finish(ctx, result, err)

	s.mu.Lock()
	s.isSyncing = false
	rerun := s.rerun
	s.rerun = false
	s.mu.Unlock()
	if rerun {
		s.TriggerAsync("rerun")
	}

	return result, err
}

func (s *SyncService) run(ctx context.Context, result *sync.SyncResult) error {
	if !s.creds.Current().IsConfigured() {
		return &sync.AuthError{Op: "sync", Message: "server url or api key is empty", Err: sync.ErrNotConfigured}
	}

	pulled, err := s.pull(ctx)
	if err != nil {
		return err
	}
	result.Pulled = pulled
	s.monitor.MarkOnline()
	s.status.Update(func(st *sync.SyncStatus) {
		st.AuthError = ""
		st.Phase = sync.PhasePushing
	})

	return s.push(ctx, result)
}

// pull заменяет справочники целиком
func (s *SyncService) pull(ctx context.Context) (int, error) {
	items, err := s.gateway.PullNomenclature(ctx)
	if err != nil {
		return 0, err
	}
	branches, err := s.gateway.PullBranches(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.store.ReplaceNomenclature(ctx, items); err != nil {
		return 0, fmt.Errorf("ошибка сохранения номенклатуры: %w", err)
	}
	if err := s.store.ReplaceBranches(ctx, branches); err != nil {
		return 0, fmt.Errorf("ошибка сохранения филиалов: %w", err)
	}
	s.log.Debug("reference data pulled",
		slog.Int("nomenclature", len(items)), slog.Int("branches", len(branches)))
	return len(items) + len(branches), nil
}

// push отправляет готовые операции пачками одного класса, пока они есть.
// Отклоненная операция блокирует только своих потомков; сбой связи останавливает фазу.
func (s *SyncService) push(ctx context.Context, result *sync.SyncResult) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := s.queue.NextBatch(ctx, s.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := s.pushBatch(ctx, batch, result); err != nil {
			return err
		}
	}
}

func (s *SyncService) pushBatch(ctx context.Context, batch []*operation.Operation, result *sync.SyncResult) error {
	var mu gosync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PushParallelism)

	for _, op := range batch {
		g.Go(func() error {
			pushed, err := s.pushOne(gctx, op)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				return err
			case pushed:
				result.Pushed++
			default:
				result.Failed++
			}
			return nil
		})
	}
	return g.Wait()
}

// pushOne отправляет одну операцию. false без ошибки означает, что сервер ее отклонил.
func (s *SyncService) pushOne(ctx context.Context, op *operation.Operation) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := idMappingCheck(op); err != nil {
		return false, err
	}

	// тело перечитывается из журнала: правка могла слиться с операцией после выборки пачки
	if err := s.queue.MarkInFlight(ctx, op); err != nil {
		return false, err
	}
	// журнал обновляется даже после отмены контекста отправки
	bookkeeping := context.WithoutCancel(ctx)
	log := s.log.With(
		slog.String("operation_id", op.ID),
		slog.String("entity", op.EntityType.String()),
		slog.String("kind", string(op.Kind)))

	if err := idMappingCheck(op); err != nil {
		if rerr := s.queue.Release(bookkeeping, op, err); rerr != nil {
			log.Error("release failed", slog.String("error", rerr.Error()))
		}
		return false, err
	}

	canonicalID, err := s.gateway.Push(ctx, op)
	switch {
	case err == nil:
		if err := s.queue.MarkAcked(bookkeeping, op, canonicalID); err != nil {
			log.Error("ack failed", slog.String("error", err.Error()))
			if rerr := s.queue.Release(bookkeeping, op, err); rerr != nil {
				log.Error("release failed", slog.String("error", rerr.Error()))
			}
			return false, err
		}
		log.Info("operation pushed", slog.Int64("canonical_id", canonicalID))
		s.publishCounts(bookkeeping)
		return true, nil

	case sync.IsApplication(err):
		log.Warn("operation rejected", slog.String("error", err.Error()))
		if ferr := s.queue.MarkFailed(bookkeeping, op, err); ferr != nil {
			return false, ferr
		}
		s.publishCounts(bookkeeping)
		return false, nil

	default:
		log.Warn("operation not delivered", slog.String("error", err.Error()))
		if rerr := s.queue.Release(bookkeeping, op, err); rerr != nil {
			log.Error("release failed", slog.String("error", rerr.Error()))
		}
		return false, err
	}
}

// idMappingCheck не дает отправить операцию со ссылкой на временный id
func idMappingCheck(op *operation.Operation) error {
	if refs := op.TemporaryRefs(); len(refs) > 0 {
		return &sync.IdMappingError{
			OperationID: op.ID,
			EntityType:  refs[0].Type.String(),
			TempID:      refs[0].ID,
		}
	}
	return nil
}

// finish фиксирует итог цикла в статусе и статистике
func (s *SyncService) finish(ctx context.Context, result *sync.SyncResult, err error) {
	ctx = context.WithoutCancel(ctx)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = err == nil

	pending, cerr := s.queue.Size(ctx)
	if cerr != nil {
		s.log.Error("failed to count operations", slog.String("error", cerr.Error()))
	}
	failed, _ := s.queue.FailedCount(ctx)
	blocked, _ := s.store.CountOperations(ctx, operation.StatusPending)
	result.PendingCount = pending
	if err == nil {
		result.Blocked = blocked
	}

	switch {
	case err == nil:
	case sync.IsConnectivity(err):
		s.monitor.MarkOffline()
	case sync.IsAuth(err):
		s.status.Update(func(st *sync.SyncStatus) { st.AuthError = err.Error() })
	}
	if err != nil {
		result.Error = err.Error()
		s.status.Update(func(st *sync.SyncStatus) {
			st.Phase = sync.PhaseFailed
			st.LastError = err.Error()
		})
	}

	end := result.EndTime
	s.status.Update(func(st *sync.SyncStatus) {
		st.IsSyncing = false
		st.Phase = sync.PhaseIdle
		st.PendingCount = pending
		st.FailedCount = failed
		if err == nil {
			st.LastError = ""
			if pending == 0 {
				st.LastSyncAt = &end
			}
		}
	})

	s.updateStats(result)
	s.log.Info("Синхронизация завершена",
		slog.Bool("success", result.Success),
		slog.Int("pulled", result.Pulled),
		slog.Int("pushed", result.Pushed),
		slog.Int("failed", result.Failed),
		slog.Int("pending", result.PendingCount),
		slog.Duration("duration", result.Duration))
}

func (s *SyncService) publishCounts(ctx context.Context) {
	pending, err := s.queue.Size(ctx)
	if err != nil {
		s.log.Error("failed to count operations", slog.String("error", err.Error()))
		return
	}
	failed, err := s.queue.FailedCount(ctx)
	if err != nil {
		s.log.Error("failed to count operations", slog.String("error", err.Error()))
		return
	}
	s.status.Update(func(st *sync.SyncStatus) {
		st.PendingCount = pending
		st.FailedCount = failed
	})
}

// updateStats обновляет статистику синхронизации
func (s *SyncService) updateStats(result *sync.SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalSyncs++
	if result.Success {
		s.stats.LastSuccessful = result.EndTime
	} else {
		s.stats.LastFailed = result.EndTime
		s.stats.TotalErrors++
	}
	s.stats.TotalPushed += result.Pushed
	s.stats.TotalFailed += result.Failed

	// Скользящее среднее длительности
	n := float64(s.stats.TotalSyncs)
	s.stats.AvgSyncDuration = (s.stats.AvgSyncDuration*(n-1) + result.Duration.Seconds()) / n
}
