package client

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/config"
	"clinicsync/internal/domain/sync"
)

// Prober однократная проверка доступности сервера
type Prober interface {
	Ping(ctx context.Context) error
}

// ConnectivityMonitor определяет, доступен ли центральный сервер.
// Состояние меняется после N успехов подряд (online) или M сбоев подряд (offline);
// первое наблюдение после старта или Reset принимается сразу.
type ConnectivityMonitor struct {
	prober           Prober
	interval         time.Duration
	onlineThreshold  int
	offlineThreshold int
	log              *slog.Logger

	mu        gosync.Mutex
	known     bool
	online    bool
	forced    *bool
	successes int
	failures  int
	listeners []func(online bool)
	kick      chan struct{}
}

func NewConnectivityMonitor(prober Prober, cfg config.SyncConfig, log *slog.Logger) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		prober:           prober,
		interval:         cfg.ProbeInterval,
		onlineThreshold:  cfg.OnlineThreshold,
		offlineThreshold: cfg.OfflineThreshold,
		log:              log.With(slog.String("component", "connectivity")),
		kick:             make(chan struct{}, 1),
	}
}

// Run периодически проверяет связь до отмены ctx
func (m *ConnectivityMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.kick:
		}
		m.Probe(ctx)
	}
}

// Probe выполняет одну проверку. Ответ сервера с ошибкой авторизации означает, что связь есть.
func (m *ConnectivityMonitor) Probe(ctx context.Context) bool {
	err := m.prober.Ping(ctx)
	switch {
	case err == nil:
		m.ReportSuccess()
	case errors.Is(err, sync.ErrNotConfigured), sync.IsConnectivity(err):
		if ctx.Err() != nil {
			return m.IsOnline()
		}
		m.log.Debug("probe failed", slog.String("error", err.Error()))
		m.ReportFailure()
	default:
		m.ReportSuccess()
	}
	return m.IsOnline()
}

// IsOnline эффективное состояние с учетом ручного режима
func (m *ConnectivityMonitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effective()
}

// Forced сообщает о ручном режиме и его значении
func (m *ConnectivityMonitor) Forced() (online bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forced == nil {
		return false, false
	}
	return *m.forced, true
}

// OnChange подписывает на смену эффективного состояния
func (m *ConnectivityMonitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Force включает ручной режим (например, «работать офлайн»)
func (m *ConnectivityMonitor) Force(online bool) {
	m.change(func() { m.forced = &online })
}

// Unforce возвращает автоматическое определение
func (m *ConnectivityMonitor) Unforce() {
	m.change(func() { m.forced = nil })
}

func (m *ConnectivityMonitor) ReportSuccess() {
	m.change(func() {
		m.failures = 0
		m.successes++
		if !m.known || (!m.online && m.successes >= m.onlineThreshold) {
			m.known = true
			m.online = true
		}
	})
}

func (m *ConnectivityMonitor) ReportFailure() {
	m.change(func() {
		m.successes = 0
		m.failures++
		if !m.known || (m.online && m.failures >= m.offlineThreshold) {
			m.known = true
			m.online = false
		}
	})
}

// MarkOnline фиксирует прямое подтверждение связи (успешный обмен с сервером)
func (m *ConnectivityMonitor) MarkOnline() {
	m.change(func() {
		m.known, m.online = true, true
		m.successes, m.failures = 0, 0
	})
}

// MarkOffline фиксирует прямое подтверждение обрыва связи
func (m *ConnectivityMonitor) MarkOffline() {
	m.change(func() {
		m.known, m.online = true, false
		m.successes, m.failures = 0, 0
	})
}

// Reset сбрасывает наблюдения (смена сервера) и запрашивает внеочередную проверку
func (m *ConnectivityMonitor) Reset() {
	m.change(func() {
		m.known = false
		m.successes, m.failures = 0, 0
	})
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *ConnectivityMonitor) effective() bool {
	if m.forced != nil {
		return *m.forced
	}
	return m.online
}

func (m *ConnectivityMonitor) change(fn func()) {
	m.mu.Lock()
	before := m.effective()
	fn()
	after := m.effective()
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	if before == after {
		return
	}
	m.log.Info("connectivity changed", slog.Bool("online", after))
	for _, fn := range listeners {
		fn(after)
	}
}
