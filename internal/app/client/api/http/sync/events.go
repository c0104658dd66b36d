package sync

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/api/http/middleware/loopback"
	"clinicsync/internal/domain/sync"
)

const (
	// EventsPath путь потока событий; маршрут регистрируется напрямую в chi
	EventsPath   = "/api/v1/sync/events"
	writeTimeout = 5 * time.Second
)

// allowedOrigins интерфейс клиники открывается с локальной машины
var allowedOrigins = []string{"localhost:*", "127.0.0.1:*"}

// Events отдает изменения статуса синхронизации через WebSocket.
// Первое сообщение содержит текущий статус.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if !loopback.IsLoopback(r.RemoteAddr) {
		http.Error(w, "local API accepts loopback connections only", http.StatusForbidden)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: allowedOrigins})
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()

	updates := newLatestStatus()
	unsubscribe := h.service.OnSyncStatusChange(updates.put)
	defer unsubscribe()

	ctx := conn.CloseRead(r.Context())
	h.log.Debug("events subscriber connected", slog.String("remote_addr", r.RemoteAddr))

	if err := h.send(ctx, conn, h.service.GetSyncStatus()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		case st := <-updates.ch:
			if err := h.send(ctx, conn, st); err != nil {
				h.log.Debug("events subscriber gone", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, st sync.SyncStatus) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, Event{Type: eventSyncStatus, Status: st})
}

// latestStatus хранит один неотправленный статус. Новый статус вытесняет
// неотправленный, поэтому медленный подписчик пропускает промежуточные
// значения, но всегда получает последнее.
type latestStatus struct {
	ch chan sync.SyncStatus
}

func newLatestStatus() *latestStatus {
	return &latestStatus{ch: make(chan sync.SyncStatus, 1)}
}

// put вызывается издателем синхронно и не блокируется
func (l *latestStatus) put(st sync.SyncStatus) {
	for {
		select {
		case l.ch <- st:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}
