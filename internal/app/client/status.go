package client

import (
	gosync "sync"

	"clinicsync/internal/domain/sync"
)

// StatusPublisher хранит текущий SyncStatus и рассылает изменения подписчикам в порядке их возникновения
type StatusPublisher struct {
	notifyMu gosync.Mutex
	mu       gosync.RWMutex
	status   sync.SyncStatus
	subs     map[int]func(sync.SyncStatus)
	nextID   int
}

func NewStatusPublisher() *StatusPublisher {
	return &StatusPublisher{
		status: sync.SyncStatus{Phase: sync.PhaseIdle},
		subs:   make(map[int]func(sync.SyncStatus)),
	}
}

func (p *StatusPublisher) Get() sync.SyncStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Subscribe регистрирует подписчика и возвращает функцию отписки.
// Подписчик вызывается синхронно и не должен сам менять статус.
func (p *StatusPublisher) Subscribe(fn func(sync.SyncStatus)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Update применяет изменение и уведомляет подписчиков
func (p *StatusPublisher) Update(change func(*sync.SyncStatus)) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	change(&p.status)
	snapshot := p.status
	subs := make([]func(sync.SyncStatus), 0, len(p.subs))
	for id := 0; id < p.nextID; id++ {
		if fn, ok := p.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
