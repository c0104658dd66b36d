package client

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/operation"
)

// Queue журнал неподтвержденных операций поверх локального хранилища.
// Порядок выдачи: класс зависимости (клиенты, пациенты, остальное), затем порядок создания.
type Queue struct {
	store LocalStore
	log   *slog.Logger
}

func NewQueue(store LocalStore, log *slog.Logger) *Queue {
	return &Queue{
		store: store,
		log:   log.With(slog.String("component", "queue")),
	}
}

// Enqueue добавляет операцию; повторный ключ идемпотентности ничего не меняет
func (q *Queue) Enqueue(ctx context.Context, op *operation.Operation) error {
	inserted, err := q.store.EnqueueOperation(ctx, op)
	if err != nil {
		return err
	}
	if !inserted {
		q.log.Debug("duplicate operation ignored", slog.String("operation_id", op.ID))
	}
	return nil
}

// NextBatch возвращает готовые к отправке операции самого младшего класса, у которого они есть.
// Операции разных классов в одну пачку не попадают.
func (q *Queue) NextBatch(ctx context.Context, limit int) ([]*operation.Operation, error) {
	ready, err := q.store.ReadyOperations(ctx)
	if err != nil {
		return nil, err
	}
	if len(ready) == 0 {
		return nil, nil
	}

	class := ready[0].Class()
	for _, op := range ready[1:] {
		if c := op.Class(); c < class {
			class = c
		}
	}

	batch := make([]*operation.Operation, 0, len(ready))
	for _, op := range ready {
		if op.Class() != class {
			continue
		}
		batch = append(batch, op)
		if limit > 0 && len(batch) == limit {
			break
		}
	}
	return batch, nil
}

// MarkInFlight переводит операцию в отправку и обновляет op текущим телом из журнала
func (q *Queue) MarkInFlight(ctx context.Context, op *operation.Operation) error {
	fresh, err := q.store.MarkInFlight(ctx, op.ID)
	if err != nil {
		return err
	}
	*op = *fresh
	return nil
}

// MarkAcked подтверждает операцию и переписывает временный id на канонический
func (q *Queue) MarkAcked(ctx context.Context, op *operation.Operation, canonicalID int64) error {
	acked, err := q.store.AckOperation(ctx, op.ID, canonicalID)
	if err != nil {
		return err
	}
	*op = *acked
	return nil
}

// MarkFailed фиксирует отказ сервера; операция ждет вмешательства оператора
func (q *Queue) MarkFailed(ctx context.Context, op *operation.Operation, cause error) error {
	if err := q.store.FailOperation(ctx, op.ID, cause.Error()); err != nil {
		return err
	}
	op.Status = operation.StatusFailed
	return nil
}

// Release возвращает операцию в очередь после сбоя связи
func (q *Queue) Release(ctx context.Context, op *operation.Operation, cause error) error {
	if err := q.store.ReleaseOperation(ctx, op.ID, cause.Error()); err != nil {
		return err
	}
	op.Status = operation.StatusPending
	return nil
}

// Recover возвращает в очередь операции, отправка которых прервалась вместе с процессом.
// Вызывается при старте до любой отправки.
func (q *Queue) Recover(ctx context.Context) error {
	n, err := q.store.ResetInFlight(ctx)
	if err != nil {
		return fmt.Errorf("ошибка восстановления очереди: %w", err)
	}
	if n > 0 {
		q.log.Warn("recovered interrupted operations", slog.Int64("count", n))
	}
	return nil
}

// Size число неподтвержденных операций, включая отклоненные
func (q *Queue) Size(ctx context.Context) (int, error) {
	return q.store.CountOperations(ctx,
		operation.StatusPending, operation.StatusInFlight, operation.StatusFailed)
}

func (q *Queue) FailedCount(ctx context.Context) (int, error) {
	return q.store.CountOperations(ctx, operation.StatusFailed)
}

func (q *Queue) Failed(ctx context.Context) ([]*operation.Operation, error) {
	return q.store.ListOperations(ctx, operation.StatusFailed)
}

func (q *Queue) Pending(ctx context.Context) ([]*operation.Operation, error) {
	return q.store.ListOperations(ctx,
		operation.StatusPending, operation.StatusInFlight, operation.StatusFailed)
}

// Retry возвращает отклоненную операцию в очередь
func (q *Queue) Retry(ctx context.Context, id string) error {
	return q.store.RetryOperation(ctx, id)
}

// Prune удаляет из архива подтвержденные операции старше retention
func (q *Queue) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return q.store.PruneAcked(ctx, time.Now().Add(-retention))
}
