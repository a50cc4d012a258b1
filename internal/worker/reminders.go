// Package worker содержит фоновые циклы бота: напоминания по заказам и
// ежедневный отчёт. Оба останавливаются по отмене контекста.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/repositories"
)

const reminderCheckInterval = time.Minute

// CardFormatter форматирует карточку напоминания.
type CardFormatter func(*entities.Order) string

// MessageSender отправляет текст в чат.
type MessageSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// ReminderWorker раз в минуту рассылает созревшие напоминания.
type ReminderWorker struct {
	orderRepo  repositories.OrderRepositoryInterface
	sender     MessageSender
	formatCard CardFormatter
	logger     *zap.Logger
	now        func() time.Time
}

func NewReminderWorker(
	orderRepo repositories.OrderRepositoryInterface,
	sender MessageSender,
	formatCard CardFormatter,
	logger *zap.Logger,
) *ReminderWorker {
	return &ReminderWorker{
		orderRepo:  orderRepo,
		sender:     sender,
		formatCard: formatCard,
		logger:     logger,
		now:        time.Now,
	}
}

func (w *ReminderWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(reminderCheckInterval)
	defer ticker.Stop()

	w.logger.Info("воркер напоминаний запущен")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("воркер напоминаний остановлен")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick обрабатывает пачку; ошибка по одному заказу не прерывает остальные.
func (w *ReminderWorker) tick(ctx context.Context) {
	now := w.now()

	orders, err := w.orderRepo.FindDueReminders(ctx, now)
	if err != nil {
		w.logger.Error("ошибка выборки напоминаний", zap.Error(err))
		return
	}
	if len(orders) == 0 {
		return
	}

	w.logger.Info("найдены созревшие напоминания", zap.Int("count", len(orders)))

	for i := range orders {
		o := &orders[i]

		text := fmt.Sprintf("⏰ Напоминание по заказу #%d\n\n%s", o.ID, w.formatCard(o))
		if err := w.sender.Send(ctx, o.ChatID, text); err != nil {
			w.logger.Error("ошибка отправки напоминания",
				zap.Int64("order_id", o.ID),
				zap.Int64("chat_id", o.ChatID),
				zap.Error(err))
			continue
		}

		if err := w.orderRepo.MarkReminderSent(ctx, o.ID); err != nil {
			w.logger.Error("ошибка отметки напоминания",
				zap.Int64("order_id", o.ID),
				zap.Error(err))
			continue
		}

		w.logger.Info("напоминание отправлено",
			zap.Int64("order_id", o.ID),
			zap.Int64("chat_id", o.ChatID))
	}
}
