package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/services"
)

const dailyCheckInterval = 10 * time.Minute

// DocumentSender отправляет файл отчёта в чат.
type DocumentSender interface {
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
}

// DailyReportWorker после установленного времени рассылает ежедневный
// отчёт в чаты, где он включён и сегодня ещё не отправлялся.
type DailyReportWorker struct {
	reports services.ReportServiceInterface
	sender  DocumentSender
	logger  *zap.Logger

	hour   int
	minute int
	now    func() time.Time
}

func NewDailyReportWorker(
	reports services.ReportServiceInterface,
	sender DocumentSender,
	hour, minute int,
	logger *zap.Logger,
) *DailyReportWorker {
	return &DailyReportWorker{
		reports: reports,
		sender:  sender,
		logger:  logger,
		hour:    hour,
		minute:  minute,
		now:     time.Now,
	}
}

func (w *DailyReportWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(dailyCheckInterval)
	defer ticker.Stop()

	w.logger.Info("воркер ежедневного отчёта запущен",
		zap.Int("hour", w.hour), zap.Int("minute", w.minute))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("воркер ежедневного отчёта остановлен")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *DailyReportWorker) tick(ctx context.Context) {
	now := w.now()

	threshold := time.Date(now.Year(), now.Month(), now.Day(), w.hour, w.minute, 0, 0, now.Location())
	if now.Before(threshold) {
		return
	}

	chats, err := w.reports.DueDailyReports(ctx, now)
	if err != nil {
		w.logger.Error("ошибка выборки чатов для отчёта", zap.Error(err))
		return
	}

	for _, chat := range chats {
		if err := w.sendReport(ctx, now, chat.ChatID, chat.ReportChat()); err != nil {
			w.logger.Error("ошибка отправки ежедневного отчёта",
				zap.Int64("chat_id", chat.ChatID),
				zap.Error(err))
		}
	}
}

func (w *DailyReportWorker) sendReport(ctx context.Context, now time.Time, chatID, reportChatID int64) error {
	data, err := w.reports.BuildDaily(ctx, now)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("report-daily-%s.xlsx", now.Format("2006-01-02"))
	caption := "📊 Ежедневный отчёт за " + now.Format("02.01.2006")

	if err := w.sender.SendDocument(ctx, reportChatID, filename, data, caption); err != nil {
		return err
	}

	if err := w.reports.MarkDailySent(ctx, chatID, now); err != nil {
		return err
	}

	w.logger.Info("ежедневный отчёт отправлен",
		zap.Int64("chat_id", chatID),
		zap.Int64("report_chat_id", reportChatID))
	return nil
}
