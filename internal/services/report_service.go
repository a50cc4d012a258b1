package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/reports"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/repositories"
)

type ReportServiceInterface interface {
	BuildCSV(ctx context.Context) ([]byte, int, error)
	BuildXLSX(ctx context.Context) ([]byte, int, error)
	BuildStatusXLSX(ctx context.Context, status string) ([]byte, int, error)
	BuildPDF(ctx context.Context) ([]byte, int, error)
	BuildDaily(ctx context.Context, day time.Time) ([]byte, error)
	ToggleDailyReport(ctx context.Context, chatID int64) (bool, error)
	ChatSettings(ctx context.Context, chatID int64) (*entities.ChatSettings, error)
	DueDailyReports(ctx context.Context, now time.Time) ([]entities.ChatSettings, error)
	MarkDailySent(ctx context.Context, chatID int64, day time.Time) error
}

type ReportService struct {
	orderRepo    repositories.OrderRepositoryInterface
	settingsRepo repositories.SettingsRepositoryInterface
	logger       *zap.Logger
}

func NewReportService(
	orderRepo repositories.OrderRepositoryInterface,
	settingsRepo repositories.SettingsRepositoryInterface,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{orderRepo: orderRepo, settingsRepo: settingsRepo, logger: logger}
}

// BuildCSV возвращает CSV-отчёт и число записей в нём.
func (s *ReportService) BuildCSV(ctx context.Context) ([]byte, int, error) {
	orders, err := s.orderRepo.ForReport(ctx)
	if err != nil {
		return nil, 0, err
	}
	data, err := reports.BuildCSV(orders)
	return data, len(orders), err
}

func (s *ReportService) BuildXLSX(ctx context.Context) ([]byte, int, error) {
	orders, err := s.orderRepo.ForReport(ctx)
	if err != nil {
		return nil, 0, err
	}
	data, err := reports.BuildXLSX(orders)
	return data, len(orders), err
}

func (s *ReportService) BuildStatusXLSX(ctx context.Context, status string) ([]byte, int, error) {
	orders, err := s.orderRepo.FindByStatus(ctx, status, 0)
	if err != nil {
		return nil, 0, err
	}
	data, err := reports.BuildXLSX(orders)
	return data, len(orders), err
}

func (s *ReportService) BuildPDF(ctx context.Context) ([]byte, int, error) {
	orders, err := s.orderRepo.ForReport(ctx)
	if err != nil {
		return nil, 0, err
	}
	data, err := reports.BuildPDF(orders)
	return data, len(orders), err
}

// BuildDaily собирает трёхлистовой отчёт за день.
func (s *ReportService) BuildDaily(ctx context.Context, day time.Time) ([]byte, error) {
	dayOrders, err := s.orderRepo.ForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	active, err := s.orderRepo.ActiveForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	all, err := s.orderRepo.ForReport(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("сборка ежедневного отчёта",
		zap.String("date", day.Format("2006-01-02")),
		zap.Int("day_orders", len(dayOrders)),
		zap.Int("active", len(active)))

	return reports.BuildDailyXLSX(reports.DailyFeed{
		Date:      day,
		DayOrders: dayOrders,
		Active:    active,
		All:       all,
	})
}

// ToggleDailyReport переключает ежедневный отчёт для чата и возвращает
// новое состояние. При включении отчёт направляется в сам чат.
func (s *ReportService) ToggleDailyReport(ctx context.Context, chatID int64) (bool, error) {
	settings, err := s.settingsRepo.Get(ctx, chatID)
	if err != nil {
		return false, err
	}

	enabled := !settings.DailyReportEnabled
	if err := s.settingsRepo.SetDailyReportEnabled(ctx, chatID, enabled); err != nil {
		return false, err
	}
	if enabled {
		if err := s.settingsRepo.SetReportChat(ctx, chatID, null.Int64From(chatID)); err != nil {
			return false, err
		}
	}
	return enabled, nil
}

func (s *ReportService) ChatSettings(ctx context.Context, chatID int64) (*entities.ChatSettings, error) {
	return s.settingsRepo.Get(ctx, chatID)
}

// DueDailyReports возвращает чаты, которым сегодня ещё не отправлялся
// включённый ежедневный отчёт.
func (s *ReportService) DueDailyReports(ctx context.Context, now time.Time) ([]entities.ChatSettings, error) {
	chats, err := s.settingsRepo.EnabledChats(ctx)
	if err != nil {
		return nil, err
	}

	today := now.Format("2006-01-02")
	due := make([]entities.ChatSettings, 0, len(chats))
	for _, c := range chats {
		if c.LastReportDate.Valid && c.LastReportDate.Time.Format("2006-01-02") == today {
			continue
		}
		due = append(due, c)
	}
	return due, nil
}

func (s *ReportService) MarkDailySent(ctx context.Context, chatID int64, day time.Time) error {
	return s.settingsRepo.SetLastReportDate(ctx, chatID, day)
}
