package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
)

type SettingsRepositoryInterface interface {
	Get(ctx context.Context, chatID int64) (*entities.ChatSettings, error)
	SetDailyReportEnabled(ctx context.Context, chatID int64, enabled bool) error
	SetReportChat(ctx context.Context, chatID int64, reportChatID null.Int64) error
	SetLastReportDate(ctx context.Context, chatID int64, day time.Time) error
	EnabledChats(ctx context.Context) ([]entities.ChatSettings, error)
}

type settingsRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSettingsRepository(storage *pgxpool.Pool, logger *zap.Logger) SettingsRepositoryInterface {
	return &settingsRepository{storage: storage, logger: logger}
}

// Get возвращает настройки чата; для ещё не записанного чата — значения
// по умолчанию (отчёт выключен).
func (r *settingsRepository) Get(ctx context.Context, chatID int64) (*entities.ChatSettings, error) {
	s := entities.ChatSettings{ChatID: chatID}
	err := r.storage.QueryRow(ctx,
		`SELECT daily_report_enabled, report_chat_id, last_report_date
		 FROM settings WHERE chat_id = $1`, chatID,
	).Scan(&s.DailyReportEnabled, &s.ReportChatID, &s.LastReportDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &s, nil
		}
		return nil, fmt.Errorf("ошибка чтения настроек чата: %w", err)
	}
	return &s, nil
}

func (r *settingsRepository) SetDailyReportEnabled(ctx context.Context, chatID int64, enabled bool) error {
	_, err := r.storage.Exec(ctx, `
		INSERT INTO settings (chat_id, daily_report_enabled)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET daily_report_enabled = EXCLUDED.daily_report_enabled`,
		chatID, enabled)
	if err != nil {
		return fmt.Errorf("ошибка переключения ежедневного отчёта: %w", err)
	}
	return nil
}

func (r *settingsRepository) SetReportChat(ctx context.Context, chatID int64, reportChatID null.Int64) error {
	_, err := r.storage.Exec(ctx, `
		INSERT INTO settings (chat_id, report_chat_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET report_chat_id = EXCLUDED.report_chat_id`,
		chatID, reportChatID)
	if err != nil {
		return fmt.Errorf("ошибка смены чата отчёта: %w", err)
	}
	return nil
}

func (r *settingsRepository) SetLastReportDate(ctx context.Context, chatID int64, day time.Time) error {
	_, err := r.storage.Exec(ctx, `
		INSERT INTO settings (chat_id, last_report_date)
		VALUES ($1, $2::date)
		ON CONFLICT (chat_id) DO UPDATE SET last_report_date = EXCLUDED.last_report_date`,
		chatID, day)
	if err != nil {
		return fmt.Errorf("ошибка отметки даты отчёта: %w", err)
	}
	return nil
}

func (r *settingsRepository) EnabledChats(ctx context.Context) ([]entities.ChatSettings, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT chat_id, daily_report_enabled, report_chat_id, last_report_date
		FROM settings WHERE daily_report_enabled`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки чатов с отчётом: %w", err)
	}
	defer rows.Close()

	chats := make([]entities.ChatSettings, 0)
	for rows.Next() {
		var s entities.ChatSettings
		if err := rows.Scan(&s.ChatID, &s.DailyReportEnabled, &s.ReportChatID, &s.LastReportDate); err != nil {
			return nil, fmt.Errorf("ошибка сканирования настроек: %w", err)
		}
		chats = append(chats, s)
	}
	return chats, rows.Err()
}
