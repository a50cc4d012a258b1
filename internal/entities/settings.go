package entities

import "github.com/aarondl/null/v8"

// ChatSettings — настройки ежедневного отчёта для чата.
type ChatSettings struct {
	ChatID             int64
	DailyReportEnabled bool
	// Чат, в который отправляется отчёт; невалидное значение — в сам чат.
	ReportChatID   null.Int64
	LastReportDate null.Time
}

// ReportChat возвращает чат назначения отчёта.
func (s *ChatSettings) ReportChat() int64 {
	if s.ReportChatID.Valid {
		return s.ReportChatID.Int64
	}
	return s.ChatID
}
