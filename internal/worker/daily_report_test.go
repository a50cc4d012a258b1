package worker

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/services"
)

// fakeReports — заглушка сервиса отчётов для воркера.
type fakeReports struct {
	services.ReportServiceInterface
	due    []entities.ChatSettings
	marked []int64
}

func (f *fakeReports) DueDailyReports(_ context.Context, _ time.Time) ([]entities.ChatSettings, error) {
	return f.due, nil
}

func (f *fakeReports) BuildDaily(_ context.Context, _ time.Time) ([]byte, error) {
	return []byte("xlsx"), nil
}

func (f *fakeReports) MarkDailySent(_ context.Context, chatID int64, _ time.Time) error {
	f.marked = append(f.marked, chatID)
	return nil
}

type recordingDocSender struct {
	docs map[int64][]string
}

func (s *recordingDocSender) SendDocument(_ context.Context, chatID int64, filename string, _ []byte, _ string) error {
	if s.docs == nil {
		s.docs = map[int64][]string{}
	}
	s.docs[chatID] = append(s.docs[chatID], filename)
	return nil
}

func fixedClock(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 15, hour, minute, 0, 0, time.Local)
	}
}

func TestDailyReportBeforeThreshold(t *testing.T) {
	reports := &fakeReports{due: []entities.ChatSettings{{ChatID: 5, DailyReportEnabled: true}}}
	sender := &recordingDocSender{}

	w := NewDailyReportWorker(reports, sender, 19, 0, zap.NewNop())
	w.now = fixedClock(12, 0)
	w.tick(context.Background())

	assert.Empty(t, sender.docs)
	assert.Empty(t, reports.marked)
}

func TestDailyReportAfterThreshold(t *testing.T) {
	reports := &fakeReports{due: []entities.ChatSettings{
		{ChatID: 5, DailyReportEnabled: true},
		{ChatID: 6, DailyReportEnabled: true, ReportChatID: null.Int64From(777)},
	}}
	sender := &recordingDocSender{}

	w := NewDailyReportWorker(reports, sender, 19, 0, zap.NewNop())
	w.now = fixedClock(19, 30)
	w.tick(context.Background())

	// Без явного чата отчёт идёт в сам чат, иначе в настроенный.
	require.Len(t, sender.docs[5], 1)
	require.Len(t, sender.docs[777], 1)
	assert.Equal(t, "report-daily-2025-06-15.xlsx", sender.docs[5][0])
	assert.ElementsMatch(t, []int64{5, 6}, reports.marked)
}
