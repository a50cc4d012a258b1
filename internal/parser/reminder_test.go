package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReminder(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		comment string
		want    time.Time
		none    bool
	}{
		{
			name:    "time_only_not_passed_today",
			comment: "20:00",
			want:    time.Date(2025, 1, 1, 19, 55, 0, 0, time.Local),
		},
		{
			name:    "time_only_already_passed",
			comment: "09:00",
			want:    time.Date(2025, 1, 2, 8, 55, 0, 0, time.Local),
		},
		{
			name:    "date_and_time",
			comment: "28.12 20:00",
			want:    time.Date(2025, 12, 28, 19, 55, 0, 0, time.Local),
		},
		{
			name: "date_without_time",
			// Голая дата без времени — не напоминание.
			comment: "28.12",
			none:    true,
		},
		{
			name:    "tomorrow_with_time",
			comment: "завтра в 15:30",
			want:    time.Date(2025, 1, 2, 15, 25, 0, 0, time.Local),
		},
		{
			name:    "tomorrow_without_time",
			comment: "перезвонить завтра",
			none:    true,
		},
		{
			name:    "full_date_in_past_kept",
			comment: "доставка 15.03.2024 18:00",
			// Дата с временем ставится даже в прошлом: менеджер может
			// фиксировать напоминание задним числом.
			want: time.Date(2024, 3, 15, 17, 55, 0, 0, time.Local),
		},
		{
			name:    "short_date_rolls_to_next_year",
			comment: "01.01 в 09:00 созвон", // 01.01 < сегодня? нет, равно — остаётся в этом году
			want:    time.Date(2025, 1, 1, 8, 55, 0, 0, time.Local),
		},
		{
			name:    "short_date_passed_this_year",
			comment: "жду 31.12 14:00",
			want:    time.Date(2025, 12, 31, 13, 55, 0, 0, time.Local),
		},
		{
			name:    "explicit_noon_equals_no_time",
			// Известная неоднозначность: явное "12:00" совпадает с
			// сигнальным значением «время не указано», поэтому вместе с
			// датой напоминание не создаётся. Поведение сохранено.
			comment: "28.12 12:00",
			none:    true,
		},
		{
			name:    "noon_only_no_reminder",
			comment: "12:00",
			none:    true,
		},
		{
			name:    "invalid_time_ignored",
			comment: "28.12 27:80",
			none:    true,
		},
		{
			name: "nonexistent_date_no_fallback",
			// 31.02 не существует; время рядом не превращает фразу в
			// напоминание "сегодня в 15:00".
			comment: "доставка 31.02 15:00",
			none:    true,
		},
		{
			name:    "february_29_non_leap_year",
			comment: "29.02 10:00", // 2025 не високосный
			none:    true,
		},
		{
			name:    "february_29_leap_year_full_date",
			comment: "29.02.2024 10:00",
			want:    time.Date(2024, 2, 29, 9, 55, 0, 0, time.Local),
		},
		{
			name:    "nonexistent_full_date",
			comment: "31.02.2025 15:00",
			none:    true,
		},
		{name: "empty", comment: "", none: true},
		{name: "whitespace", comment: "   ", none: true},
		{name: "plain_text", comment: "клиент думает", none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveReminder(tt.comment, now)
			if tt.none {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestResolveReminder_Deterministic(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 37, 42, 123, time.Local)
	first := ResolveReminder("завтра 09:15", now)
	second := ResolveReminder("завтра 09:15", now)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.True(t, first.Equal(*second))
	// Секунды отбрасываются: момент напоминания выровнен по минуте.
	assert.Zero(t, first.Second())
}

func TestFoldForSearch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ПРИВЕТ", "привет"},
		{"Ёлка", "ёлка"},
		{"MacBook PRO", "macbook pro"},
		{"Смешанный Text", "смешанный text"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldForSearch(tt.in))
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "red iphone", NormalizeQuery("  red   iphone "))
	assert.Equal(t, "", NormalizeQuery("   "))
}
