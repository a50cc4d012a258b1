package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Напоминание срабатывает за пять минут до названного менеджером времени.
const reminderLead = 5 * time.Minute

var (
	timeRe      = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	dateFullRe  = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	dateShortRe = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})`)
)

// ResolveReminder извлекает момент напоминания из текста комментария.
// Результат зависит только от comment и now.
//
// Правила:
//   - "завтра" задаёт дату; время берётся из HH:MM, иначе полдень;
//   - иначе ищется дата DD.MM.YYYY или DD.MM (DD.MM без года — текущий год,
//     прошедшая дата переносится на следующий);
//   - HH:MM ищется в любом месте текста; без него время остаётся полднем;
//   - только время: сегодня в это время, если оно ещё не прошло, иначе
//     завтра; минус пять минут;
//   - дата и время: дата минус пять минут, даже если момент уже в прошлом
//     (менеджер может фиксировать напоминание задним числом);
//   - дата без времени или пустой текст: напоминания нет.
//
// Полдень служит сигнальным значением «время не указано», поэтому явное
// "12:00" неотличимо от отсутствия времени — это сознательно сохранённое
// поведение, см. тесты.
func ResolveReminder(comment string, now time.Time) *time.Time {
	if strings.TrimSpace(comment) == "" {
		return nil
	}

	lower := strings.ToLower(comment)

	var (
		haveDate         bool
		year, month, day int
	)
	hour, minute := 12, 0

	if strings.Contains(lower, "завтра") {
		t := now.AddDate(0, 0, 1)
		year, month, day = t.Year(), int(t.Month()), t.Day()
		haveDate = true
	} else if m := dateFullRe.FindStringSubmatch(comment); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		// Несуществующая дата (31.02) отменяет напоминание целиком.
		if !validDate(y, mo, d) {
			return nil
		}
		year, month, day = y, mo, d
		haveDate = true
	} else if m := dateShortRe.FindStringSubmatch(comment); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if !validDate(now.Year(), mo, d) {
			return nil
		}
		year, month, day = now.Year(), mo, d
		// Прошедшая в этом году дата означает следующий год.
		if beforeToday(year, month, day, now) {
			year++
			if !validDate(year, month, day) {
				return nil
			}
		}
		haveDate = true
	}

	if m := timeRe.FindStringSubmatch(comment); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h < 24 && mi < 60 {
			hour, minute = h, mi
		}
	}

	explicitTime := hour != 12 || minute != 0

	switch {
	case !haveDate && explicitTime:
		at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		at = at.Add(-reminderLead)
		return &at
	case haveDate && explicitTime:
		at := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location()).Add(-reminderLead)
		return &at
	default:
		// Дата без времени — не напоминание; совсем ничего — тем более.
		return nil
	}
}

// validDate отсекает даты, которые time.Date молча перенёс бы на другой
// месяц (31.02 стал бы 3 марта).
func validDate(year, month, day int) bool {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func beforeToday(year, month, day int, now time.Time) bool {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return date.Before(today)
}
