package parser

import "strings"

// Явная карта «верхний → нижний» для кириллицы. Обычный case folding для
// этого алфавита ненадёжен в разных рантаймах, поэтому таблица задана руками.
var cyrillicFold = func() map[rune]rune {
	upper := []rune("АБВГДЕЁЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ")
	lower := []rune("абвгдеёжзийклмнопрстуфхцчшщъыьэюя")
	m := make(map[rune]rune, len(upper))
	for i, r := range upper {
		m[r] = lower[i]
	}
	return m
}()

// FoldForSearch нормализует строку для регистронезависимого поиска:
// кириллица — через явную карту, латиница — через strings.ToLower.
// Данные в БД не меняются, нормализация применяется только при сравнении.
func FoldForSearch(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if low, ok := cyrillicFold[r]; ok {
			r = low
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// NormalizeQuery приводит поисковый запрос к каноничному виду: обрезает края
// и схлопывает повторные пробелы.
func NormalizeQuery(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
