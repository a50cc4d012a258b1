package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
)

func cardOrder() *entities.Order {
	return &entities.Order{
		ID:           12,
		Model:        "Цветы",
		Price:        "15000",
		Address:      "Нью-Йорк",
		ContactRaw:   "89991234567 Питер Паркер",
		Phone:        null.StringFrom("+79991234567"),
		CustomerName: "Питер Паркер",
		Comment:      "завтра 15:00",
		ManagerName:  "Анна",
		Status:       entities.StatusNew,
		CreatedAt:    time.Date(2025, 6, 15, 10, 30, 0, 0, time.Local),
	}
}

func TestFormatOrderCard(t *testing.T) {
	card := formatOrderCard(cardOrder())

	lines := strings.Split(card, "\n")
	assert.Equal(t, "🔸 #12. 📦 Цветы", lines[0])
	assert.Contains(t, card, "💰 15000₽")
	assert.Contains(t, card, "📍 Нью-Йорк")
	assert.Contains(t, card, "👤 Питер Паркер | 📞 +79991234567")
	assert.Contains(t, card, "💬 завтра 15:00")
	assert.Contains(t, card, "📅 2025-06-15")
	assert.Contains(t, card, "🤝 Анна")
	// Статус всегда последней строкой.
	assert.Equal(t, "📊 🆕 Новый", lines[len(lines)-1])
}

func TestFormatOrderCardSkipsEmptyAndKeepsCurrency(t *testing.T) {
	o := cardOrder()
	o.Price = "200$"
	o.Address = ""
	o.CustomerName = ""
	o.Phone = null.String{}
	o.Comment = ""

	card := formatOrderCard(o)
	assert.Contains(t, card, "💰 200$")
	assert.NotContains(t, card, "📍")
	assert.NotContains(t, card, "👤")
	assert.NotContains(t, card, "💬")
}

func TestFormatSearchLine(t *testing.T) {
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.Local)

	o := cardOrder()
	line := formatSearchLine(o, now)
	assert.True(t, strings.HasPrefix(line, "#12 • 🆕 • Цветы"))
	assert.Contains(t, line, "сегодня 10:30")

	o.CreatedAt = time.Date(2025, 6, 14, 9, 0, 0, 0, time.Local)
	assert.Contains(t, formatSearchLine(o, now), "вчера 09:00")

	o.CreatedAt = time.Date(2025, 3, 2, 9, 0, 0, 0, time.Local)
	assert.Contains(t, formatSearchLine(o, now), "02.03 09:00")
}

func TestFormatSearchLineTruncates(t *testing.T) {
	o := cardOrder()
	o.Comment = strings.Repeat("о", 40)
	o.Model = strings.Repeat("м", 40)

	line := formatSearchLine(o, time.Now())
	assert.Contains(t, line, strings.Repeat("о", 20)+"...")
	assert.Contains(t, line, strings.Repeat("м", 30)+"...")
	assert.NotContains(t, line, strings.Repeat("о", 21))
}

func TestFormatFindCardContainsEditString(t *testing.T) {
	card := formatFindCard(cardOrder())

	assert.Contains(t, card, "🔍 ЗАКАЗ #12")
	assert.Contains(t, card, "Цветы/15000/Нью-Йорк/89991234567 Питер Паркер/завтра 15:00")
	assert.Contains(t, card, "📝 ПРАВКА")
}

func TestFormatReminderCard(t *testing.T) {
	card := FormatReminderCard(cardOrder())

	assert.True(t, strings.HasPrefix(card, "📋 Заказ #12"))
	assert.Contains(t, card, "📊 Статус: 🆕 Новый")
	assert.Contains(t, card, "📦 Модель: Цветы")
	assert.Contains(t, card, "🤝 Менеджер: Анна")
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Анна Иванова", (&User{FirstName: "Анна", LastName: "Иванова"}).DisplayName())
	assert.Equal(t, "Анна", (&User{FirstName: "Анна"}).DisplayName())
	assert.Equal(t, "anna", (&User{Username: "anna"}).DisplayName())
	assert.Equal(t, "Unknown", (&User{}).DisplayName())
	assert.Equal(t, "Unknown", (*User)(nil).DisplayName())
}
