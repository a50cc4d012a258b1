package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/parser"
)

const welcomeText = "👋 Добро пожаловать в nano_crm!\n\n" +
	"📝 Формат заказа (ровно 5 полей):\n" +
	"заказ / цена / адрес / контакт / комментарий\n\n" +
	"Для создания записи введите данные как в примере, через \"/\"\n\n" +
	"💡 Пример:\n" +
	"Цветы / 15000 / Нью-Йорк / 89991234567 Питер Паркер / завтра 15:00\n\n" +
	"Чтобы поменять статус, нажмите кнопки под записью:\n" +
	"🆕 Новый | 📦 В работе | 🚚 Доставка | ✅ Оплачен | ❌ Отказ\n\n" +
	"Если запись отредактировать, она обновится в базе автоматически\n\n" +
	"Reply на запись + текст перепишет комментарий\n" +
	"(дата/время в комментарии → напоминание с карточкой)\n\n" +
	"🎛️ Для работы с базой используйте кнопки ниже:\n" +
	"- 📊 Отчёт (PDF/Excel/CSV)\n" +
	"- 🔍 Поиск по базе\n" +
	"- 📈 Заказы по статусам (🆕📦🚚✅❌)\n\n" +
	"✏️ Для правки заказа используйте /find <id>"

const helpText = "Доступные команды:\n" +
	"/start - Начало работы\n" +
	"/help - Помощь\n" +
	"/find <id> - Найти заказ для правки\n" +
	"/set_status <id> <status> - Изменить статус\n" +
	"/report - CSV-отчёт\n" +
	"/report_pdf - PDF-отчёт\n" +
	"/report_xlsx - Excel-отчёт\n" +
	"\nИли отправьте сообщение в формате 5 полей для создания заказа."

// formatOrderCard собирает карточку заказа: пустые поля пропускаются,
// статус всегда последней строкой.
func formatOrderCard(o *entities.Order) string {
	lines := []string{fmt.Sprintf("🔸 #%d. 📦 %s", o.ID, o.Model)}

	if o.Price != "" {
		price := o.Price
		if !strings.ContainsAny(price, "₽$€") {
			price += "₽"
		}
		lines = append(lines, "💰 "+price)
	}
	if o.Address != "" {
		lines = append(lines, "📍 "+o.Address)
	}
	if o.CustomerName != "" || o.PhoneString() != "" {
		var contact []string
		if o.CustomerName != "" {
			contact = append(contact, o.CustomerName)
		}
		if phone := o.PhoneString(); phone != "" {
			contact = append(contact, "📞 "+phone)
		}
		lines = append(lines, "👤 "+strings.Join(contact, " | "))
	}
	if o.Comment != "" {
		lines = append(lines, "💬 "+o.Comment)
	}
	lines = append(lines, "📅 "+o.CreatedAt.Format("2006-01-02"))
	if o.ManagerName != "" {
		lines = append(lines, "🤝 "+o.ManagerName)
	}
	lines = append(lines, "📊 "+entities.StatusLabel(o.Status))

	return strings.Join(lines, "\n")
}

// formatSearchLine собирает однострочное представление заказа для
// результатов поиска и списков по статусу.
func formatSearchLine(o *entities.Order, now time.Time) string {
	comment := o.Comment
	if len([]rune(comment)) > 20 {
		comment = string([]rune(comment)[:20]) + "..."
	}
	model := o.Model
	if len([]rune(model)) > 30 {
		model = string([]rune(model)[:30]) + "..."
	}

	parts := []string{
		fmt.Sprintf("#%d", o.ID),
		entities.StatusIcon(o.Status),
		model,
		o.Price,
		o.Address,
		o.PhoneString(),
		comment,
		relativeDate(o.CreatedAt, now),
		o.ManagerName,
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " • ")
}

// relativeDate: сегодня/вчера с временем, иначе DD.MM HH:MM.
func relativeDate(t, now time.Time) string {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "сегодня " + t.Format("15:04")
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y1 == y3 && m1 == m3 && d1 == d3 {
		return "вчера " + t.Format("15:04")
	}
	return t.Format("02.01 15:04")
}

func formatDetailLines(o *entities.Order) []string {
	lines := []string{
		"📊 Статус: " + entities.StatusLabel(o.Status),
		"",
		"📦 Модель: " + o.Model,
		"💰 Цена: " + o.Price,
		"📍 Адрес: " + o.Address,
		"👤 Клиент: " + o.CustomerName,
		"📞 Телефон: " + o.PhoneString(),
		"💬 Комментарий: " + o.Comment,
		"📅 Дата: " + o.CreatedAt.Format("2006-01-02"),
	}
	if o.ManagerName != "" {
		lines = append(lines, "🤝 Менеджер: "+o.ManagerName)
	}
	return lines
}

// FormatReminderCard — развёрнутая карточка для напоминания.
// Экспортирована для воркера напоминаний.
func FormatReminderCard(o *entities.Order) string {
	lines := append([]string{fmt.Sprintf("📋 Заказ #%d", o.ID)}, formatDetailLines(o)...)
	return strings.Join(lines, "\n")
}

// formatFindCard — карточка с копируемой строкой правки для /find.
func formatFindCard(o *entities.Order) string {
	fields := parser.OrderFields{
		Model:   o.Model,
		Price:   o.Price,
		Address: o.Address,
		Contact: o.ContactRaw,
		Comment: o.Comment,
	}

	lines := append([]string{fmt.Sprintf("🔍 ЗАКАЗ #%d", o.ID)}, formatDetailLines(o)...)
	lines = append(lines,
		"",
		"━━━━━━━━━━━━━━━━━━",
		"📝 ПРАВКА (скопируйте строку ниже):",
		"",
		fields.EditString(),
		"",
		"✏️ Отредактируйте нужные поля и отправьте обратно",
	)
	return strings.Join(lines, "\n")
}
