package telegram

import (
	"fmt"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/pkg/telegram"
)

// Подписи кнопок постоянной клавиатуры.
const (
	buttonReport     = "📊 Отчёт"
	buttonNew        = "🆕 Новые"
	buttonInProgress = "📦 В работе"
	buttonPaid       = "✅ Оплачены"
	buttonDelivered  = "🚚 Доставка"
	buttonCanceled   = "❌ Отменены"
	buttonSearch     = "🔍 Поиск"
	buttonDailyOn    = "🔔 Ежедневный отчёт: ВКЛ"
	buttonDailyOff   = "🔕 Ежедневный отчёт: ВЫКЛ"
)

var statusByButton = map[string]string{
	buttonNew:        entities.StatusNew,
	buttonInProgress: entities.StatusInProgress,
	buttonPaid:       entities.StatusPaid,
	buttonDelivered:  entities.StatusDelivery,
	buttonCanceled:   entities.StatusCanceled,
}

// Эмодзи-реакция на исходном сообщении при смене статуса.
var statusReaction = map[string]string{
	entities.StatusNew:        "👌",
	entities.StatusInProgress: "🔥",
	entities.StatusDelivery:   "🕊️",
	entities.StatusPaid:       "👍",
	entities.StatusCanceled:   "👎",
}

func mainKeyboard(dailyReportEnabled bool) [][]telegram.ReplyKeyboardButton {
	dailyButton := buttonDailyOff
	if dailyReportEnabled {
		dailyButton = buttonDailyOn
	}
	return [][]telegram.ReplyKeyboardButton{
		{{Text: buttonReport}},
		{{Text: buttonNew}, {Text: buttonInProgress}},
		{{Text: buttonPaid}, {Text: buttonDelivered}, {Text: buttonCanceled}},
		{{Text: buttonSearch}},
		{{Text: dailyButton}},
	}
}

// cardKeyboard — кнопки под карточкой: статусы в один ряд плюс ✏️.
func cardKeyboard(orderID int64) [][]telegram.InlineKeyboardButton {
	row := make([]telegram.InlineKeyboardButton, 0, 6)
	for _, status := range entities.OrderStatuses() {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         entities.StatusIcon(status),
			CallbackData: fmt.Sprintf("status:%d:%s", orderID, status),
		})
	}
	row = append(row, telegram.InlineKeyboardButton{
		Text:         "✏️",
		CallbackData: fmt.Sprintf("edit_mode:%d", orderID),
	})
	return [][]telegram.InlineKeyboardButton{row}
}

// editKeyboard — меню правки: статус и четыре поля.
func editKeyboard(orderID int64) [][]telegram.InlineKeyboardButton {
	return [][]telegram.InlineKeyboardButton{
		{
			{Text: "📦", CallbackData: fmt.Sprintf("edit_status:%d", orderID)},
			{Text: "💰", CallbackData: fmt.Sprintf("edit_field:%d:price", orderID)},
			{Text: "📍", CallbackData: fmt.Sprintf("edit_field:%d:address", orderID)},
		},
		{
			{Text: "👤", CallbackData: fmt.Sprintf("edit_field:%d:customer_name", orderID)},
			{Text: "📞", CallbackData: fmt.Sprintf("edit_field:%d:phone", orderID)},
		},
	}
}

// statusSelectKeyboard — выбор статуса из меню правки, с кнопкой назад.
func statusSelectKeyboard(orderID int64) [][]telegram.InlineKeyboardButton {
	row := make([]telegram.InlineKeyboardButton, 0, 5)
	for _, status := range entities.OrderStatuses() {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         entities.StatusIcon(status),
			CallbackData: fmt.Sprintf("status_select:%d:%s", orderID, status),
		})
	}
	return [][]telegram.InlineKeyboardButton{
		row,
		{{Text: "🔙", CallbackData: fmt.Sprintf("edit_back:%d", orderID)}},
	}
}

// statusListKeyboard — кнопки под списком заказов одного статуса.
func statusListKeyboard(status string) [][]telegram.InlineKeyboardButton {
	return [][]telegram.InlineKeyboardButton{
		{{Text: "📊 Сформировать отчёт", CallbackData: "report_status:" + status}},
		{{Text: "🔄 Изменить статус всех", CallbackData: "bulk_status_menu:" + status}},
	}
}

// bulkStatusKeyboard — выбор нового статуса для массовой смены.
func bulkStatusKeyboard(oldStatus string) [][]telegram.InlineKeyboardButton {
	rows := [][]telegram.InlineKeyboardButton{{}, {}, {}}
	layout := [][]string{
		{entities.StatusNew, entities.StatusInProgress},
		{entities.StatusDelivery, entities.StatusPaid},
		{entities.StatusCanceled},
	}
	for i, statuses := range layout {
		for _, status := range statuses {
			rows[i] = append(rows[i], telegram.InlineKeyboardButton{
				Text:         entities.StatusLabel(status),
				CallbackData: fmt.Sprintf("bulk_status:%s:%s", oldStatus, status),
			})
		}
	}
	return rows
}
