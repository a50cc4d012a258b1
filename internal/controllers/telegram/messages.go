package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/services"
	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
	tgclient "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/telegram"
)

func (ctrl *Controller) handleMessage(ctx context.Context, logger *zap.Logger, msg *Message) {
	if msg.Text == "" || msg.From == nil {
		return
	}
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	state, err := ctrl.getState(ctx, userID)
	if err != nil {
		logger.Error("ошибка чтения состояния диалога", zap.Error(err))
	}

	// Ожидание PIN перехватывает любой следующий текст.
	if state != nil && state.Mode == modeWaitingPin {
		ctrl.handlePinInput(ctx, logger, msg, text)
		return
	}

	// Режимы правки одноразовые и срабатывают раньше остальных веток.
	// Они выставляются только авторизованным пользователям.
	if state != nil {
		switch state.Mode {
		case modeEditingField:
			ctrl.handleFieldInput(ctx, logger, msg, state, text)
			return
		case modeEditingRecord:
			ctrl.handleRecordInput(ctx, logger, msg, state, text)
			return
		}
	}

	if msg.ReplyToMessage != nil {
		ctrl.handleReply(ctx, logger, msg, text)
		return
	}

	if strings.HasPrefix(text, "/") {
		ctrl.handleCommand(ctx, logger, msg, text)
		return
	}

	if ctrl.handleKeyboardButton(ctx, logger, msg, text) {
		return
	}

	if !ctrl.isAuthorized(ctx, logger, userID) {
		ctrl.reply(ctx, logger, msg, accessDeniedText)
		return
	}

	ctrl.handleFreeText(ctx, logger, msg, text)
}

func (ctrl *Controller) handlePinInput(ctx context.Context, logger *zap.Logger, msg *Message, text string) {
	userID := msg.From.ID
	pin := strings.TrimLeft(text, "/")

	if err := ctrl.authService.CheckPin(ctx, userID, pin); err != nil {
		if errors.Is(err, apperrors.ErrWrongPin) {
			ctrl.reply(ctx, logger, msg, "❌ Неверный PIN. Попробуйте ещё раз: /start")
		} else {
			logger.Error("ошибка PIN-проверки", zap.Error(err))
			ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка, попробуйте позже")
		}
		return
	}

	if err := ctrl.clearState(ctx, userID); err != nil {
		logger.Warn("не удалось сбросить состояние", zap.Error(err))
	}
	ctrl.sendWelcome(ctx, logger, msg)
}

func (ctrl *Controller) sendWelcome(ctx context.Context, logger *zap.Logger, msg *Message) {
	settings, err := ctrl.reportService.ChatSettings(ctx, msg.Chat.ID)
	if err != nil {
		logger.Error("ошибка чтения настроек чата", zap.Error(err))
	}
	enabled := settings != nil && settings.DailyReportEnabled
	ctrl.reply(ctx, logger, msg, welcomeText, tgclient.WithReplyKeyboard(mainKeyboard(enabled)))
}

// handleKeyboardButton обрабатывает кнопки постоянной клавиатуры.
// Возвращает false, если текст не совпал ни с одной кнопкой.
func (ctrl *Controller) handleKeyboardButton(ctx context.Context, logger *zap.Logger, msg *Message, text string) bool {
	_, isStatusButton := statusByButton[text]
	known := isStatusButton || text == buttonReport || text == buttonSearch ||
		text == buttonDailyOn || text == buttonDailyOff
	if !known {
		return false
	}

	if !ctrl.isAuthorized(ctx, logger, msg.From.ID) {
		ctrl.reply(ctx, logger, msg, accessDeniedText)
		return true
	}

	switch {
	case text == buttonReport:
		ctrl.sendPDFReport(ctx, logger, msg)
	case isStatusButton:
		ctrl.sendStatusList(ctx, logger, msg, statusByButton[text])
	case text == buttonSearch:
		ctrl.reply(ctx, logger, msg, "🔍 Введите поисковый запрос сообщением")
	default:
		ctrl.toggleDailyReport(ctx, logger, msg)
	}
	return true
}

func (ctrl *Controller) sendStatusList(ctx context.Context, logger *zap.Logger, msg *Message, status string) {
	orders, err := ctrl.orderService.ListByStatus(ctx, status, 10)
	if err != nil {
		logger.Error("ошибка выборки заказов по статусу", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при получении списка заказов")
		return
	}
	if len(orders) == 0 {
		ctrl.reply(ctx, logger, msg, "📭 Заказов с таким статусом пока нет")
		return
	}

	now := ctrl.now()
	lines := []string{fmt.Sprintf("Показаны последние %d записей:", len(orders))}
	for i := range orders {
		lines = append(lines, formatSearchLine(&orders[i], now))
	}

	ctrl.reply(ctx, logger, msg, strings.Join(lines, "\n"),
		tgclient.WithKeyboard(statusListKeyboard(status)))
}

func (ctrl *Controller) toggleDailyReport(ctx context.Context, logger *zap.Logger, msg *Message) {
	enabled, err := ctrl.reportService.ToggleDailyReport(ctx, msg.Chat.ID)
	if err != nil {
		logger.Error("ошибка переключения ежедневного отчёта", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при изменении настройки")
		return
	}

	text := "❌ Ежедневный отчёт выключен"
	if enabled {
		text = "✅ Ежедневный отчёт включен"
	}
	ctrl.reply(ctx, logger, msg, text, tgclient.WithReplyKeyboard(mainKeyboard(enabled)))
}

// handleReply: reply на карточку или исходное сообщение дописывает
// комментарий; "/65000////" на карточке правит только цену.
func (ctrl *Controller) handleReply(ctx context.Context, logger *zap.Logger, msg *Message, text string) {
	if !ctrl.isAuthorized(ctx, logger, msg.From.ID) {
		return
	}

	chatID := msg.Chat.ID
	repliedID := msg.ReplyToMessage.MessageID

	orderID, err := ctrl.cardOrderID(ctx, chatID, repliedID)
	if err != nil {
		logger.Error("ошибка поиска привязки карточки", zap.Error(err))
	}

	if orderID != 0 {
		if strings.HasPrefix(text, "/") && strings.Count(text, "/") >= 4 {
			parts := strings.Split(text, "/")
			if len(parts) >= 2 && strings.TrimSpace(parts[1]) != "" {
				ctrl.patchCardPrice(ctx, logger, msg, orderID, repliedID, strings.TrimSpace(parts[1]))
				return
			}
		}
		ctrl.appendCardComment(ctx, logger, msg, orderID, repliedID, text)
		return
	}

	// Reply на исходное сообщение заказа.
	order, err := ctrl.orderService.GetByOrigin(ctx, chatID, repliedID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrOrderNotFound) {
			logger.Error("ошибка поиска заказа по сообщению", zap.Error(err))
		}
		return
	}

	if _, err := ctrl.orderService.AppendComment(ctx, order.ID, text, msg.From.DisplayName()); err != nil {
		logger.Error("ошибка дописывания комментария", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при обновлении комментария")
		return
	}
	ctrl.react(ctx, logger, chatID, msg.MessageID, "✅")
}

func (ctrl *Controller) patchCardPrice(ctx context.Context, logger *zap.Logger, msg *Message, orderID, cardMessageID int64, price string) {
	order, err := ctrl.orderService.PatchField(ctx, orderID, "price", price)
	if err != nil {
		logger.Error("ошибка правки цены", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при обновлении")
		return
	}

	ctrl.redrawCard(ctx, logger, msg.Chat.ID, cardMessageID, order.ID, formatOrderCard(order))
	ctrl.react(ctx, logger, msg.Chat.ID, cardMessageID, "✅")
}

func (ctrl *Controller) appendCardComment(ctx context.Context, logger *zap.Logger, msg *Message, orderID, cardMessageID int64, fragment string) {
	order, err := ctrl.orderService.AppendComment(ctx, orderID, fragment, msg.From.DisplayName())
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			ctrl.reply(ctx, logger, msg, "⚠️ Заказ не найден")
			return
		}
		if errors.Is(err, apperrors.ErrCommentTooLong) {
			ctrl.reply(ctx, logger, msg, "⚠️ Комментарий слишком длинный (максимум 500 символов)")
			return
		}
		logger.Error("ошибка дописывания комментария", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при обновлении комментария")
		return
	}

	ctrl.redrawCard(ctx, logger, msg.Chat.ID, cardMessageID, order.ID, formatOrderCard(order))
	ctrl.react(ctx, logger, msg.Chat.ID, cardMessageID, "✅")
}

func (ctrl *Controller) redrawCard(ctx context.Context, logger *zap.Logger, chatID, messageID, orderID int64, cardText string) {
	err := ctrl.tg.EditMessageText(ctx, chatID, messageID, cardText,
		tgclient.WithKeyboard(cardKeyboard(orderID)))
	if err != nil {
		logger.Warn("не удалось обновить карточку", zap.Error(err))
	}
}

func (ctrl *Controller) handleFieldInput(ctx context.Context, logger *zap.Logger, msg *Message, state *userState, text string) {
	userID := msg.From.ID
	if err := ctrl.clearState(ctx, userID); err != nil {
		logger.Warn("не удалось сбросить состояние", zap.Error(err))
	}

	order, err := ctrl.orderService.PatchField(ctx, state.OrderID, state.Field, text)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			ctrl.reply(ctx, logger, msg, "⚠️ Заказ не найден")
			return
		}
		logger.Error("ошибка правки поля", zap.String("field", state.Field), zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при обновлении")
		return
	}

	// Перерисовываем карточку, если она есть в этом чате.
	cardMessageID, err := ctrl.cardMessageID(ctx, msg.Chat.ID, order.ID)
	if err != nil {
		logger.Warn("ошибка поиска карточки", zap.Error(err))
	}
	if cardMessageID != 0 {
		ctrl.redrawCard(ctx, logger, msg.Chat.ID, cardMessageID, order.ID, formatOrderCard(order))
		ctrl.react(ctx, logger, msg.Chat.ID, cardMessageID, "✅")
	}
}

func (ctrl *Controller) handleRecordInput(ctx context.Context, logger *zap.Logger, msg *Message, state *userState, text string) {
	userID := msg.From.ID
	if err := ctrl.clearState(ctx, userID); err != nil {
		logger.Warn("не удалось сбросить состояние", zap.Error(err))
	}

	_, err := ctrl.orderService.UpdateWholeRecord(ctx, state.OrderID, text)
	switch {
	case err == nil:
		ctrl.reply(ctx, logger, msg, fmt.Sprintf("✅ Заказ #%d изменён!", state.OrderID))
	case errors.Is(err, apperrors.ErrNotOrderFormat):
		ctrl.reply(ctx, logger, msg, "⚠️ Ошибка парсинга. Формат: модель/цена/адрес/контакт/комментарий")
	case errors.Is(err, apperrors.ErrOrderNotFound):
		ctrl.reply(ctx, logger, msg, fmt.Sprintf("⚠️ Заказ #%d не найден", state.OrderID))
	default:
		logger.Error("ошибка правки заказа", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при обновлении заказа")
	}
}

// handleFreeText: сообщение без команды и состояния. Сначала "#id",
// потом заказ, потом поиск.
func (ctrl *Controller) handleFreeText(ctx context.Context, logger *zap.Logger, msg *Message, text string) {
	// "#66" показывает карточку заказа заново.
	if strings.HasPrefix(text, "#") && len(text) > 1 {
		if orderID, err := strconv.ParseInt(text[1:], 10, 64); err == nil {
			ctrl.showCardByID(ctx, logger, msg, orderID)
			return
		}
	}

	order, err := ctrl.orderService.SubmitOrder(ctx, services.Submission{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.MessageID,
		ManagerID:   msg.From.ID,
		ManagerName: msg.From.DisplayName(),
		Text:        text,
	})

	switch {
	case err == nil:
		ctrl.replaceWithCard(ctx, logger, msg, order.ID, formatOrderCard(order))
		return
	case errors.Is(err, apperrors.ErrNotOrderFormat):
		// Не заказ, идём дальше.
	case errors.Is(err, apperrors.ErrRateLimited):
		ctrl.reply(ctx, logger, msg, "⏳ Пожалуйста, подождите несколько секунд перед отправкой следующего сообщения.")
		return
	case errors.Is(err, apperrors.ErrCommentTooLong):
		ctrl.reply(ctx, logger, msg, "⚠️ Комментарий слишком длинный (максимум 500 символов). Заказ отклонён.")
		return
	case errors.Is(err, apperrors.ErrDailyLimitExceeded):
		ctrl.reply(ctx, logger, msg, "⚠️ Превышен лимит заказов на сегодня (50 заказов). Попробуйте завтра.")
		return
	case errors.Is(err, apperrors.ErrDuplicateOrder):
		ctrl.reply(ctx, logger, msg, "❌ Уже существует заказ с такой моделью и контактом!")
		return
	default:
		var invalid *apperrors.InvalidInputError
		if errors.As(err, &invalid) {
			ctrl.reply(ctx, logger, msg, "⚠️ "+invalid.Message)
			return
		}
		logger.Error("ошибка создания заказа", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при создании заказа")
		return
	}

	ctrl.handleSearch(ctx, logger, msg, text)
}

// replaceWithCard удаляет исходное сообщение и публикует карточку.
func (ctrl *Controller) replaceWithCard(ctx context.Context, logger *zap.Logger, msg *Message, orderID int64, cardText string) {
	if err := ctrl.tg.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		logger.Warn("не удалось удалить сообщение пользователя", zap.Error(err))
	}
	ctrl.postCard(ctx, logger, msg.Chat.ID, orderID, cardText)
}

func (ctrl *Controller) showCardByID(ctx context.Context, logger *zap.Logger, msg *Message, orderID int64) {
	order, err := ctrl.orderService.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			ctrl.reply(ctx, logger, msg, fmt.Sprintf("⚠️ Заказ #%d не найден", orderID))
			return
		}
		logger.Error("ошибка поиска заказа", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при поиске заказа")
		return
	}
	ctrl.replaceWithCard(ctx, logger, msg, order.ID, formatOrderCard(order))
}

func (ctrl *Controller) handleSearch(ctx context.Context, logger *zap.Logger, msg *Message, query string) {
	results, err := ctrl.orderService.Search(ctx, query)
	if err != nil {
		logger.Error("ошибка поиска", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при поиске")
		return
	}
	if len(results) == 0 {
		ctrl.reply(ctx, logger, msg, "🔍 Ничего не найдено")
		return
	}

	now := ctrl.now()
	lines := []string{fmt.Sprintf("🔍 Найдено заказов: %d", len(results))}
	for i := range results {
		lines = append(lines, formatSearchLine(&results[i], now))
	}
	ctrl.reply(ctx, logger, msg, strings.Join(lines, "\n"))
}

// handleEditedMessage переписывает заказ при правке исходного сообщения.
// Текст не по формату или чужое сообщение пропускаются молча.
func (ctrl *Controller) handleEditedMessage(ctx context.Context, logger *zap.Logger, msg *Message) {
	if msg.Text == "" || msg.From == nil {
		return
	}

	_, err := ctrl.orderService.UpdateFromOrigin(ctx, services.Submission{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.MessageID,
		ManagerID:   msg.From.ID,
		ManagerName: msg.From.DisplayName(),
		Text:        msg.Text,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotOrderFormat) || errors.Is(err, apperrors.ErrOrderNotFound) {
			return
		}
		var invalid *apperrors.InvalidInputError
		if errors.As(err, &invalid) {
			return
		}
		logger.Error("ошибка обновления заказа после правки", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при обновлении заказа")
		return
	}

	ctrl.react(ctx, logger, msg.Chat.ID, msg.MessageID, "✅")
}
