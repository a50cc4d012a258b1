package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
	tgclient "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/telegram"
)

// Человекочитаемые подсказки при правке полей.
var fieldPrompts = map[string]string{
	"price":         "цену",
	"address":       "город/адрес",
	"customer_name": "имя клиента",
	"phone":         "телефон",
}

func (ctrl *Controller) handleCallback(ctx context.Context, logger *zap.Logger, cb *CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}

	if !ctrl.isAuthorized(ctx, logger, cb.From.ID) {
		ctrl.answerAlert(ctx, logger, cb, accessDeniedText)
		return
	}

	parts := strings.Split(cb.Data, ":")
	action := parts[0]
	args := parts[1:]

	switch action {
	case "status", "status_select":
		ctrl.cbSetStatus(ctx, logger, cb, args)
	case "edit_mode":
		ctrl.cbShowKeyboard(ctx, logger, cb, args, editKeyboard)
	case "edit_status":
		ctrl.cbShowKeyboard(ctx, logger, cb, args, statusSelectKeyboard)
	case "edit_back":
		ctrl.cbShowKeyboard(ctx, logger, cb, args, cardKeyboard)
	case "edit_field":
		ctrl.cbEditField(ctx, logger, cb, args)
	case "report_status":
		ctrl.cbStatusReport(ctx, logger, cb, args)
	case "bulk_status_menu":
		ctrl.cbBulkMenu(ctx, logger, cb, args)
	case "bulk_status":
		ctrl.cbBulkStatus(ctx, logger, cb, args)
	default:
		ctrl.answer(ctx, logger, cb, "")
	}
}

func (ctrl *Controller) answer(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, text string) {
	if err := ctrl.tg.AnswerCallbackQuery(ctx, cb.ID, text); err != nil {
		logger.Warn("не удалось ответить на callback", zap.Error(err))
	}
}

func (ctrl *Controller) answerAlert(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, text string) {
	if err := ctrl.tg.AnswerCallbackAlert(ctx, cb.ID, text); err != nil {
		logger.Warn("не удалось ответить на callback", zap.Error(err))
	}
}

func parseOrderArg(args []string) (int64, bool) {
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	return id, err == nil
}

// cbSetStatus: смена статуса кнопкой под карточкой или из меню правки.
func (ctrl *Controller) cbSetStatus(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, args []string) {
	orderID, ok := parseOrderArg(args)
	if !ok || len(args) != 2 {
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка формата")
		return
	}
	status := args[1]

	order, err := ctrl.orderService.SetStatus(ctx, orderID, status)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidStatus):
			ctrl.answerAlert(ctx, logger, cb, "⚠️ Неверный статус")
		case errors.Is(err, apperrors.ErrOrderNotFound):
			ctrl.answerAlert(ctx, logger, cb, "⚠️ Заказ не найден")
		default:
			logger.Error("ошибка смены статуса", zap.Error(err))
			ctrl.answerAlert(ctx, logger, cb, "⚠️ Произошла ошибка")
		}
		return
	}

	ctrl.redrawCard(ctx, logger, cb.Message.Chat.ID, cb.Message.MessageID, orderID, formatOrderCard(order))
	ctrl.reactToOrigin(ctx, logger, order.ChatID, order.MessageID, status)
	ctrl.react(ctx, logger, cb.Message.Chat.ID, cb.Message.MessageID, "✅")
	ctrl.answer(ctx, logger, cb, "Статус обновлён")
}

// cbShowKeyboard перерисовывает карточку с другой клавиатурой.
func (ctrl *Controller) cbShowKeyboard(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, args []string, keyboard func(int64) [][]tgclient.InlineKeyboardButton) {
	orderID, ok := parseOrderArg(args)
	if !ok {
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка формата")
		return
	}

	order, err := ctrl.orderService.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			ctrl.answerAlert(ctx, logger, cb, "⚠️ Заказ не найден")
			return
		}
		logger.Error("ошибка чтения заказа", zap.Error(err))
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Произошла ошибка")
		return
	}

	err = ctrl.tg.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID,
		formatOrderCard(order), tgclient.WithKeyboard(keyboard(orderID)))
	if err != nil {
		logger.Warn("не удалось обновить карточку", zap.Error(err))
	}
	ctrl.answer(ctx, logger, cb, "")
}

// cbEditField включает режим правки одного поля следующим сообщением.
func (ctrl *Controller) cbEditField(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, args []string) {
	orderID, ok := parseOrderArg(args)
	if !ok || len(args) != 2 {
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка формата")
		return
	}
	field := args[1]

	prompt, ok := fieldPrompts[field]
	if !ok {
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Неверное поле")
		return
	}

	err := ctrl.setState(ctx, cb.From.ID, userState{Mode: modeEditingField, OrderID: orderID, Field: field})
	if err != nil {
		logger.Error("не удалось сохранить состояние правки поля", zap.Error(err))
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Произошла ошибка")
		return
	}

	ctrl.answer(ctx, logger, cb, "Введите новую "+prompt)
}

// cbStatusReport собирает XLSX по заказам одного статуса.
func (ctrl *Controller) cbStatusReport(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, args []string) {
	if len(args) != 1 {
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка формата")
		return
	}
	status := args[0]

	data, count, err := ctrl.reportService.BuildStatusXLSX(ctx, status)
	if err != nil {
		logger.Error("ошибка генерации отчёта по статусу", zap.Error(err))
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка при генерации отчёта")
		return
	}
	if count == 0 {
		ctrl.answerAlert(ctx, logger, cb, "Заказов с таким статусом нет")
		return
	}

	caption := "📊 Отчёт по статусу: " + entities.StatusLabel(status)
	if err := ctrl.tg.SendDocument(ctx, cb.Message.Chat.ID, "report_"+status+".xlsx", data, caption); err != nil {
		logger.Error("ошибка отправки отчёта", zap.Error(err))
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка при отправке отчёта")
		return
	}
	ctrl.answer(ctx, logger, cb, "✅ Отчёт сформирован")
}

func (ctrl *Controller) cbBulkMenu(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, args []string) {
	if len(args) != 1 {
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка формата")
		return
	}
	oldStatus := args[0]

	err := ctrl.tg.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID,
		"Хотите изменить статус всех заказов?\nВыберите новый статус:",
		tgclient.WithKeyboard(bulkStatusKeyboard(oldStatus)))
	if err != nil {
		logger.Warn("не удалось показать меню массовой смены", zap.Error(err))
	}
	ctrl.answer(ctx, logger, cb, "")
}

func (ctrl *Controller) cbBulkStatus(ctx context.Context, logger *zap.Logger, cb *CallbackQuery, args []string) {
	if len(args) != 2 {
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Ошибка формата")
		return
	}
	oldStatus, newStatus := args[0], args[1]

	affected, err := ctrl.orderService.BulkSetStatus(ctx, oldStatus, newStatus)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidStatus) {
			ctrl.answerAlert(ctx, logger, cb, "⚠️ Неверный статус")
			return
		}
		logger.Error("ошибка массовой смены статуса", zap.Error(err))
		ctrl.answerAlert(ctx, logger, cb, "⚠️ Произошла ошибка")
		return
	}
	if affected == 0 {
		ctrl.answerAlert(ctx, logger, cb, "Нет заказов для изменения")
		return
	}

	err = ctrl.tg.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("✅ Статус %d заказов обновлён на %s", affected, entities.StatusLabel(newStatus)))
	if err != nil {
		logger.Warn("не удалось обновить сообщение", zap.Error(err))
	}
	ctrl.answer(ctx, logger, cb, fmt.Sprintf("✅ Обновлено: %d", affected))
}
