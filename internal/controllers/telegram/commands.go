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
)

func (ctrl *Controller) handleCommand(ctx context.Context, logger *zap.Logger, msg *Message, text string) {
	command := text
	args := ""
	if i := strings.IndexByte(text, ' '); i > 0 {
		command, args = text[:i], strings.TrimSpace(text[i+1:])
	}
	// Команда может приходить как /find@botname.
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}

	if command == "/start" || command == "/help" {
		ctrl.cmdStart(ctx, logger, msg)
		return
	}

	if !ctrl.isAuthorized(ctx, logger, msg.From.ID) {
		ctrl.reply(ctx, logger, msg, accessDeniedText)
		return
	}

	switch command {
	case "/find":
		ctrl.cmdFind(ctx, logger, msg, args)
	case "/set_status":
		ctrl.cmdSetStatus(ctx, logger, msg, args)
	case "/report":
		ctrl.sendCSVReport(ctx, logger, msg)
	case "/report_pdf":
		ctrl.sendPDFReport(ctx, logger, msg)
	case "/report_xlsx":
		ctrl.sendXLSXReport(ctx, logger, msg)
	default:
		ctrl.reply(ctx, logger, msg, helpText)
	}
}

// cmdStart: авторизованным меню, остальным запрос PIN.
func (ctrl *Controller) cmdStart(ctx context.Context, logger *zap.Logger, msg *Message) {
	if ctrl.isAuthorized(ctx, logger, msg.From.ID) {
		ctrl.sendWelcome(ctx, logger, msg)
		return
	}

	if err := ctrl.setState(ctx, msg.From.ID, userState{Mode: modeWaitingPin}); err != nil {
		logger.Error("не удалось сохранить состояние ожидания PIN", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка, попробуйте позже")
		return
	}
	ctrl.reply(ctx, logger, msg, "🔐 Для доступа к боту введите PIN-код:")
}

// cmdFind показывает карточку со строкой правки и включает режим
// полной правки записи.
func (ctrl *Controller) cmdFind(ctx context.Context, logger *zap.Logger, msg *Message, args string) {
	if args == "" {
		ctrl.reply(ctx, logger, msg, "⚠️ Использование: /find <id заказа>")
		return
	}

	orderID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		ctrl.reply(ctx, logger, msg, "⚠️ ID заказа должен быть числом")
		return
	}

	order, err := ctrl.orderService.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			ctrl.reply(ctx, logger, msg, fmt.Sprintf("⚠️ Заказ #%d не найден", orderID))
			return
		}
		logger.Error("ошибка поиска заказа для правки", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при поиске заказа")
		return
	}

	if err := ctrl.setState(ctx, msg.From.ID, userState{Mode: modeEditingRecord, OrderID: orderID}); err != nil {
		logger.Error("не удалось сохранить состояние правки", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка, попробуйте позже")
		return
	}

	ctrl.reply(ctx, logger, msg, formatFindCard(order))
}

func (ctrl *Controller) cmdSetStatus(ctx context.Context, logger *zap.Logger, msg *Message, args string) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		ctrl.reply(ctx, logger, msg, "⚠️ Использование: /set_status <id> <status>\n"+
			"Статусы: new, in_progress, delivery, paid, canceled")
		return
	}

	orderID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		ctrl.reply(ctx, logger, msg, "⚠️ ID заказа должен быть числом")
		return
	}
	status := parts[1]

	order, err := ctrl.orderService.SetStatus(ctx, orderID, status)
	switch {
	case err == nil:
		ctrl.reply(ctx, logger, msg, fmt.Sprintf("✅ Статус заказа #%d: %s", orderID, entities.StatusLabel(status)))
		ctrl.reactToOrigin(ctx, logger, order.ChatID, order.MessageID, status)
	case errors.Is(err, apperrors.ErrInvalidStatus):
		ctrl.reply(ctx, logger, msg, "⚠️ Неверный статус. Доступные: "+strings.Join(entities.OrderStatuses(), ", "))
	case errors.Is(err, apperrors.ErrOrderNotFound):
		ctrl.reply(ctx, logger, msg, fmt.Sprintf("⚠️ Заказ #%d не найден", orderID))
	default:
		logger.Error("ошибка смены статуса", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при изменении статуса")
	}
}

// reactToOrigin ставит статусную реакцию на исходное сообщение заказа.
func (ctrl *Controller) reactToOrigin(ctx context.Context, logger *zap.Logger, chatID, messageID int64, status string) {
	if chatID == 0 || messageID == 0 {
		return
	}
	emoji, ok := statusReaction[status]
	if !ok {
		emoji = "👌"
	}
	ctrl.react(ctx, logger, chatID, messageID, emoji)
}

func (ctrl *Controller) sendCSVReport(ctx context.Context, logger *zap.Logger, msg *Message) {
	data, count, err := ctrl.reportService.BuildCSV(ctx)
	if err != nil {
		logger.Error("ошибка генерации CSV-отчёта", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при генерации отчёта")
		return
	}
	if count == 0 {
		ctrl.reply(ctx, logger, msg, "📋 Заказов пока нет")
		return
	}
	ctrl.sendReportDocument(ctx, logger, msg, "report.csv", data, "📊 Отчёт по заказам (CSV)", count)
}

func (ctrl *Controller) sendXLSXReport(ctx context.Context, logger *zap.Logger, msg *Message) {
	data, count, err := ctrl.reportService.BuildXLSX(ctx)
	if err != nil {
		logger.Error("ошибка генерации Excel-отчёта", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при генерации Excel-отчёта")
		return
	}
	if count == 0 {
		ctrl.reply(ctx, logger, msg, "📋 Заказов пока нет")
		return
	}
	ctrl.sendReportDocument(ctx, logger, msg, "report.xlsx", data, "📊 Отчёт по заказам (Excel)", count)
}

func (ctrl *Controller) sendPDFReport(ctx context.Context, logger *zap.Logger, msg *Message) {
	data, count, err := ctrl.reportService.BuildPDF(ctx)
	if err != nil {
		logger.Error("ошибка генерации PDF-отчёта", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при генерации PDF-отчёта")
		return
	}
	if count == 0 {
		ctrl.reply(ctx, logger, msg, "📋 Заказов пока нет")
		return
	}
	ctrl.sendReportDocument(ctx, logger, msg, "report.pdf", data, "📊 Отчёт по заказам (PDF)", count)
}

func (ctrl *Controller) sendReportDocument(ctx context.Context, logger *zap.Logger, msg *Message, filename string, data []byte, caption string, count int) {
	if err := ctrl.tg.SendDocument(ctx, msg.Chat.ID, filename, data, caption); err != nil {
		logger.Error("ошибка отправки отчёта", zap.Error(err))
		ctrl.reply(ctx, logger, msg, "⚠️ Произошла ошибка при отправке отчёта")
		return
	}
	logger.Info("отчёт отправлен",
		zap.String("file", filename),
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("records", count))
}
