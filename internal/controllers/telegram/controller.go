package telegram

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/repositories"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/services"
	tgclient "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/telegram"
)

const (
	// Потолок одновременно обрабатываемых апдейтов.
	maxConcurrentUpdates = 32

	updateTimeout = time.Minute
)

type Controller struct {
	orderService  services.OrderServiceInterface
	reportService services.ReportServiceInterface
	authService   services.AuthServiceInterface
	cacheRepo     repositories.CacheRepositoryInterface
	tg            tgclient.ServiceInterface
	logger        *zap.Logger
	sem           chan struct{}
	now           func() time.Time
}

func NewController(
	orderService services.OrderServiceInterface,
	reportService services.ReportServiceInterface,
	authService services.AuthServiceInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	tg tgclient.ServiceInterface,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		orderService:  orderService,
		reportService: reportService,
		authService:   authService,
		cacheRepo:     cacheRepo,
		tg:            tg,
		logger:        logger,
		sem:           make(chan struct{}, maxConcurrentUpdates),
		now:           time.Now,
	}
}

// HandleWebhook принимает апдейт и сразу отвечает 200: Telegram повторяет
// доставку при любом другом ответе, а обработка идёт в фоне.
func (ctrl *Controller) HandleWebhook(c echo.Context) error {
	var update Update
	if err := c.Bind(&update); err != nil {
		ctrl.logger.Warn("ошибка разбора вебхука", zap.Error(err))
		return c.NoContent(http.StatusOK)
	}

	go ctrl.processUpdate(update)

	return c.NoContent(http.StatusOK)
}

func (ctrl *Controller) processUpdate(update Update) {
	ctrl.sem <- struct{}{}
	defer func() { <-ctrl.sem }()

	logger := ctrl.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.Int64("update_id", update.UpdateID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("паника при обработке апдейта", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		ctrl.handleCallback(ctx, logger, update.CallbackQuery)
	case update.EditedMessage != nil:
		ctrl.handleEditedMessage(ctx, logger, update.EditedMessage)
	case update.Message != nil:
		ctrl.handleMessage(ctx, logger, update.Message)
	}
}

// reply отвечает на сообщение пользователя; ошибки отправки только логируются.
func (ctrl *Controller) reply(ctx context.Context, logger *zap.Logger, msg *Message, text string, options ...tgclient.MessageOption) {
	options = append(options, tgclient.WithReplyTo(msg.MessageID))
	if _, err := ctrl.tg.SendMessage(ctx, msg.Chat.ID, text, options...); err != nil {
		logger.Warn("не удалось отправить ответ", zap.Error(err))
	}
}

// react ставит реакцию; сбои не показываются пользователю.
func (ctrl *Controller) react(ctx context.Context, logger *zap.Logger, chatID, messageID int64, emoji string) {
	if err := ctrl.tg.SetMessageReaction(ctx, chatID, messageID, emoji); err != nil {
		logger.Warn("не удалось поставить реакцию",
			zap.Int64("chat_id", chatID),
			zap.Int64("message_id", messageID),
			zap.Error(err))
	}
}

// postCard отправляет карточку заказа с кнопками и привязывает её к заказу.
func (ctrl *Controller) postCard(ctx context.Context, logger *zap.Logger, chatID, orderID int64, cardText string) {
	messageID, err := ctrl.tg.SendMessage(ctx, chatID, cardText,
		tgclient.WithKeyboard(cardKeyboard(orderID)))
	if err != nil {
		logger.Warn("не удалось отправить карточку", zap.Error(err))
		return
	}
	if err := ctrl.bindCard(ctx, chatID, messageID, orderID); err != nil {
		logger.Warn("не удалось привязать карточку", zap.Error(err))
	}
}

func (ctrl *Controller) isAuthorized(ctx context.Context, logger *zap.Logger, userID int64) bool {
	ok, err := ctrl.authService.IsAuthorized(ctx, userID)
	if err != nil {
		logger.Error("ошибка проверки авторизации", zap.Error(err))
		return false
	}
	return ok
}

const accessDeniedText = "🔐 Доступ запрещён. Введите /start и PIN-код."
