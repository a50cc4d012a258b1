package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/parser"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/repositories"
	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
)

const (
	// Антиспам: пауза между сообщениями одного менеджера и дневной лимит
	// на создание заказов.
	messageCooldown = 3 * time.Second
	dailyOrderLimit = 50

	searchLimit = 20

	cooldownKeyFormat = "tg_cooldown:%d"
)

// Submission — разобранное сообщение менеджера, из которого создаётся
// или переписывается заказ.
type Submission struct {
	ChatID      int64
	MessageID   int64
	ManagerID   int64
	ManagerName string
	Text        string
}

type OrderServiceInterface interface {
	SubmitOrder(ctx context.Context, sub Submission) (*entities.Order, error)
	UpdateFromOrigin(ctx context.Context, sub Submission) (*entities.Order, error)
	UpdateWholeRecord(ctx context.Context, orderID int64, text string) (*entities.Order, error)
	AppendComment(ctx context.Context, orderID int64, fragment, managerName string) (*entities.Order, error)
	PatchField(ctx context.Context, orderID int64, field, value string) (*entities.Order, error)
	SetStatus(ctx context.Context, orderID int64, status string) (*entities.Order, error)
	BulkSetStatus(ctx context.Context, fromStatus, toStatus string) (int64, error)
	GetByID(ctx context.Context, id int64) (*entities.Order, error)
	GetByOrigin(ctx context.Context, chatID, messageID int64) (*entities.Order, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]entities.Order, error)
	Search(ctx context.Context, query string) ([]entities.Order, error)
}

type OrderService struct {
	orderRepo repositories.OrderRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	orderRepo repositories.OrderRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		cacheRepo: cacheRepo,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *OrderService) checkCooldown(ctx context.Context, managerID int64) error {
	ok, err := s.cacheRepo.SetNX(ctx, fmt.Sprintf(cooldownKeyFormat, managerID), "1", messageCooldown)
	if err != nil {
		// Недоступный кеш не должен блокировать приём заказов.
		s.logger.Warn("кулдаун недоступен", zap.Error(err))
		return nil
	}
	if !ok {
		return apperrors.ErrRateLimited
	}
	return nil
}

func (s *OrderService) parseAndValidate(text string) (*parser.OrderFields, error) {
	fields, ok := parser.ParseOrder(text)
	if !ok {
		return nil, apperrors.ErrNotOrderFormat
	}
	if err := s.validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Comment" {
					return nil, apperrors.ErrCommentTooLong
				}
			}
		}
		return nil, apperrors.NewInvalidInputError("не заполнено обязательное поле: модель")
	}
	return fields, nil
}

// SubmitOrder создаёт заказ из сообщения формата
// "модель / цена / адрес / контакт / комментарий".
func (s *OrderService) SubmitOrder(ctx context.Context, sub Submission) (*entities.Order, error) {
	if err := s.checkCooldown(ctx, sub.ManagerID); err != nil {
		return nil, err
	}

	fields, err := s.parseAndValidate(sub.Text)
	if err != nil {
		return nil, err
	}

	now := s.now()
	count, err := s.orderRepo.CountForManagerToday(ctx, sub.ManagerID, now)
	if err != nil {
		return nil, err
	}
	if count >= dailyOrderLimit {
		return nil, apperrors.ErrDailyLimitExceeded
	}

	phone, customerName := parser.NormalizePhone(fields.Contact)

	order := &entities.Order{
		Model:        fields.Model,
		Price:        fields.Price,
		Address:      fields.Address,
		ContactRaw:   fields.Contact,
		Phone:        null.StringFromPtr(phone),
		CustomerName: customerName,
		Comment:      fields.Comment,
		ManagerID:    sub.ManagerID,
		ManagerName:  sub.ManagerName,
		ChatID:       sub.ChatID,
		MessageID:    sub.MessageID,
		Status:       entities.StatusNew,
		ReminderAt:   null.TimeFromPtr(parser.ResolveReminder(fields.Comment, now)),
	}

	if _, err := s.orderRepo.InsertIfUnique(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("создан заказ",
		zap.Int64("order_id", order.ID),
		zap.Int64("manager_id", sub.ManagerID),
		zap.String("model", order.Model))

	return order, nil
}

func (s *OrderService) buildUpdate(text string) (*repositories.OrderUpdate, error) {
	fields, err := s.parseAndValidate(text)
	if err != nil {
		return nil, err
	}
	phone, customerName := parser.NormalizePhone(fields.Contact)
	return &repositories.OrderUpdate{
		Model:        fields.Model,
		Price:        fields.Price,
		Address:      fields.Address,
		ContactRaw:   fields.Contact,
		Phone:        null.StringFromPtr(phone),
		CustomerName: customerName,
		Comment:      fields.Comment,
		ReminderAt:   null.TimeFromPtr(parser.ResolveReminder(fields.Comment, s.now())),
	}, nil
}

// UpdateFromOrigin переписывает заказ при правке исходного сообщения.
// Заказ ищется по паре (chat_id, message_id).
func (s *OrderService) UpdateFromOrigin(ctx context.Context, sub Submission) (*entities.Order, error) {
	upd, err := s.buildUpdate(sub.Text)
	if err != nil {
		return nil, err
	}

	found, err := s.orderRepo.UpdateByOrigin(ctx, sub.ChatID, sub.MessageID, *upd)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.ErrOrderNotFound
	}

	return s.orderRepo.GetByOrigin(ctx, sub.ChatID, sub.MessageID)
}

// UpdateWholeRecord переписывает заказ целиком по присланной строке тех же
// пяти полей (поток правки через /find).
func (s *OrderService) UpdateWholeRecord(ctx context.Context, orderID int64, text string) (*entities.Order, error) {
	upd, err := s.buildUpdate(text)
	if err != nil {
		return nil, err
	}

	found, err := s.orderRepo.UpdateByID(ctx, orderID, *upd)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.ErrOrderNotFound
	}

	return s.orderRepo.GetByID(ctx, orderID)
}

// AppendComment дописывает фрагмент к комментарию заказа, ведёт журнал и
// пересчитывает напоминание ТОЛЬКО по новому фрагменту.
func (s *OrderService) AppendComment(ctx context.Context, orderID int64, fragment, managerName string) (*entities.Order, error) {
	if len([]rune(fragment)) > 500 {
		return nil, apperrors.ErrCommentTooLong
	}

	now := s.now()
	reminderAt := null.TimeFromPtr(parser.ResolveReminder(fragment, now))
	historyEntry := fmt.Sprintf("[%s %s]: %s", now.Format("2006-01-02 15:04"), managerName, fragment)

	found, err := s.orderRepo.AppendComment(ctx, orderID, fragment, reminderAt, historyEntry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.ErrOrderNotFound
	}

	return s.orderRepo.GetByID(ctx, orderID)
}

// PatchField точечно правит одно поле заказа. Телефон перед записью
// нормализуется; пустая строка очищает его.
func (s *OrderService) PatchField(ctx context.Context, orderID int64, field, value string) (*entities.Order, error) {
	patch := map[string]interface{}{}
	switch field {
	case "price", "address", "customer_name":
		patch[field] = value
	case "phone":
		phone, _ := parser.NormalizePhone(value)
		patch[field] = null.StringFromPtr(phone)
	default:
		return nil, apperrors.NewInvalidInputError("поле %q нельзя править точечно", field)
	}

	found, err := s.orderRepo.PatchFields(ctx, orderID, patch)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.ErrOrderNotFound
	}

	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *OrderService) SetStatus(ctx context.Context, orderID int64, status string) (*entities.Order, error) {
	if !entities.IsValidStatus(status) {
		return nil, apperrors.ErrInvalidStatus
	}

	found, err := s.orderRepo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.ErrOrderNotFound
	}

	s.logger.Info("смена статуса заказа",
		zap.Int64("order_id", orderID),
		zap.String("status", status))

	return s.orderRepo.GetByID(ctx, orderID)
}

// BulkSetStatus переводит все заказы из одного статуса в другой и
// возвращает число затронутых записей.
func (s *OrderService) BulkSetStatus(ctx context.Context, fromStatus, toStatus string) (int64, error) {
	if !entities.IsValidStatus(fromStatus) || !entities.IsValidStatus(toStatus) {
		return 0, apperrors.ErrInvalidStatus
	}

	orders, err := s.orderRepo.FindByStatus(ctx, fromStatus, 0)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	affected, err := s.orderRepo.BulkUpdateStatus(ctx, ids, toStatus)
	if err != nil {
		return 0, err
	}

	s.logger.Info("массовая смена статуса",
		zap.String("from", fromStatus),
		zap.String("to", toStatus),
		zap.Int64("affected", affected))

	return affected, nil
}

func (s *OrderService) GetByID(ctx context.Context, id int64) (*entities.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

func (s *OrderService) GetByOrigin(ctx context.Context, chatID, messageID int64) (*entities.Order, error) {
	return s.orderRepo.GetByOrigin(ctx, chatID, messageID)
}

func (s *OrderService) ListByStatus(ctx context.Context, status string, limit int) ([]entities.Order, error) {
	if !entities.IsValidStatus(status) {
		return nil, apperrors.ErrInvalidStatus
	}
	return s.orderRepo.FindByStatus(ctx, status, limit)
}

// Search — регистронезависимый поиск по всем текстовым полям заказа.
func (s *OrderService) Search(ctx context.Context, query string) ([]entities.Order, error) {
	return s.orderRepo.Search(ctx, query, searchLimit)
}
