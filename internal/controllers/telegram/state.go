package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
)

// Состояния диалога живут в кеше под TTL: подвисшие режимы правки и
// ожидание PIN исчезают сами, ничего чистить не нужно.
const (
	stateTTL = 30 * time.Minute

	userStateKeyFormat = "tg_user_state:%d"
	cardKeyFormat      = "tg_card:%d:%d"
	cardOfKeyFormat    = "tg_card_of:%d:%d"
)

const (
	modeWaitingPin    = "waiting_pin"
	modeEditingRecord = "editing_record"
	modeEditingField  = "editing_field"
)

// userState — однократный режим следующего сообщения пользователя.
type userState struct {
	Mode    string `json:"mode"`
	OrderID int64  `json:"order_id,omitempty"`
	Field   string `json:"field,omitempty"`
}

func (ctrl *Controller) getState(ctx context.Context, userID int64) (*userState, error) {
	raw, err := ctrl.cacheRepo.Get(ctx, fmt.Sprintf(userStateKeyFormat, userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var state userState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("ошибка декодирования состояния диалога: %w", err)
	}
	return &state, nil
}

func (ctrl *Controller) setState(ctx context.Context, userID int64, state userState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка кодирования состояния диалога: %w", err)
	}
	return ctrl.cacheRepo.Set(ctx, fmt.Sprintf(userStateKeyFormat, userID), string(raw), stateTTL)
}

func (ctrl *Controller) clearState(ctx context.Context, userID int64) error {
	return ctrl.cacheRepo.Del(ctx, fmt.Sprintf(userStateKeyFormat, userID))
}

// bindCard привязывает сообщение-карточку к заказу: reply на карточку и
// кнопки под ней находят заказ по этой привязке.
func (ctrl *Controller) bindCard(ctx context.Context, chatID, messageID, orderID int64) error {
	if err := ctrl.cacheRepo.Set(ctx, fmt.Sprintf(cardKeyFormat, chatID, messageID),
		strconv.FormatInt(orderID, 10), stateTTL); err != nil {
		return err
	}
	// Обратная привязка: по заказу найти его карточку в чате.
	return ctrl.cacheRepo.Set(ctx, fmt.Sprintf(cardOfKeyFormat, chatID, orderID),
		strconv.FormatInt(messageID, 10), stateTTL)
}

// cardOrderID возвращает заказ, к которому привязана карточка, либо 0.
func (ctrl *Controller) cardOrderID(ctx context.Context, chatID, messageID int64) (int64, error) {
	raw, err := ctrl.cacheRepo.Get(ctx, fmt.Sprintf(cardKeyFormat, chatID, messageID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ошибка разбора привязки карточки: %w", err)
	}
	return id, nil
}

// cardMessageID возвращает карточку заказа в чате, либо 0. Нужна при
// правке поля, чтобы перерисовать уже отправленную карточку.
func (ctrl *Controller) cardMessageID(ctx context.Context, chatID, orderID int64) (int64, error) {
	raw, err := ctrl.cacheRepo.Get(ctx, fmt.Sprintf(cardOfKeyFormat, chatID, orderID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ошибка разбора привязки карточки: %w", err)
	}
	return id, nil
}
