package errors

import "fmt"

var (
	// Авторизация
	ErrUnauthorized = fmt.Errorf("доступ запрещён, требуется PIN-код")
	ErrWrongPin     = fmt.Errorf("неверный PIN-код")

	// Заказы
	ErrOrderNotFound  = fmt.Errorf("заказ не найден")
	ErrDuplicateOrder = fmt.Errorf("заказ с такой моделью и контактом уже существует")
	ErrNotOrderFormat = fmt.Errorf("сообщение не соответствует формату заказа")
	ErrInvalidStatus  = fmt.Errorf("недопустимый статус заказа")

	// Лимиты
	ErrRateLimited        = fmt.Errorf("слишком частые сообщения, подождите несколько секунд")
	ErrCommentTooLong     = fmt.Errorf("комментарий слишком длинный (максимум 500 символов)")
	ErrDailyLimitExceeded = fmt.Errorf("превышен лимит заказов на сегодня")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
)

// InvalidInputError несёт сообщение, пригодное для показа пользователю.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
