package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Статусы заказа. Других значений в БД быть не может (CHECK-ограничение).
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusDelivery   = "delivery"
	StatusPaid       = "paid"
	StatusCanceled   = "canceled"
)

var orderStatuses = map[string]struct{}{
	StatusNew:        {},
	StatusInProgress: {},
	StatusDelivery:   {},
	StatusPaid:       {},
	StatusCanceled:   {},
}

func IsValidStatus(status string) bool {
	_, ok := orderStatuses[status]
	return ok
}

// OrderStatuses возвращает статусы в порядке жизненного цикла.
func OrderStatuses() []string {
	return []string{StatusNew, StatusInProgress, StatusDelivery, StatusPaid, StatusCanceled}
}

// Order — запись заказа, разобранная из свободного текста менеджера.
type Order struct {
	ID           int64
	Model        string
	Price        string
	Address      string
	ContactRaw   string
	Phone        null.String
	CustomerName string
	Comment      string
	ManagerID    int64
	ManagerName  string
	// Исходное сообщение, из которого создан заказ. Используется как
	// естественный ключ при редактировании сообщения на месте.
	ChatID    int64
	MessageID int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Status    string
	// Момент напоминания; reminder_sent сбрасывается при каждом пересчёте.
	ReminderAt   null.Time
	ReminderSent bool
	// Накопительный журнал аннотаций вида "[2006-01-02 15:04 Имя]: текст".
	CommentHistory string
}

// PhoneString возвращает телефон или пустую строку для отображения.
func (o *Order) PhoneString() string {
	if o.Phone.Valid {
		return o.Phone.String
	}
	return ""
}
