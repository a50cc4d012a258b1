// Package parser разбирает свободный текст менеджера: строку заказа из пяти
// полей, контакт с телефоном и дату/время напоминания в комментарии.
package parser

import "strings"

// OrderFields — пять полей заказа в порядке следования в сообщении.
type OrderFields struct {
	Model   string `validate:"required"`
	Price   string
	Address string
	Contact string
	Comment string `validate:"max=500"`
}

// ParseOrder разбирает сообщение формата
// "модель / цена / адрес / контакт / комментарий".
// Сегментов должно быть ровно пять, иначе это не заказ и вызывающая сторона
// трактует текст как поиск или команду.
func ParseOrder(text string) (*OrderFields, bool) {
	parts := strings.Split(text, "/")
	if len(parts) != 5 {
		return nil, false
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return &OrderFields{
		Model:   parts[0],
		Price:   parts[1],
		Address: parts[2],
		Contact: parts[3],
		Comment: parts[4],
	}, true
}

// EditString собирает строку для копирования и правки — обратная операция
// к ParseOrder.
func (f *OrderFields) EditString() string {
	return f.Model + "/" + f.Price + "/" + f.Address + "/" + f.Contact + "/" + f.Comment
}
