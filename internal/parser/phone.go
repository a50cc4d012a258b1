package parser

import "strings"

// NormalizePhone извлекает телефон и имя клиента из поля контакта.
// Первый токен считается телефоном, остальное — именем. Из токена берутся
// только цифры; строка из 10+ цифр приводится к формату +7XXXXXXXXXX
// (ведущие 8 и 7 отбрасываются). Это намеренно простое правило для российских
// номеров, а не разбор E.164.
//
// Если цифр меньше десяти, телефон не распознан: возвращается (nil, исходная
// строка целиком), чтобы не потерять информацию.
func NormalizePhone(contact string) (*string, string) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, ""
	}

	parts := strings.Fields(contact)
	candidate := parts[0]
	name := strings.Join(parts[1:], " ")

	var digits strings.Builder
	for _, r := range candidate {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) < 10 {
		return nil, contact
	}

	var normalized string
	switch d[0] {
	case '8', '7':
		normalized = "+7" + d[1:]
	default:
		normalized = "+7" + d
	}
	return &normalized, name
}
