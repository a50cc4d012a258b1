package entities

var statusIcons = map[string]string{
	StatusNew:        "🆕",
	StatusInProgress: "📦",
	StatusDelivery:   "🚚",
	StatusPaid:       "✅",
	StatusCanceled:   "❌",
}

var statusLabels = map[string]string{
	StatusNew:        "🆕 Новый",
	StatusInProgress: "📦 В работе",
	StatusDelivery:   "🚚 Доставка",
	StatusPaid:       "✅ Оплачен",
	StatusCanceled:   "❌ Отказ",
}

// StatusIcon возвращает эмодзи статуса; для неизвестного значения — 🆕.
func StatusIcon(status string) string {
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return statusIcons[StatusNew]
}

// StatusLabel возвращает подпись статуса с эмодзи для отчётов и карточек.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}
