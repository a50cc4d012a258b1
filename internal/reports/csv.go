// Package reports собирает отчёты по заказам в форматах CSV, XLSX и PDF.
package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
)

// Колонки всех табличных отчётов, порядок фиксирован.
var reportHeaders = []string{
	"id", "created_at", "manager_name", "status", "model",
	"price", "address", "phone", "customer_name", "comment",
}

// utf8BOM нужен, чтобы Excel открывал кириллицу в CSV без перекодировки.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func orderRow(o *entities.Order) []string {
	return []string{
		strconv.FormatInt(o.ID, 10),
		o.CreatedAt.Format("2006-01-02"),
		o.ManagerName,
		o.Status,
		o.Model,
		o.Price,
		o.Address,
		o.PhoneString(),
		o.CustomerName,
		o.Comment,
	}
}

// BuildCSV собирает CSV-отчёт по заказам с BOM-префиксом.
func BuildCSV(orders []entities.Order) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeaders); err != nil {
		return nil, fmt.Errorf("ошибка записи заголовка CSV: %w", err)
	}
	for i := range orders {
		if err := w.Write(orderRow(&orders[i])); err != nil {
			return nil, fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("ошибка сборки CSV: %w", err)
	}
	return buf.Bytes(), nil
}
