package reports

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
)

// Шрифт с кириллицей для PDF; файл ищется в рабочей директории процесса.
const pdfFontFile = "adomino.ttf"

var pdfHeaders = []string{"ID", "Дата", "Менеджер", "Статус", "Модель", "Клиент", "Телефон", "Адрес"}

var pdfColWidths = []float64{12, 22, 26, 26, 32, 26, 26, 30}

// BuildPDF собирает PDF-отчёт по заказам. Без TTF-файла с кириллицей
// отчёт не собирается и возвращается ошибка.
func BuildPDF(orders []entities.Order) ([]byte, error) {
	if _, err := os.Stat(pdfFontFile); err != nil {
		return nil, fmt.Errorf("шрифт %s не найден, PDF-отчёт недоступен: %w", pdfFontFile, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font("report", "", pdfFontFile)
	pdf.AddPage()

	pdf.SetFont("report", "", 16)
	pdf.CellFormat(0, 10, "Отчёт по заказам", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("report", "", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range pdfHeaders {
		pdf.CellFormat(pdfColWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("report", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for i := range orders {
		o := &orders[i]
		fill := i%2 == 1
		pdf.SetFillColor(211, 211, 211)

		customer := o.CustomerName
		if customer == "" {
			customer = "Без имени"
		}

		cells := []string{
			strconv.FormatInt(o.ID, 10),
			o.CreatedAt.Format("2006-01-02"),
			o.ManagerName,
			entities.StatusLabel(o.Status),
			o.Model,
			customer,
			o.PhoneString(),
			o.Address,
		}
		for j, value := range cells {
			pdf.CellFormat(pdfColWidths[j], 7, value, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ошибка записи PDF: %w", err)
	}
	return buf.Bytes(), nil
}
