package reports

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
)

var xlsxHeaders = []string{
	"ID", "Дата", "Менеджер", "Статус", "Заказ",
	"Цена", "Адрес", "Телефон", "Клиент", "Комментарий",
}

const (
	xlsxMaxColWidth = 50

	sheetOrders  = "Заказы"
	sheetSummary = "Итоги за день"
	sheetActive  = "Заказы в работе"
	sheetAll     = "Все заказы"
)

func thinBorders() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, s := range sides {
		borders = append(borders, excelize.Border{Type: s, Style: 1, Color: "000000"})
	}
	return borders
}

func fillOrdersSheet(f *excelize.File, sheet string, orders []entities.Order) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"CCCCCC"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return fmt.Errorf("ошибка стиля заголовка: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thinBorders()})
	if err != nil {
		return fmt.Errorf("ошибка стиля ячейки: %w", err)
	}

	widths := make([]int, len(xlsxHeaders))
	for col, header := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		widths[col] = len([]rune(header))
	}

	for i := range orders {
		values := orderRow(&orders[i])
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			if n := len([]rune(value)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	lastHeader, _ := excelize.CoordinatesToCellName(len(xlsxHeaders), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}
	if len(orders) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(xlsxHeaders), len(orders)+1)
		if err := f.SetCellStyle(sheet, "A2", lastCell, cellStyle); err != nil {
			return err
		}
	}

	for col, w := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		width := w + 2
		if width > xlsxMaxColWidth {
			width = xlsxMaxColWidth
		}
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			return err
		}
	}
	return nil
}

// BuildXLSX собирает однолистовой Excel-отчёт по заказам.
func BuildXLSX(orders []entities.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetOrders); err != nil {
		return nil, err
	}
	if err := fillOrdersSheet(f, sheetOrders, orders); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

// DailyFeed — выборки для трёх листов ежедневного отчёта.
type DailyFeed struct {
	Date      time.Time
	DayOrders []entities.Order
	Active    []entities.Order
	All       []entities.Order
}

// BuildDailyXLSX собирает трёхлистовой ежедневный отчёт: итоги дня,
// активные заказы и полная выгрузка.
func BuildDailyXLSX(feed DailyFeed) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetActive); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetAll); err != nil {
		return nil, err
	}

	if err := fillSummarySheet(f, feed.DayOrders); err != nil {
		return nil, err
	}
	if err := fillOrdersSheet(f, sheetActive, feed.Active); err != nil {
		return nil, err
	}
	if err := fillOrdersSheet(f, sheetAll, feed.All); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи ежедневного XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

func fillSummarySheet(f *excelize.File, dayOrders []entities.Order) error {
	var totalSum float64
	statusCounts := map[string]int{}
	for i := range dayOrders {
		// Нечисловая цена считается нулём, заказ при этом учитывается.
		if price, err := strconv.ParseFloat(dayOrders[i].Price, 64); err == nil {
			totalSum += price
		}
		statusCounts[dayOrders[i].Status]++
	}

	if err := f.SetCellValue(sheetSummary, "A1", "Количество новых заказов за день:"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetSummary, "B1", len(dayOrders)); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetSummary, "A2", "Общая сумма заказов за день:"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetSummary, "B2", totalSum); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetSummary, "A3", "Распределение по статусам:"); err != nil {
		return err
	}

	row := 4
	for _, status := range entities.OrderStatuses() {
		count, ok := statusCounts[status]
		if !ok {
			continue
		}
		if err := f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", row), "  "+entities.StatusLabel(status)+":"); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", row), count); err != nil {
			return err
		}
		row++
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", row-1), boldStyle)
}
