package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(sampleOrders())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetOrders)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Комментарий", rows[0][9])
	assert.Equal(t, "Цветы", rows[1][4])
	assert.Equal(t, "+79991234567", rows[1][7])
}

func TestBuildDailyXLSX(t *testing.T) {
	orders := sampleOrders()
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local)

	data, err := BuildDailyXLSX(DailyFeed{
		Date:      day,
		DayOrders: orders,
		Active:    orders[:1],
		All:       orders,
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{sheetSummary, sheetActive, sheetAll}, f.GetSheetList())

	count, err := f.GetCellValue(sheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", count)

	total, err := f.GetCellValue(sheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "18000", total)

	active, err := f.GetRows(sheetActive)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := f.GetRows(sheetAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
