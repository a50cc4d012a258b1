package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
)

func sampleOrders() []entities.Order {
	return []entities.Order{
		{
			ID:           1,
			Model:        "Цветы",
			Price:        "15000",
			Address:      "Нью-Йорк",
			Phone:        null.StringFrom("+79991234567"),
			CustomerName: "Питер Паркер",
			Comment:      "завтра 15:00",
			ManagerName:  "Анна",
			Status:       entities.StatusNew,
			CreatedAt:    time.Date(2025, 6, 15, 10, 30, 0, 0, time.Local),
		},
		{
			ID:        2,
			Model:     "Торт",
			Price:     "3000",
			Status:    entities.StatusPaid,
			CreatedAt: time.Date(2025, 6, 14, 9, 0, 0, 0, time.Local),
		},
	}
}

func TestBuildCSV(t *testing.T) {
	data, err := BuildCSV(sampleOrders())
	require.NoError(t, err)

	// BOM в начале, чтобы Excel понял кодировку.
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	r := csv.NewReader(bytes.NewReader(data[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"id", "created_at", "manager_name", "status", "model",
		"price", "address", "phone", "customer_name", "comment",
	}, rows[0])

	assert.Equal(t, []string{
		"1", "2025-06-15", "Анна", "new", "Цветы",
		"15000", "Нью-Йорк", "+79991234567", "Питер Паркер", "завтра 15:00",
	}, rows[1])

	// Пустой телефон выгружается пустой строкой.
	assert.Equal(t, "", rows[2][7])
}

func TestBuildCSVEmpty(t *testing.T) {
	data, err := BuildCSV(nil)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(data[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
