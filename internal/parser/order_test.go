package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *OrderFields
		ok   bool
	}{
		{
			name: "five_fields",
			text: "A/B/C/D/E",
			want: &OrderFields{Model: "A", Price: "B", Address: "C", Contact: "D", Comment: "E"},
			ok:   true,
		},
		{
			name: "trims_whitespace",
			text: "Цветы для Мэри / 20000 / Нью-Йорк / 89997772233 Питер Паркер / доставить 30.12",
			want: &OrderFields{
				Model:   "Цветы для Мэри",
				Price:   "20000",
				Address: "Нью-Йорк",
				Contact: "89997772233 Питер Паркер",
				Comment: "доставить 30.12",
			},
			ok: true,
		},
		{
			name: "empty_segments_allowed",
			text: "////",
			want: &OrderFields{},
			ok:   true,
		},
		{name: "three_fields", text: "A/B/C"},
		{name: "six_fields", text: "A/B/C/D/E/F"},
		{name: "plain_text", text: "просто поисковый запрос"},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseOrder(tt.text)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestOrderFieldsEditString(t *testing.T) {
	fields := &OrderFields{
		Model:   "Букет",
		Price:   "1500",
		Address: "Тверская 1",
		Contact: "89991234567 Анна",
		Comment: "завтра 10:00",
	}

	s := fields.EditString()
	assert.Equal(t, "Букет/1500/Тверская 1/89991234567 Анна/завтра 10:00", s)

	back, ok := ParseOrder(s)
	require.True(t, ok)
	assert.Equal(t, fields, back)
}
