package board

import (
	"reflect"
	"testing"
	"time"
)

func TestColumnValue(t *testing.T) {
	tests := []struct {
		name       string
		columnType string
		in         any
		want       any
	}{
		{"text from string", TypeText, "hello", "hello"},
		{"text from number", TypeText, 42, "42"},
		{"long text", TypeLongText, "a longer note", map[string]any{"text": "a longer note"}},
		{"numbers from float", TypeNumbers, 3.5, "3.5"},
		{"numbers from int", TypeNumbers, 7, "7"},
		{"numbers from string", TypeNumbers, "12.25", "12.25"},
		{"status", TypeStatus, "Done", map[string]any{"label": "Done"}},
		{"dropdown single", TypeDropdown, "qualitative", map[string]any{"labels": []string{"qualitative"}}},
		{"dropdown multi", TypeDropdown, []string{"a", "b"}, map[string]any{"labels": []string{"a", "b"}}},
		{"date from string", TypeDate, "2026-08-31", map[string]any{"date": "2026-08-31"}},
		{"date from time", TypeDate, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC), map[string]any{"date": "2026-08-31"}},
		{"tags", TypeTags, []string{"77", "78"}, map[string]any{"tag_ids": []string{"77", "78"}}},
		{"link", TypeLink, "https://example.com/report", map[string]any{"url": "https://example.com/report", "text": "https://example.com/report"}},
		{"email", TypeEmail, "pm@example.com", map[string]any{"email": "pm@example.com", "text": "pm@example.com"}},
		{"phone", TypePhone, "+4915112345678", map[string]any{"phone": "+4915112345678"}},
		{"checkbox true", TypeCheckbox, true, map[string]any{"checked": "true"}},
		{"checkbox false clears", TypeCheckbox, false, map[string]any{}},
		{"checkbox from string", TypeCheckbox, "true", map[string]any{"checked": "true"}},
		{"rating", TypeRating, 4, map[string]any{"rating": 4}},
		{"timeline", TypeTimeline,
			map[string]any{"from": "2026-09-01", "to": "2026-09-28"},
			map[string]any{"from": "2026-09-01", "to": "2026-09-28"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ColumnValue(tt.columnType, tt.in)
			if err != nil {
				t.Fatalf("ColumnValue(%q, %v): %v", tt.columnType, tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ColumnValue(%q, %v) = %#v, want %#v", tt.columnType, tt.in, got, tt.want)
			}
		})
	}
}

func TestColumnValue_Errors(t *testing.T) {
	tests := []struct {
		name       string
		columnType string
		in         any
	}{
		{"unsupported type", "mirror", "x"},
		{"numbers from garbage", TypeNumbers, "not-a-number"},
		{"numbers from struct", TypeNumbers, struct{}{}},
		{"date malformed", TypeDate, "31.08.2026"},
		{"date wrong kind", TypeDate, 42},
		{"checkbox garbage", TypeCheckbox, "maybe"},
		{"timeline not a map", TypeTimeline, "2026-09-01"},
		{"timeline missing to", TypeTimeline, map[string]any{"from": "2026-09-01"}},
		{"dropdown wrong kind", TypeDropdown, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ColumnValue(tt.columnType, tt.in); err == nil {
				t.Errorf("ColumnValue(%q, %v) returned nil error", tt.columnType, tt.in)
			}
		})
	}
}
