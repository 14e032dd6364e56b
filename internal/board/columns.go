package board

import (
	"fmt"
	"strconv"
	"time"
)

// Column types understood by [ColumnValue]. These mirror the platform's
// column type identifiers.
const (
	TypeText     = "text"
	TypeLongText = "long_text"
	TypeNumbers  = "numbers"
	TypeStatus   = "status"
	TypeDropdown = "dropdown"
	TypeDate     = "date"
	TypeTags     = "tags"
	TypeLink     = "link"
	TypeEmail    = "email"
	TypePhone    = "phone"
	TypeCheckbox = "checkbox"
	TypeRating   = "rating"
	TypeTimeline = "timeline"
	TypeFile     = "file"
)

const dateLayout = "2006-01-02"

// ColumnValue converts a generic Go value into the JSON shape the API expects
// for a column of the given type. The result is suitable as a map entry for
// [Client.CreateItem] or [Client.ChangeColumnValues].
//
// Returns an error for unsupported column types or values that cannot be
// coerced into the column's shape.
func ColumnValue(columnType string, v any) (any, error) {
	switch columnType {
	case TypeText:
		return stringify(v), nil

	case TypeLongText:
		return map[string]any{"text": stringify(v)}, nil

	case TypeNumbers:
		n, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("board: numbers column: %w", err)
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil

	case TypeStatus:
		return map[string]any{"label": stringify(v)}, nil

	case TypeDropdown:
		labels, err := toStrings(v)
		if err != nil {
			return nil, fmt.Errorf("board: dropdown column: %w", err)
		}
		return map[string]any{"labels": labels}, nil

	case TypeDate:
		d, err := toDate(v)
		if err != nil {
			return nil, fmt.Errorf("board: date column: %w", err)
		}
		return map[string]any{"date": d}, nil

	case TypeTags:
		ids, err := toStrings(v)
		if err != nil {
			return nil, fmt.Errorf("board: tags column: %w", err)
		}
		return map[string]any{"tag_ids": ids}, nil

	case TypeLink:
		url := stringify(v)
		return map[string]any{"url": url, "text": url}, nil

	case TypeEmail:
		addr := stringify(v)
		return map[string]any{"email": addr, "text": addr}, nil

	case TypePhone:
		return map[string]any{"phone": stringify(v)}, nil

	case TypeCheckbox:
		b, err := toBool(v)
		if err != nil {
			return nil, fmt.Errorf("board: checkbox column: %w", err)
		}
		if !b {
			return map[string]any{}, nil
		}
		return map[string]any{"checked": "true"}, nil

	case TypeRating:
		n, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("board: rating column: %w", err)
		}
		return map[string]any{"rating": int(n)}, nil

	case TypeTimeline:
		span, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("board: timeline column: want a map with from/to, got %T", v)
		}
		from, err := toDate(span["from"])
		if err != nil {
			return nil, fmt.Errorf("board: timeline column from: %w", err)
		}
		to, err := toDate(span["to"])
		if err != nil {
			return nil, fmt.Errorf("board: timeline column to: %w", err)
		}
		return map[string]any{"from": from, "to": to}, nil

	default:
		return nil, fmt.Errorf("board: unsupported column type %q", columnType)
	}
}

// stringify renders any scalar as a string.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toFloat coerces numeric values and numeric strings to float64.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q as number: %w", n, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("want a number, got %T", v)
	}
}

// toBool coerces booleans and boolean strings.
func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("parse %q as bool: %w", b, err)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("want a bool, got %T", v)
	}
}

// toStrings coerces a value into a slice of strings. Scalars become a
// one-element slice.
func toStrings(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case string:
		return []string{s}, nil
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, stringify(e))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a string or list of strings, got %T", v)
	}
}

// toDate coerces a [time.Time] or a YYYY-MM-DD string into the API date format.
func toDate(v any) (string, error) {
	switch d := v.(type) {
	case time.Time:
		return d.Format(dateLayout), nil
	case string:
		if _, err := time.Parse(dateLayout, d); err != nil {
			return "", fmt.Errorf("parse %q as date: %w", d, err)
		}
		return d, nil
	default:
		return "", fmt.Errorf("want a time or YYYY-MM-DD string, got %T", v)
	}
}
