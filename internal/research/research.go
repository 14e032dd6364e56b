// Package research maps generic research records onto a board's column
// schema.
//
// A [Record] carries the fields a research repository typically exports:
// title, summary, source, date, tags, and arbitrary named fields. The
// [Transformer] matches field names against column titles — exact
// (case-insensitive) first, then phonetically via Double Metaphone plus
// Jaro-Winkler ranking — and formats each matched value with the column
// type's encoder. Fields that match no column are folded into a designated
// long-text column so no data is silently dropped.
package research

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/uplift-labs/uplift/internal/board"
)

// Record is a generic research record to be pushed onto a board.
type Record struct {
	// Title becomes the item name. Required.
	Title string `json:"title"`

	// Summary is a short free-text description.
	Summary string `json:"summary,omitempty"`

	// SourceURL links to the underlying study, ticket, or document.
	SourceURL string `json:"source_url,omitempty"`

	// Date is when the research was conducted (YYYY-MM-DD).
	Date string `json:"date,omitempty"`

	// Tags are free-form labels; they are resolved to board tag IDs by the
	// caller before transformation when the target board has a tags column.
	Tags []string `json:"tags,omitempty"`

	// Fields holds additional named values keyed by a human-readable field
	// name (e.g. "Participants", "Confidence", "Status").
	Fields map[string]any `json:"fields,omitempty"`
}

// Validate reports whether the record can be transformed at all.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("research: record must have a title")
	}
	if r.Date != "" {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			return fmt.Errorf("research: record date %q is not YYYY-MM-DD: %w", r.Date, err)
		}
	}
	return nil
}

// reserved column titles the well-known record fields map to, checked before
// any fuzzy matching so a board's own "Summary" column always wins them.
const (
	summaryTitle = "summary"
	sourceTitle  = "source"
	dateTitle    = "date"
)

const defaultFuzzyThreshold = 0.85

// Option is a functional option for configuring a [Transformer].
type Option func(*Transformer)

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required for a
// fuzzy field-to-column match. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(t *Transformer) {
		t.fuzzyThreshold = threshold
	}
}

// Transformer maps [Record] values onto a specific board's column schema.
// It is read-only after construction and safe for concurrent use.
type Transformer struct {
	columns        []board.Column
	fuzzyThreshold float64

	// byTitle indexes columns by lowercased title for exact matches.
	byTitle map[string]board.Column

	// overflow is the first long-text column, used for unmatched fields.
	overflow *board.Column

	// tags is the board's tags column when present.
	tags *board.Column
}

// NewTransformer builds a [Transformer] for the given column schema.
func NewTransformer(columns []board.Column, opts ...Option) *Transformer {
	t := &Transformer{
		columns:        columns,
		fuzzyThreshold: defaultFuzzyThreshold,
		byTitle:        make(map[string]board.Column, len(columns)),
	}
	for i, col := range columns {
		t.byTitle[strings.ToLower(strings.TrimSpace(col.Title))] = col
		if col.Type == board.TypeLongText && t.overflow == nil {
			t.overflow = &columns[i]
		}
		if col.Type == board.TypeTags && t.tags == nil {
			t.tags = &columns[i]
		}
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// TagsColumn returns the board's tags column, or nil when the schema has
// none. Callers use it to resolve [Record.Tags] to tag IDs up front.
func (t *Transformer) TagsColumn() *board.Column {
	return t.tags
}

// Transform converts a record into an item name and a column-values map
// ready for [board.Client.CreateItem].
//
// tagIDs are the board tag IDs the caller resolved for [Record.Tags]; pass
// nil when the board has no tags column or the record carries no tags.
//
// Fields that match no column (and values a matched column's type cannot
// encode) are appended to the board's first long-text column when one exists;
// otherwise they are reported in the returned leftovers slice.
func (t *Transformer) Transform(rec Record, tagIDs []string) (name string, values map[string]any, leftovers []string, err error) {
	if err := rec.Validate(); err != nil {
		return "", nil, nil, err
	}

	values = make(map[string]any)
	var overflowParts []string

	assign := func(col board.Column, fieldName string, v any) {
		formatted, err := board.ColumnValue(col.Type, v)
		if err != nil {
			overflowParts = append(overflowParts, fmt.Sprintf("%s: %v", fieldName, v))
			return
		}
		values[col.ID] = formatted
	}

	// Well-known fields first.
	if rec.Summary != "" {
		if col, ok := t.matchColumn(summaryTitle); ok {
			assign(col, "Summary", rec.Summary)
		} else {
			overflowParts = append(overflowParts, "Summary: "+rec.Summary)
		}
	}
	if rec.SourceURL != "" {
		if col, ok := t.matchColumn(sourceTitle); ok {
			assign(col, "Source", rec.SourceURL)
		} else {
			overflowParts = append(overflowParts, "Source: "+rec.SourceURL)
		}
	}
	if rec.Date != "" {
		if col, ok := t.matchColumn(dateTitle); ok {
			assign(col, "Date", rec.Date)
		} else {
			overflowParts = append(overflowParts, "Date: "+rec.Date)
		}
	}
	if len(tagIDs) > 0 && t.tags != nil {
		assign(*t.tags, "Tags", tagIDs)
	}

	// Free-form fields, in stable order.
	fieldNames := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	for _, fieldName := range fieldNames {
		v := rec.Fields[fieldName]
		col, ok := t.matchColumn(fieldName)
		if !ok {
			overflowParts = append(overflowParts, fmt.Sprintf("%s: %v", fieldName, v))
			continue
		}
		assign(col, fieldName, v)
	}

	if len(overflowParts) > 0 {
		if t.overflow != nil {
			text := strings.Join(overflowParts, "\n")
			// An already-assigned overflow column keeps its value; unmatched
			// fields then surface as leftovers instead of clobbering it.
			if _, taken := values[t.overflow.ID]; !taken {
				formatted, err := board.ColumnValue(t.overflow.Type, text)
				if err == nil {
					values[t.overflow.ID] = formatted
					overflowParts = nil
				}
			}
		}
		leftovers = overflowParts
	}

	return rec.Title, values, leftovers, nil
}

// matchColumn resolves a field name to a column: exact lowercased title
// match first, then the best phonetic/fuzzy candidate above the threshold.
func (t *Transformer) matchColumn(fieldName string) (board.Column, bool) {
	key := strings.ToLower(strings.TrimSpace(fieldName))
	if col, ok := t.byTitle[key]; ok {
		return col, true
	}

	fieldPrimary, fieldSecondary := matchr.DoubleMetaphone(key)

	var best board.Column
	bestScore := 0.0
	for _, col := range t.columns {
		title := strings.ToLower(strings.TrimSpace(col.Title))
		if title == "" {
			continue
		}

		score := matchr.JaroWinkler(key, title, false)

		// Phonetic agreement lowers the bar the same way spoken-word entity
		// matching does: same metaphone code, different spelling.
		titlePrimary, titleSecondary := matchr.DoubleMetaphone(title)
		phonetic := fieldPrimary != "" &&
			(fieldPrimary == titlePrimary || fieldPrimary == titleSecondary ||
				(fieldSecondary != "" && (fieldSecondary == titlePrimary || fieldSecondary == titleSecondary)))

		threshold := t.fuzzyThreshold
		if phonetic {
			threshold = 0.7
		}
		if score >= threshold && score > bestScore {
			best = col
			bestScore = score
		}
	}

	return best, bestScore > 0
}
