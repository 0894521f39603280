// Package query derives the filtered, sorted and paginated views rendered by
// list screens. One engine serves every entity type: a Schema describes how
// to read the fields of T, a Spec describes the view that was asked for.
package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/srgjo27/event_ledger/internal/core/domain"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// FilterAll disables a filter, as does the empty string.
const FilterAll = "all"

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
)

// Field reads one attribute of T. Text is required for every kind and is
// what search and equality filters see; Number is required for KindNumber.
// KindDate fields are parsed from Text.
type Field[T any] struct {
	Kind   Kind
	Text   func(T) string
	Number func(T) float64
}

type Schema[T any] struct {
	Fields       map[string]Field[T]
	Search       []string
	DateField    string
	NumericField string
	// Language selects the collation used for string sorts. Zero means English.
	Language language.Tag
}

// DateRange bounds are inclusive; a zero time leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) active() bool {
	return !r.From.IsZero() || !r.To.IsZero()
}

type NumericRange struct {
	Min *float64
	Max *float64
}

func (r NumericRange) active() bool {
	return r.Min != nil || r.Max != nil
}

type Spec struct {
	SearchTerm   string
	Filters      map[string]string
	DateRange    DateRange
	NumericRange NumericRange
	SortBy       string
	SortOrder    SortOrder
	Page         int
	PageSize     int
}

type Result[T any] struct {
	Page       []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// PageCount is the number of pages TotalCount spans at pageSize.
func (r Result[T]) PageCount(pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(r.TotalCount) / float64(pageSize)))
}

// Run applies spec to items. items is never modified. Equal sort keys keep
// their input order.
func Run[T any](items []T, schema Schema[T], spec Spec) (Result[T], error) {
	if err := schema.check(spec); err != nil {
		return Result[T]{}, err
	}

	matcher := newMatcher(schema, spec)
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if matcher.match(item) {
			matched = append(matched, item)
		}
	}

	if spec.SortBy != "" {
		sortItems(matched, schema, spec.SortBy, spec.SortOrder)
	}

	total := len(matched)
	// Compare in page units first; (Page-1)*PageSize can overflow int.
	if total == 0 || spec.Page-1 > (total-1)/spec.PageSize {
		return Result[T]{Page: []T{}, TotalCount: total}, nil
	}
	start := (spec.Page - 1) * spec.PageSize

	end := total
	if spec.PageSize < total-start {
		end = start + spec.PageSize
	}

	return Result[T]{Page: matched[start:end], TotalCount: total}, nil
}

func (s Schema[T]) check(spec Spec) error {
	if spec.PageSize <= 0 {
		return domain.NewConfigurationError("pageSize", "must be positive")
	}
	if spec.Page < 1 {
		return domain.NewConfigurationError("page", "must be at least 1")
	}

	if spec.SortBy != "" {
		if _, ok := s.Fields[spec.SortBy]; !ok {
			return domain.NewConfigurationError("sortBy", "unknown field "+spec.SortBy)
		}
	}
	switch spec.SortOrder {
	case "", Asc, Desc:
	default:
		return domain.NewConfigurationError("sortOrder", "must be asc or desc")
	}

	for name := range spec.Filters {
		if _, ok := s.Fields[name]; !ok {
			return domain.NewConfigurationError("filters", "unknown field "+name)
		}
	}

	if spec.DateRange.active() {
		if f, ok := s.Fields[s.DateField]; !ok || f.Kind != KindDate {
			return domain.NewConfigurationError("dateRange", "no date field declared")
		}
	}
	if spec.NumericRange.active() {
		if f, ok := s.Fields[s.NumericField]; !ok || f.Kind != KindNumber {
			return domain.NewConfigurationError("numericRange", "no numeric field declared")
		}
	}

	for name, f := range s.Fields {
		if f.Text == nil || (f.Kind == KindNumber && f.Number == nil) {
			return domain.NewConfigurationError("schema", "field "+name+" has no extractor")
		}
	}
	for _, name := range s.Search {
		if _, ok := s.Fields[name]; !ok {
			return domain.NewConfigurationError("schema", "unknown search field "+name)
		}
	}

	return nil
}

type matcher[T any] struct {
	schema  Schema[T]
	spec    Spec
	fold    cases.Caser
	term    string
	filters map[string]string
}

func newMatcher[T any](schema Schema[T], spec Spec) *matcher[T] {
	fold := cases.Fold()

	filters := make(map[string]string, len(spec.Filters))
	for name, value := range spec.Filters {
		if value == "" || value == FilterAll {
			continue
		}
		filters[name] = value
	}

	return &matcher[T]{
		schema:  schema,
		spec:    spec,
		fold:    fold,
		term:    fold.String(strings.TrimSpace(spec.SearchTerm)),
		filters: filters,
	}
}

func (m *matcher[T]) match(item T) bool {
	return m.matchSearch(item) && m.matchFilters(item) && m.matchDate(item) && m.matchNumber(item)
}

func (m *matcher[T]) matchSearch(item T) bool {
	if m.term == "" {
		return true
	}
	for _, name := range m.schema.Search {
		if strings.Contains(m.fold.String(m.schema.Fields[name].Text(item)), m.term) {
			return true
		}
	}
	return false
}

func (m *matcher[T]) matchFilters(item T) bool {
	for name, want := range m.filters {
		if m.schema.Fields[name].Text(item) != want {
			return false
		}
	}
	return true
}

func (m *matcher[T]) matchDate(item T) bool {
	r := m.spec.DateRange
	if !r.active() {
		return true
	}

	ts, ok := ParseDate(m.schema.Fields[m.schema.DateField].Text(item))
	if !ok {
		return false
	}
	if !r.From.IsZero() && ts.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && ts.After(r.To) {
		return false
	}
	return true
}

func (m *matcher[T]) matchNumber(item T) bool {
	r := m.spec.NumericRange
	if !r.active() {
		return true
	}

	v := m.schema.Fields[m.schema.NumericField].Number(item)
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func sortItems[T any](items []T, schema Schema[T], sortBy string, order SortOrder) {
	field := schema.Fields[sortBy]
	desc := order == Desc

	var cmp func(a, b T) int
	switch field.Kind {
	case KindNumber:
		cmp = func(a, b T) int {
			return compareFloat(field.Number(a), field.Number(b))
		}
	case KindDate:
		cmp = func(a, b T) int {
			return compareTime(dateOrEpoch(field.Text(a)), dateOrEpoch(field.Text(b)))
		}
	default:
		tag := schema.Language
		if tag == language.Und {
			tag = language.English
		}
		// Collators keep scratch buffers and must not be shared across goroutines.
		c := collate.New(tag)
		cmp = func(a, b T) int {
			return c.CompareString(field.Text(a), field.Text(b))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return cmp(items[i], items[j]) > 0
		}
		return cmp(items[i], items[j]) < 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
