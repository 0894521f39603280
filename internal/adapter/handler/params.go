package handler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/query"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	filterPrefix    = "filter."
)

// parseSpec reads a list view request from the query string. Malformed
// values are reported as validation errors; whether a field name is known is
// left to the query engine.
func parseSpec(values url.Values) (query.Spec, error) {
	spec := query.Spec{
		SearchTerm: strings.TrimSpace(values.Get("q")),
		SortBy:     values.Get("sortBy"),
		SortOrder:  query.SortOrder(strings.ToLower(values.Get("sortOrder"))),
		Page:       defaultPage,
		PageSize:   defaultPageSize,
	}

	for key, vals := range values {
		name, ok := strings.CutPrefix(key, filterPrefix)
		if !ok || name == "" || len(vals) == 0 {
			continue
		}
		if spec.Filters == nil {
			spec.Filters = make(map[string]string)
		}
		spec.Filters[name] = vals[0]
	}

	var err error
	if spec.Page, err = intParam(values, "page", defaultPage); err != nil {
		return query.Spec{}, err
	}
	if spec.PageSize, err = intParam(values, "pageSize", defaultPageSize); err != nil {
		return query.Spec{}, err
	}

	if s := values.Get("from"); s != "" {
		from, ok := query.ParseRangeBound(s, false)
		if !ok {
			return query.Spec{}, domain.NewValidationError("from", "must be a date")
		}
		spec.DateRange.From = from
	}
	if s := values.Get("to"); s != "" {
		to, ok := query.ParseRangeBound(s, true)
		if !ok {
			return query.Spec{}, domain.NewValidationError("to", "must be a date")
		}
		spec.DateRange.To = to
	}

	if spec.NumericRange.Min, err = floatParam(values, "min"); err != nil {
		return query.Spec{}, err
	}
	if spec.NumericRange.Max, err = floatParam(values, "max"); err != nil {
		return query.Spec{}, err
	}

	return spec, nil
}

func intParam(values url.Values, name string, fallback int) (int, error) {
	s := values.Get(name)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

func floatParam(values url.Values, name string) (*float64, error) {
	s := values.Get(name)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be a number")
	}
	return &f, nil
}
