package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/services"
)

const (
	dateParamLayout = "2006-01-02"

	paramCity         = "city"
	paramBranch       = "branch"
	paramCategory     = "category"
	paramCustomerType = "customer_type"
	paramStart        = "start"
	paramEnd          = "end"
)

// selectionValues reads a repeatable, comma-separable query parameter. An
// absent parameter is nil; a parameter present with only empty values is a
// non-nil empty selection.
func selectionValues(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		for part := range strings.SplitSeq(v, ",") {
			if part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

func parseDate(value, name string) (time.Time, error) {
	t, err := time.Parse(dateParamLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errors.BadRequestWrap(err, "invalid "+name+" date, expected YYYY-MM-DD")
	}
	return t, nil
}

// dateRange builds an inclusive range from optional start and end values.
// A missing bound is left open.
func dateRange(start, end string) (*services.DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}

	r := &services.DateRange{End: services.OpenEnd}
	var err error
	if start != "" {
		if r.Start, err = parseDate(start, paramStart); err != nil {
			return nil, err
		}
	}
	if end != "" {
		if r.End, err = parseDate(end, paramEnd); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func parseSelections(r *http.Request) (services.Selections, error) {
	q := r.URL.Query()
	sel := services.Selections{
		Cities:            selectionValues(q, paramCity),
		Branches:          selectionValues(q, paramBranch),
		ProductCategories: selectionValues(q, paramCategory),
		CustomerTypes:     selectionValues(q, paramCustomerType),
	}

	dr, err := dateRange(q.Get(paramStart), q.Get(paramEnd))
	if err != nil {
		return services.Selections{}, err
	}
	sel.DateRange = dr
	return sel, nil
}

// filterSignals mirrors the sidebar state held by the page. A signal that
// is absent decodes to nil and leaves its dimension unfiltered.
type filterSignals struct {
	Cities        []string `json:"cities"`
	Branches      []string `json:"branches"`
	Categories    []string `json:"categories"`
	CustomerTypes []string `json:"customerTypes"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
}

func (s filterSignals) selections() (services.Selections, error) {
	dr, err := dateRange(s.StartDate, s.EndDate)
	if err != nil {
		return services.Selections{}, err
	}
	return services.Selections{
		Cities:            s.Cities,
		Branches:          s.Branches,
		ProductCategories: s.Categories,
		CustomerTypes:     s.CustomerTypes,
		DateRange:         dr,
	}, nil
}

// exportURL encodes sel as a query on /export that parseSelections reads
// back to the same selection.
func exportURL(sel services.Selections) string {
	q := url.Values{}
	set := func(key string, values []string) {
		switch {
		case values == nil:
		case len(values) == 0:
			q.Set(key, "")
		default:
			q[key] = values
		}
	}
	set(paramCity, sel.Cities)
	set(paramBranch, sel.Branches)
	set(paramCategory, sel.ProductCategories)
	set(paramCustomerType, sel.CustomerTypes)
	if sel.DateRange != nil {
		if !sel.DateRange.Start.IsZero() {
			q.Set(paramStart, sel.DateRange.Start.Format(dateParamLayout))
		}
		if !sel.DateRange.End.Equal(services.OpenEnd) {
			q.Set(paramEnd, sel.DateRange.End.Format(dateParamLayout))
		}
	}

	if len(q) == 0 {
		return "/export"
	}
	return "/export?" + q.Encode()
}
