package services

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

// MatchMode controls how categorical values are compared when filtering and
// grouping.
type MatchMode string

const (
	// MatchExact compares values byte for byte; " 1号店" and "1号店" differ.
	MatchExact MatchMode = "exact"
	// MatchNormalized trims, NFKC-normalizes and case-folds before comparing.
	MatchNormalized MatchMode = "normalized"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(s)) {
	case MatchExact, "":
		return MatchExact, nil
	case MatchNormalized:
		return MatchNormalized, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

// Key returns the grouping and membership key of v under the mode.
func (m MatchMode) Key(v string) string {
	if m != MatchNormalized {
		return v
	}
	// A Caser holds state and cannot be shared between requests.
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(v)))
}

// OpenEnd is the End of a DateRange with no upper bound. A zero Start has no
// lower bound.
var OpenEnd = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// DateRange is inclusive on both ends at day granularity.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Selections is the filter state of one interaction. A nil slice leaves its
// dimension unfiltered; a non-nil empty slice selects nothing, so the view
// is empty. A nil DateRange leaves dates unfiltered.
type Selections struct {
	Cities            []string   `json:"cities"`
	Branches          []string   `json:"branches"`
	ProductCategories []string   `json:"product_categories"`
	CustomerTypes     []string   `json:"customer_types"`
	DateRange         *DateRange `json:"date_range,omitempty"`
}

// Predicate decides whether a row belongs to the filtered view.
type Predicate func(tx models.Transaction) bool

type valueSet map[string]struct{}

func newValueSet(values []string, mode MatchMode) valueSet {
	if values == nil {
		return nil
	}
	set := make(valueSet, len(values))
	for _, v := range values {
		set[mode.Key(v)] = struct{}{}
	}
	return set
}

// BuildPredicate combines every constrained dimension with a logical AND.
// Set membership is tested through the mode's key function. The city
// dimension is only applied when schema has the column.
func BuildPredicate(sel Selections, schema dataset.Schema, mode MatchMode) Predicate {
	type check struct {
		set   valueSet
		field func(models.Transaction) string
	}

	var checks []check
	add := func(values []string, field func(models.Transaction) string) {
		if values != nil {
			checks = append(checks, check{set: newValueSet(values, mode), field: field})
		}
	}
	if schema.HasCity {
		add(sel.Cities, func(tx models.Transaction) string { return tx.City })
	}
	add(sel.Branches, func(tx models.Transaction) string { return tx.Branch })
	add(sel.ProductCategories, func(tx models.Transaction) string { return tx.ProductCategory })
	add(sel.CustomerTypes, func(tx models.Transaction) string { return tx.CustomerType })

	var start, end time.Time
	ranged := sel.DateRange != nil
	if ranged {
		start = day(sel.DateRange.Start)
		end = day(sel.DateRange.End)
	}

	return func(tx models.Transaction) bool {
		for _, c := range checks {
			if _, ok := c.set[mode.Key(c.field(tx))]; !ok {
				return false
			}
		}
		if ranged {
			d := day(tx.SaleDate)
			if d.Before(start) || d.After(end) {
				return false
			}
		}
		return true
	}
}

// Apply returns the rows of base matching p as a new view. base is not
// modified and row order is preserved.
func Apply(base *dataset.Table, p Predicate) *dataset.Table {
	return base.Select(p)
}

// Filter is BuildPredicate followed by Apply.
func Filter(base *dataset.Table, sel Selections, mode MatchMode) *dataset.Table {
	return Apply(base, BuildPredicate(sel, base.Schema(), mode))
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
