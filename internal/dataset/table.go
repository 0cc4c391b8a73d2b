package dataset

import (
	"iter"
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

// Column names a record attribute. The order of Columns is the export order.
type Column string

const (
	ColOrderID         Column = "order_id"
	ColBranch          Column = "branch"
	ColCity            Column = "city"
	ColCustomerType    Column = "customer_type"
	ColGender          Column = "gender"
	ColProductCategory Column = "product_category"
	ColUnitPrice       Column = "unit_price"
	ColQuantity        Column = "quantity"
	ColTotalPrice      Column = "total_price"
	ColSaleDate        Column = "sale_date"
	ColSaleTime        Column = "sale_time"
	ColRating          Column = "rating"
)

var Columns = []Column{
	ColOrderID,
	ColBranch,
	ColCity,
	ColCustomerType,
	ColGender,
	ColProductCategory,
	ColUnitPrice,
	ColQuantity,
	ColTotalPrice,
	ColSaleDate,
	ColSaleTime,
	ColRating,
}

// Display orders for the two temporal dimensions whose order is fixed by the
// calendar rather than discovered from data.
var (
	MonthOrder = [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	WeekdayOrder = [7]string{
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
	}
)

// Schema records which optional columns a source provided.
type Schema struct {
	HasCity bool
}

// Domains holds the distinct values of every categorical dimension in
// first-appearance order, plus the date bounds of the table.
type Domains struct {
	Cities            []string  `json:"cities"`
	Branches          []string  `json:"branches"`
	ProductCategories []string  `json:"product_categories"`
	CustomerTypes     []string  `json:"customer_types"`
	Genders           []string  `json:"genders"`
	MinDate           time.Time `json:"min_date"`
	MaxDate           time.Time `json:"max_date"`
}

func (d Domains) clone() Domains {
	d.Cities = slices.Clone(d.Cities)
	d.Branches = slices.Clone(d.Branches)
	d.ProductCategories = slices.Clone(d.ProductCategories)
	d.CustomerTypes = slices.Clone(d.CustomerTypes)
	d.Genders = slices.Clone(d.Genders)
	return d
}

// Table is an immutable set of enriched transactions. Views produced by
// Select share the schema and domains of the table they were cut from.
type Table struct {
	rows    []models.Transaction
	schema  Schema
	domains Domains
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Schema() Schema {
	return t.schema
}

// Domains returns a copy; callers may modify it freely.
func (t *Table) Domains() Domains {
	return t.domains.clone()
}

func (t *Table) Row(i int) models.Transaction {
	return t.rows[i]
}

// Rows returns a copy of the rows in table order.
func (t *Table) Rows() []models.Transaction {
	return slices.Clone(t.rows)
}

// Head returns a copy of at most the first n rows.
func (t *Table) Head(n int) []models.Transaction {
	return slices.Clone(t.rows[:min(n, len(t.rows))])
}

// All yields copies of the rows in table order.
func (t *Table) All() iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		for _, tx := range t.rows {
			if !yield(tx) {
				return
			}
		}
	}
}

// Select returns a new view holding the rows for which keep is true, in
// their original order.
func (t *Table) Select(keep func(models.Transaction) bool) *Table {
	rows := make([]models.Transaction, 0, len(t.rows))
	for _, tx := range t.rows {
		if keep(tx) {
			rows = append(rows, tx)
		}
	}
	return &Table{rows: rows, schema: t.schema, domains: t.domains}
}

func discoverDomains(rows []models.Transaction) Domains {
	var d Domains
	seen := map[Column]map[string]struct{}{
		ColCity:            {},
		ColBranch:          {},
		ColProductCategory: {},
		ColCustomerType:    {},
		ColGender:          {},
	}
	add := func(col Column, dst *[]string, v string) {
		if _, ok := seen[col][v]; ok {
			return
		}
		seen[col][v] = struct{}{}
		*dst = append(*dst, v)
	}

	for i, tx := range rows {
		add(ColCity, &d.Cities, tx.City)
		add(ColBranch, &d.Branches, tx.Branch)
		add(ColProductCategory, &d.ProductCategories, tx.ProductCategory)
		add(ColCustomerType, &d.CustomerTypes, tx.CustomerType)
		add(ColGender, &d.Genders, tx.Gender)

		if i == 0 || tx.SaleDate.Before(d.MinDate) {
			d.MinDate = tx.SaleDate
		}
		if i == 0 || tx.SaleDate.After(d.MaxDate) {
			d.MaxDate = tx.SaleDate
		}
	}
	return d
}
