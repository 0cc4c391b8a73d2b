package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one point-of-sale line item. The last four fields are
// derived from SaleDate and SaleTime when the base table is enriched.
type Transaction struct {
	OrderID         string          `json:"order_id"`
	Branch          string          `json:"branch"`
	City            string          `json:"city,omitempty"`
	CustomerType    string          `json:"customer_type"`
	Gender          string          `json:"gender"`
	ProductCategory string          `json:"product_category"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	SaleDate        time.Time       `json:"sale_date"`
	SaleTime        string          `json:"sale_time"`
	Rating          float64         `json:"rating"`

	MonthNumber int    `json:"month_number"`
	MonthName   string `json:"month_name"`
	WeekdayName string `json:"weekday_name"`
	HourOfDay   int    `json:"hour_of_day"`
}

// Mean is an average that is NaN when there was nothing to average.
// It encodes as JSON null in that case.
type Mean float64

func (m Mean) Valid() bool {
	return !math.IsNaN(float64(m))
}

func (m Mean) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

func (m *Mean) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Mean(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = Mean(f)
	return nil
}

type KPIs struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalOrders    int             `json:"total_orders"`
	AvgRating      Mean            `json:"avg_rating"`
	AvgTransaction Mean            `json:"avg_transaction"`
}

type BranchSales struct {
	Branch     string          `json:"branch"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type CategorySales struct {
	ProductCategory string          `json:"product_category"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	Quantity        int             `json:"quantity"`
	AvgRating       Mean            `json:"avg_rating"`
}

// CategoryPoint is a single row's price and rating, kept unaggregated for
// distribution charts (box plot, histogram) colored by category.
type CategoryPoint struct {
	ProductCategory string          `json:"product_category"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Rating          float64         `json:"rating"`
}

type DailySales struct {
	Date       string          `json:"date"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type MonthlySales struct {
	Month      string          `json:"month"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type WeekdaySales struct {
	Weekday    string          `json:"weekday"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type HourlySales struct {
	Hour       int             `json:"hour"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type CustomerTypeSales struct {
	CustomerType string          `json:"customer_type"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	Orders       int             `json:"orders"`
	AvgRating    Mean            `json:"avg_rating"`
}

type GenderSales struct {
	Gender     string          `json:"gender"`
	TotalSales decimal.Decimal `json:"total_sales"`
	Orders     int             `json:"orders"`
}
