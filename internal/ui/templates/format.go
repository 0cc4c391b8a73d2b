package templates

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sales-dashboard/internal/models"
)

// Placeholder stands in for a value that is undefined, such as the average
// of an empty view.
const Placeholder = "—"

var printer = message.NewPrinter(language.SimplifiedChinese)

func FormatCurrency(d decimal.Decimal) string {
	return printer.Sprintf("¥%.2f", d.InexactFloat64())
}

func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func FormatMeanCurrency(m models.Mean) string {
	if !m.Valid() {
		return Placeholder
	}
	return printer.Sprintf("¥%.2f", float64(m))
}

func FormatRating(m models.Mean) string {
	if !m.Valid() {
		return Placeholder
	}
	return printer.Sprintf("%.1f☆", float64(m))
}

type KPICard struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// KPICards renders the KPI row values in display order.
func KPICards(k models.KPIs) []KPICard {
	return []KPICard{
		{ID: "total-sales", Label: "总销售额", Value: FormatCurrency(k.TotalSales)},
		{ID: "total-orders", Label: "总订单数", Value: FormatCount(k.TotalOrders)},
		{ID: "avg-rating", Label: "平均评分", Value: FormatRating(k.AvgRating)},
		{ID: "avg-transaction", Label: "平均客单价", Value: FormatMeanCurrency(k.AvgTransaction)},
	}
}
