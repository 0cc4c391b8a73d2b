package services

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

// Dashboard is every recipe evaluated over one filtered view.
type Dashboard struct {
	KPIs                 models.KPIs                `json:"kpis"`
	Branches             []models.BranchSales       `json:"branches"`
	Categories           []models.CategorySales     `json:"categories"`
	CategoryDistribution []models.CategoryPoint     `json:"category_distribution"`
	Daily                []models.DailySales        `json:"daily"`
	Monthly              []models.MonthlySales      `json:"monthly"`
	Weekdays             []models.WeekdaySales      `json:"weekdays"`
	Hourly               []models.HourlySales       `json:"hourly"`
	CustomerTypes        []models.CustomerTypeSales `json:"customer_types"`
	Genders              []models.GenderSales       `json:"genders"`
	Rows                 int                        `json:"rows"`
}

// Catalog holds the fixed aggregation recipes. Every recipe is a pure
// function of the view it is given.
type Catalog struct {
	mode MatchMode
}

func NewCatalog(mode MatchMode) *Catalog {
	if mode == "" {
		mode = MatchExact
	}
	return &Catalog{mode: mode}
}

type group struct {
	label     string
	total     decimal.Decimal
	quantity  int
	count     int
	ratingSum float64
}

func (g *group) add(tx models.Transaction) {
	g.total = g.total.Add(tx.TotalPrice)
	g.quantity += tx.Quantity
	g.count++
	g.ratingSum += tx.Rating
}

func mean(sum float64, n int) models.Mean {
	if n == 0 {
		return models.Mean(math.NaN())
	}
	return models.Mean(sum / float64(n))
}

// groupBy buckets the view by a categorical field and returns the groups
// ordered by label. The label of a group is the first value seen for its key.
func (c *Catalog) groupBy(view *dataset.Table, field func(models.Transaction) string) []*group {
	groups := make(map[string]*group)
	for tx := range view.All() {
		v := field(tx)
		key := c.mode.Key(v)
		g := groups[key]
		if g == nil {
			g = &group{label: v}
			groups[key] = g
		}
		g.add(tx)
	}

	result := make([]*group, 0, len(groups))
	for _, g := range groups {
		result = append(result, g)
	}
	slices.SortFunc(result, func(a, b *group) int {
		return cmp.Compare(a.label, b.label)
	})
	return result
}

func (c *Catalog) KPIs(view *dataset.Table) models.KPIs {
	var all group
	for tx := range view.All() {
		all.add(tx)
	}

	kpis := models.KPIs{
		TotalSales:     all.total,
		TotalOrders:    all.count,
		AvgRating:      mean(all.ratingSum, all.count),
		AvgTransaction: models.Mean(math.NaN()),
	}
	if all.count > 0 {
		kpis.AvgTransaction = models.Mean(all.total.Div(decimal.NewFromInt(int64(all.count))).InexactFloat64())
	}
	return kpis
}

func (c *Catalog) ByBranch(view *dataset.Table) []models.BranchSales {
	groups := c.groupBy(view, func(tx models.Transaction) string { return tx.Branch })
	result := make([]models.BranchSales, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.BranchSales{Branch: g.label, TotalSales: g.total})
	}
	return result
}

func (c *Catalog) ByCategory(view *dataset.Table) []models.CategorySales {
	groups := c.groupBy(view, func(tx models.Transaction) string { return tx.ProductCategory })
	result := make([]models.CategorySales, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.CategorySales{
			ProductCategory: g.label,
			TotalSales:      g.total,
			Quantity:        g.quantity,
			AvgRating:       mean(g.ratingSum, g.count),
		})
	}
	return result
}

// CategoryDistribution passes every row's unit price and rating through
// unaggregated, tagged with its category, in view order.
func (c *Catalog) CategoryDistribution(view *dataset.Table) []models.CategoryPoint {
	result := make([]models.CategoryPoint, 0, view.Len())
	for tx := range view.All() {
		result = append(result, models.CategoryPoint{
			ProductCategory: tx.ProductCategory,
			UnitPrice:       tx.UnitPrice,
			Rating:          tx.Rating,
		})
	}
	return result
}

func (c *Catalog) ByDate(view *dataset.Table) []models.DailySales {
	totals := make(map[time.Time]decimal.Decimal)
	for tx := range view.All() {
		totals[tx.SaleDate] = totals[tx.SaleDate].Add(tx.TotalPrice)
	}

	days := make([]time.Time, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	result := make([]models.DailySales, 0, len(days))
	for _, d := range days {
		result = append(result, models.DailySales{Date: d.Format(dateLayout), TotalSales: totals[d]})
	}
	return result
}

// ByMonth sums sales per month name in calendar order. Months without
// rows are left out rather than reported as zero.
func (c *Catalog) ByMonth(view *dataset.Table) []models.MonthlySales {
	totals := sumByName(view, func(tx models.Transaction) string { return tx.MonthName })
	result := make([]models.MonthlySales, 0, len(totals))
	for _, name := range dataset.MonthOrder {
		if total, ok := totals[name]; ok {
			result = append(result, models.MonthlySales{Month: name, TotalSales: total})
		}
	}
	return result
}

// ByWeekday sums sales per weekday name from Monday to Sunday, leaving out
// absent days.
func (c *Catalog) ByWeekday(view *dataset.Table) []models.WeekdaySales {
	totals := sumByName(view, func(tx models.Transaction) string { return tx.WeekdayName })
	result := make([]models.WeekdaySales, 0, len(totals))
	for _, name := range dataset.WeekdayOrder {
		if total, ok := totals[name]; ok {
			result = append(result, models.WeekdaySales{Weekday: name, TotalSales: total})
		}
	}
	return result
}

func sumByName(view *dataset.Table, field func(models.Transaction) string) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for tx := range view.All() {
		name := field(tx)
		totals[name] = totals[name].Add(tx.TotalPrice)
	}
	return totals
}

func (c *Catalog) ByHour(view *dataset.Table) []models.HourlySales {
	totals := make(map[int]decimal.Decimal)
	for tx := range view.All() {
		totals[tx.HourOfDay] = totals[tx.HourOfDay].Add(tx.TotalPrice)
	}

	result := make([]models.HourlySales, 0, len(totals))
	for hour, total := range totals {
		result = append(result, models.HourlySales{Hour: hour, TotalSales: total})
	}
	slices.SortFunc(result, func(a, b models.HourlySales) int {
		return cmp.Compare(a.Hour, b.Hour)
	})
	return result
}

func (c *Catalog) ByCustomerType(view *dataset.Table) []models.CustomerTypeSales {
	groups := c.groupBy(view, func(tx models.Transaction) string { return tx.CustomerType })
	result := make([]models.CustomerTypeSales, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.CustomerTypeSales{
			CustomerType: g.label,
			TotalSales:   g.total,
			Orders:       g.count,
			AvgRating:    mean(g.ratingSum, g.count),
		})
	}
	return result
}

func (c *Catalog) ByGender(view *dataset.Table) []models.GenderSales {
	groups := c.groupBy(view, func(tx models.Transaction) string { return tx.Gender })
	result := make([]models.GenderSales, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.GenderSales{Gender: g.label, TotalSales: g.total, Orders: g.count})
	}
	return result
}

// Snapshot evaluates every recipe over view. The view is immutable, so the
// recipes run concurrently.
func (c *Catalog) Snapshot(ctx context.Context, view *dataset.Table) (*Dashboard, error) {
	d := &Dashboard{Rows: view.Len()}
	g, ctx := errgroup.WithContext(ctx)
	run := func(recipe func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recipe()
			return nil
		})
	}

	run(func() { d.KPIs = c.KPIs(view) })
	run(func() { d.Branches = c.ByBranch(view) })
	run(func() { d.Categories = c.ByCategory(view) })
	run(func() { d.CategoryDistribution = c.CategoryDistribution(view) })
	run(func() { d.Daily = c.ByDate(view) })
	run(func() { d.Monthly = c.ByMonth(view) })
	run(func() { d.Weekdays = c.ByWeekday(view) })
	run(func() { d.Hourly = c.ByHour(view) })
	run(func() { d.CustomerTypes = c.ByCustomerType(view) })
	run(func() { d.Genders = c.ByGender(view) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
