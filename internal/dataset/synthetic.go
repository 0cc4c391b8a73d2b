package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const DefaultSyntheticRows = 300

var (
	syntheticEpoch      = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	syntheticBranches   = []string{"1号店", "2号店", "3号店"}
	syntheticCities     = []string{"太原", "临汾", "大同"}
	syntheticCustomers  = []string{"会员用户", "普通用户"}
	syntheticGenders    = []string{"男性", "女性"}
	syntheticCategories = []string{"健康美容", "电子配件", "食品饮料", "时尚配饰", "家居生活", "运动旅行"}
)

// Synthesize builds n sample transactions with the same columns and value
// domains as the real workbook: one row per day from 2022-01-01, uniform
// choices over the categorical domains and bounded random measures.
// A zero seed draws one from the clock.
func Synthesize(n int, seed uint64) []models.Transaction {
	if n <= 0 {
		n = DefaultSyntheticRows
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	pick := func(values []string) string {
		return values[r.IntN(len(values))]
	}
	uniform := func(lo, hi float64) float64 {
		return lo + r.Float64()*(hi-lo)
	}

	rows := make([]models.Transaction, n)
	for i := range rows {
		rows[i] = models.Transaction{
			OrderID:         fmt.Sprintf("1123-19-%d", 1176+i),
			Branch:          pick(syntheticBranches),
			City:            pick(syntheticCities),
			CustomerType:    pick(syntheticCustomers),
			Gender:          pick(syntheticGenders),
			ProductCategory: pick(syntheticCategories),
			UnitPrice:       decimal.NewFromFloat(uniform(10, 100)).Round(2),
			Quantity:        1 + r.IntN(9),
			TotalPrice:      decimal.NewFromFloat(uniform(30, 1000)).Round(2),
			SaleDate:        syntheticEpoch.AddDate(0, 0, i),
			SaleTime:        fmt.Sprintf("%d:%02d", 9+r.IntN(12), r.IntN(60)),
			Rating:          math.Round(uniform(4, 10)*10) / 10,
		}
	}
	return rows
}
