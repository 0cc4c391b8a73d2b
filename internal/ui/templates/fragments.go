package templates

import (
	"strconv"

	"sales-dashboard/internal/models"
)

// MaxTableRows caps the detail table; the export carries every row.
const MaxTableRows = 200

var detailHeadings = []string{"订单号", "分店", "城市", "顾客类型", "性别", "产品类型", "单价", "数量", "总价", "日期", "时间", "评分"}

func visibleRows(rows []models.Transaction) []models.Transaction {
	return rows[:min(len(rows), MaxTableRows)]
}

func detailCells(tx models.Transaction) []string {
	return []string{
		tx.OrderID,
		tx.Branch,
		tx.City,
		tx.CustomerType,
		tx.Gender,
		tx.ProductCategory,
		tx.UnitPrice.StringFixed(2),
		strconv.Itoa(tx.Quantity),
		tx.TotalPrice.StringFixed(2),
		tx.SaleDate.Format("2006-01-02"),
		tx.SaleTime,
		strconv.FormatFloat(tx.Rating, 'f', 1, 64),
	}
}
