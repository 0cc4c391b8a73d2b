package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.943 generate

import (
	"github.com/a-h/templ"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

// PageData is what the first render of the dashboard needs. Charts are
// filled in by the first SSE refresh.
type PageData struct {
	Title       string
	Domains     dataset.Domains
	HasCity     bool
	Info        dataset.LoadInfo
	KPIs        models.KPIs
	Rows        []models.Transaction
	TotalRows   int
	ExportURL   string
	ErrorDetail string
}

// Signals is the client-side filter state, defaulting to every option
// selected and the full date range.
type Signals struct {
	Cities        []string `json:"cities"`
	Branches      []string `json:"branches"`
	Categories    []string `json:"categories"`
	CustomerTypes []string `json:"customerTypes"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	ExportURL     string   `json:"exportUrl"`
	Tab           string   `json:"tab"`
	Charts        any      `json:"charts"`
}

func initialSignals(d PageData) Signals {
	s := Signals{
		Branches:      d.Domains.Branches,
		Categories:    d.Domains.ProductCategories,
		CustomerTypes: d.Domains.CustomerTypes,
		ExportURL:     d.ExportURL,
		Tab:           "overview",
	}
	if d.HasCity {
		s.Cities = d.Domains.Cities
	}
	if !d.Domains.MinDate.IsZero() {
		s.StartDate = d.Domains.MinDate.Format("2006-01-02")
		s.EndDate = d.Domains.MaxDate.Format("2006-01-02")
	}
	return s
}

var tabs = []struct{ id, label string }{
	{"overview", "销售概览"},
	{"products", "产品分析"},
	{"customers", "客户分析"},
	{"time", "时间分析"},
	{"details", "详细数据"},
}

// noticeFor picks what the notice slot shows on first render.
func noticeFor(d PageData) (kind, message string) {
	switch {
	case d.ErrorDetail != "":
		return "error", d.ErrorDetail
	case d.Info.Fallback:
		return "warning", d.Info.Notice
	default:
		return "", ""
	}
}

func dateBounds(d dataset.Domains) (lo, hi string) {
	if d.MinDate.IsZero() {
		return "", ""
	}
	return d.MinDate.Format("2006-01-02"), d.MaxDate.Format("2006-01-02")
}

func bindAttr(signal string) templ.Attributes {
	return templ.Attributes{"data-bind-" + signal: true}
}

func selectTab(id string) string {
	return "$tab = '" + id + "'"
}

func tabActive(id string) string {
	return "$tab == '" + id + "'"
}

func inlineStyle() templ.Component {
	return templ.Raw("<style>" + pageStyle + "</style>")
}

func inlineScript() templ.Component {
	return templ.Raw("<script>" + chartsScript + "</script>")
}

const pageStyle = `
body{display:flex;margin:0;font-family:system-ui,sans-serif;background:#fff}
.sidebar{width:280px;padding:1rem;background:#f7f8fa;min-height:100vh}
.sidebar fieldset{border:none;margin:0 0 1rem;padding:0}
.sidebar label{display:block}
main{flex:1;padding:1rem 2rem}
.main-header{font-size:2.5rem;color:#1f77b4;text-align:center;margin-bottom:2rem}
.kpi-row{display:grid;grid-template-columns:repeat(4,1fr);gap:1rem}
.metric-card{background:#f0f2f6;padding:1rem;border-radius:10px;margin:.5rem 0}
.metric-value{font-size:1.6rem;font-weight:600}
.tabs button{border:none;background:none;padding:.5rem 1rem;cursor:pointer}
.tabs button.active{border-bottom:2px solid #1f77b4}
.grid{display:grid;grid-template-columns:1fr 1fr;gap:1rem}
.notice{padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
.notice-warning{background:#fff4e5}
.notice-error{background:#fdecea}
.modern-table{width:100%;border-collapse:collapse}
.modern-table td,.modern-table th{padding:.25rem .5rem;border-bottom:1px solid #eee}
`

const chartsScript = `
window.__charts = {};
function draw(id, config) {
  const el = document.getElementById(id);
  if (!el) return;
  if (window.__charts[id]) window.__charts[id].destroy();
  window.__charts[id] = new Chart(el, config);
}
function num(v) { return v === null ? null : Number(v); }
function histogram(values, bins) {
  if (!values.length) return {labels: [], counts: []};
  const lo = Math.min(...values), hi = Math.max(...values);
  const width = (hi - lo) / bins || 1;
  const counts = new Array(bins).fill(0);
  values.forEach(v => counts[Math.min(bins - 1, Math.floor((v - lo) / width))]++);
  return {labels: counts.map((_, i) => (lo + i * width).toFixed(0)), counts};
}
window.renderCharts = function (c) {
  if (!c) return;
  draw('chart-branches', {type: 'bar', data: {labels: c.branches.map(r => r.branch),
    datasets: [{label: '销售额（元）', data: c.branches.map(r => num(r.total_sales))}]}});
  draw('chart-category-share', {type: 'pie', data: {labels: c.categories.map(r => r.product_category),
    datasets: [{data: c.categories.map(r => num(r.total_sales))}]}});
  draw('chart-daily', {type: 'line', data: {labels: c.daily.map(r => r.date),
    datasets: [{label: '销售额（元）', data: c.daily.map(r => num(r.total_sales))}]}});
  draw('chart-categories', {type: 'bar', data: {labels: c.categories.map(r => r.product_category),
    datasets: [{label: '销售额（元）', data: c.categories.map(r => num(r.total_sales))}]}});
  draw('chart-category-rating', {type: 'scatter', data: {datasets: c.categories.map(cat => ({
    label: cat.product_category,
    data: c.category_distribution.filter(p => p.product_category === cat.product_category)
      .map(p => ({x: cat.product_category, y: p.rating}))}))},
    options: {scales: {x: {type: 'category', labels: c.categories.map(r => r.product_category)}}}});
  const hist = histogram(c.category_distribution.map(p => num(p.unit_price)), 20);
  draw('chart-unit-price', {type: 'bar', data: {labels: hist.labels,
    datasets: [{label: '单价（元）', data: hist.counts}]}});
  draw('chart-customer-types', {type: 'bar', data: {labels: c.customer_types.map(r => r.customer_type),
    datasets: [{label: '销售额（元）', data: c.customer_types.map(r => num(r.total_sales))}]}});
  draw('chart-genders', {type: 'pie', data: {labels: c.genders.map(r => r.gender),
    datasets: [{data: c.genders.map(r => num(r.total_sales))}]}});
  draw('chart-monthly', {type: 'line', data: {labels: c.monthly.map(r => r.month),
    datasets: [{label: '销售额（元）', data: c.monthly.map(r => num(r.total_sales))}]}});
  draw('chart-hourly', {type: 'bar', data: {labels: c.hourly.map(r => r.hour),
    datasets: [{label: '销售额（元）', data: c.hourly.map(r => num(r.total_sales))}]}});
  draw('chart-weekdays', {type: 'bar', data: {labels: c.weekdays.map(r => r.weekday),
    datasets: [{label: '销售额（元）', data: c.weekdays.map(r => num(r.total_sales))}]}});
};
`
