// 包 dashboard：启动后只读的应用上下文，组合数据集、点击规则与图表参数，供 HTTP 层按引用共享
package dashboard

import (
	"district-dash/internal/chart"
	"district-dash/internal/dataset"
	"district-dash/internal/interact"
	"district-dash/internal/metrics"
	"district-dash/internal/population"
)

// Settings：视图默认值
type Settings struct {
	MapMonth        population.Month
	BarFromMonth    population.Month
	DefaultDistrict string
	Map             chart.MapOptions
	Bar             chart.BarOptions
}

// Context：构造后不再修改；并发请求只读共享
type Context struct {
	data     *dataset.Dataset
	rule     *interact.Rule
	settings Settings
}

// Response：点击接口的返回体
type Response struct {
	Figure  chart.Spec `json:"figure"`
	Heading string     `json:"heading"`
}

// Summary：数据集概况
type Summary struct {
	Regions         int      `json:"regions"`
	Rows            int      `json:"rows"`
	Months          []string `json:"months"`
	IDField         string   `json:"id_field"`
	MapMonth        string   `json:"map_month"`
	BarFromMonth    string   `json:"bar_from_month"`
	DefaultDistrict string   `json:"default_district"`
}

func New(ds *dataset.Dataset, s Settings) *Context {
	if s.DefaultDistrict == "" {
		s.DefaultDistrict = interact.DefaultDistrict
	}
	if s.Map == (chart.MapOptions{}) {
		s.Map = chart.DefaultMapOptions
	}
	if s.Bar == (chart.BarOptions{}) {
		s.Bar = chart.DefaultBarOptions
	}
	metrics.DatasetRegions.Set(float64(ds.Regions.Len()))
	metrics.DatasetRows.Set(float64(ds.Table.Len()))
	return &Context{
		data:     ds,
		rule:     interact.NewRule(ds.Table, s.DefaultDistrict, s.BarFromMonth, s.Bar),
		settings: s,
	}
}

func (c *Context) Settings() Settings { return c.settings }

// MapFigure：指定月份的 choropleth；零值月份取默认月份
func (c *Context) MapFigure(month population.Month) chart.Spec {
	if month.IsZero() {
		month = c.settings.MapMonth
	}
	rows := c.data.Table.SliceForMap(month)
	if len(rows) == 0 {
		metrics.EmptyChartsTotal.WithLabelValues("map").Inc()
	}
	return chart.BuildChoropleth(c.data.Regions, population.Values(rows), c.settings.Map)
}

// SnapshotFigure：指定月份所有行政区的柱状图；无取值的区域不出现
func (c *Context) SnapshotFigure(month population.Month) chart.Spec {
	if month.IsZero() {
		month = c.settings.MapMonth
	}
	s := chart.SeriesFromMonth(c.data.Regions.IDs(), c.data.Table.SliceForMap(month))
	if len(s.X) == 0 {
		metrics.EmptyChartsTotal.WithLabelValues("snapshot").Inc()
	}
	return chart.BuildBar(s, chart.BarOptions{XLabel: c.data.Regions.IDField(), YLabel: c.settings.Bar.YLabel})
}

// Click：执行点击规则
func (c *Context) Click(ev *interact.ClickEvent) Response {
	state := "default"
	if interact.Resolve(ev).IsSelected() {
		state = "selected"
	}
	metrics.ClicksTotal.WithLabelValues(state).Inc()
	fig, heading := c.rule.OnMapClick(ev)
	if len(fig.Data) > 0 {
		if tr, ok := fig.Data[0].(chart.BarTrace); ok && len(tr.X) == 0 {
			metrics.EmptyChartsTotal.WithLabelValues("bar").Inc()
		}
	}
	return Response{Figure: fig, Heading: heading}
}

// Locate：坐标所在的行政区标识
func (c *Context) Locate(lat, lon float64) (string, bool) {
	r, ok := c.data.Regions.Locate(lat, lon)
	if !ok {
		return "", false
	}
	return r.ID, true
}

func (c *Context) Months() []string {
	ms := c.data.Table.Months()
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}
	return out
}

func (c *Context) Summary() Summary {
	return Summary{
		Regions:         c.data.Regions.Len(),
		Rows:            c.data.Table.Len(),
		Months:          c.Months(),
		IDField:         c.data.Regions.IDField(),
		MapMonth:        c.settings.MapMonth.String(),
		BarFromMonth:    c.settings.BarFromMonth.String(),
		DefaultDistrict: c.rule.DefaultDistrict(),
	}
}
