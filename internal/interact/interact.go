// 包 interact：地图点击 → 柱状图联动规则
package interact

import (
	"fmt"

	"district-dash/internal/chart"
	"district-dash/internal/population"
)

// DefaultDistrict：尚无点击时使用的行政区
const DefaultDistrict = "109"

// Point：点击负载中的单个点；Location 为被点击区域的标识
type Point struct {
	Location string  `json:"location"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
}

// ClickEvent：地图点击负载 {points:[{location:...}]}
type ClickEvent struct {
	Points []Point `json:"points"`
}

// Selection：两态选择（NoSelection / Selected(d)），零值为 NoSelection
type Selection struct {
	district string
}

func NoSelection() Selection { return Selection{} }

func Selected(d string) Selection { return Selection{district: d} }

// Resolve：由点击事件得到选择；nil 事件或 points[0].location 为空时为 NoSelection
func Resolve(ev *ClickEvent) Selection {
	if ev == nil || len(ev.Points) == 0 || ev.Points[0].Location == "" {
		return NoSelection()
	}
	return Selected(ev.Points[0].Location)
}

func (s Selection) IsSelected() bool { return s.district != "" }

// District：NoSelection 按默认行政区处理
func (s Selection) District(def string) string {
	if s.district == "" {
		return def
	}
	return s.district
}

// Rule：点击规则；持有只读人口表，每次调用生成新的图表描述
type Rule struct {
	table           *population.Table
	defaultDistrict string
	from            population.Month
	bar             chart.BarOptions
}

func NewRule(table *population.Table, defaultDistrict string, from population.Month, bar chart.BarOptions) *Rule {
	if defaultDistrict == "" {
		defaultDistrict = DefaultDistrict
	}
	return &Rule{table: table, defaultDistrict: defaultDistrict, from: from, bar: bar}
}

func (r *Rule) DefaultDistrict() string { return r.defaultDistrict }

// OnMapClick：解析点击得到行政区，返回该区自 from 起的柱状图与标题
// 未知行政区得到空柱状图
func (r *Rule) OnMapClick(ev *ClickEvent) (chart.Spec, string) {
	d := Resolve(ev).District(r.defaultDistrict)
	rows := r.table.SliceForDistrict(d, r.from)
	return chart.BuildBar(chart.SeriesFromDistrict(rows), r.bar), Heading(d)
}

// Heading：柱状图上方的标题文本
func Heading(district string) string {
	return fmt.Sprintf("Population in community district %s", district)
}
