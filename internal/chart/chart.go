// 包 chart：生成与 plotly.js 兼容的图表描述（choropleth 地图与柱状图），统一应用固定边距
package chart

import (
	"district-dash/internal/boundary"
	"district-dash/internal/population"
)

// Margin：图表外边距（像素），序列化为 plotly 的 {l,r,t,b}
type Margin struct {
	Left   int `json:"l"`
	Right  int `json:"r"`
	Top    int `json:"t"`
	Bottom int `json:"b"`
}

// DefaultMargin：两张图共用的边距约定
var DefaultMargin = Margin{Left: 0, Right: 0, Top: 0, Bottom: 5}

// Spec：单张图表的渲染描述；每次请求新建，不缓存也不原地修改
type Spec struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace：plotly trace；具体类型见 ChoroplethTrace / BarTrace
type Trace interface {
	TraceType() string
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Layout struct {
	Margin Margin  `json:"margin"`
	Mapbox *Mapbox `json:"mapbox,omitempty"`
	XAxis  *Axis   `json:"xaxis,omitempty"`
	YAxis  *Axis   `json:"yaxis,omitempty"`
}

type Mapbox struct {
	Style  string  `json:"style"`
	Zoom   float64 `json:"zoom"`
	Center LatLon  `json:"center"`
}

type Axis struct {
	Title AxisTitle `json:"title"`
}

type AxisTitle struct {
	Text string `json:"text"`
}

type ChoroplethTrace struct {
	Type          string    `json:"type"`
	GeoJSON       any       `json:"geojson"`
	Locations     []string  `json:"locations"`
	Z             []float64 `json:"z"`
	FeatureIDKey  string    `json:"featureidkey"`
	ColorScale    string    `json:"colorscale"`
	Marker        Marker    `json:"marker"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
}

func (ChoroplethTrace) TraceType() string { return "choroplethmapbox" }

type Marker struct {
	Opacity float64 `json:"opacity"`
}

type BarTrace struct {
	Type          string    `json:"type"`
	X             []string  `json:"x"`
	Y             []float64 `json:"y"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
}

func (BarTrace) TraceType() string { return "bar" }

// MapOptions：地图外观参数
type MapOptions struct {
	ColorScale string
	Style      string
	Zoom       float64
	Center     LatLon
	Opacity    float64
	ValueLabel string
}

// DefaultMapOptions：纽约市区视角
var DefaultMapOptions = MapOptions{
	ColorScale: "Viridis",
	Style:      "carto-positron",
	Zoom:       10,
	Center:     LatLon{Lat: 40.714, Lon: -74.006},
	Opacity:    0.5,
	ValueLabel: "population",
}

// BarOptions：柱状图轴标题
type BarOptions struct {
	XLabel string
	YLabel string
}

var DefaultBarOptions = BarOptions{XLabel: "date", YLabel: "population"}

// BuildChoropleth：以区域集合为底图、values 为着色值生成地图
// 约束：locations/z 按区域源顺序，仅包含 values 中存在的区域；无值时生成零要素着色的空图
func BuildChoropleth(regions *boundary.Collection, values map[string]float64, opts MapOptions) Spec {
	tr := ChoroplethTrace{
		Type:          ChoroplethTrace{}.TraceType(),
		GeoJSON:       regions.FeatureCollection(),
		Locations:     []string{},
		Z:             []float64{},
		FeatureIDKey:  "properties." + regions.IDField(),
		ColorScale:    opts.ColorScale,
		Marker:        Marker{Opacity: opts.Opacity},
		HoverTemplate: "%{location}: %{z}<extra>" + opts.ValueLabel + "</extra>",
	}
	for _, id := range regions.IDs() {
		if v, ok := values[id]; ok {
			tr.Locations = append(tr.Locations, id)
			tr.Z = append(tr.Z, v)
		}
	}
	return Spec{
		Data: []Trace{tr},
		Layout: Layout{
			Margin: DefaultMargin,
			Mapbox: &Mapbox{Style: opts.Style, Zoom: opts.Zoom, Center: opts.Center},
		},
	}
}

// Series：柱状图数据，X 为类别标签，Y 为数值
type Series struct {
	X []string
	Y []float64
}

// BuildBar：由序列生成柱状图
func BuildBar(s Series, opts BarOptions) Spec {
	tr := BarTrace{Type: BarTrace{}.TraceType(), X: []string{}, Y: []float64{}}
	tr.X = append(tr.X, s.X...)
	tr.Y = append(tr.Y, s.Y...)
	tr.HoverTemplate = opts.XLabel + "=%{x}<br>" + opts.YLabel + "=%{y}<extra></extra>"
	return Spec{
		Data: []Trace{tr},
		Layout: Layout{
			Margin: DefaultMargin,
			XAxis:  &Axis{Title: AxisTitle{Text: opts.XLabel}},
			YAxis:  &Axis{Title: AxisTitle{Text: opts.YLabel}},
		},
	}
}

// SeriesFromDistrict：单区时间序列，X 为日期（YYYY-MM-DD）
func SeriesFromDistrict(rows []population.Row) Series {
	s := Series{X: make([]string, 0, len(rows)), Y: make([]float64, 0, len(rows))}
	for _, r := range rows {
		s.X = append(s.X, r.Date.Format("2006-01-02"))
		s.Y = append(s.Y, r.Population)
	}
	return s
}

// SeriesFromMonth：单月截面，X 为行政区标识，按 order 给定的顺序排列
// 约束：order 中没有取值的区域不出现；rows 中不在 order 内的区域被忽略
func SeriesFromMonth(order []string, rows []population.Row) Series {
	values := population.Values(rows)
	s := Series{X: []string{}, Y: []float64{}}
	for _, id := range order {
		if v, ok := values[id]; ok {
			s.X = append(s.X, id)
			s.Y = append(s.Y, v)
		}
	}
	return s
}
