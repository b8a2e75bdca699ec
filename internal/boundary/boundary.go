// 包 boundary：行政区边界集合（社区区等），从 GeoJSON FeatureCollection 构建
package boundary

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultIDField：纽约社区区数据集中的行政区编号字段
const DefaultIDField = "boro_cd"

var (
	ErrDuplicateRegion = errors.New("duplicate region id")
	ErrMissingID       = errors.New("feature without region id")
)

// Region：单个边界单元；Geometry 为 Polygon / MultiPolygon
type Region struct {
	ID       string
	Geometry orb.Geometry
	bound    orb.Bound
}

// Collection：按源文件顺序保存的区域集合，加载后只读
// 约束：ID 在集合内唯一，构造时校验
type Collection struct {
	idField string
	regions []Region
	byID    map[string]int
}

// New：由区域列表构建集合；重复 ID 返回 ErrDuplicateRegion
func New(idField string, regions []Region) (*Collection, error) {
	if idField == "" {
		idField = DefaultIDField
	}
	c := &Collection{idField: idField, regions: make([]Region, 0, len(regions)), byID: make(map[string]int, len(regions))}
	for _, r := range regions {
		if r.ID == "" {
			return nil, ErrMissingID
		}
		if _, ok := c.byID[r.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegion, r.ID)
		}
		if r.Geometry != nil {
			r.bound = r.Geometry.Bound()
		}
		c.byID[r.ID] = len(c.regions)
		c.regions = append(c.regions, r)
	}
	return c, nil
}

// Parse：解析 GeoJSON FeatureCollection，按 properties[idField] 取区域编号
// 约束：数值型编号按最短十进制表示转为字符串（109.0 -> "109"）
func Parse(data []byte, idField string) (*Collection, error) {
	if idField == "" {
		idField = DefaultIDField
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	regions := make([]Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := propString(f.Properties, idField)
		if id == "" {
			return nil, fmt.Errorf("%w: feature %d has no %q", ErrMissingID, i, idField)
		}
		regions = append(regions, Region{ID: id, Geometry: f.Geometry})
	}
	return New(idField, regions)
}

func propString(p geojson.Properties, key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func (c *Collection) IDField() string { return c.idField }

func (c *Collection) Len() int { return len(c.regions) }

// Regions：返回副本
func (c *Collection) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// IDs：按源顺序的区域编号
func (c *Collection) IDs() []string {
	out := make([]string, len(c.regions))
	for i, r := range c.regions {
		out[i] = r.ID
	}
	return out
}

func (c *Collection) Lookup(id string) (Region, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Region{}, false
	}
	return c.regions[i], true
}

// FeatureCollection：以 properties[idField] 重新输出 GeoJSON，供图表 featureidkey 关联
func (c *Collection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range c.regions {
		f := geojson.NewFeature(r.Geometry)
		f.Properties[c.idField] = r.ID
		fc.Append(f)
	}
	return fc
}
