package boundary

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Locate：返回包含坐标点的区域（包围盒过滤 → 点入多边形判定）
// 约束：坐标为 WGS84 经纬度；多个区域重叠时按源顺序取第一个
func (c *Collection) Locate(lat, lon float64) (Region, bool) {
	pt := orb.Point{lon, lat}
	for _, r := range c.regions {
		if r.Geometry == nil || !r.bound.Contains(pt) {
			continue
		}
		if contains(r.Geometry, pt) {
			return r, true
		}
	}
	return Region{}, false
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch v := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(v, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(v, pt)
	case orb.Collection:
		for _, sub := range v {
			if contains(sub, pt) {
				return true
			}
		}
	}
	return false
}
