// 包 population：按 (日期, 行政区) 索引的人口时间序列及其切片操作
package population

import (
	"sort"
	"time"
)

// Row：一条观测；Date 为时间索引，District 为与边界要素关联的行政区标识
type Row struct {
	Date       time.Time
	District   string
	Population float64
}

// Table：加载后只读的人口表
// 约束：rows 按 Date 升序稳定排序，同日期保持输入顺序；构造后不再修改
type Table struct {
	rows []Row
}

// NewTable：复制输入并按时间稳定排序
func NewTable(rows []Row) *Table {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Date.Before(cp[j].Date) })
	return &Table{rows: cp}
}

func (t *Table) Len() int { return len(t.rows) }

// Rows：返回副本，调用方修改不影响表
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// SliceForMap：选取时间索引落在 month 内的所有行，保持表内顺序
// 无匹配时返回空切片而非错误
func (t *Table) SliceForMap(month Month) []Row {
	out := []Row{}
	for _, r := range t.rows {
		if month.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// SliceForDistrict：选取单个行政区在 from 月份起（含）的所有行，按时间升序
// 未知行政区返回空切片
func (t *Table) SliceForDistrict(district string, from Month) []Row {
	start := from.Start()
	// rows 已有序，二分跳过 from 之前的部分
	i := sort.Search(len(t.rows), func(i int) bool { return !t.rows[i].Date.Before(start) })
	out := []Row{}
	for _, r := range t.rows[i:] {
		if r.District == district {
			out = append(out, r)
		}
	}
	return out
}

// Months：表中出现过的月份，升序去重
func (t *Table) Months() []Month {
	var out []Month
	for _, r := range t.rows {
		m := MonthOf(r.Date)
		if len(out) == 0 || out[len(out)-1] != m {
			out = append(out, m)
		}
	}
	return out
}

// Districts：出现过的行政区标识，按字典序
func (t *Table) Districts() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		if _, ok := seen[r.District]; ok {
			continue
		}
		seen[r.District] = struct{}{}
		out = append(out, r.District)
	}
	sort.Strings(out)
	return out
}

// Values：把切片结果转为按行政区的取值映射；同一行政区多行时后者覆盖
func Values(rows []Row) map[string]float64 {
	m := make(map[string]float64, len(rows))
	for _, r := range rows {
		m[r.District] = r.Population
	}
	return m
}
