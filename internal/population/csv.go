package population

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Columns：CSV 列名映射
type Columns struct {
	Date     string
	District string
	Value    string
}

// DefaultColumns：与社区区边界的 boro_cd 字段对齐
var DefaultColumns = Columns{Date: "date", District: "boro_cd", Value: "population"}

var ErrMissingColumn = errors.New("missing column")

var dateLayouts = []string{"2006-01-02", "2006-01", time.RFC3339}

// ReadCSV：读取带表头的人口表
// 约束：列名大小写不敏感；空值行跳过；日期/数值解析失败返回带行号的错误
func ReadCSV(r io.Reader, cols Columns) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	find := func(name string) (int, error) {
		i, ok := idx[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		return i, nil
	}
	di, err := find(cols.Date)
	if err != nil {
		return nil, err
	}
	ki, err := find(cols.District)
	if err != nil {
		return nil, err
	}
	vi, err := find(cols.Value)
	if err != nil {
		return nil, err
	}
	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds, ks, vs := strings.TrimSpace(rec[di]), strings.TrimSpace(rec[ki]), strings.TrimSpace(rec[vi])
		if ds == "" || ks == "" || vs == "" {
			continue
		}
		d, err := ParseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad value %q", line, vs)
		}
		rows = append(rows, Row{Date: d, District: ks, Population: v})
	}
	return NewTable(rows), nil
}

// ParseDate：接受 YYYY-MM-DD、YYYY-MM 与 RFC3339
// 约束：保留源文本中的日历日期（带时区偏移的时间不换算到 UTC），结果为该日 UTC 零点
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

// Random：为每个行政区生成 [0,1) 的均匀随机值，日期统一为 month 首日（演示模式）
func Random(districts []string, month Month, rnd *rand.Rand) *Table {
	rows := make([]Row, 0, len(districts))
	for _, d := range districts {
		rows = append(rows, Row{Date: month.Start(), District: d, Population: rnd.Float64()})
	}
	return NewTable(rows)
}
