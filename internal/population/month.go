package population

import (
	"fmt"
	"time"
)

// Month：日历月键（如 2020-09），用于按月前缀选取时间序列
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth：解析 YYYY-MM；同时接受带日的 YYYY-MM-DD（仅取年月）
func ParseMonth(s string) (Month, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("bad month %q: want YYYY-MM", s)
}

// MustMonth：仅用于常量与测试
func MustMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Start：该月第一天零点（UTC）
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
