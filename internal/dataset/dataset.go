// 包 dataset：启动期数据加载（边界集合 + 人口表），失败时返回带路径的 SourceError，由入口决定是否退出
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"district-dash/internal/boundary"
	"district-dash/internal/logger"
	"district-dash/internal/population"
)

// ErrSourceUnavailable：唯一的错误类别，数据源缺失、不可读或内容不可用
var ErrSourceUnavailable = errors.New("data source unavailable")

// SourceError：携带出错的数据源路径（文件路径、DSN 描述或 redis 键）
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("data source %q unavailable: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Err} }

func sourceErr(path string, err error) error { return &SourceError{Path: path, Err: err} }

// Dataset：边界集合与人口表；加载后只读
type Dataset struct {
	Regions *boundary.Collection
	Table   *population.Table
	BuiltAt time.Time
}

// LoadBoundaries：读取并解析 GeoJSON 边界文件
func LoadBoundaries(path, idField string) (*boundary.Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, sourceErr(path, err)
	}
	c, err := boundary.Parse(b, idField)
	if err != nil {
		return nil, sourceErr(path, err)
	}
	logger.L().Debug("boundary_load_ok", "path", path, "regions", c.Len())
	return c, nil
}

// LoadDemo：边界文件 + 每区一个 [0,1) 随机值（日期为 month 首日）
func LoadDemo(path, idField string, month population.Month, rnd *rand.Rand) (*Dataset, error) {
	regions, err := LoadBoundaries(path, idField)
	if err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tbl := population.Random(regions.IDs(), month, rnd)
	return &Dataset{Regions: regions, Table: tbl, BuiltAt: time.Now()}, nil
}

// LoadTable：边界文件 + 已加载的人口表
func LoadTable(path, idField string, tbl *population.Table) (*Dataset, error) {
	regions, err := LoadBoundaries(path, idField)
	if err != nil {
		return nil, err
	}
	return &Dataset{Regions: regions, Table: tbl, BuiltAt: time.Now()}, nil
}

// LoadCSV：读取人口 CSV
func LoadCSV(path string, cols population.Columns) (*population.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceErr(path, err)
	}
	defer f.Close()
	tbl, err := population.ReadCSV(f, cols)
	if err != nil {
		return nil, sourceErr(path, err)
	}
	logger.L().Debug("population_csv_ok", "path", path, "rows", tbl.Len())
	return tbl, nil
}
