// 包 migrate：首次运行时创建人口表（Postgres 与 SQLite 通用语法）
package migrate

import (
	"database/sql"

	"district-dash/internal/logger"
)

// EnsureSchema：幂等建表
// 约束：仅使用 IF NOT EXISTS；(day, district) 为主键，重复导入按覆盖处理
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _district_population (
            day DATE NOT NULL,
            district TEXT NOT NULL,
            population DOUBLE PRECISION NOT NULL,
            PRIMARY KEY (day, district)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_district_population_district ON _district_population(district, day)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
