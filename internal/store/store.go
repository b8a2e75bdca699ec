// 包 store：人口表的数据库读写（Postgres 或 SQLite），供 table 模式启动加载与离线导入
package store

import (
	"context"
	"database/sql"
	"time"

	"district-dash/internal/logger"
	"district-dash/internal/population"
)

// Store：持有连接并提供人口表读写
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

// LoadTable：一次性读取全部人口行
func (s *Store) LoadTable(ctx context.Context) (*population.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day, district, population FROM _district_population ORDER BY day, district`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []population.Row
	for rows.Next() {
		var r population.Row
		if err := rows.Scan(&r.Date, &r.District, &r.Population); err != nil {
			return nil, err
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("store_load_done", "rows", len(out))
	return population.NewTable(out), nil
}

// ImportTable：单事务写入；同 (day, district) 覆盖旧值
func (s *Store) ImportTable(ctx context.Context, tbl *population.Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO _district_population(day, district, population) VALUES($1, $2, $3)
        ON CONFLICT (day, district) DO UPDATE SET population=EXCLUDED.population`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	n := 0
	for _, r := range tbl.Rows() {
		day := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
		if _, err := stmt.ExecContext(ctx, day, r.District, r.Population); err != nil {
			return n, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.L().Info("store_import_done", "rows", n)
	return n, nil
}
