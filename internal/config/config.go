// 包 config：从 .env 与环境变量读取运行配置，未设置的键使用默认值
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"district-dash/internal/population"

	"github.com/joho/godotenv"
)

// Config：进程级只读配置
type Config struct {
	Addr    string
	APIBase string

	DataMode    string
	GeoJSONPath string
	IDField     string
	CachePath   string
	RedisKey    string
	RandomSeed  int64

	PopSource  string
	PopCSVPath string
	PopColumns population.Columns
	SQLitePath string

	MapMonth        population.Month
	BarFromMonth    population.Month
	DefaultDistrict string

	OpenBrowser bool

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string

	RateLimitEnabled bool
	RateLimitQPS     int
}

// LoadEnvFiles：依次加载 ./.env 与 data/env/.env；文件不存在时忽略，已存在的环境变量不被覆盖
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：读取环境变量构建配置
// 约束：月份与整数格式错误返回 error；布尔值仅 "true" 视为开启
func Load() (*Config, error) {
	c := &Config{
		Addr:        env("ADDR", ":8050"),
		APIBase:     strings.TrimRight(env("API_BASE", "/api"), "/"),
		DataMode:    strings.ToLower(env("DATA_MODE", "demo")),
		GeoJSONPath: env("GEOJSON_PATH", filepath.Join("data", "Community Districts.geojson")),
		IDField:     env("ID_FIELD", "boro_cd"),
		CachePath:   env("CACHE_PATH", filepath.Join("data", "cache", "dataset.gob.zst")),
		RedisKey:    os.Getenv("CACHE_REDIS_KEY"),
		PopSource:   strings.ToLower(env("POP_SOURCE", "csv")),
		PopCSVPath:  env("POP_CSV_PATH", filepath.Join("data", "population.csv")),
		PopColumns: population.Columns{
			Date:     env("POP_DATE_COL", population.DefaultColumns.Date),
			District: env("POP_DISTRICT_COL", population.DefaultColumns.District),
			Value:    env("POP_VALUE_COL", population.DefaultColumns.Value),
		},
		SQLitePath:       env("SQLITE_PATH", filepath.Join("data", "population.db")),
		DefaultDistrict:  env("DEFAULT_DISTRICT", "109"),
		OpenBrowser:      os.Getenv("OPEN_BROWSER") == "true",
		TLSEnable:        os.Getenv("TLS_ENABLE") == "true",
		TLSCertPath:      env("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:       env("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     200,
	}
	if c.APIBase == "" {
		c.APIBase = "/api"
	}
	var err error
	if c.MapMonth, err = population.ParseMonth(env("MAP_MONTH", "2020-09")); err != nil {
		return nil, fmt.Errorf("MAP_MONTH: %w", err)
	}
	if c.BarFromMonth, err = population.ParseMonth(env("BAR_FROM_MONTH", "2020-03")); err != nil {
		return nil, fmt.Errorf("BAR_FROM_MONTH: %w", err)
	}
	if s := os.Getenv("RANDOM_SEED"); s != "" {
		if c.RandomSeed, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("RANDOM_SEED: %w", err)
		}
	}
	if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_QPS: bad value %q", s)
		}
		c.RateLimitQPS = n
	}
	switch c.DataMode {
	case "demo", "cache", "table":
	default:
		return nil, fmt.Errorf("DATA_MODE: unknown mode %q", c.DataMode)
	}
	switch c.PopSource {
	case "csv", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("POP_SOURCE: unknown source %q", c.PopSource)
	}
	return c, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
