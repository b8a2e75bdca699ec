package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"district-dash/internal/dataset"
	"district-dash/internal/migrate"
	"district-dash/internal/population"
	"district-dash/internal/store"
	"district-dash/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const twoDistricts = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"boro_cd":"101"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
 {"type":"Feature","properties":{"boro_cd":"109"},"geometry":{"type":"Polygon","coordinates":[[[1,0],[2,0],[2,1],[1,1],[1,0]]]}}]}`

const populationCSV = "date,boro_cd,population\n2020-08-01,109,40\n2020-09-01,109,50\n2020-09-01,101,75\n"

// syncBuffer：run 在后台协程写日志，测试协程同时读取
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	base := map[string]string{
		"ADDR":            "127.0.0.1:0",
		"DATA_MODE":       "demo",
		"LOG_LEVEL":       "info",
		"LOG_FORMAT":      "",
		"OPEN_BROWSER":    "",
		"TLS_ENABLE":      "",
		"CACHE_REDIS_KEY": "",
		"MAP_MONTH":       "",
		"BAR_FROM_MONTH":  "",
		"POP_SOURCE":      "",
		"RATE_LIMIT_QPS":  "",
		"REDIS_DISABLE":   "",
	}
	for k, v := range kv {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// serveUntilListening：后台执行 run，等到开始监听后取消，返回退出码、日志与登记的退出清理函数
func serveUntilListening(t *testing.T) (int, string, []func()) {
	t.Helper()
	var hooks []func()
	var mu sync.Mutex
	prev := onExit
	onExit = func(h func()) {
		mu.Lock()
		defer mu.Unlock()
		hooks = append(hooks, h)
	}
	t.Cleanup(func() { onExit = prev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	done := make(chan int, 1)
	go func() { done <- run(ctx, &out) }()

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "msg=listening") || strings.Contains(s, "level=ERROR")
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case code := <-done:
		mu.Lock()
		defer mu.Unlock()
		return code, out.String(), hooks
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	return 0, "", nil
}

func TestRunExitsWithOneWhenBoundaryFileIsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "Community Districts.geojson")
	setEnv(t, map[string]string{"GEOJSON_PATH": missing})

	var stderr bytes.Buffer
	code := run(context.Background(), &stderr)

	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "data_source_error")
	require.Contains(t, stderr.String(), missing)
}

func TestRunExitsWithOneWhenCacheIsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "dataset.gob.zst")
	setEnv(t, map[string]string{"DATA_MODE": "cache", "CACHE_PATH": missing})

	var stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), &stderr))
	require.Contains(t, stderr.String(), missing)
}

func TestRunExitsWithOneOnBadConfig(t *testing.T) {
	setEnv(t, map[string]string{"MAP_MONTH": "not-a-month"})

	var stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), &stderr))
	require.Contains(t, stderr.String(), "config_error")
}

func TestRunExitsWithOneWhenSQLiteFileIsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "population.db")
	setEnv(t, map[string]string{
		"DATA_MODE":    "table",
		"POP_SOURCE":   "sqlite",
		"SQLITE_PATH":  missing,
		"GEOJSON_PATH": writeFile(t, "cd.geojson", twoDistricts),
	})

	var stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), &stderr))
	require.Contains(t, stderr.String(), "data_source_error")
	require.Contains(t, stderr.String(), missing)
	_, err := os.Stat(missing)
	require.True(t, os.IsNotExist(err))
}

func TestRunExitsWithOneWhenCSVIsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "population.csv")
	setEnv(t, map[string]string{
		"DATA_MODE":    "table",
		"POP_SOURCE":   "csv",
		"POP_CSV_PATH": missing,
		"GEOJSON_PATH": writeFile(t, "cd.geojson", twoDistricts),
	})

	var stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), &stderr))
	require.Contains(t, stderr.String(), missing)
}

func TestRunServesTableFromCSV(t *testing.T) {
	setEnv(t, map[string]string{
		"DATA_MODE":    "table",
		"POP_SOURCE":   "csv",
		"POP_CSV_PATH": writeFile(t, "pop.csv", populationCSV),
		"GEOJSON_PATH": writeFile(t, "cd.geojson", twoDistricts),
	})

	code, out, hooks := serveUntilListening(t)

	require.Equal(t, 0, code, out)
	require.Contains(t, out, "dataset_load_ok")
	require.Contains(t, out, "rows=3")
	require.Contains(t, out, "shutdown_ok")
	require.Len(t, hooks, 1)
	hooks[0]()
}

func TestRunServesTableFromSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "population.db")
	db, err := utils.OpenSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, migrate.EnsureSchema(db))
	tbl, err := population.ReadCSV(strings.NewReader(populationCSV), population.DefaultColumns)
	require.NoError(t, err)
	_, err = store.AttachDB(db).ImportTable(context.Background(), tbl)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	setEnv(t, map[string]string{
		"DATA_MODE":    "table",
		"POP_SOURCE":   "sqlite",
		"SQLITE_PATH":  dbPath,
		"GEOJSON_PATH": writeFile(t, "cd.geojson", twoDistricts),
	})

	code, out, _ := serveUntilListening(t)

	require.Equal(t, 0, code, out)
	require.Contains(t, out, "store_load_ok")
	require.Contains(t, out, "rows=3")
}

func TestRunServesCacheFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	tbl, err := population.ReadCSV(strings.NewReader(populationCSV), population.DefaultColumns)
	require.NoError(t, err)
	ds, err := dataset.LoadTable(writeFile(t, "cd.geojson", twoDistricts), "", tbl)
	require.NoError(t, err)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	require.NoError(t, dataset.PublishRedis(context.Background(), rc, "district-dash:dataset", ds))

	setEnv(t, map[string]string{
		"DATA_MODE":       "cache",
		"CACHE_REDIS_KEY": "district-dash:dataset",
		"REDIS_HOST":      mr.Host(),
		"REDIS_PORT":      mr.Port(),
		"REDIS_PASS":      "",
		"REDIS_DB":        "",
	})

	code, out, _ := serveUntilListening(t)

	require.Equal(t, 0, code, out)
	require.Contains(t, out, "dataset_load_ok")
	require.Contains(t, out, "regions=2")
}

func TestRunExitsWithOneWhenRedisKeyIsAbsent(t *testing.T) {
	mr := miniredis.RunT(t)
	setEnv(t, map[string]string{
		"DATA_MODE":       "cache",
		"CACHE_REDIS_KEY": "district-dash:missing",
		"REDIS_HOST":      mr.Host(),
		"REDIS_PORT":      mr.Port(),
		"REDIS_PASS":      "",
		"REDIS_DB":        "",
	})

	var stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), &stderr))
	require.Contains(t, stderr.String(), "redis:district-dash:missing")
}

func TestBrowseAddr(t *testing.T) {
	require.Equal(t, "127.0.0.1:8050", browseAddr(&net.TCPAddr{IP: net.IPv4zero, Port: 8050}))
	require.Equal(t, "10.0.0.2:80", browseAddr(&net.TCPAddr{IP: net.ParseIP("10.0.0.2"), Port: 80}))
}
