// 程序入口：读取配置、启动期加载数据（失败即退出）、构建只读应用上下文并启动 HTTP 服务
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"district-dash/internal/api"
	"district-dash/internal/chart"
	"district-dash/internal/config"
	"district-dash/internal/dashboard"
	"district-dash/internal/dataset"
	"district-dash/internal/logger"
	"district-dash/internal/middleware"
	"district-dash/internal/migrate"
	"district-dash/internal/population"
	"district-dash/internal/store"
	"district-dash/internal/utils"

	"github.com/pkg/browser"
	"github.com/tebeka/atexit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stderr)
	stop()
	atexit.Exit(code)
}

// onExit：登记进程退出前执行的清理函数
var onExit = func(h func()) { atexit.Register(h) }

// run：返回进程退出码；0 为正常关闭，1 为数据源不可用或服务异常
func run(ctx context.Context, stderr io.Writer) int {
	config.LoadEnvFiles()
	l := logger.SetupWriter(stderr)
	l.Debug("log_init_ok")
	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		return 1
	}
	l.Debug("config_loaded", "mode", cfg.DataMode, "addr", cfg.Addr, "api_base", cfg.APIBase)

	ds, err := loadDataset(ctx, cfg, l)
	if err != nil {
		var se *dataset.SourceError
		if errors.As(err, &se) {
			l.Error("data_source_error", "path", se.Path, "err", se.Err)
		} else {
			l.Error("dataset_load_error", "err", err)
		}
		return 1
	}
	l.Info("dataset_load_ok", "mode", cfg.DataMode, "regions", ds.Regions.Len(), "rows", ds.Table.Len())

	dc := dashboard.New(ds, dashboard.Settings{
		MapMonth:        cfg.MapMonth,
		BarFromMonth:    cfg.BarFromMonth,
		DefaultDistrict: cfg.DefaultDistrict,
		Map:             chart.DefaultMapOptions,
		Bar:             chart.DefaultBarOptions,
	})
	var handler http.Handler = api.BuildRoutes(dc, cfg.APIBase)
	handler = middleware.RateLimit(handler, cfg.RateLimitEnabled, cfg.RateLimitQPS)
	handler = logger.AccessMiddleware(l)(handler)
	return serve(ctx, cfg, handler, l)
}

// loadDataset：按 DATA_MODE 选择加载策略；数据库与 Redis 连接仅在启动期使用
func loadDataset(ctx context.Context, cfg *config.Config, l *slog.Logger) (*dataset.Dataset, error) {
	opts := dataset.Options{
		Mode:        cfg.DataMode,
		GeoJSONPath: cfg.GeoJSONPath,
		IDField:     cfg.IDField,
		DemoMonth:   cfg.MapMonth,
		Seed:        cfg.RandomSeed,
		CachePath:   cfg.CachePath,
		RedisKey:    cfg.RedisKey,
	}
	if cfg.DataMode == dataset.ModeCache && cfg.RedisKey != "" {
		rc := utils.OpenRedisFromEnv()
		if rc != nil {
			defer rc.Close()
		}
		opts.Redis = rc
	}
	if cfg.DataMode == dataset.ModeTable {
		opts.Table = tableSource(cfg, l)
	}
	return dataset.Load(ctx, opts)
}

func tableSource(cfg *config.Config, l *slog.Logger) dataset.TableSource {
	return func(ctx context.Context) (*population.Table, error) {
		switch cfg.PopSource {
		case "postgres":
			return loadFromDB(ctx, utils.RedactedPostgresTarget(), utils.OpenPostgresFromEnv, l)
		case "sqlite":
			// sql.Open 会静默创建不存在的文件，这里先判定
			if _, err := os.Stat(cfg.SQLitePath); err != nil {
				return nil, &dataset.SourceError{Path: cfg.SQLitePath, Err: err}
			}
			return loadFromDB(ctx, cfg.SQLitePath, func() (*sql.DB, error) { return utils.OpenSQLite(cfg.SQLitePath) }, l)
		}
		return dataset.LoadCSV(cfg.PopCSVPath, cfg.PopColumns)
	}
}

// loadFromDB：打开、确保表结构、一次性读取后关闭
func loadFromDB(ctx context.Context, target string, open func() (*sql.DB, error), l *slog.Logger) (*population.Table, error) {
	db, err := open()
	if err != nil {
		return nil, &dataset.SourceError{Path: target, Err: err}
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, &dataset.SourceError{Path: target, Err: err}
	}
	if err := migrate.EnsureSchema(db); err != nil {
		return nil, &dataset.SourceError{Path: target, Err: err}
	}
	tbl, err := store.AttachDB(db).LoadTable(ctx)
	if err != nil {
		return nil, &dataset.SourceError{Path: target, Err: err}
	}
	l.Info("store_load_ok", "target", target, "rows", tbl.Len())
	return tbl, nil
}

// serve：监听并服务直到 ctx 结束；TLS_ENABLE=true 时使用（必要时自签）证书
func serve(ctx context.Context, cfg *config.Config, handler http.Handler, l *slog.Logger) int {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		l.Error("listen_error", "addr", cfg.Addr, "err", err)
		return 1
	}
	s := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	// 异常返回路径上也要释放监听与空闲连接
	onExit(func() { _ = s.Close() })
	scheme := "http"
	errc := make(chan error, 1)
	if cfg.TLSEnable {
		scheme = "https"
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "district-dash.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			_ = ln.Close()
			return 1
		}
		l.Info("listening_tls", "addr", ln.Addr().String(), "cert", cfg.TLSCertPath)
		go func() { errc <- s.ServeTLS(ln, cfg.TLSCertPath, cfg.TLSKeyPath) }()
	} else {
		l.Info("listening", "addr", ln.Addr().String())
		go func() { errc <- s.Serve(ln) }()
	}
	if cfg.OpenBrowser {
		url := fmt.Sprintf("%s://%s/", scheme, browseAddr(ln.Addr()))
		if err := browser.OpenURL(url); err != nil {
			l.Warn("browser_open_error", "url", url, "err", err)
		}
	}
	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("serve_error", "err", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		l.Error("shutdown_error", "err", err)
		return 1
	}
	l.Info("shutdown_ok")
	return 0
}

// browseAddr：监听在通配地址时改用回环地址打开浏览器
func browseAddr(a net.Addr) string {
	tcp, ok := a.(*net.TCPAddr)
	if !ok || tcp.IP == nil || tcp.IP.IsUnspecified() {
		if ok {
			return fmt.Sprintf("127.0.0.1:%d", tcp.Port)
		}
		return a.String()
	}
	return tcp.String()
}
