// 包 api：集中注册 HTTP 路由（页面、图表、点击联动、坐标定位）
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"district-dash/internal/dashboard"
	"district-dash/internal/interact"
	"district-dash/internal/logger"
	"district-dash/internal/metrics"
	"district-dash/internal/population"
	"district-dash/internal/web"

	"github.com/gorilla/mux"
)

// maxClickBody：点击负载上限
const maxClickBody = 64 << 10

type errorBody struct {
	Error string `json:"error"`
}

type locateBody struct {
	District string  `json:"district"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// BuildRoutes：页面挂在根路径，接口挂在 apiBase 前缀下
func BuildRoutes(dc *dashboard.Context, apiBase string) *mux.Router {
	r := mux.NewRouter()
	a := r.PathPrefix(apiBase).Subrouter()
	a.Handle("/figures/map", timed("map", mapFigure(dc))).Methods(http.MethodGet)
	a.Handle("/figures/snapshot", timed("snapshot", snapshotFigure(dc))).Methods(http.MethodGet)
	a.Handle("/click", timed("click", click(dc))).Methods(http.MethodPost)
	a.Handle("/locate", timed("locate", locate(dc))).Methods(http.MethodGet)
	a.Handle("/months", timed("months", months(dc))).Methods(http.MethodGet)
	a.Handle("/summary", timed("summary", summary(dc))).Methods(http.MethodGet)
	a.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	r.HandleFunc("/config.js", configJS(dc, apiBase)).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(web.FS())).Methods(http.MethodGet)
	return r
}

// timed：按路由统计请求数与耗时
func timed(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		h.ServeHTTP(w, r)
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, route string, err error) {
	metrics.BadRequestsTotal.WithLabelValues(route).Inc()
	logger.L().Debug("bad_request", "route", route, "err", err)
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// monthParam：month 参数缺省时返回零值（由上下文取默认月份）
func monthParam(r *http.Request) (population.Month, error) {
	s := r.URL.Query().Get("month")
	if s == "" {
		return population.Month{}, nil
	}
	return population.ParseMonth(s)
}

func mapFigure(dc *dashboard.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := monthParam(r)
		if err != nil {
			badRequest(w, "map", err)
			return
		}
		writeJSON(w, http.StatusOK, dc.MapFigure(m))
	}
}

func snapshotFigure(dc *dashboard.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := monthParam(r)
		if err != nil {
			badRequest(w, "snapshot", err)
			return
		}
		writeJSON(w, http.StatusOK, dc.SnapshotFigure(m))
	}
}

// click：空请求体视为尚无点击
func click(dc *dashboard.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev *interact.ClickEvent
		dec := json.NewDecoder(io.LimitReader(r.Body, maxClickBody))
		var payload interact.ClickEvent
		switch err := dec.Decode(&payload); {
		case err == nil:
			ev = &payload
		case errors.Is(err, io.EOF):
		default:
			badRequest(w, "click", err)
			return
		}
		resp := dc.Click(ev)
		logger.L().Debug("map_click", "heading", resp.Heading)
		writeJSON(w, http.StatusOK, resp)
	}
}

func locate(dc *dashboard.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		lat, err := strconv.ParseFloat(q.Get("lat"), 64)
		if err != nil {
			badRequest(w, "locate", errors.New("bad lat"))
			return
		}
		lon, err := strconv.ParseFloat(q.Get("lon"), 64)
		if err != nil {
			badRequest(w, "locate", errors.New("bad lon"))
			return
		}
		id, ok := dc.Locate(lat, lon)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "no district at coordinate"})
			return
		}
		writeJSON(w, http.StatusOK, locateBody{District: id, Lat: lat, Lon: lon})
	}
}

func months(dc *dashboard.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dc.Months())
	}
}

func summary(dc *dashboard.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dc.Summary())
	}
}

// configJS：向前端暴露接口前缀与默认值；取值按 JSON 编码，保证是合法的 JS 字面量
func configJS(dc *dashboard.Context, apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := dc.Settings()
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		for _, kv := range [][2]string{
			{"__API_BASE__", apiBase},
			{"__MAP_MONTH__", s.MapMonth.String()},
			{"__DEFAULT_DISTRICT__", s.DefaultDistrict},
		} {
			b, _ := json.Marshal(kv[1])
			_, _ = io.WriteString(w, "window."+kv[0]+"="+string(b)+";\n")
		}
	}
}
