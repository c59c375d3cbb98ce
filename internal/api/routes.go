// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/metrics"
	"tw-vote-map/internal/session"
	"tw-vote-map/internal/store"
)

// Deps：路由依赖；Store 为 nil 时统计与年份接口退化为静态结果
type Deps struct {
	Geo     *geo.Collection
	Colors  store.ColorSource
	Store   *store.Store
	Cache   *LRU
	Session session.Config
}

// BuildRoutes：构建并返回 API 路由；独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	rd := &Renderer{Geo: d.Geo, Colors: d.Colors, Cache: d.Cache}
	apiMux := http.NewServeMux()
	apiMux.Handle("/map.svg", snapshotHandler(rd, d.Store, FormatSVG))
	apiMux.Handle("/map.png", snapshotHandler(rd, d.Store, FormatPNG))

	apiMux.HandleFunc("/regions", func(w http.ResponseWriter, r *http.Request) {
		defer observe("regions", time.Now())
		opts := []geo.Option{}
		if d.Geo != nil {
			opts = d.Geo.RegionOptions()
		}
		writeJSON(w, http.StatusOK, opts)
	})

	apiMux.HandleFunc("/districts", func(w http.ResponseWriter, r *http.Request) {
		defer observe("districts", time.Now())
		region := r.URL.Query().Get("region")
		opts := []geo.Option{}
		if d.Geo != nil {
			if o := d.Geo.DistrictOptions(region); o != nil {
				opts = o
			}
		}
		writeJSON(w, http.StatusOK, opts)
	})

	apiMux.HandleFunc("/years", func(w http.ResponseWriter, r *http.Request) {
		defer observe("years", time.Now())
		years := election.Years()
		if d.Store != nil {
			if ys, err := d.Store.Years(r.Context()); err == nil && len(ys) > 0 {
				years = ys
			} else if err != nil {
				logger.L().Warn("years_query_error", "err", err)
			}
		}
		writeJSON(w, http.StatusOK, years)
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		defer observe("stats", time.Now())
		if d.Store == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "stats disabled"})
			return
		}
		t, _ := d.Store.GetTotals(r.Context())
		writeJSON(w, http.StatusOK, t)
	})

	apiMux.Handle("/ws", session.Handler(d.Session, getClientIP))
	return apiMux
}

func snapshotHandler(rd *Renderer, st *store.Store, format string) http.HandlerFunc {
	route := "map." + format
	contentType := "image/svg+xml"
	if format == FormatPNG {
		contentType = "image/png"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		defer observe(route, time.Now())
		p, err := ParseSnapshotParams(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		b, hit, err := rd.Render(r.Context(), p, format)
		if err != nil {
			logger.L().Error("snapshot_render_error", "format", format, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
			return
		}
		if st != nil && !hit {
			_ = st.IncrStats(r.Context(), store.StatRender)
		}
		w.Header().Set("content-type", contentType)
		w.Header().Set("cache-control", "public, max-age=300")
		_, _ = w.Write(b)
	}
}

func observe(route string, t0 time.Time) {
	metrics.RequestsTotal.WithLabelValues(route).Inc()
	metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(t0).Milliseconds()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
