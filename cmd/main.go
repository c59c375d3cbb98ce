// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tw-vote-map/internal/api"
	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/ingest"
	"tw-vote-map/internal/locate"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/metrics"
	"tw-vote-map/internal/middleware"
	"tw-vote-map/internal/migrate"
	"tw-vote-map/internal/session"
	"tw-vote-map/internal/store"
	"tw-vote-map/internal/utils"
	"tw-vote-map/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok", "commit", version.Commit)
	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)
	ctx := context.Background()

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(ctx).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
	} else {
		l.Info("redis_ping_ok")
	}

	// 几何来源：优先远程静态资源站，其次本地目录；Redis 可用时加一层读穿缓存
	var src geo.Source = geo.FileSource{Dir: utils.EnvOr("TOPO_DIR", filepath.Join("data", "map-topo-json"))}
	if base := os.Getenv("TOPO_BASE_URL"); base != "" {
		src = geo.HTTPSource{BaseURL: base, Client: &http.Client{Timeout: 10 * time.Second}}
	}
	if rc != nil {
		src = geo.RedisSource{Inner: src, Client: rc, TTL: 24 * time.Hour}
	}
	loader := geo.NewLoader(src)
	if s := os.Getenv("TOPO_REGION_OBJECT"); s != "" {
		loader.RegionObject = s
	}
	if s := os.Getenv("TOPO_DISTRICT_OBJECT"); s != "" {
		loader.DistrictObject = s
	}
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	collection, err := loader.Load(loadCtx)
	cancel()
	if err != nil {
		// 背景：几何加载失败时地图保持空白，服务继续提供其余接口
		l.Error("geometry_unavailable", "err", err)
		collection = nil
	}

	// 着色表来源：数据库可用时读库，否则读本地选举结果目录
	var st *store.Store
	electionDir := utils.EnvOr("ELECTION_DIR", filepath.Join("data", "election"))
	var colors store.ColorSource = store.FileColors{Dir: electionDir}
	if utils.PostgresEnabled() {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		l.Info("db_open_ok")
		if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
		colors = st
	} else {
		l.Info("db_disabled", "election_dir", electionDir)
	}
	colorCache := store.NewColorCache(colors, rc)
	snapshots := api.NewLRU(utils.EnvInt("SNAPSHOT_CACHE_SIZE", 256), time.Duration(utils.EnvInt("SNAPSHOT_CACHE_TTL", 600))*time.Second)

	if srcURL := os.Getenv("ELECTION_SRC_URL"); srcURL != "" && st != nil {
		im := &ingest.Importer{SrcURL: srcURL, Sink: st, Cache: purgeAll{colorCache, snapshots}}
		if os.Getenv("INGEST_ON_START") == "true" {
			go func() {
				if err := im.ImportAll(ctx, election.Years()); err != nil {
					l.Error("ingest_error", "err", err)
				}
			}()
		}
		ingest.StartWeeklyTaipei(ctx, im)
	}

	var locator session.RegionLocator
	if os.Getenv("PRESELECT_BY_IP") == "true" && collection != nil {
		path := utils.EnvOr("GEOIP_CITY_PATH", filepath.Join("data", "geoip", "GeoLite2-City.mmdb"))
		if lc, err := locate.Open(path, collection.Regions); err == nil {
			defer lc.Close()
			locator = lc
			l.Info("geoip_ready", "path", path)
		} else {
			l.Error("geoip_open_error", "err", err)
		}
	}

	deps := api.Deps{
		Geo:    collection,
		Colors: colorCache,
		Store:  st,
		Cache:  snapshots,
		Session: session.Config{
			Geo:     collection,
			Colors:  colorCache,
			Locator: locator,
			Year:    utils.EnvOr("DEFAULT_YEAR", election.LatestYear()),
		},
	}
	if st != nil {
		deps.Session.Stats = st
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(deps)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if collection == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("geometry unavailable"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	ui := utils.EnvOr("UI_DIST", filepath.Join("ui", "dist"))
	l.Debug("config_ui_dir", "dir", ui)
	mux.Handle("/", http.FileServer(http.Dir(ui)))

	// NOTE: 向前端暴露 API 基础路径，避免硬编码；生产环境由后端统一提供
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})

	addr := utils.EnvOr("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	tlsEnable := os.Getenv("TLS_ENABLE")
	if tlsEnable == "true" {
		certPath := utils.EnvOr("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.EnvOr("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "tw-vote-map.local"); err != nil {
			l.Error("tls_cert_error", "err", err, "cert", certPath)
			os.Exit(1)
		}
		// 可选：启动HTTP重定向到HTTPS（不改变HTTPS运行端口）
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			go redirectToHTTPS(utils.EnvOr("TLS_REDIRECT_ADDR", ":80"), addr)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		if err := serve(l, s, certPath, keyPath); err != nil {
			os.Exit(1)
		}
		return
	}
	l.Info("listening", "addr", addr)
	if err := serve(l, s, "", ""); err != nil {
		os.Exit(1)
	}
}

// serve：启动监听，证书路径非空时走 TLS；正常关闭返回 nil，其余错误先记日志再返回
func serve(l *slog.Logger, s *http.Server, certPath, keyPath string) error {
	var err error
	if certPath != "" {
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		err = s.ListenAndServe()
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	l.Error("server_listen_error", "err", err, "addr", s.Addr)
	return err
}

// purgeAll：导入完成后同时清除着色表缓存与快照缓存
type purgeAll struct {
	colors    *store.ColorCache
	snapshots *api.LRU
}

func (p purgeAll) Invalidate(ctx context.Context, year string) {
	p.colors.Invalidate(ctx, year)
	p.snapshots.Purge()
}

func redirectToHTTPS(redirAddr, addr string) {
	l := logger.L()
	httpRedir := http.NewServeMux()
	httpRedir.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// 替换目标端口为HTTPS服务端口
		httpsPort := strings.TrimPrefix(addr, ":")
		baseHost := r.Host
		if i := strings.LastIndex(baseHost, ":"); i != -1 {
			baseHost = baseHost[:i]
		}
		targetHost := baseHost
		if httpsPort != "" {
			targetHost = baseHost + ":" + httpsPort
		}
		target := "https://" + targetHost + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		l.Debug("http_redirect", "from", r.Host, "to", target)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+addr)
	rs := &http.Server{Addr: redirAddr, Handler: logger.AccessMiddleware(l)(httpRedir)}
	_ = serve(l, rs, "", "")
}
