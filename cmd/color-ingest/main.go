package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/ingest"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/migrate"
	"tw-vote-map/internal/store"
	"tw-vote-map/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：选举结果着色表导入
// 背景：从本地结果目录（<dir>/<year>/*.json）或上游地址（ELECTION_SRC_URL）读取 ElectionInfo，计算着色表后写入 _map_colors。
// 约束：-year 为空时导入全部选举年份；单年失败记录后继续，存在失败时以非零状态退出。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	dir := flag.String("dir", "", "local election result directory")
	year := flag.String("year", "", "single election year")
	flag.Parse()

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	var cache *store.ColorCache
	if rc := utils.OpenRedisFromEnv(); rc != nil {
		cache = store.NewColorCache(st, rc)
	}

	years := election.Years()
	if *year != "" {
		years = []string{*year}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	failed := false
	if *dir != "" {
		src := store.FileColors{Dir: *dir}
		for _, y := range years {
			cfg, err := src.Colors(ctx, y)
			if err != nil {
				l.Error("ingest_year_error", "year", y, "err", err)
				failed = true
				continue
			}
			if len(cfg) == 0 {
				l.Info("ingest_year_empty", "year", y)
				continue
			}
			info, err := store.ReadInfo(filepath.Join(*dir, y, ingest.CentralFile+".json"))
			if err != nil {
				info = &election.ElectionInfo{}
			}
			info.GregorianYear = y
			if err := st.UpsertElection(ctx, info); err != nil {
				l.Error("ingest_year_error", "year", y, "err", err)
				failed = true
				continue
			}
			if err := st.UpsertColors(ctx, y, cfg); err != nil {
				l.Error("ingest_year_error", "year", y, "err", err)
				failed = true
				continue
			}
			if cache != nil {
				cache.Invalidate(ctx, y)
			}
			l.Info("ingest_year_done", "year", y, "codes", len(cfg))
		}
	} else {
		src := os.Getenv("ELECTION_SRC_URL")
		if src == "" {
			l.Error("election_src_missing")
			os.Exit(1)
		}
		im := &ingest.Importer{SrcURL: src, Sink: st}
		if cache != nil {
			im.Cache = cache
		}
		if err := im.ImportAll(ctx, years); err != nil {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
	l.Info("ingest_done", "years", len(years))
}
