// 包 ingest：拉取上游选举结果并计算着色表写入数据库，作为离线数据通道
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/metrics"
)

// CentralFile：全国层级结果文件名（不含扩展名），其余文件以县市代码命名
const CentralFile = "central"

// Sink：着色表写入目标
type Sink interface {
	UpsertColors(ctx context.Context, year string, cfg election.ColorMap) error
	UpsertElection(ctx context.Context, info *election.ElectionInfo) error
}

// Invalidator：导入完成后需要清除的缓存
type Invalidator interface {
	Invalidate(ctx context.Context, year string)
}

// RegionCodes：上游按县市拆分的结果文件清单
var RegionCodes = []string{
	geo.RegionA, geo.RegionB, geo.RegionC, geo.RegionD, geo.RegionE, geo.RegionF,
	geo.RegionG, geo.RegionH, geo.RegionI, geo.RegionJ, geo.RegionK, geo.RegionM,
	geo.RegionN, geo.RegionO, geo.RegionP, geo.RegionQ, geo.RegionT, geo.RegionU,
	geo.RegionV, geo.RegionW, geo.RegionX, geo.RegionZ,
}

// ErrNotFound：上游没有该文件
var ErrNotFound = errors.New("election file not found")

// Importer：按年份拉取 <SrcURL>/<year>/<file>.json 并写入着色表
type Importer struct {
	SrcURL string
	Client *http.Client
	Sink   Sink
	Cache  Invalidator
}

func (im *Importer) client() *http.Client {
	if im.Client != nil {
		return im.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// Fetch：拉取并解析一份 ElectionInfo；404 返回 ErrNotFound
func (im *Importer) Fetch(ctx context.Context, year, file string) (*election.ElectionInfo, error) {
	u := strings.TrimRight(im.SrcURL, "/") + "/" + year + "/" + file + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := im.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", u, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: bad status %d", u, resp.StatusCode)
	}
	info, err := election.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	return info, nil
}

// 文档注释：导入单个年份
// 背景：全国层级文件给出各县市得票，县市文件给出各乡镇得票；合并为一张着色表整体写入。
// 约束：全国文件缺失视为失败；县市文件缺失跳过并记录；任一其他错误直接返回，不做重试（交由调度层处理）。
func (im *Importer) ImportYear(ctx context.Context, year string) (int, error) {
	l := logger.L()
	central, err := im.Fetch(ctx, year, CentralFile)
	if err != nil {
		metrics.ColorIngestTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	cfg := election.ColorConfig(central)
	for _, code := range RegionCodes {
		info, err := im.Fetch(ctx, year, code)
		if errors.Is(err, ErrNotFound) {
			l.Debug("ingest_region_missing", "year", year, "region", code)
			continue
		}
		if err != nil {
			metrics.ColorIngestTotal.WithLabelValues("error").Inc()
			return 0, err
		}
		cfg = election.Merge(cfg, election.ColorConfig(info))
	}
	if central.GregorianYear == "" {
		central.GregorianYear = year
	}
	if err := im.Sink.UpsertElection(ctx, central); err != nil {
		metrics.ColorIngestTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	if err := im.Sink.UpsertColors(ctx, year, cfg); err != nil {
		metrics.ColorIngestTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	if im.Cache != nil {
		im.Cache.Invalidate(ctx, year)
	}
	metrics.ColorIngestTotal.WithLabelValues("ok").Inc()
	l.Info("ingest_year_done", "year", year, "codes", len(cfg))
	return len(cfg), nil
}

// ImportAll：依次导入全部选举年份；单年失败记录后继续，返回合并错误
func (im *Importer) ImportAll(ctx context.Context, years []string) error {
	var errs []error
	for _, y := range years {
		if _, err := im.ImportYear(ctx, y); err != nil {
			logger.L().Error("ingest_year_error", "year", y, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
