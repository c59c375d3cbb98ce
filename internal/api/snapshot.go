package api

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/mapview"
	"tw-vote-map/internal/metrics"
	"tw-vote-map/internal/store"
)

// 快照格式
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// 快照尺寸范围
const (
	defaultWidth  = 800
	defaultHeight = 600
	minSize       = 100
	maxSize       = 4096
)

// SnapshotParams：一次快照请求的选区与尺寸
type SnapshotParams struct {
	Year     string
	Region   string
	District string
	Width    int
	Height   int
}

func (p SnapshotParams) key(format string) string {
	return fmt.Sprintf("%s|%s|%s|%s|%dx%d", format, p.Year, p.Region, p.District, p.Width, p.Height)
}

// ParseSnapshotParams：解析查询参数；年份非法返回错误，尺寸越界时截断
func ParseSnapshotParams(q url.Values) (SnapshotParams, error) {
	p := SnapshotParams{
		Year:     q.Get("year"),
		Region:   q.Get("region"),
		District: q.Get("district"),
		Width:    sizeParam(q.Get("w"), defaultWidth),
		Height:   sizeParam(q.Get("h"), defaultHeight),
	}
	if p.Year == "" {
		p.Year = election.LatestYear()
	}
	if !election.ValidYear(p.Year) {
		return p, fmt.Errorf("invalid year %q", p.Year)
	}
	if geo.IsAll(p.Region) {
		p.Region = geo.RegionAll
		p.District = geo.DistrictAll
	}
	if geo.IsAll(p.District) {
		p.District = geo.DistrictAll
	}
	return p, nil
}

func sizeParam(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	if n < minSize {
		return minSize
	}
	if n > maxSize {
		return maxSize
	}
	return n
}

// 文档注释：静态快照渲染
// 背景：每次渲染挂载一个临时视图，镜头无动画直接到位，着色后序列化；结果按参数缓存。
// 约束：几何为空时输出空白画面；着色表读取失败时不着色并记录日志。
type Renderer struct {
	Geo    *geo.Collection
	Colors store.ColorSource
	Cache  *LRU
}

// Render：返回快照字节与是否命中缓存
func (rd *Renderer) Render(ctx context.Context, p SnapshotParams, format string) ([]byte, bool, error) {
	key := p.key(format)
	if rd.Cache != nil {
		if b, ok := rd.Cache.Get(key); ok {
			metrics.SnapshotCacheHitsTotal.Inc()
			return b, true, nil
		}
		metrics.SnapshotCacheMissesTotal.Inc()
	}
	t0 := time.Now()
	v := mapview.New(mapview.Options{Width: float64(p.Width), Height: float64(p.Height), CameraDuration: -1})
	defer v.Close()
	if rd.Colors != nil {
		colors, err := rd.Colors.Colors(ctx, p.Year)
		if err != nil {
			logger.L().Warn("snapshot_colors_error", "year", p.Year, "err", err)
		} else {
			v.SetColors(colors)
		}
	}
	if rd.Geo != nil {
		if err := v.Mount(rd.Geo.Regions, rd.Geo.Districts); err != nil {
			return nil, false, err
		}
		if err := v.SelectRegion(ctx, p.Region); err != nil {
			return nil, false, err
		}
		if err := v.SelectDistrict(p.District); err != nil {
			return nil, false, err
		}
	}
	var buf bytes.Buffer
	var err error
	if format == FormatPNG {
		err = v.WritePNG(&buf)
	} else {
		err = v.WriteSVG(&buf)
	}
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", format, err)
	}
	metrics.RenderDurationMs.WithLabelValues(format).Observe(float64(time.Since(t0).Milliseconds()))
	b := buf.Bytes()
	if rd.Cache != nil {
		rd.Cache.Set(key, b)
	}
	return b, false, nil
}
