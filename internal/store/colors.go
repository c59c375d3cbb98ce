package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// ColorSource：按年份提供着色表
type ColorSource interface {
	Colors(ctx context.Context, year string) (election.ColorMap, error)
}

// 文档注释：本地选举结果目录
// 背景：无数据库部署时直接读取 <Dir>/<year>/*.json 下的 ElectionInfo 文件，按文件名顺序合并着色表。
// 约束：年份目录不存在时返回空表；单个文件解析失败即整体失败。
type FileColors struct {
	Dir string
}

func (f FileColors) Colors(ctx context.Context, year string) (election.ColorMap, error) {
	files, err := filepath.Glob(filepath.Join(f.Dir, year, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", year, err)
	}
	out := election.ColorMap{}
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := ReadInfo(p)
		if err != nil {
			return nil, err
		}
		out = election.Merge(out, election.ColorConfig(info))
	}
	return out, nil
}

// ReadInfo：读取单个 ElectionInfo 文件
func ReadInfo(p string) (*election.ElectionInfo, error) {
	fh, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer fh.Close()
	info, err := election.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return info, nil
}

// 文档注释：着色表读穿缓存
// 背景：着色表按年份几乎不变，先查进程内缓存，再查 Redis，最后回源并回填两级缓存。
// 约束：Client 为 nil 时仅使用进程内缓存；Redis 异常降级为回源，不向上返回错误。
type ColorCache struct {
	Inner  ColorSource
	Client *redis.Client
	TTL    time.Duration
	Prefix string

	mu    sync.RWMutex
	local map[string]election.ColorMap
}

// NewColorCache：默认 TTL 24 小时，键前缀 colors:
func NewColorCache(inner ColorSource, rc *redis.Client) *ColorCache {
	return &ColorCache{Inner: inner, Client: rc, TTL: 24 * time.Hour, Prefix: "colors:"}
}

func (c *ColorCache) key(year string) string { return c.Prefix + year }

func (c *ColorCache) Colors(ctx context.Context, year string) (election.ColorMap, error) {
	c.mu.RLock()
	m, ok := c.local[year]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}
	if c.Client != nil {
		s, err := c.Client.Get(ctx, c.key(year)).Result()
		if err == nil {
			var cached election.ColorMap
			if json.Unmarshal([]byte(s), &cached) == nil {
				metrics.RedisHitsTotal.Inc()
				c.remember(year, cached)
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.L().Warn("colors_cache_get_error", "year", year, "err", err)
		}
		metrics.RedisMissesTotal.Inc()
	}
	m, err := c.Inner.Colors(ctx, year)
	if err != nil {
		return nil, err
	}
	c.remember(year, m)
	if c.Client != nil {
		b, _ := json.Marshal(m)
		if e := c.Client.Set(ctx, c.key(year), b, c.TTL).Err(); e != nil {
			logger.L().Warn("colors_cache_set_error", "year", year, "err", e)
		}
	}
	return m, nil
}

func (c *ColorCache) remember(year string, m election.ColorMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local == nil {
		c.local = map[string]election.ColorMap{}
	}
	c.local[year] = m
}

// Invalidate：导入新数据后清除该年份的两级缓存
func (c *ColorCache) Invalidate(ctx context.Context, year string) {
	c.mu.Lock()
	delete(c.local, year)
	c.mu.Unlock()
	if c.Client != nil {
		_ = c.Client.Del(ctx, c.key(year)).Err()
	}
}
