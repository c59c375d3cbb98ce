package geo

import (
	"context"
	"time"

	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// 文档注释：带 Redis 读穿缓存的几何来源
// 背景：拓扑文件体积较大且极少变化，多实例部署时共享一份缓存，减少对静态资源站的重复拉取。
// 约束：Redis 不可用时直接回落到内层来源；写缓存失败仅记录日志。
type RedisSource struct {
	Inner  Source
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s RedisSource) key(name string) string {
	p := s.Prefix
	if p == "" {
		p = "topo:"
	}
	return p + name
}

func (s RedisSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if s.Client == nil {
		return s.Inner.Fetch(ctx, name)
	}
	b, err := s.Client.Get(ctx, s.key(name)).Bytes()
	if err == nil && len(b) > 0 {
		metrics.RedisHitsTotal.Inc()
		logger.L().Debug("topo_cache_hit", "name", name)
		return b, nil
	}
	metrics.RedisMissesTotal.Inc()
	b, err = s.Inner.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if e := s.Client.Set(ctx, s.key(name), b, ttl).Err(); e != nil {
		logger.L().Warn("topo_cache_set_error", "name", name, "err", e)
	}
	return b, nil
}
