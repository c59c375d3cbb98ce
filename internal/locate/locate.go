// 包 locate：按访客 IP 推断所在县市，用于新会话的初始选区
package locate

import (
	"fmt"
	"net"
	"strings"
	"unicode"

	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/metrics"

	"github.com/oschwald/geoip2-golang"
)

// 文档注释：IP 县市定位
// 背景：GeoLite2-City 的城市与一级行政区英文名与内政部 COUNTYENG 大体一致，规范化后按名称匹配县市代码。
// 约束：仅返回台湾地区结果；内网与无法解析的地址直接判定未命中；Reader 只读、可并发使用。
type Locator struct {
	db      *geoip2.Reader
	regions []geo.GeoFeature
}

// Open：打开 mmdb 文件
func Open(path string, regions []geo.GeoFeature) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip %s: %w", path, err)
	}
	return &Locator{db: db, regions: regions}, nil
}

func (l *Locator) Close() error { return l.db.Close() }

// Region：返回 IP 对应的县市代码；未命中时 ok 为 false
func (l *Locator) Region(ipStr string) (string, bool) {
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		metrics.LocateTotal.WithLabelValues("skip").Inc()
		return "", false
	}
	rec, err := l.db.City(ip)
	if err != nil {
		metrics.LocateTotal.WithLabelValues("error").Inc()
		logger.L().Warn("locate_lookup_error", "ip", ipStr, "err", err)
		return "", false
	}
	if rec.Country.IsoCode != "TW" {
		metrics.LocateTotal.WithLabelValues("miss").Inc()
		return "", false
	}
	code, ok := MatchRegion(l.regions, candidateNames(rec)...)
	if !ok {
		metrics.LocateTotal.WithLabelValues("miss").Inc()
		logger.L().Debug("locate_miss", "ip", ipStr, "names", candidateNames(rec))
		return "", false
	}
	metrics.LocateTotal.WithLabelValues("hit").Inc()
	return code, true
}

// candidateNames：城市名优先，其后为一级行政区名
func candidateNames(rec *geoip2.City) []string {
	var out []string
	if n := rec.City.Names["en"]; n != "" {
		out = append(out, n)
	}
	for _, s := range rec.Subdivisions {
		if n := s.Names["en"]; n != "" {
			out = append(out, n)
		}
	}
	return out
}

// aliases：旧式拼写到 COUNTYENG 规范名
var aliases = map[string]string{
	"taipeh":  "taipei",
	"chilung": "keelung",
	"fukien":  "kinmen",
	"matsu":   "lienchiang",
}

// 文档注释：名称匹配
// 背景：先按完整名称（去空白与符号、忽略大小写）匹配，再去掉 City/County/Hsien 后缀匹配；同名县市（如新竹市、新竹县）取要素顺序中的第一个。
func MatchRegion(regions []geo.GeoFeature, names ...string) (string, bool) {
	for _, n := range names {
		full := normalize(n)
		for _, r := range regions {
			if full != "" && normalize(r.Properties.RegionNameEnglish) == full {
				return r.Properties.RegionCode, true
			}
		}
		short := stem(full)
		if a, ok := aliases[short]; ok {
			short = a
		}
		for _, r := range regions {
			if short != "" && stem(normalize(r.Properties.RegionNameEnglish)) == short {
				return r.Properties.RegionCode, true
			}
		}
	}
	return "", false
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stem(s string) string {
	for _, suf := range []string{"county", "city", "hsien", "shih"} {
		if strings.HasSuffix(s, suf) && len(s) > len(suf) {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}
