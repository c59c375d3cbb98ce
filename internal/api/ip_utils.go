package api

import (
	"net/http"
	"strings"
)

// 文档注释：获取客户端 IP（用于按 IP 预选县市）
// 背景：多层代理环境下，优先显式参数，其次常见反向代理头，最后回退远端地址；确保在复杂链路中得到稳定来源 IP。
// 约束：不解析 IPv6 压缩形式的特殊头部变体；当头部存在伪造风险时需结合可信代理白名单处理。
func getClientIP(r *http.Request) string {
	if q := r.URL.Query().Get("ip"); q != "" {
		return q
	}
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return x
		}
	}
	if x := h.Get("forwarded"); x != "" {
		i := strings.Index(strings.ToLower(x), "for=")
		if i >= 0 {
			y := x[i+4:]
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return forwardedHost(strings.Trim(y, "\" "))
		}
	}
	host := r.RemoteAddr
	if host != "" {
		if i := strings.LastIndex(host, ":"); i > 0 {
			return strings.Trim(host[:i], "[]")
		}
		return host
	}
	return ""
}

// forwardedHost：去掉 Forwarded 节点中的端口；IPv6 形如 [addr]:port
func forwardedHost(y string) string {
	if strings.HasPrefix(y, "[") {
		if p := strings.IndexByte(y, ']'); p > 0 {
			return y[1:p]
		}
		return strings.Trim(y, "[]")
	}
	if strings.Count(y, ":") == 1 {
		return y[:strings.IndexByte(y, ':')]
	}
	return y
}
