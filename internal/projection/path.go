package projection

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 路径数据坐标保留三位小数
const pathDigits = 3

// 文档注释：路径生成器
// 背景：把经纬度几何映射为 SVG 路径数据、投影后质心与包围盒，渲染与命中测试共用同一投影结果。
// 约束：纯函数，相同投影与几何输出逐字节一致。
type Path struct {
	Projection Mercator
}

// NewPath：绑定投影构造路径生成器
func NewPath(m Mercator) Path { return Path{Projection: m} }

// Project：逐点投影整个几何，结构保持不变
func (p Path) Project(g orb.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, 0, len(g))
	for _, poly := range g {
		np := make(orb.Polygon, 0, len(poly))
		for _, ring := range poly {
			nr := make(orb.Ring, 0, len(ring))
			for _, pt := range ring {
				nr = append(nr, p.Projection.Project(pt))
			}
			np = append(np, nr)
		}
		out = append(out, np)
	}
	return out
}

// D：SVG 路径数据，每个环输出 M..L..Z，丢弃闭合重复点；空几何返回空串
func (p Path) D(g orb.MultiPolygon) string {
	var sb strings.Builder
	for _, poly := range g {
		for _, ring := range poly {
			n := len(ring)
			if n > 1 && ring[0] == ring[n-1] {
				n--
			}
			if n == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				q := p.Projection.Project(ring[i])
				if i == 0 {
					sb.WriteByte('M')
				} else {
					sb.WriteByte('L')
				}
				sb.WriteString(formatNum(q[0]))
				sb.WriteByte(',')
				sb.WriteString(formatNum(q[1]))
			}
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

// Centroid：投影后几何的面积加权质心；面积为零时退化为环线或点的均值
func (p Path) Centroid(g orb.MultiPolygon) orb.Point {
	proj := p.Project(g)
	if len(proj) == 0 {
		return orb.Point{math.NaN(), math.NaN()}
	}
	c, area := planar.CentroidArea(proj)
	if area != 0 && !math.IsNaN(c[0]) {
		return c
	}
	// 退化几何：按线段长度加权中点，再退化为顶点均值
	var lx, ly, length, sx, sy float64
	var n int
	for _, poly := range proj {
		for _, ring := range poly {
			for i, pt := range ring {
				sx += pt[0]
				sy += pt[1]
				n++
				if i == 0 {
					continue
				}
				prev := ring[i-1]
				d := planar.Distance(prev, pt)
				lx += d * (prev[0] + pt[0]) / 2
				ly += d * (prev[1] + pt[1]) / 2
				length += d
			}
		}
	}
	if length > 0 {
		return orb.Point{lx / length, ly / length}
	}
	if n == 0 {
		return orb.Point{math.NaN(), math.NaN()}
	}
	return orb.Point{sx / float64(n), sy / float64(n)}
}

// Bounds：投影后包围盒；空几何返回 false
func (p Path) Bounds(g orb.MultiPolygon) (orb.Bound, bool) {
	return projectedBound(p.Projection, g)
}

// formatNum：四舍五入到三位小数并输出最短十进制文本，负零按零输出
func formatNum(v float64) string {
	scale := math.Pow10(pathDigits)
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
