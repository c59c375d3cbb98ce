// 包 projection：墨卡托投影、路径生成与视口变化时的投影重算
package projection

import (
	"math"

	"github.com/paulmach/orb"
)

// 主地图投影参数：以台湾本岛中心为投影中心，固定基准缩放
const (
	CenterLon = 120.95
	CenterLat = 23.6
	BaseScale = 12500.0
)

const radians = math.Pi / 180

// 文档注释：墨卡托投影
// 背景：屏幕坐标 = 平移 + 缩放 × 原始墨卡托坐标，y 轴向下；中心点经投影后落在平移点上。
// 约束：值类型，按值复制后互不影响；不做裁剪与自适应重采样。
type Mercator struct {
	Scale      float64
	Translate  orb.Point
	Center     orb.Point // 经纬度，单位度
	centerRawX float64
	centerRawY float64
}

// NewMercator：构造指定中心与缩放的投影，平移置零
func NewMercator(center orb.Point, scale float64) Mercator {
	m := Mercator{Scale: scale, Center: center}
	m.centerRawX, m.centerRawY = raw(center[0]*radians, center[1]*radians)
	return m
}

// raw：原始墨卡托公式（弧度）
func raw(lambda, phi float64) (float64, float64) {
	return lambda, math.Log(math.Tan((math.Pi/2 + phi) / 2))
}

// Project：经纬度投影到屏幕坐标
func (m Mercator) Project(p orb.Point) orb.Point {
	x, y := raw(p[0]*radians, p[1]*radians)
	return orb.Point{
		m.Translate[0] + m.Scale*(x-m.centerRawX),
		m.Translate[1] - m.Scale*(y-m.centerRawY),
	}
}

// WithTranslate：返回平移替换后的副本
func (m Mercator) WithTranslate(t orb.Point) Mercator {
	m.Translate = t
	return m
}

// FitExtent：调整缩放与平移，使几何投影后恰好适配矩形范围 extent（左上、右下）
// 约束：沿用先以 150 缩放探测包围盒、再按比例放大的做法；空几何返回原投影
func FitExtent(extent [2]orb.Point, g orb.MultiPolygon) Mercator {
	probe := NewMercator(orb.Point{}, 150)
	b, ok := projectedBound(probe, g)
	if !ok {
		return probe
	}
	w := extent[1][0] - extent[0][0]
	h := extent[1][1] - extent[0][1]
	k := math.Min(w/(b.Max[0]-b.Min[0]), h/(b.Max[1]-b.Min[1]))
	x := extent[0][0] + (w-k*(b.Max[0]+b.Min[0]))/2
	y := extent[0][1] + (h-k*(b.Max[1]+b.Min[1]))/2
	out := NewMercator(orb.Point{}, 150*k)
	out.Translate = orb.Point{x, y}
	return out
}

func projectedBound(m Mercator, g orb.MultiPolygon) (orb.Bound, bool) {
	first := true
	var b orb.Bound
	for _, poly := range g {
		for _, ring := range poly {
			for _, p := range ring {
				q := m.Project(p)
				if first {
					b = orb.Bound{Min: q, Max: q}
					first = false
					continue
				}
				b = b.Extend(q)
			}
		}
	}
	return b, !first
}
