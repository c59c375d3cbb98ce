// 包 offshore：离岛插图框布局，连江、金门、澎湖固定绘制在左上角的独立小框内
package offshore

import (
	"fmt"

	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/projection"

	"github.com/paulmach/orb"
)

// 布局常量：单列自上而下排列
const (
	BoxWidth     = 72.0
	BoxHeight    = 73.0
	TallHeight   = 138.0
	Spacing      = 8.0
	MarginTop    = 16.0
	MarginLeft   = 16.0
	insetStart   = 0.1
	insetEnd     = 0.8
	CornerRadius = 8.0
)

// DefaultCodes：离岛县市的固定顺序
var DefaultCodes = []string{geo.RegionZ, geo.RegionW, geo.RegionX}

// Entry：单个离岛插图框
type Entry struct {
	Code      string
	X         float64
	Y         float64
	BoxWidth  float64
	BoxHeight float64
	Path      projection.Path
	Transform string
}

// 文档注释：离岛布局结果
// 背景：离岛按真实位置绘制会偏离本岛过远，改为固定屏幕位置的插图框，每框独立投影使图形占据框内 10%~80% 区域。
// 约束：首次拿到县市要素时计算一次，之后只读；视口变化不重算。
type Layout struct {
	entries []Entry
}

// heightFor：澎湖为多岛几何，框体更高
func heightFor(code string) float64 {
	if code == geo.RegionX {
		return TallHeight
	}
	return BoxHeight
}

// Compute：按 codes 顺序为命中的县市要素生成插图框
// 约束：纵坐标 = 顶边距 + 间距×序号 + 已生成框高度之和；缺失要素不生成框但占用序号
func Compute(regions []geo.GeoFeature, codes []string) *Layout {
	l := &Layout{}
	for index, code := range codes {
		f, ok := findRegion(regions, code)
		if !ok {
			continue
		}
		w := BoxWidth
		h := heightFor(code)
		x := MarginLeft
		y := MarginTop + Spacing*float64(index)
		for _, e := range l.entries {
			y += e.BoxHeight
		}
		extent := [2]orb.Point{
			{x + w*insetStart, y + w*insetStart},
			{x + w*insetEnd, y + h*insetEnd},
		}
		l.entries = append(l.entries, Entry{
			Code:      code,
			X:         x,
			Y:         y,
			BoxWidth:  w,
			BoxHeight: h,
			Path:      projection.NewPath(projection.FitExtent(extent, f.Geometry)),
			Transform: fmt.Sprintf("translate(%g, %g)", x+w*insetStart, y+h*insetStart),
		})
	}
	return l
}

func findRegion(regions []geo.GeoFeature, code string) (geo.GeoFeature, bool) {
	for _, f := range regions {
		if f.Properties.RegionCode == code {
			return f, true
		}
	}
	return geo.GeoFeature{}, false
}

// Entries：全部插图框（只读副本）
func (l *Layout) Entries() []Entry {
	if l == nil {
		return nil
	}
	return append([]Entry(nil), l.entries...)
}

// Lookup：按县市代码查找插图框
func (l *Layout) Lookup(code string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	for _, e := range l.entries {
		if e.Code == code {
			return e, true
		}
	}
	return Entry{}, false
}

// IsOffshore：县市是否绘制在插图框内
func (l *Layout) IsOffshore(code string) bool {
	_, ok := l.Lookup(code)
	return ok
}

// PathFor：离岛返回插图框路径生成器，否则返回主路径生成器
func (l *Layout) PathFor(code string, main projection.Path) projection.Path {
	if e, ok := l.Lookup(code); ok {
		return e.Path
	}
	return main
}
