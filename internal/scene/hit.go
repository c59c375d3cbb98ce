package scene

import (
	"strconv"

	"github.com/paulmach/orb"
)

// Shape：命中测试几何，坐标为元素局部坐标系
type Shape interface {
	Contains(x, y float64) bool
}

// PolygonShape：投影后的多面几何，附带包围盒用于快速过滤
type PolygonShape struct {
	Polys orb.MultiPolygon
	Bound orb.Bound
}

// NewPolygonShape：以投影后的多面几何构造命中形状
func NewPolygonShape(mp orb.MultiPolygon) *PolygonShape {
	return &PolygonShape{Polys: mp, Bound: mp.Bound()}
}

// 文档注释：点入多边形判定（Even-Odd）
// 背景：悬停与点击需要把屏幕坐标映射到具体县市或乡镇；支持洞与多面结构。
// 约束：射线法在边界临界值时易受数值误差影响，分母加极小量避免除零。
func (s *PolygonShape) Contains(x, y float64) bool {
	if s == nil || len(s.Polys) == 0 {
		return false
	}
	pt := orb.Point{x, y}
	if !s.Bound.Contains(pt) {
		return false
	}
	for _, poly := range s.Polys {
		if pointInPoly(pt, poly) {
			return true
		}
	}
	return false
}

// 外环命中且不在洞内视为命中
func pointInPoly(pt orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	if !pointInRing(pt, poly[0]) {
		return false
	}
	for i := 1; i < len(poly); i++ {
		if pointInRing(pt, poly[i]) {
			return false
		}
	}
	return true
}

// 射线法判定点是否在环内
func pointInRing(pt orb.Point, ring orb.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt[0], pt[1]
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi+1e-12)+xi) {
			inside = !inside
		}
	}
	return inside
}

// RectShape：由 x/y/width/height 属性实时读取的矩形
type RectShape struct{ el *Element }

// NewRectShape：绑定矩形元素
func NewRectShape(el *Element) RectShape { return RectShape{el: el} }

func (r RectShape) Contains(x, y float64) bool {
	rx := attrFloat(r.el, "x")
	ry := attrFloat(r.el, "y")
	return x >= rx && x <= rx+attrFloat(r.el, "width") && y >= ry && y <= ry+attrFloat(r.el, "height")
}

func attrFloat(e *Element, k string) float64 {
	v, _ := strconv.ParseFloat(e.Attr(k), 64)
	return v
}

// interactive：pointer-events 为 none 的元素（属性或样式）不参与命中
func interactive(e *Element) bool {
	return e.Style("pointer-events") != "none" && e.Attr("pointer-events") != "none"
}

// HitTest：返回屏幕坐标处最上层的可交互元素，未命中返回 nil
// 约束：按绘制逆序遍历；分组不可命中但会把 pointer-events:none 传递给子元素；文字元素不参与命中
func HitTest(root *Element, x, y float64) *Element {
	return hit(root, x, y)
}

func hit(e *Element, x, y float64) *Element {
	if !interactive(e) {
		return nil
	}
	lx, ly := e.Transform().Invert(x, y)
	for i := len(e.children) - 1; i >= 0; i-- {
		if h := hit(e.children[i], lx, ly); h != nil {
			return h
		}
	}
	if e.Shape != nil && e.Tag != "text" && e.Shape.Contains(lx, ly) {
		return e
	}
	return nil
}
