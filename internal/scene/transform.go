package scene

import (
	"strconv"
)

// Transform：先缩放后平移的二维变换，屏幕坐标 = 局部坐标×K + (X,Y)
type Transform struct {
	X, Y, K float64
}

// Identity：单位变换
var Identity = Transform{K: 1}

// Apply：局部坐标变换到父坐标系
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert：父坐标系反变换到局部坐标；缩放为零时原样返回
func (t Transform) Invert(x, y float64) (float64, float64) {
	if t.K == 0 {
		return x, y
	}
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// String：SVG transform 属性文本
func (t Transform) String() string {
	if t.K == 1 {
		return "translate(" + num(t.X) + "," + num(t.Y) + ")"
	}
	return "translate(" + num(t.X) + "," + num(t.Y) + ") scale(" + num(t.K) + ")"
}

func num(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
