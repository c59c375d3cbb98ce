package mapview

import (
	"fmt"
	"strings"

	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/scene"
)

// 标签基准字号
const baseFontSize = 16.0

// Offset：标签平移微调（像素）
type Offset struct{ X, Y float64 }

// 县市标签的人工微调表：质心落点不佳的县市（狭长或弯月形）逐个校正，无公式可推导
var labelOffsets = map[string]Offset{
	geo.RegionC: {30, -15},
	geo.RegionA: {5, 10},
	geo.RegionF: {-5, 20},
	geo.RegionH: {-15, -25},
	geo.RegionO: {35, -10},
	geo.RegionJ: {5, 5},
	geo.RegionK: {-5, 0},
	geo.RegionB: {-20, 5},
	geo.RegionP: {0, -10},
	geo.RegionI: {0, 10},
	geo.RegionQ: {40, 0},
	geo.RegionE: {10, 0},
	geo.RegionT: {-15, -30},
	geo.RegionU: {5, 0},
}

// LabelOffset：县市层级查表，乡镇层级与表外代码为 (0,0)
func LabelOffset(p geo.LocationInfo) Offset {
	if !p.IsRegionLevel() {
		return Offset{}
	}
	return labelOffsets[p.RegionCode]
}

func textTransform(p geo.LocationInfo) string {
	o := LabelOffset(p)
	return fmt.Sprintf("translate(%s, %s)", fmtNum(o.X), fmtNum(o.Y))
}

// labelText：离岛县市去掉“縣”字，连江改称马祖；其余直接取县市或乡镇名
func (v *MapView) labelText(p geo.LocationInfo) string {
	if !p.IsRegionLevel() {
		return p.DistrictName
	}
	if !v.layout.IsOffshore(p.RegionCode) {
		return p.RegionName
	}
	name := strings.Replace(p.RegionName, "縣", "", 1)
	if name == "連江" {
		return "馬祖"
	}
	return name
}

// zoomFontSize：随镜头缩放反比缩小
func (v *MapView) zoomFontSize() float64 { return baseFontSize / v.state.Zoom }

// fontSize：离岛县市标签固定字号，其余随缩放变化
func (v *MapView) fontSize(p geo.LocationInfo) float64 {
	if p.IsRegionLevel() && v.layout.IsOffshore(p.RegionCode) {
		return baseFontSize
	}
	return v.zoomFontSize()
}

// labelPosition：离岛县市标签置于框底部居中；其余取质心，并按坐标轴序号叠加半个字号
func (v *MapView) labelPosition(f geo.GeoFeature) (float64, float64) {
	p := f.Properties
	if e, ok := v.layout.Lookup(p.RegionCode); ok && p.IsRegionLevel() {
		return e.X + e.BoxWidth/2, e.Y + e.BoxHeight - 12
	}
	c := v.pathFor(p.RegionCode).Centroid(f.Geometry)
	fs := v.zoomFontSize()
	var out [2]float64
	for i := range out {
		out[i] = c[i] + float64(i)*fs/2
	}
	return out[0], out[1]
}

// placeLabel：写入标签坐标与平移
func (v *MapView) placeLabel(e *scene.Element, f geo.GeoFeature) {
	x, y := v.labelPosition(f)
	e.SetAttr("x", fmtNum(x))
	e.SetAttr("y", fmtNum(y))
	e.SetAttr("transform", textTransform(f.Properties))
}

// 文档注释：地名标签
// 背景：县市标签插入根分组；离岛县市的乡镇标签插入该县市分组，随插图框一起固定。
// 约束：每次渲染后把标签提升到同级最上层，避免被后绘制的路径遮挡。
func (v *MapView) renderLabels(features []geo.GeoFeature, kind string) {
	section := v.container
	if kind == ClassTownshipName && len(features) > 0 {
		rc := features[0].Properties.RegionCode
		if v.layout.IsOffshore(rc) {
			if g := v.container.Select(ClassRegionPrefix + rc); g != nil {
				section = g
			}
		}
	}
	key := regionKey
	if kind == ClassTownshipName {
		key = districtKey
	}
	els := scene.Join(section, features, scene.JoinSpec[geo.GeoFeature]{
		Tag:   "text",
		Class: kind,
		Key:   key,
		Update: func(e *scene.Element, f geo.GeoFeature) {
			e.SetClass(ClassInfoText + " " + kind)
			e.SetAttr("font-size", fmtNum(v.fontSize(f.Properties))+"px")
			v.placeLabel(e, f)
			e.Text = v.labelText(f.Properties)
		},
	})
	for _, e := range els {
		e.Raise()
	}
}
