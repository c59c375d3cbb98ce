package mapview

import (
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/projection"
	"tw-vote-map/internal/scene"
)

// highlightKey：高亮层至多一个元素，固定键使替换走原位更新
const highlightKey = "highlight"

// 文档注释：悬停高亮
// 背景：在悬停要素上叠加一层白色半透明填充，用要素所属县市对应的投影绘制。
// 约束：传 nil 移除；任一时刻最多一个高亮元素；高亮本身不参与命中；渲染后重新提升全部标签。
func (v *MapView) renderHighlight(f *geo.GeoFeature, path projection.Path) {
	var items []geo.GeoFeature
	if f != nil {
		items = []geo.GeoFeature{*f}
	}
	v.highlightPath = path
	els := scene.Join(v.container, items, scene.JoinSpec[geo.GeoFeature]{
		Tag:   "path",
		Class: ClassHighlight,
		Key:   func(geo.GeoFeature) string { return highlightKey },
		Enter: func(e *scene.Element, _ geo.GeoFeature) {
			e.SetStyle("fill", "white").
				SetStyle("opacity", "0.2").
				SetStyle("pointer-events", "none")
		},
		Update: func(e *scene.Element, f geo.GeoFeature) {
			e.SetAttr("d", path.D(f.Geometry))
		},
	})
	if len(els) > 0 {
		v.raiseLabels()
	}
}

// raiseLabels：全部文字元素提升到各自同级最上层
func (v *MapView) raiseLabels() {
	for _, t := range v.doc.Root.SelectTag("text") {
		t.Raise()
	}
}
