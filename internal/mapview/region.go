package mapview

import (
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/offshore"
	"tw-vote-map/internal/projection"
	"tw-vote-map/internal/scene"
)

// 文档注释：县市图层
// 背景：每个县市一个分组，分组类名带县市代码供乡镇图层与标签定位；本岛直接绘制路径，
// 离岛先绘制圆角白底矩形（承载交互）再绘制不可交互的插图路径。
// 约束：仅在挂载时绘制；尺寸变化只更新已有路径的 d，不重建分组。
func (v *MapView) renderRegionLayer(features []geo.GeoFeature) {
	groups := scene.Join(v.container, features, scene.JoinSpec[geo.GeoFeature]{
		Tag:   "g",
		Class: ClassRegionItem,
		Key:   regionKey,
		Update: func(g *scene.Element, f geo.GeoFeature) {
			g.SetClass(ClassRegionItem + " " + ClassRegionPrefix + f.Properties.RegionCode)
		},
	})
	for _, g := range groups {
		f, _ := featureOf(g)
		if e, ok := v.layout.Lookup(f.Properties.RegionCode); ok {
			v.drawOffshoreRegion(g, f, e)
		} else {
			v.drawMainlandRegion(g, f)
		}
	}
	v.renderLabels(features, ClassCountyName)
}

func (v *MapView) drawMainlandRegion(g *scene.Element, f geo.GeoFeature) {
	code := f.Properties.RegionCode
	scene.Join(g, []geo.GeoFeature{f}, scene.JoinSpec[geo.GeoFeature]{
		Tag:   "path",
		Class: ClassCountyPath,
		Key:   regionKey,
		Enter: func(p *scene.Element, f geo.GeoFeature) {
			p.On("mouseenter", func(scene.Event) { v.renderHighlight(&f, v.proj.Path()) })
			p.On("mouseleave", func(scene.Event) { v.renderHighlight(nil, v.proj.Path()) })
			p.On("click", func(scene.Event) { v.emitRegion(code) })
		},
		Update: func(p *scene.Element, f geo.GeoFeature) {
			p.SetClass(ClassCountyPath + " " + ClassPathPrefix + code)
			v.drawShape(p, f, v.proj.Path())
			p.SetAttr("fill", v.fillFor(code))
		},
	})
}

func (v *MapView) drawOffshoreRegion(g *scene.Element, f geo.GeoFeature, e offshore.Entry) {
	code := f.Properties.RegionCode
	scene.Join(g, []geo.GeoFeature{f}, scene.JoinSpec[geo.GeoFeature]{
		Tag:   "rect",
		Class: ClassOffshoreBox,
		Key:   regionKey,
		Enter: func(r *scene.Element, f geo.GeoFeature) {
			r.Shape = scene.NewRectShape(r)
			r.On("mouseenter", func(scene.Event) { v.renderHighlight(&f, e.Path) })
			r.On("mouseleave", func(scene.Event) { v.renderHighlight(nil, e.Path) })
			r.On("click", func(scene.Event) { v.emitRegion(code) })
		},
		Update: func(r *scene.Element, _ geo.GeoFeature) {
			r.SetClass(ClassOffshoreBox + " " + ClassBoxPrefix + code)
			r.SetAttr("x", fmtNum(e.X)).
				SetAttr("y", fmtNum(e.Y)).
				SetAttr("rx", fmtNum(offshore.CornerRadius)).
				SetAttr("ry", fmtNum(offshore.CornerRadius)).
				SetAttr("width", fmtNum(e.BoxWidth)).
				SetAttr("height", fmtNum(e.BoxHeight)).
				SetAttr("fill", "white")
		},
	})
	scene.Join(g, []geo.GeoFeature{f}, scene.JoinSpec[geo.GeoFeature]{
		Tag:   "path",
		Class: ClassCountyPath,
		Key:   regionKey,
		Update: func(p *scene.Element, f geo.GeoFeature) {
			p.SetClass(ClassCountyPath + " " + ClassPathPrefix + code)
			v.drawShape(p, f, e.Path)
			p.SetAttr("fill", v.fillFor(code))
			p.SetAttr("pointer-events", "none")
		},
	})
}

// drawShape：写入路径数据与命中几何
func (v *MapView) drawShape(p *scene.Element, f geo.GeoFeature, path projection.Path) {
	p.SetAttr("d", path.D(f.Geometry))
	p.SetAttr("stroke", "white")
	p.SetAttr("stroke-width", "0.5")
	p.Shape = scene.NewPolygonShape(path.Project(f.Geometry))
}
