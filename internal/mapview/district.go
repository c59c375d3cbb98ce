package mapview

import (
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/scene"
)

// 文档注释：乡镇图层
// 背景：先无条件清除全部乡镇路径与标签，再把所选县市的乡镇绘制进该县市分组内，叠在县市路径之上。
// 约束：“全部”或空代码只清除不绘制；未知代码筛选结果为空，同样只清除。
func (v *MapView) renderDistrictLayer(regionCode string) {
	for _, e := range v.container.SelectAll(ClassTownshipName) {
		e.Remove()
	}
	for _, e := range v.container.SelectAll(ClassTownshipPath) {
		e.Remove()
	}
	if geo.IsAll(regionCode) {
		return
	}
	var filtered []geo.GeoFeature
	for _, f := range v.districts {
		if f.Properties.RegionCode == regionCode {
			filtered = append(filtered, f)
		}
	}
	group := v.container.Select(ClassRegionPrefix + regionCode)
	if group == nil || len(filtered) == 0 {
		return
	}
	scene.Join(group, filtered, scene.JoinSpec[geo.GeoFeature]{
		Tag:   "path",
		Class: ClassTownshipPath,
		Key:   districtKey,
		Enter: func(p *scene.Element, f geo.GeoFeature) {
			code := f.Properties.DistrictCode
			p.On("mouseenter", func(scene.Event) { v.renderHighlight(&f, v.pathFor(regionCode)) })
			p.On("mouseleave", func(scene.Event) { v.renderHighlight(nil, v.pathFor(regionCode)) })
			p.On("click", func(scene.Event) { v.emitDistrict(code) })
		},
		Update: func(p *scene.Element, f geo.GeoFeature) {
			code := f.Properties.DistrictCode
			p.SetClass(ClassTownshipPath + " " + ClassPathPrefix + code)
			v.drawShape(p, f, v.pathFor(regionCode))
			p.SetAttr("fill", v.fillFor(code))
		},
	})
	v.renderLabels(filtered, ClassTownshipName)
}
