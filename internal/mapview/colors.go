package mapview

import "tw-vote-map/internal/scene"

// SetColors：替换着色表并重新填充已绘制的县市与乡镇路径；县市按县市代码、乡镇按乡镇代码取色
func (v *MapView) SetColors(colors map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := make(map[string]string, len(colors))
	for k, c := range colors {
		next[k] = c
	}
	v.colors = next
	if !v.mounted {
		return
	}
	for _, p := range v.container.Find(func(e *scene.Element) bool {
		return e.HasClass(ClassCountyPath) || e.HasClass(ClassTownshipPath)
	}) {
		f, ok := featureOf(p)
		if !ok {
			continue
		}
		code := f.Properties.RegionCode
		if p.HasClass(ClassTownshipPath) {
			code = f.Properties.DistrictCode
		}
		p.SetAttr("fill", v.fillFor(code))
	}
	v.changed()
}
