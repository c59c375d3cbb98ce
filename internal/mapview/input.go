package mapview

import (
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/scene"
)

// PointerMove：指针移动到屏幕坐标 (x, y)；命中元素变化时依次派发 mouseleave 与 mouseenter
func (v *MapView) PointerMove(x, y float64) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.hover(scene.HitTest(v.doc.Root, x, y), x, y)
	v.unlockAndFire()
}

// PointerLeave：指针离开画面
func (v *MapView) PointerLeave() {
	v.mu.Lock()
	if v.mounted {
		v.hover(nil, 0, 0)
	}
	v.unlockAndFire()
}

func (v *MapView) hover(target *scene.Element, x, y float64) {
	if target == v.hovered {
		return
	}
	prev := v.hovered
	v.hovered = target
	if prev != nil {
		if h := prev.Handler("mouseleave"); h != nil {
			h(scene.Event{Type: "mouseleave", X: x, Y: y, Target: prev})
		}
	}
	if target != nil {
		if h := target.Handler("mouseenter"); h != nil {
			h(scene.Event{Type: "mouseenter", X: x, Y: y, Target: target})
		}
	}
	v.changed()
}

// 文档注释：点击
// 背景：命中可交互图形时执行其 click 处理；点击空白处（或非图形元素）送出“全部县市”。
// 约束：事件在释放锁后派发。
func (v *MapView) Click(x, y float64) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	target := scene.HitTest(v.doc.Root, x, y)
	v.click(target, x, y)
	v.unlockAndFire()
}

func (v *MapView) click(target *scene.Element, x, y float64) {
	if target != nil {
		if h := target.Handler("click"); h != nil {
			h(scene.Event{Type: "click", X: x, Y: y, Target: target})
			return
		}
	}
	if target == nil || (target.Tag != "path" && target.Tag != "rect") {
		v.emitRegion(geo.RegionAll)
	}
}

// 文档注释：按类名派发事件
// 背景：供自行做命中判断的客户端使用，key 为元素类名（如 path-63000、box-Z）。
// 约束：key 为空且事件为 click 时视为点击背景；找不到元素时忽略。
func (v *MapView) Dispatch(key, event string) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	if key == "" {
		switch event {
		case "click":
			v.click(nil, 0, 0)
		case "mouseleave":
			v.hover(nil, 0, 0)
		}
		v.unlockAndFire()
		return
	}
	target := v.container.Select(key)
	if target != nil && !target.HasClass(ClassRegionItem) && target.Tag != "text" {
		switch event {
		case "mouseenter":
			v.hover(target, 0, 0)
		case "mouseleave":
			if v.hovered == target {
				v.hover(nil, 0, 0)
			}
		case "click":
			v.click(target, 0, 0)
		}
	}
	v.unlockAndFire()
}
