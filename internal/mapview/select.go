package mapview

import (
	"context"
	"errors"

	"tw-vote-map/internal/camera"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/scene"
)

// 文档注释：切换县市选区
// 背景：依次执行 隐藏县市标签 → 清除乡镇层 → 切换离岛框焦点 → 镜头过渡 → 等待过渡结束 →
// （“全部”时）恢复县市标签 → 绘制新县市的乡镇层。
// 约束：新的 SelectRegion 使旧序列在等待结束后放弃后续步骤；尺寸变化导致的镜头跳转不会放弃当前序列；
// 未知代码跳过镜头过渡，不视为错误；ctx 取消时返回 ctx 错误且不再绘制。
func (v *MapView) SelectRegion(ctx context.Context, code string) error {
	sel, err := v.beginSelect(code)
	if err != nil {
		return err
	}
	return v.finishSelect(ctx, sel)
}

// StartSelectRegion：在调用方协程内同步完成切换的前半段，过渡等待与后续绘制转入后台；
// 通道收到与 SelectRegion 相同的结果。连续调用按调用顺序生效。
func (v *MapView) StartSelectRegion(ctx context.Context, code string) <-chan error {
	out := make(chan error, 1)
	sel, err := v.beginSelect(code)
	if err != nil {
		out <- err
		return out
	}
	go func() { out <- v.finishSelect(ctx, sel) }()
	return out
}

type pendingSelect struct {
	code string
	gen  uint64
	tr   *camera.Transition
}

func (v *MapView) beginSelect(code string) (pendingSelect, error) {
	if code == "" {
		code = geo.RegionAll
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return pendingSelect{}, ErrNotMounted
	}
	v.gen++
	v.state.RegionCode = code
	v.state.DistrictCode = geo.DistrictAll
	v.hovered = nil

	for _, t := range v.container.SelectAll(ClassCountyName) {
		t.SetStyle("opacity", "0")
	}
	v.renderDistrictLayer(geo.RegionAll)
	v.toggleOffshoreFocus(code)
	tr := v.zoomTo(code)
	v.changed()
	return pendingSelect{code: code, gen: v.gen, tr: tr}, nil
}

func (v *MapView) finishSelect(ctx context.Context, sel pendingSelect) error {
	if sel.tr != nil {
		if err := sel.tr.End(ctx); err != nil && !errors.Is(err, camera.ErrInterrupted) {
			return err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != sel.gen || !v.mounted {
		return nil
	}
	if geo.IsAll(sel.code) {
		for _, t := range v.container.SelectAll(ClassCountyName) {
			if f, ok := featureOf(t); ok {
				t.SetAttr("font-size", fmtNum(v.fontSize(f.Properties))+"px")
				v.placeLabel(t, f)
			}
			t.SetStyle("opacity", "1")
			t.Raise()
		}
	}
	v.renderDistrictLayer(sel.code)
	v.changed()
	return nil
}

// SelectDistrict：更新乡镇选区；代码变化时送出“乡镇选中”事件
func (v *MapView) SelectDistrict(code string) error {
	if code == "" {
		code = geo.DistrictAll
	}
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrNotMounted
	}
	if v.state.DistrictCode != code {
		v.state.DistrictCode = code
		v.emitDistrict(code)
		v.changed()
	}
	v.unlockAndFire()
	return nil
}

// zoomTo：计算目标变换并启动过渡；未知代码返回 nil
func (v *MapView) zoomTo(code string) *camera.Transition {
	target, ok := v.targetFor(code)
	if !ok {
		return nil
	}
	v.state.Zoom = target.K
	return v.cam.Animate(target, v.opts.CameraDuration)
}

// targetFor：“全部”对应单位变换；其余按县市包围盒适配视口
func (v *MapView) targetFor(code string) (scene.Transform, bool) {
	if geo.IsAll(code) {
		return scene.Identity, true
	}
	var feature *geo.GeoFeature
	for i := range v.regions {
		if v.regions[i].Properties.RegionCode == code {
			feature = &v.regions[i]
			break
		}
	}
	if feature == nil {
		return scene.Transform{}, false
	}
	b, ok := v.pathFor(code).Bounds(feature.Geometry)
	if !ok {
		return scene.Transform{}, false
	}
	return camera.FitTransform(b, v.state.Width, v.state.Height), true
}

// toggleOffshoreFocus：选中离岛县市时隐藏全部离岛框并关闭其交互，其余情况恢复
func (v *MapView) toggleOffshoreFocus(code string) {
	opacity, events := "1", "auto"
	if v.layout.IsOffshore(code) {
		opacity, events = "0", "none"
	}
	for _, r := range v.container.SelectAll(ClassOffshoreBox) {
		r.SetStyle("opacity", opacity)
		r.SetStyle("pointer-events", events)
	}
}
