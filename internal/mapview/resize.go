package mapview

import (
	"sync"
	"time"

	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/scene"
)

// Resize：记录新视口并交给节流器；实际重绘至多每个节流窗口一次，窗口首尾各触发一次
func (v *MapView) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.pendingW, v.pendingH = width, height
	v.mu.Unlock()
	v.throttle.Trigger()
}

// 文档注释：尺寸重绘
// 背景：重新计算投影，随后更新全部路径 d、命中几何、标签坐标与高亮，并把镜头直接跳到当前选区。
// 约束：整个过程在同一次持锁内完成，外部不会观察到半更新状态；挂载前只记录尺寸与投影；尺寸未变时跳过。
func (v *MapView) redraw() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.pendingW <= 0 || v.pendingH <= 0 {
		return
	}
	w, h := v.pendingW, v.pendingH
	if w == v.state.Width && h == v.state.Height && v.proj.Ready() {
		return
	}
	v.state.Width, v.state.Height = w, h
	v.doc.SetSize(w, h)
	v.proj.Recompute(w, h)
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
		v.drawShape(p, f, v.pathFor(f.Properties.RegionCode))
	}
	// 镜头先跳到新目标，标签字号按新的缩放计算
	if !geo.IsAll(v.state.RegionCode) {
		if target, ok := v.targetFor(v.state.RegionCode); ok {
			v.state.Zoom = target.K
			v.cam.Jump(target)
			v.container.SetTransform(target)
		}
	}
	for _, t := range v.container.SelectTag("text") {
		f, ok := featureOf(t)
		if !ok {
			continue
		}
		// 县市标签在选中县市时隐藏，回到“全部”时再按单位缩放重排
		if t.HasClass(ClassCountyName) && !geo.IsAll(v.state.RegionCode) {
			continue
		}
		t.SetAttr("font-size", fmtNum(v.fontSize(f.Properties))+"px")
		v.placeLabel(t, f)
	}
	if hl := v.container.Select(ClassHighlight); hl != nil {
		if f, ok := featureOf(hl); ok {
			// 离岛投影与视口无关，主投影已重新计算
			path := v.pathFor(f.Properties.RegionCode)
			v.highlightPath = path
			hl.SetAttr("d", path.D(f.Geometry))
		}
	}

	v.changed()
}

// 文档注释：首尾触发节流器
// 背景：窗口外的首次触发立即执行；窗口内的后续触发合并，在窗口结束时再执行一次。
// 约束：首调用经 go 启动，尾调用直接在计时器协程中执行，两者都不持有节流器锁；Stop 后不再执行。
// fn 自行读取最新的待处理尺寸，因此两条路径的先后不影响结果。
type throttler struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	stopped bool
}

func newThrottler(window time.Duration, fn func()) *throttler {
	return &throttler{window: window, fn: fn}
}

// Trigger：请求执行一次
func (t *throttler) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.timer != nil {
		t.pending = true
		return
	}
	t.timer = time.AfterFunc(t.window, t.tick)
	go t.fn()
}

func (t *throttler) tick() {
	t.mu.Lock()
	if t.stopped || !t.pending {
		t.timer = nil
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.timer = time.AfterFunc(t.window, t.tick)
	t.mu.Unlock()
	t.fn()
}

// Stop：取消待执行的尾调用
func (t *throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
