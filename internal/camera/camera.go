// 包 camera：地图镜头（平移缩放）状态与可中断的过渡动画
package camera

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"tw-vote-map/internal/scene"

	"github.com/paulmach/orb"
)

// 缩放范围与留白比例
const (
	MinScale    = 1.0
	MaxScale    = 25.0
	FillRatio   = 0.9
	Duration    = 500 * time.Millisecond
	FrameTicker = 16 * time.Millisecond
)

// ErrInterrupted：过渡被新的过渡或 Stop 打断
var ErrInterrupted = errors.New("camera transition interrupted")

// FitTransform：使包围盒居中并按 0.9 留白适配视口，缩放限制在 [1, 25]
func FitTransform(b orb.Bound, width, height float64) scene.Transform {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	cx := (b.Min[0] + b.Max[0]) / 2
	cy := (b.Min[1] + b.Max[1]) / 2
	k := math.Max(MinScale, math.Min(MaxScale, FillRatio/math.Max(dx/width, dy/height)))
	return scene.Transform{X: width/2 - k*cx, Y: height/2 - k*cy, K: k}
}

// Frame：一帧镜头变换，Seq 标识所属过渡
type Frame struct {
	Transform scene.Transform
	Seq       uint64
}

// 文档注释：镜头控制器
// 背景：选区切换时以 500ms 缓动过渡镜头；新的过渡立即打断进行中的过渡，并从当前插值状态出发，不排队。
// 约束：帧回调在动画协程中、且不持有镜头锁时调用，持有者须用 Valid(seq) 丢弃过期帧；Stop 后不再产生帧。
type Camera struct {
	mu       sync.Mutex
	current  scene.Transform
	active   *Transition
	seq      uint64
	stopped  bool
	interval time.Duration
	apply    func(Frame)
}

// Option：镜头选项
type Option func(*Camera)

// WithFrameInterval：帧间隔，默认约 60fps
func WithFrameInterval(d time.Duration) Option {
	return func(c *Camera) {
		if d > 0 {
			c.interval = d
		}
	}
}

// New：以单位变换构造镜头；apply 接收每一帧
func New(apply func(Frame), opts ...Option) *Camera {
	c := &Camera{current: scene.Identity, interval: FrameTicker, apply: apply}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Current：当前（可能处于插值中的）变换
func (c *Camera) Current() scene.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Valid：seq 是否仍为最新过渡且镜头未停止
func (c *Camera) Valid(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopped && seq == c.seq
}

// Animate：启动过渡并返回句柄；打断进行中的过渡
func (c *Camera) Animate(target scene.Transform, d time.Duration) *Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interruptLocked()
	c.seq++
	tr := &Transition{Seq: c.seq, Target: target, done: make(chan struct{})}
	if c.stopped {
		tr.finish(ErrInterrupted)
		return tr
	}
	c.active = tr
	go c.run(tr, c.current, d)
	return tr
}

// Jump：无动画直接设置变换，同样打断进行中的过渡；返回该帧序号
func (c *Camera) Jump(t scene.Transform) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interruptLocked()
	c.seq++
	c.current = t
	return c.seq
}

// Stop：终止进行中的过渡，之后的 Animate 立即以中断结束
func (c *Camera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.interruptLocked()
}

func (c *Camera) interruptLocked() {
	if c.active != nil {
		c.active.finish(ErrInterrupted)
		c.active = nil
	}
}

// run：动画协程，按帧间隔插值直至完成或被打断
func (c *Camera) run(tr *Transition, from scene.Transform, d time.Duration) {
	start := time.Now()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		t := 1.0
		if d > 0 {
			t = math.Min(1, float64(time.Since(start))/float64(d))
		}
		frame := tr.Target
		if t < 1 {
			frame = interpolate(from, tr.Target, EaseCubicInOut(t))
		}

		c.mu.Lock()
		if c.active != tr {
			c.mu.Unlock()
			return
		}
		c.current = frame
		if t >= 1 {
			c.active = nil
		}
		c.mu.Unlock()

		if c.apply != nil {
			c.apply(Frame{Transform: frame, Seq: tr.Seq})
		}
		if t >= 1 {
			tr.finish(nil)
			return
		}
		select {
		case <-ticker.C:
		case <-tr.done:
			return
		}
	}
}

// interpolate：平移与缩放分量线性插值
func interpolate(a, b scene.Transform, t float64) scene.Transform {
	return scene.Transform{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		K: a.K + (b.K-a.K)*t,
	}
}

// EaseCubicInOut：三次缓入缓出
func EaseCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// 文档注释：单次过渡句柄
// 背景：调用方在过渡结束后继续后续步骤（绘制乡镇层等），被打断时得到 ErrInterrupted。
// 约束：完成信号只发出一次。
type Transition struct {
	Seq    uint64
	Target scene.Transform

	once sync.Once
	done chan struct{}
	err  error
}

func (t *Transition) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done：过渡结束（完成或被打断）时关闭
func (t *Transition) Done() <-chan struct{} { return t.done }

// Err：结束原因，未结束时为 nil
func (t *Transition) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// End：等待过渡结束；ctx 取消时返回 ctx 错误
func (t *Transition) End(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
