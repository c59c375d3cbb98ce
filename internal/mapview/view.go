// 包 mapview：台湾县市/乡镇分层地图视图，组合投影、离岛布局、图层渲染、标签、高亮与镜头
package mapview

import (
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"tw-vote-map/internal/camera"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/offshore"
	"tw-vote-map/internal/projection"
	"tw-vote-map/internal/scene"
)

// 场景元素类名
const (
	ClassRegionItem   = "region-item"
	ClassRegionPrefix = "region-"
	ClassPathPrefix   = "path-"
	ClassCountyPath   = "county-path"
	ClassTownshipPath = "township-path"
	ClassOffshoreBox  = "offshore-box"
	ClassBoxPrefix    = "box-"
	ClassInfoText     = "info-text"
	ClassCountyName   = "county-name"
	ClassTownshipName = "township-name"
	ClassHighlight    = "highlight-path"

	DefaultFill = "#ddd"
)

var (
	// ErrNotMounted：几何尚未挂载或视图已关闭
	ErrNotMounted = errors.New("map view not mounted")
	// ErrClosed：视图已关闭
	ErrClosed = errors.New("map view closed")
)

// ViewState：当前选区、缩放与视口
type ViewState struct {
	RegionCode   string
	DistrictCode string
	Zoom         float64
	Width        float64
	Height       float64
}

// Options：视图参数，零值字段取默认；CameraDuration 为负表示镜头无动画直接到位
type Options struct {
	Width          float64
	Height         float64
	OffshoreCodes  []string
	CameraDuration time.Duration
	FrameInterval  time.Duration
	ResizeThrottle time.Duration
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.OffshoreCodes == nil {
		o.OffshoreCodes = offshore.DefaultCodes
	}
	if o.CameraDuration < 0 {
		o.CameraDuration = 0
	} else if o.CameraDuration == 0 {
		o.CameraDuration = camera.Duration
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = camera.FrameTicker
	}
	if o.ResizeThrottle <= 0 {
		o.ResizeThrottle = 50 * time.Millisecond
	}
	return o
}

// 文档注释：地图视图
// 背景：持有一个场景文档与一份视图状态；外部交互（指针、选区、尺寸）以方法调用进入，选区事件以回调送出。
// 约束：所有场景修改在 mu 保护下进行；事件回调在释放锁之后调用，回调内可再次调用视图；
// OnChange 回调在持锁时调用，只能做非阻塞通知，不得回调视图。
type MapView struct {
	mu        sync.Mutex
	opts      Options
	doc       *scene.Document
	container *scene.Element
	proj      *projection.Manager
	layout    *offshore.Layout
	cam       *camera.Camera
	throttle  *throttler
	state     ViewState

	regions   []geo.GeoFeature
	districts []geo.GeoFeature
	colors    map[string]string

	mounted bool
	closed  bool
	gen     uint64

	hovered       *scene.Element
	highlightPath projection.Path
	pendingW      float64
	pendingH      float64

	outbox     []outEvent
	subID      int
	onRegion   map[int]func(string)
	onDistrict map[int]func(string)
	onChange   map[int]func()
}

type outEvent struct {
	district bool
	code     string
}

// New：创建空白视图，投影按初始视口完成首次计算
func New(opts Options) *MapView {
	opts = opts.withDefaults()
	v := &MapView{
		opts:       opts,
		doc:        scene.NewDocument(),
		proj:       projection.NewManager(),
		colors:     map[string]string{},
		onRegion:   map[int]func(string){},
		onDistrict: map[int]func(string){},
		onChange:   map[int]func(){},
		state: ViewState{
			RegionCode:   geo.RegionAll,
			DistrictCode: geo.DistrictAll,
			Zoom:         1,
			Width:        opts.Width,
			Height:       opts.Height,
		},
	}
	v.doc.SetSize(opts.Width, opts.Height)
	v.doc.Root.SetStyle("width", "100%").SetStyle("height", "100%")
	v.container = v.doc.Root.Append("g")
	v.container.SetTransform(scene.Identity)
	v.proj.Recompute(opts.Width, opts.Height)
	v.cam = camera.New(v.applyFrame, camera.WithFrameInterval(opts.FrameInterval))
	v.throttle = newThrottler(opts.ResizeThrottle, v.redraw)
	return v
}

// Mount：挂载几何并绘制县市图层；离岛布局只在首次挂载时计算
func (v *MapView) Mount(regions, districts []geo.GeoFeature) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.regions = regions
	v.districts = districts
	if v.layout == nil {
		v.layout = offshore.Compute(regions, v.opts.OffshoreCodes)
	}
	v.renderRegionLayer(regions)
	v.mounted = true
	v.changed()
	return nil
}

// Close：卸载视图，停止镜头与尺寸节流并释放订阅；重复调用无副作用
func (v *MapView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.mounted = false
	v.cam.Stop()
	v.throttle.Stop()
	v.hovered = nil
	v.outbox = nil
	v.onRegion = map[int]func(string){}
	v.onDistrict = map[int]func(string){}
	v.onChange = map[int]func(){}
}

// State：视图状态快照
func (v *MapView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Mounted：是否已挂载且未关闭
func (v *MapView) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// SVG：当前画面的 SVG 文本
func (v *MapView) SVG() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.SVG()
}

// WriteSVG：把当前画面写入 w
func (v *MapView) WriteSVG(w io.Writer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.WriteSVG(w)
}

// WritePNG：按当前视口尺寸栅格化
func (v *MapView) WritePNG(w io.Writer) error {
	v.mu.Lock()
	svg := v.doc.SVG()
	width, height := int(v.state.Width), int(v.state.Height)
	v.mu.Unlock()
	return scene.Rasterize(svg, width, height, w)
}

// OnRegionSelected：订阅“县市选中”事件，返回取消函数
func (v *MapView) OnRegionSelected(fn func(code string)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subID++
	id := v.subID
	v.onRegion[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.onRegion, id)
	}
}

// OnDistrictSelected：订阅“乡镇选中”事件，返回取消函数
func (v *MapView) OnDistrictSelected(fn func(code string)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subID++
	id := v.subID
	v.onDistrict[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.onDistrict, id)
	}
}

// OnChange：订阅画面变化通知，返回取消函数
func (v *MapView) OnChange(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subID++
	id := v.subID
	v.onChange[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.onChange, id)
	}
}

func (v *MapView) changed() {
	for _, fn := range v.onChange {
		fn()
	}
}

func (v *MapView) emitRegion(code string) {
	v.outbox = append(v.outbox, outEvent{code: code})
}

func (v *MapView) emitDistrict(code string) {
	v.outbox = append(v.outbox, outEvent{district: true, code: code})
}

// unlockAndFire：释放锁后派发积压事件
func (v *MapView) unlockAndFire() {
	events := v.outbox
	v.outbox = nil
	var regionFns, districtFns []func(string)
	for _, fn := range v.onRegion {
		regionFns = append(regionFns, fn)
	}
	for _, fn := range v.onDistrict {
		districtFns = append(districtFns, fn)
	}
	v.mu.Unlock()
	for _, ev := range events {
		fns := regionFns
		if ev.district {
			fns = districtFns
		}
		for _, fn := range fns {
			fn(ev.code)
		}
	}
}

// applyFrame：镜头帧回调，丢弃过期帧与关闭后的帧
func (v *MapView) applyFrame(f camera.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.cam.Valid(f.Seq) {
		return
	}
	v.container.SetTransform(f.Transform)
	v.changed()
}

// pathFor：离岛县市使用插图框投影，其余使用主投影
func (v *MapView) pathFor(regionCode string) projection.Path {
	return v.layout.PathFor(regionCode, v.proj.Path())
}

func (v *MapView) fillFor(code string) string {
	if c := v.colors[code]; c != "" {
		return c
	}
	return DefaultFill
}

func fmtNum(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func regionKey(f geo.GeoFeature) string   { return f.Properties.RegionCode }
func districtKey(f geo.GeoFeature) string { return f.Properties.DistrictCode }

func featureOf(e *scene.Element) (geo.GeoFeature, bool) {
	f, ok := e.Data.(geo.GeoFeature)
	return f, ok
}
