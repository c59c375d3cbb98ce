package projection

import "github.com/paulmach/orb"

// 文档注释：主地图投影管理
// 背景：视口尺寸变化时把投影平移重新对准视口中点，并重建绑定的路径生成器；缩放与中心固定。
// 约束：重算后此前生成的本岛路径数据全部失效，调用方需重绘本岛路径与标签。非并发安全，由持有者加锁。
type Manager struct {
	width  float64
	height float64
	base   Mercator
	path   Path
	ready  bool
}

// NewManager：以固定中心与基准缩放构造，尚未绑定视口
func NewManager() *Manager {
	return &Manager{base: NewMercator(orb.Point{CenterLon, CenterLat}, BaseScale)}
}

// Recompute：按视口尺寸重算平移与路径生成器
func (m *Manager) Recompute(width, height float64) {
	m.width = width
	m.height = height
	m.base = m.base.WithTranslate(orb.Point{width / 2, height / 2})
	m.path = NewPath(m.base)
	m.ready = true
}

// Ready：是否已完成首次重算
func (m *Manager) Ready() bool { return m.ready }

// Path：当前主路径生成器
func (m *Manager) Path() Path { return m.path }

// Viewport：当前视口尺寸
func (m *Manager) Viewport() (float64, float64) { return m.width, m.height }
