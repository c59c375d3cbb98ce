// 包 session：WebSocket 互动地图会话；每个连接持有一个地图视图与一份选区状态，推送重绘后的 SVG 画面
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/mapview"
	"tw-vote-map/internal/metrics"
	"tw-vote-map/internal/state"
	"tw-vote-map/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 20 * time.Second
	writeTimeout = 5 * time.Second
	readLimit    = 4096
)

// RegionLocator：按访客 IP 推断初始县市
type RegionLocator interface {
	Region(ip string) (string, bool)
}

// StatsRecorder：会话计数
type StatsRecorder interface {
	IncrStats(ctx context.Context, kind string) error
}

// 文档注释：会话配置
// 背景：几何在进程启动时加载一次，所有会话共享只读；着色表来源通常为带缓存的数据库或本地目录。
// 约束：Geo 为 nil 时视图保持空白，会话仍可建立；Colors 为 nil 时不着色。
type Config struct {
	Geo           *geo.Collection
	Colors        store.ColorSource
	Locator       RegionLocator
	Stats         StatsRecorder
	View          mapview.Options
	Year          string
	FrameInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Year == "" {
		c.Year = election.LatestYear()
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = 33 * time.Millisecond
	}
	return c
}

// Session：单个连接的会话
type Session struct {
	ID    string
	cfg   Config
	conn  *websocket.Conn
	view  *mapview.MapView
	store *state.Store

	ctx    context.Context
	cancel context.CancelFunc

	dirty chan struct{}
	out   chan any

	closeOnce sync.Once
	subs      []*state.Subscription
	unsubs    []func()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// 文档注释：WebSocket 入口
// 背景：升级连接后创建会话并阻塞运行到连接关闭；clientIP 用于按 IP 预选县市。
func Handler(cfg Config, clientIP func(*http.Request) string) http.Handler {
	cfg = cfg.withDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.L().Warn("session_upgrade_error", "err", err)
			return
		}
		ip := ""
		if clientIP != nil {
			ip = clientIP(r)
		}
		s := newSession(r.Context(), conn, cfg)
		s.Run(ip)
	})
}

func newSession(parent context.Context, conn *websocket.Conn, cfg Config) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:     uuid.NewString(),
		cfg:    cfg,
		conn:   conn,
		view:   mapview.New(cfg.View),
		store:  state.NewStore(cfg.Year),
		ctx:    ctx,
		cancel: cancel,
		dirty:  make(chan struct{}, 1),
		out:    make(chan any, 64),
	}
	return s
}

// Run：挂载视图、建立订阅并处理消息直到连接关闭
func (s *Session) Run(ip string) {
	l := logger.L().With("session", s.ID)
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	l.Info("session_open", "ip", ip)
	if s.cfg.Stats != nil {
		_ = s.cfg.Stats.IncrStats(s.ctx, store.StatSession)
	}

	if s.cfg.Geo != nil {
		if err := s.view.Mount(s.cfg.Geo.Regions, s.cfg.Geo.Districts); err != nil {
			l.Error("session_mount_error", "err", err)
		}
	}
	s.wire()
	if s.cfg.Locator != nil && ip != "" {
		if code, ok := s.cfg.Locator.Region(ip); ok {
			l.Debug("session_preselect", "region", code)
			s.store.SetRegion(code)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()
	s.readLoop()
	s.Close()
	wg.Wait()
	l.Info("session_close")
}

// wire：视图事件写入选区状态，选区状态变化驱动视图并通知客户端
func (s *Session) wire() {
	s.unsubs = append(s.unsubs,
		s.view.OnChange(s.markDirty),
		s.view.OnRegionSelected(func(code string) { s.store.SetRegion(code) }),
		s.view.OnDistrictSelected(func(code string) { s.store.SetDistrict(code) }),
	)
	s.subs = append(s.subs,
		s.store.Year.Subscribe(s.onYear),
		s.store.District.Subscribe(s.onDistrict),
		s.store.Region.Subscribe(s.onRegion),
	)
}

func (s *Session) onRegion(code string) {
	done := s.view.StartSelectRegion(s.ctx, code)
	go func() {
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mapview.ErrNotMounted) {
			logger.L().Warn("session_select_error", "session", s.ID, "region", code, "err", err)
		}
	}()
	s.send(OutMessage{Type: MsgRegionSelected, Code: code})
	s.sendTitle()
}

func (s *Session) onDistrict(code string) {
	_ = s.view.SelectDistrict(code)
	s.send(OutMessage{Type: MsgDistrictSelected, Code: code})
	s.sendTitle()
}

// onYear：切换年份时先清空着色，再异步载入新年份的着色表；载入期间年份再次变化则丢弃结果
func (s *Session) onYear(year string) {
	s.view.SetColors(nil)
	if s.cfg.Colors == nil {
		return
	}
	go func() {
		colors, err := s.cfg.Colors.Colors(s.ctx, year)
		if err != nil {
			logger.L().Warn("session_colors_error", "session", s.ID, "year", year, "err", err)
			return
		}
		if s.store.Year.Get() != year {
			return
		}
		s.view.SetColors(colors)
		s.send(OutMessage{Type: MsgColors, Year: year})
	}()
}

func (s *Session) sendTitle() {
	h := state.Breadcrumb(s.cfg.Geo, s.store.Snapshot())
	s.send(TitleMessage{Type: MsgTitle, Heading: h})
}

// markDirty：在视图锁内调用，只做非阻塞通知
func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Session) send(msg any) {
	select {
	case s.out <- msg:
	case <-s.ctx.Done():
	}
}

// Handle：处理一条客户端消息
func (s *Session) Handle(msg InMessage) {
	label := msg.Type
	if !knownType(label) {
		label = "unknown"
	}
	metrics.SessionMessagesTotal.WithLabelValues(label).Inc()
	switch msg.Type {
	case MsgResize:
		s.view.Resize(msg.Width, msg.Height)
	case MsgPointerMove:
		s.view.PointerMove(msg.X, msg.Y)
	case MsgPointerLeave:
		s.view.PointerLeave()
	case MsgClick:
		s.view.Click(msg.X, msg.Y)
	case MsgDispatch:
		s.view.Dispatch(msg.Key, msg.Event)
	case MsgSelectRegion:
		s.store.SetRegion(msg.Code)
	case MsgSelectDistrict:
		s.store.SetDistrict(msg.Code)
	case MsgYear:
		if election.ValidYear(msg.Year) {
			s.store.SetYear(msg.Year)
		}
	case MsgBack:
		s.store.Back()
	default:
		logger.L().Debug("session_unknown_message", "session", s.ID, "type", msg.Type)
	}
}

func (s *Session) readLoop() {
	s.conn.SetReadLimit(readLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.L().Debug("session_read_error", "session", s.ID, "err", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		var msg InMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.L().Debug("session_bad_message", "session", s.ID, "err", err)
			continue
		}
		s.Handle(msg)
	}
}

// 文档注释：唯一写协程
// 背景：连接只允许一个并发写者；画面变化合并为“脏”标记，按 FrameInterval 节流推送最新 SVG，事件消息按到达顺序立即发送。
func (s *Session) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	var last time.Time
	var pending <-chan time.Time
	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
			return
		case msg := <-s.out:
			if err := s.writeJSON(msg); err != nil {
				s.Close()
				return
			}
		case <-s.dirty:
			if pending != nil {
				continue
			}
			wait := s.cfg.FrameInterval - time.Since(last)
			if wait < 0 {
				wait = 0
			}
			pending = time.After(wait)
		case <-pending:
			pending = nil
			last = time.Now()
			if err := s.writeJSON(OutMessage{Type: MsgFrame, SVG: string(s.view.SVG())}); err != nil {
				s.Close()
				return
			}
			metrics.FramesSentTotal.Inc()
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				s.Close()
				return
			}
		}
	}
}

func (s *Session) writeJSON(v any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// Close：取消订阅并卸载视图；重复调用无副作用
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		for _, sub := range s.subs {
			sub.Unsubscribe()
		}
		for _, fn := range s.unsubs {
			fn()
		}
		s.view.Close()
		_ = s.conn.Close()
	})
}
