// 包 state：地图选区状态容器（年份、县市、乡镇），以订阅通知驱动视图与标题
package state

import (
	"sort"
	"sync"
)

// 文档注释：带当前值的可订阅状态
// 背景：新订阅者立即收到当前值；值未变化时不通知。
// 约束：回调在 Set 调用方的协程中、释放锁之后依次执行；回调内可再次 Set。
type Subject[T comparable] struct {
	mu     sync.Mutex
	value  T
	nextID int
	subs   map[int]func(T)
}

// NewSubject：以初始值构造
func NewSubject[T comparable](initial T) *Subject[T] {
	return &Subject[T]{value: initial, subs: map[int]func(T){}}
}

// Get：当前值
func (s *Subject[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set：更新值；与当前值相同则忽略并返回 false
func (s *Subject[T]) Set(v T) bool {
	s.mu.Lock()
	if s.value == v {
		s.mu.Unlock()
		return false
	}
	s.value = v
	fns := s.snapshot()
	s.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
	return true
}

func (s *Subject[T]) snapshot() []func(T) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	// 按订阅顺序通知
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

// Subscribe：注册回调并立即以当前值调用一次
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	v := s.value
	s.mu.Unlock()
	fn(v)
	return &Subscription{cancel: func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}}
}

// Subscription：订阅句柄
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe：取消订阅；重复调用无副作用
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}
