package api

import (
	"container/list"
	"sync"
	"time"
)

// 文档注释：快照 LRU 缓存（格式/年份/选区/尺寸为键）
// 背景：首页与分享链接集中在少数选区组合，进程内缓存渲染结果避免重复投影与栅格化；TTL 可调。
// 约束：值为只读字节切片，调用方不得修改；容量按条目计，不按字节计。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
}

type kv struct {
	k   string
	v   []byte
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element)}
}

func (c *LRU) Get(k string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if time.Now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return it.v, true
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return nil, false
}

func (c *LRU) Set(k string, v []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		e.Value = kv{k: k, v: v, exp: time.Now().Add(c.ttl)}
		c.lst.MoveToFront(e)
		return
	}
	e := c.lst.PushFront(kv{k: k, v: v, exp: time.Now().Add(c.ttl)})
	c.dict[k] = e
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back != nil {
			it := back.Value.(kv)
			delete(c.dict, it.k)
			c.lst.Remove(back)
		}
	}
}

// Purge：清空缓存，着色表更新后调用
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lst.Init()
	c.dict = make(map[string]*list.Element)
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
