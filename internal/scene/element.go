// 包 scene：保留式矢量场景树，承载地图的分组、路径、矩形与文字元素，可序列化为 SVG 或栅格化为 PNG
package scene

import (
	"strings"
)

// Event：派发给元素处理函数的交互事件
type Event struct {
	Type   string
	X, Y   float64
	Target *Element
}

// Handler：元素事件处理函数
type Handler func(Event)

// 文档注释：场景元素
// 背景：以键、类名、属性、样式、绑定数据与事件处理函数描述一个绘制节点，子节点顺序即绘制顺序（后绘制者在上层）。
// 约束：非并发安全，由场景持有者统一加锁；属性与样式按首次写入顺序输出，保证序列化结果确定。
type Element struct {
	Tag  string
	Key  string
	Text string
	Data any
	// Shape：命中测试所用的屏幕坐标几何（元素局部坐标系）
	Shape Shape

	classes   []string
	attrs     []kv
	styles    []kv
	transform *Transform
	handlers  map[string]Handler
	parent    *Element
	children  []*Element
}

type kv struct{ k, v string }

// NewElement：构造游离元素
func NewElement(tag string) *Element { return &Element{Tag: tag} }

// Append：追加子元素并返回
func (e *Element) Append(tag string) *Element {
	c := &Element{Tag: tag, parent: e}
	e.children = append(e.children, c)
	return c
}

// Parent：父元素；根或已移除元素返回 nil
func (e *Element) Parent() *Element { return e.parent }

// Children：子元素快照
func (e *Element) Children() []*Element { return append([]*Element(nil), e.children...) }

// Remove：从父元素摘除
func (e *Element) Remove() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Raise：移动到兄弟元素末尾，即绘制在最上层
func (e *Element) Raise() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	p.children = append(p.children, e)
}

// SetClass：以空格分隔的类名整体替换
func (e *Element) SetClass(class string) *Element {
	e.classes = strings.Fields(class)
	return e
}

// HasClass：是否包含类名
func (e *Element) HasClass(class string) bool {
	for _, c := range e.classes {
		if c == class {
			return true
		}
	}
	return false
}

// Class：类名文本
func (e *Element) Class() string { return strings.Join(e.classes, " ") }

// SetAttr：设置属性，已存在则原位更新
func (e *Element) SetAttr(k, v string) *Element {
	e.attrs = set(e.attrs, k, v)
	return e
}

// Attr：读取属性
func (e *Element) Attr(k string) string { return get(e.attrs, k) }

// SetStyle：设置内联样式
func (e *Element) SetStyle(k, v string) *Element {
	e.styles = set(e.styles, k, v)
	return e
}

// Style：读取内联样式
func (e *Element) Style(k string) string { return get(e.styles, k) }

// SetTransform：设置平移缩放变换，同时用于序列化与命中测试
func (e *Element) SetTransform(t Transform) *Element {
	e.transform = &t
	return e
}

// Transform：当前变换，未设置时为单位变换
func (e *Element) Transform() Transform {
	if e.transform == nil {
		return Identity
	}
	return *e.transform
}

// On：注册事件处理函数，nil 表示移除
func (e *Element) On(event string, h Handler) *Element {
	if h == nil {
		delete(e.handlers, event)
		return e
	}
	if e.handlers == nil {
		e.handlers = map[string]Handler{}
	}
	e.handlers[event] = h
	return e
}

// Handler：读取事件处理函数
func (e *Element) Handler(event string) Handler { return e.handlers[event] }

// SelectAll：按深度优先顺序收集带指定类名的后代元素
func (e *Element) SelectAll(class string) []*Element {
	return e.Find(func(x *Element) bool { return x.HasClass(class) })
}

// SelectTag：按标签收集后代元素
func (e *Element) SelectTag(tag string) []*Element {
	return e.Find(func(x *Element) bool { return x.Tag == tag })
}

// Select：第一个带指定类名的后代元素
func (e *Element) Select(class string) *Element {
	if all := e.SelectAll(class); len(all) > 0 {
		return all[0]
	}
	return nil
}

// Find：按谓词收集后代元素（不含自身）
func (e *Element) Find(pred func(*Element) bool) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(x *Element) {
		for _, c := range x.children {
			if pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

func set(list []kv, k, v string) []kv {
	for i := range list {
		if list[i].k == k {
			list[i].v = v
			return list
		}
	}
	return append(list, kv{k, v})
}

func get(list []kv, k string) string {
	for _, it := range list {
		if it.k == k {
			return it.v
		}
	}
	return ""
}
