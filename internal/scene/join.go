package scene

// 文档注释：按键对齐的数据连接
// 背景：把期望数据集与父元素下已绘制的同类元素按键比对：多余的移除，已有的原位更新，缺失的追加，
// 等价于 enter/update/exit 三段式渲染。
// 约束：只比对父元素的直接子元素中带 Class 的部分；返回值与 items 顺序一致；重复键只保留首个。
type JoinSpec[T any] struct {
	Tag    string
	Class  string
	Key    func(T) string
	Enter  func(*Element, T)
	Update func(*Element, T)
}

// Join：执行连接并返回与 items 对应的元素
func Join[T any](parent *Element, items []T, js JoinSpec[T]) []*Element {
	existing := map[string]*Element{}
	var stale []*Element
	for _, c := range parent.children {
		if !c.HasClass(js.Class) {
			continue
		}
		if _, dup := existing[c.Key]; dup {
			stale = append(stale, c)
			continue
		}
		existing[c.Key] = c
	}
	want := make(map[string]bool, len(items))
	for _, it := range items {
		want[js.Key(it)] = true
	}
	for k, c := range existing {
		if !want[k] {
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		c.Remove()
	}
	out := make([]*Element, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := js.Key(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		el, ok := existing[k]
		if !ok || el.parent != parent {
			el = parent.Append(js.Tag)
			el.Key = k
			el.SetClass(js.Class)
			if js.Enter != nil {
				js.Enter(el, it)
			}
		}
		el.Data = it
		if js.Update != nil {
			js.Update(el, it)
		}
		out = append(out, el)
	}
	return out
}
