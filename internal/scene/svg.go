package scene

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// Document：场景根节点，根元素为 svg
type Document struct {
	Root *Element
}

// NewDocument：构造空白文档
func NewDocument() *Document {
	root := NewElement("svg")
	root.SetAttr("xmlns", "http://www.w3.org/2000/svg")
	return &Document{Root: root}
}

// SetSize：设置画布尺寸与 viewBox
func (d *Document) SetSize(w, h float64) {
	d.Root.SetAttr("width", num(w))
	d.Root.SetAttr("height", num(h))
	d.Root.SetAttr("viewBox", "0 0 "+num(w)+" "+num(h))
}

// WriteSVG：序列化为 SVG 文本
// 约束：输出顺序固定为 class、属性、transform、style；仅输出元素本身，不含 XML 声明
func (d *Document) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	writeElement(bw, d.Root)
	return bw.Flush()
}

// SVG：序列化为字节切片
func (d *Document) SVG() []byte {
	var buf bytes.Buffer
	_ = d.WriteSVG(&buf)
	return buf.Bytes()
}

func writeElement(w *bufio.Writer, e *Element) {
	w.WriteByte('<')
	w.WriteString(e.Tag)
	if len(e.classes) > 0 {
		writeAttr(w, "class", e.Class())
	}
	for _, a := range e.attrs {
		writeAttr(w, a.k, a.v)
	}
	if e.transform != nil {
		writeAttr(w, "transform", e.transform.String())
	}
	if len(e.styles) > 0 {
		var sb strings.Builder
		for i, s := range e.styles {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(s.k)
			sb.WriteString(": ")
			sb.WriteString(s.v)
			sb.WriteByte(';')
		}
		writeAttr(w, "style", sb.String())
	}
	if len(e.children) == 0 && e.Text == "" {
		w.WriteString("/>")
		return
	}
	w.WriteByte('>')
	if e.Text != "" {
		_ = xml.EscapeText(w, []byte(e.Text))
	}
	for _, c := range e.children {
		writeElement(w, c)
	}
	w.WriteString("</")
	w.WriteString(e.Tag)
	w.WriteByte('>')
}

func writeAttr(w *bufio.Writer, k, v string) {
	w.WriteByte(' ')
	w.WriteString(k)
	w.WriteString(`="`)
	_ = xml.EscapeText(w, []byte(v))
	w.WriteByte('"')
}
