package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// 文档注释：SVG 栅格化为 PNG
// 背景：为缩略图与不支持 SVG 的客户端提供位图快照。
// 约束：栅格器不支持文字，标签在 PNG 中省略；width/height 为输出像素尺寸。
func Rasterize(svg []byte, width, height int, w io.Writer) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return fmt.Errorf("failed to parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)
	return png.Encode(w, rgba)
}

// PNG：文档栅格化的便捷入口
func (d *Document) PNG(width, height int, w io.Writer) error {
	return Rasterize(d.SVG(), width, height, w)
}
