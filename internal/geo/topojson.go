package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	// ErrObjectNotFound：拓扑文件中不存在指定对象名
	ErrObjectNotFound = errors.New("topology object not found")
	// ErrUnsupportedPayload：既不是 Topology 也不是 FeatureCollection
	ErrUnsupportedPayload = errors.New("unsupported geometry payload")
)

type topology struct {
	Type      string                     `json:"type"`
	Transform *topoTransform             `json:"transform"`
	Arcs      [][][]float64              `json:"arcs"`
	Objects   map[string]json.RawMessage `json:"objects"`
}

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoGeometry struct {
	Type       string          `json:"type"`
	Arcs       json.RawMessage `json:"arcs"`
	Geometries []topoGeometry  `json:"geometries"`
	Properties map[string]any  `json:"properties"`
}

// 文档注释：解码几何载荷为要素序列
// 背景：县市与乡镇边界以 TopoJSON 发布，本地调试时也可能直接提供 GeoJSON；两种格式统一在此分派。
// 约束：仅保留 Polygon/MultiPolygon 几何，其他类型与 null 几何以空几何保留属性；objectName 仅对 Topology 生效。
func DecodeFeatures(payload []byte, objectName string) ([]GeoFeature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, fmt.Errorf("decode payload head: %w", err)
	}
	switch strings.ToLower(head.Type) {
	case "topology":
		var t topology
		if err := json.Unmarshal(payload, &t); err != nil {
			return nil, fmt.Errorf("decode topology: %w", err)
		}
		return t.features(objectName)
	case "featurecollection":
		fc, err := geojson.UnmarshalFeatureCollection(payload)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		out := make([]GeoFeature, 0, len(fc.Features))
		for _, f := range fc.Features {
			out = append(out, GeoFeature{Geometry: asMultiPolygon(f.Geometry), Properties: NewLocationInfo(f.Properties)})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedPayload, head.Type)
}

func asMultiPolygon(g orb.Geometry) orb.MultiPolygon {
	switch v := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}
	case orb.MultiPolygon:
		return v
	}
	return nil
}

// features：按对象名提取要素；GeometryCollection 展开为多个要素
func (t *topology) features(objectName string) ([]GeoFeature, error) {
	raw, ok := t.Objects[objectName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
	}
	var obj topoGeometry
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", objectName, err)
	}
	arcs := t.absoluteArcs()
	geoms := []topoGeometry{obj}
	if strings.EqualFold(obj.Type, "GeometryCollection") {
		geoms = obj.Geometries
	}
	out := make([]GeoFeature, 0, len(geoms))
	for _, g := range geoms {
		mp, err := g.multiPolygon(arcs)
		if err != nil {
			return nil, err
		}
		out = append(out, GeoFeature{Geometry: mp, Properties: NewLocationInfo(g.Properties)})
	}
	return out, nil
}

// absoluteArcs：量化坐标按增量解码并还原为经纬度
func (t *topology) absoluteArcs() [][]orb.Point {
	out := make([][]orb.Point, len(t.Arcs))
	for i, arc := range t.Arcs {
		pts := make([]orb.Point, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t.Transform == nil {
				pts = append(pts, orb.Point{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, orb.Point{
				x*t.Transform.Scale[0] + t.Transform.Translate[0],
				y*t.Transform.Scale[1] + t.Transform.Translate[1],
			})
		}
		out[i] = pts
	}
	return out
}

func (g topoGeometry) multiPolygon(arcs [][]orb.Point) (orb.MultiPolygon, error) {
	switch strings.ToLower(g.Type) {
	case "polygon":
		var rings [][]int
		if err := json.Unmarshal(g.Arcs, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon arcs: %w", err)
		}
		poly, err := stitchPolygon(rings, arcs)
		if err != nil {
			return nil, err
		}
		return orb.MultiPolygon{poly}, nil
	case "multipolygon":
		var polys [][][]int
		if err := json.Unmarshal(g.Arcs, &polys); err != nil {
			return nil, fmt.Errorf("decode multipolygon arcs: %w", err)
		}
		mp := make(orb.MultiPolygon, 0, len(polys))
		for _, rings := range polys {
			poly, err := stitchPolygon(rings, arcs)
			if err != nil {
				return nil, err
			}
			mp = append(mp, poly)
		}
		return mp, nil
	}
	return nil, nil
}

func stitchPolygon(rings [][]int, arcs [][]orb.Point) (orb.Polygon, error) {
	poly := make(orb.Polygon, 0, len(rings))
	for _, idx := range rings {
		r, err := stitchRing(idx, arcs)
		if err != nil {
			return nil, err
		}
		poly = append(poly, r)
	}
	return poly, nil
}

// stitchRing：按弧索引拼接环；负索引 ~i 表示反向引用，相邻弧共享端点只保留一次
func stitchRing(idx []int, arcs [][]orb.Point) (orb.Ring, error) {
	var ring orb.Ring
	for _, i := range idx {
		reverse := i < 0
		if reverse {
			i = ^i
		}
		if i >= len(arcs) {
			return nil, fmt.Errorf("arc index %d out of range", i)
		}
		arc := arcs[i]
		if len(ring) > 0 {
			ring = ring[:len(ring)-1]
		}
		if reverse {
			for k := len(arc) - 1; k >= 0; k-- {
				ring = append(ring, arc[k])
			}
		} else {
			ring = append(ring, arc...)
		}
	}
	for len(ring) > 0 && len(ring) < 4 {
		ring = append(ring, ring[0])
	}
	return ring, nil
}
