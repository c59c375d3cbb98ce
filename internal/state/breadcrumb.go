package state

import (
	"tw-vote-map/internal/geo"
)

// Heading：标题与面包屑
type Heading struct {
	Title      string   `json:"title"`
	Breadcrumb []string `json:"breadcrumb"`
}

// 文档注释：标题与面包屑
// 背景：全国层级标题为 CentralTitle 且无面包屑；县市层级为 [全国, 县市]；乡镇层级再追加乡镇。
// 约束：代码在几何中找不到时以 “Unknown ... Code: <code>” 占位，不报错。
func Breadcrumb(c *geo.Collection, sel Selection) Heading {
	if geo.IsAll(sel.Region) {
		return Heading{Title: CentralTitle, Breadcrumb: []string{}}
	}
	regionLabel := "Unknown Region Code: " + sel.Region
	if c != nil {
		if f, ok := c.FindRegion(sel.Region); ok {
			regionLabel = f.Properties.RegionName
		}
	}
	h := Heading{Title: regionLabel, Breadcrumb: []string{CentralTitle, regionLabel}}
	if geo.IsAll(sel.District) {
		return h
	}
	districtLabel := "Unknown District Code: " + sel.District
	if c != nil {
		if f, ok := c.FindDistrict(sel.District); ok && f.Properties.RegionCode == sel.Region {
			districtLabel = f.Properties.DistrictName
		}
	}
	h.Title = districtLabel
	h.Breadcrumb = append(h.Breadcrumb, districtLabel)
	return h
}
