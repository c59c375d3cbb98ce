package geo

import (
	"strconv"

	"github.com/paulmach/orb"
)

// 文档注释：行政区地理要素（县市或乡镇市区）
// 背景：统一承载边界几何与内政部属性；由拓扑文件一次性解码得到，渲染期只读共享。
// 约束：几何统一为 MultiPolygon（Polygon 包装为单元素）；空几何为 nil；构造后不得修改。
type GeoFeature struct {
	Geometry   orb.MultiPolygon
	Properties LocationInfo
}

// LocationInfo：要素属性，字段对应 COUNTYCODE/COUNTYNAME/TOWNCODE 等原始键
type LocationInfo struct {
	RegionCode         string `json:"COUNTYCODE"`
	RegionNameEnglish  string `json:"COUNTYENG"`
	RegionID           string `json:"COUNTYID"`
	RegionName         string `json:"COUNTYNAME"`
	Note               string `json:"NOTE"`
	DistrictCode       string `json:"TOWNCODE"`
	DistrictID         string `json:"TOWNID"`
	DistrictName       string `json:"TOWNNAME"`
	VillageCode        string `json:"VILLCODE"`
	VillageNameEnglish string `json:"VILLENG"`
	VillageName        string `json:"VILLNAME"`
}

// IsRegionLevel：乡镇代码为空即为县市层级要素
func (p LocationInfo) IsRegionLevel() bool { return p.DistrictCode == "" }

// NewLocationInfo：将原始属性袋归一为 LocationInfo，缺失字段填空串
func NewLocationInfo(props map[string]any) LocationInfo {
	return LocationInfo{
		RegionCode:         getStr(props, "COUNTYCODE"),
		RegionNameEnglish:  getStr(props, "COUNTYENG"),
		RegionID:           getStr(props, "COUNTYID"),
		RegionName:         getStr(props, "COUNTYNAME"),
		Note:               getStr(props, "NOTE"),
		DistrictCode:       getStr(props, "TOWNCODE"),
		DistrictID:         getStr(props, "TOWNID"),
		DistrictName:       getStr(props, "TOWNNAME"),
		VillageCode:        getStr(props, "VILLCODE"),
		VillageNameEnglish: getStr(props, "VILLENG"),
		VillageName:        getStr(props, "VILLNAME"),
	}
}

// getStr：读取字符串属性；数值按十进制文本输出，其余类型视为缺失
func getStr(m map[string]any, k string) string {
	switch v := m[k].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Option：下拉选项（名称 + 代码）
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
