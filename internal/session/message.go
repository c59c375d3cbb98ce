package session

import "tw-vote-map/internal/state"

// 客户端消息类型
const (
	MsgResize         = "resize"
	MsgPointerMove    = "pointermove"
	MsgPointerLeave   = "pointerleave"
	MsgClick          = "click"
	MsgDispatch       = "dispatch"
	MsgSelectRegion   = "select_region"
	MsgSelectDistrict = "select_district"
	MsgYear           = "year"
	MsgBack           = "back"
)

// 服务端消息类型
const (
	MsgFrame            = "frame"
	MsgRegionSelected   = "region_selected"
	MsgDistrictSelected = "district_selected"
	MsgTitle            = "title"
	MsgColors           = "colors"
)

// InMessage：客户端消息，按 Type 取用对应字段
type InMessage struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Key    string  `json:"key,omitempty"`
	Event  string  `json:"event,omitempty"`
	Code   string  `json:"code,omitempty"`
	Year   string  `json:"year,omitempty"`
}

// OutMessage：画面与选区事件
type OutMessage struct {
	Type string `json:"type"`
	SVG  string `json:"svg,omitempty"`
	Code string `json:"code,omitempty"`
	Year string `json:"year,omitempty"`
}

// TitleMessage：标题与面包屑；全国层级时面包屑为空数组
type TitleMessage struct {
	Type string `json:"type"`
	state.Heading
}

func knownType(t string) bool {
	switch t {
	case MsgResize, MsgPointerMove, MsgPointerLeave, MsgClick, MsgDispatch,
		MsgSelectRegion, MsgSelectDistrict, MsgYear, MsgBack:
		return true
	}
	return false
}
