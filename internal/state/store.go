package state

import (
	"tw-vote-map/internal/geo"
)

// CentralTitle：全国层级标题
const CentralTitle = "全臺縣市總統得票"

// Selection：一次完整的选区快照
type Selection struct {
	Year     string
	Region   string
	District string
}

// 文档注释：选区状态
// 背景：年份、县市、乡镇三个独立主题；切换县市时乡镇重置为“全部”，乡镇只在所属县市内有意义。
type Store struct {
	Year     *Subject[string]
	Region   *Subject[string]
	District *Subject[string]
}

// NewStore：初始为指定年份、全部县市、全部乡镇
func NewStore(year string) *Store {
	return &Store{
		Year:     NewSubject(year),
		Region:   NewSubject(geo.RegionAll),
		District: NewSubject(geo.DistrictAll),
	}
}

// Snapshot：当前选区
func (s *Store) Snapshot() Selection {
	return Selection{Year: s.Year.Get(), Region: s.Region.Get(), District: s.District.Get()}
}

// SetYear：切换年份
func (s *Store) SetYear(year string) bool { return s.Year.Set(year) }

// SetRegion：切换县市并把乡镇重置为“全部”；空值视为“全部”
func (s *Store) SetRegion(code string) bool {
	if code == "" {
		code = geo.RegionAll
	}
	s.District.Set(geo.DistrictAll)
	return s.Region.Set(code)
}

// SetDistrict：切换乡镇；空值视为“全部”
func (s *Store) SetDistrict(code string) bool {
	if code == "" {
		code = geo.DistrictAll
	}
	return s.District.Set(code)
}

// SelectAdmin：点选下一层级的行政区；全国层级时选县市，县市层级时选乡镇，乡镇层级忽略
func (s *Store) SelectAdmin(code string) bool {
	if geo.IsAll(s.Region.Get()) {
		return s.SetRegion(code)
	}
	if geo.IsAll(s.District.Get()) {
		return s.SetDistrict(code)
	}
	return false
}

// Back：返回上一层级：乡镇 → 县市 → 全国；已在全国层级时返回 false
func (s *Store) Back() bool {
	if !geo.IsAll(s.District.Get()) {
		return s.SetDistrict(geo.DistrictAll)
	}
	if !geo.IsAll(s.Region.Get()) {
		return s.SetRegion(geo.RegionAll)
	}
	return false
}
