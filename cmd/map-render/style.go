package main

import (
	"fmt"
	"os"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"

	"gopkg.in/yaml.v3"
)

// Style：渲染参数文件；命令行参数优先于文件
type Style struct {
	Year     string            `yaml:"year"`
	Region   string            `yaml:"region"`
	District string            `yaml:"district"`
	Width    float64           `yaml:"width"`
	Height   float64           `yaml:"height"`
	Colors   map[string]string `yaml:"colors"`
}

// DefaultStyle：最近一次选举、全部县市、800x600
func DefaultStyle() Style {
	return Style{
		Year:     election.LatestYear(),
		Region:   geo.RegionAll,
		District: geo.DistrictAll,
		Width:    800,
		Height:   600,
	}
}

// LoadStyle：读取 YAML 文件，缺省字段取 DefaultStyle
func LoadStyle(path string) (Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, fmt.Errorf("reading style: %w", err)
	}
	s := DefaultStyle()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Style{}, fmt.Errorf("parsing style: %w", err)
	}
	return s, nil
}

// Override：以命令行上显式给出的参数覆盖
func (s Style) Override(changed func(name string) bool, f Style) Style {
	if changed("year") {
		s.Year = f.Year
	}
	if changed("region") {
		s.Region = f.Region
	}
	if changed("district") {
		s.District = f.District
	}
	if changed("width") {
		s.Width = f.Width
	}
	if changed("height") {
		s.Height = f.Height
	}
	return s
}

// Validate：年份须为已举行的选举年份，尺寸须为正
func (s Style) Validate() error {
	if !election.ValidYear(s.Year) {
		return fmt.Errorf("invalid year %q", s.Year)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid size %gx%g", s.Width, s.Height)
	}
	return nil
}
