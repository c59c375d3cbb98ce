package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStyleDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "style.yaml")
	body := "region: \"63000\"\nwidth: 1200\ncolors:\n  \"63000\": \"#ff0000\"\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStyle(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Region != "63000" || s.Width != 1200 || s.Height != 600 || s.Year != "2024" {
		t.Errorf("style = %+v", s)
	}
	if s.Colors["63000"] != "#ff0000" {
		t.Errorf("colors = %v", s.Colors)
	}
}

func TestLoadStyleErrors(t *testing.T) {
	if _, err := LoadStyle(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("want error for missing file")
	}
	p := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(p, []byte("width: [1, 2"), 0o644)
	if _, err := LoadStyle(p); err == nil {
		t.Error("want error for malformed yaml")
	}
}

func TestOverrideOnlyChangedFlags(t *testing.T) {
	base := DefaultStyle()
	flags := Style{Year: "2000", Width: 50}
	changed := func(name string) bool { return name == "year" }
	got := base.Override(changed, flags)
	if got.Year != "2000" || got.Width != 800 {
		t.Errorf("override = %+v", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		s    Style
		ok   bool
	}{
		{"default", DefaultStyle(), true},
		{"off year", Style{Year: "2001", Width: 1, Height: 1}, false},
		{"zero size", Style{Year: "2024"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.s.Validate(); (err == nil) != c.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, c.ok)
			}
		})
	}
}
