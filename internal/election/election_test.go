package election

import (
	"strings"
	"testing"
)

const sample = `{
  "ELECTION_TITLE": "第16任總統副總統選舉",
  "ELECTION_TERM": 16,
  "ELECTION_GREGORIAN_YEAR": "2024",
  "CANDIDATES": [
    {"NO": 1, "PARTY": "TPP", "PRESIDENT": "柯文哲"},
    {"NO": 2, "PARTY": "DPP", "PRESIDENT": "賴清德"},
    {"NO": 3, "PARTY": "KMT", "PRESIDENT": "侯友宜"},
    {"NO": 4, "PARTY": "XYZ", "PRESIDENT": "某人"}
  ],
  "ADMIN_COLLECTION": [
    {"ADMIN_CODE": "63000", "CANDIDATES_VOTES": [{"NO": 1, "VOTE_COUNT": 10}, {"NO": 2, "VOTE_COUNT": 30}, {"NO": 3, "VOTE_COUNT": 20}]},
    {"ADMIN_CODE": "65000", "CANDIDATES_VOTES": [{"NO": 1, "VOTE_COUNT": 10}, {"NO": 2, "VOTE_COUNT": 20}, {"NO": 3, "VOTE_COUNT": 20}]},
    {"ADMIN_CODE": "10016", "CANDIDATES_VOTES": [{"NO": 1, "VOTE_COUNT": null}, {"NO": 3, "VOTE_COUNT": 5}]},
    {"ADMIN_CODE": "09020", "CANDIDATES_VOTES": [{"NO": 4, "VOTE_COUNT": 99}]},
    {"ADMIN_CODE": "09007", "CANDIDATES_VOTES": []}
  ]
}`

func TestColorConfig(t *testing.T) {
	info, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.GregorianYear != "2024" || info.Term == nil || *info.Term != 16 {
		t.Fatalf("header fields = %+v", info)
	}
	got := ColorConfig(info)
	want := map[string]string{
		"63000": "#57D2A9",
		"65000": "#57D2A9",
		"10016": "#8082FF",
		"09020": "",
	}
	if len(got) != len(want) {
		t.Fatalf("config = %v", got)
	}
	for code, c := range want {
		if got[code] != c {
			t.Errorf("%s = %q, want %q", code, got[code], c)
		}
	}
	if _, ok := got["09007"]; ok {
		t.Error("admin unit without votes should be skipped")
	}
}

func TestColorConfigNil(t *testing.T) {
	if len(ColorConfig(nil)) != 0 {
		t.Error("nil info should give an empty config")
	}
}

func TestMerge(t *testing.T) {
	base := ColorMap{"A": "#1", "B": "#2"}
	next := ColorMap{"B": "#3", "C": "#4"}
	got := Merge(base, next)
	if got["A"] != "#1" || got["B"] != "#3" || got["C"] != "#4" {
		t.Errorf("merge = %v", got)
	}
	if base["B"] != "#2" {
		t.Error("base must not be modified")
	}
}

func TestDecodeError(t *testing.T) {
	if _, err := Decode(strings.NewReader("{")); err == nil {
		t.Error("want error for truncated json")
	}
}

func TestYears(t *testing.T) {
	ys := Years()
	if len(ys) != 8 || ys[0] != "1996" || ys[7] != "2024" || LatestYear() != "2024" {
		t.Errorf("years = %v", ys)
	}
	if !ValidYear("2000") || ValidYear("2001") || ValidYear("") {
		t.Error("ValidYear mismatch")
	}
}
