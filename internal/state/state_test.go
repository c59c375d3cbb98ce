package state

import (
	"reflect"
	"testing"

	"tw-vote-map/internal/geo"
)

func TestSubjectDistinctUntilChanged(t *testing.T) {
	s := NewSubject("a")
	var got []string
	sub := s.Subscribe(func(v string) { got = append(got, v) })
	s.Set("a")
	s.Set("b")
	s.Set("b")
	s.Set("c")
	sub.Unsubscribe()
	sub.Unsubscribe()
	s.Set("d")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("notifications = %v", got)
	}
	if s.Get() != "d" {
		t.Errorf("value = %q", s.Get())
	}
}

func TestSubjectReentrantSet(t *testing.T) {
	s := NewSubject(0)
	s.Subscribe(func(v int) {
		if v == 1 {
			s.Set(2)
		}
	})
	s.Set(1)
	if s.Get() != 2 {
		t.Errorf("value = %d, want 2", s.Get())
	}
}

func TestStoreRegionResetsDistrict(t *testing.T) {
	st := NewStore("2024")
	st.SetRegion(geo.RegionA)
	st.SetDistrict("63000010")
	var districts []string
	st.District.Subscribe(func(v string) { districts = append(districts, v) })
	st.SetRegion(geo.RegionB)
	want := Selection{Year: "2024", Region: geo.RegionB, District: geo.DistrictAll}
	if got := st.Snapshot(); got != want {
		t.Errorf("snapshot = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(districts, []string{"63000010", geo.DistrictAll}) {
		t.Errorf("district notifications = %v", districts)
	}
}

func TestStoreBack(t *testing.T) {
	st := NewStore("2020")
	st.SetRegion(geo.RegionA)
	st.SetDistrict("63000010")

	if !st.Back() || st.Snapshot().District != geo.DistrictAll || st.Snapshot().Region != geo.RegionA {
		t.Fatalf("first back: %+v", st.Snapshot())
	}
	if !st.Back() || st.Snapshot().Region != geo.RegionAll {
		t.Fatalf("second back: %+v", st.Snapshot())
	}
	if st.Back() {
		t.Error("back at the top level should report false")
	}
}

func TestStoreSelectAdmin(t *testing.T) {
	st := NewStore("2024")
	st.SelectAdmin(geo.RegionA)
	st.SelectAdmin("63000020")
	if got := st.Snapshot(); got.Region != geo.RegionA || got.District != "63000020" {
		t.Fatalf("snapshot = %+v", got)
	}
	if st.SelectAdmin("63000010") {
		t.Error("district level should ignore further drill-down")
	}
}

func TestBreadcrumb(t *testing.T) {
	c := &geo.Collection{
		Regions: []geo.GeoFeature{{Properties: geo.LocationInfo{RegionCode: geo.RegionA, RegionName: "臺北市"}}},
		Districts: []geo.GeoFeature{{Properties: geo.LocationInfo{
			RegionCode: geo.RegionA, DistrictCode: "63000010", DistrictName: "松山區",
		}}},
	}
	cases := []struct {
		name string
		sel  Selection
		want Heading
	}{
		{"central", Selection{Region: geo.RegionAll, District: geo.DistrictAll},
			Heading{Title: CentralTitle, Breadcrumb: []string{}}},
		{"region", Selection{Region: geo.RegionA, District: geo.DistrictAll},
			Heading{Title: "臺北市", Breadcrumb: []string{CentralTitle, "臺北市"}}},
		{"district", Selection{Region: geo.RegionA, District: "63000010"},
			Heading{Title: "松山區", Breadcrumb: []string{CentralTitle, "臺北市", "松山區"}}},
		{"unknown region", Selection{Region: "99999", District: geo.DistrictAll},
			Heading{Title: "Unknown Region Code: 99999", Breadcrumb: []string{CentralTitle, "Unknown Region Code: 99999"}}},
		{"unknown district", Selection{Region: geo.RegionA, District: "1"},
			Heading{Title: "Unknown District Code: 1", Breadcrumb: []string{CentralTitle, "臺北市", "Unknown District Code: 1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Breadcrumb(c, tc.sel); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
