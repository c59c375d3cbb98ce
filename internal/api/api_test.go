package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"

	"github.com/paulmach/orb"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}}
}

func collection() *geo.Collection {
	return &geo.Collection{
		Regions: []geo.GeoFeature{
			{Geometry: square(121.4, 24.9, 121.6, 25.1), Properties: geo.LocationInfo{RegionCode: geo.RegionA, RegionName: "臺北市"}},
			{Geometry: square(120.1, 22.9, 120.4, 23.2), Properties: geo.LocationInfo{RegionCode: geo.RegionD, RegionName: "臺南市"}},
		},
		Districts: []geo.GeoFeature{
			{Geometry: square(121.4, 24.9, 121.5, 25.1), Properties: geo.LocationInfo{RegionCode: geo.RegionA, DistrictCode: "63000010", DistrictName: "松山區"}},
			{Geometry: square(121.5, 24.9, 121.6, 25.1), Properties: geo.LocationInfo{RegionCode: geo.RegionA, DistrictCode: "63000020", DistrictName: "信義區"}},
		},
	}
}

type countingColors struct{ calls int }

func (c *countingColors) Colors(_ context.Context, year string) (election.ColorMap, error) {
	c.calls++
	return election.ColorMap{geo.RegionA: "#8082FF"}, nil
}

func newServer(t *testing.T) (*httptest.Server, *countingColors) {
	t.Helper()
	colors := &countingColors{}
	mux := BuildRoutes(Deps{Geo: collection(), Colors: colors, Cache: NewLRU(8, time.Minute)})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, colors
}

func get(t *testing.T, u string) *http.Response {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatalf("get %s: %v", u, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRegionsSortedDescending(t *testing.T) {
	srv, _ := newServer(t)
	resp := get(t, srv.URL+"/regions")
	var opts []geo.Option
	if err := json.NewDecoder(resp.Body).Decode(&opts); err != nil {
		t.Fatal(err)
	}
	if len(opts) != 2 || opts[0].Value != geo.RegionD || opts[1].Value != geo.RegionA {
		t.Errorf("regions = %v", opts)
	}
}

func TestDistricts(t *testing.T) {
	srv, _ := newServer(t)
	var opts []geo.Option
	_ = json.NewDecoder(get(t, srv.URL+"/districts?region="+geo.RegionA).Body).Decode(&opts)
	if len(opts) != 2 || opts[0].Value != "63000020" {
		t.Errorf("districts = %v", opts)
	}
	var none []geo.Option
	_ = json.NewDecoder(get(t, srv.URL+"/districts?region=ALL").Body).Decode(&none)
	if len(none) != 0 {
		t.Errorf("districts of ALL = %v", none)
	}
}

func TestSnapshotSVGCached(t *testing.T) {
	srv, colors := newServer(t)
	u := srv.URL + "/map.svg?year=2024&region=" + geo.RegionA + "&w=300&h=200"
	resp := get(t, u)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("content-type"); ct != "image/svg+xml" {
		t.Errorf("content-type = %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	svg := string(body)
	for _, want := range []string{`viewBox="0 0 300 200"`, "#8082FF", "path-63000010"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	get(t, u)
	if colors.calls != 1 {
		t.Errorf("colour loads = %d, want 1 (second request cached)", colors.calls)
	}
}

func TestSnapshotPNG(t *testing.T) {
	srv, _ := newServer(t)
	resp := get(t, srv.URL+"/map.png?w=120&h=100")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("content-type") != "image/png" {
		t.Fatalf("status = %d, type = %s", resp.StatusCode, resp.Header.Get("content-type"))
	}
	head := make([]byte, 8)
	if _, err := io.ReadFull(resp.Body, head); err != nil || string(head[1:4]) != "PNG" {
		t.Errorf("not a png: %q, %v", head, err)
	}
}

func TestSnapshotBadYear(t *testing.T) {
	srv, _ := newServer(t)
	if resp := get(t, srv.URL+"/map.svg?year=2023"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStatsWithoutStore(t *testing.T) {
	srv, _ := newServer(t)
	if resp := get(t, srv.URL+"/stats"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var years []string
	_ = json.NewDecoder(get(t, srv.URL+"/years").Body).Decode(&years)
	if len(years) != 8 || years[0] != "1996" || years[7] != "2024" {
		t.Errorf("years = %v", years)
	}
}

func TestParseSnapshotParams(t *testing.T) {
	cases := []struct {
		query string
		want  SnapshotParams
	}{
		{"", SnapshotParams{Year: "2024", Region: "ALL", District: "ALL", Width: 800, Height: 600}},
		{"region=63000&district=63000010&w=10&h=99999", SnapshotParams{Year: "2024", Region: "63000", District: "63000010", Width: 100, Height: 4096}},
		{"region=ALL&district=63000010&year=1996", SnapshotParams{Year: "1996", Region: "ALL", District: "ALL", Width: 800, Height: 600}},
	}
	for _, c := range cases {
		q, _ := url.ParseQuery(c.query)
		got, err := ParseSnapshotParams(q)
		if err != nil || got != c.want {
			t.Errorf("ParseSnapshotParams(%q) = %+v, %v; want %+v", c.query, got, err, c.want)
		}
	}
}

func TestLRUEvictsAndExpires(t *testing.T) {
	c := NewLRU(2, time.Hour)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Get("a")
	c.Set("c", []byte("3"))
	if _, ok := c.Get("b"); ok {
		t.Error("b should be evicted as least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive")
	}
	expired := NewLRU(2, -time.Second)
	expired.Set("x", []byte("1"))
	if _, ok := expired.Get("x"); ok {
		t.Error("expired entry returned")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("len after purge = %d", c.Len())
	}
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name   string
		target string
		header map[string]string
		remote string
		want   string
	}{
		{"query", "/ws?ip=1.2.3.4", nil, "9.9.9.9:1", "1.2.3.4"},
		{"xff", "/ws", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "9.9.9.9:1", "5.6.7.8"},
		{"forwarded", "/ws", map[string]string{"Forwarded": `for="7.7.7.7";proto=https`}, "9.9.9.9:1", "7.7.7.7"},
		{"forwarded list", "/ws", map[string]string{"Forwarded": "for=8.8.4.4, for=10.0.0.2"}, "9.9.9.9:1", "8.8.4.4"},
		{"forwarded port", "/ws", map[string]string{"Forwarded": `for="8.8.8.8:4711";proto=http`}, "9.9.9.9:1", "8.8.8.8"},
		{"forwarded v6", "/ws", map[string]string{"Forwarded": `For="[2001:db8:cafe::17]:4711"`}, "9.9.9.9:1", "2001:db8:cafe::17"},
		{"remote", "/ws", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote v6", "/ws", nil, "[2001:db8::1]:443", "2001:db8::1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, c.target, nil)
			r.RemoteAddr = c.remote
			for k, v := range c.header {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}
