package mapview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/scene"

	"github.com/paulmach/orb"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}}
}

func regionFeature(code, name string, g orb.MultiPolygon) geo.GeoFeature {
	return geo.GeoFeature{Geometry: g, Properties: geo.LocationInfo{RegionCode: code, RegionName: name}}
}

func districtFeature(region, code, name string, g orb.MultiPolygon) geo.GeoFeature {
	return geo.GeoFeature{Geometry: g, Properties: geo.LocationInfo{
		RegionCode: region, DistrictCode: code, DistrictName: name,
	}}
}

func fixtures() ([]geo.GeoFeature, []geo.GeoFeature) {
	regions := []geo.GeoFeature{
		regionFeature(geo.RegionA, "臺北市", square(121.4, 24.9, 121.6, 25.1)),
		regionFeature(geo.RegionZ, "連江縣", square(119.9, 26.1, 120.1, 26.3)),
		regionFeature(geo.RegionW, "金門縣", square(118.3, 24.4, 118.5, 24.5)),
		regionFeature(geo.RegionX, "澎湖縣", square(119.5, 23.4, 119.7, 23.7)),
	}
	districts := []geo.GeoFeature{
		districtFeature(geo.RegionA, "63000010", "松山區", square(121.4, 24.9, 121.5, 25.1)),
		districtFeature(geo.RegionA, "63000020", "信義區", square(121.5, 24.9, 121.6, 25.1)),
		districtFeature(geo.RegionZ, "09007010", "南竿鄉", square(119.9, 26.1, 120.1, 26.3)),
	}
	return regions, districts
}

func newTestView(t *testing.T) *MapView {
	t.Helper()
	v := New(Options{
		Width:          1000,
		Height:         1000,
		CameraDuration: 20 * time.Millisecond,
		FrameInterval:  2 * time.Millisecond,
		ResizeThrottle: 10 * time.Millisecond,
	})
	regions, districts := fixtures()
	if err := v.Mount(regions, districts); err != nil {
		t.Fatalf("mount: %v", err)
	}
	t.Cleanup(v.Close)
	return v
}

// screenCentroid：县市在单位镜头下的屏幕质心
func screenCentroid(v *MapView, code string) (float64, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, f := range v.regions {
		if f.Properties.RegionCode == code {
			c := v.pathFor(code).Centroid(f.Geometry)
			return c[0], c[1]
		}
	}
	return 0, 0
}

func count(v *MapView, class string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.container.SelectAll(class))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMountDrawsRegionLayer(t *testing.T) {
	v := newTestView(t)
	if n := count(v, ClassCountyPath); n != 4 {
		t.Errorf("county paths = %d, want 4", n)
	}
	if n := count(v, ClassOffshoreBox); n != 3 {
		t.Errorf("offshore boxes = %d, want 3", n)
	}
	if n := count(v, ClassCountyName); n != 4 {
		t.Errorf("county labels = %d, want 4", n)
	}
	if n := count(v, ClassTownshipPath); n != 0 {
		t.Errorf("township paths before selection = %d, want 0", n)
	}

	svg := string(v.SVG())
	for _, want := range []string{"馬祖", "金門", "澎湖", "臺北市", `class="county-path path-63000"`, `fill="#ddd"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Contains(svg, ">連江") {
		t.Error("連江 label should be renamed")
	}
}

func TestOffshoreBoxGeometry(t *testing.T) {
	v := newTestView(t)
	v.mu.Lock()
	defer v.mu.Unlock()
	box := v.container.Select(ClassBoxPrefix + geo.RegionX)
	if box == nil {
		t.Fatal("missing box for X")
	}
	if box.Attr("y") != "178" || box.Attr("height") != "138" || box.Attr("width") != "72" {
		t.Errorf("X box y=%s h=%s w=%s", box.Attr("y"), box.Attr("height"), box.Attr("width"))
	}
	label := v.container.Find(func(e *scene.Element) bool {
		f, ok := featureOf(e)
		return ok && e.Tag == "text" && f.Properties.RegionCode == geo.RegionX
	})
	if len(label) != 1 {
		t.Fatalf("X labels = %d, want 1", len(label))
	}
	if label[0].Attr("x") != "52" || label[0].Attr("y") != "304" {
		t.Errorf("X label at (%s,%s), want (52,304)", label[0].Attr("x"), label[0].Attr("y"))
	}
	if label[0].Attr("font-size") != "16px" {
		t.Errorf("offshore label font-size = %s", label[0].Attr("font-size"))
	}
}

func TestLabelOffsetTable(t *testing.T) {
	want := map[string]Offset{
		geo.RegionC: {30, -15}, geo.RegionA: {5, 10}, geo.RegionF: {-5, 20}, geo.RegionH: {-15, -25},
		geo.RegionO: {35, -10}, geo.RegionJ: {5, 5}, geo.RegionK: {-5, 0}, geo.RegionB: {-20, 5},
		geo.RegionP: {0, -10}, geo.RegionI: {0, 10}, geo.RegionQ: {40, 0}, geo.RegionE: {10, 0},
		geo.RegionT: {-15, -30}, geo.RegionU: {5, 0},
	}
	for code, off := range want {
		if got := LabelOffset(geo.LocationInfo{RegionCode: code}); got != off {
			t.Errorf("%s offset = %v, want %v", code, got, off)
		}
	}
	for _, code := range []string{geo.RegionD, geo.RegionG, geo.RegionZ, "99999"} {
		if got := LabelOffset(geo.LocationInfo{RegionCode: code}); got != (Offset{}) {
			t.Errorf("%s offset = %v, want zero", code, got)
		}
	}
	district := geo.LocationInfo{RegionCode: geo.RegionA, DistrictCode: "63000010"}
	if got := LabelOffset(district); got != (Offset{}) {
		t.Errorf("district offset = %v, want zero", got)
	}
	if got := textTransform(geo.LocationInfo{RegionCode: geo.RegionT}); got != "translate(-15, -30)" {
		t.Errorf("transform = %q", got)
	}
}

func TestLabelPositionQuirk(t *testing.T) {
	v := newTestView(t)
	v.mu.Lock()
	defer v.mu.Unlock()
	f := v.regions[0]
	c := v.pathFor(geo.RegionA).Centroid(f.Geometry)
	x, y := v.labelPosition(f)
	if x != c[0] || y != c[1]+8 {
		t.Errorf("label at (%v,%v), want (%v,%v)", x, y, c[0], c[1]+8)
	}
}

func TestDistrictFilter(t *testing.T) {
	v := newTestView(t)
	v.mu.Lock()
	defer v.mu.Unlock()

	v.renderDistrictLayer(geo.RegionAll)
	if n := len(v.container.SelectAll(ClassTownshipPath)); n != 0 {
		t.Fatalf("ALL drew %d districts", n)
	}
	v.renderDistrictLayer(geo.RegionA)
	paths := v.container.SelectAll(ClassTownshipPath)
	if len(paths) != 2 {
		t.Fatalf("A districts = %d, want 2", len(paths))
	}
	for _, p := range paths {
		if p.Parent() != v.container.Select(ClassRegionPrefix+geo.RegionA) {
			t.Error("district path should live in its region group")
		}
	}
	v.renderDistrictLayer(geo.RegionZ)
	paths = v.container.SelectAll(ClassTownshipPath)
	if len(paths) != 1 || !paths[0].HasClass(ClassPathPrefix+"09007010") {
		t.Fatalf("Z districts = %v", paths)
	}
	labels := v.container.SelectAll(ClassTownshipName)
	if len(labels) != 1 || labels[0].Parent() != v.container.Select(ClassRegionPrefix+geo.RegionZ) {
		t.Error("offshore district label should live in the region group")
	}
	v.renderDistrictLayer("unknown")
	if n := len(v.container.SelectAll(ClassTownshipPath)); n != 0 {
		t.Errorf("unknown region left %d districts", n)
	}
}

func TestHighlightIdempotent(t *testing.T) {
	v := newTestView(t)
	v.mu.Lock()
	defer v.mu.Unlock()

	v.renderHighlight(nil, v.proj.Path())
	if n := len(v.container.SelectAll(ClassHighlight)); n != 0 {
		t.Fatalf("highlights = %d, want 0", n)
	}
	f := v.regions[0]
	v.renderHighlight(&f, v.proj.Path())
	v.renderHighlight(&f, v.proj.Path())
	hl := v.container.SelectAll(ClassHighlight)
	if len(hl) != 1 {
		t.Fatalf("highlights = %d, want 1", len(hl))
	}
	if hl[0].Style("opacity") != "0.2" || hl[0].Style("pointer-events") != "none" {
		t.Error("highlight style not applied")
	}
	kids := v.container.Children()
	if kids[len(kids)-1].Tag != "text" {
		t.Error("labels should be raised above the highlight")
	}
	v.renderHighlight(nil, v.proj.Path())
	if n := len(v.container.SelectAll(ClassHighlight)); n != 0 {
		t.Errorf("highlights after clear = %d", n)
	}
}

func TestSelectRegionSequence(t *testing.T) {
	v := newTestView(t)
	ctx := context.Background()

	if err := v.SelectRegion(ctx, geo.RegionA); err != nil {
		t.Fatalf("select A: %v", err)
	}
	if n := count(v, ClassTownshipPath); n != 2 {
		t.Errorf("township paths = %d, want 2", n)
	}
	st := v.State()
	if st.RegionCode != geo.RegionA || st.DistrictCode != geo.DistrictAll || st.Zoom <= 1 {
		t.Errorf("state = %+v", st)
	}
	v.mu.Lock()
	for _, l := range v.container.SelectAll(ClassCountyName) {
		if l.Style("opacity") != "0" {
			t.Error("county labels should stay hidden for a concrete region")
		}
	}
	got := v.container.Transform()
	v.mu.Unlock()
	if got.K != st.Zoom {
		t.Errorf("root transform %v does not match zoom %v", got, st.Zoom)
	}

	if err := v.SelectRegion(ctx, geo.RegionAll); err != nil {
		t.Fatalf("select ALL: %v", err)
	}
	if n := count(v, ClassTownshipPath); n != 0 {
		t.Errorf("township paths after ALL = %d", n)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.container.Transform() != scene.Identity {
		t.Errorf("ALL transform = %v", v.container.Transform())
	}
	for _, l := range v.container.SelectAll(ClassCountyName) {
		if l.Style("opacity") != "1" {
			t.Error("county labels should be visible again")
		}
	}
}

func TestSelectRegionSupersedes(t *testing.T) {
	v := newTestView(t)
	v.opts.CameraDuration = 200 * time.Millisecond
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- v.SelectRegion(ctx, geo.RegionA) }()
	waitFor(t, func() bool { return v.State().RegionCode == geo.RegionA })

	if err := v.SelectRegion(ctx, geo.RegionZ); err != nil {
		t.Fatalf("select Z: %v", err)
	}
	if err := <-first; err != nil {
		t.Fatalf("superseded selection returned %v", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	paths := v.container.SelectAll(ClassTownshipPath)
	if len(paths) != 1 || !paths[0].HasClass(ClassPathPrefix+"09007010") {
		t.Fatalf("districts after supersede = %d", len(paths))
	}
	want, _ := v.targetFor(geo.RegionZ)
	if v.container.Transform() != want {
		t.Errorf("transform = %v, want %v", v.container.Transform(), want)
	}
	for _, r := range v.container.SelectAll(ClassOffshoreBox) {
		if r.Style("opacity") != "0" || r.Style("pointer-events") != "none" {
			t.Error("offshore boxes should be hidden while an offshore region is selected")
		}
	}
}

func TestSelectUnknownRegion(t *testing.T) {
	v := newTestView(t)
	if err := v.SelectRegion(context.Background(), "99999"); err != nil {
		t.Fatalf("unknown code: %v", err)
	}
	if n := count(v, ClassTownshipPath); n != 0 {
		t.Errorf("unknown region drew %d districts", n)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.container.Transform() != scene.Identity {
		t.Error("camera should not move for an unknown region")
	}
}

func TestSelectRegionContextCanceled(t *testing.T) {
	v := newTestView(t)
	v.opts.CameraDuration = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.SelectRegion(ctx, geo.RegionA); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := count(v, ClassTownshipPath); n != 0 {
		t.Errorf("canceled selection drew %d districts", n)
	}
}

func TestClickEmitsSelections(t *testing.T) {
	v := newTestView(t)
	var mu sync.Mutex
	var regions, districts []string
	v.OnRegionSelected(func(code string) {
		mu.Lock()
		regions = append(regions, code)
		mu.Unlock()
	})
	v.OnDistrictSelected(func(code string) {
		mu.Lock()
		districts = append(districts, code)
		mu.Unlock()
	})

	x, y := screenCentroid(v, geo.RegionA)
	v.Click(x, y)
	v.Click(50, 50)
	v.Click(999, 999)

	if err := v.SelectRegion(context.Background(), geo.RegionA); err != nil {
		t.Fatal(err)
	}
	v.mu.Lock()
	tr := v.container.Transform()
	f := v.districts[1]
	c := v.pathFor(geo.RegionA).Centroid(f.Geometry)
	v.mu.Unlock()
	sx, sy := tr.Apply(c[0], c[1])
	v.Click(sx, sy)

	mu.Lock()
	defer mu.Unlock()
	want := []string{geo.RegionA, geo.RegionZ, geo.RegionAll}
	if strings.Join(regions, ",") != strings.Join(want, ",") {
		t.Errorf("region events = %v, want %v", regions, want)
	}
	if len(districts) != 1 || districts[0] != "63000020" {
		t.Errorf("district events = %v", districts)
	}
}

func TestDispatchByKey(t *testing.T) {
	v := newTestView(t)
	var got []string
	v.OnRegionSelected(func(code string) { got = append(got, code) })

	v.Dispatch(ClassBoxPrefix+geo.RegionW, "click")
	v.Dispatch("", "click")
	v.Dispatch("missing", "click")
	if strings.Join(got, ",") != geo.RegionW+","+geo.RegionAll {
		t.Errorf("events = %v", got)
	}

	v.Dispatch(ClassPathPrefix+geo.RegionA, "mouseenter")
	if n := count(v, ClassHighlight); n != 1 {
		t.Fatalf("highlights after mouseenter = %d", n)
	}
	v.Dispatch(ClassPathPrefix+geo.RegionA, "mouseleave")
	if n := count(v, ClassHighlight); n != 0 {
		t.Errorf("highlights after mouseleave = %d", n)
	}
}

func TestHoverHighlight(t *testing.T) {
	v := newTestView(t)
	x, y := screenCentroid(v, geo.RegionA)
	v.PointerMove(x, y)
	if n := count(v, ClassHighlight); n != 1 {
		t.Fatalf("highlights on hover = %d, want 1", n)
	}
	v.PointerMove(x+1, y+1)
	if n := count(v, ClassHighlight); n != 1 {
		t.Fatalf("highlights on same shape = %d, want 1", n)
	}
	v.PointerMove(999, 999)
	if n := count(v, ClassHighlight); n != 0 {
		t.Errorf("highlights off shape = %d, want 0", n)
	}
	v.PointerMove(x, y)
	v.PointerLeave()
	if n := count(v, ClassHighlight); n != 0 {
		t.Errorf("highlights after leave = %d, want 0", n)
	}
}

func TestSelectDistrictEmitsOnChange(t *testing.T) {
	v := newTestView(t)
	var got []string
	v.OnDistrictSelected(func(code string) { got = append(got, code) })
	_ = v.SelectDistrict("63000010")
	_ = v.SelectDistrict("63000010")
	_ = v.SelectDistrict("")
	if strings.Join(got, ",") != "63000010,"+geo.DistrictAll {
		t.Errorf("events = %v", got)
	}
}

func TestSetColors(t *testing.T) {
	v := newTestView(t)
	v.SetColors(map[string]string{geo.RegionA: "#57D2A9", "63000010": "#8082FF"})
	if err := v.SelectRegion(context.Background(), geo.RegionA); err != nil {
		t.Fatal(err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if got := v.container.Select(ClassPathPrefix + geo.RegionA).Attr("fill"); got != "#57D2A9" {
		t.Errorf("A fill = %s", got)
	}
	if got := v.container.Select(ClassPathPrefix + geo.RegionX).Attr("fill"); got != DefaultFill {
		t.Errorf("X fill = %s", got)
	}
	if got := v.container.Select(ClassPathPrefix + "63000010").Attr("fill"); got != "#8082FF" {
		t.Errorf("district fill = %s", got)
	}
	if got := v.container.Select(ClassPathPrefix + "63000020").Attr("fill"); got != DefaultFill {
		t.Errorf("uncoloured district fill = %s", got)
	}
}

func TestResizeRedrawsAtomically(t *testing.T) {
	v := newTestView(t)
	if err := v.SelectRegion(context.Background(), geo.RegionA); err != nil {
		t.Fatal(err)
	}
	v.mu.Lock()
	before := v.container.Select(ClassPathPrefix + geo.RegionA).Attr("d")
	boxBefore := v.container.Select(ClassPathPrefix + geo.RegionZ).Attr("d")
	v.mu.Unlock()

	v.Resize(600, 400)
	waitFor(t, func() bool { return v.State().Width == 600 })

	v.mu.Lock()
	defer v.mu.Unlock()
	if got := v.container.Select(ClassPathPrefix + geo.RegionA).Attr("d"); got == before {
		t.Error("mainland path not redrawn")
	}
	if got := v.container.Select(ClassPathPrefix + geo.RegionZ).Attr("d"); got != boxBefore {
		t.Error("offshore path must not change on resize")
	}
	want, _ := v.targetFor(geo.RegionA)
	if v.container.Transform() != want || v.state.Zoom != want.K {
		t.Errorf("camera not jumped: %v vs %v", v.container.Transform(), want)
	}
	if v.doc.Root.Attr("viewBox") != "0 0 600 400" {
		t.Errorf("viewBox = %s", v.doc.Root.Attr("viewBox"))
	}
	assertLabels(t, v, ClassTownshipName)
}

// assertLabels：标签字号与坐标与当前投影、缩放一致
func assertLabels(t *testing.T, v *MapView, class string) {
	t.Helper()
	labels := v.container.SelectAll(class)
	if len(labels) == 0 {
		t.Fatalf("no %s labels", class)
	}
	for _, l := range labels {
		f, ok := featureOf(l)
		if !ok {
			t.Fatalf("%s label without feature", class)
		}
		if got, want := l.Attr("font-size"), fmtNum(v.fontSize(f.Properties))+"px"; got != want {
			t.Errorf("%s font-size = %s, want %s", l.Text, got, want)
		}
		x, y := v.labelPosition(f)
		if l.Attr("x") != fmtNum(x) || l.Attr("y") != fmtNum(y) {
			t.Errorf("%s at (%s,%s), want (%s,%s)", l.Text, l.Attr("x"), l.Attr("y"), fmtNum(x), fmtNum(y))
		}
	}
}

func TestResizeThenAllRestoresCountyLabels(t *testing.T) {
	v := newTestView(t)
	ctx := context.Background()
	if err := v.SelectRegion(ctx, geo.RegionA); err != nil {
		t.Fatal(err)
	}
	v.Resize(900, 900)
	waitFor(t, func() bool { return v.State().Width == 900 })

	v.mu.Lock()
	want, _ := v.targetFor(geo.RegionA)
	if v.state.Zoom != want.K {
		t.Errorf("zoom = %v, want %v", v.state.Zoom, want.K)
	}
	assertLabels(t, v, ClassTownshipName)
	for _, l := range v.container.SelectAll(ClassTownshipName) {
		if got := l.Attr("font-size"); got != fmtNum(baseFontSize/want.K)+"px" {
			t.Errorf("township font-size = %s after resize", got)
		}
	}
	v.mu.Unlock()

	if err := v.SelectRegion(ctx, geo.RegionAll); err != nil {
		t.Fatal(err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Zoom != 1 {
		t.Fatalf("zoom = %v, want 1", v.state.Zoom)
	}
	assertLabels(t, v, ClassCountyName)
	for _, l := range v.container.SelectAll(ClassCountyName) {
		if got := l.Attr("font-size"); got != "16px" {
			t.Errorf("%s font-size = %s, want 16px", l.Text, got)
		}
	}
}

func TestThrottlerLeadingAndTrailing(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	th := newThrottler(30*time.Millisecond, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	defer th.Stop()
	for i := 0; i < 5; i++ {
		th.Trigger()
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	})
	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	v := newTestView(t)
	changes := 0
	v.OnChange(func() { changes++ })
	v.Close()
	v.Close()
	if err := v.SelectRegion(context.Background(), geo.RegionA); !errors.Is(err, ErrNotMounted) {
		t.Errorf("err = %v, want ErrNotMounted", err)
	}
	v.Resize(300, 300)
	v.Click(10, 10)
	time.Sleep(20 * time.Millisecond)
	if changes != 0 {
		t.Errorf("changes after close = %d", changes)
	}
	if v.State().Width != 1000 {
		t.Error("resize after close should be ignored")
	}
	if !errors.Is(v.Mount(nil, nil), ErrClosed) {
		t.Error("mount after close should fail")
	}
}

func TestStartSelectRegionKeepsCallOrder(t *testing.T) {
	v := newTestView(t)
	ctx := context.Background()
	first := v.StartSelectRegion(ctx, geo.RegionA)
	second := v.StartSelectRegion(ctx, geo.RegionZ)
	if got := v.State().RegionCode; got != geo.RegionZ {
		t.Fatalf("region after start = %s, want %s", got, geo.RegionZ)
	}
	if err := <-first; err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second: %v", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	paths := v.container.SelectAll(ClassTownshipPath)
	if len(paths) != 1 || !paths[0].HasClass(ClassPathPrefix+"09007010") {
		t.Fatalf("districts = %d", len(paths))
	}
}

func TestStartSelectRegionNotMounted(t *testing.T) {
	v := New(Options{})
	defer v.Close()
	if err := <-v.StartSelectRegion(context.Background(), geo.RegionA); !errors.Is(err, ErrNotMounted) {
		t.Errorf("err = %v, want ErrNotMounted", err)
	}
}
