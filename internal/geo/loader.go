package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/metrics"
)

// 默认文件名与对象名：县市与乡镇两份拓扑文件同名对象
const (
	DefaultRegionObject   = "COUNTY"
	DefaultDistrictObject = "TOWNSHIP"
)

// Source：几何载荷来源，name 为不含扩展名的文件名
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FileSource：从本地目录读取 <name>.json
type FileSource struct {
	Dir string
}

func (s FileSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.Dir, name+".json"))
}

// 文档注释：HTTP 拓扑文件来源
// 背景：前端静态资源约定路径为 <BaseURL>/map-topo-json/<name>.json；服务端按同一约定拉取。
// 约束：Client 为空时使用 10s 超时的默认客户端；非 2xx 视为失败，不做重试。
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	u := strings.TrimRight(s.BaseURL, "/") + "/map-topo-json/" + name + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// 文档注释：几何加载器
// 背景：县市与乡镇两份载荷并发拉取，二者均成功后才产出结果；任一失败则整体失败，地图保持空白。
// 约束：不做重试；调用方持有结果只读使用。
type Loader struct {
	Source         Source
	RegionFile     string
	DistrictFile   string
	RegionObject   string
	DistrictObject string
}

// NewLoader：使用默认文件名与对象名构造加载器
func NewLoader(src Source) *Loader {
	return &Loader{
		Source:         src,
		RegionFile:     DefaultRegionObject,
		DistrictFile:   DefaultDistrictObject,
		RegionObject:   DefaultRegionObject,
		DistrictObject: DefaultDistrictObject,
	}
}

// Load：并发拉取并解码两份载荷
func (l *Loader) Load(ctx context.Context) (*Collection, error) {
	if l.Source == nil {
		return nil, errors.New("geometry source not configured")
	}
	t0 := time.Now()
	type result struct {
		feats []GeoFeature
		err   error
	}
	var wg sync.WaitGroup
	var region, district result
	fetch := func(file, object string, out *result) {
		defer wg.Done()
		b, err := l.Source.Fetch(ctx, file)
		if err != nil {
			out.err = fmt.Errorf("fetch %s: %w", file, err)
			return
		}
		out.feats, out.err = DecodeFeatures(b, object)
	}
	wg.Add(2)
	go fetch(l.RegionFile, l.RegionObject, &region)
	go fetch(l.DistrictFile, l.DistrictObject, &district)
	wg.Wait()
	if err := errors.Join(region.err, district.err); err != nil {
		metrics.GeometryLoadTotal.WithLabelValues("error").Inc()
		logger.L().Error("geometry_load_error", "err", err)
		return nil, err
	}
	dur := time.Since(t0).Milliseconds()
	metrics.GeometryLoadTotal.WithLabelValues("ok").Inc()
	logger.L().Info("geometry_load_ok", "regions", len(region.feats), "districts", len(district.feats), "duration_ms", dur)
	return &Collection{Regions: region.feats, Districts: district.feats}, nil
}

// Collection：一次加载产出的县市与乡镇要素
type Collection struct {
	Regions   []GeoFeature
	Districts []GeoFeature
}

// FindRegion：按县市代码查找县市要素
func (c *Collection) FindRegion(code string) (GeoFeature, bool) {
	for _, f := range c.Regions {
		if f.Properties.RegionCode == code {
			return f, true
		}
	}
	return GeoFeature{}, false
}

// FindDistrict：按乡镇代码查找乡镇要素
func (c *Collection) FindDistrict(code string) (GeoFeature, bool) {
	for _, f := range c.Districts {
		if f.Properties.DistrictCode == code {
			return f, true
		}
	}
	return GeoFeature{}, false
}

// DistrictsOf：筛选属于指定县市的乡镇要素，保持原有顺序
func (c *Collection) DistrictsOf(regionCode string) []GeoFeature {
	var out []GeoFeature
	for _, f := range c.Districts {
		if f.Properties.RegionCode == regionCode {
			out = append(out, f)
		}
	}
	return out
}

// RegionOptions：县市下拉选项，按代码降序
func (c *Collection) RegionOptions() []Option {
	out := make([]Option, 0, len(c.Regions))
	for _, f := range c.Regions {
		out = append(out, Option{Label: f.Properties.RegionName, Value: f.Properties.RegionCode})
	}
	sortDesc(out)
	return out
}

// DistrictOptions：指定县市下的乡镇选项，按代码降序；“全部”返回空
func (c *Collection) DistrictOptions(regionCode string) []Option {
	if IsAll(regionCode) {
		return nil
	}
	var out []Option
	for _, f := range c.DistrictsOf(regionCode) {
		out = append(out, Option{Label: f.Properties.DistrictName, Value: f.Properties.DistrictCode})
	}
	sortDesc(out)
	return out
}

func sortDesc(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Value > opts[j].Value })
}
