package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// 查询参数：kind, propertyType, q, minBeds, maxBeds, minBaths, maxBaths, minArea, maxArea, minPrice, maxPrice。
// 服务端由 gin 的 query binder 解析，这里只负责客户端编码。

func (s FilterSpec) Values() url.Values {
	v := url.Values{}
	if !s.allKinds() {
		v.Set("kind", string(s.Kind))
	}
	if s.PropertyType != "" {
		v.Set("propertyType", string(s.PropertyType))
	}
	if q := strings.TrimSpace(s.Search); q != "" {
		v.Set("q", q)
	}
	setInt(v, "minBeds", s.Beds.Min)
	setInt(v, "maxBeds", s.Beds.Max)
	setInt(v, "minBaths", s.Baths.Min)
	setInt(v, "maxBaths", s.Baths.Max)
	setFloat(v, "minArea", s.Area.Min)
	setFloat(v, "maxArea", s.Area.Max)
	setFloat(v, "minPrice", s.Price.Min)
	setFloat(v, "maxPrice", s.Price.Max)
	return v
}

func setInt(v url.Values, k string, p *int) {
	if p != nil {
		v.Set(k, strconv.Itoa(*p))
	}
}

func setFloat(v url.Values, k string, p *float64) {
	if p != nil {
		v.Set(k, strconv.FormatFloat(*p, 'f', -1, 64))
	}
}
