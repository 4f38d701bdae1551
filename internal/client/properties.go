package client

import (
	"context"
	"net/http"
	"net/url"

	"property-listing/internal/domain"
	"property-listing/internal/listing"
	"property-listing/internal/service"
)

// lookup 接口单次上限
const lookupChunk = 100

type DashboardStats = service.DashboardStats

type Page struct {
	Items   []domain.Property `json:"items"`
	Summary listing.Summary   `json:"summary"`
}

// Browse 过滤在服务端做，结果与本地 listing.Apply 一致
func (c *Client) Browse(ctx context.Context, spec listing.FilterSpec) (*Page, error) {
	var out Page
	path := "/properties"
	if q := spec.Values().Encode(); q != "" {
		path += "?" + q
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	var out domain.Property
	if err := c.do(ctx, http.MethodGet, "/properties/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPropertiesByIDs 满足 favorites.Resolver；查不到的 id 由服务端丢弃
func (c *Client) GetPropertiesByIDs(ctx context.Context, ids []string) ([]domain.Property, error) {
	out := make([]domain.Property, 0, len(ids))
	for start := 0; start < len(ids); start += lookupChunk {
		end := min(start+lookupChunk, len(ids))
		var page struct {
			Items []domain.Property `json:"items"`
		}
		in := map[string][]string{"ids": ids[start:end]}
		if err := c.do(ctx, http.MethodPost, "/properties/lookup", in, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
	}
	return out, nil
}

// MyProperties 业主自己的房源，spec 的搜索按业主范围（含描述和类型字段）匹配
func (c *Client) MyProperties(ctx context.Context, spec listing.FilterSpec) (*Page, error) {
	var out Page
	path := "/my/properties"
	if q := spec.Values().Encode(); q != "" {
		path += "?" + q
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProperty(ctx context.Context, draft domain.PropertyDraft) (*domain.Property, error) {
	var out domain.Property
	if err := c.do(ctx, http.MethodPost, "/properties", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProperty(ctx context.Context, id string, patch domain.PropertyPatch) (*domain.Property, error) {
	var out domain.Property
	if err := c.do(ctx, http.MethodPut, "/properties/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetActive(ctx context.Context, id string, active bool) (*domain.Property, error) {
	var out domain.Property
	in := map[string]bool{"isActive": active}
	if err := c.do(ctx, http.MethodPatch, "/properties/"+url.PathEscape(id)+"/active", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProperty(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/properties/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
