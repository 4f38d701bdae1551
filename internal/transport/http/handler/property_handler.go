package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"property-listing/internal/domain"
	"property-listing/internal/listing"
	"property-listing/internal/service"
	"property-listing/internal/transport/http/ez"
)

// 批量查询一次最多的 id 数
const maxLookupIDs = 100

type PropertyHandler struct {
	props *service.PropertyService
}

func NewPropertyHandler(props *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{props: props}
}

func (h *PropertyHandler) Priority() int { return 20 }

type ownerListing struct {
	Items   []domain.Property `json:"items"`
	Summary listing.Summary   `json:"summary"`
}

// browseQuery 列表查询参数；kind / propertyType 接受英文别名
type browseQuery struct {
	Kind         string   `form:"kind"`
	PropertyType string   `form:"propertyType"`
	Q            string   `form:"q"`
	MinBeds      *int     `form:"minBeds" binding:"omitempty,gte=0"`
	MaxBeds      *int     `form:"maxBeds" binding:"omitempty,gte=0"`
	MinBaths     *int     `form:"minBaths" binding:"omitempty,gte=0"`
	MaxBaths     *int     `form:"maxBaths" binding:"omitempty,gte=0"`
	MinArea      *float64 `form:"minArea" binding:"omitempty,gte=0"`
	MaxArea      *float64 `form:"maxArea" binding:"omitempty,gte=0"`
	MinPrice     *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice     *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
}

func (q browseQuery) spec(scope listing.SearchScope) (listing.FilterSpec, error) {
	kind, err := domain.ParseTransactionKind(q.Kind)
	if err != nil {
		return listing.FilterSpec{}, err
	}
	var pt domain.PropertyType
	if strings.TrimSpace(q.PropertyType) != "" {
		if pt, err = domain.ParsePropertyType(q.PropertyType); err != nil {
			return listing.FilterSpec{}, err
		}
	}
	spec := listing.FilterSpec{
		Kind:         kind,
		PropertyType: pt,
		Search:       strings.TrimSpace(q.Q),
		Scope:        scope,
		Beds:         listing.IntRange{Min: q.MinBeds, Max: q.MaxBeds},
		Baths:        listing.IntRange{Min: q.MinBaths, Max: q.MaxBaths},
		Area:         listing.FloatRange{Min: q.MinArea, Max: q.MaxArea},
		Price:        listing.FloatRange{Min: q.MinPrice, Max: q.MaxPrice},
	}
	// min > max 这类跨字段约束 binding 表达不了
	return spec, spec.Validate()
}

type lookupIn struct {
	IDs []string `json:"ids" binding:"max=100"`
}

type activeIn struct {
	Active *bool `json:"isActive" binding:"required"`
}

func (h *PropertyHandler) MountAPI(pub, authed *gin.RouterGroup) {
	ezPub := ez.New(pub)

	ez.RegisterAction(ezPub, ez.Action[browseQuery, *service.BrowseResult]{
		Method: http.MethodGet,
		Path:   "/properties",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *browseQuery) (*service.BrowseResult, error) {
			spec, err := in.spec(listing.ScopeCatalog)
			if err != nil {
				return nil, err
			}
			return h.props.Browse(c.Request.Context(), spec)
		},
	})

	ezPub.GET("/properties/:id", func(c *gin.Context) (any, error) {
		return h.props.Get(c.Request.Context(), c.Param("id"))
	})

	// 部分可用：查不到的 id 直接不返回
	ez.POST(ezPub, "/properties/lookup", func(c *gin.Context, in lookupIn) (any, error) {
		if len(in.IDs) > maxLookupIDs {
			return nil, ez.BadRequest("too many ids")
		}
		items, err := h.props.GetPropertiesByIDs(c.Request.Context(), in.IDs)
		if err != nil {
			return nil, err
		}
		return gin.H{"items": items}, nil
	})

	ezAuth := ez.New(authed)

	// 业主管理页：同一套筛选参数，搜索范围更宽；Summary 按全部自有房源统计
	ez.RegisterAction(ezAuth, ez.Action[browseQuery, ownerListing]{
		Method: http.MethodGet,
		Path:   "/my/properties",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *browseQuery) (ownerListing, error) {
			spec, err := in.spec(listing.ScopeOwner)
			if err != nil {
				return ownerListing{}, err
			}
			items, err := h.props.ListByOwner(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return ownerListing{}, err
			}
			return ownerListing{Items: listing.Apply(items, spec), Summary: listing.Summarize(items)}, nil
		},
	})

	ez.RegisterAction(ezAuth, ez.Action[domain.PropertyDraft, *domain.Property]{
		Method: http.MethodPost,
		Path:   "/properties",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.PropertyDraft) (*domain.Property, error) {
			return h.props.Create(c.Request.Context(), ez.UserID(c), *in)
		},
	})

	// 局部更新：body 里只出现要改的字段，未知字段直接拒绝
	ez.RegisterAction(ezAuth, ez.Action[struct{}, *domain.Property]{
		Method: http.MethodPut,
		Path:   "/properties/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Property, error) {
			raw, err := c.GetRawData()
			if err != nil {
				return nil, ez.BadRequest(err.Error())
			}
			patch, err := domain.DecodePatch(raw)
			if err != nil {
				return nil, err
			}
			if patch.Empty() {
				return nil, ez.BadRequest("nothing to update")
			}
			return h.props.Update(c.Request.Context(), ez.UserID(c), c.Param("id"), patch)
		},
	})

	ez.RegisterAction(ezAuth, ez.Action[activeIn, *domain.Property]{
		Method: http.MethodPatch,
		Path:   "/properties/:id/active",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *activeIn) (*domain.Property, error) {
			return h.props.SetActive(c.Request.Context(), ez.UserID(c), c.Param("id"), *in.Active)
		},
	})

	ez.RegisterAction(ezAuth, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/properties/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.props.Delete(c.Request.Context(), ez.UserID(c), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{"id": c.Param("id")}, nil
		},
	})
}

func (h *PropertyHandler) MountAdmin(admin *gin.RouterGroup) {
	ezAdmin := ez.New(admin)

	// 后台看全部，包括下架
	ezAdmin.GET("/properties", func(c *gin.Context) (any, error) {
		items, err := h.props.ListAll(c.Request.Context())
		if err != nil {
			return nil, err
		}
		return ownerListing{Items: items, Summary: listing.Summarize(items)}, nil
	})

	ez.RegisterAction(ezAdmin, ez.Action[struct{}, *domain.Property]{
		Method: http.MethodPost,
		Path:   "/properties/:id/deactivate",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Property, error) {
			return h.props.Deactivate(c.Request.Context(), c.Param("id"))
		},
	})
}
