package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"property-listing/internal/domain"
	"property-listing/internal/service"
	"property-listing/internal/transport/http/ez"
)

type FavoriteHandler struct {
	favs *service.FavoriteService
}

func NewFavoriteHandler(favs *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favs: favs}
}

func (h *FavoriteHandler) Priority() int { return 30 }

// MountAPI 收藏全部要求登录
func (h *FavoriteHandler) MountAPI(_, authed *gin.RouterGroup) {
	e := ez.New(authed)

	e.GET("/favorites", func(c *gin.Context) (any, error) {
		items, err := h.favs.Properties(c.Request.Context(), ez.UserID(c))
		if err != nil {
			return nil, err
		}
		return gin.H{"items": items}, nil
	})

	e.GET("/favorites/ids", func(c *gin.Context) (any, error) {
		ids, err := h.favs.IDs(c.Request.Context(), ez.UserID(c))
		if err != nil {
			return nil, err
		}
		return gin.H{"ids": ids}, nil
	})

	// 带 addedAt 的原始标记，客户端对账用
	e.GET("/favorites/marks", func(c *gin.Context) (any, error) {
		marks, err := h.favs.Marks(c.Request.Context(), ez.UserID(c))
		if err != nil {
			return nil, err
		}
		return gin.H{"items": marks}, nil
	})

	e.GET("/favorites/:propertyId", func(c *gin.Context) (any, error) {
		ok, err := h.favs.IsFavorite(c.Request.Context(), ez.UserID(c), c.Param("propertyId"))
		if err != nil {
			return nil, err
		}
		return gin.H{"isFavorite": ok}, nil
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.FavoriteMark]{
		Method: http.MethodPut,
		Path:   "/favorites/:propertyId",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.FavoriteMark, error) {
			return h.favs.Add(c.Request.Context(), ez.UserID(c), c.Param("propertyId"))
		},
	})

	// 幂等：没收藏过也返回成功
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/favorites/:propertyId",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("propertyId")
			if err := h.favs.Remove(c.Request.Context(), ez.UserID(c), id); err != nil {
				return nil, err
			}
			return gin.H{"propertyId": id}, nil
		},
	})
}
