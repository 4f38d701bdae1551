package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"property-listing/internal/domain"
	"property-listing/internal/identity"
	"property-listing/internal/service"
	"property-listing/internal/transport/http/ez"
)

type UserHandler struct {
	users     *service.UserService
	authLimit gin.HandlerFunc
}

// NewUserHandler authLimit 挂在 /auth 上（按 IP 限速），可为 nil
func NewUserHandler(users *service.UserService, authLimit gin.HandlerFunc) *UserHandler {
	return &UserHandler{users: users, authLimit: authLimit}
}

func (h *UserHandler) Priority() int { return 10 }

type registerIn struct {
	Email       string `json:"email"       binding:"required"`
	Password    string `json:"password"    binding:"required"`
	DisplayName string `json:"displayName" binding:"omitempty,max=64"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) MountAPI(pub, authed *gin.RouterGroup) {
	authGroup := pub.Group("/auth")
	if h.authLimit != nil {
		authGroup.Use(h.authLimit)
	}
	ezAuthGroup := ez.New(authGroup)

	ez.RegisterAction(ezAuthGroup, ez.Action[registerIn, *identity.Credentials]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *registerIn) (*identity.Credentials, error) {
			return h.users.Register(c.Request.Context(), in.Email, in.Password, in.DisplayName)
		},
	})

	ez.RegisterAction(ezAuthGroup, ez.Action[loginIn, *identity.Credentials]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*identity.Credentials, error) {
			return h.users.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	// /me 必须挂在鉴权分组，才能拿到 userId
	ezMe := ez.New(authed)
	ezMe.GET("/me", func(c *gin.Context) (any, error) {
		return h.users.Me(c.Request.Context(), ez.UserID(c))
	})
	ez.RegisterAction(ezMe, ez.Action[service.ProfileUpdate, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/me",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.ProfileUpdate) (*domain.User, error) {
			return h.users.UpdateProfile(c.Request.Context(), ez.UserID(c), *in)
		},
	})
}

type userListQ struct {
	Offset      int    `form:"offset,default=0"`
	Limit       int    `form:"limit,default=20"`
	Q           string `form:"q"`            // 按 email/name 模糊搜
	WithDeleted bool   `form:"with_deleted"` // 是否包含软删
}

func (h *UserHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin)

	ez.RegisterAction(e, ez.Action[userListQ, *service.UserPage]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *userListQ) (*service.UserPage, error) {
			return h.users.List(c.Request.Context(), domain.UserQuery{
				Q:           strings.TrimSpace(in.Q),
				Offset:      in.Offset,
				Limit:       in.Limit,
				WithDeleted: in.WithDeleted,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.users.Ban(c.Request.Context(), ez.UserID(c), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{"id": c.Param("id"), "banned": true}, nil
		},
	})
}
