package router

import (
	"github.com/gin-gonic/gin"

	"property-listing/internal/domain"
	"property-listing/internal/transport/http/handler"
	mdw "property-listing/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 v1，统一要求 admin 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := baseEngine("admin", d)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, domain.RoleAdmin))

	reg := &Registry{}
	reg.Register(
		handler.NewUserHandler(d.Users, nil),
		handler.NewPropertyHandler(d.Props),
	)
	reg.MountAdmin(admin)
	return r
}
