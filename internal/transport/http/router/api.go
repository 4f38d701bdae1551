package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"property-listing/internal/core/auth"
	"property-listing/internal/core/server"
	"property-listing/internal/service"
	"property-listing/internal/transport/http/handler"
	mdw "property-listing/internal/transport/http/middleware"
)

// Deps 两个 engine 共用的依赖
type Deps struct {
	Log   *zap.Logger
	JWT   *auth.JWTer
	Mode  string
	Users *service.UserService
	Props *service.PropertyService
	Favs  *service.FavoriteService
	Dash  *service.DashboardService
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func baseEngine(name string, d Deps) *gin.Engine {
	l := d.logger()
	r := server.NewRouter(l, server.Options{Name: name, Mode: d.Mode})
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := baseEngine("api", d)

	api := r.Group("/api/v1")
	// 鉴权分组与公开分组同前缀
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, ""))

	reg := &Registry{}
	reg.Register(
		handler.NewUserHandler(d.Users, mdw.RateLimitPerIP(5, 10)),
		handler.NewPropertyHandler(d.Props),
		handler.NewFavoriteHandler(d.Favs),
		handler.NewDashboardHandler(d.Dash),
	)
	reg.MountAPI(api, authed)
	return r
}
